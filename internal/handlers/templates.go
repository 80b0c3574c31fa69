package handlers

import (
	"fmt"
	"html/template"
	"path/filepath"

	"ainews/internal/ids"
	"ainews/internal/utils"

	"github.com/gin-contrib/multitemplate"
)

// Views rendered through the layout. The key is the name handlers pass to Render.
var views = []string{
	"story/list.html",
	"story/item.html",
	"story/submit.html",
	"auth/login.html",
	"user/profile.html",
	"user/threads.html",
	"error.html",
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"gt": func(a, b int) bool {
			return a > b
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"timeAgo":   utils.TimeAgo,
		"markdown":  utils.RenderMarkdown,
		"plainText": utils.PlainText,
		// URL forms of ids drop the kind prefix: /item/abc, /user/xyz
		"storyPath": func(id string) string {
			return "/item/" + ids.StripPrefix(id, ids.Story)
		},
		"userPath": func(id string) string {
			return "/user/" + ids.StripPrefix(id, ids.User)
		},
	}
}

// LoadTemplates builds one template set per view: the layout, every
// component and the view itself.
func LoadTemplates(templatesDir string) (multitemplate.Renderer, error) {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(filepath.Join(templatesDir, "layouts", "*.html"))
	if err != nil {
		return nil, err
	}
	if len(layouts) == 0 {
		return nil, fmt.Errorf("no layouts found in %s", templatesDir)
	}
	components, err := filepath.Glob(filepath.Join(templatesDir, "components", "*.html"))
	if err != nil {
		return nil, err
	}

	assemble := func(view string) []string {
		files := make([]string, 0, len(layouts)+len(components)+1)
		files = append(files, layouts...)
		files = append(files, components...)
		files = append(files, filepath.Join(templatesDir, "views", view))
		return files
	}

	funcMap := templateFuncs()
	for _, view := range views {
		tmpl, err := template.New(filepath.Base(layouts[0])).Funcs(funcMap).ParseFiles(assemble(view)...)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", view, err)
		}
		r.Add(view, tmpl)
	}
	return r, nil
}
