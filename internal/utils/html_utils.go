package utils

import (
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText 提取 HTML 的纯文本，超过 max 个字符时截断并追加省略号。
// 用于 RSS 摘要和页面 description。
func PlainText(htmlStr template.HTML, max int) string {
	if htmlStr == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(htmlStr)))
	if err != nil {
		return ""
	}
	text := strings.Join(strings.Fields(doc.Text()), " ")

	runes := []rune(text)
	if max > 0 && len(runes) > max {
		return strings.TrimSpace(string(runes[:max])) + "..."
	}
	return text
}
