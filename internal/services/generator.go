package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"ainews/internal/ids"
	"ainews/internal/llm"
	"ainews/internal/metrics"
	"ainews/internal/models"
	"ainews/internal/store"
	"ainews/internal/utils"

	"golang.org/x/sync/errgroup"
)

const (
	storySystemPrompt   = "You are a helpful assistant that writes creative HN (Hacker News) story titles"
	commentSystemPrompt = "You are a helpful assistant that writes realistic Hacker News discussion threads. " +
		"Commenters disagree, add context, tell anecdotes and reply to each other."
)

var storySchema = llm.Schema{
	Name:        "create_stories",
	Description: "Create Hacker News stories",
	Parameters: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"stories": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"title":    map[string]interface{}{"type": "string", "description": "title of the story. Hiring stories use the classic HN format"},
						"username": map[string]interface{}{"type": "string"},
						"domain":   map[string]interface{}{"type": "string", "description": "domain of the linked site, e.g. example.com"},
						"type":     map[string]interface{}{"type": "string", "enum": []string{"story", "ask", "show", "jobs"}},
						"points":   map[string]interface{}{"type": "integer"},
					},
					"required": []string{"title", "username", "domain", "type", "points"},
				},
			},
		},
		"required": []string{"stories"},
	},
}

var commentSchema = llm.Schema{
	Name:        "create_comments",
	Description: "Create the comment thread of a Hacker News story",
	Parameters: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"comments": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"id":          map[string]interface{}{"type": "string"},
						"reply_to_id": map[string]interface{}{"type": "string", "description": "id of the parent comment, omitted for top-level comments"},
						"username":    map[string]interface{}{"type": "string"},
						"comment":     map[string]interface{}{"type": "string"},
					},
					"required": []string{"id", "username", "comment"},
				},
			},
		},
		"required": []string{"comments"},
	},
}

// storyPrompt asks for n stories. The prefixes decide which feed a story lands in.
func storyPrompt(n int) string {
	return fmt.Sprintf(`Give me %d Hacker News (HN) stories.

Follow these instructions accurately:

- Make the titles as realistic as possible.
- If the story is in the first person and showing some work, prefix it with Show HN:
- If the story is a question, prefix it with Ask HN:
- If the story is about hiring, use the HN format, for example '{Company} (YC {Season}) is hiring {Role}'. Replace the {} variables with creative values.
- Most titles should not be in the first person, and should not be prefixed.
- NEVER include a prefix like "Prefix:" for jobs and hiring titles.
- Include at most 1 show, 1 ask and 1 hiring title.
`, n)
}

// GenerateResult summarizes one run.
type GenerateResult struct {
	Stories       int `json:"stories"`
	Comments      int `json:"comments"`
	FailedStories int `json:"failedStories"`
}

type GeneratorOptions struct {
	Stories int
	// Concurrency caps parallel comment generation. 0 means no cap.
	Concurrency int
}

// Generator synthesizes stories and their comment threads.
type Generator struct {
	store store.Store
	llm   llm.Completer
	cache *utils.Cache
	opts  GeneratorOptions
}

func NewGenerator(st store.Store, completer llm.Completer, cache *utils.Cache, opts GeneratorOptions) *Generator {
	if opts.Stories <= 0 {
		opts.Stories = 5
	}
	return &Generator{store: st, llm: completer, cache: cache, opts: opts}
}

type generatedStory struct {
	Title    string `json:"title"`
	Username string `json:"username"`
	Domain   string `json:"domain"`
	Type     string `json:"type"`
	Points   int    `json:"points"`
}

type generatedComment struct {
	ID        flexID  `json:"id"`
	ReplyToID *flexID `json:"reply_to_id"`
	Username  string  `json:"username"`
	Comment   string  `json:"comment"`
}

// flexID accepts ids emitted as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// Run generates one batch. It fails only if no story could be created;
// per-story comment failures are logged and counted.
func (g *Generator) Run(ctx context.Context) (*GenerateResult, error) {
	result, err := g.run(ctx)
	if err != nil {
		metrics.GeneratorRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.GeneratorRunsTotal.WithLabelValues("ok").Inc()
	return result, nil
}

func (g *Generator) run(ctx context.Context) (*GenerateResult, error) {
	raw, err := g.llm.CompleteJSON(ctx, storySystemPrompt, storyPrompt(g.opts.Stories), storySchema)
	if err != nil {
		return nil, fmt.Errorf("generate stories: %w", err)
	}
	var payload struct {
		Stories []generatedStory `json:"stories"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode stories: %w", err)
	}

	stories := normalizeStories(payload.Stories)
	if len(stories) == 0 {
		return nil, errors.New("generator produced no valid stories")
	}
	if err := g.store.CreateStories(ctx, stories); err != nil {
		return nil, fmt.Errorf("insert stories: %w", err)
	}
	metrics.GeneratedRowsTotal.WithLabelValues("story").Add(float64(len(stories)))
	slog.Info("generated stories", "count", len(stories))

	result := &GenerateResult{Stories: len(stories)}
	var mu sync.Mutex
	var eg errgroup.Group
	if g.opts.Concurrency > 0 {
		eg.SetLimit(g.opts.Concurrency)
	}
	for i := range stories {
		story := stories[i]
		eg.Go(func() error {
			n, err := g.commentStory(ctx, &story)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("generate comments failed", "story_id", story.ID, "err", err)
				result.FailedStories++
				return nil
			}
			result.Comments += n
			return nil
		})
	}
	_ = eg.Wait()

	g.cache.DeletePrefix(listCachePrefix)
	return result, nil
}

func (g *Generator) commentStory(ctx context.Context, story *models.Story) (int, error) {
	prompt := fmt.Sprintf("Write the comment thread for the story %q (%s), posted on %s. "+
		"Give every comment a short unique id and set reply_to_id for replies.",
		story.Title, story.DomainValue(), story.Type)
	raw, err := g.llm.CompleteJSON(ctx, commentSystemPrompt, prompt, commentSchema)
	if err != nil {
		return 0, err
	}
	var payload struct {
		Comments []generatedComment `json:"comments"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return 0, fmt.Errorf("decode comments: %w", err)
	}

	comments := linkComments(story.ID, payload.Comments)
	if len(comments) == 0 {
		return 0, nil
	}
	err = g.store.Tx(ctx, func(tx store.Store) error {
		if err := tx.CreateComments(ctx, comments); err != nil {
			return err
		}
		return tx.AdjustCommentsCount(ctx, story.ID, len(comments))
	})
	if err != nil {
		return 0, fmt.Errorf("insert comments: %w", err)
	}
	metrics.GeneratedRowsTotal.WithLabelValues("comment").Add(float64(len(comments)))
	g.cache.Delete(itemCachePrefix + story.ID)
	return len(comments), nil
}

func normalizeUsername(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

// normalizeStories cleans model output and drops stories without a title
// or with a domain that is not a real registrable host name.
func normalizeStories(in []generatedStory) []models.Story {
	out := make([]models.Story, 0, len(in))
	for _, gs := range in {
		title := strings.TrimSpace(gs.Title)
		domain := strings.ToLower(strings.TrimSpace(gs.Domain))
		domain = strings.TrimPrefix(domain, "www.")
		if title == "" || !utils.ValidDomain(domain) {
			slog.Warn("dropping generated story", "title", title, "domain", gs.Domain)
			continue
		}
		storyType, ok := models.ParseStoryType(gs.Type)
		if !ok {
			storyType = StoryTypeFromTitle(title)
		}
		points := gs.Points
		if points < 1 {
			points = 1
		}
		s := models.Story{
			ID:     ids.NewStoryID(),
			Type:   storyType,
			Title:  title,
			Domain: &domain,
			Points: points,
		}
		if username := normalizeUsername(gs.Username); username != "" {
			s.Username = &username
		}
		out = append(out, s)
	}
	return out
}

// linkComments dedupes generated comments by id, maps them to fresh ids and
// resolves reply_to_id. Replies to unknown ids, to themselves or inside a
// cycle become top-level. The result lists every parent before its replies.
func linkComments(storyID string, in []generatedComment) []models.Comment {
	type entry struct {
		gc    generatedComment
		newID string
	}
	byID := make(map[flexID]*entry, len(in))
	order := make([]flexID, 0, len(in))
	for _, gc := range in {
		if gc.ID == "" || strings.TrimSpace(gc.Comment) == "" {
			continue
		}
		if _, dup := byID[gc.ID]; dup {
			continue
		}
		byID[gc.ID] = &entry{gc: gc, newID: ids.NewCommentID()}
		order = append(order, gc.ID)
	}

	parent := make(map[flexID]flexID, len(order))
	for _, id := range order {
		gc := byID[id].gc
		if gc.ReplyToID == nil || *gc.ReplyToID == id {
			continue
		}
		if _, ok := byID[*gc.ReplyToID]; ok {
			parent[id] = *gc.ReplyToID
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[flexID]int, len(order))
	sorted := make([]flexID, 0, len(order))
	var visit func(id flexID)
	visit = func(id flexID) {
		state[id] = visiting
		if p, ok := parent[id]; ok {
			switch state[p] {
			case unvisited:
				visit(p)
			case visiting:
				delete(parent, id)
			}
		}
		state[id] = done
		sorted = append(sorted, id)
	}
	for _, id := range order {
		if state[id] == unvisited {
			visit(id)
		}
	}

	out := make([]models.Comment, 0, len(sorted))
	for _, id := range sorted {
		e := byID[id]
		c := models.Comment{
			ID:      e.newID,
			StoryID: storyID,
			Body:    strings.TrimSpace(e.gc.Comment),
		}
		if username := normalizeUsername(e.gc.Username); username != "" {
			c.Username = &username
		}
		if p, ok := parent[id]; ok {
			pid := byID[p].newID
			c.ParentID = &pid
		}
		out = append(out, c)
	}
	return out
}
