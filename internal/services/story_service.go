package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ainews/internal/ids"
	"ainews/internal/models"
	"ainews/internal/ratelimit"
	"ainews/internal/store"
	"ainews/internal/utils"

	"golang.org/x/sync/errgroup"
)

const (
	PerPage = 30

	listCachePrefix = "stories:"
	listCacheTTL    = time.Minute
)

type StoryQuery struct {
	IsNewest bool
	Type     models.StoryType
	Q        string
	Page     int
}

type StoryPage struct {
	Stories        []models.Story `json:"stories"`
	Page           int            `json:"page"`
	HasNext        bool           `json:"hasNext"`
	HasPrev        bool           `json:"hasPrev"`
	EstimatedTotal int64          `json:"estimatedTotal"`
}

type SubmitInput struct {
	Title string `form:"title" json:"title" validate:"min=3,max=80"`
	Text  string `form:"text" json:"text" validate:"max=5000"`
	URL   string `form:"url" json:"url" validate:"omitempty,max=2048,http_url"`
}

type StoryService struct {
	store  store.Store
	limits *ratelimit.Set
	cache  *utils.Cache
}

func NewStoryService(st store.Store, limits *ratelimit.Set, cache *utils.Cache) *StoryService {
	return &StoryService{store: st, limits: limits, cache: cache}
}

// List returns one page of a listing plus navigation hints. The page query,
// both probes and the count estimate run concurrently.
func (s *StoryService) List(ctx context.Context, q StoryQuery) (*StoryPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	filter := store.StoryFilter{IsNewest: q.IsNewest, Type: q.Type, Query: q.Q}.Normalize()

	cacheKey := fmt.Sprintf("%s%t:%s:%s:%d", listCachePrefix, filter.IsNewest, filter.Type, strings.ToLower(filter.Query), q.Page)
	if cached, ok := s.cache.Get(cacheKey).(*StoryPage); ok {
		return cached, nil
	}

	page := &StoryPage{Page: q.Page}
	offset := (q.Page - 1) * PerPage

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stories, err := s.store.ListStories(gctx, filter, PerPage, offset)
		page.Stories = stories
		return err
	})
	g.Go(func() error {
		next, err := s.store.ListStories(gctx, filter, PerPage, q.Page*PerPage)
		page.HasNext = len(next) > 0
		return err
	})
	if q.Page >= 2 {
		g.Go(func() error {
			prev, err := s.store.ListStories(gctx, filter, PerPage, (q.Page-2)*PerPage)
			page.HasPrev = len(prev) > 0
			return err
		})
	}
	g.Go(func() error {
		total, err := s.store.EstimateStoryCount(gctx)
		page.EstimatedTotal = total
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}

	s.cache.Set(cacheKey, page, listCacheTTL)
	return page, nil
}

// Get loads a single story with its submitter. Missing stories return store.ErrNotFound.
func (s *StoryService) Get(ctx context.Context, id string) (*models.Story, error) {
	return s.store.GetStory(ctx, id)
}

// StoryTypeFromTitle derives the listing a submission belongs to.
func StoryTypeFromTitle(title string) models.StoryType {
	lower := strings.ToLower(strings.TrimSpace(title))
	switch {
	case strings.HasPrefix(lower, "ask hn"):
		return models.StoryTypeAsk
	case strings.HasPrefix(lower, "show hn"):
		return models.StoryTypeShow
	}
	return models.StoryTypeStory
}

// Submit creates a story owned by user and returns its id.
func (s *StoryService) Submit(ctx context.Context, user *models.User, in SubmitInput) (string, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Text = strings.TrimSpace(in.Text)
	in.URL = strings.TrimSpace(in.URL)

	fields := fieldErrors(in)
	if in.Text == "" && in.URL == "" {
		fields = addFieldError(fields, "text", "Enter either a URL or text")
		fields = addFieldError(fields, "url", "Enter either a URL or text")
	}
	if fields != nil {
		return "", NewValidationError(fields)
	}
	if err := checkLimit(ctx, s.limits, ratelimit.Story, user.ID); err != nil {
		return "", err
	}

	submitter, username := user.ID, user.Username
	story := models.Story{
		ID:          ids.NewStoryID(),
		Type:        StoryTypeFromTitle(in.Title),
		Title:       in.Title,
		SubmittedBy: &submitter,
		Username:    &username,
		Points:      1,
	}
	if in.Text != "" {
		story.Text = &in.Text
	}
	if in.URL != "" {
		story.URL = &in.URL
		if domain := utils.Hostname(in.URL); domain != "" {
			story.Domain = &domain
		}
	}
	if err := s.store.CreateStories(ctx, []models.Story{story}); err != nil {
		return "", internalError("story.submit", err)
	}

	s.cache.DeletePrefix(listCachePrefix)
	return story.ID, nil
}
