package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ainews/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoryTypeFromTitle(t *testing.T) {
	tests := []struct {
		title string
		want  models.StoryType
	}{
		{"Ask HN: why?", models.StoryTypeAsk},
		{"ask hn how do you test", models.StoryTypeAsk},
		{"  Show HN: my weekend project", models.StoryTypeShow},
		{"Asking for a friend", models.StoryTypeStory},
		{"SQLite is enough", models.StoryTypeStory},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, StoryTypeFromTitle(tt.title))
		})
	}
}

func TestListPagination(t *testing.T) {
	f := newFixture(t, generousRules())
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < PerPage+1; i++ {
		f.story(t, models.Story{
			ID:        fmt.Sprintf("story_%03d", i),
			Type:      models.StoryTypeStory,
			Title:     fmt.Sprintf("Story %d", i),
			Points:    1,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	ctx := context.Background()

	first, err := f.stories.List(ctx, StoryQuery{Page: 1})
	require.NoError(t, err)
	require.Len(t, first.Stories, PerPage)
	assert.Equal(t, "story_030", first.Stories[0].ID, "newest first")
	assert.True(t, first.HasNext)
	assert.False(t, first.HasPrev)
	assert.EqualValues(t, PerPage+1, first.EstimatedTotal)

	second, err := f.stories.List(ctx, StoryQuery{Page: 2})
	require.NoError(t, err)
	require.Len(t, second.Stories, 1)
	assert.Equal(t, "story_000", second.Stories[0].ID)
	assert.False(t, second.HasNext)
	assert.True(t, second.HasPrev)

	beyond, err := f.stories.List(ctx, StoryQuery{Page: 5})
	require.NoError(t, err)
	assert.Empty(t, beyond.Stories)
	assert.False(t, beyond.HasPrev, "page 4 is empty too")
}

func TestListSeparatesFeeds(t *testing.T) {
	f := newFixture(t, generousRules())
	u := f.user(t, "user_a", "alice")
	f.story(t, models.Story{ID: "story_gen", Type: models.StoryTypeAsk, Title: "Ask HN: generated", Username: strPtr("bot")})
	ctx := context.Background()

	id, err := f.stories.Submit(ctx, u, SubmitInput{Title: "Ask HN: from a user", Text: "body"})
	require.NoError(t, err)

	front, err := f.stories.List(ctx, StoryQuery{Type: models.StoryTypeAsk})
	require.NoError(t, err)
	require.Len(t, front.Stories, 1)
	assert.Equal(t, "story_gen", front.Stories[0].ID)

	newest, err := f.stories.List(ctx, StoryQuery{IsNewest: true})
	require.NoError(t, err)
	require.Len(t, newest.Stories, 1)
	assert.Equal(t, id, newest.Stories[0].ID)
	require.NotNil(t, newest.Stories[0].Submitter)
	assert.Equal(t, "alice", newest.Stories[0].SubmitterName())

	found, err := f.stories.List(ctx, StoryQuery{Q: "ASK HN", Type: models.StoryTypeJobs})
	require.NoError(t, err)
	assert.Len(t, found.Stories, 2, "search ignores type and covers both feeds")
}

func TestSubmitInvalidatesListCache(t *testing.T) {
	f := newFixture(t, generousRules())
	u := f.user(t, "user_a", "alice")
	ctx := context.Background()

	empty, err := f.stories.List(ctx, StoryQuery{IsNewest: true})
	require.NoError(t, err)
	assert.Empty(t, empty.Stories)

	_, err = f.stories.Submit(ctx, u, SubmitInput{Title: "Postgres tips", URL: "https://www.example.com/pg"})
	require.NoError(t, err)

	page, err := f.stories.List(ctx, StoryQuery{IsNewest: true})
	require.NoError(t, err)
	require.Len(t, page.Stories, 1)
	s := page.Stories[0]
	assert.Equal(t, 1, s.Points)
	assert.Equal(t, "example.com", s.DomainValue())
	assert.Equal(t, "https://www.example.com/pg", s.URLValue())
	assert.Equal(t, models.StoryTypeStory, s.Type)
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t, generousRules())
	u := f.user(t, "user_a", "alice")
	ctx := context.Background()

	_, err := f.stories.Submit(ctx, u, SubmitInput{Title: "A fine title"})
	require.Equal(t, CodeValidation, actionCode(t, err))
	ae := AsActionError("test", err)
	assert.Contains(t, ae.FieldErrors, "text")
	assert.Contains(t, ae.FieldErrors, "url")

	_, err = f.stories.Submit(ctx, u, SubmitInput{Title: "ab", Text: "x"})
	require.Equal(t, CodeValidation, actionCode(t, err))
	assert.Contains(t, AsActionError("test", err).FieldErrors, "title")

	_, err = f.stories.Submit(ctx, u, SubmitInput{Title: "Bad link", URL: "not a url"})
	require.Equal(t, CodeValidation, actionCode(t, err))
	assert.Contains(t, AsActionError("test", err).FieldErrors, "url")
}

func TestSubmitRateLimited(t *testing.T) {
	rules := generousRules()
	rules.Story = rule(1)
	f := newFixture(t, rules)
	u := f.user(t, "user_a", "alice")
	ctx := context.Background()

	_, err := f.stories.Submit(ctx, u, SubmitInput{Title: "First", Text: "hello"})
	require.NoError(t, err)
	_, err = f.stories.Submit(ctx, u, SubmitInput{Title: "Second", Text: "hello"})
	assert.Equal(t, CodeRateLimit, actionCode(t, err))

	// 校验失败不消耗配额
	other := f.user(t, "user_b", "bob")
	_, err = f.stories.Submit(ctx, other, SubmitInput{Title: "x"})
	assert.Equal(t, CodeValidation, actionCode(t, err))
	_, err = f.stories.Submit(ctx, other, SubmitInput{Title: "Third", Text: "hello"})
	assert.NoError(t, err)
}
