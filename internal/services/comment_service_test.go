package services

import (
	"context"
	"testing"
	"time"

	"ainews/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTree(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	comments := []models.Comment{
		{ID: "3", ParentID: strPtr("99"), CreatedAt: base.Add(3 * time.Minute)},
		{ID: "2", ParentID: strPtr("1"), CreatedAt: base.Add(2 * time.Minute)},
		{ID: "1", CreatedAt: base.Add(time.Minute)},
	}

	tree := BuildTree(comments)
	require.Len(t, tree.Roots, 1)
	assert.Equal(t, "1", tree.Roots[0].ID)
	require.Len(t, tree.Roots[0].Children, 1)
	assert.Equal(t, "2", tree.Roots[0].Children[0].ID)
	require.Len(t, tree.Orphans, 1)
	assert.Equal(t, "3", tree.Orphans[0].ID)
	assert.True(t, tree.Orphans[0].Orphaned)
	assert.Equal(t, 2, tree.Len())
}

func TestBuildTreeOrdersRootsNewestFirst(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tree := BuildTree([]models.Comment{
		{ID: "old", CreatedAt: base},
		{ID: "new", CreatedAt: base.Add(time.Hour)},
		{ID: "self", ParentID: strPtr("self"), CreatedAt: base},
	})
	require.Len(t, tree.Roots, 2)
	assert.Equal(t, "new", tree.Roots[0].ID)
	assert.Equal(t, "old", tree.Roots[1].ID)
	assert.Len(t, tree.Orphans, 1)
}

func TestBuildTreeEmpty(t *testing.T) {
	tree := BuildTree(nil)
	assert.NotNil(t, tree.Roots)
	assert.Zero(t, tree.Len())
}

func TestReply(t *testing.T) {
	f := newFixture(t, generousRules())
	u := f.user(t, "user_a", "alice")
	f.story(t, models.Story{ID: "story_1", Title: "Hello", Points: 1})
	ctx := context.Background()

	before, err := f.comments.Tree(ctx, CommentQuery{StoryID: "story_1"})
	require.NoError(t, err)
	assert.Zero(t, before.Len())

	id, err := f.comments.Reply(ctx, u, ReplyInput{StoryID: "story_1", Text: "  nice write-up  "})
	require.NoError(t, err)

	after, err := f.comments.Tree(ctx, CommentQuery{StoryID: "story_1"})
	require.NoError(t, err)
	require.Len(t, after.Roots, 1, "reply must invalidate the cached tree")
	c := after.Roots[0]
	assert.Equal(t, id, c.ID)
	assert.Equal(t, "nice write-up", c.Body)
	assert.Equal(t, "alice", c.AuthorName())

	s, err := f.store.GetStory(ctx, "story_1")
	require.NoError(t, err)
	assert.Equal(t, 1, s.CommentsCount)

	threads, err := f.comments.Tree(ctx, CommentQuery{AuthorID: u.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, threads.Len())
}

func TestReplyErrors(t *testing.T) {
	rules := generousRules()
	rules.Comment = rule(1)
	f := newFixture(t, rules)
	u := f.user(t, "user_a", "alice")
	f.story(t, models.Story{ID: "story_1", Title: "Hello", Points: 1})
	ctx := context.Background()

	_, err := f.comments.Reply(ctx, u, ReplyInput{StoryID: "story_1", Text: "hi"})
	require.Equal(t, CodeValidation, actionCode(t, err))
	assert.Contains(t, AsActionError("test", err).FieldErrors, "text")

	_, err = f.comments.Reply(ctx, u, ReplyInput{StoryID: "story_missing", Text: "hello there"})
	assert.Equal(t, CodeInternal, actionCode(t, err))

	_, err = f.comments.Reply(ctx, u, ReplyInput{StoryID: "story_1", Text: "hello again"})
	assert.Equal(t, CodeRateLimit, actionCode(t, err))
}

func TestTreeNeedsOneFilter(t *testing.T) {
	f := newFixture(t, generousRules())
	_, err := f.comments.Tree(context.Background(), CommentQuery{})
	assert.Error(t, err)
	_, err = f.comments.Tree(context.Background(), CommentQuery{StoryID: "a", AuthorID: "b"})
	assert.Error(t, err)
}
