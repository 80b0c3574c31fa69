package services

import (
	"context"
	"testing"

	"ainews/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) points(t *testing.T, storyID string) int {
	t.Helper()
	s, err := f.store.GetStory(context.Background(), storyID)
	require.NoError(t, err)
	return s.Points
}

func (f *fixture) karma(t *testing.T, userID string) int {
	t.Helper()
	u, err := f.store.GetUser(context.Background(), userID)
	require.NoError(t, err)
	return u.Karma
}

func TestVoteThenUnvoteRestoresCounters(t *testing.T) {
	f := newFixture(t, generousRules())
	owner := f.user(t, "user_owner", "owner")
	voter := f.user(t, "user_voter", "voter")
	f.story(t, models.Story{ID: "story_1", Title: "Hello", Points: 1, SubmittedBy: &owner.ID})
	ctx := context.Background()

	require.NoError(t, f.votes.Vote(ctx, voter, "story_1"))
	assert.Equal(t, 2, f.points(t, "story_1"))
	assert.Equal(t, 1, f.karma(t, owner.ID))
	voted, err := f.votes.HasVoted(ctx, voter.ID, "story_1")
	require.NoError(t, err)
	assert.True(t, voted)

	require.NoError(t, f.votes.Unvote(ctx, voter, "story_1"))
	assert.Equal(t, 1, f.points(t, "story_1"))
	assert.Equal(t, 0, f.karma(t, owner.ID))
	voted, err = f.votes.HasVoted(ctx, voter.ID, "story_1")
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestVoteTwice(t *testing.T) {
	f := newFixture(t, generousRules())
	voter := f.user(t, "user_voter", "voter")
	f.story(t, models.Story{ID: "story_1", Title: "Hello", Points: 1})
	ctx := context.Background()

	require.NoError(t, f.votes.Vote(ctx, voter, "story_1"))
	err := f.votes.Vote(ctx, voter, "story_1")
	assert.Equal(t, CodeAlreadyVoted, actionCode(t, err))
	assert.Equal(t, 2, f.points(t, "story_1"), "second vote changes nothing")
}

func TestVoteGeneratedStoryHasNoKarma(t *testing.T) {
	f := newFixture(t, generousRules())
	voter := f.user(t, "user_voter", "voter")
	f.story(t, models.Story{ID: "story_1", Title: "Generated", Points: 7, Username: strPtr("bot")})
	ctx := context.Background()

	require.NoError(t, f.votes.Vote(ctx, voter, "story_1"))
	assert.Equal(t, 8, f.points(t, "story_1"))
	assert.Equal(t, 0, f.karma(t, voter.ID))
}

func TestSelfUnvote(t *testing.T) {
	f := newFixture(t, generousRules())
	owner := f.user(t, "user_owner", "owner")
	f.story(t, models.Story{ID: "story_1", Title: "Mine", Points: 1, SubmittedBy: &owner.ID})
	ctx := context.Background()

	require.NoError(t, f.votes.Vote(ctx, owner, "story_1"))
	err := f.votes.Unvote(ctx, owner, "story_1")
	assert.Equal(t, CodeSelfUnvote, actionCode(t, err))
	assert.Equal(t, 2, f.points(t, "story_1"))
}

func TestUnvoteWithoutVoteIsNoop(t *testing.T) {
	f := newFixture(t, generousRules())
	owner := f.user(t, "user_owner", "owner")
	voter := f.user(t, "user_voter", "voter")
	f.story(t, models.Story{ID: "story_1", Title: "Hello", Points: 3, SubmittedBy: &owner.ID})
	ctx := context.Background()

	require.NoError(t, f.votes.Unvote(ctx, voter, "story_1"))
	assert.Equal(t, 3, f.points(t, "story_1"))
	assert.Equal(t, 0, f.karma(t, owner.ID))
}

func TestVoteMissingStory(t *testing.T) {
	f := newFixture(t, generousRules())
	voter := f.user(t, "user_voter", "voter")
	err := f.votes.Vote(context.Background(), voter, "story_missing")
	assert.Equal(t, CodeInternal, actionCode(t, err))
}

func TestVoteRateLimited(t *testing.T) {
	rules := generousRules()
	rules.Vote = rule(1)
	f := newFixture(t, rules)
	voter := f.user(t, "user_voter", "voter")
	f.story(t, models.Story{ID: "story_1", Title: "One", Points: 1})
	f.story(t, models.Story{ID: "story_2", Title: "Two", Points: 1})
	ctx := context.Background()

	require.NoError(t, f.votes.Vote(ctx, voter, "story_1"))
	err := f.votes.Vote(ctx, voter, "story_2")
	assert.Equal(t, CodeRateLimit, actionCode(t, err))
	assert.Equal(t, 1, f.points(t, "story_2"))
}
