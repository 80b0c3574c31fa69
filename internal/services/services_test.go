package services

import (
	"context"
	"testing"
	"time"

	"ainews/internal/models"
	"ainews/internal/ratelimit"
	"ainews/internal/store"
	"ainews/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *store.Memory
	cache    *utils.Cache
	limits   *ratelimit.Set
	stories  *StoryService
	comments *CommentService
	votes    *VoteService
	accounts *AccountService
}

func newFixture(t *testing.T, rules ratelimit.Rules) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	limits, err := ratelimit.NewSet(client, "test", rules)
	require.NoError(t, err)
	cache, err := utils.NewCache(100)
	require.NoError(t, err)

	st := store.NewMemory()
	return &fixture{
		store:    st,
		cache:    cache,
		limits:   limits,
		stories:  NewStoryService(st, limits, cache),
		comments: NewCommentService(st, limits, cache),
		votes:    NewVoteService(st, limits, cache),
		accounts: NewAccountService(st, limits),
	}
}

// generousRules keeps limits out of the way of tests that don't exercise them.
func generousRules() ratelimit.Rules {
	r := rule(1000)
	return ratelimit.Rules{Auth: r, SignUp: r, Story: r, Comment: r, Vote: r, Unvote: r, Profile: r}
}

func rule(limit int) ratelimit.Rule {
	return ratelimit.Rule{Limit: limit, Window: 15 * time.Minute}
}

func (f *fixture) user(t *testing.T, id, username string) *models.User {
	t.Helper()
	u := &models.User{ID: id, Username: username, Password: "x"}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) story(t *testing.T, s models.Story) {
	t.Helper()
	require.NoError(t, f.store.CreateStories(context.Background(), []models.Story{s}))
}

func strPtr(s string) *string { return &s }

func actionCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	ae := AsActionError("test", err)
	return ae.Code
}
