// Package store defines the persistence port used by the services.
//
// Two implementations exist: the gorm/postgres one in internal/db and the
// in-memory Memory store in this package, used for local development and tests.
package store

import (
	"context"
	"errors"
	"strings"

	"ainews/internal/models"
)

var (
	ErrNotFound = errors.New("store: record not found")
	// ErrConflict reports a unique constraint violation.
	ErrConflict = errors.New("store: conflict")
)

// StoryFilter selects stories for a listing.
//
//   - IsNewest: only stories with a registered submitter.
//   - Query empty: only stories without a registered submitter, narrowed by Type when set.
//   - Query set: every story whose title contains Query, case-insensitive. Type is ignored.
type StoryFilter struct {
	IsNewest bool
	Type     models.StoryType
	Query    string
}

// Normalize trims the query so whitespace-only input counts as absent.
func (f StoryFilter) Normalize() StoryFilter {
	f.Query = strings.TrimSpace(f.Query)
	return f
}

// Match reports whether s passes the filter.
func (f StoryFilter) Match(s *models.Story) bool {
	f = f.Normalize()
	if f.Query != "" && !strings.Contains(strings.ToLower(s.Title), strings.ToLower(f.Query)) {
		return false
	}
	if f.IsNewest {
		return s.SubmittedBy != nil
	}
	if f.Query != "" {
		return true
	}
	if s.SubmittedBy != nil {
		return false
	}
	return f.Type == "" || s.Type == f.Type
}

// CommentFilter selects comments by story or by author. Exactly one must be set.
type CommentFilter struct {
	StoryID  string
	AuthorID string
}

func (f CommentFilter) Valid() bool {
	return (f.StoryID == "") != (f.AuthorID == "")
}

func (f CommentFilter) Match(c *models.Comment) bool {
	if f.StoryID != "" {
		return c.StoryID == f.StoryID
	}
	return c.AuthorID != nil && *c.AuthorID == f.AuthorID
}

type Store interface {
	// Tx runs fn atomically. Any error returned by fn rolls back every write made through tx.
	Tx(ctx context.Context, fn func(tx Store) error) error

	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// UpdateProfile sets the non-nil fields only.
	UpdateProfile(ctx context.Context, id string, email, bio *string) error
	AdjustKarma(ctx context.Context, userID string, delta int) error

	CreateStories(ctx context.Context, stories []models.Story) error
	// GetStory loads a story together with its registered submitter.
	GetStory(ctx context.Context, id string) (*models.Story, error)
	// ListStories orders by created_at DESC, id DESC.
	ListStories(ctx context.Context, f StoryFilter, limit, offset int) ([]models.Story, error)
	// EstimateStoryCount is a cheap approximation, never an exact count.
	EstimateStoryCount(ctx context.Context) (int64, error)
	AdjustStoryPoints(ctx context.Context, storyID string, delta int) error
	AdjustCommentsCount(ctx context.Context, storyID string, delta int) error

	GetVote(ctx context.Context, userID, storyID string) (*models.Vote, error)
	CreateVote(ctx context.Context, v *models.Vote) error
	DeleteVote(ctx context.Context, userID, storyID string) (bool, error)

	// CreateComments inserts in slice order, so parents must precede their replies.
	CreateComments(ctx context.Context, comments []models.Comment) error
	// ListComments orders by created_at DESC and loads each author.
	ListComments(ctx context.Context, f CommentFilter, limit int) ([]models.Comment, error)
}
