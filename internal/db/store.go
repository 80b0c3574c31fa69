package db

import (
	"context"
	"errors"
	"strings"

	"ainews/internal/models"
	"ainews/internal/store"

	"gorm.io/gorm"
)

// Store implements store.Store on top of gorm + postgres.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

func NewStore(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrConflict
	}
	return err
}

func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Tx(ctx context.Context, fn func(tx store.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id string, email, bio *string) error {
	updates := map[string]interface{}{}
	if email != nil {
		updates["email"] = *email
	}
	if bio != nil {
		updates["bio"] = *bio
	}
	if len(updates) == 0 {
		_, err := s.GetUser(ctx, id)
		return err
	}
	return affected(s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates))
}

func (s *Store) AdjustKarma(ctx context.Context, userID string, delta int) error {
	return affected(s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("karma", gorm.Expr("karma + ?", delta)))
}

func (s *Store) CreateStories(ctx context.Context, stories []models.Story) error {
	if len(stories) == 0 {
		return nil
	}
	return translate(s.db.WithContext(ctx).Omit("Submitter").CreateInBatches(stories, 100).Error)
}

func (s *Store) GetStory(ctx context.Context, id string) (*models.Story, error) {
	var story models.Story
	if err := s.db.WithContext(ctx).Preload("Submitter").Where("id = ?", id).First(&story).Error; err != nil {
		return nil, translate(err)
	}
	return &story, nil
}

// escapeLike keeps user input from acting as LIKE wildcards.
func escapeLike(q string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q)
}

func storyFilterScope(f store.StoryFilter) func(*gorm.DB) *gorm.DB {
	f = f.Normalize()
	return func(tx *gorm.DB) *gorm.DB {
		if f.Query != "" {
			tx = tx.Where("title ILIKE ?", "%"+escapeLike(f.Query)+"%")
		}
		switch {
		case f.IsNewest:
			tx = tx.Where("submitted_by IS NOT NULL")
		case f.Query == "":
			tx = tx.Where("submitted_by IS NULL")
			if f.Type != "" {
				tx = tx.Where("type = ?", f.Type)
			}
		}
		return tx
	}
}

func (s *Store) ListStories(ctx context.Context, f store.StoryFilter, limit, offset int) ([]models.Story, error) {
	var stories []models.Story
	err := s.db.WithContext(ctx).
		Scopes(storyFilterScope(f)).
		Preload("Submitter").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&stories).Error
	if err != nil {
		return nil, translate(err)
	}
	return stories, nil
}

// EstimateStoryCount reads the planner statistics instead of counting rows.
// reltuples is -1 for a table that was never analyzed.
func (s *Store) EstimateStoryCount(ctx context.Context) (int64, error) {
	var estimate float64
	err := s.db.WithContext(ctx).
		Raw("SELECT reltuples FROM pg_class WHERE relname = ?", "stories").
		Scan(&estimate).Error
	if err != nil {
		return 0, err
	}
	if estimate < 0 {
		return 0, nil
	}
	return int64(estimate), nil
}

func (s *Store) AdjustStoryPoints(ctx context.Context, storyID string, delta int) error {
	return affected(s.db.WithContext(ctx).Model(&models.Story{}).
		Where("id = ?", storyID).
		UpdateColumn("points", gorm.Expr("points + ?", delta)))
}

func (s *Store) AdjustCommentsCount(ctx context.Context, storyID string, delta int) error {
	return affected(s.db.WithContext(ctx).Model(&models.Story{}).
		Where("id = ?", storyID).
		UpdateColumn("comments_count", gorm.Expr("comments_count + ?", delta)))
}

func (s *Store) GetVote(ctx context.Context, userID, storyID string) (*models.Vote, error) {
	var v models.Vote
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND story_id = ?", userID, storyID).
		First(&v).Error
	if err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (s *Store) CreateVote(ctx context.Context, v *models.Vote) error {
	return translate(s.db.WithContext(ctx).Omit("User", "Story").Create(v).Error)
}

func (s *Store) DeleteVote(ctx context.Context, userID, storyID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND story_id = ?", userID, storyID).
		Delete(&models.Vote{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) CreateComments(ctx context.Context, comments []models.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	return translate(s.db.WithContext(ctx).
		Omit("Story", "Parent", "Author").
		CreateInBatches(comments, 100).Error)
}

func (s *Store) ListComments(ctx context.Context, f store.CommentFilter, limit int) ([]models.Comment, error) {
	q := s.db.WithContext(ctx).Preload("Author")
	if f.StoryID != "" {
		q = q.Where("story_id = ?", f.StoryID)
	} else {
		q = q.Where("author = ?", f.AuthorID)
	}
	var comments []models.Comment
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}
