package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"ainews/internal/models"
)

// Memory keeps everything in-process. Transactions snapshot the maps and
// restore them when fn fails, which is enough for a single process.
type Memory struct {
	mu   *sync.RWMutex
	d    *memData
	inTx bool
}

type memData struct {
	users    map[string]models.User
	stories  map[string]models.Story
	comments map[string]models.Comment
	votes    map[string]models.Vote // key: userID + "|" + storyID
}

func NewMemory() *Memory {
	return &Memory{
		mu: &sync.RWMutex{},
		d: &memData{
			users:    make(map[string]models.User),
			stories:  make(map[string]models.Story),
			comments: make(map[string]models.Comment),
			votes:    make(map[string]models.Vote),
		},
	}
}

func (d *memData) clone() memData {
	c := memData{
		users:    make(map[string]models.User, len(d.users)),
		stories:  make(map[string]models.Story, len(d.stories)),
		comments: make(map[string]models.Comment, len(d.comments)),
		votes:    make(map[string]models.Vote, len(d.votes)),
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.stories {
		c.stories[k] = v
	}
	for k, v := range d.comments {
		c.comments[k] = v
	}
	for k, v := range d.votes {
		c.votes[k] = v
	}
	return c
}

func voteKey(userID, storyID string) string {
	return userID + "|" + storyID
}

func (m *Memory) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *Memory) rlock() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.RLock()
	return m.mu.RUnlock
}

func (m *Memory) Tx(ctx context.Context, fn func(tx Store) error) error {
	if m.inTx {
		return fn(m)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.d.clone()
	tx := &Memory{mu: m.mu, d: m.d, inTx: true}
	if err := fn(tx); err != nil {
		*m.d = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		*m.d = snapshot
		return err
	}
	return nil
}

func (m *Memory) CreateUser(ctx context.Context, u *models.User) error {
	defer m.lock()()
	if _, ok := m.d.users[u.ID]; ok {
		return ErrConflict
	}
	for _, existing := range m.d.users {
		if existing.Username == u.Username {
			return ErrConflict
		}
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	m.d.users[u.ID] = *u
	return nil
}

func (m *Memory) GetUser(ctx context.Context, id string) (*models.User, error) {
	defer m.rlock()()
	u, ok := m.d.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	defer m.rlock()()
	for _, u := range m.d.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UpdateProfile(ctx context.Context, id string, email, bio *string) error {
	defer m.lock()()
	u, ok := m.d.users[id]
	if !ok {
		return ErrNotFound
	}
	if email != nil {
		u.Email = email
	}
	if bio != nil {
		u.Bio = bio
	}
	u.UpdatedAt = time.Now()
	m.d.users[id] = u
	return nil
}

func (m *Memory) AdjustKarma(ctx context.Context, userID string, delta int) error {
	defer m.lock()()
	u, ok := m.d.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.Karma += delta
	m.d.users[userID] = u
	return nil
}

func (m *Memory) CreateStories(ctx context.Context, stories []models.Story) error {
	defer m.lock()()
	for i := range stories {
		if _, ok := m.d.stories[stories[i].ID]; ok {
			return ErrConflict
		}
	}
	now := time.Now()
	for i := range stories {
		s := &stories[i]
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		s.UpdatedAt = now
		stored := *s
		stored.Submitter = nil
		m.d.stories[s.ID] = stored
	}
	return nil
}

// withSubmitter must be called with the lock held.
func (m *Memory) withSubmitter(s models.Story) models.Story {
	s.Submitter = nil
	if s.SubmittedBy != nil {
		if u, ok := m.d.users[*s.SubmittedBy]; ok {
			s.Submitter = &u
		}
	}
	return s
}

func (m *Memory) GetStory(ctx context.Context, id string) (*models.Story, error) {
	defer m.rlock()()
	s, ok := m.d.stories[id]
	if !ok {
		return nil, ErrNotFound
	}
	s = m.withSubmitter(s)
	return &s, nil
}

func (m *Memory) ListStories(ctx context.Context, f StoryFilter, limit, offset int) ([]models.Story, error) {
	defer m.rlock()()
	f = f.Normalize()
	matched := make([]models.Story, 0)
	for _, s := range m.d.stories {
		if f.Match(&s) {
			matched = append(matched, s)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []models.Story{}, nil
	}
	matched = matched[offset:]
	if limit >= 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]models.Story, len(matched))
	for i, s := range matched {
		out[i] = m.withSubmitter(s)
	}
	return out, nil
}

func (m *Memory) EstimateStoryCount(ctx context.Context) (int64, error) {
	defer m.rlock()()
	return int64(len(m.d.stories)), nil
}

func (m *Memory) AdjustStoryPoints(ctx context.Context, storyID string, delta int) error {
	defer m.lock()()
	s, ok := m.d.stories[storyID]
	if !ok {
		return ErrNotFound
	}
	s.Points += delta
	m.d.stories[storyID] = s
	return nil
}

func (m *Memory) AdjustCommentsCount(ctx context.Context, storyID string, delta int) error {
	defer m.lock()()
	s, ok := m.d.stories[storyID]
	if !ok {
		return ErrNotFound
	}
	s.CommentsCount += delta
	m.d.stories[storyID] = s
	return nil
}

func (m *Memory) GetVote(ctx context.Context, userID, storyID string) (*models.Vote, error) {
	defer m.rlock()()
	v, ok := m.d.votes[voteKey(userID, storyID)]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

func (m *Memory) CreateVote(ctx context.Context, v *models.Vote) error {
	defer m.lock()()
	key := voteKey(v.UserID, v.StoryID)
	if _, ok := m.d.votes[key]; ok {
		return ErrConflict
	}
	if _, ok := m.d.stories[v.StoryID]; !ok {
		return ErrNotFound
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	m.d.votes[key] = *v
	return nil
}

func (m *Memory) DeleteVote(ctx context.Context, userID, storyID string) (bool, error) {
	defer m.lock()()
	key := voteKey(userID, storyID)
	if _, ok := m.d.votes[key]; !ok {
		return false, nil
	}
	delete(m.d.votes, key)
	return true, nil
}

func (m *Memory) CreateComments(ctx context.Context, comments []models.Comment) error {
	defer m.lock()()
	pending := make(map[string]bool, len(comments))
	for i := range comments {
		c := &comments[i]
		if _, ok := m.d.comments[c.ID]; ok || pending[c.ID] {
			return ErrConflict
		}
		if _, ok := m.d.stories[c.StoryID]; !ok {
			return ErrNotFound
		}
		if c.ParentID != nil {
			if _, ok := m.d.comments[*c.ParentID]; !ok && !pending[*c.ParentID] {
				return ErrNotFound
			}
		}
		pending[c.ID] = true
	}
	now := time.Now()
	for i := range comments {
		c := &comments[i]
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		c.UpdatedAt = now
		stored := *c
		stored.Author = nil
		m.d.comments[c.ID] = stored
	}
	return nil
}

func (m *Memory) ListComments(ctx context.Context, f CommentFilter, limit int) ([]models.Comment, error) {
	defer m.rlock()()
	out := make([]models.Comment, 0)
	for _, c := range m.d.comments {
		if f.Match(&c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return strings.Compare(out[i].ID, out[j].ID) > 0
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Author = nil
		if out[i].AuthorID != nil {
			if u, ok := m.d.users[*out[i].AuthorID]; ok {
				out[i].Author = &u
			}
		}
	}
	return out, nil
}
