package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"ainews/internal/ids"
	"ainews/internal/models"
	"ainews/internal/ratelimit"
	"ainews/internal/store"
	"ainews/internal/utils"
)

const (
	// CommentWindow bounds how many comments a thread page reads. Older
	// comments of long threads are not shown.
	CommentWindow = 50

	itemCachePrefix = "item:"
	itemCacheTTL    = 5 * time.Minute
)

type CommentQuery struct {
	StoryID  string
	AuthorID string
}

// CommentNode is one comment with its replies inside the fetched window.
type CommentNode struct {
	models.Comment
	Children []*CommentNode `json:"children"`
	// Orphaned marks a reply whose parent fell outside the window.
	Orphaned bool `json:"orphaned,omitempty"`
}

type CommentTree struct {
	Roots []*CommentNode `json:"roots"`
	// Orphans are not part of Roots. Kept so callers can say how many were hidden.
	Orphans []*CommentNode `json:"orphans"`
}

// Len counts the comments placed in the tree.
func (t *CommentTree) Len() int {
	var count func(nodes []*CommentNode) int
	count = func(nodes []*CommentNode) int {
		n := len(nodes)
		for _, node := range nodes {
			n += count(node.Children)
		}
		return n
	}
	return count(t.Roots)
}

type ReplyInput struct {
	StoryID string `form:"story_id" json:"storyId" validate:"required"`
	Text    string `form:"text" json:"text" validate:"min=3,max=1000"`
}

type CommentService struct {
	store  store.Store
	limits *ratelimit.Set
	cache  *utils.Cache
}

func NewCommentService(st store.Store, limits *ratelimit.Set, cache *utils.Cache) *CommentService {
	return &CommentService{store: st, limits: limits, cache: cache}
}

// BuildTree links comments fetched newest first. Replies keep fetch order,
// roots are sorted newest first, and comments whose parent is missing from
// the input end up in Orphans.
func BuildTree(comments []models.Comment) *CommentTree {
	nodes := make(map[string]*CommentNode, len(comments))
	ordered := make([]*CommentNode, 0, len(comments))
	for _, c := range comments {
		if _, dup := nodes[c.ID]; dup {
			continue
		}
		n := &CommentNode{Comment: c}
		nodes[c.ID] = n
		ordered = append(ordered, n)
	}

	tree := &CommentTree{Roots: []*CommentNode{}}
	for _, n := range ordered {
		if n.ParentID == nil {
			tree.Roots = append(tree.Roots, n)
			continue
		}
		parent, ok := nodes[*n.ParentID]
		if !ok || parent == n {
			n.Orphaned = true
			tree.Orphans = append(tree.Orphans, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	sort.SliceStable(tree.Roots, func(i, j int) bool {
		return tree.Roots[i].CreatedAt.After(tree.Roots[j].CreatedAt)
	})
	return tree
}

// Tree returns the comment tree of a story or the latest comments of an author.
func (s *CommentService) Tree(ctx context.Context, q CommentQuery) (*CommentTree, error) {
	filter := store.CommentFilter{StoryID: q.StoryID, AuthorID: q.AuthorID}
	if !filter.Valid() {
		return nil, errors.New("comment query needs exactly one of story or author")
	}

	cacheKey := ""
	if q.StoryID != "" {
		cacheKey = itemCachePrefix + q.StoryID
		if cached, ok := s.cache.Get(cacheKey).(*CommentTree); ok {
			return cached, nil
		}
	}

	comments, err := s.store.ListComments(ctx, filter, CommentWindow)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	tree := BuildTree(comments)
	if cacheKey != "" {
		s.cache.Set(cacheKey, tree, itemCacheTTL)
	}
	return tree, nil
}

// Reply adds a top-level comment to a story and returns its id.
func (s *CommentService) Reply(ctx context.Context, user *models.User, in ReplyInput) (string, error) {
	in.Text = strings.TrimSpace(in.Text)
	if fields := fieldErrors(in); fields != nil {
		return "", NewValidationError(fields)
	}
	if err := checkLimit(ctx, s.limits, ratelimit.Comment, user.ID); err != nil {
		return "", err
	}

	author, username := user.ID, user.Username
	comment := models.Comment{
		ID:       ids.NewCommentID(),
		StoryID:  in.StoryID,
		AuthorID: &author,
		Username: &username,
		Body:     in.Text,
	}
	err := s.store.Tx(ctx, func(tx store.Store) error {
		if _, err := tx.GetStory(ctx, in.StoryID); err != nil {
			return err
		}
		if err := tx.AdjustCommentsCount(ctx, in.StoryID, 1); err != nil {
			return err
		}
		return tx.CreateComments(ctx, []models.Comment{comment})
	})
	if err != nil {
		return "", internalError("comment.reply", err)
	}

	s.cache.Delete(itemCachePrefix + in.StoryID)
	s.cache.DeletePrefix(listCachePrefix)
	return comment.ID, nil
}
