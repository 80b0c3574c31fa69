package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"ainews/internal/ids"
	"ainews/internal/middleware"
	"ainews/internal/models"
	"ainews/internal/services"
	"ainews/internal/store"
	"ainews/internal/utils"

	"github.com/gin-gonic/gin"
)

type StoryHandler struct {
	stories  *services.StoryService
	comments *services.CommentService
	votes    *services.VoteService
}

func NewStoryHandler(stories *services.StoryService, comments *services.CommentService, votes *services.VoteService) *StoryHandler {
	return &StoryHandler{stories: stories, comments: comments, votes: votes}
}

// Listing describes one of the story feeds.
type Listing struct {
	Path     string
	Title    string
	IsNewest bool
	Type     models.StoryType
}

var (
	ListingFront  = Listing{Path: "/", Title: ""}
	ListingNewest = Listing{Path: "/newest", Title: "New", IsNewest: true}
	ListingAsk    = Listing{Path: "/ask", Title: "Ask", Type: models.StoryTypeAsk}
	ListingShow   = Listing{Path: "/show", Title: "Show", Type: models.StoryTypeShow}
	ListingJobs   = Listing{Path: "/jobs", Title: "Jobs", Type: models.StoryTypeJobs}
)

// List renders a story feed, paged with ?p=.
func (h *StoryHandler) List(l Listing) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := utils.ParsePage(c.Query("p"))
		h.render(c, l, services.StoryQuery{IsNewest: l.IsNewest, Type: l.Type, Page: page}, l.Path+"?p=")
	}
}

// Search 标题搜索，空关键词等同首页
func (h *StoryHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	page := utils.ParsePage(c.Query("p"))
	l := Listing{Path: "/search", Title: "Search"}
	h.render(c, l, services.StoryQuery{Q: q, Page: page}, "/search?q="+url.QueryEscape(q)+"&p=")
}

func (h *StoryHandler) render(c *gin.Context, l Listing, q services.StoryQuery, pageLink string) {
	result, err := h.stories.List(c.Request.Context(), q)
	if err != nil {
		slog.Error("list stories", "err", err, "listing", l.Path)
		RenderError(c, http.StatusInternalServerError, "Something went wrong")
		return
	}
	if middleware.WantsJSON(c) {
		c.JSON(http.StatusOK, result)
		return
	}
	Render(c, http.StatusOK, "story/list.html", gin.H{
		"Title":    l.Title,
		"Listing":  l,
		"Query":    q.Q,
		"Result":   result,
		"Offset":   (result.Page - 1) * services.PerPage,
		"PageLink": pageLink,
	})
}

// Item shows a story with its comment tree and the reply form.
func (h *StoryHandler) Item(c *gin.Context) {
	ctx := c.Request.Context()
	id := ids.WithPrefix(c.Param("id"), ids.Story)

	story, err := h.stories.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		RenderError(c, http.StatusNotFound, "No such item.")
		return
	}
	if err != nil {
		slog.Error("load story", "story_id", id, "err", err)
		RenderError(c, http.StatusInternalServerError, "Something went wrong")
		return
	}

	tree, err := h.comments.Tree(ctx, services.CommentQuery{StoryID: id})
	if err != nil {
		slog.Error("load comments", "story_id", id, "err", err)
		RenderError(c, http.StatusInternalServerError, "Something went wrong")
		return
	}

	voted := false
	if user := middleware.CurrentUser(c); user != nil {
		if voted, err = h.votes.HasVoted(ctx, user.ID, id); err != nil {
			slog.Warn("load vote state", "story_id", id, "err", err)
		}
	}

	if middleware.WantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"story": story, "comments": tree, "voted": voted})
		return
	}
	h.renderItem(c, http.StatusOK, story, tree, voted, gin.H{})
}

func (h *StoryHandler) renderItem(c *gin.Context, code int, story *models.Story, tree *services.CommentTree, voted bool, extra gin.H) {
	extra["Title"] = story.Title
	extra["Story"] = story
	extra["Tree"] = tree
	extra["Voted"] = voted
	extra["OwnStory"] = false
	if user := middleware.CurrentUser(c); user != nil && story.SubmittedBy != nil {
		extra["OwnStory"] = *story.SubmittedBy == user.ID
	}
	Render(c, code, "story/item.html", extra)
}

func (h *StoryHandler) ShowSubmit(c *gin.Context) {
	Render(c, http.StatusOK, "story/submit.html", gin.H{"Title": "Submit"})
}

func (h *StoryHandler) Submit(c *gin.Context) {
	var in services.SubmitInput
	_ = c.ShouldBind(&in)

	id, err := h.stories.Submit(c.Request.Context(), middleware.CurrentUser(c), in)
	ae := recordAction("submit", err)
	if middleware.WantsJSON(c) {
		actionJSON(c, ae, gin.H{"storyId": id})
		return
	}
	if ae != nil {
		Render(c, ae.HTTPStatus(), "story/submit.html", gin.H{
			"Title":       "Submit",
			"Form":        in,
			"Error":       errorMessage(ae),
			"FieldErrors": ae.FieldErrors,
		})
		return
	}
	c.Redirect(http.StatusFound, "/newest")
}

// Reply posts a top-level comment on /item/:id.
func (h *StoryHandler) Reply(c *gin.Context) {
	ctx := c.Request.Context()
	storyID := ids.WithPrefix(c.Param("id"), ids.Story)
	in := services.ReplyInput{StoryID: storyID, Text: c.PostForm("text")}

	commentID, err := h.comments.Reply(ctx, middleware.CurrentUser(c), in)
	ae := recordAction("reply", err)
	if middleware.WantsJSON(c) {
		actionJSON(c, ae, gin.H{"commentId": commentID})
		return
	}
	if ae == nil {
		c.Redirect(http.StatusFound, "/item/"+ids.StripPrefix(storyID, ids.Story))
		return
	}

	story, err := h.stories.Get(ctx, storyID)
	if err != nil {
		RenderError(c, ae.HTTPStatus(), errorMessage(ae))
		return
	}
	tree, err := h.comments.Tree(ctx, services.CommentQuery{StoryID: storyID})
	if err != nil {
		RenderError(c, ae.HTTPStatus(), errorMessage(ae))
		return
	}
	voted, _ := h.votes.HasVoted(ctx, middleware.CurrentUser(c).ID, storyID)
	h.renderItem(c, ae.HTTPStatus(), story, tree, voted, gin.H{
		"ReplyText":   in.Text,
		"Error":       errorMessage(ae),
		"FieldErrors": ae.FieldErrors,
	})
}
