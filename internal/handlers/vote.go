package handlers

import (
	"context"
	"net/http"

	"ainews/internal/ids"
	"ainews/internal/middleware"
	"ainews/internal/models"
	"ainews/internal/services"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	votes *services.VoteService
}

func NewVoteHandler(votes *services.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

// Vote handles upvote logic. Form field "id" is the story id.
func (h *VoteHandler) Vote(c *gin.Context) {
	h.handle(c, "vote", h.votes.Vote)
}

// Unvote 撤销投票
func (h *VoteHandler) Unvote(c *gin.Context) {
	h.handle(c, "unvote", h.votes.Unvote)
}

func (h *VoteHandler) handle(c *gin.Context, action string, fn func(context.Context, *models.User, string) error) {
	storyID := ids.WithPrefix(c.PostForm("id"), ids.Story)
	if storyID == "" {
		RenderError(c, http.StatusBadRequest, "Missing story id")
		return
	}

	ae := recordAction(action, fn(c.Request.Context(), middleware.CurrentUser(c), storyID))
	if middleware.WantsJSON(c) {
		actionJSON(c, ae, nil)
		return
	}
	// 重复投票对页面来说不算错误，直接回到原页面
	if ae != nil && ae.Code != services.CodeAlreadyVoted {
		RenderError(c, ae.HTTPStatus(), errorMessage(ae))
		return
	}
	c.Redirect(http.StatusFound, backTo(c, "/item/"+ids.StripPrefix(storyID, ids.Story)))
}
