package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"ainews/internal/ids"
	"ainews/internal/middleware"
	"ainews/internal/models"
	"ainews/internal/services"
	"ainews/internal/store"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	accounts *services.AccountService
	comments *services.CommentService
}

func NewUserHandler(accounts *services.AccountService, comments *services.CommentService) *UserHandler {
	return &UserHandler{accounts: accounts, comments: comments}
}

// Profile - 用户主页 /user/:id
func (h *UserHandler) Profile(c *gin.Context) {
	user, ok := h.load(c)
	if !ok {
		return
	}
	h.renderProfile(c, http.StatusOK, user, gin.H{})
}

func (h *UserHandler) load(c *gin.Context) (*models.User, bool) {
	id := ids.WithPrefix(c.Param("id"), ids.User)
	user, err := h.accounts.Profile(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		RenderError(c, http.StatusNotFound, "No such user.")
		return nil, false
	}
	if err != nil {
		slog.Error("load profile", "user_id", id, "err", err)
		RenderError(c, http.StatusInternalServerError, "Something went wrong")
		return nil, false
	}
	return user, true
}

func (h *UserHandler) renderProfile(c *gin.Context, code int, user *models.User, extra gin.H) {
	current := middleware.CurrentUser(c)
	extra["Title"] = "Profile: " + user.Username
	extra["Profile"] = user
	extra["IsSelf"] = current != nil && current.ID == user.ID
	if middleware.WantsJSON(c) {
		// 邮箱只对本人可见
		out := gin.H{"id": user.ID, "username": user.Username, "karma": user.Karma, "bio": user.BioText(), "createdAt": user.CreatedAt}
		if extra["IsSelf"] == true {
			out["email"] = user.EmailText()
		}
		c.JSON(code, out)
		return
	}
	Render(c, code, "user/profile.html", extra)
}

// UpdateProfile handles POST /user/:id. Only the owner may edit.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	current := middleware.CurrentUser(c)
	if ids.WithPrefix(c.Param("id"), ids.User) != current.ID {
		ae := recordAction("profile", &services.ActionError{Code: services.CodeAuth, Message: "You can only edit your own profile"})
		if middleware.WantsJSON(c) {
			actionJSON(c, ae, nil)
			return
		}
		RenderError(c, http.StatusForbidden, ae.Message)
		return
	}

	var in services.ProfileInput
	_ = c.ShouldBind(&in)
	ae := recordAction("profile", h.accounts.UpdateProfile(c.Request.Context(), current, in))
	if middleware.WantsJSON(c) {
		actionJSON(c, ae, nil)
		return
	}
	if ae != nil {
		h.renderProfile(c, ae.HTTPStatus(), current, gin.H{
			"Form":        in,
			"Error":       errorMessage(ae),
			"FieldErrors": ae.FieldErrors,
		})
		return
	}
	c.Redirect(http.StatusFound, "/user/"+ids.StripPrefix(current.ID, ids.User))
}

// Threads lists the signed-in user's latest comments.
func (h *UserHandler) Threads(c *gin.Context) {
	user := middleware.CurrentUser(c)
	tree, err := h.comments.Tree(c.Request.Context(), services.CommentQuery{AuthorID: user.ID})
	if err != nil {
		slog.Error("load threads", "user_id", user.ID, "err", err)
		RenderError(c, http.StatusInternalServerError, "Something went wrong")
		return
	}
	Render(c, http.StatusOK, "user/threads.html", gin.H{
		"Title": user.Username + "'s comments",
		"Tree":  tree,
	})
}
