package handlers

import (
	"log/slog"
	"net/http"

	"ainews/internal/auth"
	"ainews/internal/middleware"
	"ainews/internal/models"
	"ainews/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	accounts *services.AccountService
	tokens   *auth.TokenManager
}

func NewAuthHandler(accounts *services.AccountService, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens}
}

// ShowLogin renders the combined login / create account page.
func (h *AuthHandler) ShowLogin(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	Render(c, http.StatusOK, "auth/login.html", gin.H{
		"Title": "Login",
		"Next":  c.Query("next"),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var in services.Credentials
	_ = c.ShouldBind(&in)
	user, err := h.accounts.SignIn(c.Request.Context(), c.ClientIP(), in)
	h.finish(c, "signin", in, user, err)
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var in services.Credentials
	_ = c.ShouldBind(&in)
	user, err := h.accounts.SignUp(c.Request.Context(), c.ClientIP(), in)
	h.finish(c, "signup", in, user, err)
}

// finish starts the session on success or re-renders the form.
func (h *AuthHandler) finish(c *gin.Context, action string, in services.Credentials, user *models.User, err error) {
	if err == nil {
		err = h.startSession(c, user)
	}
	ae := recordAction(action, err)
	if middleware.WantsJSON(c) {
		actionJSON(c, ae, nil)
		return
	}
	if ae != nil {
		Render(c, ae.HTTPStatus(), "auth/login.html", gin.H{
			"Title":       "Login",
			"Next":        in.Next,
			"Action":      action,
			"Username":    in.Username,
			"Error":       errorMessage(ae),
			"FieldErrors": ae.FieldErrors,
		})
		return
	}
	c.Redirect(http.StatusFound, in.Redirect())
}

func (h *AuthHandler) startSession(c *gin.Context, user *models.User) error {
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		return err
	}
	session := sessions.Default(c)
	session.Set(middleware.SessionTokenKey, token)
	return session.Save()
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Delete(middleware.SessionTokenKey)
	if err := session.Save(); err != nil {
		slog.Warn("clear session", "err", err)
	}
	if middleware.WantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.Redirect(http.StatusFound, "/")
}
