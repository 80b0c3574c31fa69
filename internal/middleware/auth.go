package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"ainews/internal/auth"
	"ainews/internal/models"
	"ainews/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	CheckUserKey = "user"
	// SessionTokenKey holds the signed session token inside the cookie session.
	SessionTokenKey = "token"
)

// CurrentUser returns the user loaded by LoadUser, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// WantsJSON reports whether the client asked for a JSON result instead of HTML.
func WantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}
		if WantsJSON(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"code": "AUTH_ERROR", "message": "Sign in required"},
			})
			return
		}
		target := "/login"
		if c.Request.Method == http.MethodGet {
			target += "?next=" + url.QueryEscape(c.Request.URL.Path)
		}
		c.Redirect(http.StatusFound, target)
		c.Abort()
	}
}

// LoadUser retrieves user from session and sets to context
func LoadUser(st store.Store, tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		raw, _ := session.Get(SessionTokenKey).(string)
		if raw == "" {
			c.Next()
			return
		}

		userID, err := tokens.Verify(raw)
		if err == nil {
			var user *models.User
			user, err = st.GetUser(c.Request.Context(), userID)
			if err == nil {
				c.Set(CheckUserKey, user)
				c.Next()
				return
			}
			if !errors.Is(err, store.ErrNotFound) {
				// 数据库故障时保留会话，本次请求按未登录处理
				slog.Error("load session user", "user_id", userID, "err", err)
				c.Next()
				return
			}
		}

		session.Delete(SessionTokenKey)
		if err := session.Save(); err != nil {
			slog.Warn("clear stale session", "err", err)
		}
		c.Next()
	}
}
