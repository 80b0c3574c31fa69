package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"ainews/internal/services"

	"github.com/gin-gonic/gin"
)

type CronHandler struct {
	generator   *services.Generator
	secret      string
	development bool
}

func NewCronHandler(generator *services.Generator, secret string, development bool) *CronHandler {
	return &CronHandler{generator: generator, secret: secret, development: development}
}

// authorized checks "Authorization: Bearer <secret>". Without a configured
// secret only development accepts the call.
func (h *CronHandler) authorized(c *gin.Context) (ok bool, configured bool) {
	if h.secret == "" {
		return h.development, h.development
	}
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return false, true
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) == 1, true
}

// Run handles GET /cron: one generator run per call.
func (h *CronHandler) Run(c *gin.Context) {
	ok, configured := h.authorized(c)
	if !configured {
		slog.Error("cron called without CRON_SECRET configured")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cron validation failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false})
		return
	}

	result, err := h.generator.Run(c.Request.Context())
	if err != nil {
		slog.Error("generator run failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}
	slog.Info("generator run finished", "stories", result.Stories, "comments", result.Comments, "failed", result.FailedStories)
	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}
