package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"ainews/internal/metrics"
	"ainews/internal/middleware"
	"ainews/internal/services"

	"github.com/gin-gonic/gin"
)

// Site carries the values every page needs.
type Site struct {
	Name string
	URL  string
}

const siteKey = "site"

// SiteInfo exposes site-wide settings to Render.
func SiteInfo(site Site) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(siteKey, site)
		c.Next()
	}
}

func siteOf(c *gin.Context) Site {
	if v, ok := c.Get(siteKey); ok {
		if s, ok := v.(Site); ok {
			return s
		}
	}
	return Site{Name: "AI News"}
}

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	if _, ok := obj["Query"]; !ok {
		obj["Query"] = ""
	}
	obj["Site"] = siteOf(c)
	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

// RenderError renders the error page, or a JSON error for API callers.
func RenderError(c *gin.Context, code int, message string) {
	if middleware.WantsJSON(c) {
		c.JSON(code, gin.H{"error": gin.H{"code": codeForStatus(code), "message": message}})
		return
	}
	Render(c, code, "error.html", gin.H{"Error": message, "Status": code})
}

func codeForStatus(code int) string {
	switch code {
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusUnauthorized, http.StatusForbidden:
		return services.CodeAuth
	case http.StatusBadRequest:
		return services.CodeValidation
	}
	return services.CodeInternal
}

// recordAction counts the outcome of a form action and returns the error
// in its ActionError form (nil on success).
func recordAction(action string, err error) *services.ActionError {
	if err == nil {
		metrics.ActionsTotal.WithLabelValues(action, "ok").Inc()
		return nil
	}
	ae := services.AsActionError(action, err)
	metrics.ActionsTotal.WithLabelValues(action, ae.Code).Inc()
	return ae
}

// actionJSON writes the tagged JSON result of a form action.
func actionJSON(c *gin.Context, ae *services.ActionError, ok gin.H) {
	if ae != nil {
		c.JSON(ae.HTTPStatus(), gin.H{"error": ae})
		return
	}
	if ok == nil {
		ok = gin.H{}
	}
	c.JSON(http.StatusOK, ok)
}

// localRedirect only accepts same-site absolute paths.
func localRedirect(target, fallback string) string {
	if target == "" {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(target, "//") {
		return fallback
	}
	return u.RequestURI()
}

// backTo picks where a form action returns to: an explicit "next" field,
// then the Referer of the same site, then fallback.
func backTo(c *gin.Context, fallback string) string {
	if next := c.PostForm("next"); next != "" {
		return localRedirect(next, fallback)
	}
	if ref, err := url.Parse(c.GetHeader("Referer")); err == nil && ref.Host == c.Request.Host {
		return localRedirect(ref.RequestURI(), fallback)
	}
	return fallback
}

// errorMessage flattens an action error for an HTML flash.
func errorMessage(ae *services.ActionError) string {
	if ae == nil {
		return ""
	}
	if ae.Message != "" {
		return ae.Message
	}
	return "Please fix the errors below"
}
