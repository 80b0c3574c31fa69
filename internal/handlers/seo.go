package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ainews/internal/ids"
	"ainews/internal/services"
	"ainews/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"
	"github.com/sourcegraph/sitemap"
)

type SEOHandler struct {
	stories *services.StoryService
	site    Site
}

func NewSEOHandler(stories *services.StoryService, site Site) *SEOHandler {
	site.URL = strings.TrimRight(site.URL, "/")
	return &SEOHandler{stories: stories, site: site}
}

// RobotsTxt 返回robots.txt内容
func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	content := fmt.Sprintf(`User-agent: *
Allow: /

# 禁止爬取登录和表单提交
Disallow: /login
Disallow: /submit
Disallow: /vote
Disallow: /unvote
Disallow: /threads
Disallow: /cron

Sitemap: %s/sitemap.xml
`, h.site.URL)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

// SitemapXML lists the feeds and the newest stories of both feeds.
func (h *SEOHandler) SitemapXML(c *gin.Context) {
	ctx := c.Request.Context()
	now := time.Now()

	var urlSet sitemap.URLSet
	for _, l := range []Listing{ListingFront, ListingNewest, ListingAsk, ListingShow, ListingJobs} {
		urlSet.URLs = append(urlSet.URLs, sitemap.URL{
			Loc:        h.site.URL + l.Path,
			LastMod:    &now,
			ChangeFreq: sitemap.Hourly,
			Priority:   0.9,
		})
	}

	for _, newest := range []bool{false, true} {
		page, err := h.stories.List(ctx, services.StoryQuery{IsNewest: newest, Page: 1})
		if err != nil {
			slog.Error("sitemap stories", "err", err)
			c.Status(http.StatusInternalServerError)
			return
		}
		for i := range page.Stories {
			s := &page.Stories[i]
			urlSet.URLs = append(urlSet.URLs, sitemap.URL{
				Loc:        h.site.URL + "/item/" + ids.StripPrefix(s.ID, ids.Story),
				LastMod:    &s.UpdatedAt,
				ChangeFreq: sitemap.Daily,
				Priority:   0.7,
			})
		}
	}

	xml, err := sitemap.Marshal(&urlSet)
	if err != nil {
		slog.Error("marshal sitemap", "err", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", xml)
}

// RSSFeed 生成 RSS 2.0 feed，内容为用户最新提交
func (h *SEOHandler) RSSFeed(c *gin.Context) {
	page, err := h.stories.List(c.Request.Context(), services.StoryQuery{IsNewest: true, Page: 1})
	if err != nil {
		slog.Error("rss stories", "err", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	feed := &feeds.Feed{
		Title:       h.site.Name,
		Link:        &feeds.Link{Href: h.site.URL + "/"},
		Description: h.site.Name + ": newest submissions",
		Created:     time.Now(),
	}
	for i := range page.Stories {
		s := &page.Stories[i]
		link := h.site.URL + "/item/" + ids.StripPrefix(s.ID, ids.Story)
		item := &feeds.Item{
			Id:          link,
			Title:       s.Title,
			Link:        &feeds.Link{Href: link},
			Author:      &feeds.Author{Name: s.SubmitterName()},
			Description: utils.PlainText(utils.RenderMarkdown(s.TextValue()), 300),
			Created:     s.CreatedAt,
		}
		if s.URLValue() != "" {
			item.Link = &feeds.Link{Href: s.URLValue()}
			item.Description = strings.TrimSpace(item.Description + " " + link)
		}
		feed.Items = append(feed.Items, item)
	}

	rss, err := feed.ToRss()
	if err != nil {
		slog.Error("render rss", "err", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}
