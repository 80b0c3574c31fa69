package router

import (
	"net/http"
	"path/filepath"
	"time"

	"ainews/internal/app"
	"ainews/internal/handlers"
	"ainews/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const sessionName = "ainews_session"

// New builds the gin engine with templates, sessions and every route.
func New(a *app.App) (*gin.Engine, error) {
	cfg := a.Config
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger())

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((30 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   !cfg.IsDevelopment(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	renderer, err := handlers.LoadTemplates(cfg.TemplatesDir)
	if err != nil {
		return nil, err
	}
	r.HTMLRender = renderer
	r.Static("/static", filepath.Join(filepath.Dir(filepath.Clean(cfg.TemplatesDir)), "static"))

	site := handlers.Site{Name: cfg.SiteName, URL: cfg.SiteURL}
	r.Use(handlers.SiteInfo(site), middleware.LoadUser(a.Store, a.Tokens))

	RegisterRoutes(r, a, site)
	return r, nil
}

func RegisterRoutes(r *gin.Engine, a *app.App, site handlers.Site) {
	// Handlers
	authHandler := handlers.NewAuthHandler(a.Accounts, a.Tokens)
	storyHandler := handlers.NewStoryHandler(a.Stories, a.Comments, a.Votes)
	voteHandler := handlers.NewVoteHandler(a.Votes)
	userHandler := handlers.NewUserHandler(a.Accounts, a.Comments)
	seoHandler := handlers.NewSEOHandler(a.Stories, site)
	cronHandler := handlers.NewCronHandler(a.Generator, a.Config.CronSecret, a.Config.IsDevelopment())

	// 公共路由 (Public Routes)
	r.GET("/", storyHandler.List(handlers.ListingFront))        // 首页
	r.GET("/newest", storyHandler.List(handlers.ListingNewest)) // 用户提交
	r.GET("/ask", storyHandler.List(handlers.ListingAsk))       // Ask HN
	r.GET("/show", storyHandler.List(handlers.ListingShow))     // Show HN
	r.GET("/jobs", storyHandler.List(handlers.ListingJobs))     // Jobs
	r.GET("/search", storyHandler.Search)                       // 标题搜索
	r.GET("/item/:id", storyHandler.Item)                       // 详情 + 评论
	r.GET("/user/:id", userHandler.Profile)                     // 用户主页

	r.GET("/login", authHandler.ShowLogin) // 登录/注册页面
	r.POST("/login", authHandler.Login)    // 提交登录
	r.POST("/signup", authHandler.SignUp)  // 提交注册
	r.POST("/logout", authHandler.Logout)  // 退出登录

	r.GET("/rss", seoHandler.RSSFeed)
	r.GET("/sitemap.xml", seoHandler.SitemapXML)
	r.GET("/robots.txt", seoHandler.RobotsTxt)

	r.GET("/cron", cronHandler.Run) // Bearer CRON_SECRET
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 受保护路由 (Protected Routes)
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/submit", storyHandler.ShowSubmit)
		authorized.POST("/submit", storyHandler.Submit)
		authorized.POST("/item/:id/reply", storyHandler.Reply)
		authorized.POST("/vote", voteHandler.Vote)
		authorized.POST("/unvote", voteHandler.Unvote)
		authorized.GET("/threads", userHandler.Threads)
		authorized.POST("/user/:id", userHandler.UpdateProfile)
	}

	r.NoRoute(func(c *gin.Context) {
		handlers.RenderError(c, http.StatusNotFound, "Page not found.")
	})
}
