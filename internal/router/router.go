package router

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/auth"
	"github.com/inkpress/internal/handler"
	"github.com/inkpress/internal/logger"
	"github.com/inkpress/internal/metrics"
	"go.uber.org/zap"
)

const sessionName = "inkpress_session"

// Options 是路由层需要的配置。TrustedProxies 为空时不信任任何代理，ClientIP 只取连接地址。
type Options struct {
	SessionSecret  string
	SecureCookies  bool
	UploadDir      string
	UploadURL      string
	TrustedProxies []string
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		logger.Warn("invalid trusted proxies, trusting none", zap.Strings("proxies", opts.TrustedProxies), zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery(), RequestLogger())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/api/admin/upload"})))

	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	if opts.UploadDir != "" {
		uploadURL := strings.TrimRight(opts.UploadURL, "/")
		if uploadURL == "" {
			uploadURL = "/static/uploads"
		}
		r.Static(uploadURL, opts.UploadDir)
	}

	r.GET("/healthz", api.HealthCheck)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/feed.xml", api.Feed)
	r.GET("/sitemap.xml", api.Sitemap)
	r.GET("/robots.txt", api.Robots)

	session := api.Require(auth.RequireSession)
	author := api.Require(auth.RequireAuthor)
	admin := api.Require(auth.RequireAdmin)

	v := r.Group("/api")
	{
		v.POST("/auth/login", api.Login)
		v.POST("/auth/logout", api.Logout)
		v.POST("/auth/token", api.IssueToken)
		v.GET("/auth/me", session, api.Me)

		v.GET("/analytics", session, api.GetAnalytics)
		v.DELETE("/analytics/clear", admin, api.ClearAnalytics)

		v.GET("/settings", session, api.GetSettings)
		v.PATCH("/settings", admin, api.UpdateSettings)

		v.POST("/newsletter/subscribe", api.Subscribe)
		v.GET("/newsletter/confirm", api.ConfirmSubscription)
		v.GET("/newsletter/export", author, api.ExportSubscribers)
		v.POST("/newsletter/test", admin, api.SendTestEmail)
		v.POST("/newsletter/blast", author, api.BlastNewsletter)
		v.DELETE("/newsletter/subscribers", admin, api.ClearSubscribers)

		v.POST("/affiliate/track", api.TrackAffiliateClick)
		v.POST("/pageview", api.TrackPageView)

		v.GET("/posts", api.ListPosts)
		v.POST("/posts", session, api.CreatePost)
		v.DELETE("/posts/drafts", admin, api.ClearDrafts)
		v.GET("/posts/:id", session, api.GetPost)
		v.PUT("/posts/:id", session, api.UpdatePost)
		v.DELETE("/posts/:id", admin, api.DeletePost)
		v.GET("/blog/:slug", api.GetPublicPost)

		v.GET("/categories", api.ListCategories)
		v.POST("/categories", admin, api.CreateCategory)
		v.GET("/tags", api.ListTags)

		v.GET("/users", admin, api.ListUsers)
		v.POST("/users", admin, api.CreateUser)
		v.GET("/authors/:id", api.GetAuthor)

		v.GET("/pages/:slug", api.GetPage)
		v.PUT("/pages/:slug", admin, api.SavePage)

		v.POST("/contact", api.SubmitContact)
		v.POST("/admin/upload", session, api.UploadImage)
	}

	return r
}
