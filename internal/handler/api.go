package handler

import (
	"github.com/inkpress/internal/auth"
	"github.com/inkpress/internal/ratelimit"
	"github.com/inkpress/internal/service"
	"gorm.io/gorm"
)

// Options 汇总构建 API 所需的外部配置。
type Options struct {
	UploadDir      string
	UploadURL      string
	CountryHeaders []string
	ContactEmail   string
	Site           service.EmailSite
	Resend         service.ResendConfig
	Newsletter     service.NewsletterOptions
	Tokens         *auth.TokenIssuer
	Limiter        ratelimit.Limiter
	Mailer         service.Mailer
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db         *gorm.DB
	posts      *service.PostService
	tags       *service.TagService
	categories *service.CategoryService
	users      *service.UserService
	authors    *service.AuthorService
	pages      *service.PageService
	analytics  *service.AnalyticsService
	settings   *service.SettingsService
	newsletter *service.NewsletterService
	tracking   *service.TrackingService
	contact    *service.ContactService
	tokens     *auth.TokenIssuer
	limiter    ratelimit.Limiter

	site           service.EmailSite
	countryHeaders []string
	uploadDir      string
	uploadURL      string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	settings := service.NewSettingsService(gdb, service.SettingsDefaults{
		SiteName:        opts.Site.Name,
		SiteDescription: opts.Site.Description,
		SiteURL:         opts.Site.URL,
		FromEmail:       opts.Resend.FromEmail,
	})

	mailer := opts.Mailer
	if mailer == nil {
		mailer = service.NewResendMailer(settings, opts.Resend)
	}

	newsletterOpts := opts.Newsletter
	newsletterOpts.Site = opts.Site

	tokens := opts.Tokens
	if tokens == nil {
		tokens = auth.NewEphemeralTokenIssuer(0)
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.NewMemoryLimiter(120)
	}

	return &API{
		db:             gdb,
		posts:          service.NewPostService(gdb),
		tags:           service.NewTagService(gdb),
		categories:     service.NewCategoryService(gdb),
		users:          service.NewUserService(gdb),
		authors:        service.NewAuthorService(gdb),
		pages:          service.NewPageService(gdb),
		analytics:      service.NewAnalyticsService(gdb),
		settings:       settings,
		newsletter:     service.NewNewsletterService(gdb, mailer, settings, newsletterOpts),
		tracking:       service.NewTrackingService(gdb),
		contact:        service.NewContactService(mailer, opts.ContactEmail),
		tokens:         tokens,
		limiter:        limiter,
		site:           opts.Site,
		countryHeaders: opts.CountryHeaders,
		uploadDir:      opts.UploadDir,
		uploadURL:      opts.UploadURL,
	}
}
