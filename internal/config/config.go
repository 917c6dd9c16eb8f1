package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr     string
	Port           string
	DatabaseDriver string
	DatabaseDSN    string
	SessionSecret  string
	JWTSecret      string
	TokenTTL       time.Duration
	GinMode        string
	LogLevel       string
	LogFormat      string
	UploadDir      string
	UploadURLPath  string

	SiteName        string
	SiteDescription string
	SiteURL         string

	ResendAPIKey          string
	ResendFromEmail       string
	ResendBaseURL         string
	NewsletterBatchSize   int
	NewsletterAutoConfirm bool

	CountryHeaders     []string
	TrustedProxies     []string
	RedisAddr          string
	TrackRatePerMinute int

	ContactEmail  string
	AdminEmail    string
	AdminPassword string
}

// DefaultJWTSecret 仅用于本地开发，生产环境必须通过 JWT_SECRET 覆盖。
const DefaultJWTSecret = "inkpress-dev-jwt-secret"

var defaults = map[string]interface{}{
	"PORT":                    "8080",
	"DATABASE_DRIVER":         "sqlite",
	"DATABASE_DSN":            "inkpress.db",
	"SESSION_SECRET":          "inkpress-dev-secret",
	"JWT_SECRET":              DefaultJWTSecret,
	"TOKEN_TTL":               "24h",
	"GIN_MODE":                "release",
	"LOG_LEVEL":               "info",
	"LOG_FORMAT":              "json",
	"UPLOAD_DIR":              "web/static/uploads",
	"UPLOAD_URL_PATH":         "/static/uploads",
	"SITE_NAME":               "PremiumBlog",
	"SITE_DESCRIPTION":        "",
	"SITE_URL":                "http://localhost:3000",
	"RESEND_FROM_EMAIL":       "newsletter@yourdomain.com",
	"RESEND_BASE_URL":         "https://api.resend.com",
	"NEWSLETTER_BATCH_SIZE":   50,
	"NEWSLETTER_AUTO_CONFIRM": true,
	"COUNTRY_HEADERS":         "CF-IPCountry,X-Vercel-IP-Country",
	"TRACK_RATE_PER_MINUTE":   120,
}

// Load 从环境变量（以及可选的 INKPRESS_CONFIG 配置文件）读取应用配置，并为缺失项提供安全的默认值。
func Load() (AppConfig, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if file := strings.TrimSpace(v.GetString("INKPRESS_CONFIG")); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return AppConfig{}, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) AppConfig {
	port := strings.TrimSpace(v.GetString("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(v.GetString("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	tokenTTL := v.GetDuration("TOKEN_TTL")
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}

	batchSize := v.GetInt("NEWSLETTER_BATCH_SIZE")
	if batchSize <= 0 {
		batchSize = 50
	}

	ratePerMinute := v.GetInt("TRACK_RATE_PER_MINUTE")
	if ratePerMinute <= 0 {
		ratePerMinute = 120
	}

	return AppConfig{
		ListenAddr:     listenAddr,
		Port:           port,
		DatabaseDriver: strings.ToLower(strings.TrimSpace(v.GetString("DATABASE_DRIVER"))),
		DatabaseDSN:    strings.TrimSpace(v.GetString("DATABASE_DSN")),
		SessionSecret:  strings.TrimSpace(v.GetString("SESSION_SECRET")),
		JWTSecret:      strings.TrimSpace(v.GetString("JWT_SECRET")),
		TokenTTL:       tokenTTL,
		GinMode:        strings.TrimSpace(v.GetString("GIN_MODE")),
		LogLevel:       strings.TrimSpace(v.GetString("LOG_LEVEL")),
		LogFormat:      strings.TrimSpace(v.GetString("LOG_FORMAT")),
		UploadDir:      strings.TrimSpace(v.GetString("UPLOAD_DIR")),
		UploadURLPath:  strings.TrimRight(strings.TrimSpace(v.GetString("UPLOAD_URL_PATH")), "/"),

		SiteName:        strings.TrimSpace(v.GetString("SITE_NAME")),
		SiteDescription: strings.TrimSpace(v.GetString("SITE_DESCRIPTION")),
		SiteURL:         strings.TrimRight(strings.TrimSpace(v.GetString("SITE_URL")), "/"),

		ResendAPIKey:          strings.TrimSpace(v.GetString("RESEND_API_KEY")),
		ResendFromEmail:       strings.TrimSpace(v.GetString("RESEND_FROM_EMAIL")),
		ResendBaseURL:         strings.TrimRight(strings.TrimSpace(v.GetString("RESEND_BASE_URL")), "/"),
		NewsletterBatchSize:   batchSize,
		NewsletterAutoConfirm: v.GetBool("NEWSLETTER_AUTO_CONFIRM"),

		CountryHeaders:     splitList(v.GetString("COUNTRY_HEADERS")),
		TrustedProxies:     splitList(v.GetString("TRUSTED_PROXIES")),
		RedisAddr:          strings.TrimSpace(v.GetString("REDIS_ADDR")),
		TrackRatePerMinute: ratePerMinute,

		ContactEmail:  strings.TrimSpace(v.GetString("CONTACT_EMAIL")),
		AdminEmail:    strings.TrimSpace(v.GetString("ADMIN_EMAIL")),
		AdminPassword: strings.TrimSpace(v.GetString("ADMIN_PASSWORD")),
	}
}

// UsesDefaultJWTSecret 报告令牌签名密钥是否仍是开发默认值。
func (c AppConfig) UsesDefaultJWTSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
