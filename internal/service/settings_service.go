package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaskPrefix 是密钥字段对外展示时的固定前缀。
const MaskPrefix = "••••••••"

const defaultPostsPerPage = 10

// SettingsDefaults 是首次访问时写入设置行的默认值，来自环境配置。
type SettingsDefaults struct {
	SiteName        string
	SiteDescription string
	SiteURL         string
	FromEmail       string
}

// SettingsPatch 描述一次部分更新，nil 字段保持不变。
type SettingsPatch struct {
	SiteName          *string `json:"siteName"`
	SiteDescription   *string `json:"siteDescription"`
	SiteURL           *string `json:"siteUrl"`
	LogoURL           *string `json:"logoUrl"`
	FaviconURL        *string `json:"faviconUrl"`
	TwitterHandle     *string `json:"twitterHandle"`
	FooterText        *string `json:"footerText"`
	FromEmail         *string `json:"fromEmail"`
	EmailSignature    *string `json:"emailSignature"`
	ResendAPIKey      *string `json:"resendApiKey"`
	AdsenseClientID   *string `json:"adsenseClientId"`
	GoogleAnalyticsID *string `json:"googleAnalyticsId"`
	PostsPerPage      *int    `json:"postsPerPage"`
	MaintenanceMode   *bool   `json:"maintenanceMode"`
}

// SettingsService 管理唯一的站点设置记录。
type SettingsService struct {
	db       *gorm.DB
	defaults SettingsDefaults
}

// NewSettingsService 构造 SettingsService。
func NewSettingsService(gdb *gorm.DB, defaults SettingsDefaults) *SettingsService {
	return &SettingsService{db: gdb, defaults: defaults}
}

// MaskSecret 返回密钥的展示形式：前缀加最后 4 个字符，空值返回空串。
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	r := []rune(secret)
	if len(r) > 4 {
		r = r[len(r)-4:]
	}
	return MaskPrefix + string(r)
}

// IsMasked 判断值是否为掩码形式。
func IsMasked(value string) bool {
	return strings.HasPrefix(value, MaskPrefix)
}

// Load 读取设置行，不存在时按默认值创建。返回值包含明文密钥，只供服务端内部使用。
func (s *SettingsService) Load(ctx context.Context) (db.SiteSettings, error) {
	seed := db.SiteSettings{
		ID:              db.SiteSettingsID,
		SiteName:        s.defaults.SiteName,
		SiteDescription: s.defaults.SiteDescription,
		SiteURL:         s.defaults.SiteURL,
		FromEmail:       s.defaults.FromEmail,
		PostsPerPage:    defaultPostsPerPage,
	}

	q := s.db.WithContext(ctx)
	if err := q.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return db.SiteSettings{}, fmt.Errorf("seed site settings: %w", err)
	}

	var settings db.SiteSettings
	if err := q.First(&settings, "id = ?", db.SiteSettingsID).Error; err != nil {
		return db.SiteSettings{}, fmt.Errorf("load site settings: %w", err)
	}
	return settings, nil
}

// Get 返回掩码后的设置，用于对外读取。
func (s *SettingsService) Get(ctx context.Context) (db.SiteSettings, error) {
	settings, err := s.Load(ctx)
	if err != nil {
		return db.SiteSettings{}, err
	}
	return maskSettings(settings), nil
}

// Update 应用部分更新。密钥字段若携带掩码前缀则视为未修改；其它字段原样写入。
func (s *SettingsService) Update(ctx context.Context, patch SettingsPatch) (db.SiteSettings, error) {
	if _, err := s.Load(ctx); err != nil {
		return db.SiteSettings{}, err
	}

	updates := map[string]interface{}{}
	setString := func(column string, v *string) {
		if v != nil {
			updates[column] = *v
		}
	}
	setString("site_name", patch.SiteName)
	setString("site_description", patch.SiteDescription)
	setString("site_url", patch.SiteURL)
	setString("logo_url", patch.LogoURL)
	setString("favicon_url", patch.FaviconURL)
	setString("twitter_handle", patch.TwitterHandle)
	setString("footer_text", patch.FooterText)
	setString("from_email", patch.FromEmail)
	setString("email_signature", patch.EmailSignature)
	setString("adsense_client_id", patch.AdsenseClientID)
	setString("google_analytics_id", patch.GoogleAnalyticsID)
	if patch.ResendAPIKey != nil && !IsMasked(*patch.ResendAPIKey) {
		updates["resend_api_key"] = *patch.ResendAPIKey
	}
	if patch.PostsPerPage != nil {
		updates["posts_per_page"] = *patch.PostsPerPage
	}
	if patch.MaintenanceMode != nil {
		updates["maintenance_mode"] = *patch.MaintenanceMode
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).
			Model(&db.SiteSettings{ID: db.SiteSettingsID}).
			Updates(updates).Error; err != nil {
			return db.SiteSettings{}, fmt.Errorf("update site settings: %w", err)
		}
	}

	return s.Get(ctx)
}

// Site 合并设置表与环境默认值，设置表优先；读取失败时返回 fallback。
func (s *SettingsService) Site(ctx context.Context, fallback EmailSite) EmailSite {
	site := fallback
	settings, err := s.Load(ctx)
	if err != nil {
		logger.Warn("load site settings failed", zap.Error(err))
		return site
	}
	if v := strings.TrimSpace(settings.SiteName); v != "" {
		site.Name = v
	}
	if v := strings.TrimRight(strings.TrimSpace(settings.SiteURL), "/"); v != "" {
		site.URL = v
	}
	if v := strings.TrimSpace(settings.SiteDescription); v != "" {
		site.Description = v
	}
	site.Signature = strings.TrimSpace(settings.EmailSignature)
	return site
}

func maskSettings(settings db.SiteSettings) db.SiteSettings {
	settings.ResendAPIKey = MaskSecret(settings.ResendAPIKey)
	return settings
}
