package db

import "time"

// SiteSettingsID 站点设置表只有一行，使用固定主键。
const SiteSettingsID = "singleton"

// SiteSettings 存储后台可配置的站点信息与第三方凭据。
type SiteSettings struct {
	ID                string    `gorm:"primaryKey;size:32" json:"id"`
	SiteName          string    `gorm:"size:200" json:"siteName"`
	SiteDescription   string    `gorm:"type:text" json:"siteDescription"`
	SiteURL           string    `gorm:"size:255" json:"siteUrl"`
	LogoURL           string    `gorm:"size:1024" json:"logoUrl"`
	FaviconURL        string    `gorm:"size:1024" json:"faviconUrl"`
	TwitterHandle     string    `gorm:"size:100" json:"twitterHandle"`
	FooterText        string    `gorm:"type:text" json:"footerText"`
	FromEmail         string    `gorm:"size:255" json:"fromEmail"`
	EmailSignature    string    `gorm:"type:text" json:"emailSignature"`
	ResendAPIKey      string    `gorm:"size:255" json:"resendApiKey"`
	AdsenseClientID   string    `gorm:"size:100" json:"adsenseClientId"`
	GoogleAnalyticsID string    `gorm:"size:100" json:"googleAnalyticsId"`
	PostsPerPage      int       `json:"postsPerPage"`
	MaintenanceMode   bool      `json:"maintenanceMode"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// TableName 自定义表名以保持命名一致。
func (SiteSettings) TableName() string {
	return "site_settings"
}
