package db

import "time"

const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
)

// AffiliateClick 推广链接点击记录，只追加不修改。
type AffiliateClick struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	URL       string    `gorm:"size:2048;not null" json:"url"`
	Label     string    `gorm:"size:255" json:"label,omitempty"`
	PostID    *uint     `gorm:"index" json:"postId,omitempty"`
	IP        string    `gorm:"size:64" json:"ip,omitempty"`
	CreatedAt time.Time `gorm:"index;not null" json:"createdAt"`
}

// TableName 指定表名
func (AffiliateClick) TableName() string {
	return "affiliate_clicks"
}

// PageView 单次页面浏览记录，只追加不修改。
type PageView struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Path      string    `gorm:"size:1024;not null" json:"path"`
	PostID    *uint     `gorm:"index" json:"postId,omitempty"`
	Device    string    `gorm:"size:16;index" json:"device"`
	Country   string    `gorm:"size:8" json:"country,omitempty"`
	Referrer  string    `gorm:"size:2048" json:"referrer,omitempty"`
	CreatedAt time.Time `gorm:"index;not null" json:"createdAt"`
}

// TableName 指定表名
func (PageView) TableName() string {
	return "page_views"
}
