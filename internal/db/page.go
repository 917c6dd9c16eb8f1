package db

import "time"

// Page 独立内容页，例如 about、privacy-policy、affiliate-disclosure。
type Page struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Slug      string    `gorm:"size:120;uniqueIndex;not null" json:"slug"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Summary   string    `gorm:"size:300" json:"summary"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
