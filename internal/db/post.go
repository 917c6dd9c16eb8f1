package db

import "time"

const (
	PostStatusDraft     = "DRAFT"
	PostStatusPublished = "PUBLISHED"
	PostStatusScheduled = "SCHEDULED"
	PostStatusArchived  = "ARCHIVED"
)

// ValidPostStatus 判断状态值是否属于已知的文章状态。
func ValidPostStatus(status string) bool {
	switch status {
	case PostStatusDraft, PostStatusPublished, PostStatusScheduled, PostStatusArchived:
		return true
	}
	return false
}

// Post 定义了文章模型
type Post struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Title           string     `gorm:"size:300;not null" json:"title"`
	Slug            string     `gorm:"size:300;uniqueIndex;not null" json:"slug"`
	Excerpt         string     `gorm:"type:text" json:"excerpt"`
	Content         string     `gorm:"type:text" json:"content"`
	CoverImage      string     `json:"coverImage,omitempty"`
	Status          string     `gorm:"size:20;index;not null" json:"status"`
	Featured        bool       `json:"featured"`
	Sponsored       bool       `json:"sponsored"`
	Views           int64      `gorm:"index;not null;default:0" json:"views"`
	ReadingTime     int        `json:"readingTime"`
	PublishedAt     *time.Time `gorm:"index" json:"publishedAt"`
	MetaTitle       string     `json:"metaTitle,omitempty"`
	MetaDescription string     `json:"metaDescription,omitempty"`
	CategoryID      *uint      `gorm:"index" json:"categoryId"`
	Category        *Category  `gorm:"constraint:OnDelete:SET NULL" json:"category,omitempty"`
	AuthorID        uint       `gorm:"index;not null" json:"authorId"`
	Author          User       `json:"author"`
	Tags            []Tag      `gorm:"many2many:post_tags;" json:"tags"`
	CreatedAt       time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// IsPublished 表示文章当前处于发布状态。
func (p *Post) IsPublished() bool {
	return p != nil && p.Status == PostStatusPublished
}
