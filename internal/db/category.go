package db

// Category 文章分类，一对多拥有文章（外键在 Post 一侧）。
type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:120;not null" json:"name"`
	Slug        string `gorm:"size:160;uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Color       string `gorm:"size:20" json:"color"`
	Icon        string `gorm:"size:20" json:"icon"`
}
