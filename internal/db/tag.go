package db

// Tag 定义了标签模型
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null" json:"name"`
	Slug string `gorm:"size:120;uniqueIndex;not null" json:"slug"`
}
