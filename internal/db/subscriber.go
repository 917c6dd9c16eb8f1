package db

import "time"

// NewsletterSubscriber 邮件订阅者。Confirmed 独立可写，确认流程可以在创建之后再翻转它。
type NewsletterSubscriber struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name      string    `gorm:"size:120" json:"name,omitempty"`
	Confirmed bool      `gorm:"index;not null" json:"confirmed"`
	Token     string    `gorm:"size:64;uniqueIndex" json:"-"`
	CreatedAt time.Time `gorm:"index;not null" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (NewsletterSubscriber) TableName() string {
	return "newsletter_subscribers"
}
