package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inkpress/internal/db"
	"gorm.io/gorm"
)

// ErrAuthorNotFound 在作者不存在时返回。
var ErrAuthorNotFound = fmt.Errorf("author %w", ErrNotFound)

// AuthorProfile 是公开作者页的数据：资料、已发布文章与累计浏览量。
type AuthorProfile struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Image      string    `json:"image,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	Twitter    string    `json:"twitter,omitempty"`
	Website    string    `json:"website,omitempty"`
	Role       string    `json:"role"`
	Title      string    `json:"title"`
	JoinedAt   time.Time `json:"joinedAt"`
	Posts      []db.Post `json:"posts"`
	TotalViews int64     `json:"totalViews"`
}

// AuthorService 负责公开作者页，不暴露邮箱等后台字段。
type AuthorService struct {
	db *gorm.DB
}

// NewAuthorService 构造 AuthorService
func NewAuthorService(gdb *gorm.DB) *AuthorService {
	return &AuthorService{db: gdb}
}

// Profile 返回作者资料及其已发布文章（按发布时间倒序）。
func (s *AuthorService) Profile(ctx context.Context, id uint) (*AuthorProfile, error) {
	var user db.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuthorNotFound
		}
		return nil, fmt.Errorf("get author: %w", err)
	}

	posts := []db.Post{}
	if err := s.db.WithContext(ctx).
		Preload("Author").Preload("Category").Preload("Tags").
		Where("author_id = ? AND status = ?", user.ID, db.PostStatusPublished).
		Order("published_at DESC, id DESC").
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list author posts: %w", err)
	}

	profile := &AuthorProfile{
		ID:       user.ID,
		Name:     user.Name,
		Image:    user.Image,
		Bio:      user.Bio,
		Twitter:  user.Twitter,
		Website:  user.Website,
		Role:     user.Role,
		Title:    authorTitle(user.Role),
		JoinedAt: user.CreatedAt,
		Posts:    posts,
	}
	for _, p := range posts {
		profile.TotalViews += p.Views
	}
	return profile, nil
}

func authorTitle(role string) string {
	if role == db.RoleAdmin {
		return "Editor in Chief"
	}
	return "Author"
}
