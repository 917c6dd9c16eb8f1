package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/inkpress/internal/db"
	"gorm.io/gorm"
)

// ErrPageNotFound 表示内容页不存在。
var ErrPageNotFound = fmt.Errorf("page %w", ErrNotFound)

// PageInput 是保存内容页的参数。
type PageInput struct {
	Title   string `json:"title" validate:"max=200"`
	Content string `json:"content" validate:"required"`
}

// PageService provides access to standalone pages such as about or privacy-policy.
type PageService struct {
	db *gorm.DB
}

// NewPageService returns a new PageService instance.
func NewPageService(gdb *gorm.DB) *PageService {
	return &PageService{db: gdb}
}

// GetBySlug fetches a page for a given slug.
func (s *PageService) GetBySlug(ctx context.Context, slug string) (*db.Page, error) {
	var page db.Page
	if err := s.db.WithContext(ctx).Where("slug = ?", Slugify(slug)).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

// Save creates or updates the page identified by slug.
func (s *PageService) Save(ctx context.Context, slug string, input PageInput) (*db.Page, error) {
	normalized := Slugify(slug)
	if normalized == "" {
		return nil, validationError("slug is required")
	}
	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	content, title := input.Content, input.Title
	if title == "" {
		title = defaultPageTitle(normalized)
	}

	var page db.Page
	err := s.db.WithContext(ctx).Where("slug = ?", normalized).First(&page).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		page = db.Page{Slug: normalized}
	case err != nil:
		return nil, err
	}

	page.Title = title
	page.Content = content
	page.Summary = GenerateExcerpt(content)
	if err := s.db.WithContext(ctx).Save(&page).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

// defaultPageTitle 把 slug 还原成标题，例如 privacy-policy → Privacy Policy。
func defaultPageTitle(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
