package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/inkpress/internal/db"
	"gorm.io/gorm"
)

// DefaultCategoryColor 是未指定颜色时的分类颜色。
const DefaultCategoryColor = "#6366F1"

// CategoryWithCount 是分类及其已发布文章数。
type CategoryWithCount struct {
	db.Category
	PostCount int64 `json:"postCount"`
}

// CategoryInput 是创建分类的参数。
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug"`
	Description string `json:"description" validate:"max=500"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
	Icon        string `json:"icon" validate:"max=50"`
}

// CategoryService 管理文章分类。
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService 构造 CategoryService。
func NewCategoryService(gdb *gorm.DB) *CategoryService {
	return &CategoryService{db: gdb}
}

// List 按名称返回全部分类以及各自的已发布文章数。
func (s *CategoryService) List(ctx context.Context) ([]CategoryWithCount, error) {
	result := []CategoryWithCount{}
	err := s.db.WithContext(ctx).Model(&db.Category{}).
		Select("categories.*, COUNT(posts.id) AS post_count").
		Joins("LEFT JOIN posts ON posts.category_id = categories.id AND posts.status = ?", db.PostStatusPublished).
		Group("categories.id").
		Order("categories.name ASC").
		Scan(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Create 创建分类，slug 冲突返回 ErrConflict。
func (s *CategoryService) Create(ctx context.Context, input CategoryInput) (*db.Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Color = strings.TrimSpace(input.Color)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	name := input.Name
	slug := Slugify(input.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return nil, validationError("slug cannot be derived from name")
	}
	color := strings.TrimSpace(input.Color)
	if color == "" {
		color = DefaultCategoryColor
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&db.Category{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("category %q: %w", slug, ErrConflict)
	}

	category := db.Category{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
		Color:       color,
		Icon:        strings.TrimSpace(input.Icon),
	}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}
