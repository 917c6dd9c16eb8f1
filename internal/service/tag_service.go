package service

import (
	"context"
	"strings"

	"github.com/inkpress/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagService wraps tag related operations.
type TagService struct {
	db *gorm.DB
}

// TagUsage 描述标签在已发布文章中的使用次数。
type TagUsage struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int64  `json:"count"`
}

// NewTagService creates a TagService instance.
func NewTagService(gdb *gorm.DB) *TagService {
	return &TagService{db: gdb}
}

// PublishedUsage 返回已发布文章中标签的使用统计，按次数倒序。
func (s *TagService) PublishedUsage(ctx context.Context) ([]TagUsage, error) {
	usages := []TagUsage{}
	err := s.db.WithContext(ctx).Table("tags").
		Select("tags.id, tags.name, tags.slug, COUNT(DISTINCT posts.id) AS count").
		Joins("JOIN post_tags ON post_tags.tag_id = tags.id").
		Joins("JOIN posts ON posts.id = post_tags.post_id").
		Where("posts.status = ?", db.PostStatusPublished).
		Group("tags.id, tags.name, tags.slug").
		Order("count DESC").
		Order("tags.name ASC").
		Scan(&usages).Error
	if err != nil {
		return nil, err
	}
	return usages, nil
}

// upsertByNames 按 slug 查找或创建标签，重复名称与无法生成 slug 的名称会被忽略。
func (s *TagService) upsertByNames(tx *gorm.DB, names []string) ([]db.Tag, error) {
	tags := make([]db.Tag, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		slug := Slugify(name)
		if slug == "" {
			continue
		}
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}

		tag := db.Tag{Name: name, Slug: slug}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoNothing: true,
		}).Create(&tag).Error; err != nil {
			return nil, err
		}
		if err := tx.Where("slug = ?", slug).First(&tag).Error; err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
