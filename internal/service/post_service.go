package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inkpress/internal/db"
	"gorm.io/gorm"
)

const (
	defaultPostLimit = 10
	maxPostLimit     = 100
)

// PostService wraps post related database operations.
type PostService struct {
	db   *gorm.DB
	tags *TagService
	now  func() time.Time
}

// PostFilter describes filters for listing posts.
type PostFilter struct {
	Status       string
	CategorySlug string
	Search       string
	Page         int
	Limit        int
}

// PostListResult aggregates paginated list data.
type PostListResult struct {
	Posts      []db.Post `json:"posts"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"totalPages"`
}

// PostInput represents fields accepted when creating or updating a post.
type PostInput struct {
	Title           string     `json:"title" validate:"required,max=200"`
	Slug            string     `json:"slug"`
	Content         string     `json:"content" validate:"required"`
	Excerpt         string     `json:"excerpt"`
	CoverImage      string     `json:"coverImage"`
	Status          string     `json:"status" validate:"omitempty,post_status"`
	Featured        bool       `json:"featured"`
	Sponsored       bool       `json:"sponsored"`
	CategoryID      *uint      `json:"categoryId"`
	Tags            []string   `json:"tags"`
	MetaTitle       string     `json:"metaTitle"`
	MetaDescription string     `json:"metaDescription"`
	ReadingTime     *int       `json:"readingTime"`
	PublishedAt     *time.Time `json:"publishedAt"`
}

// NewPostService creates a PostService instance.
func NewPostService(gdb *gorm.DB) *PostService {
	return &PostService{db: gdb, tags: NewTagService(gdb), now: time.Now}
}

func (s *PostService) preloaded(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Author").Preload("Category").Preload("Tags")
}

// Get fetches a post by id with relations preloaded.
func (s *PostService) Get(ctx context.Context, id uint) (*db.Post, error) {
	var post db.Post
	if err := s.preloaded(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetPublishedBySlug 返回已发布的文章，草稿等其它状态视为不存在。
func (s *PostService) GetPublishedBySlug(ctx context.Context, slug string) (*db.Post, error) {
	var post db.Post
	err := s.preloaded(ctx).
		Where("slug = ? AND status = ?", strings.TrimSpace(slug), db.PostStatusPublished).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Create persists a post and associates tags in a transaction.
func (s *PostService) Create(ctx context.Context, authorID uint, input PostInput) (*db.Post, error) {
	if authorID == 0 {
		return nil, validationError("author is required")
	}
	post := db.Post{AuthorID: authorID}
	if err := s.apply(ctx, &post, input); err != nil {
		return nil, err
	}
	return s.saveWithTags(ctx, &post, input.Tags, true)
}

// Update 以整体覆盖的方式更新文章；Tags 为 nil 时保留原有标签。
func (s *PostService) Update(ctx context.Context, id uint, input PostInput) (*db.Post, error) {
	var existing db.Post
	if err := s.db.WithContext(ctx).First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if err := s.apply(ctx, &existing, input); err != nil {
		return nil, err
	}
	return s.saveWithTags(ctx, &existing, input.Tags, input.Tags != nil)
}

// apply 校验输入并写入 post 的可编辑字段。
func (s *PostService) apply(ctx context.Context, post *db.Post, input PostInput) error {
	checked := input
	checked.Title = strings.TrimSpace(input.Title)
	checked.Content = strings.TrimSpace(input.Content)
	checked.Status = strings.ToUpper(strings.TrimSpace(input.Status))
	if err := validateInput(checked); err != nil {
		return err
	}
	title, status := checked.Title, checked.Status
	if status == "" {
		status = db.PostStatusDraft
	}

	if input.CategoryID != nil && *input.CategoryID != 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&db.Category{}).Where("id = ?", *input.CategoryID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrCategoryNotFound
		}
		id := *input.CategoryID
		post.CategoryID = &id
	} else {
		post.CategoryID = nil
	}
	post.Category = nil

	slug, err := s.uniqueSlug(ctx, input.Slug, title, post.ID)
	if err != nil {
		return err
	}

	post.Title = title
	post.Slug = slug
	post.Content = input.Content
	post.Excerpt = strings.TrimSpace(input.Excerpt)
	if post.Excerpt == "" {
		post.Excerpt = GenerateExcerpt(input.Content)
	}
	post.CoverImage = strings.TrimSpace(input.CoverImage)
	post.Status = status
	post.Featured = input.Featured
	post.Sponsored = input.Sponsored
	post.MetaTitle = strings.TrimSpace(input.MetaTitle)
	post.MetaDescription = strings.TrimSpace(input.MetaDescription)

	if input.ReadingTime != nil && *input.ReadingTime > 0 {
		post.ReadingTime = *input.ReadingTime
	} else {
		post.ReadingTime = ReadingTime(input.Content)
	}

	switch {
	case input.PublishedAt != nil:
		t := input.PublishedAt.UTC()
		post.PublishedAt = &t
	case status == db.PostStatusPublished && post.PublishedAt == nil:
		t := s.now().UTC()
		post.PublishedAt = &t
	}
	return nil
}

// uniqueSlug 使用显式 slug 或由标题生成；冲突时追加毫秒时间戳。
func (s *PostService) uniqueSlug(ctx context.Context, requested, title string, selfID uint) (string, error) {
	base := Slugify(requested)
	if base == "" {
		base = Slugify(title)
	}
	if base == "" {
		base = "post"
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&db.Post{}).
		Where("slug = ? AND id <> ?", base, selfID).
		Count(&count).Error; err != nil {
		return "", err
	}
	if count == 0 {
		return base, nil
	}
	return fmt.Sprintf("%s-%d", base, s.now().UnixMilli()), nil
}

func (s *PostService) saveWithTags(ctx context.Context, post *db.Post, tagNames []string, replaceTags bool) (*db.Post, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Author", "Category", "Tags").Save(post).Error; err != nil {
			return err
		}

		if replaceTags {
			tags, err := s.tags.upsertByNames(tx, tagNames)
			if err != nil {
				return err
			}
			if err := tx.Model(post).Association("Tags").Replace(tags); err != nil {
				return err
			}
		}

		return tx.Preload("Author").Preload("Category").Preload("Tags").First(post, post.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Delete removes a post and its tag links.
func (s *PostService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post db.Post
		if err := tx.First(&post, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}
		if err := tx.Model(&post).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&db.PostVisit{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
}

// ClearDrafts 删除全部草稿及其标签关联，返回删除条数。
func (s *PostService) ClearDrafts(ctx context.Context) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&db.Post{}).Where("status = ?", db.PostStatusDraft).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Exec("DELETE FROM post_tags WHERE post_id IN ?", ids).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id IN ?", ids).Delete(&db.PostVisit{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&db.Post{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// List provides paginated posts. 状态为空时只返回已发布文章。
func (s *PostService) List(ctx context.Context, filter PostFilter) (*PostListResult, error) {
	result := &PostListResult{Page: filter.Page, Limit: filter.Limit}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.Limit <= 0 {
		result.Limit = defaultPostLimit
	}
	if result.Limit > maxPostLimit {
		result.Limit = maxPostLimit
	}

	if err := s.applyFilters(s.db.WithContext(ctx).Model(&db.Post{}), filter).Count(&result.Total).Error; err != nil {
		return nil, err
	}

	var posts []db.Post
	if err := s.applyFilters(s.preloaded(ctx).Model(&db.Post{}), filter).
		Order("CASE WHEN posts.published_at IS NULL THEN 1 ELSE 0 END").
		Order("posts.published_at DESC").
		Order("posts.id DESC").
		Limit(result.Limit).
		Offset((result.Page - 1) * result.Limit).
		Find(&posts).Error; err != nil {
		return nil, err
	}

	result.Posts = posts
	result.TotalPages = int((result.Total + int64(result.Limit) - 1) / int64(result.Limit))
	return result, nil
}

// ListPublished 返回最近发布的文章，limit<=0 时返回全部，用于 RSS 与 sitemap。
func (s *PostService) ListPublished(ctx context.Context, limit int) ([]db.Post, error) {
	query := s.preloaded(ctx).
		Where("status = ?", db.PostStatusPublished).
		Order("CASE WHEN published_at IS NULL THEN 1 ELSE 0 END").
		Order("published_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var posts []db.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *PostService) applyFilters(query *gorm.DB, filter PostFilter) *gorm.DB {
	status := strings.ToUpper(strings.TrimSpace(filter.Status))
	if status == "" {
		status = db.PostStatusPublished
	}
	query = query.Where("posts.status = ?", status)

	if slug := strings.TrimSpace(filter.CategorySlug); slug != "" {
		sub := s.db.Model(&db.Category{}).Select("id").Where("slug = ?", slug)
		query = query.Where("posts.category_id IN (?)", sub)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(posts.title) LIKE ? OR LOWER(posts.excerpt) LIKE ?)", pattern, pattern)
	}
	return query
}
