package service

import (
	"context"
	"errors"
	"time"

	"github.com/inkpress/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultViewDedupWindow = 30 * time.Minute

// AnalyticsService 负责文章浏览计数以及后台分析报表。
type AnalyticsService struct {
	db          *gorm.DB
	dedupWindow time.Duration
	now         func() time.Time
}

// NewAnalyticsService 创建 AnalyticsService，默认去重窗口为 30 分钟。
func NewAnalyticsService(gdb *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: gdb, dedupWindow: defaultViewDedupWindow, now: time.Now}
}

// WithDedupWindow 允许在测试或特定场景下调整去重窗口。
func (s *AnalyticsService) WithDedupWindow(d time.Duration) *AnalyticsService {
	if d <= 0 {
		return s
	}
	s.dedupWindow = d
	return s
}

// WithClock 替换报表使用的时钟。
func (s *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	if now != nil {
		s.now = now
	}
	return s
}

// RecordPostView 记录访客对文章的浏览。同一访客在去重窗口内的重复浏览不会增加 posts.views，
// 返回值表示本次是否计数。
func (s *AnalyticsService) RecordPostView(postID uint, visitorID string, now time.Time) (bool, error) {
	if visitorID == "" || postID == 0 {
		return false, errors.New("invalid visitor or post id")
	}

	counted := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		visit := db.PostVisit{
			PostID:        postID,
			VisitorID:     visitorID,
			LastViewedAt:  now,
			LastCountedAt: now,
		}
		insert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "visitor_id"}},
			DoNothing: true,
		}).Create(&visit)
		if insert.Error != nil {
			return insert.Error
		}

		counted = insert.RowsAffected == 1
		if !counted {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("post_id = ? AND visitor_id = ?", postID, visitorID).
				First(&visit).Error; err != nil {
				return err
			}
			visit.LastViewedAt = now
			if now.Sub(visit.LastCountedAt) >= s.dedupWindow {
				visit.LastCountedAt = now
				counted = true
			}
			if err := tx.Save(&visit).Error; err != nil {
				return err
			}
		}

		if !counted {
			return nil
		}
		return tx.Model(&db.Post{}).
			Where("id = ?", postID).
			UpdateColumn("views", gorm.Expr("views + 1")).Error
	})
	if err != nil {
		return false, err
	}
	return counted, nil
}

// ClearAnalytics 在一个事务内删除全部页面浏览记录、访客去重记录，并把文章浏览数归零。
// 返回被删除的页面浏览条数。
func (s *AnalyticsService) ClearAnalytics(ctx context.Context) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("1 = 1").Delete(&db.PageView{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected

		if err := tx.Where("1 = 1").Delete(&db.PostVisit{}).Error; err != nil {
			return err
		}
		return tx.Model(&db.Post{}).Where("views <> ?", 0).UpdateColumn("views", 0).Error
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
