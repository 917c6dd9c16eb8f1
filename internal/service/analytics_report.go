package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/logger"
	"github.com/inkpress/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultReportRange = 30
	MaxReportRange     = 3650

	topPostsLimit     = 10
	recentPostsLimit  = 5
	topAffiliateLimit = 10
	unlabeledLinkKey  = "(unlabeled)"
)

// AnalyticsOverview 是报表顶部的计数卡片。
type AnalyticsOverview struct {
	TotalPosts           int64 `json:"totalPosts"`
	PublishedPosts       int64 `json:"publishedPosts"`
	DraftPosts           int64 `json:"draftPosts"`
	TotalViews           int64 `json:"totalViews"`
	TotalSubscribers     int64 `json:"totalSubscribers"`
	ConfirmedSubscribers int64 `json:"confirmedSubscribers"`
	RecentSubscribers    int64 `json:"recentSubscribers"`
	TotalAffiliateClicks int64 `json:"totalAffiliateClicks"`
	TotalAuthors         int64 `json:"totalAuthors"`
}

// ReportCategory 是报表中引用的分类摘要。
type ReportCategory struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}

// ReportAuthor 是报表中引用的作者摘要。
type ReportAuthor struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// ReportPost 是报表中的文章行。
type ReportPost struct {
	ID          uint            `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Status      string          `json:"status"`
	Views       int64           `json:"views"`
	PublishedAt *time.Time      `json:"publishedAt"`
	CreatedAt   time.Time       `json:"createdAt"`
	Category    *ReportCategory `json:"category"`
	Author      ReportAuthor    `json:"author"`
}

// CategoryViews 是单个分类的浏览量汇总，只统计已发布文章。
type CategoryViews struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
	Views int64  `json:"views"`
	Posts int64  `json:"posts"`
}

// AffiliateLinkClicks 是按标签（缺失时按 URL）分组的点击数。
type AffiliateLinkClicks struct {
	Label  string `json:"label"`
	Clicks int64  `json:"clicks"`
}

// AnalyticsReport 是后台分析接口返回的完整报表。
type AnalyticsReport struct {
	Range             int                   `json:"range"`
	Since             time.Time             `json:"since"`
	Overview          AnalyticsOverview     `json:"overview"`
	TopPosts          []ReportPost          `json:"topPosts"`
	ViewsByCategory   []CategoryViews       `json:"viewsByCategory"`
	TimeSeries        []DayBucket           `json:"timeSeries"`
	TopAffiliateLinks []AffiliateLinkClicks `json:"topAffiliateLinks"`
	RecentPosts       []ReportPost          `json:"recentPosts"`
}

// ParseReportRange 解析 ?range= 参数：缺失、非整数或非正数时取 30，上限 MaxReportRange（约十年）。
func ParseReportRange(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return DefaultReportRange
	}
	if n > MaxReportRange {
		return MaxReportRange
	}
	return n
}

// Report 并发执行所有独立查询并组装报表；任一查询失败时整体返回 ErrAggregationFailed。
func (s *AnalyticsService) Report(ctx context.Context, days int) (*AnalyticsReport, error) {
	if days <= 0 {
		days = DefaultReportRange
	}
	if days > MaxReportRange {
		days = MaxReportRange
	}

	started := time.Now()
	defer func() { metrics.ReportDuration.Observe(time.Since(started).Seconds()) }()

	now := s.now().UTC()
	buckets := BuildDayBuckets(now, days)
	since := startOfDay(now).AddDate(0, 0, -(days - 1))

	report := &AnalyticsReport{
		Range:             days,
		Since:             since,
		TopPosts:          []ReportPost{},
		ViewsByCategory:   []CategoryViews{},
		TimeSeries:        buckets,
		TopAffiliateLinks: []AffiliateLinkClicks{},
		RecentPosts:       []ReportPost{},
	}

	var (
		subscriberTimes []time.Time
		clicks          []db.AffiliateClick
	)

	g, gctx := errgroup.WithContext(ctx)
	q := s.db.WithContext(gctx)
	ov := &report.Overview

	g.Go(func() error { return q.Model(&db.Post{}).Count(&ov.TotalPosts).Error })
	g.Go(func() error {
		return q.Model(&db.Post{}).Where("status = ?", db.PostStatusPublished).Count(&ov.PublishedPosts).Error
	})
	g.Go(func() error {
		return q.Model(&db.Post{}).Where("status = ?", db.PostStatusDraft).Count(&ov.DraftPosts).Error
	})
	g.Go(func() error {
		var totals struct{ Views int64 }
		if err := q.Model(&db.Post{}).Select("COALESCE(SUM(views), 0) AS views").Scan(&totals).Error; err != nil {
			return err
		}
		ov.TotalViews = totals.Views
		return nil
	})
	g.Go(func() error { return q.Model(&db.NewsletterSubscriber{}).Count(&ov.TotalSubscribers).Error })
	g.Go(func() error {
		return q.Model(&db.NewsletterSubscriber{}).Where("confirmed = ?", true).Count(&ov.ConfirmedSubscribers).Error
	})
	g.Go(func() error { return q.Model(&db.AffiliateClick{}).Count(&ov.TotalAffiliateClicks).Error })
	g.Go(func() error { return q.Model(&db.User{}).Count(&ov.TotalAuthors).Error })

	g.Go(func() error {
		var posts []db.Post
		if err := q.Preload("Category").Preload("Author").
			Where("status = ?", db.PostStatusPublished).
			Order("views DESC, id ASC").
			Limit(topPostsLimit).
			Find(&posts).Error; err != nil {
			return err
		}
		report.TopPosts = toReportPosts(posts)
		return nil
	})
	g.Go(func() error {
		var posts []db.Post
		if err := q.Preload("Category").Preload("Author").
			Order("created_at DESC, id DESC").
			Limit(recentPostsLimit).
			Find(&posts).Error; err != nil {
			return err
		}
		report.RecentPosts = toReportPosts(posts)
		return nil
	})
	g.Go(func() error {
		views, err := s.viewsByCategory(gctx)
		if err != nil {
			return err
		}
		report.ViewsByCategory = views
		return nil
	})
	g.Go(func() error {
		var subs []db.NewsletterSubscriber
		if err := q.Select("created_at").
			Where("created_at >= ? AND created_at <= ?", since, now).
			Find(&subs).Error; err != nil {
			return err
		}
		subscriberTimes = make([]time.Time, 0, len(subs))
		for _, sub := range subs {
			subscriberTimes = append(subscriberTimes, sub.CreatedAt)
		}
		return nil
	})
	g.Go(func() error {
		return q.Select("url", "label", "created_at").
			Where("created_at >= ? AND created_at <= ?", since, now).
			Find(&clicks).Error
	})

	if err := g.Wait(); err != nil {
		logger.Error("analytics report failed", zap.Int("range", days), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrAggregationFailed, err)
	}

	clickTimes := make([]time.Time, 0, len(clicks))
	for _, c := range clicks {
		clickTimes = append(clickTimes, c.CreatedAt)
	}
	foldDayBuckets(report.TimeSeries, since, now, subscriberTimes, clickTimes)
	report.Overview.RecentSubscribers = int64(len(subscriberTimes))
	report.TopAffiliateLinks = rankAffiliateLinks(clicks, topAffiliateLimit)

	return report, nil
}

// viewsByCategory 返回每个分类的一行，没有已发布文章的分类记为 0。
func (s *AnalyticsService) viewsByCategory(ctx context.Context) ([]CategoryViews, error) {
	q := s.db.WithContext(ctx)

	var categories []db.Category
	if err := q.Order("id ASC").Find(&categories).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		CategoryID uint
		Views      int64
		Posts      int64
	}
	if err := q.Model(&db.Post{}).
		Select("category_id, COALESCE(SUM(views), 0) AS views, COUNT(*) AS posts").
		Where("status = ? AND category_id IS NOT NULL", db.PostStatusPublished).
		Group("category_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	rollup := make(map[uint]int, len(rows))
	for i, row := range rows {
		rollup[row.CategoryID] = i
	}

	result := make([]CategoryViews, 0, len(categories))
	for _, c := range categories {
		item := CategoryViews{ID: c.ID, Name: c.Name, Slug: c.Slug, Color: c.Color, Icon: c.Icon}
		if i, ok := rollup[c.ID]; ok {
			item.Views = rows[i].Views
			item.Posts = rows[i].Posts
		}
		result = append(result, item)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Views != result[j].Views {
			return result[i].Views > result[j].Views
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func rankAffiliateLinks(clicks []db.AffiliateClick, limit int) []AffiliateLinkClicks {
	counts := make(map[string]int64)
	for _, c := range clicks {
		key := strings.TrimSpace(c.Label)
		if key == "" {
			key = strings.TrimSpace(c.URL)
		}
		if key == "" {
			key = unlabeledLinkKey
		}
		counts[key]++
	}

	ranked := make([]AffiliateLinkClicks, 0, len(counts))
	for label, n := range counts {
		ranked = append(ranked, AffiliateLinkClicks{Label: label, Clicks: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Clicks != ranked[j].Clicks {
			return ranked[i].Clicks > ranked[j].Clicks
		}
		return ranked[i].Label < ranked[j].Label
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func toReportPosts(posts []db.Post) []ReportPost {
	result := make([]ReportPost, 0, len(posts))
	for _, p := range posts {
		item := ReportPost{
			ID:          p.ID,
			Title:       p.Title,
			Slug:        p.Slug,
			Status:      p.Status,
			Views:       p.Views,
			PublishedAt: p.PublishedAt,
			CreatedAt:   p.CreatedAt,
			Author:      ReportAuthor{ID: p.Author.ID, Name: p.Author.Name},
		}
		if p.Category != nil {
			item.Category = &ReportCategory{ID: p.Category.ID, Name: p.Category.Name, Slug: p.Category.Slug, Color: p.Category.Color}
		}
		result = append(result, item)
	}
	return result
}
