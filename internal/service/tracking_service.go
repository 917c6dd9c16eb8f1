package service

import (
	"context"
	"strings"

	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/logger"
	"github.com/inkpress/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	trackKindAffiliate = "affiliate_click"
	trackKindPageView  = "page_view"
)

// AffiliateClickInput 是一次联盟链接点击。
type AffiliateClickInput struct {
	URL    string `json:"url" validate:"required,max=2048"`
	Label  string `json:"label"`
	PostID *uint  `json:"postId"`
	IP     string `json:"-"`
}

// PageViewInput 是一次页面浏览。
type PageViewInput struct {
	Path      string `json:"path" validate:"required,max=2048"`
	PostID    *uint  `json:"postId"`
	Referrer  string `json:"referrer"`
	UserAgent string `json:"-"`
	Country   string `json:"-"`
}

// TrackingService 写入埋点事件。所有写入都是尽力而为，失败只记录日志与指标。
type TrackingService struct {
	db *gorm.DB
}

// NewTrackingService 构造 TrackingService。
func NewTrackingService(gdb *gorm.DB) *TrackingService {
	return &TrackingService{db: gdb}
}

// DetectDevice 通过 User-Agent 子串粗略判断设备类型。
func DetectDevice(userAgent string) string {
	ua := strings.ToLower(userAgent)
	for _, marker := range []string{"mobile", "android", "iphone", "ipad"} {
		if strings.Contains(ua, marker) {
			return db.DeviceMobile
		}
	}
	if strings.Contains(ua, "tablet") {
		return db.DeviceTablet
	}
	return db.DeviceDesktop
}

// RecordAffiliateClick 记录一次点击，返回是否真正写入。
func (s *TrackingService) RecordAffiliateClick(ctx context.Context, in AffiliateClickInput) bool {
	in.URL = strings.TrimSpace(in.URL)
	if err := validateInput(in); err != nil {
		metrics.TrackingEvents.WithLabelValues(trackKindAffiliate, "invalid").Inc()
		return false
	}

	click := db.AffiliateClick{
		URL:    in.URL,
		Label:  strings.TrimSpace(in.Label),
		PostID: nonZero(in.PostID),
		IP:     strings.TrimSpace(in.IP),
	}
	return s.record(ctx, trackKindAffiliate, &click)
}

// RecordPageView 记录一次页面浏览，返回是否真正写入。
func (s *TrackingService) RecordPageView(ctx context.Context, in PageViewInput) bool {
	in.Path = strings.TrimSpace(in.Path)
	if err := validateInput(in); err != nil {
		metrics.TrackingEvents.WithLabelValues(trackKindPageView, "invalid").Inc()
		return false
	}

	view := db.PageView{
		Path:     in.Path,
		PostID:   nonZero(in.PostID),
		Device:   DetectDevice(in.UserAgent),
		Country:  strings.ToUpper(strings.TrimSpace(in.Country)),
		Referrer: strings.TrimSpace(in.Referrer),
	}
	return s.record(ctx, trackKindPageView, &view)
}

func (s *TrackingService) record(ctx context.Context, kind string, event interface{}) bool {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		logger.Warn("tracking event dropped", zap.String("kind", kind), zap.Error(err))
		metrics.TrackingEvents.WithLabelValues(kind, "failed").Inc()
		return false
	}
	metrics.TrackingEvents.WithLabelValues(kind, "recorded").Inc()
	return true
}

func nonZero(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	v := *id
	return &v
}
