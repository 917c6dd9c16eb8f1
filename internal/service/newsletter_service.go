package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/logger"
	"github.com/inkpress/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultNewsletterBatchSize 是邮件通道单次调用允许的收件人上限。
const DefaultNewsletterBatchSize = 50

const (
	msgAlreadySubscribed = "You're already subscribed!"
	msgCheckEmail        = "Check your email to confirm your subscription."
	msgSubscribed        = "You're subscribed! Welcome aboard 🎉"
	msgNoSubscribers     = "No subscribers yet."
)

// NewsletterOptions 控制群发与订阅行为。
type NewsletterOptions struct {
	BatchSize   int
	AutoConfirm bool
	Site        EmailSite
}

// DispatchResult 是一次群发的统计，Sent+Failed 恒等于 Total。
type DispatchResult struct {
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// SubscribeResult 描述订阅请求的结果。
type SubscribeResult struct {
	Created bool   `json:"-"`
	Message string `json:"message"`
}

// NewsletterService 处理订阅者管理与新文章群发。
type NewsletterService struct {
	db       *gorm.DB
	mailer   Mailer
	settings *SettingsService
	opts     NewsletterOptions
	now      func() time.Time
}

// NewNewsletterService 构造 NewsletterService，settings 可以为 nil。
func NewNewsletterService(gdb *gorm.DB, mailer Mailer, settings *SettingsService, opts NewsletterOptions) *NewsletterService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultNewsletterBatchSize
	}
	return &NewsletterService{db: gdb, mailer: mailer, settings: settings, opts: opts, now: time.Now}
}

func (s *NewsletterService) site(ctx context.Context) EmailSite {
	if s.settings == nil {
		return s.opts.Site
	}
	return s.settings.Site(ctx, s.opts.Site)
}

// Dispatch 将已发布文章的通知按批次依次发给所有已确认订阅者。
// 单个批次失败只计入 failed，不会中断后续批次。
func (s *NewsletterService) Dispatch(ctx context.Context, postID uint) (DispatchResult, error) {
	// 一旦开始发送就跑完全部批次，不受调用方取消影响。
	ctx = context.WithoutCancel(ctx)

	var post db.Post
	if err := s.db.WithContext(ctx).Preload("Category").Preload("Author").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DispatchResult{}, ErrPostNotFound
		}
		return DispatchResult{}, fmt.Errorf("load post: %w", err)
	}
	if !post.IsPublished() {
		return DispatchResult{}, ErrPostNotPublished
	}

	var subscribers []db.NewsletterSubscriber
	if err := s.db.WithContext(ctx).
		Select("id", "email", "name").
		Where("confirmed = ?", true).
		Order("id ASC").
		Find(&subscribers).Error; err != nil {
		return DispatchResult{}, fmt.Errorf("list subscribers: %w", err)
	}

	if len(subscribers) == 0 {
		return DispatchResult{Message: msgNoSubscribers}, nil
	}

	html, err := RenderNewPostEmail(s.site(ctx), post)
	if err != nil {
		return DispatchResult{}, err
	}

	emails := make([]string, 0, len(subscribers))
	for _, sub := range subscribers {
		emails = append(emails, sub.Email)
	}

	result := DispatchResult{Total: len(emails)}
	subject := "New: " + post.Title
	for _, batch := range chunkStrings(emails, s.opts.BatchSize) {
		if err := s.send(ctx, EmailMessage{To: batch, Subject: subject, HTML: html}); err != nil {
			logger.Warn("newsletter batch failed",
				zap.Uint("post_id", post.ID),
				zap.Int("recipients", len(batch)),
				zap.Error(err))
			result.Failed += len(batch)
			metrics.NewsletterBatches.WithLabelValues("failed").Inc()
			metrics.NewsletterRecipients.WithLabelValues("failed").Add(float64(len(batch)))
			continue
		}
		result.Sent += len(batch)
		metrics.NewsletterBatches.WithLabelValues("sent").Inc()
		metrics.NewsletterRecipients.WithLabelValues("sent").Add(float64(len(batch)))
	}

	suffix := "s"
	if result.Sent == 1 {
		suffix = ""
	}
	result.Message = fmt.Sprintf("Email sent to %d subscriber%s.", result.Sent, suffix)

	logger.Info("newsletter dispatched",
		zap.Uint("post_id", post.ID),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *NewsletterService) send(ctx context.Context, msg EmailMessage) error {
	if s.mailer == nil {
		return ErrMailerNotConfigured
	}
	return s.mailer.Send(ctx, msg)
}

// chunkStrings 按 size 切分，最后一批可能不足 size。
func chunkStrings(items []string, size int) [][]string {
	if size <= 0 {
		size = DefaultNewsletterBatchSize
	}
	batches := make([][]string, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}

// NormalizeEmail 校验并规范化邮箱地址。
func NormalizeEmail(raw string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return "", validationError("email is required")
	}
	if err := validate.Var(trimmed, "email"); err != nil {
		return "", validationError("invalid email")
	}
	return trimmed, nil
}

// Subscribe 登记新的订阅者；已存在的地址不会重复创建。
// 欢迎邮件是尽力而为的，发送失败只记录日志。
func (s *NewsletterService) Subscribe(ctx context.Context, email, name string) (SubscribeResult, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return SubscribeResult{}, err
	}
	name = strings.TrimSpace(name)

	var existing db.NewsletterSubscriber
	err = s.db.WithContext(ctx).Where("email = ?", normalized).First(&existing).Error
	switch {
	case err == nil:
		if existing.Confirmed {
			return SubscribeResult{Message: msgAlreadySubscribed}, nil
		}
		return SubscribeResult{Message: msgCheckEmail}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return SubscribeResult{}, fmt.Errorf("lookup subscriber: %w", err)
	}

	sub := db.NewsletterSubscriber{
		Email:     normalized,
		Name:      name,
		Token:     uuid.NewString(),
		Confirmed: s.opts.AutoConfirm,
	}
	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		return SubscribeResult{}, fmt.Errorf("create subscriber: %w", err)
	}

	site := s.site(ctx)
	html, err := RenderWelcomeEmail(site, name)
	if err == nil {
		err = s.send(ctx, EmailMessage{To: []string{normalized}, Subject: fmt.Sprintf("Welcome to %s!", site.Name), HTML: html})
	}
	if err != nil {
		logger.Warn("welcome email failed", zap.String("email", normalized), zap.Error(err))
	}

	if !sub.Confirmed {
		return SubscribeResult{Created: true, Message: msgCheckEmail}, nil
	}
	return SubscribeResult{Created: true, Message: msgSubscribed}, nil
}

// Confirm 通过订阅令牌确认订阅。
func (s *NewsletterService) Confirm(ctx context.Context, token string) (*db.NewsletterSubscriber, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrSubscriberNotFound
	}

	var sub db.NewsletterSubscriber
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriberNotFound
		}
		return nil, fmt.Errorf("lookup subscriber: %w", err)
	}
	if sub.Confirmed {
		return &sub, nil
	}

	if err := s.db.WithContext(ctx).Model(&sub).Update("confirmed", true).Error; err != nil {
		return nil, fmt.Errorf("confirm subscriber: %w", err)
	}
	sub.Confirmed = true
	return &sub, nil
}

// ExportFilename 返回导出文件名 subscribers-YYYY-MM-DD.csv。
func (s *NewsletterService) ExportFilename() string {
	return fmt.Sprintf("subscribers-%s.csv", s.now().UTC().Format(dayKeyLayout))
}

// ExportCSV 以创建时间倒序写出全部订阅者。
func (s *NewsletterService) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	var subscribers []db.NewsletterSubscriber
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&subscribers).Error; err != nil {
		return 0, fmt.Errorf("list subscribers: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Email", "Name", "Confirmed", "Subscribed"}); err != nil {
		return 0, err
	}
	for _, sub := range subscribers {
		record := []string{
			sub.Email,
			sub.Name,
			strconv.FormatBool(sub.Confirmed),
			sub.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(subscribers), cw.Error()
}

// SendTest 向指定地址发送一封测试欢迎邮件，通道失败直接返回错误。
func (s *NewsletterService) SendTest(ctx context.Context, email string) error {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return err
	}

	site := s.site(ctx)
	site.Description = "This is a test email to verify your Resend integration is working."
	html, err := RenderWelcomeEmail(site, "Test User")
	if err != nil {
		return err
	}
	return s.send(ctx, EmailMessage{
		To:      []string{normalized},
		Subject: fmt.Sprintf("[TEST] Welcome to %s!", site.Name),
		HTML:    html,
	})
}

// ClearSubscribers 删除全部订阅者并返回删除条数。
func (s *NewsletterService) ClearSubscribers(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("1 = 1").Delete(&db.NewsletterSubscriber{})
	if res.Error != nil {
		return 0, fmt.Errorf("clear subscribers: %w", res.Error)
	}
	return res.RowsAffected, nil
}
