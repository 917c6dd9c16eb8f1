package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultResendBaseURL = "https://api.resend.com"

// ErrMailerNotConfigured 表示没有可用的 Resend API Key。
var ErrMailerNotConfigured = errors.New("email transport is not configured")

// EmailMessage 是一次发送请求，To 可以包含多个收件人。
type EmailMessage struct {
	To      []string
	Subject string
	HTML    string
	ReplyTo string
}

// Mailer 抽象邮件通道；一次 Send 对应一次通道调用。
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ResendConfig 是环境变量提供的兜底配置，设置表中的值优先。
type ResendConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	BaseURL   string
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

type resendError struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

// ResendMailer 通过 Resend HTTP API 发送邮件。
type ResendMailer struct {
	settings *SettingsService
	fallback ResendConfig
	http     httpDoer
	baseURL  string
}

// NewResendMailer 构造 ResendMailer，settings 可以为 nil。
func NewResendMailer(settings *SettingsService, fallback ResendConfig) *ResendMailer {
	base := strings.TrimRight(strings.TrimSpace(fallback.BaseURL), "/")
	if base == "" {
		base = defaultResendBaseURL
	}
	return &ResendMailer{
		settings: settings,
		fallback: fallback,
		http:     &http.Client{Timeout: 20 * time.Second},
		baseURL:  base,
	}
}

func (m *ResendMailer) sender(ctx context.Context) (apiKey, from string, err error) {
	apiKey = strings.TrimSpace(m.fallback.APIKey)
	email := strings.TrimSpace(m.fallback.FromEmail)
	name := strings.TrimSpace(m.fallback.FromName)

	if m.settings != nil {
		settings, err := m.settings.Load(ctx)
		if err != nil {
			return "", "", err
		}
		if v := strings.TrimSpace(settings.ResendAPIKey); v != "" {
			apiKey = v
		}
		if v := strings.TrimSpace(settings.FromEmail); v != "" {
			email = v
		}
		if v := strings.TrimSpace(settings.SiteName); v != "" {
			name = v
		}
	}

	if apiKey == "" {
		return "", "", ErrMailerNotConfigured
	}
	if email == "" {
		email = "newsletter@localhost"
	}
	if name == "" {
		return apiKey, email, nil
	}
	return apiKey, fmt.Sprintf("%s <%s>", name, email), nil
}

// Send 发起一次 Resend 调用，非 2xx 响应视为失败。
func (m *ResendMailer) Send(ctx context.Context, msg EmailMessage) error {
	if len(msg.To) == 0 {
		return errors.New("email has no recipients")
	}

	apiKey, from, err := m.sender(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(resendRequest{
		From:    from,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		ReplyTo: strings.TrimSpace(msg.ReplyTo),
	})
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build resend request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "inkpress/1.0")

	client := m.http
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("call resend: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr resendError
		msg := resp.Status
		if json.Unmarshal(respBody, &apiErr) == nil && strings.TrimSpace(apiErr.Message) != "" {
			msg = apiErr.Message
		}
		return fmt.Errorf("resend returned %d: %s", resp.StatusCode, msg)
	}
	return nil
}
