package service

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/inkpress/internal/logger"
	"go.uber.org/zap"
)

var contactTemplate = template.Must(template.New("contact").Parse(
	`<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Subject:</strong> {{.Subject}}</p>
<p><strong>Message:</strong></p>
<p>{{range $i, $line := .Lines}}{{if $i}}<br/>{{end}}{{$line}}{{end}}</p>`))

// ContactInput 是联系表单提交的内容。
type ContactInput struct {
	Name    string `json:"name" validate:"min=2"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"oneof=general advertising partnership press other"`
	Message string `json:"message" validate:"min=10"`
}

// ContactService 把联系表单转发到站长邮箱。
type ContactService struct {
	mailer Mailer
	to     string
}

// NewContactService 构造 ContactService，to 为空时只记录日志。
func NewContactService(mailer Mailer, to string) *ContactService {
	return &ContactService{mailer: mailer, to: strings.TrimSpace(to)}
}

// Submit 校验表单并发送邮件，回复地址设为提交者邮箱。
func (s *ContactService) Submit(ctx context.Context, in ContactInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Subject = strings.ToLower(strings.TrimSpace(in.Subject))
	in.Message = strings.TrimSpace(in.Message)
	if err := validateInput(in); err != nil {
		return err
	}
	name, email, subject, message := in.Name, in.Email, in.Subject, in.Message

	logger.Info("contact form submitted", zap.String("email", email), zap.String("subject", subject))
	if s.to == "" || s.mailer == nil {
		return nil
	}

	var body strings.Builder
	if err := contactTemplate.Execute(&body, map[string]interface{}{
		"Name":    name,
		"Email":   email,
		"Subject": subject,
		"Lines":   strings.Split(message, "\n"),
	}); err != nil {
		return fmt.Errorf("render contact email: %w", err)
	}

	return s.mailer.Send(ctx, EmailMessage{
		To:      []string{s.to},
		Subject: fmt.Sprintf("[Contact] %s from %s", subject, name),
		HTML:    body.String(),
		ReplyTo: email,
	})
}
