package service

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/inkpress/internal/db"
)

// EmailSite 是邮件模板中的站点信息。
type EmailSite struct {
	Name        string
	URL         string
	Description string
	Signature   string
}

// Host 返回去掉协议的站点地址，用于页脚展示。
func (s EmailSite) Host() string {
	host := strings.TrimPrefix(s.URL, "https://")
	return strings.TrimPrefix(host, "http://")
}

type welcomeEmailView struct {
	Site      EmailSite
	FirstName string
}

type categoryBadge struct {
	Name  string
	Color string
	Icon  string
}

type newPostEmailView struct {
	Site          EmailSite
	Title         string
	URL           string
	Excerpt       string
	CoverImage    string
	ReadingTime   int
	AuthorName    string
	AuthorInitial string
	Category      *categoryBadge
}

var emailTemplates = template.Must(template.New("email").Parse(`
{{define "layout-start"}}<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8" /><meta name="viewport" content="width=device-width, initial-scale=1.0"/><title>{{.Site.Name}}</title></head>
<body style="margin:0;padding:0;background:#0a0a0a;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;">
<table width="100%" cellpadding="0" cellspacing="0" style="background:#0a0a0a;padding:40px 16px;"><tr><td align="center">
<table width="600" cellpadding="0" cellspacing="0" style="max-width:600px;width:100%;">
<tr><td style="padding-bottom:32px;text-align:center;">
<a href="{{.Site.URL}}" style="text-decoration:none;"><span style="font-size:20px;font-weight:700;color:#ffffff;">{{.Site.Name}}</span></a>
</td></tr>
<tr><td style="background:#161616;border:1px solid #2a2a2a;border-radius:20px;overflow:hidden;">{{end}}

{{define "layout-end"}}</td></tr>
<tr><td style="padding:32px 0 0;text-align:center;">
{{if .Site.Signature}}<p style="margin:0 0 8px;font-size:13px;color:#888;">{{.Site.Signature}}</p>{{end}}
<p style="margin:0 0 8px;font-size:12px;color:#555;">You're receiving this because you subscribed to {{.Site.Name}}.</p>
<p style="margin:0;font-size:12px;color:#444;">
<a href="{{.Site.URL}}/unsubscribe" style="color:#f59e0b;text-decoration:none;">Unsubscribe</a> &nbsp;·&nbsp;
<a href="{{.Site.URL}}/privacy-policy" style="color:#f59e0b;text-decoration:none;">Privacy Policy</a> &nbsp;·&nbsp;
<a href="{{.Site.URL}}" style="color:#f59e0b;text-decoration:none;">{{.Site.Host}}</a>
</p>
</td></tr>
</table>
</td></tr></table>
</body>
</html>{{end}}

{{define "welcome"}}{{template "layout-start" .}}
<div style="padding:48px 40px 32px;text-align:center;">
<h1 style="margin:0 0 16px;font-size:32px;font-weight:800;color:#ffffff;">You're in, {{.FirstName}}!</h1>
<p style="margin:0;font-size:16px;color:#888;line-height:1.6;">{{if .Site.Description}}{{.Site.Description}}{{else}}Thanks for subscribing to {{.Site.Name}}. We're glad you're here.{{end}}</p>
</div>
<div style="padding:0 40px 40px;text-align:center;">
<a href="{{.Site.URL}}" style="display:inline-block;background:#f59e0b;color:#000000;font-weight:700;font-size:15px;text-decoration:none;padding:14px 32px;border-radius:12px;">Read Latest Articles →</a>
<p style="margin:20px 0 0;font-size:13px;color:#555;">You'll receive an email whenever we publish something new.</p>
</div>
{{template "layout-end" .}}{{end}}

{{define "new-post"}}{{template "layout-start" .}}
{{if .CoverImage}}<div style="height:240px;overflow:hidden;border-radius:20px 20px 0 0;"><img src="{{.CoverImage}}" alt="{{.Title}}" style="width:100%;height:100%;object-fit:cover;" /></div>
{{else}}<div style="height:8px;background:#f59e0b;"></div>{{end}}
<div style="padding:40px;">
<div style="margin-bottom:20px;">
<span style="display:inline-block;color:#f59e0b;font-size:11px;font-weight:700;letter-spacing:1px;text-transform:uppercase;padding:5px 12px;border-radius:50px;">New Article</span>
{{with .Category}}<span style="display:inline-block;color:{{.Color}};border:1px solid {{.Color}};font-size:11px;font-weight:600;padding:5px 12px;border-radius:50px;">{{.Icon}} {{.Name}}</span>{{end}}
{{if .ReadingTime}}<span style="font-size:12px;color:#555;">⏱ {{.ReadingTime}} min read</span>{{end}}
</div>
<h1 style="margin:0 0 16px;font-size:26px;font-weight:800;line-height:1.3;"><a href="{{.URL}}" style="color:#ffffff;text-decoration:none;">{{.Title}}</a></h1>
{{if .Excerpt}}<p style="margin:0 0 28px;font-size:15px;color:#888;line-height:1.7;">{{.Excerpt}}</p>{{end}}
<div style="padding:16px;background:#1f1f1f;border-radius:12px;margin-bottom:28px;">
<span style="display:inline-block;width:36px;height:36px;background:#f59e0b;border-radius:50%;text-align:center;line-height:36px;font-weight:700;color:#000;">{{.AuthorInitial}}</span>
<span style="font-size:13px;font-weight:600;color:#ffffff;">{{.AuthorName}}</span>
</div>
<div style="text-align:center;"><a href="{{.URL}}" style="display:inline-block;background:#f59e0b;color:#000000;font-weight:700;font-size:15px;text-decoration:none;padding:14px 36px;border-radius:12px;">Read Full Article →</a></div>
</div>
{{template "layout-end" .}}{{end}}
`))

// RenderWelcomeEmail 渲染订阅欢迎邮件。
func RenderWelcomeEmail(site EmailSite, name string) (string, error) {
	first := "there"
	if fields := strings.Fields(name); len(fields) > 0 {
		first = fields[0]
	}
	return renderEmail("welcome", welcomeEmailView{Site: site, FirstName: first})
}

// RenderNewPostEmail 渲染新文章通知，所有收件人共用同一份正文。
func RenderNewPostEmail(site EmailSite, post db.Post) (string, error) {
	author := strings.TrimSpace(post.Author.Name)
	if author == "" {
		author = "Author"
	}
	initial, _ := utf8.DecodeRuneInString(author)

	view := newPostEmailView{
		Site:          site,
		Title:         post.Title,
		URL:           fmt.Sprintf("%s/blog/%s", site.URL, post.Slug),
		Excerpt:       post.Excerpt,
		CoverImage:    post.CoverImage,
		ReadingTime:   post.ReadingTime,
		AuthorName:    author,
		AuthorInitial: string(unicode.ToUpper(initial)),
	}
	if post.Category != nil {
		color := post.Category.Color
		if color == "" {
			color = DefaultCategoryColor
		}
		view.Category = &categoryBadge{Name: post.Category.Name, Color: color, Icon: post.Category.Icon}
	}
	return renderEmail("new-post", view)
}

func renderEmail(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", name, err)
	}
	return buf.String(), nil
}
