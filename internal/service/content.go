package service

import (
	"bytes"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

const (
	excerptLength  = 160
	wordsPerMinute = 200
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps(), gmhtml.WithXHTML(), gmhtml.WithUnsafe()),
	)
	ugcPolicy   = bluemonday.UGCPolicy()
	stripPolicy = bluemonday.StrictPolicy()
)

// RenderContent 将正文渲染为经过净化的 HTML。正文既可以是 Markdown 也可以是编辑器产出的 HTML。
func RenderContent(content string) (string, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return ugcPolicy.Sanitize(buf.String()), nil
}

// PlainText 去除所有标签并压缩空白。
func PlainText(content string) string {
	text := html.UnescapeString(stripPolicy.Sanitize(content))
	return strings.Join(strings.Fields(text), " ")
}

// GenerateExcerpt 截取纯文本的前 160 个字符，超出时追加省略号。
func GenerateExcerpt(content string) string {
	text := PlainText(content)
	if utf8.RuneCountInString(text) <= excerptLength {
		return text
	}
	r := []rune(text)
	return strings.TrimSpace(string(r[:excerptLength])) + "..."
}

// ReadingTime 按每分钟 200 词估算阅读时长，非空内容至少 1 分钟。
func ReadingTime(content string) int {
	words := len(strings.Fields(PlainText(content)))
	if words == 0 {
		return 0
	}
	return (words + wordsPerMinute - 1) / wordsPerMinute
}
