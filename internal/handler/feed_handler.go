package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"
	"github.com/snabb/sitemap"
)

const (
	feedItemLimit   = 20
	xmlContentType  = "application/xml; charset=utf-8"
	feedLanguage    = "en-us"
	feedCacheHeader = "s-maxage=3600, stale-while-revalidate"
)

// Feed 输出最近 20 篇已发布文章的 RSS 2.0。
func (a *API) Feed(c *gin.Context) {
	ctx := c.Request.Context()
	posts, err := a.posts.ListPublished(ctx, feedItemLimit)
	if err != nil {
		respondServiceError(c, err, "failed to build feed")
		return
	}
	site := a.settings.Site(ctx, a.site)

	feed := &feeds.Feed{
		Title:       site.Name,
		Link:        &feeds.Link{Href: site.URL},
		Description: site.Description,
		Items:       make([]*feeds.Item, 0, len(posts)),
	}
	if host := site.Host(); host != "" {
		feed.Author = &feeds.Author{Email: "hello@" + host}
	}

	categories := make([]string, 0, len(posts))
	for _, post := range posts {
		link := fmt.Sprintf("%s/blog/%s", site.URL, post.Slug)
		published := time.Now().UTC()
		if post.PublishedAt != nil {
			published = post.PublishedAt.UTC()
		}
		item := &feeds.Item{
			Title:       post.Title,
			Link:        &feeds.Link{Href: link},
			Id:          link,
			Description: post.Excerpt,
			Created:     published,
		}
		if post.Author.Email != "" {
			item.Author = &feeds.Author{Name: post.Author.Name, Email: post.Author.Email}
		}
		category := ""
		if post.Category != nil {
			category = post.Category.Name
		}
		feed.Items = append(feed.Items, item)
		categories = append(categories, category)
	}

	rss := (&feeds.Rss{Feed: feed}).RssFeed()
	rss.Language = feedLanguage
	for i, item := range rss.Items {
		item.Category = categories[i]
	}

	body, err := feeds.ToXML(rss)
	if err != nil {
		respondServiceError(c, err, "failed to encode feed")
		return
	}
	c.Header("Cache-Control", feedCacheHeader)
	c.Data(http.StatusOK, xmlContentType, []byte(body))
}

// Sitemap 输出首页、内容页、分类与已发布文章的站点地图。
func (a *API) Sitemap(c *gin.Context) {
	ctx := c.Request.Context()
	posts, err := a.posts.ListPublished(ctx, 0)
	if err != nil {
		respondServiceError(c, err, "failed to build sitemap")
		return
	}
	categories, err := a.categories.List(ctx)
	if err != nil {
		respondServiceError(c, err, "failed to build sitemap")
		return
	}
	site := a.settings.Site(ctx, a.site)
	today := time.Now().UTC().Truncate(24 * time.Hour)

	sm := sitemap.New()
	sm.Add(&sitemap.URL{Loc: site.URL, LastMod: &today, ChangeFreq: sitemap.Daily, Priority: 1.0})
	sm.Add(&sitemap.URL{Loc: site.URL + "/about", LastMod: &today, ChangeFreq: sitemap.Monthly, Priority: 0.5})
	sm.Add(&sitemap.URL{Loc: site.URL + "/search", LastMod: &today, ChangeFreq: sitemap.Weekly, Priority: 0.4})
	for _, category := range categories {
		sm.Add(&sitemap.URL{
			Loc:        fmt.Sprintf("%s/category/%s", site.URL, category.Slug),
			ChangeFreq: sitemap.Weekly,
			Priority:   0.7,
		})
	}
	for _, post := range posts {
		updated := post.UpdatedAt.UTC()
		sm.Add(&sitemap.URL{
			Loc:        fmt.Sprintf("%s/blog/%s", site.URL, post.Slug),
			LastMod:    &updated,
			ChangeFreq: sitemap.Monthly,
			Priority:   0.8,
		})
	}

	var buf bytes.Buffer
	if _, err := sm.WriteTo(&buf); err != nil {
		respondServiceError(c, err, "failed to encode sitemap")
		return
	}
	c.Data(http.StatusOK, xmlContentType, buf.Bytes())
}

// Robots 输出 robots.txt，屏蔽后台与 API 路径。
func (a *API) Robots(c *gin.Context) {
	site := a.settings.Site(c.Request.Context(), a.site)
	lines := []string{
		"User-agent: *",
		"Allow: /",
		"Disallow: /admin/",
		"Disallow: /api/",
		"",
		"Sitemap: " + site.URL + "/sitemap.xml",
		"Host: " + site.URL,
	}
	c.String(http.StatusOK, strings.Join(lines, "\n")+"\n")
}
