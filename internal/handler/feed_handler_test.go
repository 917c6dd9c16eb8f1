package handler

import (
	"encoding/xml"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/inkpress/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedDocument struct {
	Channel struct {
		Title          string `xml:"title"`
		Language       string `xml:"language"`
		ManagingEditor string `xml:"managingEditor"`
		Items          []struct {
			Link     string `xml:"link"`
			GUID     string `xml:"guid"`
			Author   string `xml:"author"`
			Category string `xml:"category"`
			PubDate  string `xml:"pubDate"`
		} `xml:"item"`
	} `xml:"channel"`
}

type sitemapDocument struct {
	URLs []struct {
		Loc        string `xml:"loc"`
		LastMod    string `xml:"lastmod"`
		ChangeFreq string `xml:"changefreq"`
		Priority   string `xml:"priority"`
	} `xml:"url"`
}

func TestFeedListsPublishedPosts(t *testing.T) {
	env := newTestEnv(t, nil)
	author := env.createUser(t, "Ada", "ada@example.com", "password123", db.RoleAuthor)
	category := db.Category{Name: "Travel", Slug: "travel"}
	require.NoError(t, env.db.Create(&category).Error)

	published := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	env.createPost(t, db.Post{Title: "Kyoto on a Budget", Excerpt: "Temples and trains", Content: "x", Status: db.PostStatusPublished, AuthorID: author.ID, CategoryID: &category.ID, PublishedAt: &published})
	env.createPost(t, db.Post{Title: "Unfinished", Content: "x", AuthorID: author.ID})

	env.engine.GET("/feed.xml", env.api.Feed)

	w := doRequest(env.engine, http.MethodGet, "/feed.xml", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "<?xml"))
	assert.Contains(t, w.Header().Get("Content-Type"), "application/xml")

	assert.Equal(t, "s-maxage=3600, stale-while-revalidate", w.Header().Get("Cache-Control"))

	var feed feedDocument
	require.NoError(t, xml.Unmarshal(w.Body.Bytes(), &feed))
	assert.Equal(t, "Test Blog", feed.Channel.Title)
	assert.Equal(t, "en-us", feed.Channel.Language)
	assert.Equal(t, "hello@blog.example.com", feed.Channel.ManagingEditor)
	require.Len(t, feed.Channel.Items, 1)

	item := feed.Channel.Items[0]
	assert.Equal(t, "https://blog.example.com/blog/kyoto-on-a-budget", item.Link)
	assert.Equal(t, item.Link, item.GUID)
	assert.Equal(t, "ada@example.com (Ada)", item.Author)
	assert.Equal(t, "Travel", item.Category)
	assert.Equal(t, published.Format(time.RFC1123Z), item.PubDate)
}

func TestSitemapAndRobots(t *testing.T) {
	env := newTestEnv(t, nil)
	author := env.createUser(t, "Ada", "ada@example.com", "password123", db.RoleAuthor)
	require.NoError(t, env.db.Create(&db.Category{Name: "Food", Slug: "food"}).Error)
	now := time.Now().UTC()
	env.createPost(t, db.Post{Title: "Street Food", Content: "x", Status: db.PostStatusPublished, AuthorID: author.ID, PublishedAt: &now})

	env.engine.GET("/sitemap.xml", env.api.Sitemap)
	env.engine.GET("/robots.txt", env.api.Robots)

	w := doRequest(env.engine, http.MethodGet, "/sitemap.xml", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.True(t, strings.HasPrefix(w.Body.String(), "<?xml"))
	assert.Contains(t, w.Body.String(), "http://www.sitemaps.org/schemas/sitemap/0.9")

	var set sitemapDocument
	require.NoError(t, xml.Unmarshal(w.Body.Bytes(), &set))
	freqs := make(map[string]string, len(set.URLs))
	for _, u := range set.URLs {
		freqs[u.Loc] = u.ChangeFreq
	}
	assert.Equal(t, "daily", freqs["https://blog.example.com"])
	assert.Equal(t, "weekly", freqs["https://blog.example.com/category/food"])
	assert.Equal(t, "monthly", freqs["https://blog.example.com/blog/street-food"])

	robots := doRequest(env.engine, http.MethodGet, "/robots.txt", nil, nil)
	require.Equal(t, http.StatusOK, robots.Code)
	assert.Contains(t, robots.Body.String(), "Disallow: /api/")
	assert.Contains(t, robots.Body.String(), "Sitemap: https://blog.example.com/sitemap.xml")
}
