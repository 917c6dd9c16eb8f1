package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/inkpress/internal/auth"
	"github.com/inkpress/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPublicPostCountsOncePerVisitor(t *testing.T) {
	env := newTestEnv(t, nil)
	author := env.createUser(t, "Writer", "writer@example.com", "password123", db.RoleAuthor)
	published := time.Now().UTC()
	post := env.createPost(t, db.Post{
		Title:       "Hello World",
		Content:     "# Hello\n\nSome **bold** words.\n\n<script>alert(1)</script>",
		Status:      db.PostStatusPublished,
		AuthorID:    author.ID,
		PublishedAt: &published,
	})
	env.createPost(t, db.Post{Title: "Secret Draft", Content: "wip", AuthorID: author.ID})

	env.engine.GET("/blog/:slug", env.api.GetPublicPost)

	first := doRequest(env.engine, http.MethodGet, "/blog/hello-world", nil, nil)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())

	var body struct {
		Post db.Post `json:"post"`
		HTML string  `json:"html"`
	}
	decodeJSON(t, first, &body)
	assert.Equal(t, int64(1), body.Post.Views)
	assert.Contains(t, body.HTML, "<strong>bold</strong>")
	assert.NotContains(t, body.HTML, "<script>")

	var visitor *http.Cookie
	for _, c := range first.Result().Cookies() {
		if c.Name == visitorCookieName {
			visitor = c
		}
	}
	require.NotNil(t, visitor)

	req := httptest.NewRequest(http.MethodGet, "/blog/hello-world", nil)
	req.AddCookie(visitor)
	second := httptest.NewRecorder()
	env.engine.ServeHTTP(second, req)
	require.Equal(t, http.StatusOK, second.Code)

	var reloaded db.Post
	require.NoError(t, env.db.First(&reloaded, post.ID).Error)
	assert.Equal(t, int64(1), reloaded.Views)

	draft := doRequest(env.engine, http.MethodGet, "/blog/secret-draft", nil, nil)
	assert.Equal(t, http.StatusNotFound, draft.Code)
}

func TestCreateAndListPosts(t *testing.T) {
	env := newTestEnv(t, nil)
	writer := env.createUser(t, "Writer", "writer@example.com", "password123", db.RoleAuthor)
	token := env.bearer(t, writer)

	env.engine.GET("/posts", env.api.ListPosts)
	env.engine.POST("/posts", env.api.Require(auth.RequireSession), env.api.CreatePost)

	invalid := doRequest(env.engine, http.MethodPost, "/posts", map[string]string{"title": "No body"}, map[string]string{"Authorization": token})
	assert.Equal(t, http.StatusBadRequest, invalid.Code)
	assert.JSONEq(t, `{"error":"content is required"}`, invalid.Body.String())

	created := doRequest(env.engine, http.MethodPost, "/posts", map[string]interface{}{
		"title":   "Budget Travel in Japan",
		"content": "Rail passes and hostels.",
		"status":  "PUBLISHED",
		"tags":    []string{"Travel", "Japan"},
	}, map[string]string{"Authorization": token})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())

	var post db.Post
	decodeJSON(t, created, &post)
	assert.Equal(t, "budget-travel-in-japan", post.Slug)
	assert.Equal(t, writer.ID, post.AuthorID)
	assert.NotNil(t, post.PublishedAt)
	assert.Len(t, post.Tags, 2)

	doRequest(env.engine, http.MethodPost, "/posts", map[string]string{"title": "Draft idea", "content": "later"}, map[string]string{"Authorization": token})

	public := doRequest(env.engine, http.MethodGet, "/posts?search=japan", nil, nil)
	require.Equal(t, http.StatusOK, public.Code)
	var list struct {
		Posts []db.Post `json:"posts"`
		Total int64     `json:"total"`
	}
	decodeJSON(t, public, &list)
	assert.Equal(t, int64(1), list.Total)

	drafts := doRequest(env.engine, http.MethodGet, "/posts?status=draft", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, drafts.Code)

	drafts = doRequest(env.engine, http.MethodGet, "/posts?status=draft", nil, map[string]string{"Authorization": token})
	require.Equal(t, http.StatusOK, drafts.Code)
	decodeJSON(t, drafts, &list)
	require.Len(t, list.Posts, 1)
	assert.Equal(t, "Draft idea", list.Posts[0].Title)
}

func TestClearDrafts(t *testing.T) {
	env := newTestEnv(t, nil)
	author := env.createUser(t, "Writer", "writer@example.com", "password123", db.RoleAuthor)
	env.createPost(t, db.Post{Title: "One", Content: "1", AuthorID: author.ID})
	env.createPost(t, db.Post{Title: "Two", Content: "2", AuthorID: author.ID})
	env.createPost(t, db.Post{Title: "Live", Content: "3", Status: db.PostStatusPublished, AuthorID: author.ID})

	env.engine.DELETE("/posts/drafts", env.api.ClearDrafts)

	w := doRequest(env.engine, http.MethodDelete, "/posts/drafts", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"deleted":2}`, w.Body.String())

	var remaining int64
	require.NoError(t, env.db.Model(&db.Post{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)
}
