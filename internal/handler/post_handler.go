package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inkpress/internal/auth"
	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/logger"
	"github.com/inkpress/internal/service"
	"go.uber.org/zap"
)

const (
	visitorCookieName   = "ink_visitor_id"
	visitorCookieMaxAge = 365 * 24 * 60 * 60
)

// ListPosts 分页列出文章。非发布状态的列表需要登录。
func (a *API) ListPosts(c *gin.Context) {
	filter := service.PostFilter{
		Status:       strings.ToUpper(strings.TrimSpace(c.Query("status"))),
		CategorySlug: c.Query("category"),
		Search:       c.Query("search"),
		Page:         parsePositiveInt(c.Query("page"), 1),
		Limit:        parsePositiveInt(c.Query("limit"), 10),
	}
	if filter.Status != "" && filter.Status != db.PostStatusPublished {
		if err := auth.Authorize(a.resolveIdentity(c), auth.RequireSession); err != nil {
			respondServiceError(c, err, "authorization failed")
			return
		}
	}

	result, err := a.posts.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err, "failed to list posts")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetPost 按 ID 返回任意状态的文章，供后台编辑使用。
func (a *API) GetPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	post, err := a.posts.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "failed to load post")
		return
	}
	c.JSON(http.StatusOK, post)
}

// GetPublicPost 返回已发布文章及渲染后的 HTML，并按访客去重计数浏览量。
func (a *API) GetPublicPost(c *gin.Context) {
	post, err := a.posts.GetPublishedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondServiceError(c, err, "failed to load post")
		return
	}

	visitorID := a.ensureVisitorID(c)
	counted, err := a.analytics.RecordPostView(post.ID, visitorID, time.Now().UTC())
	if err != nil {
		logger.Warn("record post view failed", zap.Uint("post_id", post.ID), zap.Error(err))
	} else if counted {
		post.Views++
	}

	html, err := service.RenderContent(post.Content)
	if err != nil {
		respondServiceError(c, err, "failed to render post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post, "html": html})
}

// CreatePost 以当前登录者为作者创建文章。
func (a *API) CreatePost(c *gin.Context) {
	var input service.PostInput
	if !bindJSON(c, &input, "invalid post payload") {
		return
	}

	identity := currentIdentity(c)
	if identity == nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	post, err := a.posts.Create(c.Request.Context(), identity.UserID, input)
	if err != nil {
		respondServiceError(c, err, "failed to create post")
		return
	}
	c.JSON(http.StatusCreated, post)
}

// UpdatePost 整体更新文章。
func (a *API) UpdatePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var input service.PostInput
	if !bindJSON(c, &input, "invalid post payload") {
		return
	}

	post, err := a.posts.Update(c.Request.Context(), id, input)
	if err != nil {
		respondServiceError(c, err, "failed to update post")
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost 删除文章。
func (a *API) DeletePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.posts.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "failed to delete post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ClearDrafts 删除全部草稿。
func (a *API) ClearDrafts(c *gin.Context) {
	deleted, err := a.posts.ClearDrafts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "failed to clear drafts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": deleted})
}

func (a *API) ensureVisitorID(c *gin.Context) string {
	if id, err := c.Cookie(visitorCookieName); err == nil && strings.TrimSpace(id) != "" {
		return id
	}

	visitorID := uuid.NewString()
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     visitorCookieName,
		Value:    visitorID,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Request.TLS != nil,
		MaxAge:   visitorCookieMaxAge,
		Expires:  time.Now().Add(365 * 24 * time.Hour),
		SameSite: http.SameSiteLaxMode,
	})
	return visitorID
}
