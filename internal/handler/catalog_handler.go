package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/service"
)

// ListCategories 返回全部分类及已发布文章数。
func (a *API) ListCategories(c *gin.Context) {
	categories, err := a.categories.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "failed to list categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

// CreateCategory 创建分类。
func (a *API) CreateCategory(c *gin.Context) {
	var input service.CategoryInput
	if !bindJSON(c, &input, "invalid category payload") {
		return
	}

	category, err := a.categories.Create(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err, "failed to create category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

// ListTags 返回已发布文章使用到的标签及次数。
func (a *API) ListTags(c *gin.Context) {
	tags, err := a.tags.PublishedUsage(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "failed to list tags")
		return
	}
	c.JSON(http.StatusOK, tags)
}

// ListUsers 返回全部账号。
func (a *API) ListUsers(c *gin.Context) {
	users, err := a.users.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "failed to list users")
		return
	}
	c.JSON(http.StatusOK, users)
}

// CreateUser 创建作者或管理员账号。
func (a *API) CreateUser(c *gin.Context) {
	var input service.UserInput
	if !bindJSON(c, &input, "invalid user payload") {
		return
	}

	user, err := a.users.Create(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err, "failed to create user")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GetAuthor 返回公开作者页。
func (a *API) GetAuthor(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := a.authors.Profile(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "failed to load author")
		return
	}
	c.JSON(http.StatusOK, profile)
}
