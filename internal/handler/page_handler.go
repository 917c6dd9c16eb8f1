package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/service"
)

// GetPage 返回内容页（about、privacy-policy 等）及渲染后的 HTML。
func (a *API) GetPage(c *gin.Context) {
	page, err := a.pages.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondServiceError(c, err, "failed to load page")
		return
	}

	html, err := service.RenderContent(page.Content)
	if err != nil {
		respondServiceError(c, err, "failed to render page")
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page, "html": html})
}

// SavePage 创建或更新内容页。
func (a *API) SavePage(c *gin.Context) {
	var input service.PageInput
	if !bindJSON(c, &input, "invalid page payload") {
		return
	}

	page, err := a.pages.Save(c.Request.Context(), c.Param("slug"), input)
	if err != nil {
		respondServiceError(c, err, "failed to save page")
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page})
}
