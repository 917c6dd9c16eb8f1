package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/service"
)

// GetAnalytics 返回 ?range= 指定天数的分析报表。
func (a *API) GetAnalytics(c *gin.Context) {
	days := service.ParseReportRange(c.Query("range"))

	report, err := a.analytics.Report(c.Request.Context(), days)
	if err != nil {
		respondServiceError(c, err, service.ErrAggregationFailed.Error())
		return
	}
	c.JSON(http.StatusOK, report)
}

// ClearAnalytics 删除全部页面浏览记录并把文章浏览数归零。
func (a *API) ClearAnalytics(c *gin.Context) {
	deleted, err := a.analytics.ClearAnalytics(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "failed to clear analytics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": deleted})
}
