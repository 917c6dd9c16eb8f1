package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/service"
)

// HealthCheck 提供部署平台与监控系统使用的健康检查端点。
func (a *API) HealthCheck(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "database handle unavailable",
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
	})
}

// GetSettings 返回站点设置，密钥字段已打码。
func (a *API) GetSettings(c *gin.Context) {
	settings, err := a.settings.Get(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "failed to load settings")
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings 局部更新站点设置；提交的打码值不会覆盖已保存的密钥。
func (a *API) UpdateSettings(c *gin.Context) {
	var patch service.SettingsPatch
	if !bindJSON(c, &patch, "invalid settings payload") {
		return
	}

	settings, err := a.settings.Update(c.Request.Context(), patch)
	if err != nil {
		respondServiceError(c, err, "failed to save settings")
		return
	}
	c.JSON(http.StatusOK, settings)
}
