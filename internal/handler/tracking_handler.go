package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/logger"
	"github.com/inkpress/internal/metrics"
	"github.com/inkpress/internal/service"
	"go.uber.org/zap"
)

// TrackAffiliateClick 记录联盟链接点击。埋点永远向调用方返回成功。
// 限流按 gin 的 ClientIP 计数，只有可信代理写入的 X-Forwarded-For 才会被采信。
func (a *API) TrackAffiliateClick(c *gin.Context) {
	ip := c.ClientIP()
	if !a.allowTracking(c, "affiliate_click", ip) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	var in service.AffiliateClickInput
	if err := c.ShouldBindJSON(&in); err != nil {
		metrics.TrackingEvents.WithLabelValues("affiliate_click", "invalid").Inc()
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	in.IP = ip

	a.tracking.RecordAffiliateClick(c.Request.Context(), in)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// TrackPageView 记录页面浏览，设备类型与国家代码从请求头推断。
func (a *API) TrackPageView(c *gin.Context) {
	if !a.allowTracking(c, "page_view", c.ClientIP()) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	var in service.PageViewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		metrics.TrackingEvents.WithLabelValues("page_view", "invalid").Inc()
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	in.UserAgent = c.GetHeader("User-Agent")
	in.Country = readCountryHeader(c, a.countryHeaders)

	a.tracking.RecordPageView(c.Request.Context(), in)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// allowTracking 限流后端故障时放行，被限流的事件只计入指标。
func (a *API) allowTracking(c *gin.Context, kind, key string) bool {
	allowed, err := a.limiter.Allow(c.Request.Context(), key)
	if err != nil {
		logger.Warn("rate limiter unavailable", zap.String("kind", kind), zap.Error(err))
		return true
	}
	if !allowed {
		metrics.TrackingEvents.WithLabelValues(kind, "throttled").Inc()
	}
	return allowed
}
