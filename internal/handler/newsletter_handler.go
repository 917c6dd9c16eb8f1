package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type subscribeRequest struct {
	Email string `json:"email" binding:"required,max=320"`
	Name  string `json:"name" binding:"max=100"`
}

type blastRequest struct {
	PostID uint `json:"postId" binding:"required"`
}

type testEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Subscribe 登记订阅者。
func (a *API) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if !bindJSON(c, &req, "email is required") {
		return
	}

	result, err := a.newsletter.Subscribe(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		respondServiceError(c, err, "failed to subscribe")
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"message": result.Message})
}

// ConfirmSubscription 通过邮件中的令牌确认订阅。
func (a *API) ConfirmSubscription(c *gin.Context) {
	sub, err := a.newsletter.Confirm(c.Request.Context(), c.Query("token"))
	if err != nil {
		respondServiceError(c, err, "failed to confirm subscription")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "email": sub.Email, "confirmed": sub.Confirmed})
}

// ExportSubscribers 以 CSV 附件导出全部订阅者。
func (a *API) ExportSubscribers(c *gin.Context) {
	var buf bytes.Buffer
	if _, err := a.newsletter.ExportCSV(c.Request.Context(), &buf); err != nil {
		respondServiceError(c, err, "failed to export subscribers")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, a.newsletter.ExportFilename()))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// SendTestEmail 向指定地址发送测试邮件，通道失败返回 500。
func (a *API) SendTestEmail(c *gin.Context) {
	var req testEmailRequest
	if !bindJSON(c, &req, "a valid email is required") {
		return
	}

	if err := a.newsletter.SendTest(c.Request.Context(), req.Email); err != nil {
		respondServiceError(c, err, "failed to send test email")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": fmt.Sprintf("Test email sent to %s", req.Email)})
}

// BlastNewsletter 把已发布文章群发给所有已确认订阅者。
func (a *API) BlastNewsletter(c *gin.Context) {
	var req blastRequest
	if !bindJSON(c, &req, "postId required") {
		return
	}

	result, err := a.newsletter.Dispatch(c.Request.Context(), req.PostID)
	if err != nil {
		respondServiceError(c, err, "failed to send newsletter")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"sent":    result.Sent,
		"failed":  result.Failed,
		"total":   result.Total,
		"message": result.Message,
	})
}

// ClearSubscribers 删除全部订阅者。
func (a *API) ClearSubscribers(c *gin.Context) {
	deleted, err := a.newsletter.ClearSubscribers(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "failed to clear subscribers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": deleted})
}
