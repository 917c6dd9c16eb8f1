package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/service"
)

// SubmitContact 转发联系表单。
func (a *API) SubmitContact(c *gin.Context) {
	var input service.ContactInput
	if !bindJSON(c, &input, "invalid contact payload") {
		return
	}

	if err := a.contact.Submit(c.Request.Context(), input); err != nil {
		respondServiceError(c, err, "failed to send message")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
