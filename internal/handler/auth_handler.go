package handler

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/auth"
)

const (
	sessionUserKey     = "user_id"
	identityContextKey = "__identity"
)

type loginRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// Login 校验账号并写入 cookie 会话。
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := a.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err, "login failed")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		respondServiceError(c, err, "failed to save session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": auth.FromUser(*user)})
}

// Logout 清空会话。
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		respondServiceError(c, err, "failed to clear session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// IssueToken 以邮箱密码换取 Bearer token，供脚本与外部客户端使用。
func (a *API) IssueToken(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req, "email and password are required") {
		return
	}

	user, err := a.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err, "login failed")
		return
	}

	identity := auth.FromUser(*user)
	token, expiresAt, err := a.tokens.Issue(identity)
	if err != nil {
		respondServiceError(c, err, "failed to issue token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresAt": expiresAt,
		"user":      identity,
	})
}

// Me 返回当前调用者身份。
func (a *API) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": currentIdentity(c)})
}

// Require 返回统一的权限校验中间件。
func (a *API) Require(req auth.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := a.resolveIdentity(c)
		if err := auth.Authorize(identity, req); err != nil {
			respondServiceError(c, err, "authorization failed")
			return
		}
		c.Set(identityContextKey, identity)
		c.Next()
	}
}

// resolveIdentity 优先使用 Bearer token，其次读取 cookie 会话；都没有时返回 nil。
func (a *API) resolveIdentity(c *gin.Context) *auth.Identity {
	if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
		if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
			identity, err := a.tokens.Parse(header[7:])
			if err != nil {
				return nil
			}
			return identity
		}
	}

	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return nil
	}
	userID, ok := sessions.Default(c).Get(sessionUserKey).(uint)
	if !ok || userID == 0 {
		return nil
	}

	user, err := a.users.Get(c.Request.Context(), userID)
	if err != nil {
		return nil
	}
	identity := auth.FromUser(*user)
	return &identity
}

func currentIdentity(c *gin.Context) *auth.Identity {
	if value, ok := c.Get(identityContextKey); ok {
		if identity, ok := value.(*auth.Identity); ok {
			return identity
		}
	}
	return nil
}
