package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/auth"
	"github.com/inkpress/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireRoles(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.createUser(t, "Root", "root@example.com", "password123", db.RoleAdmin)
	writer := env.createUser(t, "Writer", "writer@example.com", "password123", db.RoleAuthor)

	env.engine.DELETE("/admin-only", env.api.Require(auth.RequireAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	env.engine.GET("/authors", env.api.Require(auth.RequireAuthor), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		want   int
	}{
		{name: "anonymous", method: http.MethodDelete, path: "/admin-only", want: http.StatusUnauthorized},
		{name: "garbage token", method: http.MethodDelete, path: "/admin-only", auth: "Bearer nope", want: http.StatusUnauthorized},
		{name: "author on admin route", method: http.MethodDelete, path: "/admin-only", auth: env.bearer(t, writer), want: http.StatusForbidden},
		{name: "admin on admin route", method: http.MethodDelete, path: "/admin-only", auth: env.bearer(t, admin), want: http.StatusNoContent},
		{name: "author on author route", method: http.MethodGet, path: "/authors", auth: env.bearer(t, writer), want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.auth != "" {
				headers["Authorization"] = tt.auth
			}
			w := doRequest(env.engine, tt.method, tt.path, nil, headers)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestLoginSessionAndLogout(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "Root", "root@example.com", "password123", db.RoleAdmin)

	env.engine.POST("/login", env.api.Login)
	env.engine.POST("/logout", env.api.Logout)
	env.engine.GET("/me", env.api.Require(auth.RequireSession), env.api.Me)

	missing := doRequest(env.engine, http.MethodPost, "/login", map[string]string{"email": "root@example.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, missing.Code)
	assert.JSONEq(t, `{"error":"email and password are required"}`, missing.Body.String())

	bad := doRequest(env.engine, http.MethodPost, "/login", map[string]string{"email": "root@example.com", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, bad.Code)

	w := doRequest(env.engine, http.MethodPost, "/login", map[string]string{"email": " ROOT@example.com ", "password": "password123"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	me := httptest.NewRecorder()
	env.engine.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)

	var body struct {
		User auth.Identity `json:"user"`
	}
	decodeJSON(t, me, &body)
	assert.Equal(t, "root@example.com", body.User.Email)
	assert.Equal(t, db.RoleAdmin, body.User.Role)

	out := doRequest(env.engine, http.MethodPost, "/logout", nil, nil)
	assert.Equal(t, http.StatusOK, out.Code)
}

func TestIssueTokenRoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "Writer", "writer@example.com", "password123", db.RoleAuthor)

	env.engine.POST("/token", env.api.IssueToken)
	env.engine.GET("/me", env.api.Require(auth.RequireSession), env.api.Me)

	w := doRequest(env.engine, http.MethodPost, "/token", map[string]string{"email": "writer@example.com", "password": "password123"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var issued struct {
		Token string `json:"token"`
	}
	decodeJSON(t, w, &issued)
	require.NotEmpty(t, issued.Token)

	me := doRequest(env.engine, http.MethodGet, "/me", nil, map[string]string{"Authorization": "bearer " + issued.Token})
	require.Equal(t, http.StatusOK, me.Code)
	assert.True(t, strings.Contains(me.Body.String(), `"role":"AUTHOR"`))
}

func TestNewAPIWithoutTokensUsesRandomSecret(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "Writer", "writer@example.com", "password123", db.RoleAuthor)

	api := NewAPI(env.db, Options{Mailer: env.mailer})
	engine := gin.New()
	engine.POST("/token", api.IssueToken)
	engine.GET("/me", api.Require(auth.RequireSession), api.Me)

	w := doRequest(engine, http.MethodPost, "/token", map[string]string{"email": "writer@example.com", "password": "password123"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var issued struct {
		Token string `json:"token"`
	}
	decodeJSON(t, w, &issued)

	me := doRequest(engine, http.MethodGet, "/me", nil, map[string]string{"Authorization": "Bearer " + issued.Token})
	assert.Equal(t, http.StatusOK, me.Code)

	emptyKey, _, err := auth.NewTokenIssuer("", time.Hour).Issue(auth.Identity{UserID: 1, Role: db.RoleAdmin})
	require.ErrorIs(t, err, auth.ErrMissingSecret)
	assert.Empty(t, emptyKey)

	forged := doRequest(engine, http.MethodGet, "/me", nil, map[string]string{"Authorization": env.bearer(t, db.User{ID: 1, Role: db.RoleAdmin})})
	assert.Equal(t, http.StatusUnauthorized, forged.Code)
}
