package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/auth"
	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/ratelimit"
	"github.com/inkpress/internal/service"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var handlerDBSeq atomic.Int64

type fakeMailer struct {
	mu   sync.Mutex
	sent []service.EmailMessage
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg service.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type testEnv struct {
	api    *API
	db     *gorm.DB
	mailer *fakeMailer
	tokens *auth.TokenIssuer
	engine *gin.Engine
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:handler-%d-%d?mode=memory&cache=shared", time.Now().UnixNano(), handlerDBSeq.Add(1))
	gdb, err := db.Open(db.DriverSQLite, dsn, logger.Default.LogMode(logger.Silent))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return gdb
}

func newTestEnv(t *testing.T, limiter ratelimit.Limiter) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb := setupTestDB(t)
	mailer := &fakeMailer{}
	tokens := auth.NewTokenIssuer("handler-test-secret", time.Hour)
	if limiter == nil {
		limiter = ratelimit.NewMemoryLimiter(1000)
	}

	api := NewAPI(gdb, Options{
		UploadDir:      t.TempDir(),
		UploadURL:      "/static/uploads",
		CountryHeaders: []string{"CF-IPCountry", "X-Vercel-IP-Country"},
		ContactEmail:   "editor@example.com",
		Site:           service.EmailSite{Name: "Test Blog", URL: "https://blog.example.com", Description: "Notes"},
		Newsletter:     service.NewsletterOptions{BatchSize: 2, AutoConfirm: true},
		Tokens:         tokens,
		Limiter:        limiter,
		Mailer:         mailer,
	})

	engine := gin.New()
	if err := engine.SetTrustedProxies(nil); err != nil {
		t.Fatalf("failed to reset trusted proxies: %v", err)
	}
	engine.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("handler-session-secret"))))

	return &testEnv{api: api, db: gdb, mailer: mailer, tokens: tokens, engine: engine}
}

func (e *testEnv) createUser(t *testing.T, name, email, password, role string) db.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := db.User{Name: name, Email: email, Password: string(hashed), Role: role}
	if err := e.db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func (e *testEnv) bearer(t *testing.T, user db.User) string {
	t.Helper()
	token, _, err := e.tokens.Issue(auth.FromUser(user))
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return "Bearer " + token
}

func (e *testEnv) createPost(t *testing.T, post db.Post) db.Post {
	t.Helper()
	if post.Slug == "" {
		post.Slug = service.Slugify(post.Title)
	}
	if post.Status == "" {
		post.Status = db.PostStatusDraft
	}
	if err := e.db.Create(&post).Error; err != nil {
		t.Fatalf("failed to seed post: %v", err)
	}
	return post
}

func doRequest(engine http.Handler, method, target string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(v)
	default:
		payload, _ := json.Marshal(v)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}
