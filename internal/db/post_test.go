package db

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/logger"
)

func TestValidPostStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{status: PostStatusDraft, want: true},
		{status: PostStatusPublished, want: true},
		{status: PostStatusScheduled, want: true},
		{status: PostStatusArchived, want: true},
		{status: "published", want: false},
		{status: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := ValidPostStatus(tt.status); got != tt.want {
				t.Fatalf("ValidPostStatus(%q) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("oracle", "whatever", nil); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if _, err := Open(DriverPostgres, "", nil); err == nil {
		t.Fatal("expected error for empty postgres dsn")
	}
}

func TestOpenCreatesParentDirAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "blog.db")

	gdb, err := Open(DriverSQLite, path, logger.Default.LogMode(logger.Silent))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if err := Migrate(gdb); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	for _, model := range []interface{}{&Post{}, &NewsletterSubscriber{}, &AffiliateClick{}, &PageView{}, &SiteSettings{}} {
		if !gdb.Migrator().HasTable(model) {
			t.Fatalf("expected table for %T", model)
		}
	}
}

func TestEnsureUserCreatesAdminOnce(t *testing.T) {
	dsn := fmt.Sprintf("file:ensure-user-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := Open(DriverSQLite, dsn, logger.Default.LogMode(logger.Silent))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := Migrate(gdb); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	if err := EnsureUser(gdb, "", " Admin@Example.com ", "secret-pass"); err != nil {
		t.Fatalf("ensure user failed: %v", err)
	}
	if err := EnsureUser(gdb, "Other", "admin@example.com", "another-pass"); err != nil {
		t.Fatalf("second ensure user failed: %v", err)
	}
	if err := EnsureUser(gdb, "Nobody", "", ""); err != nil {
		t.Fatalf("empty credentials should be ignored: %v", err)
	}

	var users []User
	if err := gdb.Find(&users).Error; err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if users[0].Role != RoleAdmin || users[0].Name != "Admin" || users[0].Email != "admin@example.com" {
		t.Fatalf("unexpected user: %+v", users[0])
	}
	if err := bcrypt.CompareHashAndPassword([]byte(users[0].Password), []byte("secret-pass")); err != nil {
		t.Fatalf("expected bcrypt hash of the first password: %v", err)
	}
}
