package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/inkpress/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorProfileListsPublishedPosts(t *testing.T) {
	gdb := setupServiceTestDB(t)
	author := createTestUser(t, gdb, "grace", db.RoleAdmin)
	other := createTestUser(t, gdb, "linus", db.RoleAuthor)

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.AddDate(0, 1, 0)
	first := createTestPost(t, gdb, db.Post{Title: "First", Status: db.PostStatusPublished, Views: 10, AuthorID: author.ID, PublishedAt: &older})
	second := createTestPost(t, gdb, db.Post{Title: "Second", Status: db.PostStatusPublished, Views: 5, AuthorID: author.ID, PublishedAt: &newer})
	createTestPost(t, gdb, db.Post{Title: "Draft", Views: 100, AuthorID: author.ID})
	createTestPost(t, gdb, db.Post{Title: "Elsewhere", Status: db.PostStatusPublished, AuthorID: other.ID, PublishedAt: &newer})

	profile, err := NewAuthorService(gdb).Profile(context.Background(), author.ID)
	require.NoError(t, err)

	assert.Equal(t, "grace", profile.Name)
	assert.Equal(t, "Editor in Chief", profile.Title)
	assert.Equal(t, int64(15), profile.TotalViews)
	require.Len(t, profile.Posts, 2)
	assert.Equal(t, second.ID, profile.Posts[0].ID)
	assert.Equal(t, first.ID, profile.Posts[1].ID)
}

func TestAuthorProfileNotFound(t *testing.T) {
	gdb := setupServiceTestDB(t)

	_, err := NewAuthorService(gdb).Profile(context.Background(), 42)
	assert.True(t, errors.Is(err, ErrAuthorNotFound))
	assert.True(t, errors.Is(err, ErrNotFound))
}
