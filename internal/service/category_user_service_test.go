package service

import (
	"context"
	"testing"

	"github.com/inkpress/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryServiceCreateAndList(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewCategoryService(gdb)
	ctx := context.Background()

	travel, err := svc.Create(ctx, CategoryInput{Name: "Travel & Food"})
	require.NoError(t, err)
	assert.Equal(t, "travel-food", travel.Slug)
	assert.Equal(t, DefaultCategoryColor, travel.Color)

	_, err = svc.Create(ctx, CategoryInput{Name: "Travel Food"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Create(ctx, CategoryInput{Name: "  "})
	assert.ErrorIs(t, err, ErrValidation)

	art, err := svc.Create(ctx, CategoryInput{Name: "Art", Color: "#FF0000", Icon: "🎨"})
	require.NoError(t, err)

	author := createTestUser(t, gdb, "ada", db.RoleAuthor)
	createTestPost(t, gdb, db.Post{Title: "P1", Status: db.PostStatusPublished, CategoryID: &travel.ID, AuthorID: author.ID})
	createTestPost(t, gdb, db.Post{Title: "P2", CategoryID: &travel.ID, AuthorID: author.ID})

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, art.ID, list[0].ID)
	assert.Zero(t, list[0].PostCount)
	assert.Equal(t, "Travel & Food", list[1].Name)
	assert.Equal(t, int64(1), list[1].PostCount)
}

func TestUserServiceCreateAndAuthenticate(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewUserService(gdb)
	ctx := context.Background()

	user, err := svc.Create(ctx, UserInput{Name: "Ada", Email: "Ada@Example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, db.RoleAuthor, user.Role)
	assert.Equal(t, "ada@example.com", user.Email)

	_, err = svc.Create(ctx, UserInput{Name: "Ada 2", Email: "ada@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrConflict)

	invalid := []UserInput{
		{Name: "A", Email: "a@example.com", Password: "12345678"},
		{Name: "Al", Email: "nope", Password: "12345678"},
		{Name: "Al", Email: "al@example.com", Password: "short"},
		{Name: "Al", Email: "al@example.com", Password: "12345678", Role: "READER"},
		{Name: "Al", Email: "al@example.com", Password: "12345678", Website: "not a url"},
	}
	for _, in := range invalid {
		_, err := svc.Create(ctx, in)
		assert.ErrorIs(t, err, ErrValidation, "%+v", in)
	}

	got, err := svc.Authenticate(ctx, " ADA@example.com ", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "ada@example.com", "wrong-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "ghost@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	createTestPost(t, gdb, db.Post{Title: "Mine", AuthorID: user.ID})
	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].PostCount)
}
