package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateInputMessages(t *testing.T) {
	cases := []struct {
		name  string
		input interface{}
		want  string
	}{
		{"contact subject", ContactInput{Name: "Ada", Email: "ada@example.com", Subject: "spam", Message: "long enough text"}, "validation failed: invalid subject"},
		{"contact message", ContactInput{Name: "Ada", Email: "ada@example.com", Subject: "press", Message: "short"}, "validation failed: message must be at least 10 characters"},
		{"user password", UserInput{Name: "Ada", Email: "ada@example.com", Password: "short"}, "validation failed: password must be at least 8 characters"},
		{"user role", UserInput{Name: "Ada", Email: "ada@example.com", Password: "long-enough", Role: "ROOT"}, "validation failed: invalid role"},
		{"user website", UserInput{Name: "Ada", Email: "ada@example.com", Password: "long-enough", Website: "ftp://x"}, "validation failed: invalid website"},
		{"post status", PostInput{Title: "T", Content: "body", Status: "ARCHIVED"}, "validation failed: invalid status"},
		{"post title", PostInput{Content: "body"}, "validation failed: title is required"},
		{"category color", CategoryInput{Name: "Tech", Color: "blue"}, "validation failed: invalid color"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateInput(tc.input)
			assert.ErrorIs(t, err, ErrValidation)
			assert.EqualError(t, err, tc.want)
		})
	}
}

func TestValidateInputAccepts(t *testing.T) {
	assert.NoError(t, validateInput(PostInput{Title: "T", Content: "body", Status: "PUBLISHED"}))
	assert.NoError(t, validateInput(UserInput{Name: "Ada", Email: "ada@example.com", Password: "long-enough", Role: "AUTHOR", Website: "https://ada.dev"}))
	assert.NoError(t, validateInput(CategoryInput{Name: "Tech", Color: "#3b82f6"}))
}

func TestNormalizeEmailUsesValidator(t *testing.T) {
	got, err := NormalizeEmail("  Ada@Example.COM ")
	assert.NoError(t, err)
	assert.Equal(t, "ada@example.com", got)

	_, err = NormalizeEmail("not-an-email")
	assert.EqualError(t, err, "validation failed: invalid email")
	_, err = NormalizeEmail("   ")
	assert.EqualError(t, err, "validation failed: email is required")
}
