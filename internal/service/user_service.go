package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inkpress/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials 表示邮箱或密码错误。
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserInput 是创建作者账号的参数。
type UserInput struct {
	Name     string `json:"name" validate:"min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=ADMIN AUTHOR"`
	Bio      string `json:"bio" validate:"max=1000"`
	Twitter  string `json:"twitter" validate:"max=100"`
	Website  string `json:"website" validate:"omitempty,http_url"`
}

// UserSummary 是后台作者列表中的一行。
type UserSummary struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Image     string    `json:"image,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	PostCount int64     `json:"postCount"`
}

// UserService 管理后台账号。
type UserService struct {
	db *gorm.DB
}

// NewUserService 构造 UserService。
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb}
}

// Authenticate 校验邮箱与密码。
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*db.User, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user db.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalized).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Get 按 id 读取用户。
func (s *UserService) Get(ctx context.Context, id uint) (*db.User, error) {
	var user db.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %w", ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

// Create 创建作者或管理员账号，邮箱重复返回 ErrConflict。
func (s *UserService) Create(ctx context.Context, input UserInput) (*db.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Role = strings.ToUpper(strings.TrimSpace(input.Role))
	input.Bio = strings.TrimSpace(input.Bio)
	input.Twitter = strings.TrimSpace(input.Twitter)
	input.Website = strings.TrimSpace(input.Website)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	email, role := input.Email, input.Role
	if role == "" {
		role = db.RoleAuthor
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&db.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("an account with this email: %w", ErrConflict)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := db.User{
		Name:     input.Name,
		Email:    email,
		Password: string(hashed),
		Role:     role,
		Bio:      input.Bio,
		Twitter:  input.Twitter,
		Website:  input.Website,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List 按创建时间返回全部账号及各自的文章数。
func (s *UserService) List(ctx context.Context) ([]UserSummary, error) {
	users := []UserSummary{}
	err := s.db.WithContext(ctx).Model(&db.User{}).
		Select("users.id, users.name, users.email, users.role, users.image, users.bio, users.created_at, COUNT(posts.id) AS post_count").
		Joins("LEFT JOIN posts ON posts.author_id = users.id").
		Group("users.id, users.name, users.email, users.role, users.image, users.bio, users.created_at").
		Order("users.created_at ASC, users.id ASC").
		Scan(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
