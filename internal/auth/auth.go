package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/inkpress/internal/db"
)

var (
	// ErrUnauthorized 表示请求没有有效会话。
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden 表示会话有效但角色不足。
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidToken 表示 Bearer token 无法解析或已过期。
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingSecret 表示签名密钥为空，拒绝签发与校验。
	ErrMissingSecret = errors.New("token secret is empty")
)

// Requirement 描述一个操作所需的最低权限。
type Requirement int

const (
	// RequireSession 任意已登录会话即可。
	RequireSession Requirement = iota
	// RequireAuthor 需要 AUTHOR 或 ADMIN。
	RequireAuthor
	// RequireAdmin 仅 ADMIN。
	RequireAdmin
)

// Identity 是认证层提供给业务层的调用者身份。
type Identity struct {
	UserID uint   `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == db.RoleAdmin
}

func (i *Identity) isAuthor() bool {
	return i.IsAdmin() || i.Role == db.RoleAuthor
}

// Authorize 是唯一的权限判定入口，所有接口统一调用。
func Authorize(id *Identity, req Requirement) error {
	if id == nil || id.UserID == 0 {
		return ErrUnauthorized
	}

	switch req {
	case RequireSession:
		return nil
	case RequireAuthor:
		if id.isAuthor() {
			return nil
		}
	case RequireAdmin:
		if id.IsAdmin() {
			return nil
		}
	}
	return ErrForbidden
}

// FromUser 由用户记录构造身份。
func FromUser(user db.User) Identity {
	return Identity{UserID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}
}

type tokenClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer 负责签发与校验 HS256 API token。
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer 创建 TokenIssuer，ttl 非正数时默认 24 小时。
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// NewEphemeralTokenIssuer 使用进程内随机密钥，签发的 token 在重启后全部失效。
func NewEphemeralTokenIssuer(ttl time.Duration) *TokenIssuer {
	key := make([]byte, 32)
	// rand.Read 自 Go 1.24 起不会返回错误。
	_, _ = rand.Read(key)
	issuer := NewTokenIssuer("", ttl)
	issuer.secret = key
	return issuer
}

// Issue 为身份签发 token，返回 token 与过期时间。
func (t *TokenIssuer) Issue(id Identity) (string, time.Time, error) {
	if len(t.secret) == 0 {
		return "", time.Time{}, ErrMissingSecret
	}
	if id.UserID == 0 {
		return "", time.Time{}, ErrUnauthorized
	}

	issuedAt := t.now()
	expiresAt := issuedAt.Add(t.ttl)
	claims := tokenClaims{
		Name:  id.Name,
		Email: id.Email,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(id.UserID), 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    "inkpress",
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse 校验 token 并还原身份。
func (t *TokenIssuer) Parse(raw string) (*Identity, error) {
	if len(t.secret) == 0 {
		return nil, ErrMissingSecret
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrInvalidToken
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(trimmed, &claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return nil, ErrInvalidToken
	}

	return &Identity{
		UserID: uint(userID),
		Name:   claims.Name,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
