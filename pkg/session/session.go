package session

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleType member role from token
type RoleType string

const (
	// RoleUser is the user role
	RoleUser RoleType = "user"
	// RoleCoach is the coach role
	RoleCoach RoleType = "coach"
	// RoleAdmin is the admin role
	RoleAdmin RoleType = "admin"
)

// Claims structure for custom claims in JWT
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Session 當前登入者的身份與憑證
// token 由登入流程發放，這裡只讀取 claims，不做簽章驗證(後端驗證)
type Session struct {
	token     string
	UserID    int64
	Role      RoleType
	expiresAt time.Time
}

// New parse bearer token and build Session
func New(token string) (*Session, error) {
	token = strings.TrimPrefix(token, "Bearer ")
	if token == "" {
		return nil, errors.New("missing session token")
	}

	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	if claims.UserID <= 0 {
		return nil, errors.New("token carries no user id")
	}

	s := &Session{
		token:  token,
		UserID: claims.UserID,
		Role:   RoleType(claims.Role),
	}
	if claims.ExpiresAt != nil {
		s.expiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Authorization returns the Authorization header value
func (s *Session) Authorization() string {
	return "Bearer " + s.token
}

// Token returns the raw bearer token
func (s *Session) Token() string {
	return s.token
}

// Expired check token expiration (false when token has no exp claim)
func (s *Session) Expired() bool {
	if s.expiresAt.IsZero() {
		return false
	}
	return time.Now().After(s.expiresAt)
}

// IsCoach check session role
func (s *Session) IsCoach() bool {
	return s.Role == RoleCoach
}
