// Package auth issues and validates the credentials the coordinator
// consumes. The coordinator only ever sees the resolved
// {userId, username, role} triple, never the raw token machinery.
package auth

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"
)

type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWTResolver validates bearer credentials and yields the identity facts
// carried inside them. HS256 with a shared secret from config.
type JWTResolver struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTResolver(secret string, ttl time.Duration) *JWTResolver {
	return &JWTResolver{secret: []byte(secret), ttl: ttl}
}

func (r *JWTResolver) Sign(u *domain.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   string(u.ID),
		Username: u.Username,
		Role:     string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(r.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(r.secret)
}

// Resolve validates the credential and returns the identity it carries.
// Expired, malformed and empty tokens all come back as auth errors.
func (r *JWTResolver) Resolve(token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.AuthError("missing credential")
	}
	t, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return r.secret, nil
	})
	if err != nil || !t.Valid {
		return nil, domain.AuthError("invalid or expired credential")
	}
	c, ok := t.Claims.(*Claims)
	if !ok {
		return nil, domain.AuthError("invalid credential claims")
	}
	role := domain.Role(c.Role)
	if !role.Valid() {
		return nil, domain.AuthError("unknown role %q", c.Role)
	}
	return &domain.User{ID: domain.UserID(c.UserID), Username: c.Username, Role: role}, nil
}
