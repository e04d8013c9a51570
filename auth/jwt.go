// Package auth validates the bearer tokens issued by the platform identity
// service and carries the caller's tenant and roles through the request.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles recognised by the navigation API.
const (
	RoleWorker  = "worker"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// Claims represents the JWT claims.
type Claims struct {
	UserID   string   `json:"user_id"`
	TenantID string   `json:"tenant_id"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Role returns the primary role, the first one listed.
func (c *Claims) Role() string {
	if len(c.Roles) == 0 {
		return ""
	}
	return c.Roles[0]
}

// HasRole reports whether the claims include role.
func (c *Claims) HasRole(role string) bool {
	return role != "" && slices.Contains(c.Roles, role)
}

// CanActFor reports whether the caller may read data belonging to workerID:
// the worker themself, or a manager or admin of the same tenant.
func (c *Claims) CanActFor(workerID string) bool {
	return c.UserID == workerID || c.HasRole(RoleManager) || c.HasRole(RoleAdmin)
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret       string
	Issuer       string
	Audience     string
	AccessExpiry time.Duration
}

// DefaultJWTConfig returns default JWT configuration.
func DefaultJWTConfig() JWTConfig {
	return JWTConfig{
		AccessExpiry: 15 * time.Minute,
	}
}

// JWTManager handles JWT operations.
type JWTManager struct {
	config JWTConfig
}

// NewJWTManager creates a new JWT manager.
func NewJWTManager(config JWTConfig) *JWTManager {
	return &JWTManager{config: config}
}

// GenerateAccessToken signs an access token. The service only validates
// tokens in production; generation serves local tooling and tests.
func (m *JWTManager) GenerateAccessToken(userID, tenantID string, roles []string) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID:   userID,
		TenantID: tenantID,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{m.config.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.Secret))
}

// ValidateToken validates a JWT token and returns the claims. Tokens without
// a tenant are rejected.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	var opts []jwt.ParserOption
	if m.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(m.config.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.config.Secret), nil
	}, opts...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TenantID == "" {
		return nil, ErrNoTenant
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}

	return claims, nil
}

// Common JWT errors.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrNoToken      = errors.New("no token provided")
	ErrNoTenant     = errors.New("token has no tenant")
)
