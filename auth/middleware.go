package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/rightfit/rightfit-navigation/errors"
	"github.com/rightfit/rightfit-navigation/logging"
)

// ContextKey is used for storing auth data in context.
type ContextKey string

const (
	// ClaimsContextKey is the context key for JWT claims.
	ClaimsContextKey ContextKey = "claims"
)

// Middleware rejects requests without a valid bearer token and stores the
// claims in the request context.
func Middleware(jwtManager *JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				apperrors.WriteError(w, apperrors.Unauthorized(err.Error()), logging.TraceIDFromContext(r.Context()))
				return
			}

			claims, err := jwtManager.ValidateToken(tokenString)
			if err != nil {
				msg := "invalid token"
				switch {
				case errors.Is(err, ErrTokenExpired):
					msg = "token expired"
				case errors.Is(err, ErrNoTenant):
					msg = "token has no tenant"
				}
				apperrors.WriteError(w, apperrors.Unauthorized(msg), logging.TraceIDFromContext(r.Context()))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrNoToken
	}

	// Expect "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}

// RequireRole creates a middleware that checks for any of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r.Context())
			if claims == nil {
				apperrors.WriteError(w, apperrors.Unauthorized(""), "")
				return
			}

			for _, role := range roles {
				if claims.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			apperrors.WriteError(w, apperrors.Forbidden("insufficient permissions"), logging.TraceIDFromContext(r.Context()))
		})
	}
}

// GetClaims retrieves claims from context.
func GetClaims(ctx context.Context) *Claims {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// TenantID returns the authenticated tenant, or "" outside an authenticated
// request.
func TenantID(ctx context.Context) string {
	if c := GetClaims(ctx); c != nil {
		return c.TenantID
	}
	return ""
}

// UserID returns the authenticated user, or "".
func UserID(ctx context.Context) string {
	if c := GetClaims(ctx); c != nil {
		return c.UserID
	}
	return ""
}

// WithClaims adds claims to the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}
