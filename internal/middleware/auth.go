package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/fuelstop/fuelstop-api/internal/pkg/jwt"
	"github.com/fuelstop/fuelstop-api/internal/pkg/response"
)

type contextKey string

const (
	AccountIDKey contextKey = "account_id"
	RoleKey      contextKey = "role"
)

// Auth returns middleware that validates JWT
func Auth(jwtService *jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extract token from header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			// Check Bearer prefix
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			// Validate token
			claims, err := jwtService.ValidateAccessToken(parts[1])
			if err != nil {
				if err == jwt.ErrExpiredToken {
					response.Unauthorized(w, "Token expired")
				} else {
					response.Unauthorized(w, "Invalid token")
				}
				return
			}

			// Deactivated accounts keep their tokens until expiry,
			// so the check has to happen here
			if !claims.IsActive {
				response.Forbidden(w, "Your account has been deactivated")
				return
			}

			// Add claims to context
			ctx := context.WithValue(r.Context(), AccountIDKey, claims.AccountID)
			ctx = context.WithValue(ctx, RoleKey, claims.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAccountID extracts account ID from context
func GetAccountID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(AccountIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// GetRole extracts role from context
func GetRole(ctx context.Context) string {
	if role, ok := ctx.Value(RoleKey).(string); ok {
		return role
	}
	return ""
}

// RequireRole returns middleware that checks account role
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountRole := GetRole(r.Context())

			for _, role := range roles {
				if accountRole == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			response.Forbidden(w, "Insufficient permissions")
		})
	}
}

// RequireAdmin returns middleware that requires admin role
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole("admin")
}

// RequireCustomer returns middleware that requires customer role
func RequireCustomer() func(http.Handler) http.Handler {
	return RequireRole("customer")
}
