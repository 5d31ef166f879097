package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/ports"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/services/audit"
)

type contextKey string

const UserContextKey contextKey = "user"

// SessionCookie is the cookie that carries the session token.
const SessionCookie = "session_token"

// UserFrom extracts the authenticated user placed by AuthMiddleware.
func UserFrom(r *http.Request) (*domain.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(*domain.User)
	return user, ok && user != nil
}

// AuthMiddleware ensures the request has a valid session. The token comes
// from the session cookie or a Bearer header for API clients. The user is
// attached to the request context for handlers and for audit attribution.
func AuthMiddleware(authService ports.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if cookie, err := r.Cookie(SessionCookie); err == nil {
				token = cookie.Value
			}

			if token == "" {
				authHeader := r.Header.Get("Authorization")
				if strings.HasPrefix(authHeader, "Bearer ") {
					token = strings.TrimPrefix(authHeader, "Bearer ")
				}
			}

			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := authService.ValidateToken(r.Context(), token)
			if err != nil {
				// Clear cookie if invalid
				http.SetCookie(w, &http.Cookie{
					Name:   SessionCookie,
					Value:  "",
					Path:   "/",
					MaxAge: -1,
				})
				http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			ctx = audit.WithActor(ctx, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RoleMiddleware checks if the user has the required role.
func RoleMiddleware(requiredRole domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFrom(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !hasPermission(user.Role, requiredRole) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// hasPermission implements the role hierarchy: admin > consultant > client.
func hasPermission(userRole, requiredRole domain.Role) bool {
	switch userRole {
	case domain.RoleAdmin:
		return true
	case domain.RoleConsultant:
		return requiredRole != domain.RoleAdmin
	case domain.RoleClient:
		return requiredRole == domain.RoleClient
	}
	return false
}
