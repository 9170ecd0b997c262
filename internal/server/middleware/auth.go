// Package middleware provides HTTP middleware for authentication and authorization.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/skill-gap-analyzer/internal/types"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

const sessionKey ContextKey = "session"

// Session identifies the authenticated caller of a request.
type Session struct {
	UserID uuid.UUID
	Role   types.UserRole
}

// IsAdmin reports whether the session belongs to a campus administrator.
func (s Session) IsAdmin() bool {
	return s.Role == types.RoleAdmin
}

// SessionClaims is what a validated token must expose.
type SessionClaims interface {
	GetUserID() uuid.UUID
	GetRole() types.UserRole
}

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (SessionClaims, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores the caller's
// Session in the request context.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			role := claims.GetRole()
			if role == "" {
				role = types.RoleStudent
			}
			ctx := WithSession(r.Context(), Session{UserID: claims.GetUserID(), Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects authenticated callers that are not admins. It must run after
// AuthMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := SessionFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !session.IsAdmin() {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// WithSession returns a copy of ctx carrying session.
func WithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// SessionFrom returns the session stored by AuthMiddleware.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}

// GetUserID extracts the authenticated user ID from the request context.
func GetUserID(r *http.Request) (uuid.UUID, error) {
	s, ok := SessionFrom(r.Context())
	if !ok {
		return uuid.Nil, fmt.Errorf("user ID not found in request context")
	}
	return s.UserID, nil
}
