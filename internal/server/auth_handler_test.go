package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/skill-gap-analyzer/internal/config"
	"github.com/jonathan/skill-gap-analyzer/internal/server/middleware"
	"github.com/jonathan/skill-gap-analyzer/internal/types"
	"github.com/stretchr/testify/assert"
)

// setupTestAuthHandler creates an AuthHandler whose store is never reached: every request
// here fails before the service is called.
func setupTestAuthHandler(_ *testing.T) *AuthHandler {
	passwordConfig := &config.PasswordConfig{BcryptCost: 10}
	jwtConfig := &config.JWTConfig{Secret: testJWTSecret, Expiration: 24 * time.Hour}
	return NewAuthHandler(NewUserService(nil, passwordConfig, nil), NewJWTService(jwtConfig))
}

func TestAuthHandler_RejectsBadBodies(t *testing.T) {
	tests := []struct {
		name    string
		call    func(h *AuthHandler, w http.ResponseWriter, r *http.Request)
		body    string
		wantMsg string
	}{
		{"register invalid json", (*AuthHandler).Register, "invalid json", "Invalid request body"},
		{"register missing name", (*AuthHandler).Register, `{"email":"a@b.co","password":"secret1"}`, "validation error: Name - required"},
		{"register missing email", (*AuthHandler).Register, `{"name":"A","password":"secret1"}`, "validation error: Email - required"},
		{"register bad email", (*AuthHandler).Register, `{"name":"A","email":"nope","password":"secret1"}`, "validation error: Email - email"},
		{"register short password", (*AuthHandler).Register, `{"name":"A","email":"a@b.co","password":"short"}`, "validation error: Password - min"},
		{"login invalid json", (*AuthHandler).Login, "{", "Invalid request body"},
		{"login missing password", (*AuthHandler).Login, `{"email":"a@b.co"}`, "validation error: Password - required"},
		{"login bad email", (*AuthHandler).Login, `{"email":"a","password":"x"}`, "validation error: Email - email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := setupTestAuthHandler(t)
			req := httptest.NewRequest(http.MethodPost, "/v1/auth", bytes.NewReader([]byte(tt.body)))
			w := httptest.NewRecorder()

			tt.call(handler, w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), tt.wantMsg)
		})
	}
}

func TestAuthHandler_UpdatePassword_NoSession(t *testing.T) {
	handler := setupTestAuthHandler(t)
	req := httptest.NewRequest(http.MethodPut, "/v1/me/password", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()

	handler.UpdatePassword(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_UpdatePassword_Validation(t *testing.T) {
	handler := setupTestAuthHandler(t)
	body := `{"current_password":"old","new_password":"123"}`
	req := httptest.NewRequest(http.MethodPut, "/v1/me/password", bytes.NewReader([]byte(body)))
	req = req.WithContext(middleware.WithSession(req.Context(), middleware.Session{UserID: uuid.New(), Role: types.RoleStudent}))
	w := httptest.NewRecorder()

	handler.UpdatePassword(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "NewPassword - min")
}

func TestExtractValidationErrors(t *testing.T) {
	assert.Equal(t, "validation error: invalid request", extractValidationErrors(assert.AnError))
}
