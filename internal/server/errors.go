package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrPasswordMismatch indicates current password is incorrect
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string {
	return "current password is incorrect"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrRoleNotFound indicates the requested career role is not in the catalog
type ErrRoleNotFound struct {
	RoleID string
}

func (e *ErrRoleNotFound) Error() string {
	return fmt.Sprintf("career role not found: %s", e.RoleID)
}

// ErrForbidden indicates the caller is authenticated but not allowed to act
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	if e.Action == "" {
		return "forbidden"
	}
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// HTTPStatus returns the appropriate HTTP status code for an error, looking through wrapping.
func HTTPStatus(err error) int {
	var (
		emailErr      *ErrEmailAlreadyExists
		credErr       *ErrInvalidCredentials
		mismatchErr   *ErrPasswordMismatch
		userErr       *ErrUserNotFound
		roleErr       *ErrRoleNotFound
		validationErr *ErrValidation
		forbiddenErr  *ErrForbidden
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &emailErr):
		return http.StatusConflict
	case errors.As(err, &credErr), errors.As(err, &mismatchErr):
		return http.StatusUnauthorized
	case errors.As(err, &userErr), errors.As(err, &roleErr):
		return http.StatusNotFound
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &forbiddenErr):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
