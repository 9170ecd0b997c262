package server

import (
	"net/http"

	"github.com/jonathan/skill-gap-analyzer/internal/server/middleware"
	"github.com/jonathan/skill-gap-analyzer/internal/types"
)

// ---------------------------------------------------------------------
// Current user
// ---------------------------------------------------------------------

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := s.userService.GetUser(r.Context(), userID)
	if err != nil {
		serviceErrorResponse(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req types.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	user, err := s.userService.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		serviceErrorResponse(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, user)
}
