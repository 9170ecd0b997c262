package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/skill-gap-analyzer/internal/estimator"
	"github.com/jonathan/skill-gap-analyzer/internal/server/middleware"
	"github.com/jonathan/skill-gap-analyzer/internal/types"
	"github.com/rs/zerolog/log"
)

const analysisFailedMessage = "Analysis failed. Please try again."

// AnalysisRequest is the body of POST /v1/analyses and POST /v1/analyses/estimate.
// RoleID may also be a role's display name.
type AnalysisRequest struct {
	RoleID string   `json:"role_id" validate:"required,max=100"`
	Skills []string `json:"skills" validate:"required,min=1,max=100,dive,max=100"`
	Branch string   `json:"branch" validate:"omitempty,max=100"`
	Year   int      `json:"year" validate:"omitempty,min=1,max=4"`
}

// AnalysisResponse carries a finished analysis. ID and CreatedAt are absent for previews.
type AnalysisResponse struct {
	ID        *uuid.UUID             `json:"id,omitempty"`
	Source    types.AnalysisSource   `json:"source"`
	Analysis  types.Analysis         `json:"analysis"`
	Role      types.RoleCatalogEntry `json:"role"`
	CreatedAt *time.Time             `json:"created_at,omitempty"`
}

// AnalysesResponse lists stored analysis records, newest first.
type AnalysesResponse struct {
	Analyses []types.AnalysisRecord `json:"analyses"`
}

// decodeAnalysisRequest validates the body and resolves the role. The returned skills are
// trimmed and de-duplicated and never empty.
func (s *Server) decodeAnalysisRequest(w http.ResponseWriter, r *http.Request) (*AnalysisRequest, types.RoleCatalogEntry, bool) {
	var req AnalysisRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return nil, types.RoleCatalogEntry{}, false
	}
	if err := s.validator.Struct(req); err != nil {
		errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return nil, types.RoleCatalogEntry{}, false
	}

	req.Skills = CleanSkills(req.Skills)
	if len(req.Skills) == 0 {
		serviceErrorResponse(w, r, &ErrValidation{Field: "skills", Message: "at least one skill is required"})
		return nil, types.RoleCatalogEntry{}, false
	}

	role, ok := s.catalog.Resolve(req.RoleID)
	if !ok {
		serviceErrorResponse(w, r, &ErrValidation{Field: "role_id", Message: "unknown career role " + req.RoleID})
		return nil, types.RoleCatalogEntry{}, false
	}
	return &req, role, true
}

// handleCreateAnalysis runs an analysis for the caller and stores it.
func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	req, role, ok := s.decodeAnalysisRequest(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	logger := log.With().Str("user_id", userID.String()).Str("role_id", role.ID).Logger()

	if _, err := s.userService.RecordAnalysisProfile(ctx, userID, role.RoleName, req.Skills, req.Branch, req.Year); err != nil {
		serviceErrorResponse(w, r, err)
		return
	}

	start := time.Now()
	result, err := s.analyzer.Analyze(ctx, req.Skills, role)
	if err != nil {
		logger.Error().Err(err).Msg("analysis failed")
		errorResponse(w, http.StatusInternalServerError, analysisFailedMessage)
		return
	}

	rec := types.NewAnalysisRecord(userID, &result.Analysis, result.Source)
	rec.CareerRole = role.RoleName
	id, err := s.store.SaveAnalysis(ctx, rec)
	if err != nil {
		logger.Error().Err(err).Msg("failed to save analysis")
		errorResponse(w, http.StatusInternalServerError, analysisFailedMessage)
		return
	}

	if err := s.analytics.Invalidate(context.WithoutCancel(ctx)); err != nil {
		logger.Warn().Err(err).Msg("analytics memo not invalidated")
	}

	logger.Info().
		Str("analysis_id", id.String()).
		Str("source", string(result.Source)).
		Int("readiness_score", rec.ReadinessScore).
		Dur("duration", time.Since(start)).
		Msg("analysis stored")

	analysis := result.Analysis
	analysis.ReadinessScore = rec.ReadinessScore
	jsonResponse(w, http.StatusCreated, AnalysisResponse{
		ID:        &id,
		Source:    result.Source,
		Analysis:  analysis,
		Role:      role,
		CreatedAt: &rec.CreatedAt,
	})
}

// handleEstimate previews the rule-based estimate without calling the AI service or storing
// anything.
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	req, role, ok := s.decodeAnalysisRequest(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, AnalysisResponse{
		Source:   types.SourceFallback,
		Analysis: estimator.Estimate(req.Skills, role),
		Role:     role,
	})
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	records, err := s.store.ListUserAnalyses(r.Context(), userID)
	if err != nil {
		serviceErrorResponse(w, r, err)
		return
	}
	if records == nil {
		records = []types.AnalysisRecord{}
	}
	jsonResponse(w, http.StatusOK, AnalysesResponse{Analyses: records})
}

func (s *Server) handleLatestAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	rec, err := s.store.GetLatestAnalysis(r.Context(), userID)
	if err != nil {
		serviceErrorResponse(w, r, err)
		return
	}
	if rec == nil {
		errorResponse(w, http.StatusNotFound, "No analysis found")
		return
	}
	jsonResponse(w, http.StatusOK, rec)
}
