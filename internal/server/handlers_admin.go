package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/skill-gap-analyzer/internal/db"
	"github.com/jonathan/skill-gap-analyzer/internal/types"
	"golang.org/x/sync/errgroup"
)

// ---------------------------------------------------------------------
// Admin dashboard
// ---------------------------------------------------------------------

// StudentSummary is a student row on the admin dashboard.
type StudentSummary struct {
	*types.User
	AnalysisCount  int        `json:"analysis_count"`
	LatestRole     string     `json:"latest_role,omitempty"`
	LatestScore    *int       `json:"latest_score,omitempty"`
	LastAnalyzedAt *time.Time `json:"last_analyzed_at,omitempty"`
}

// StudentsResponse lists students, newest account first.
type StudentsResponse struct {
	Students []StudentSummary `json:"students"`
}

func (s *Server) handleCampusAnalytics(w http.ResponseWriter, r *http.Request) {
	result, cached, err := s.analytics.Campus(r.Context())
	if err != nil {
		serviceErrorResponse(w, r, err)
		return
	}
	if cached {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	jsonResponse(w, http.StatusOK, result)
}

// handleListStudents joins every student with a summary of their stored analyses.
func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	var (
		students []db.User
		records  []types.AnalysisRecord
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		students, err = s.store.ListStudents(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.store.ListAllAnalyses(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		serviceErrorResponse(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, StudentsResponse{Students: summarizeStudents(students, records)})
}

// summarizeStudents expects records newest first, so the first record seen per user is
// their latest.
func summarizeStudents(students []db.User, records []types.AnalysisRecord) []StudentSummary {
	byUser := make(map[uuid.UUID]*StudentSummary, len(students))
	out := make([]StudentSummary, len(students))
	for i := range students {
		out[i] = StudentSummary{User: convertDBUserToTypesUser(&students[i])}
		byUser[students[i].ID] = &out[i]
	}

	for i := range records {
		rec := &records[i]
		summary, ok := byUser[rec.UserID]
		if !ok {
			continue
		}
		summary.AnalysisCount++
		if summary.LatestScore == nil {
			score := rec.ReadinessScore
			summary.LatestScore = &score
			summary.LatestRole = rec.CareerRole
			summary.LastAnalyzedAt = &rec.CreatedAt
		}
	}
	return out
}

// handleListAllAnalyses lists every stored analysis, newest first. ?role= filters by career
// role name (case-insensitive) and ?limit= caps the result.
func (s *Server) handleListAllAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			serviceErrorResponse(w, r, &ErrValidation{Field: "limit", Message: "must be a positive integer"})
			return
		}
		limit = n
	}
	role := strings.TrimSpace(r.URL.Query().Get("role"))

	records, err := s.store.ListAllAnalyses(r.Context())
	if err != nil {
		serviceErrorResponse(w, r, err)
		return
	}

	out := make([]types.AnalysisRecord, 0, len(records))
	for _, rec := range records {
		if role != "" && !strings.EqualFold(rec.CareerRole, role) {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	jsonResponse(w, http.StatusOK, AnalysesResponse{Analyses: out})
}
