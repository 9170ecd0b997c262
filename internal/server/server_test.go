package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonathan/skill-gap-analyzer/internal/analytics"
	"github.com/jonathan/skill-gap-analyzer/internal/analyzer"
	"github.com/jonathan/skill-gap-analyzer/internal/cache"
	"github.com/jonathan/skill-gap-analyzer/internal/catalog"
	"github.com/jonathan/skill-gap-analyzer/internal/config"
	"github.com/jonathan/skill-gap-analyzer/internal/db/sqlitedb"
	"github.com/jonathan/skill-gap-analyzer/internal/estimator"
	"github.com/jonathan/skill-gap-analyzer/internal/server/ratelimit"
	"github.com/jonathan/skill-gap-analyzer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAdminEmail = "dean@campus.edu"
	testPassword   = "secret123"
)

// fakeAnalyzer answers with the estimator unless told otherwise.
type fakeAnalyzer struct {
	calls  atomic.Int32
	source types.AnalysisSource
	score  *int
	err    error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, skills []string, role types.RoleCatalogEntry) (*analyzer.Result, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	a := estimator.Estimate(skills, role)
	if f.score != nil {
		a.ReadinessScore = *f.score
	}
	source := f.source
	if source == "" {
		source = types.SourceAI
	}
	return &analyzer.Result{Analysis: a, Source: source}, nil
}

type testHarness struct {
	t        *testing.T
	server   *Server
	store    *sqlitedb.DB
	analyzer *fakeAnalyzer
}

func newTestHarness(t *testing.T, configure ...func(*Config)) *testHarness {
	t.Helper()
	ctx := context.Background()

	store, err := sqlitedb.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cat, err := catalog.Load()
	require.NoError(t, err)

	memo, err := cache.NewLocal(1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = memo.Close() })

	cfg := Config{
		Port:       0,
		CORSOrigin: "https://campus.example",
		RateLimit:  &ratelimit.Config{Enabled: false},
	}
	for _, fn := range configure {
		fn(&cfg)
	}

	fake := &fakeAnalyzer{}
	srv, err := New(cfg, Deps{
		Store:     store,
		Catalog:   cat,
		Analyzer:  fake,
		Analytics: analytics.NewService(store, memo, time.Minute),
		JWT:       &config.JWTConfig{Secret: testJWTSecret, Expiration: time.Hour, Issuer: "skill-gap-analyzer"},
		Passwords: &config.PasswordConfig{BcryptCost: bcrypt.MinCost},
		IsAdminEmail: func(email string) bool {
			return email == testAdminEmail
		},
	})
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	return &testHarness{t: t, server: srv, store: store, analyzer: fake}
}

func (h *testHarness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(h.t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (h *testHarness) register(name, email string) (string, *types.User) {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"name": name, "email": email, "password": testPassword,
	})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeBody[types.LoginResponse](h.t, rec)
	return resp.Token, resp.User
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	msg, _ := decodeBody[map[string]any](t, rec)["error"].(string)
	return msg
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Config{}, Deps{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store is required")
}

func TestHealth(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody[map[string]string](t, rec)["status"])

	require.NoError(t, h.store.Close())
	rec = h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	h := newTestHarness(t)

	token, user := h.register("Asha Rao", "Asha@Campus.edu")
	require.NotEmpty(t, token)
	assert.Equal(t, "asha@campus.edu", user.Email)
	assert.Equal(t, types.RoleStudent, user.Role)
	assert.True(t, user.PasswordSet)
	assert.NotNil(t, user.Skills)

	rec := h.do(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"name": "Asha Again", "email": "asha@campus.edu", "password": testPassword,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "email already registered")

	rec = h.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "ASHA@campus.edu", "password": testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decodeBody[types.LoginResponse](t, rec)
	assert.Equal(t, user.ID, login.User.ID)
	assert.NotEmpty(t, login.Token)

	for _, body := range []map[string]string{
		{"email": "asha@campus.edu", "password": "wrong-password"},
		{"email": "nobody@campus.edu", "password": testPassword},
	} {
		rec = h.do(http.MethodPost, "/v1/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid email or password", errorMessage(t, rec))
	}
}

func TestAuth_AdminEmailsBecomeAdmins(t *testing.T) {
	h := newTestHarness(t)

	_, admin := h.register("Dean", "Dean@Campus.edu")
	assert.Equal(t, types.RoleAdmin, admin.Role)

	_, student := h.register("Student", "student@campus.edu")
	assert.Equal(t, types.RoleStudent, student.Role)
}

func TestAuth_RegisterValidation(t *testing.T) {
	h := newTestHarness(t)

	tests := []struct {
		name    string
		body    any
		wantMsg string
	}{
		{"invalid json", "{not json", "Invalid request body"},
		{"missing name", map[string]string{"email": "a@b.co", "password": testPassword}, "Name - required"},
		{"bad email", map[string]string{"name": "A", "email": "not-an-email", "password": testPassword}, "Email - email"},
		{"short password", map[string]string{"name": "A", "email": "a@b.co", "password": "12345"}, "Password - min"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(http.MethodPost, "/v1/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, errorMessage(t, rec), tt.wantMsg)
		})
	}
}

func TestMe_RequiresToken(t *testing.T) {
	h := newTestHarness(t)

	for _, token := range []string{"", "not-a-token"} {
		rec := h.do(http.MethodGet, "/v1/me", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Unauthorized", errorMessage(t, rec))
	}
}

func TestMe_ProfileAndPassword(t *testing.T) {
	h := newTestHarness(t)
	token, user := h.register("Ravi", "ravi@campus.edu")

	rec := h.do(http.MethodGet, "/v1/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.ID, decodeBody[types.User](t, rec).ID)

	rec = h.do(http.MethodPut, "/v1/me/profile", token, map[string]any{
		"branch":          "Computer Science",
		"year":            3,
		"career_interest": "Backend Developer",
		"skills":          []string{" Go ", "SQL", "sql", ""},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[types.User](t, rec)
	assert.Equal(t, "Computer Science", updated.Branch)
	assert.Equal(t, 3, updated.Year)
	assert.Equal(t, []string{"Go", "SQL"}, updated.Skills)

	rec = h.do(http.MethodPut, "/v1/me/profile", token, map[string]any{"year": 9})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPut, "/v1/me/password", token, map[string]string{
		"current_password": "not-it", "new_password": "brand-new-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPut, "/v1/me/password", token, map[string]string{
		"current_password": testPassword, "new_password": "brand-new-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "ravi@campus.edu", "password": "brand-new-pass"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(http.MethodGet, "/v1/catalog/roles", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[RolesResponse](t, rec).Roles, 8)

	rec = h.do(http.MethodGet, "/v1/catalog/roles/data-analyst", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Data Analyst", decodeBody[types.RoleCatalogEntry](t, rec).RoleName)

	rec = h.do(http.MethodGet, "/v1/catalog/roles/astronaut", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "career role not found: astronaut", errorMessage(t, rec))

	rec = h.do(http.MethodGet, "/v1/catalog/options", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	opts := decodeBody[catalog.Options](t, rec)
	assert.Equal(t, []int{1, 2, 3, 4}, opts.Years)
	assert.Contains(t, opts.Branches, "Computer Science")
}

func TestAnalyses_CreateAndRead(t *testing.T) {
	h := newTestHarness(t)
	token, user := h.register("Meera", "meera@campus.edu")
	overflow := 140
	h.analyzer.score = &overflow

	rec := h.do(http.MethodGet, "/v1/analyses/latest", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodPost, "/v1/analyses", token, map[string]any{
		"role_id": "data-analyst",
		"skills":  []string{"Python", " SQL ", "python"},
		"branch":  "Information Technology",
		"year":    2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[AnalysisResponse](t, rec)
	require.NotNil(t, created.ID)
	require.NotNil(t, created.CreatedAt)
	assert.Equal(t, types.SourceAI, created.Source)
	assert.Equal(t, "data-analyst", created.Role.ID)
	assert.Equal(t, 100, created.Analysis.ReadinessScore)
	assert.Equal(t, int32(1), h.analyzer.calls.Load())

	rec = h.do(http.MethodGet, "/v1/me", token, nil)
	me := decodeBody[types.User](t, rec)
	assert.Equal(t, "Data Analyst", me.CareerInterest)
	assert.Equal(t, []string{"Python", "SQL"}, me.Skills)
	assert.Equal(t, "Information Technology", me.Branch)
	assert.Equal(t, 2, me.Year)

	rec = h.do(http.MethodGet, "/v1/analyses/latest", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	latest := decodeBody[types.AnalysisRecord](t, rec)
	assert.Equal(t, *created.ID, latest.ID)
	assert.Equal(t, user.ID, latest.UserID)
	assert.Equal(t, "Data Analyst", latest.CareerRole)
	assert.Equal(t, 100, latest.ReadinessScore)
	assert.Equal(t, []string{"Python", "SQL"}, latest.MatchedSkills)

	rec = h.do(http.MethodPost, "/v1/analyses", token, map[string]any{
		"role_id": "Cloud Engineer",
		"skills":  []string{"Linux"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.do(http.MethodGet, "/v1/analyses", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[AnalysesResponse](t, rec).Analyses
	require.Len(t, list, 2)
	assert.Equal(t, "Cloud Engineer", list[0].CareerRole)
	assert.Equal(t, "Data Analyst", list[1].CareerRole)

	rec = h.do(http.MethodGet, "/v1/me", token, nil)
	me = decodeBody[types.User](t, rec)
	assert.Equal(t, "Information Technology", me.Branch, "branch is kept when not resent")
	assert.Equal(t, "Cloud Engineer", me.CareerInterest)
}

func TestAnalyses_Validation(t *testing.T) {
	h := newTestHarness(t)
	token, _ := h.register("Kiran", "kiran@campus.edu")

	tests := []struct {
		name    string
		body    any
		wantMsg string
	}{
		{"invalid json", "[", "Invalid request body"},
		{"missing role", map[string]any{"skills": []string{"Go"}}, "RoleID - required"},
		{"no skills", map[string]any{"role_id": "data-analyst", "skills": []string{}}, "Skills - min"},
		{"blank skills", map[string]any{"role_id": "data-analyst", "skills": []string{" ", ""}}, "at least one skill is required"},
		{"unknown role", map[string]any{"role_id": "astronaut", "skills": []string{"Go"}}, "unknown career role astronaut"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(http.MethodPost, "/v1/analyses", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, errorMessage(t, rec), tt.wantMsg)
		})
	}
	assert.Zero(t, h.analyzer.calls.Load())
}

func TestAnalyses_AnalyzerFailure(t *testing.T) {
	h := newTestHarness(t)
	token, user := h.register("Neel", "neel@campus.edu")
	h.analyzer.err = context.Canceled

	rec := h.do(http.MethodPost, "/v1/analyses", token, map[string]any{
		"role_id": "devops-engineer",
		"skills":  []string{"Linux"},
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Analysis failed. Please try again.", errorMessage(t, rec))

	records, err := h.store.ListUserAnalyses(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAnalyses_EstimateDoesNotPersist(t *testing.T) {
	h := newTestHarness(t)
	token, user := h.register("Tara", "tara@campus.edu")

	rec := h.do(http.MethodPost, "/v1/analyses/estimate", token, map[string]any{
		"role_id": "frontend-developer",
		"skills":  []string{"html", "CSS", "JavaScript", "React", "Git"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[AnalysisResponse](t, rec)
	assert.Nil(t, resp.ID)
	assert.Equal(t, types.SourceFallback, resp.Source)
	assert.Equal(t, []string{"HTML", "CSS", "JavaScript", "React", "Git"}, resp.Analysis.MatchedSkills)
	assert.Equal(t, 65, resp.Analysis.ReadinessScore)

	assert.Zero(t, h.analyzer.calls.Load())
	records, err := h.store.ListUserAnalyses(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAdmin_RequiresAdminRole(t *testing.T) {
	h := newTestHarness(t)
	studentToken, _ := h.register("Student", "student@campus.edu")

	for _, path := range []string{"/v1/admin/analytics", "/v1/admin/students", "/v1/admin/analyses"} {
		rec := h.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)

		rec = h.do(http.MethodGet, path, studentToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
		assert.Equal(t, "Forbidden", errorMessage(t, rec))
	}
}

func TestAdmin_Dashboard(t *testing.T) {
	h := newTestHarness(t)
	adminToken, _ := h.register("Dean", testAdminEmail)
	aliceToken, alice := h.register("Alice", "alice@campus.edu")
	_, bob := h.register("Bob", "bob@campus.edu")

	rec := h.do(http.MethodGet, "/v1/admin/analytics", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "miss", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"totalStudents":0,"averageReadiness":0,"topMissingSkills":[],"roleWiseStats":[]}`, rec.Body.String())

	rec = h.do(http.MethodGet, "/v1/admin/analytics", adminToken, nil)
	assert.Equal(t, "hit", rec.Header().Get("X-Cache"))

	score := 40
	h.analyzer.score = &score
	rec = h.do(http.MethodPost, "/v1/analyses", aliceToken, map[string]any{"role_id": "data-analyst", "skills": []string{"SQL"}})
	require.Equal(t, http.StatusCreated, rec.Code)
	score = 71
	rec = h.do(http.MethodPost, "/v1/analyses", aliceToken, map[string]any{"role_id": "backend-developer", "skills": []string{"SQL"}})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.do(http.MethodGet, "/v1/admin/analytics", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "miss", rec.Header().Get("X-Cache"), "saving an analysis drops the memo")
	campus := decodeBody[types.CampusAnalytics](t, rec)
	assert.Equal(t, 1, campus.TotalStudents)
	assert.Equal(t, 56, campus.AverageReadiness)
	assert.Len(t, campus.RoleWiseStats, 2)

	rec = h.do(http.MethodGet, "/v1/admin/students", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	students := decodeBody[StudentsResponse](t, rec).Students
	require.Len(t, students, 2, "admins are not listed")
	byEmail := map[string]StudentSummary{}
	for _, s := range students {
		byEmail[s.Email] = s
	}
	require.Contains(t, byEmail, alice.Email)
	assert.Equal(t, 2, byEmail[alice.Email].AnalysisCount)
	require.NotNil(t, byEmail[alice.Email].LatestScore)
	assert.Equal(t, 71, *byEmail[alice.Email].LatestScore)
	assert.Equal(t, "Backend Developer", byEmail[alice.Email].LatestRole)
	assert.Zero(t, byEmail[bob.Email].AnalysisCount)
	assert.Nil(t, byEmail[bob.Email].LatestScore)

	rec = h.do(http.MethodGet, "/v1/admin/analyses?role=data%20analyst", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	filtered := decodeBody[AnalysesResponse](t, rec).Analyses
	require.Len(t, filtered, 1)
	assert.Equal(t, 40, filtered[0].ReadinessScore)

	rec = h.do(http.MethodGet, "/v1/admin/analyses?limit=1", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	limited := decodeBody[AnalysesResponse](t, rec).Analyses
	require.Len(t, limited, 1)
	assert.Equal(t, "Backend Developer", limited[0].CareerRole)

	rec = h.do(http.MethodGet, "/v1/admin/analyses?limit=zero", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORS(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(http.MethodOptions, "/v1/analyses", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://campus.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PUT")
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
}

func TestRateLimit(t *testing.T) {
	h := newTestHarness(t, func(cfg *Config) {
		cfg.RateLimit = &ratelimit.Config{
			Enabled:       true,
			DefaultLimit:  1000,
			DefaultWindow: time.Minute,
			EndpointConfigs: []ratelimit.EndpointConfig{
				{Path: "/v1/auth/login", Method: "POST", Limit: 2, Window: time.Minute, Burst: 2},
			},
		}
	})
	body := map[string]string{"email": "ghost@campus.edu", "password": testPassword}

	for i := 0; i < 2; i++ {
		rec := h.do(http.MethodPost, "/v1/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := h.do(http.MethodPost, "/v1/auth/login", "", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limit_exceeded", errorMessage(t, rec))

	rec = h.do(http.MethodGet, "/v1/catalog/roles", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "other endpoints have their own budget")
}

func TestServiceErrorResponse_HidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	serviceErrorResponse(rec, req, errors.New("pq: connection refused to 10.0.0.5"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", errorMessage(t, rec))
	assert.False(t, strings.Contains(rec.Body.String(), "10.0.0.5"))
}
