// Package analyzer runs the AI skill gap analysis and falls back to the deterministic
// estimator whenever the AI path cannot produce a usable result.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/skill-gap-analyzer/internal/cache"
	"github.com/jonathan/skill-gap-analyzer/internal/estimator"
	"github.com/jonathan/skill-gap-analyzer/internal/llm"
	"github.com/jonathan/skill-gap-analyzer/internal/parsing"
	"github.com/jonathan/skill-gap-analyzer/internal/prompts"
	"github.com/jonathan/skill-gap-analyzer/internal/types"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// ErrNoClient is logged when the service runs without an AI provider.
var ErrNoClient = errors.New("no AI client configured")

const cacheNamespace = "analysis"

// Options tunes the AI path.
type Options struct {
	// Tier selects the model; defaults to llm.TierStandard.
	Tier llm.ModelTier
	// Timeout bounds a single AI call including limiter wait; defaults to 60s.
	Timeout time.Duration
	// CacheTTL is how long AI results are reused; zero disables caching.
	CacheTTL time.Duration
	// RateLimit caps AI calls per second across the process; zero means unlimited.
	RateLimit rate.Limit
	// Burst is the limiter bucket size; defaults to 1.
	Burst int
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		Tier:      llm.TierStandard,
		Timeout:   60 * time.Second,
		CacheTTL:  24 * time.Hour,
		RateLimit: rate.Limit(1),
		Burst:     5,
	}
}

// Result is an analysis together with where it came from.
type Result struct {
	Analysis types.Analysis       `json:"analysis"`
	Source   types.AnalysisSource `json:"source"`
}

// Service is safe for concurrent use.
type Service struct {
	client  llm.Client
	cache   cache.Cache
	limiter *rate.Limiter
	opts    Options
	group   singleflight.Group
}

// New creates a Service. client may be nil, in which case every analysis uses the
// estimator; c may be nil to disable caching.
func New(client llm.Client, c cache.Cache, opts Options) *Service {
	if opts.Tier == "" {
		opts.Tier = llm.TierStandard
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if c == nil {
		c = cache.NewNoop()
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(opts.RateLimit, opts.Burst)
	}

	return &Service{
		client:  client,
		cache:   c,
		limiter: limiter,
		opts:    opts,
	}
}

// Analyze produces an analysis of skills against role. AI failures of any kind are logged
// and answered by the estimator; an error is returned only when ctx itself is done.
func (s *Service) Analyze(ctx context.Context, skills []string, role types.RoleCatalogEntry) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := log.With().Str("role_id", role.ID).Int("skills", len(skills)).Logger()
	key := s.cacheKey(skills, role)

	if s.client != nil && s.opts.CacheTTL > 0 {
		cached, ok, err := cache.GetJSON[types.Analysis](ctx, s.cache, key)
		if err != nil {
			logger.Warn().Err(err).Msg("analysis cache read failed")
		}
		if ok {
			logger.Debug().Msg("analysis served from cache")
			return &Result{Analysis: cached, Source: types.SourceCache}, nil
		}
	}

	start := time.Now()
	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.analyzeWithAI(ctx, key, skills, role)
	})

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Warn().Err(err).Dur("duration", time.Since(start)).Msg("AI analysis failed, using fallback estimate")
		return &Result{Analysis: estimator.Estimate(skills, role), Source: types.SourceFallback}, nil
	}

	logger.Info().Dur("duration", time.Since(start)).Bool("shared", shared).Msg("AI analysis completed")
	return &Result{Analysis: *v.(*types.Analysis), Source: types.SourceAI}, nil
}

// analyzeWithAI is shared by concurrent identical requests, so it runs detached from the
// first caller's cancellation and bounded by its own timeout.
func (s *Service) analyzeWithAI(ctx context.Context, key string, skills []string, role types.RoleCatalogEntry) (*types.Analysis, error) {
	if s.client == nil {
		return nil, ErrNoClient
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.Timeout)
	defer cancel()

	if s.limiter != nil {
		if err := s.limiter.Wait(callCtx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	prompt, err := prompts.BuildAnalysisPrompt(skills, role)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	raw, err := s.client.GenerateJSON(callCtx, prompt, s.opts.Tier)
	if err != nil {
		return nil, &parsing.APICallError{Message: "failed to generate analysis", Cause: err}
	}

	analysis, err := parsing.ParseAnalysis(raw, role)
	if err != nil {
		return nil, err
	}

	if s.opts.CacheTTL > 0 {
		if err := cache.SetJSON(callCtx, s.cache, key, analysis, s.opts.CacheTTL); err != nil {
			log.Warn().Err(err).Str("role_id", role.ID).Msg("analysis cache write failed")
		}
	}
	return analysis, nil
}

// cacheKey identifies an analysis by role, model and the normalized skill set, so the same
// skills in a different order or case share an entry.
func (s *Service) cacheKey(skills []string, role types.RoleCatalogEntry) string {
	model := ""
	if s.client != nil {
		model = s.client.GetModel(s.opts.Tier)
	}
	return cache.Key(cacheNamespace, role.ID, model, strings.Join(NormalizeSkills(skills), "\n"))
}

// NormalizeSkills trims, lower-cases, de-duplicates and sorts skills.
func NormalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
