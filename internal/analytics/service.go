package analytics

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/skill-gap-analyzer/internal/cache"
	"github.com/jonathan/skill-gap-analyzer/internal/types"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// RecordSource returns every stored analysis record.
type RecordSource interface {
	ListAllAnalyses(ctx context.Context) ([]types.AnalysisRecord, error)
}

const refreshTimeout = 30 * time.Second

var versionKey = cache.Key("analytics-version", "campus")

// memoKey folds the memo version into the key so a refresh that raced an invalidation
// writes under a key nobody reads anymore, including on other instances sharing the cache.
func memoKey(version string) string {
	return cache.Key("analytics", "campus", version)
}

// Service memoizes campus analytics. The memo is dropped whenever a new record is saved
// and rebuilt on the next read or by the refresh job.
type Service struct {
	source RecordSource
	cache  cache.Cache
	ttl    time.Duration
	group  singleflight.Group
	// generation is bumped by Invalidate; a refresh that sees it change does not write.
	generation atomic.Int64
}

// NewService builds a memoizing service. A nil cache or non-positive ttl disables the memo.
func NewService(source RecordSource, c cache.Cache, ttl time.Duration) *Service {
	if c == nil || ttl <= 0 {
		c = cache.NewNoop()
	}
	return &Service{source: source, cache: c, ttl: ttl}
}

func (s *Service) version(ctx context.Context) string {
	v, ok, err := s.cache.Get(ctx, versionKey)
	if err != nil {
		log.Warn().Err(err).Msg("analytics memo version read failed")
	}
	if !ok {
		return ""
	}
	return string(v)
}

// Campus returns the campus analytics, serving the memo when present. cached reports
// whether the value came from the memo.
func (s *Service) Campus(ctx context.Context) (result types.CampusAnalytics, cached bool, err error) {
	key := memoKey(s.version(ctx))
	memo, ok, err := cache.GetJSON[types.CampusAnalytics](ctx, s.cache, key)
	if err != nil {
		log.Warn().Err(err).Msg("analytics memo read failed")
	}
	if ok {
		return memo, true, nil
	}

	// The flight is shared, so it must outlive the caller that started it.
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return s.Refresh(refreshCtx)
	})
	if err != nil {
		return types.CampusAnalytics{}, false, err
	}
	return v.(types.CampusAnalytics), false, nil
}

// Refresh recomputes the analytics from the record source and stores the memo. The memo is
// not written when an invalidation happened while the records were being read.
func (s *Service) Refresh(ctx context.Context) (types.CampusAnalytics, error) {
	generation := s.generation.Load()
	version := s.version(ctx)

	records, err := s.source.ListAllAnalyses(ctx)
	if err != nil {
		return types.CampusAnalytics{}, fmt.Errorf("failed to load analysis records: %w", err)
	}

	result := Aggregate(records)
	if s.generation.Load() != generation {
		log.Debug().Msg("analytics memo invalidated during refresh, not storing")
		return result, nil
	}
	if err := cache.SetJSON(ctx, s.cache, memoKey(version), result, s.ttl); err != nil {
		log.Warn().Err(err).Msg("analytics memo write failed")
	}
	return result, nil
}

// Invalidate drops the memo and moves every instance sharing the cache to a new memo key.
func (s *Service) Invalidate(ctx context.Context) error {
	s.generation.Add(1)
	old := s.version(ctx)
	if err := s.cache.Set(ctx, versionKey, []byte(uuid.NewString()), 0); err != nil {
		return fmt.Errorf("failed to invalidate analytics memo: %w", err)
	}
	if err := s.cache.Delete(ctx, memoKey(old)); err != nil {
		return fmt.Errorf("failed to invalidate analytics memo: %w", err)
	}
	return nil
}
