package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/skill-gap-analyzer/internal/analyzer"
	"github.com/jonathan/skill-gap-analyzer/internal/cache"
	"github.com/jonathan/skill-gap-analyzer/internal/catalog"
	"github.com/jonathan/skill-gap-analyzer/internal/config"
	"github.com/jonathan/skill-gap-analyzer/internal/db"
	"github.com/jonathan/skill-gap-analyzer/internal/db/sqlitedb"
	"github.com/jonathan/skill-gap-analyzer/internal/llm"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const sqliteScheme = "sqlite://"

// migrator is implemented by stores whose schema is applied by an explicit step.
type migrator interface {
	Migrate(ctx context.Context) ([]string, error)
}

// openDatabase picks the backend from the URL scheme: postgres:// and postgresql:// use
// PostgreSQL, sqlite://path uses an embedded SQLite file (sqlite://:memory: for a scratch store).
func openDatabase(ctx context.Context, databaseURL string) (db.Store, error) {
	switch {
	case databaseURL == "":
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return db.Connect(ctx, databaseURL)
	case strings.HasPrefix(databaseURL, sqliteScheme):
		path := strings.TrimPrefix(databaseURL, sqliteScheme)
		if path == "" {
			return nil, fmt.Errorf("sqlite DATABASE_URL needs a path, e.g. sqlite://skillgap.db")
		}
		return sqlitedb.Open(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme (want postgres://, postgresql:// or sqlite://)")
	}
}

func loadCatalog(cfg *config.AppConfig) (*catalog.Catalog, error) {
	if cfg.RoleCatalogPath != "" {
		return catalog.LoadFile(cfg.RoleCatalogPath)
	}
	return catalog.Load()
}

func newCache(ctx context.Context, cfg *config.AppConfig) (cache.Cache, error) {
	c, err := cache.New(ctx, cache.Config{
		Backend:       cfg.Cache.Backend,
		MaxSizeMB:     cfg.Cache.MaxSizeMB,
		RedisAddr:     cfg.Cache.RedisAddr,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
		KeyPrefix:     "skillgap:",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return c, nil
}

// newLLMClient returns nil when no API key is configured; the analyzer then answers every
// request with the estimator.
func newLLMClient(ctx context.Context, cfg *config.AppConfig) (llm.Client, error) {
	provider, err := llm.ParseProvider(cfg.AI.Provider)
	if err != nil {
		return nil, err
	}
	apiKey := cfg.AI.APIKey()
	if apiKey == "" {
		log.Warn().Str("provider", string(provider)).Msg("No AI API key configured, analyses will use the estimator")
		return nil, nil
	}

	llmConfig := llm.ConfigFor(provider)
	if cfg.AI.Model != "" {
		llmConfig = llmConfig.WithModel(llm.TierStandard, cfg.AI.Model)
	}
	client, err := llm.NewClient(ctx, llmConfig, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", provider, err)
	}
	return client, nil
}

func newAnalyzer(client llm.Client, c cache.Cache, cfg *config.AppConfig) *analyzer.Service {
	return analyzer.New(client, c, analyzer.Options{
		Tier:      llm.TierStandard,
		Timeout:   cfg.AI.Timeout,
		CacheTTL:  cfg.AI.CacheTTL,
		RateLimit: rate.Limit(cfg.AI.RateLimit),
		Burst:     cfg.AI.Burst,
	})
}

// parseSkills splits a comma-separated flag value, dropping blanks.
func parseSkills(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
