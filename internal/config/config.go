// Package config loads service configuration from an optional YAML file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is read when CONFIG_PATH is unset and the file exists.
const DefaultConfigPath = "config.yaml"

// AppConfig is the service configuration. Environment variables override file values.
type AppConfig struct {
	Port            int             `yaml:"port"`
	DatabaseURL     string          `yaml:"database_url"`
	RoleCatalogPath string          `yaml:"role_catalog_path"`
	AdminEmails     []string        `yaml:"admin_emails"`
	CORSOrigin      string          `yaml:"cors_origin"`
	Log             LogConfig       `yaml:"log"`
	AI              AIConfig        `yaml:"ai"`
	Cache           CacheConfig     `yaml:"cache"`
	Analytics       AnalyticsConfig `yaml:"analytics"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AIConfig configures the analysis provider. API keys are only read from the environment.
type AIConfig struct {
	Provider  string        `yaml:"provider"`
	Model     string        `yaml:"model"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"`
	Burst     int           `yaml:"burst"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`

	GeminiAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`
	OpenAIAPIKey    string `yaml:"-"`
}

// APIKey returns the key for the configured provider.
func (c AIConfig) APIKey() string {
	switch strings.ToLower(c.Provider) {
	case "anthropic":
		return c.AnthropicAPIKey
	case "openai":
		return c.OpenAIAPIKey
	default:
		return c.GeminiAPIKey
	}
}

// CacheConfig selects the memo cache backend.
type CacheConfig struct {
	Backend       string `yaml:"backend"`
	MaxSizeMB     int    `yaml:"max_size_mb"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"-"`
	RedisDB       int    `yaml:"redis_db"`
}

// AnalyticsConfig controls the campus analytics memo and its warm-up job.
type AnalyticsConfig struct {
	CacheTTL    time.Duration `yaml:"cache_ttl"`
	RefreshCron string        `yaml:"refresh_cron"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() AppConfig {
	return AppConfig{
		Port:       8080,
		CORSOrigin: "*",
		Log:        LogConfig{Level: "info", Format: "console"},
		AI: AIConfig{
			Provider:  "gemini",
			Timeout:   60 * time.Second,
			RateLimit: 1,
			Burst:     5,
			CacheTTL:  24 * time.Hour,
		},
		Cache: CacheConfig{
			Backend:   "local",
			MaxSizeMB: 64,
		},
		Analytics: AnalyticsConfig{
			CacheTTL:    5 * time.Minute,
			RefreshCron: "*/15 * * * *",
		},
	}
}

// Load reads the file named by CONFIG_PATH (or config.yaml when present) and applies
// environment overrides.
func Load() (*AppConfig, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		if _, err := os.Stat(DefaultConfigPath); err == nil {
			path = DefaultConfigPath
		}
	}
	return LoadFile(path)
}

// LoadFile reads path (skipped when empty) and applies environment overrides.
func LoadFile(path string) (*AppConfig, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) applyEnv() error {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	collect(envInt("PORT", &c.Port))
	envString("DATABASE_URL", &c.DatabaseURL)
	envString("ROLE_CATALOG_PATH", &c.RoleCatalogPath)
	envString("CORS_ORIGIN", &c.CORSOrigin)
	if v := os.Getenv("ADMIN_EMAILS"); v != "" {
		c.AdminEmails = splitList(v)
	}

	envString("LOG_LEVEL", &c.Log.Level)
	envString("LOG_FORMAT", &c.Log.Format)

	envString("LLM_PROVIDER", &c.AI.Provider)
	envString("LLM_MODEL", &c.AI.Model)
	envString("GEMINI_API_KEY", &c.AI.GeminiAPIKey)
	envString("ANTHROPIC_API_KEY", &c.AI.AnthropicAPIKey)
	envString("OPENAI_API_KEY", &c.AI.OpenAIAPIKey)
	collect(envDuration("AI_TIMEOUT", &c.AI.Timeout))
	collect(envFloat("AI_RATE_LIMIT", &c.AI.RateLimit))
	collect(envInt("AI_RATE_BURST", &c.AI.Burst))
	collect(envDuration("AI_CACHE_TTL", &c.AI.CacheTTL))

	envString("CACHE_BACKEND", &c.Cache.Backend)
	collect(envInt("CACHE_MAX_SIZE_MB", &c.Cache.MaxSizeMB))
	envString("REDIS_ADDR", &c.Cache.RedisAddr)
	envString("REDIS_PASSWORD", &c.Cache.RedisPassword)
	collect(envInt("REDIS_DB", &c.Cache.RedisDB))

	collect(envDuration("ANALYTICS_CACHE_TTL", &c.Analytics.CacheTTL))
	// An explicitly empty value disables the warm-up job.
	if v, ok := os.LookupEnv("ANALYTICS_REFRESH_CRON"); ok {
		c.Analytics.RefreshCron = strings.TrimSpace(v)
	}

	return errors.Join(errs...)
}

// Validate checks value ranges and enumerations.
func (c *AppConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: port must be between 1 and 65535, got %d", c.Port)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("config error: unknown log level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("config error: log format must be console or json, got %q", c.Log.Format)
	}
	switch strings.ToLower(c.AI.Provider) {
	case "", "gemini", "anthropic", "openai":
	default:
		return fmt.Errorf("config error: unknown AI provider %q", c.AI.Provider)
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("config error: ai timeout must be positive")
	}
	if c.AI.RateLimit < 0 || c.AI.Burst < 0 {
		return fmt.Errorf("config error: ai rate limit and burst must be non-negative")
	}
	if c.AI.CacheTTL < 0 || c.Analytics.CacheTTL < 0 {
		return fmt.Errorf("config error: cache TTLs must be non-negative")
	}
	switch strings.ToLower(c.Cache.Backend) {
	case "local", "none":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("config error: REDIS_ADDR is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("config error: cache backend must be local, redis or none, got %q", c.Cache.Backend)
	}
	return nil
}

// IsAdminEmail reports whether email is listed in AdminEmails, ignoring case.
func (c *AppConfig) IsAdminEmail(email string) bool {
	email = strings.TrimSpace(email)
	for _, admin := range c.AdminEmails {
		if strings.EqualFold(admin, email) {
			return true
		}
	}
	return false
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func envFloat(key string, dst *float64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = f
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
