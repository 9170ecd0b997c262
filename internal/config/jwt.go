package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	defaultJWTExpirationHours = 24
	defaultJWTIssuer          = "skill-gap-analyzer"
	minJWTSecretLength        = 16
)

// JWTConfig holds the signing secret and lifetime of session tokens.
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// NewJWTConfig reads JWT_SECRET (required), JWT_EXPIRATION_HOURS (default 24) and
// JWT_ISSUER.
func NewJWTConfig() (*JWTConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	hours := defaultJWTExpirationHours
	if v := os.Getenv("JWT_EXPIRATION_HOURS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %w", err)
		}
		hours = n
	}

	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = defaultJWTIssuer
	}

	cfg := &JWTConfig{
		Secret:     secret,
		Expiration: time.Duration(hours) * time.Hour,
		Issuer:     issuer,
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *JWTConfig) normalize() error {
	if len(c.Secret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if c.Expiration < time.Hour {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %s", c.Expiration)
	}
	return nil
}
