package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-0123456789"

func TestNewJWTConfig(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		expiration string
		issuer     string
		want       time.Duration
		wantIssuer string
		wantErr    string
	}{
		{name: "defaults", secret: testSecret, want: 24 * time.Hour, wantIssuer: "skill-gap-analyzer"},
		{name: "custom expiration", secret: testSecret, expiration: "48", want: 48 * time.Hour, wantIssuer: "skill-gap-analyzer"},
		{name: "custom issuer", secret: testSecret, issuer: "campus", want: 24 * time.Hour, wantIssuer: "campus"},
		{name: "missing secret", wantErr: "JWT_SECRET is required"},
		{name: "short secret", secret: "short", wantErr: "at least 16 characters"},
		{name: "zero expiration", secret: testSecret, expiration: "0", wantErr: "at least 1 hour"},
		{name: "non-numeric expiration", secret: testSecret, expiration: "day", wantErr: "invalid JWT_EXPIRATION_HOURS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", tt.secret)
			t.Setenv("JWT_EXPIRATION_HOURS", tt.expiration)
			t.Setenv("JWT_ISSUER", tt.issuer)

			cfg, err := NewJWTConfig()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.secret, cfg.Secret)
			assert.Equal(t, tt.want, cfg.Expiration)
			assert.Equal(t, tt.wantIssuer, cfg.Issuer)
		})
	}
}
