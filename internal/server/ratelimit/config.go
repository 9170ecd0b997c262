package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string // exact path, or a prefix when it ends in "/"
	Method string
	Limit  int // requests per Window; 0 means unlimited
	Window time.Duration
	Burst  int // defaults to Limit
}

// LoadConfig reads RATE_LIMIT_* environment variables. RATE_LIMIT_ANALYSES_PER_HOUR overrides
// the AI analysis budget per client.
func LoadConfig() *Config {
	if !getEnvBool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	endpoints := DefaultEndpointConfigs()
	if n := getEnvInt("RATE_LIMIT_ANALYSES_PER_HOUR", 0); n > 0 {
		for i := range endpoints {
			if endpoints[i].Path == "/v1/analyses" && endpoints[i].Method == "POST" {
				endpoints[i].Limit = n
			}
		}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", 1000),
		DefaultWindow:   getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       parseIPList(getEnvString("RATE_LIMIT_WHITELIST", "")),
		Blacklist:       parseIPList(getEnvString("RATE_LIMIT_BLACKLIST", "")),
		EndpointConfigs: endpoints,
	}
}

// DefaultEndpointConfigs returns the per-endpoint limits applied on top of the default.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// AI analysis calls are the expensive path.
		{Path: "/v1/analyses", Method: "POST", Limit: 10, Window: time.Hour, Burst: 3},
		{Path: "/v1/analyses/estimate", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},

		// Credential endpoints are limited to slow down guessing.
		{Path: "/v1/auth/login", Method: "POST", Limit: 20, Window: time.Minute, Burst: 5},
		{Path: "/v1/auth/register", Method: "POST", Limit: 10, Window: time.Minute, Burst: 3},
		{Path: "/v1/me/password", Method: "PUT", Limit: 10, Window: time.Minute, Burst: 3},

		{Path: "/v1/me/", Method: "PUT", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/v1/admin/", Method: "GET", Limit: 120, Window: time.Minute, Burst: 20},
	}
}

// getEnvString gets an environment variable as a string with a default value.
func getEnvString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as a boolean with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration gets an environment variable as a duration with a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a map.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	if list == "" {
		return result
	}

	ips := strings.Split(list, ",")
	for _, ip := range ips {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}

	return result
}

