package ratelimit

import (
	"strings"
)

// MatchEndpoint returns the configuration for a request, or nil to use the default limit.
// Exact paths win over prefixes (paths ending in "/"). GET /health is never limited.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" && method == "GET" {
		return &EndpointConfig{Path: path, Method: method}
	}

	for i := range configs {
		if configs[i].Path == path && configs[i].Method == method {
			return &configs[i]
		}
	}

	var best *EndpointConfig
	for i := range configs {
		c := &configs[i]
		if c.Method != method || !strings.HasSuffix(c.Path, "/") || !strings.HasPrefix(path, c.Path) {
			continue
		}
		if best == nil || len(c.Path) > len(best.Path) {
			best = c
		}
	}
	return best
}
