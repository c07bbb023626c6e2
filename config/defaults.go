package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.addr", ":8787")
	v.SetDefault("server.debounce_ms", 300) // Live-search debounce delay

	// Database defaults
	v.SetDefault("database.path", "resolve.db")

	// Remote entity API defaults (empty base_url = local-only)
	v.SetDefault("remote.base_url", "")
	v.SetDefault("remote.timeout_seconds", 5)
	v.SetDefault("remote.requests_per_second", 10.0)

	// Local collection cache defaults
	v.SetDefault("cache.ttl_seconds", 60)

	// Synonym groups file (empty = built-in groups)
	v.SetDefault("synonyms.path", "")

	// Matcher defaults
	v.SetDefault("matcher.max_distance", 3) // Levenshtein cap
	v.SetDefault("matcher.min_score", 0.6)  // Edit-distance score floor
	v.SetDefault("matcher.max_results", 10)

	// Resolver defaults
	v.SetDefault("resolver.near_exact", 0.85) // Create-suppression threshold
	v.SetDefault("resolver.source_limit", 50)
}
