// Package config loads the resolve service configuration with Viper:
// defaults, an optional TOML file, and RESOLVE_-prefixed environment
// overrides. It also provides the fsnotify watcher that live-reloads
// the synonyms file.
package config

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Synonyms SynonymsConfig `mapstructure:"synonyms"`
	Matcher  MatcherConfig  `mapstructure:"matcher"`
	Resolver ResolverConfig `mapstructure:"resolver"`
}

type ServerConfig struct {
	Addr       string `mapstructure:"addr"`
	DebounceMs int    `mapstructure:"debounce_ms"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// RemoteConfig points at the backend entity API. An empty BaseURL
// disables the remote source; resolvers then run local-only.
type RemoteConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

type CacheConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

// SynonymsConfig names the YAML synonym groups file. An empty path
// falls back to the built-in groups.
type SynonymsConfig struct {
	Path string `mapstructure:"path"`
}

type MatcherConfig struct {
	MaxDistance int     `mapstructure:"max_distance"`
	MinScore    float64 `mapstructure:"min_score"`
	MaxResults  int     `mapstructure:"max_results"`
}

type ResolverConfig struct {
	NearExact   float64 `mapstructure:"near_exact"`
	SourceLimit int     `mapstructure:"source_limit"`
}
