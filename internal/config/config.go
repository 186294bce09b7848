// Package config centralizes environment-driven configuration for the
// aggregator, mirroring the Getenv-with-defaults style of the teacher's
// interfaces/http.DefaultServerConfig, plus an optional YAML override
// file for detector thresholds.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable the spec calls out by env var, plus the
// matching/arbitrage thresholds that may additionally come from a YAML
// file named by CONFIG_FILE. Precedence: env var > YAML file > hardcoded
// default.
type Config struct {
	HTTPHost string
	HTTPPort int
	LogLevel string

	VenueABaseURL string
	VenueBBaseURL string
	VenueBAPIKey  string

	CacheTTLUnified  time.Duration
	CacheTTLMetadata time.Duration

	FetchStrategy string // minimal|smart|full
	MaxPages      int    // derived from FetchStrategy

	Thresholds Thresholds
}

// Thresholds groups the matching/arbitrage constants that a YAML file
// may override.
type Thresholds struct {
	MatchConfidence  float64 `yaml:"match_confidence_threshold"`
	MinProfitPct     float64 `yaml:"min_profit_pct"`
	MaxCombinedPrice float64 `yaml:"max_combined_price"`
}

func defaultThresholds() Thresholds {
	return Thresholds{
		MatchConfidence:  0.85,
		MinProfitPct:     2.0,
		MaxCombinedPrice: 0.95,
	}
}

// Load reads the process environment (and, if CONFIG_FILE is set, a YAML
// override file) and returns a populated Config.
func Load() Config {
	cfg := Config{
		HTTPHost:         "0.0.0.0",
		HTTPPort:         envInt("HTTP_PORT", 8080),
		LogLevel:         envString("LOG_LEVEL", "info"),
		VenueABaseURL:    envString("VENUE_A_BASE_URL", "https://venue-a.example.com/api"),
		VenueBBaseURL:    envString("VENUE_B_BASE_URL", "https://venue-b.example.com/api"),
		VenueBAPIKey:     os.Getenv("VENUE_B_API_KEY"),
		CacheTTLUnified:  envDurationMS("CACHE_TTL_UNIFIED_MS", 5*time.Minute),
		CacheTTLMetadata: envDurationMS("CACHE_TTL_METADATA_MS", 10*time.Minute),
		FetchStrategy:    envString("FETCH_STRATEGY", "smart"),
		Thresholds:       defaultThresholds(),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			var file struct {
				Thresholds Thresholds `yaml:"thresholds"`
			}
			if yaml.Unmarshal(data, &file) == nil {
				mergeThresholds(&cfg.Thresholds, file.Thresholds)
			}
		}
	}

	cfg.MaxPages = maxPagesFor(cfg.FetchStrategy)
	return cfg
}

func maxPagesFor(strategy string) int {
	switch strategy {
	case "minimal":
		return 1
	case "full":
		return 50
	default: // "smart" and unrecognized values
		return 2
	}
}

// mergeThresholds copies every non-zero field of src over dst; a field
// the file leaves zero (or omits) keeps its current value.
func mergeThresholds(dst *Thresholds, src Thresholds) {
	if src.MatchConfidence != 0 {
		dst.MatchConfidence = src.MatchConfidence
	}
	if src.MinProfitPct != 0 {
		dst.MinProfitPct = src.MinProfitPct
	}
	if src.MaxCombinedPrice != 0 {
		dst.MaxCombinedPrice = src.MaxCombinedPrice
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDurationMS(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Millisecond
		}
	}
	return def
}
