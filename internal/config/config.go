// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	DataDir     string            `mapstructure:"data_dir"`
	Location    string            `mapstructure:"location"`
	Server      ServerConfig      `mapstructure:"server"`
	Crawler     CrawlerConfig     `mapstructure:"crawler"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Discovery   DiscoveryConfig   `mapstructure:"discovery"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig controls the HTTP trigger surface.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CrawlerConfig governs subdivision and external call pacing.
type CrawlerConfig struct {
	MaxDepth       int     `mapstructure:"max_depth"`
	PageSize       int     `mapstructure:"page_size"`
	Activity       string  `mapstructure:"activity"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// HTTPConfig configures outbound HTTP behavior.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// DiscoveryConfig points at the discovery API.
type DiscoveryConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	AccessToken string `mapstructure:"access_token"`
}

// LeaderboardConfig points at the public segment pages scraped for
// enrichment.
type LeaderboardConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	UserAgent string `mapstructure:"user_agent"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment. The config file is
// optional; defaults plus SEGSCOUT_* environment variables suffice.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SEGSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "data")
	v.SetDefault("location", "oxford")
	v.SetDefault("server.port", 8080)
	v.SetDefault("crawler.max_depth", 8)
	v.SetDefault("crawler.page_size", 10)
	v.SetDefault("crawler.activity", "running")
	v.SetDefault("crawler.rate_limit_rps", 1.5)
	v.SetDefault("crawler.rate_limit_burst", 3)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("discovery.base_url", "https://www.strava.com/api/v3")
	v.SetDefault("leaderboard.base_url", "https://www.strava.com")
	v.SetDefault("leaderboard.user_agent", "segscout/0.1")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir must be set")
	}
	if strings.TrimSpace(c.Location) == "" {
		return fmt.Errorf("location must be set")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawler.MaxDepth < 0 {
		return fmt.Errorf("crawler.max_depth must be >= 0")
	}
	if c.Crawler.PageSize <= 0 {
		return fmt.Errorf("crawler.page_size must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	return nil
}

// SegmentsPath is the segment store location for the configured area.
func (c Config) SegmentsPath() string {
	return filepath.Join(c.DataDir, c.Location, "segments.json")
}

// RegionsPath is the region store location for the configured area.
func (c Config) RegionsPath() string {
	return filepath.Join(c.DataDir, c.Location, "regions.json")
}

// HTTPTimeout converts the timeout config into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
