package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Provider  ProviderConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Gallery   GalleryConfig
	Probe     ProbeConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ProviderConfig selects the extraction provider
type ProviderConfig struct {
	Name           string        `mapstructure:"name"` // "gemini", "openai" or "claude"
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Search         bool          `mapstructure:"search"`
	PromptFile     string        `mapstructure:"prompt_file"`
	ThinkingBudget int           `mapstructure:"thinking_budget"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP    int `mapstructure:"per_ip"`   // requests per minute
	Provider int `mapstructure:"provider"` // requests per hour
}

// GalleryConfig tunes the normalization pipeline
type GalleryConfig struct {
	Placeholder   string            `mapstructure:"placeholder"`
	VendorMarkers []string          `mapstructure:"vendor_markers"`
	Families      []CDNFamilyConfig `mapstructure:"families"`
}

// CDNFamilyConfig describes a CDN whose URLs carry resolution markers
type CDNFamilyConfig struct {
	Name    string   `mapstructure:"name"`
	Hosts   []string `mapstructure:"hosts"`
	Markers []string `mapstructure:"markers"`
}

// ProbeConfig controls the listing page prober
type ProbeConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Timeout           time.Duration `mapstructure:"timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes"`
	AllowPrivateHosts bool          `mapstructure:"allow_private_hosts"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// IsProduction reports whether the server runs in production mode
func (c ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/propview/")

	// PROPVIEW_CACHE_REDIS_URL -> cache.redis_url
	v.SetEnvPrefix("PROPVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadEnvFile loads a .env file from the working directory if one exists.
// Variables already set in the environment win.
func LoadEnvFile() error {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values. Every key needs a default
// so that AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// Provider defaults
	v.SetDefault("provider.name", "gemini")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.model", "gemini-2.5-pro")
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.timeout", "120s")
	v.SetDefault("provider.search", true)
	v.SetDefault("provider.prompt_file", "")
	v.SetDefault("provider.thinking_budget", 0)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "24h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 30)
	v.SetDefault("ratelimit.provider", 1000)

	// Gallery defaults
	v.SetDefault("gallery.placeholder", "Property View")
	v.SetDefault("gallery.vendor_markers", []string{"zillowstatic", "rdcpix", "images.kw.com"})
	v.SetDefault("gallery.families", []map[string]any{
		{
			"name":    "zillow",
			"hosts":   []string{"zillowstatic"},
			"markers": []string{"_p_f", "_p_h"},
		},
	})

	// Probe defaults
	v.SetDefault("probe.enabled", false)
	v.SetDefault("probe.timeout", "10s")
	v.SetDefault("probe.user_agent", "Mozilla/5.0 (compatible; PropViewBot/1.0)")
	v.SetDefault("probe.max_body_bytes", 2<<20)
	v.SetDefault("probe.allow_private_hosts", false)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Provider.APIKey == "" {
		return fmt.Errorf("provider API key is required (set PROPVIEW_PROVIDER_API_KEY)")
	}

	switch config.Provider.Name {
	case "gemini", "openai", "claude":
	default:
		return fmt.Errorf("provider name must be 'gemini', 'openai' or 'claude', got: %s", config.Provider.Name)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %s", config.Cache.TTL)
	}

	for i, family := range config.Gallery.Families {
		if family.Name == "" || len(family.Hosts) == 0 || len(family.Markers) == 0 {
			return fmt.Errorf("gallery family %d needs a name, hosts and markers", i)
		}
	}

	if config.Log.Format != "json" && config.Log.Format != "console" {
		return fmt.Errorf("log format must be 'json' or 'console', got: %s", config.Log.Format)
	}

	return nil
}
