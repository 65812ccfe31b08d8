package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Store backends for the known-code cache
const (
	StoreFile  = "file"
	StoreRedis = "redis"
)

// Config represents the application configuration
type Config struct {
	// Notification configuration
	WebhookURL       string
	MentionID        string
	NotifyOnFirstRun bool

	// Known-code store configuration
	StoreBackend string
	CacheDir     string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr   string
	RateLimitBlock time.Duration

	// Fetch configuration
	FetchTimeout time.Duration

	// Outputs
	OutputFile     string
	PushgatewayURL string
	ProfilesFile   string

	// Environment
	Environment string
}

var defaults = map[string]interface{}{
	"WEBHOOK_URL":              "",
	"MENTION_ID":               "",
	"NOTIFY_ON_FIRST_RUN":      false,
	"STORE_BACKEND":            StoreFile,
	"CACHE_DIR":                ".",
	"REDIS_ADDR":               "localhost:6379",
	"REDIS_DB":                 0,
	"REDIS_STREAM":             "",
	"REDIS_STREAM_COUNT":       1,
	"REDIS_STREAM_MAX_LENGTH":  1000,
	"MEMCACHE_ADDR":            "",
	"RATE_LIMIT_BLOCK_SECONDS": 300,
	"FETCH_TIMEOUT_SECONDS":    10,
	"OUTPUT_FILE":              "",
	"PUSHGATEWAY_URL":          "",
	"PROFILES_FILE":            "",
	"HOYO_ENVIRONMENT":         "development",
}

// New returns a viper instance bound to the environment with defaults applied.
// Callers may bind command line flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	return v
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return Load(New())
}

// Load reads the configuration out of v
func Load(v *viper.Viper) *Config {
	return &Config{
		WebhookURL:           v.GetString("WEBHOOK_URL"),
		MentionID:            v.GetString("MENTION_ID"),
		NotifyOnFirstRun:     v.GetBool("NOTIFY_ON_FIRST_RUN"),
		StoreBackend:         v.GetString("STORE_BACKEND"),
		CacheDir:             v.GetString("CACHE_DIR"),
		RedisAddr:            v.GetString("REDIS_ADDR"),
		RedisDB:              v.GetInt("REDIS_DB"),
		RedisStream:          v.GetString("REDIS_STREAM"),
		RedisStreamCount:     v.GetInt("REDIS_STREAM_COUNT"),
		RedisStreamMaxLength: v.GetInt("REDIS_STREAM_MAX_LENGTH"),
		MemcacheAddr:         v.GetString("MEMCACHE_ADDR"),
		RateLimitBlock:       time.Duration(v.GetInt("RATE_LIMIT_BLOCK_SECONDS")) * time.Second,
		FetchTimeout:         time.Duration(v.GetInt("FETCH_TIMEOUT_SECONDS")) * time.Second,
		OutputFile:           v.GetString("OUTPUT_FILE"),
		PushgatewayURL:       v.GetString("PUSHGATEWAY_URL"),
		ProfilesFile:         v.GetString("PROFILES_FILE"),
		Environment:          v.GetString("HOYO_ENVIRONMENT"),
	}
}

// Validate checks the configuration for values the worker cannot run with
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreFile, StoreRedis:
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.RedisStream != "" && c.RedisStreamCount <= 0 {
		return fmt.Errorf("REDIS_STREAM_COUNT must be positive, got %d", c.RedisStreamCount)
	}
	if c.RedisStreamMaxLength < 0 {
		return fmt.Errorf("REDIS_STREAM_MAX_LENGTH must not be negative, got %d", c.RedisStreamMaxLength)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT_SECONDS must be positive")
	}
	if c.MemcacheAddr != "" && c.RateLimitBlock <= 0 {
		return fmt.Errorf("RATE_LIMIT_BLOCK_SECONDS must be positive when MEMCACHE_ADDR is set")
	}
	return nil
}

// IsProduction reports whether the worker runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
