package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Quality
	Quality QualityConfig

	// Fetching
	Fetch FetchConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	MetricsPath    string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds database configuration.
// An empty URL selects the embedded SQLite file at SQLitePath.
type DatabaseConfig struct {
	URL        string
	SQLitePath string

	// Connection Pool (PostgreSQL only)
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// WriteTimeout bounds each fetch metadata write
	WriteTimeout time.Duration
}

// QualityConfig holds contract and health monitoring settings
type QualityConfig struct {
	ContractsFile       string
	ChecksEnabled       bool
	HealthSchedule      string
	HealthCacheTTL      time.Duration
	HealthWindow        time.Duration
	ConsecutiveFailures int
}

// FetchConfig holds settings for the tracked HTTP client
type FetchConfig struct {
	Timeout    time.Duration
	MaxRetries int
	RateLimit  int // requests per second per source, 0 disables
}

// UsesSQLite reports whether the embedded SQLite backend is selected
func (d DatabaseConfig) UsesSQLite() bool {
	return d.URL == ""
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			SQLitePath:      getEnv("SQLITE_PATH", "evl_foundation.db"),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
			WriteTimeout:    getEnvAsDuration("DB_WRITE_TIMEOUT", "5s"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// Quality
		Quality: QualityConfig{
			ContractsFile:       getEnv("CONTRACTS_FILE", ""),
			ChecksEnabled:       getEnvAsBool("QUALITY_CHECKS_ENABLED", false),
			HealthSchedule:      getEnv("HEALTH_SCHEDULE", "0 */15 * * * *"),
			HealthCacheTTL:      getEnvAsDuration("HEALTH_CACHE_TTL", "10m"),
			HealthWindow:        getEnvAsDuration("HEALTH_WINDOW", "24h"),
			ConsecutiveFailures: getEnvAsInt("ALERT_CONSECUTIVE_FAILURES", 3),
		},

		// Fetching
		Fetch: FetchConfig{
			Timeout:    getEnvAsDuration("FETCH_TIMEOUT", "30s"),
			MaxRetries: getEnvAsInt("FETCH_MAX_RETRIES", 3),
			RateLimit:  getEnvAsInt("FETCH_RATE_LIMIT", 5),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPath:    getEnv("METRICS_PATH", "/metrics"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Database.UsesSQLite() && c.Database.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is required when DATABASE_URL is empty")
	}

	if c.Database.WriteTimeout <= 0 {
		return fmt.Errorf("DB_WRITE_TIMEOUT must be positive")
	}

	if c.Quality.ConsecutiveFailures < 1 {
		return fmt.Errorf("ALERT_CONSECUTIVE_FAILURES must be at least 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
