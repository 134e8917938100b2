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

	// Data directory (OHLCV store, feature table, model registry)
	DataDir string

	// Database (optional OHLCV store backend)
	Database DatabaseConfig

	// Redis (optional response cache)
	Redis RedisConfig

	// External APIs
	EODHD EODHDConfig
	NSE   NSEConfig

	// Pipeline defaults
	Pipeline PipelineConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// EODHDConfig holds the EOD price vendor API configuration
type EODHDConfig struct {
	APIToken string
	BaseURL  string
	// Requests per second allowed against the vendor
	RateLimit float64
}

// NSEConfig holds NSE (universe scraping) configuration
type NSEConfig struct {
	BaseURL string
}

// PipelineConfig holds default parameters for the EOD pipeline
type PipelineConfig struct {
	UniverseFile string
	UniverseName string
	Horizon      int
	Alpha        float64
	Provider     string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Data
		DataDir: getEnv("QUANTORACLE_DATA_DIR", "data"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// External APIs
		EODHD: EODHDConfig{
			APIToken:  getEnv("EODHD_API_TOKEN", ""),
			BaseURL:   getEnv("EODHD_BASE_URL", "https://eodhd.com/api"),
			RateLimit: getEnvAsFloat("EODHD_RATE_LIMIT", 5.0),
		},

		NSE: NSEConfig{
			BaseURL: getEnv("NSE_BASE_URL", "https://www.nseindia.com"),
		},

		// Pipeline
		Pipeline: PipelineConfig{
			UniverseFile: getEnv("QUANTORACLE_UNIVERSE_FILE", "data/universe/india_core.txt"),
			UniverseName: getEnv("QUANTORACLE_UNIVERSE_NAME", "india_core"),
			Horizon:      getEnvAsInt("QUANTORACLE_HORIZON", 5),
			Alpha:        getEnvAsFloat("QUANTORACLE_ALPHA", 10.0),
			Provider:     getEnv("QUANTORACLE_PROVIDER", "eodhd"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("QUANTORACLE_DATA_DIR must not be empty")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	return nil
}

// ModelsDir returns the model registry root under the data directory
func (c *Config) ModelsDir() string {
	return filepath.Join(c.DataDir, "models")
}

// OHLCVDir returns the local OHLCV store root under the data directory
func (c *Config) OHLCVDir() string {
	return filepath.Join(c.DataDir, "ohlcv")
}

// FeaturesPath returns the feature table path under the data directory
func (c *Config) FeaturesPath() string {
	return filepath.Join(c.DataDir, "features.csv")
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
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
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
