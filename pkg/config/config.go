package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: environment variables are read only in this package
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Dataset pipeline
	Dataset DatasetConfig

	// Durable cache store
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig

	// Dashboard
	Dashboard DashboardConfig

	// Serverless ingestion
	Ingest IngestConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// DatasetConfig holds source and artifact locations
type DatasetConfig struct {
	Path        string        // source CSV
	CleanedPath string        // cleaned-table artifact
	ReadTimeout time.Duration // bound on one source read
	RefreshCron string        // warm refresh schedule (scheduler command only)
}

// StoreConfig selects the durable key/value backend
type StoreConfig struct {
	Driver     string // postgres, sqlite, redis, memory
	SQLitePath string
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

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DashboardConfig holds request-side settings
type DashboardConfig struct {
	PageSize          int
	RateLimitRPS      float64
	RateLimitBurst    int
	AuthHeader        string // identity header set by the upstream auth proxy
	AuthRequired      bool
	InsightsCacheSize int
	InsightsCacheTTL  time.Duration
}

// IngestConfig holds the blob fallback and output of the ingestion adapter
type IngestConfig struct {
	BlobEndpoint string
	Container    string
	Blob         string
	OutputPath   string
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only function that calls os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Dataset: DatasetConfig{
			Path:        getEnv("DATASET_PATH", "All_Diets.csv"),
			CleanedPath: getEnv("CLEANED_PATH", "Cleaned_All_Diets.csv"),
			ReadTimeout: getEnvAsDuration("SOURCE_READ_TIMEOUT", "30s"),
			RefreshCron: getEnv("REFRESH_SCHEDULE", "0 */5 * * * *"),
		},

		Store: StoreConfig{
			Driver:     strings.ToLower(getEnv("STORE_DRIVER", "")),
			SQLitePath: getEnv("SQLITE_PATH", "dietdash.db"),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Dashboard: DashboardConfig{
			PageSize:          getEnvAsInt("PAGE_SIZE", 10),
			RateLimitRPS:      getEnvAsFloat("RATE_LIMIT_RPS", 20),
			RateLimitBurst:    getEnvAsInt("RATE_LIMIT_BURST", 40),
			AuthHeader:        getEnv("AUTH_HEADER", "X-Authenticated-User"),
			AuthRequired:      getEnvAsBool("AUTH_REQUIRED", false),
			InsightsCacheSize: getEnvAsInt("INSIGHTS_CACHE_SIZE", 128),
			InsightsCacheTTL:  getEnvAsDuration("INSIGHTS_CACHE_TTL", "10m"),
		},

		Ingest: IngestConfig{
			BlobEndpoint: getEnv("BLOB_ENDPOINT", "http://127.0.0.1:10000/devstoreaccount1"),
			Container:    getEnv("DATASET_CONTAINER", "datasets"),
			Blob:         getEnv("DATASET_BLOB", "All_Diets.csv"),
			OutputPath:   getEnv("SIMULATED_NOSQL_PATH", "simulated_nosql/results.json"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	cfg.Store.Driver = cfg.resolveDriver()

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// resolveDriver picks the store backend when STORE_DRIVER is not set.
// A postgres DATABASE_URL selects postgres, an enabled Redis selects redis,
// and everything else falls back to a local SQLite file.
func (c *Config) resolveDriver() string {
	if c.Store.Driver != "" {
		return c.Store.Driver
	}
	switch {
	case strings.HasPrefix(c.Database.URL, "postgres://"), strings.HasPrefix(c.Database.URL, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(c.Database.URL, "sqlite://"):
		c.Store.SQLitePath = strings.TrimPrefix(c.Database.URL, "sqlite://")
		return "sqlite"
	case c.Redis.Enabled:
		return "redis"
	default:
		return "sqlite"
	}
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Store.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case "redis", "memory":
	default:
		return fmt.Errorf("STORE_DRIVER must be one of: postgres, sqlite, redis, memory")
	}

	if c.Dataset.Path == "" {
		return fmt.Errorf("DATASET_PATH is required")
	}
	if c.Dashboard.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive")
	}
	if c.Dataset.ReadTimeout <= 0 {
		return fmt.Errorf("SOURCE_READ_TIMEOUT must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

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
