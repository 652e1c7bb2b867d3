package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv     string
	AppVersion string
	LogLevel   string
	LogFormat  string

	// Database
	DatabaseDriver   string
	DatabaseURL      string
	SQLitePath       string
	DatabaseMaxConns int

	// Redis (sweep lock); empty disables it.
	RedisURL string

	// RabbitMQ (outbox publishing); empty disables it.
	RabbitMQURL      string
	RabbitMQExchange string

	// HTTP
	HTTPAddr            string
	HTTPShutdownTimeout time.Duration

	// Pagination
	PageDefaultSize int
	PageMaxSize     int

	// Past-due sweep
	SweepEnabled  bool
	SweepInterval time.Duration
	SweepLockTTL  time.Duration

	// Outbox
	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxRetries       int
	OutboxRetentionDays    int
	OutboxCleanupInterval  time.Duration
	OutboxProcessorEnabled bool

	// Breaker around the broker publisher
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration

	// Worker
	WorkerHealthAddr string

	// MCP; empty disables the MCP server in serve.
	MCPAddr      string
	MCPAuthToken string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	databaseURL := getEnv("DATABASE_URL", "")

	cfg := &Config{
		AppEnv:     getEnv("APP_ENV", "development"),
		AppVersion: getEnv("APP_VERSION", "dev"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "json"),

		DatabaseDriver:   getEnv("DATABASE_DRIVER", detectDriver(databaseURL)),
		DatabaseURL:      databaseURL,
		SQLitePath:       getEnv("SQLITE_PATH", getDefaultSQLitePath()),
		DatabaseMaxConns: getIntEnv("DATABASE_MAX_CONNS", 10),

		RedisURL: getEnv("REDIS_URL", ""),

		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange: getEnv("RABBITMQ_EXCHANGE", "todolist.events"),

		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		HTTPShutdownTimeout: getDurationEnv("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),

		PageDefaultSize: getIntEnv("PAGE_DEFAULT_SIZE", 12),
		PageMaxSize:     getIntEnv("PAGE_MAX_SIZE", 100),

		SweepEnabled:  getBoolEnv("SWEEP_ENABLED", true),
		SweepInterval: getDurationEnv("SWEEP_INTERVAL", time.Minute),
		SweepLockTTL:  getDurationEnv("SWEEP_LOCK_TTL", 30*time.Second),

		OutboxPollInterval:     getDurationEnv("OUTBOX_POLL_INTERVAL", 5*time.Second),
		OutboxBatchSize:        getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:       getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxRetentionDays:    getIntEnv("OUTBOX_RETENTION_DAYS", 7),
		OutboxCleanupInterval:  getDurationEnv("OUTBOX_CLEANUP_INTERVAL", 24*time.Hour),
		OutboxProcessorEnabled: getBoolEnv("OUTBOX_PROCESSOR_ENABLED", true),

		BreakerMaxFailures: uint32(getIntEnv("BREAKER_MAX_FAILURES", 5)),
		BreakerOpenTimeout: getDurationEnv("BREAKER_OPEN_TIMEOUT", 30*time.Second),

		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", ":8081"),

		MCPAddr:      getEnv("MCP_ADDR", ""),
		MCPAuthToken: getEnv("MCP_AUTH_TOKEN", ""),
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// IsSQLite reports whether the embedded SQLite store is selected.
func (c *Config) IsSQLite() bool {
	return c.DatabaseDriver == "sqlite"
}

// IsPostgres reports whether PostgreSQL is selected.
func (c *Config) IsPostgres() bool {
	return c.DatabaseDriver == "postgres"
}

// detectDriver mirrors database.DetectDriver; config stays free of internal imports.
func detectDriver(url string) string {
	switch {
	case url == "":
		return "sqlite"
	case hasAnyPrefix(url, "postgres://", "postgresql://"):
		return "postgres"
	case hasAnyPrefix(url, "sqlite://", "file:"),
		hasAnySuffix(url, ".db", ".sqlite", ".sqlite3"):
		return "sqlite"
	default:
		return "postgres"
	}
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if len(s) >= len(p) && s[:len(p)] == p {
			return true
		}
	}
	return false
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, p := range suffixes {
		if len(s) >= len(p) && s[len(s)-len(p):] == p {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".todolist", "data.db")
	}
	return filepath.Join(home, ".todolist", "data.db")
}
