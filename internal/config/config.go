// Package config reads the process environment once into an immutable Config.
package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends selectable with EAGLES_STORE.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

// EnvProduction is the EAGLES_ENV value that enables production checks.
const EnvProduction = "production"

// Config holds the settings of one process. Treat it as read-only after Load.
type Config struct {
	// Server
	Addr string
	Env  string

	// Storage
	Store         string
	DBPath        string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Identity
	AdminUsernames []string

	// HTTP
	CSRFKey        []byte // 32 bytes; nil outside production selects a per-process random key
	RateLimit      int
	SlowRequest    time.Duration
	SlowQuery      time.Duration
	RequestTimeout time.Duration

	// Email
	ResendKey  string
	ResendFrom string
	ReplyTo    string

	// Logging
	LogLevel slog.Level
}

// IsProduction reports whether EAGLES_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads Config from the environment.
// PRE: none
// POST: returns an error naming every missing or invalid required variable
func Load() (*Config, error) {
	cfg := &Config{
		Addr:           getEnvString("EAGLES_ADDR", ":8080"),
		Env:            getEnvString("EAGLES_ENV", "development"),
		Store:          strings.ToLower(getEnvString("EAGLES_STORE", StoreSQLite)),
		DBPath:         getEnvString("EAGLES_DB_PATH", "eagles.db"),
		DatabaseURL:    os.Getenv("EAGLES_DATABASE_URL"),
		RedisAddr:      getEnvString("EAGLES_REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("EAGLES_REDIS_PASSWORD"),
		RedisDB:        getEnvInt("EAGLES_REDIS_DB", 0),
		AdminUsernames: getEnvList("EAGLES_ADMIN_USERNAMES", []string{"Manu"}),
		RateLimit:      getEnvInt("EAGLES_RATE_LIMIT", 10),
		SlowRequest:    getEnvMillis("EAGLES_SLOW_REQUEST_MS", 500*time.Millisecond),
		SlowQuery:      getEnvMillis("EAGLES_SLOW_QUERY_MS", 50*time.Millisecond),
		RequestTimeout: getEnvDuration("EAGLES_REQUEST_TIMEOUT", 15*time.Second),
		ResendKey:      os.Getenv("EAGLES_RESEND_KEY"),
		ResendFrom:     getEnvString("EAGLES_RESEND_FROM", "Eagles Volleyball <noreply@eagles.example>"),
		ReplyTo:        os.Getenv("EAGLES_REPLY_TO"),
		LogLevel:       getEnvLevel("EAGLES_LOG_LEVEL", slog.LevelInfo),
	}

	var problems []string
	switch cfg.Store {
	case StoreSQLite, StoreRedis, StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			problems = append(problems, "EAGLES_DATABASE_URL is required when EAGLES_STORE=postgres")
		}
	default:
		problems = append(problems, fmt.Sprintf("EAGLES_STORE must be one of sqlite, postgres, redis, memory (got %q)", cfg.Store))
	}
	if keyHex := os.Getenv("EAGLES_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			problems = append(problems, "EAGLES_CSRF_KEY must be 64 hex characters (32 bytes)")
		} else {
			cfg.CSRFKey = key
		}
	} else if cfg.IsProduction() {
		problems = append(problems, "EAGLES_CSRF_KEY is required in production")
	}
	if cfg.RateLimit < 1 {
		problems = append(problems, "EAGLES_RATE_LIMIT must be positive")
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvMillis(key string, defaultVal time.Duration) time.Duration {
	ms := getEnvInt(key, -1)
	if ms < 0 {
		return defaultVal
	}
	return time.Duration(ms) * time.Millisecond
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func getEnvLevel(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return defaultVal
	}
	return level
}
