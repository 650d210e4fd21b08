package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string
	LogLevel    string
	LogFormat   string

	DBMaxConns              int
	DBConnMaxLifetimeSecs   int
	DBConnectTimeoutSeconds int

	RateLimitRequests      int
	RateLimitWindowSeconds int
	RateLimitFailClosed    bool
	RateLimitMaxKeys       int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// LoadDotEnv reads a .env file into the process environment when one exists.
// Variables already present in the environment are left untouched.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	existing := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			existing = append(existing, path)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load %s: %w", strings.Join(existing, ","), err)
	}
	return nil
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":" + envDefault("PORT", "8000")
	}
	return Config{
		HTTPAddr:                addr,
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		LogLevel:                envDefault("LOG_LEVEL", "info"),
		LogFormat:               envDefault("LOG_FORMAT", "text"),
		DBMaxConns:              envIntDefault("DB_MAX_CONNS", 10),
		DBConnMaxLifetimeSecs:   envIntDefault("DB_CONN_MAX_LIFETIME_SECONDS", 300),
		DBConnectTimeoutSeconds: envIntDefault("DB_CONNECT_TIMEOUT_SECONDS", 10),
		RateLimitRequests:       envIntDefault("RATE_LIMIT_REQUESTS", 0),
		RateLimitWindowSeconds:  envIntDefault("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitFailClosed:     envBoolDefault("RATE_LIMIT_FAIL_CLOSED", false),
		RateLimitMaxKeys:        envIntDefault("RATE_LIMIT_MAX_KEYS", 10000),
		RedisAddr:               os.Getenv("REDIS_ADDR"),
		RedisPassword:           os.Getenv("REDIS_PASSWORD"),
		RedisDB:                 envIntDefault("REDIS_DB", 0),
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.DBMaxConns > math.MaxInt32 {
		return fmt.Errorf("DB_MAX_CONNS %d exceeds %d", c.DBMaxConns, math.MaxInt32)
	}
	return nil
}

func (c Config) ConnMaxLifetime() time.Duration {
	if c.DBConnMaxLifetimeSecs <= 0 {
		return 300 * time.Second
	}
	return time.Duration(c.DBConnMaxLifetimeSecs) * time.Second
}

func (c Config) ConnectTimeout() time.Duration {
	if c.DBConnectTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.DBConnectTimeoutSeconds) * time.Second
}

func (c Config) RateLimitWindow() time.Duration {
	if c.RateLimitWindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

// secureSSLModes are the libpq modes that refuse a plaintext connection.
var secureSSLModes = map[string]bool{
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// NormalizeDatabaseURL rewrites SQLAlchemy style schemes (postgresql+psycopg://)
// to the postgres:// form pgx understands and forces an encrypted transport.
func NormalizeDatabaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("database url is empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if driver, _, ok := strings.Cut(scheme, "+"); ok {
		scheme = driver
	}
	switch scheme {
	case "postgres", "postgresql":
		parsed.Scheme = "postgres"
	default:
		return "", fmt.Errorf("unsupported database url scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", errors.New("database url has no host")
	}
	query := parsed.Query()
	if !secureSSLModes[query.Get("sslmode")] {
		query.Set("sslmode", "require")
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func envBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "Yes":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "No":
		return false
	default:
		return def
	}
}
