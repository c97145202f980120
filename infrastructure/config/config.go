package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL   = "http://127.0.0.1:8000"
	DefaultTokenKey = "tokens"

	TokenStoreFile   = "file"
	TokenStoreRedis  = "redis"
	TokenStoreMemory = "memory"
)

type Config struct {
	APIURL     string
	APITimeout time.Duration

	TokenStore string
	TokenFile  string
	TokenKey   string
	RedisURL   string

	Environment         string
	LogLevel            string
	LogFormat           string
	CorrelationIDHeader string
}

var (
	ErrInvalidAPIURL     = errors.New("BLOG_API_URL must be an absolute http(s) URL")
	ErrInvalidTokenStore = errors.New("TOKEN_STORE must be one of file, redis, memory")
	ErrMissingRedisURL   = errors.New("REDIS_URL is required when TOKEN_STORE=redis")
	ErrInvalidTimeout    = errors.New("invalid API_TIMEOUT format")
)

// Load reads configuration from the environment, after loading .env if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIURL:              strings.TrimRight(getEnvOrDefault("BLOG_API_URL", DefaultAPIURL), "/"),
		TokenStore:          strings.ToLower(getEnvOrDefault("TOKEN_STORE", TokenStoreFile)),
		TokenFile:           getEnvOrDefault("TOKEN_FILE", defaultTokenFile()),
		TokenKey:            getEnvOrDefault("TOKEN_KEY", DefaultTokenKey),
		RedisURL:            os.Getenv("REDIS_URL"),
		Environment:         getEnvOrDefault("ENV", "development"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "text"),
		CorrelationIDHeader: getEnvOrDefault("LOG_CORRELATION_ID_HEADER", "X-Correlation-ID"),
	}

	// 0 leaves the transport default in place
	timeout, err := parseDuration(getEnvOrDefault("API_TIMEOUT", "0"))
	if err != nil {
		return nil, ErrInvalidTimeout
	}
	cfg.APITimeout = timeout

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrInvalidAPIURL, c.APIURL)
	}

	switch c.TokenStore {
	case TokenStoreFile, TokenStoreMemory:
	case TokenStoreRedis:
		if c.RedisURL == "" {
			return ErrMissingRedisURL
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTokenStore, c.TokenStore)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "tokens.json"
	}
	return filepath.Join(dir, "myblog", "tokens.json")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration accepts plain seconds or a Go duration string.
func parseDuration(value string) (time.Duration, error) {
	if n, err := strconv.Atoi(value); err == nil {
		if n < 0 {
			return 0, ErrInvalidTimeout
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0, ErrInvalidTimeout
	}
	return d, nil
}
