package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Upstream  UpstreamConfig
	Redis     RedisConfig
	Session   SessionConfig
	CORS      CORSConfig
	Log       LogConfig
	Table     TableConfig
	RateLimit RateLimitConfig
	Logs      LogsConfig
	Export    ExportConfig
	Cache     CacheConfig
}

// UpstreamConfig points at the externally-owned analytics API.
type UpstreamConfig struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// SessionConfig controls gateway issued session tokens.
type SessionConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// TableConfig tunes admin table views.
type TableConfig struct {
	PageSize int
}

// RateLimitConfig defines sliding windows for login, search and API calls.
type RateLimitConfig struct {
	LoginMax     int
	LoginWindow  time.Duration
	SearchMax    int
	SearchWindow time.Duration
	APIMax       int
	APIWindow    time.Duration
}

// LogsConfig gates the log viewer endpoints.
type LogsConfig struct {
	Enabled bool
}

// ExportConfig gates table exports.
type ExportConfig struct {
	Enabled bool
}

// CacheConfig controls caching of the shared public endpoints. A zero TTL
// disables it.
type CacheConfig struct {
	PublicTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	retryAttempts := v.GetInt("UPSTREAM_RETRY_ATTEMPTS")
	if retryAttempts < 1 {
		retryAttempts = 1
	}
	cfg.Upstream = UpstreamConfig{
		BaseURL:       strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		Timeout:       parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 10*time.Second),
		RetryAttempts: retryAttempts,
		RetryDelay:    parseDuration(v.GetString("UPSTREAM_RETRY_DELAY"), time.Second),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS_SESSIONS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Session = SessionConfig{
		Secret: v.GetString("SESSION_SECRET"),
		TTL:    parseDuration(v.GetString("SESSION_TTL"), 12*time.Hour),
		Issuer: v.GetString("SESSION_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	pageSize := v.GetInt("TABLE_PAGE_SIZE")
	if pageSize <= 0 {
		pageSize = 10
	}
	cfg.Table = TableConfig{PageSize: pageSize}

	cfg.RateLimit = RateLimitConfig{
		LoginMax:     v.GetInt("RATE_LIMIT_LOGIN_MAX"),
		LoginWindow:  parseDuration(v.GetString("RATE_LIMIT_LOGIN_WINDOW"), 15*time.Minute),
		SearchMax:    v.GetInt("RATE_LIMIT_SEARCH_MAX"),
		SearchWindow: parseDuration(v.GetString("RATE_LIMIT_SEARCH_WINDOW"), time.Minute),
		APIMax:       v.GetInt("RATE_LIMIT_API_MAX"),
		APIWindow:    parseDuration(v.GetString("RATE_LIMIT_API_WINDOW"), time.Minute),
	}

	cfg.Logs = LogsConfig{Enabled: v.GetBool("ENABLE_LOG_VIEWER")}
	cfg.Export = ExportConfig{Enabled: v.GetBool("ENABLE_EXPORTS")}
	cfg.Cache = CacheConfig{PublicTTL: parseDuration(v.GetString("PUBLIC_CACHE_TTL"), time.Minute)}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("API_BASE_URL", "http://localhost:8001/api/v1")
	v.SetDefault("UPSTREAM_TIMEOUT", "10s")
	v.SetDefault("UPSTREAM_RETRY_ATTEMPTS", 3)
	v.SetDefault("UPSTREAM_RETRY_DELAY", "1s")

	v.SetDefault("ENABLE_REDIS_SESSIONS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SESSION_SECRET", "dev_session_secret")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("SESSION_ISSUER", "lms-admin-gateway")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("TABLE_PAGE_SIZE", 10)

	v.SetDefault("RATE_LIMIT_LOGIN_MAX", 5)
	v.SetDefault("RATE_LIMIT_LOGIN_WINDOW", "15m")
	v.SetDefault("RATE_LIMIT_SEARCH_MAX", 30)
	v.SetDefault("RATE_LIMIT_SEARCH_WINDOW", "1m")
	v.SetDefault("RATE_LIMIT_API_MAX", 100)
	v.SetDefault("RATE_LIMIT_API_WINDOW", "1m")

	v.SetDefault("ENABLE_LOG_VIEWER", true)
	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("PUBLIC_CACHE_TTL", "1m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
