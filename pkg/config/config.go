package config

import (
	"errors"
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

	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	Identity IdentityConfig
	Chat     ChatConfig
	CORS     CORSConfig
	Log      LogConfig
	Cache    CacheConfig
	Jobs     JobsConfig
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MaxOpenConns  int
	MaxIdleConns  int
	MigrationsDir string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SessionConfig describes how incoming session tokens are verified.
// Tokens are minted by the identity provider; this service only reads them.
type SessionConfig struct {
	Secret string
	Issuer string
	Leeway time.Duration
}

// IdentityConfig holds credentials for the identity provider's management API.
type IdentityConfig struct {
	SecretKey string
}

// ChatConfig holds credentials for the hosted chat provider.
type ChatConfig struct {
	APIKey          string
	APISecret       string
	UnreadCountTTL  time.Duration
	TokenExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig tunes the list and dashboard caches.
type CacheConfig struct {
	Enabled      bool
	ListTTL      time.Duration
	DashboardTTL time.Duration
}

// JobsConfig tunes the background reconciliation queue.
type JobsConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:          v.GetString("DB_HOST"),
		Port:          v.GetInt("DB_PORT"),
		User:          v.GetString("DB_USER"),
		Password:      v.GetString("DB_PASSWORD"),
		Name:          v.GetString("DB_NAME"),
		SSLMode:       v.GetString("DB_SSL_MODE"),
		MaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:  v.GetInt("DB_MAX_IDLE_CONNS"),
		MigrationsDir: v.GetString("DB_MIGRATIONS_DIR"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Session = SessionConfig{
		Secret: v.GetString("SESSION_JWT_SECRET"),
		Issuer: v.GetString("SESSION_JWT_ISSUER"),
		Leeway: parseDuration(v.GetString("SESSION_JWT_LEEWAY"), 30*time.Second),
	}

	cfg.Identity = IdentityConfig{
		SecretKey: v.GetString("IDENTITY_SECRET_KEY"),
	}

	cfg.Chat = ChatConfig{
		APIKey:          v.GetString("CHAT_API_KEY"),
		APISecret:       v.GetString("CHAT_API_SECRET"),
		UnreadCountTTL:  parseDuration(v.GetString("CHAT_UNREAD_TTL"), 30*time.Second),
		TokenExpiration: parseDuration(v.GetString("CHAT_TOKEN_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:      v.GetBool("ENABLE_CACHE"),
		ListTTL:      parseDuration(v.GetString("CACHE_LIST_TTL"), time.Minute),
		DashboardTTL: parseDuration(v.GetString("CACHE_DASHBOARD_TTL"), 5*time.Minute),
	}

	cfg.Jobs = JobsConfig{
		Workers:    v.GetInt("JOBS_WORKERS"),
		BufferSize: v.GetInt("JOBS_BUFFER_SIZE"),
		MaxRetries: v.GetInt("JOBS_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("JOBS_RETRY_DELAY"), 5*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "classunity")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_MIGRATIONS_DIR", "migrations")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SESSION_JWT_SECRET", "dev_secret")
	v.SetDefault("SESSION_JWT_ISSUER", "")
	v.SetDefault("SESSION_JWT_LEEWAY", "30s")

	v.SetDefault("IDENTITY_SECRET_KEY", "")

	v.SetDefault("CHAT_API_KEY", "")
	v.SetDefault("CHAT_API_SECRET", "")
	v.SetDefault("CHAT_UNREAD_TTL", "30s")
	v.SetDefault("CHAT_TOKEN_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", true)
	v.SetDefault("CACHE_LIST_TTL", "1m")
	v.SetDefault("CACHE_DASHBOARD_TTL", "5m")

	v.SetDefault("JOBS_WORKERS", 1)
	v.SetDefault("JOBS_BUFFER_SIZE", 16)
	v.SetDefault("JOBS_MAX_RETRIES", 3)
	v.SetDefault("JOBS_RETRY_DELAY", "5s")
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
