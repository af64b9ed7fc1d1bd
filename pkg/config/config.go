package config

import (
	"errors"
	"io/fs"
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

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Availability AvailabilityConfig
	Booking      BookingConfig
	Jobs         JobsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AvailabilityConfig holds defaults for schedules and slot generation.
type AvailabilityConfig struct {
	DefaultTimezone        string
	SlotGranularityMinutes int
	DefaultMinNoticeHours  int
	DefaultMaxDaysAhead    int
	CacheEnabled           bool
	CacheTTL               time.Duration
	CacheFlushCron         string
}

// BookingConfig governs the public booking endpoints.
type BookingConfig struct {
	RateLimitPerMinute int
	RateBurst          int
	CancelLinkSecret   string
	CancelLinkTTL      time.Duration
}

// JobsConfig tunes the background invalidation queue.
type JobsConfig struct {
	InvalidationWorkers int
	InvalidationRetries int
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Availability = AvailabilityConfig{
		DefaultTimezone:        v.GetString("DEFAULT_TIMEZONE"),
		SlotGranularityMinutes: positiveOr(v.GetInt("SLOT_GRANULARITY_MINUTES"), 30),
		DefaultMinNoticeHours:  v.GetInt("DEFAULT_MIN_NOTICE_HOURS"),
		DefaultMaxDaysAhead:    positiveOr(v.GetInt("DEFAULT_MAX_DAYS_AHEAD"), 60),
		CacheEnabled:           v.GetBool("ENABLE_AVAILABILITY_CACHE"),
		CacheTTL:               parseDuration(v.GetString("AVAILABILITY_CACHE_TTL"), time.Minute),
		CacheFlushCron:         v.GetString("CACHE_FLUSH_CRON"),
	}

	cfg.Booking = BookingConfig{
		RateLimitPerMinute: positiveOr(v.GetInt("BOOKING_RATE_LIMIT_PER_MINUTE"), 20),
		RateBurst:          positiveOr(v.GetInt("BOOKING_RATE_BURST"), 5),
		CancelLinkSecret:   v.GetString("CANCEL_LINK_SECRET"),
		CancelLinkTTL:      parseDuration(v.GetString("CANCEL_LINK_TTL"), 30*24*time.Hour),
	}

	cfg.Jobs = JobsConfig{
		InvalidationWorkers: positiveOr(v.GetInt("INVALIDATION_WORKERS"), 1),
		InvalidationRetries: positiveOr(v.GetInt("INVALIDATION_RETRIES"), 3),
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
	v.SetDefault("DB_NAME", "slotbook")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "slotbook-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DEFAULT_TIMEZONE", "UTC")
	v.SetDefault("SLOT_GRANULARITY_MINUTES", 30)
	v.SetDefault("DEFAULT_MIN_NOTICE_HOURS", 4)
	v.SetDefault("DEFAULT_MAX_DAYS_AHEAD", 60)
	v.SetDefault("ENABLE_AVAILABILITY_CACHE", false)
	v.SetDefault("AVAILABILITY_CACHE_TTL", "1m")
	v.SetDefault("CACHE_FLUSH_CRON", "5 0 * * *")

	v.SetDefault("BOOKING_RATE_LIMIT_PER_MINUTE", 20)
	v.SetDefault("BOOKING_RATE_BURST", 5)
	v.SetDefault("CANCEL_LINK_SECRET", "dev_cancel_secret")
	v.SetDefault("CANCEL_LINK_TTL", "720h")

	v.SetDefault("INVALIDATION_WORKERS", 1)
	v.SetDefault("INVALIDATION_RETRIES", 3)
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

// SetConfigFile reports a missing .env as a path error rather than ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
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
