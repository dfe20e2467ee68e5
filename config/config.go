package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	AppEnv   string
	LogLevel slog.Level

	DBDriver       string
	DatabaseURL    string
	SQLitePath     string
	DBMaxOpenConns int

	JWTSecret string
	JWTTTL    time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitRPM   int
	RateLimitBurst int

	Location *time.Location

	FatSecretClientID     string
	FatSecretClientSecret string

	OTLPEndpoint string
	ServiceName  string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Port:                  envOr("PORT", "8080"),
		AppEnv:                envOr("APP_ENV", "production"),
		DBDriver:              strings.ToLower(envOr("DB_DRIVER", "postgres")),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		SQLitePath:            envOr("SQLITE_PATH", "nutrition.db"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		FatSecretClientID:     os.Getenv("FAT_SECRET_CLIENT_ID"),
		FatSecretClientSecret: os.Getenv("FAT_SECRET_CLIENT_SECRET"),
		OTLPEndpoint:          os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:           envOr("OTEL_SERVICE_NAME", "nutrition-service"),
	}

	var err error
	if cfg.LogLevel, err = parseLevel(envOr("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if cfg.DBMaxOpenConns, err = envInt("DB_MAX_OPEN_CONNS", 10); err != nil {
		return nil, err
	}
	ttlHours, err := envInt("JWT_TTL_HOURS", 72)
	if err != nil {
		return nil, err
	}
	cfg.JWTTTL = time.Duration(ttlHours) * time.Hour
	if cfg.RedisDB, err = envInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPM, err = envInt("RATE_LIMIT_RPM", 60); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = envInt("RATE_LIMIT_BURST", cfg.RateLimitRPM); err != nil {
		return nil, err
	}
	if cfg.Location, err = time.LoadLocation(envOr("APP_TIMEZONE", "UTC")); err != nil {
		return nil, fmt.Errorf("APP_TIMEZONE: %w", err)
	}

	if cfg.DatabaseURL == "" && cfg.DBDriver == "postgres" {
		cfg.DatabaseURL = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			os.Getenv("DB_HOST"),
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_NAME"),
			envOr("DB_PORT", "5432"),
		)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL_HOURS must be positive")
	}
	if c.RateLimitRPM <= 0 {
		return errors.New("RATE_LIMIT_RPM must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

// FatSecretEnabled reports whether the external food search has credentials.
func (c *Config) FatSecretEnabled() bool {
	return c.FatSecretClientID != "" && c.FatSecretClientSecret != ""
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return l, nil
}
