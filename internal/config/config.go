// Package config loads the API configuration from the environment.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config holds every setting the API reads at startup.
type Config struct {
	Env      string
	HTTPAddr string
	BaseURL  string

	DSNPrimary  string
	DSNReadOnly string

	JWTSecret     string
	StorageSecret string
	StorageRoot   string
	SignedURLTTL  time.Duration

	GeminiAPIKey string
	GeminiModel  string

	CORSOrigins []string

	DraftRetentionDays int
	JobsSchedule       string
}

// IsDevelopment reports whether the API runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// LoadDotEnv reads .env when present. The returned error is informative
// only: the system environment is used when the file is missing.
func LoadDotEnv(files ...string) error {
	return godotenv.Load(files...)
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getenv("APP_ENV", "production"),
		HTTPAddr: getenv("HTTP_ADDR", ":8080"),
		BaseURL:  strings.TrimRight(getenv("BASE_URL", "http://localhost:8080"), "/"),

		DSNPrimary: getenv("DB_DSN_PRIMARY", "root:root@tcp(127.0.0.1:3306)/brandstudio?parseTime=true&charset=utf8mb4"),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		StorageRoot: getenv("STORAGE_ROOT", "./uploads"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getenv("GEMINI_MODEL", "gemini-1.5-flash"),

		JobsSchedule: getenv("JOBS_SCHEDULE", "@hourly"),
	}
	cfg.DSNReadOnly = getenv("DB_DSN_READONLY", cfg.DSNPrimary)
	cfg.StorageSecret = getenv("STORAGE_SECRET", cfg.JWTSecret)

	ttl, err := cast.ToDurationE(getenv("SIGNED_URL_TTL", "1h"))
	if err != nil || ttl <= 0 {
		return nil, errors.New("SIGNED_URL_TTL must be a positive duration")
	}
	cfg.SignedURLTTL = ttl

	days, err := cast.ToIntE(getenv("DRAFT_RETENTION_DAYS", "30"))
	if err != nil || days <= 0 {
		return nil, errors.New("DRAFT_RETENTION_DAYS must be a positive integer")
	}
	cfg.DraftRetentionDays = days

	for _, o := range strings.Split(getenv("CORS_ORIGINS", "http://localhost:5173"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is not set")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable is not set")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
