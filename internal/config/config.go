package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN       string
	HTTPAddr    string
	Environment string

	JWTSecret string
	JWTTTL    time.Duration

	// AllowedEmailDomain restricts registration to institutional accounts.
	AllowedEmailDomain string

	PurgeBatchSize      int
	PurgeInterval       time.Duration
	FeedRefreshInterval time.Duration

	MigrationsPath string
}

func Load() (*Config, error) {
	// Load .env if present; plain environment variables otherwise.
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg := &Config{
		DBDSN:              os.Getenv("DB_DSN"),
		HTTPAddr:           os.Getenv("HTTP_ADDR"),
		Environment:        os.Getenv("ENV"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		AllowedEmailDomain: os.Getenv("ALLOWED_EMAIL_DOMAIN"),
		MigrationsPath:     os.Getenv("MIGRATIONS_PATH"),
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.AllowedEmailDomain == "" {
		cfg.AllowedEmailDomain = "@ceti.mx"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}

	var err error
	if cfg.JWTTTL, err = durationEnv("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.PurgeInterval, err = durationEnv("PURGE_INTERVAL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.FeedRefreshInterval, err = durationEnv("FEED_REFRESH_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.PurgeBatchSize, err = intEnv("PURGE_BATCH_SIZE", 500); err != nil {
		return nil, err
	}
	if cfg.PurgeBatchSize <= 0 {
		return nil, fmt.Errorf("PURGE_BATCH_SIZE must be positive, got %d", cfg.PurgeBatchSize)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
