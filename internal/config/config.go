package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string        // dev, prod
	HTTPPort    string        // default 8080
	DatabaseURL string        // required; postgres:// DSN or sqlite file path
	JWTSecret   string        // required
	JWTTTL      time.Duration // access token lifetime
	RedisAddr   string        // host:port; empty disables the redis slot lock
	RedisPass   string
	LockTTL     time.Duration // per-slot lock lifetime
	SMTPHost    string        // empty disables email notifications
	SMTPPort    string
	EmailFrom   string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:         getEnv("APP_ENV", "dev"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTTTL:      getDuration("JWT_TTL", 24*time.Hour),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		RedisPass:   os.Getenv("REDIS_PASSWORD"),
		LockTTL:     getDuration("LOCK_TTL", 5*time.Second),
		SMTPHost:    os.Getenv("SMTP_HOST"),
		SMTPPort:    getEnv("SMTP_PORT", "1025"),
		EmailFrom:   getEnv("EMAIL_FROM", "no-reply@mentorhub.local"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
