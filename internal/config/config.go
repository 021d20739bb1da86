package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// devSecret signs tokens when SECRET_KEY is unset. Development only.
const devSecret = "dev-secret-change-in-prod"

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port        string
	DBDriver    string
	DBDSN       string
	SecretKey   string
	TokenTTL    time.Duration
	CORSOrigins []string
}

func Load() *Config {
	cfg := &Config{
		Port:        getenv("PORT", "8080"),
		DBDriver:    getenv("DB_DRIVER", "pgx"),
		DBDSN:       getenv("DB_DSN", ""),
		SecretKey:   getenv("SECRET_KEY", ""),
		TokenTTL:    time.Duration(getenvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		CORSOrigins: strings.Split(getenv("CORS_ORIGINS", "http://localhost:3000,http://localhost:9000"), ","),
	}
	if cfg.SecretKey == "" {
		log.Println("WARNING: SECRET_KEY not set, using insecure development default")
		cfg.SecretKey = devSecret
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
