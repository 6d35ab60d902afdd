package config

import (
	"os"
	"strconv"
)

type Config struct {
	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Auth
	JWTSecret string

	// Editor integration (advertised in generated workspace configs)
	AppURL string

	// Search
	DefaultSearchLimit int
}

func Load() *Config {
	searchLimit, _ := strconv.Atoi(getEnv("DEFAULT_SEARCH_LIMIT", "20"))
	return &Config{
		Port:               getEnv("PORT", "8090"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             getEnv("DB_USER", "postgres"),
		DBPassword:         getEnv("DB_PASSWORD", ""),
		DBName:             getEnv("DB_NAME", "chatprompt_db"),
		DBSSLMode:          getEnv("DB_SSLMODE", "disable"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		AppURL:             getEnv("APP_URL", "http://localhost:3000"),
		DefaultSearchLimit: searchLimit,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
