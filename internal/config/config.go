package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort     int
	DatabasePath   string
	JWTSecret      string
	UploadsDir     string // Base path for uploaded poll and profile images
	AllowedOrigins []string
	AuditSchedule  string // Cron expression for the vote counter auditor
}

// Load loads configuration from a .env file (if present) and the process
// environment, falling back to defaults.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional; the real environment always wins

	portStr := getEnv("PORT", "8000")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
	}

	secret := getEnv("JWT_SECRET", "")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	origins := strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return &Config{
		ServerPort:     port,
		DatabasePath:   getEnv("DATABASE_PATH", "./survey.db"),
		JWTSecret:      secret,
		UploadsDir:     getEnv("UPLOADS_DIR", "./uploads"),
		AllowedOrigins: origins,
		AuditSchedule:  getEnv("AUDIT_SCHEDULE", "@every 15m"),
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
