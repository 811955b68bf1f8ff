package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	// Server settings
	ServerPort     string
	AllowedOrigins []string

	// Storage settings
	DatabasePath string

	// Session settings
	JWTSecret string
	TokenTTL  time.Duration

	// OpenTelemetry settings
	OTLPEndpoint string
	ServiceName  string
	Environment  string
}

// Load returns configuration from environment variables with sensible
// defaults. A .env file in the working directory is applied first when
// present. The JWT signing secret has no default outside development:
// a misconfigured production process must refuse to start rather than
// sign tokens with a known secret.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		AllowedOrigins: strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ","),
		DatabasePath:   getEnv("DATABASE_PATH", "projectmanager.db"),
		TokenTTL:       24 * time.Hour,
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		ServiceName:    getEnv("OTEL_SERVICE_NAME", "project-manager-api"),
		Environment:    getEnv("ENVIRONMENT", "development"),
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		if cfg.Environment != "development" {
			return nil, errors.New("JWT_SECRET must be set when ENVIRONMENT is not development")
		}
		cfg.JWTSecret = "devsecret"
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
