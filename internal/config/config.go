package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the service
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	App      AppConfig
	Stripe   StripeConfig
	LLM      LLMConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN builds the PostgreSQL connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NATSConfig holds NATS connection configuration
type NATSConfig struct {
	URL string
}

// AppConfig holds application configuration
type AppConfig struct {
	Environment  string
	LogLevel     string
	JWTSecret    string
	SessionHours int
	PublicAppURL string
}

// StripeConfig holds payment provider configuration.
// Both secrets are mandatory: billing webhooks cannot be verified without
// the signing secret, so the service refuses to start without them.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// Validate reports missing payment secrets
func (s StripeConfig) Validate() error {
	if s.SecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if s.WebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}
	return nil
}

// LLMConfig holds defaults for upstream vendor calls
type LLMConfig struct {
	OpenAIModel    string
	AnthropicModel string
	TimeoutSeconds int
}

// New creates a new configuration instance
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host: getEnvWithDefault("SERVER_HOST", "0.0.0.0"),
			Port: getEnvWithDefault("SERVER_PORT", "8090"),
		},
		Database: DatabaseConfig{
			Host:     getEnvWithDefault("DB_HOST", "localhost"),
			Port:     getEnvWithDefault("DB_PORT", "5432"),
			User:     getEnvWithDefault("DB_USER", "postgres"),
			Password: getEnvWithDefault("DB_PASSWORD", "postgres"),
			Name:     getEnvWithDefault("DB_NAME", "controlia"),
			SSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnvWithDefault("REDIS_HOST", "localhost"),
			Port:     getEnvWithDefault("REDIS_PORT", "6379"),
			Password: getEnvWithDefault("REDIS_PASSWORD", ""),
			DB:       getEnvAsIntWithDefault("REDIS_DB", 0),
		},
		NATS: NATSConfig{
			URL: getEnvWithDefault("NATS_URL", "nats://localhost:4222"),
		},
		App: AppConfig{
			Environment:  getEnvWithDefault("APP_ENV", "development"),
			LogLevel:     getEnvWithDefault("LOG_LEVEL", "info"),
			JWTSecret:    getEnvWithDefault("JWT_SECRET", "controlia-dev-secret"),
			SessionHours: getEnvAsIntWithDefault("SESSION_HOURS", 24),
			PublicAppURL: getEnvWithDefault("PUBLIC_APP_URL", "http://localhost:3000"),
		},
		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		},
		LLM: LLMConfig{
			OpenAIModel:    getEnvWithDefault("OPENAI_MODEL", "gpt-4o-mini"),
			AnthropicModel: getEnvWithDefault("ANTHROPIC_MODEL", "claude-3-5-sonnet-20240620"),
			TimeoutSeconds: getEnvAsIntWithDefault("LLM_TIMEOUT_SECONDS", 300),
		},
	}
}

// getEnvWithDefault gets environment variable with a default fallback
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntWithDefault gets environment variable as integer with default fallback
func getEnvAsIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
