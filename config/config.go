package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the complaint resolution service
type Config struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Server configuration
	Port string

	// LLM configuration
	LLMProvider  string
	OpenAIAPIKey string
	OpenAIModel  string
	GeminiAPIKey string
	GeminiModel  string
	LLMTimeout   time.Duration

	// Scoring configuration
	LookbackDays     int
	RecentWindowDays int
	AnonymousActorID string

	// RabbitMQ configuration
	AMQPURL              string
	AMQPExchange         string
	ResolutionRoutingKey string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret_app"),
		DBName:     getEnv("DB_NAME", "grabcare"),

		// Server defaults
		Port: getEnv("PORT", "8080"),

		// LLM defaults
		LLMProvider:  getEnv("LLM_PROVIDER", "openai"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		LLMTimeout:   getDurationEnv("LLM_TIMEOUT", 30*time.Second),

		// Scoring defaults: 90-day aggregates, 30-day recent-violation window
		LookbackDays:     getIntEnv("LOOKBACK_DAYS", 90),
		RecentWindowDays: getIntEnv("RECENT_WINDOW_DAYS", 30),
		AnonymousActorID: getEnv("ANONYMOUS_ACTOR_ID", "anonymous"),

		// RabbitMQ defaults (empty URL disables publishing)
		AMQPURL:              getEnv("AMQP_URL", ""),
		AMQPExchange:         getEnv("AMQP_EXCHANGE", "grabcare-resolutions"),
		ResolutionRoutingKey: getEnv("AMQP_RESOLUTION_ROUTING_KEY", "complaint.resolved"),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
