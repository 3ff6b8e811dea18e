package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                string
	DatabaseDSN         string
	FirebaseCredentials string
	GoogleProjectID     string
	PubSubTopic         string

	PollInterval         time.Duration
	RetryAttempts        int
	RetryTimeout         time.Duration
	TokenRetentionWindow time.Duration
	DefaultPriority      string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:                 getEnv("PORT", "8080"),
		DatabaseDSN:          getEnv("DATABASE_DSN", ""),
		FirebaseCredentials:  getEnv("FIREBASE_CREDENTIALS", ""),
		GoogleProjectID:      getEnv("GOOGLE_PROJECT_ID", ""),
		PubSubTopic:          getEnv("PUBSUB_TOPIC", "hr-changes"),
		PollInterval:         getDuration("SYNC_POLL_INTERVAL", 10*time.Second),
		RetryAttempts:        getInt("SYNC_RETRY_ATTEMPTS", 3),
		RetryTimeout:         getDuration("SYNC_RETRY_TIMEOUT", 15*time.Second),
		TokenRetentionWindow: getDuration("TOKEN_RETENTION_WINDOW", 720*time.Hour),
		DefaultPriority:      getEnv("NOTIFICATION_DEFAULT_PRIORITY", "high"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
