package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageFirestore = "firestore"
	StorageMemory    = "memory"
)

type Config struct {
	ServerPort     string
	Environment    string
	StorageDriver  string
	AuthDisabled   bool
	ShutdownWindow time.Duration

	FirebaseProject            string
	FirebaseServiceAccountJSON string
	FirebaseServiceAccountPath string

	ClientURL            string
	PushEnabled          bool
	PushIconURL          string
	PushTimeout          time.Duration
	MessagePreviewLength int
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		StorageDriver:  getEnv("STORAGE_DRIVER", StorageFirestore),
		AuthDisabled:   getEnvAsBool("AUTH_DISABLED", false),
		ShutdownWindow: time.Duration(getEnvAsInt64("SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,

		FirebaseProject:            getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		FirebaseServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", "./firebase-service-account.json"),

		ClientURL:            getEnv("CLIENT_URL", "http://localhost:3000"),
		PushEnabled:          getEnvAsBool("PUSH_ENABLED", true),
		PushIconURL:          getEnv("PUSH_ICON_URL", "/icons/icon-192x192.png"),
		PushTimeout:          time.Duration(getEnvAsInt64("PUSH_TIMEOUT_SECONDS", 10)) * time.Second,
		MessagePreviewLength: int(getEnvAsInt64("MESSAGE_PREVIEW_LENGTH", 100)),
	}

	// Trusting X-User-ID is only acceptable on a developer machine.
	if config.Environment != "development" {
		config.AuthDisabled = false
	}

	return config, nil
}

func (c *Config) UseMemoryStorage() bool {
	return c.StorageDriver == StorageMemory
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}
