package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// StorageMode selects which store(s) repositories write to. It is resolved once
// in Load and injected into constructors; invalid values abort startup.
type StorageMode string

const (
	// ModeSQLite writes the local relational store only.
	ModeSQLite StorageMode = "sqlite"
	// ModeDual writes sqlite first (authoritative), then mirrors to couch.
	ModeDual StorageMode = "dual"
	// ModeCouch writes the remote document store only.
	ModeCouch StorageMode = "couch"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Couch     CouchConfig
	Sync      SyncConfig
	Scheduler SchedulerConfig
	CORS      CORSConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

type StorageConfig struct {
	Mode       StorageMode
	SQLitePath string
	// Namespace isolates this deployment's documents inside a shared couch
	// database; empty means no prefix.
	Namespace string
}

type CouchConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type SyncConfig struct {
	PullLimit         int
	DefaultWindowDays int
}

type SchedulerConfig struct {
	ReminderPollSeconds int
}

type CORSConfig struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	godotenv.Load()

	mode, err := parseStorageMode(getEnv("BABYLOG_STORAGE_BACKEND", "sqlite"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
			Env:  getEnv("ENV", "development"),
		},
		Storage: StorageConfig{
			Mode:       mode,
			SQLitePath: getEnv("BABYLOG_DB_PATH", "./data/babylog.sqlite"),
			Namespace:  normalizeNamespace(getEnv("BABYLOG_COUCH_NAMESPACE", "")),
		},
		Couch: CouchConfig{
			Host:     getEnv("COUCH_HOST", "localhost"),
			Port:     getEnv("COUCH_PORT", "5984"),
			User:     getEnv("COUCH_USER", "admin"),
			Password: getEnv("COUCH_PASSWORD", "password"),
			Name:     getEnv("COUCH_DB_NAME", "babylog"),
		},
		Sync: SyncConfig{
			PullLimit:         getEnvAsInt("BABYLOG_SYNC_PULL_LIMIT", 500),
			DefaultWindowDays: getEnvAsInt("BABYLOG_SYNC_WINDOW_DAYS", 30),
		},
		Scheduler: SchedulerConfig{
			ReminderPollSeconds: getEnvAsInt("BABYLOG_REMINDER_POLL_SECONDS", 60),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,PATCH,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func parseStorageMode(raw string) (StorageMode, error) {
	switch StorageMode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeSQLite:
		return ModeSQLite, nil
	case ModeDual:
		return ModeDual, nil
	case ModeCouch:
		return ModeCouch, nil
	default:
		return "", fmt.Errorf("BABYLOG_STORAGE_BACKEND must be one of: sqlite, dual, couch (got %q)", raw)
	}
}

func normalizeNamespace(raw string) string {
	return strings.Trim(strings.TrimSpace(raw), "/")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
