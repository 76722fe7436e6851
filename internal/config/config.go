package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"peerprep/interview/internal/judge"
	"peerprep/interview/internal/storage"
)

// app config, read from environment variables
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	Provider       string
	JWTSecret      string

	Judge judge.Config

	StuckErrorThreshold int
	StuckIdleThreshold  time.Duration
	SessionTimeout      time.Duration
	SweepSchedule       string

	SessionStore  string // "memory" or "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// DatabaseEnabled is false when DB_DRIVER=none; feedback and history are then off.
	DatabaseEnabled bool
	Database        storage.Config

	FeedbackCacheTTL time.Duration
	ExportEnabled    bool
	ExportSchedule   string
	ExportDir        string
}

var supportedProviders = []string{"gemini", "offline"}

// loads configuration from environment variables
func LoadConfig() (*Config, error) {
	driver := getEnvOrDefault("DB_DRIVER", "postgres")
	config := &Config{
		Port:           getEnvOrDefault("PORT", "8080"),
		AllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		Provider:       getEnvOrDefault("AI_PROVIDER", "gemini"),
		JWTSecret:      os.Getenv("JWT_SECRET"),

		Judge: judge.Config{
			Endpoint:    getEnvOrDefault("JUDGE0_ENDPOINT", "https://judge0-ce.p.rapidapi.com"),
			APIKey:      os.Getenv("JUDGE0_API_KEY"),
			LanguageID:  getEnvInt("JUDGE0_LANGUAGE_ID", judge.DefaultLanguageID),
			HTTPTimeout: getEnvDuration("JUDGE0_HTTP_TIMEOUT", 10*time.Second),
		},

		StuckErrorThreshold: getEnvInt("STUCK_ERROR_THRESHOLD", 3),
		StuckIdleThreshold:  time.Duration(getEnvInt("STUCK_IDLE_SECONDS", 120)) * time.Second,
		SessionTimeout:      time.Duration(getEnvInt("SESSION_TIMEOUT_MINUTES", 60)) * time.Minute,
		SweepSchedule:       getEnvOrDefault("SESSION_SWEEP_SCHEDULE", "@every 1m"),

		SessionStore:  getEnvOrDefault("SESSION_STORE", "memory"),
		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		DatabaseEnabled: driver != "none",
		Database: storage.Config{
			Driver:   driver,
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
			User:     getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
			Name:     getEnvOrDefault("POSTGRES_DB", "postgres"),
			SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
			Path:     getEnvOrDefault("SQLITE_PATH", "interview.db"),
		},

		FeedbackCacheTTL: getEnvDuration("FEEDBACK_CACHE_TTL", 15*time.Minute),
		ExportEnabled:    getEnvOrDefault("FEEDBACK_EXPORT_ENABLED", "false") == "true",
		ExportSchedule:   getEnvOrDefault("FEEDBACK_EXPORT_SCHEDULE", "0 2 * * *"),
		ExportDir:        getEnvOrDefault("FEEDBACK_EXPORT_DIR", "./exports"),
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *Config) error {
	supported := false
	for _, p := range supportedProviders {
		if config.Provider == p {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported AI provider: %s. Currently supported: %s",
			config.Provider, strings.Join(supportedProviders, ", "))
	}
	// Gemini credentials are checked by gemini.NewConfig()

	if config.Judge.Endpoint == "" {
		return errors.New("JUDGE0_ENDPOINT must not be empty")
	}
	if config.StuckErrorThreshold <= 0 {
		return fmt.Errorf("STUCK_ERROR_THRESHOLD must be positive, got %d", config.StuckErrorThreshold)
	}
	if config.StuckIdleThreshold <= 0 {
		return errors.New("STUCK_IDLE_SECONDS must be positive")
	}
	if config.SessionTimeout <= 0 {
		return errors.New("SESSION_TIMEOUT_MINUTES must be positive")
	}

	switch config.SessionStore {
	case "memory":
	case "redis":
		if config.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required when SESSION_STORE=redis")
		}
	default:
		return fmt.Errorf("unsupported session store: %s. Currently supported: memory, redis", config.SessionStore)
	}

	switch config.Database.Driver {
	case "postgres", "sqlite", "none":
	default:
		return fmt.Errorf("unsupported database driver: %s", config.Database.Driver)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
