package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	// Database
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"poliger"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"-"`
	DBName     string `env:"DB_NAME" envDefault:"poliger"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// Estimation service
	EstimationBaseURL string `env:"ESTIMATION_BASE_URL" envDefault:"-"`
	EstimationAPIKey  string `env:"ESTIMATION_API_KEY" envDefault:"-"`
	RequestTimeout    int    `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds

	// Telegram reminder surface
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN" envDefault:"-"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID" envDefault:"0"`

	// Reminder scheduler cadence
	RefreshIntervalSec int `env:"REMINDER_REFRESH_SEC" envDefault:"15"`
	ReopenCheckSec     int `env:"REMINDER_REOPEN_CHECK_SEC" envDefault:"60"`
	SurfaceDelayMs     int `env:"REMINDER_SURFACE_DELAY_MS" envDefault:"1200"`
	RenagAfterMin      int `env:"REMINDER_RENAG_AFTER_MIN" envDefault:"60"`

	// Prediction quality ladder (whole days)
	ExcellentMaxDays  int `env:"QUALITY_EXCELLENT_MAX_DAYS" envDefault:"2"`
	GoodMaxDays       int `env:"QUALITY_GOOD_MAX_DAYS" envDefault:"5"`
	AcceptableMaxDays int `env:"QUALITY_ACCEPTABLE_MAX_DAYS" envDefault:"10"`
	SanityMaxDays     int `env:"QUALITY_SANITY_MAX_DAYS" envDefault:"60"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.DBHost = getEnvWithDefault("DB_HOST", "localhost")
	cfg.DBPort = getEnvWithDefault("DB_PORT", "5432")
	cfg.DBUser = getEnvWithDefault("DB_USER", "poliger")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = getEnvWithDefault("DB_NAME", "poliger")
	cfg.DBSSLMode = getEnvWithDefault("DB_SSLMODE", "disable")

	cfg.EstimationBaseURL = os.Getenv("ESTIMATION_BASE_URL")
	cfg.EstimationAPIKey = os.Getenv("ESTIMATION_API_KEY")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0)

	cfg.RefreshIntervalSec = getEnvIntWithDefault("REMINDER_REFRESH_SEC", 15)
	cfg.ReopenCheckSec = getEnvIntWithDefault("REMINDER_REOPEN_CHECK_SEC", 60)
	cfg.SurfaceDelayMs = getEnvIntWithDefault("REMINDER_SURFACE_DELAY_MS", 1200)
	cfg.RenagAfterMin = getEnvIntWithDefault("REMINDER_RENAG_AFTER_MIN", 60)

	cfg.ExcellentMaxDays = getEnvIntWithDefault("QUALITY_EXCELLENT_MAX_DAYS", 2)
	cfg.GoodMaxDays = getEnvIntWithDefault("QUALITY_GOOD_MAX_DAYS", 5)
	cfg.AcceptableMaxDays = getEnvIntWithDefault("QUALITY_ACCEPTABLE_MAX_DAYS", 10)
	cfg.SanityMaxDays = getEnvIntWithDefault("QUALITY_SANITY_MAX_DAYS", 60)

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")

	return &cfg, nil
}

// RefreshInterval returns the scheduler refresh cadence as a duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSec) * time.Second
}

func (c *Config) ReopenCheckInterval() time.Duration {
	return time.Duration(c.ReopenCheckSec) * time.Second
}

func (c *Config) SurfaceDelay() time.Duration {
	return time.Duration(c.SurfaceDelayMs) * time.Millisecond
}

func (c *Config) RenagAfter() time.Duration {
	return time.Duration(c.RenagAfterMin) * time.Minute
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
