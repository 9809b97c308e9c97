package app

import (
	"os"
	"strconv"
	"time"

	"github.com/twineproject/twine/internal/auth/service"
	"github.com/twineproject/twine/pkg/jwtx"
)

type Config struct {
	Issuer    string        // Required: issuer claim for tokens
	Algorithm string        // Optional: JWT signing algorithm (ES256, EdDSA) (default: EdDSA)
	AccessTTL time.Duration // Optional: access token lifetime (default: 24h)

	DatabaseFile string // Optional: path to SQLite database file (default: ./auth.db)
	PepperFile   string // Optional: path to file containing pepper for password hashing (default: ./pepper)

	OtpLength   int           // Optional: verification code length (default: 6)
	OtpValidity time.Duration // Optional: verification code validity window (default: 5m)

	MailDriver   string // Mail transport (smtp, log) (default: smtp)
	SMTPHost     string // SMTP relay host (default: localhost)
	SMTPPort     string // SMTP relay port (default: 25)
	SMTPUsername string // Optional: SMTP auth username
	SMTPPassword string // Optional: SMTP auth password
	MailFrom     string // Sender address (default: no-reply@twine.local)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:    os.Getenv("AUTH_ISSUER"),
		Algorithm: getEnvOrDefault("AUTH_ALGORITHM", "EdDSA"),
		AccessTTL: getEnvDurationOrDefault("AUTH_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),

		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:   getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		OtpLength:   getEnvIntOrDefault("OTP_LENGTH", service.DefaultOtpLength),
		OtpValidity: getEnvDurationOrDefault("OTP_VALIDITY", service.DefaultOtpValidity),

		MailDriver:   getEnvOrDefault("MAIL_DRIVER", "smtp"),
		SMTPHost:     getEnvOrDefault("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvOrDefault("SMTP_PORT", "25"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getEnvOrDefault("MAIL_FROM", "no-reply@twine.local"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if cfg.Issuer == "" {
		cfg.Issuer = "twine-auth"
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Accept duration strings (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Accept bare integers as minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
