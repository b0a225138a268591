package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	DatabaseURL string
	Port        string

	// Three independent token classes: access, refresh, and OTP challenge
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
	OTPSecret     string
	OTPTTL        time.Duration

	BcryptCost int

	// Outbound mail (OTP delivery). Unused when DevMode is true.
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	// Text-generation collaborator; empty key selects the static generator.
	OpenAIKey string

	DevMode bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:       "8080", // default port
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 365 * 24 * time.Hour,
		OTPTTL:     5 * time.Minute,
		BcryptCost: 10,
		SMTPPort:   587,
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	cfg.DatabaseURL = databaseURL

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	var err error
	if cfg.AccessSecret, err = requireEnv("JWT_ACCESS_SECRET"); err != nil {
		return nil, err
	}
	if cfg.RefreshSecret, err = requireEnv("JWT_REFRESH_SECRET"); err != nil {
		return nil, err
	}
	if cfg.OTPSecret, err = requireEnv("OTP_SECRET"); err != nil {
		return nil, err
	}

	if cfg.AccessTTL, err = durationEnv("JWT_ACCESS_EXPIRES_IN", cfg.AccessTTL); err != nil {
		return nil, err
	}
	if cfg.RefreshTTL, err = durationEnv("JWT_REFRESH_EXPIRES_IN", cfg.RefreshTTL); err != nil {
		return nil, err
	}
	if cfg.OTPTTL, err = durationEnv("OTP_EXPIRE", cfg.OTPTTL); err != nil {
		return nil, err
	}

	if v := os.Getenv("BCRYPT_SALT_ROUND"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("BCRYPT_SALT_ROUND must be an integer: %w", err)
		}
		cfg.BcryptCost = cost
	}

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("SMTP_PORT must be an integer: %w", err)
		}
		cfg.SMTPPort = port
	}
	cfg.SMTPUser = os.Getenv("SMTP_USER")
	cfg.SMTPPass = os.Getenv("SMTP_PASS")
	cfg.MailFrom = os.Getenv("MAIL_FROM")
	if cfg.MailFrom == "" {
		cfg.MailFrom = cfg.SMTPUser
	}

	cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")

	cfg.DevMode = os.Getenv("DEV_MODE") == "true"

	if !cfg.DevMode && cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP_HOST environment variable is required unless DEV_MODE=true")
	}

	return cfg, nil
}

func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%s environment variable is required", key)
	}
	return v, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 15m or 24h: %w", key, err)
	}
	return d, nil
}
