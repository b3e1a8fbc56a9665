// Package config loads runtime configuration from ECOVIA_* environment
// variables, optionally seeded from a .env file.
package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config is the process-wide configuration.
type Config struct {
	Addr    string
	Env     string // "production" enables Secure cookies
	BaseURL string // public origin embedded into reset links
	PGDSN   string

	SMTPHost     string
	SMTPPort     string
	SMTPEmail    string
	SMTPPassword string
}

// Load reads configuration. A missing .env file is not an error; system
// environment variables always win (godotenv does not override them).
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, relying on system env vars")
	}

	return Config{
		Addr:         getEnv("ECOVIA_ADDR", ":8080"),
		Env:          getEnv("ECOVIA_ENV", "development"),
		BaseURL:      getEnv("ECOVIA_BASE_URL", "http://localhost:8080"),
		PGDSN:        os.Getenv("ECOVIA_PG_DSN"),
		SMTPHost:     getEnv("ECOVIA_SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getEnv("ECOVIA_SMTP_PORT", "465"),
		SMTPEmail:    os.Getenv("ECOVIA_SMTP_EMAIL"),
		SMTPPassword: os.Getenv("ECOVIA_SMTP_PASSWORD"),
	}
}

// Production reports whether the process runs in production mode.
func (c Config) Production() bool { return c.Env == "production" }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
