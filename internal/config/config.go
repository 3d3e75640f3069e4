package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr          string
	DBPath              string
	PhotoPath           string
	PhotoPublicBase     string
	LogLevel            string
	LogFormat           string
	LogFile             string
	JWTSecret           string
	SendGridAPIKey      string
	SendGridFromEmail   string
	SendGridFromName    string
	VisionBackend       string
	ClaudeAPIKey        string
	ClaudeModel         string
	OllamaHost          string
	OllamaModel         string
	SubmitRatePerMinute int
	SecureCookies       bool
}

// Load reads configuration from the environment. A .env file in the working
// directory, or the file named by envFile, is loaded first; variables already
// set in the environment take precedence.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	rate, err := strconv.Atoi(getEnv("SUBMIT_RATE_PER_MINUTE", "10"))
	if err != nil || rate < 0 {
		return nil, fmt.Errorf("invalid SUBMIT_RATE_PER_MINUTE %q", os.Getenv("SUBMIT_RATE_PER_MINUTE"))
	}

	return &Config{
		ListenAddr:          getEnv("LISTEN_ADDR", ":8080"),
		DBPath:              getEnv("DB_PATH", "/data/lostfound.db"),
		PhotoPath:           getEnv("PHOTO_LOCAL_PATH", "/data/photos"),
		PhotoPublicBase:     getEnv("PHOTO_PUBLIC_BASE", "/photos"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "json"),
		LogFile:             getEnv("LOG_FILE", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		SendGridAPIKey:      getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:   getEnv("SENDGRID_FROM_EMAIL", "noreply@lostfound.local"),
		SendGridFromName:    getEnv("SENDGRID_FROM_NAME", "Lost & Found"),
		VisionBackend:       getEnv("VISION_BACKEND", ""),
		ClaudeAPIKey:        getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:         getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),
		OllamaHost:          getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:         getEnv("OLLAMA_MODEL", "llava"),
		SubmitRatePerMinute: rate,
		SecureCookies:       getEnv("SECURE_COOKIES", "false") == "true",
	}, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	switch c.VisionBackend {
	case "", "ollama":
	case "claude":
		if c.ClaudeAPIKey == "" {
			return errors.New("CLAUDE_API_KEY must be set when VISION_BACKEND=claude")
		}
	default:
		return fmt.Errorf("unknown VISION_BACKEND %q", c.VisionBackend)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}
