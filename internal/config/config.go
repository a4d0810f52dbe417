package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	DefaultLocale string

	WhatsAppVerifyToken string
	WhatsAppAccessToken string
	WhatsAppGraphAPIURL string
	WhatsAppHTTPTimeout time.Duration

	InstagramVerifyToken     string
	InstagramAppSecret       string
	InstagramPageAccessToken string
	InstagramGraphAPIURL     string
	InstagramHTTPTimeout     time.Duration

	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	MeetingsCarouselLimit int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),

		WhatsAppVerifyToken: getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppAccessToken: getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppGraphAPIURL: getEnv("WHATSAPP_GRAPH_API_URL", "https://graph.facebook.com/v24.0"),
		WhatsAppHTTPTimeout: getEnvAsDuration("WHATSAPP_HTTP_TIMEOUT", 10*time.Second),

		InstagramVerifyToken:     getEnv("INSTAGRAM_VERIFY_TOKEN", ""),
		InstagramAppSecret:       getEnv("INSTAGRAM_APP_SECRET", ""),
		InstagramPageAccessToken: getEnv("INSTAGRAM_PAGE_ACCESS_TOKEN", ""),
		InstagramGraphAPIURL:     getEnv("INSTAGRAM_GRAPH_API_URL", "https://graph.facebook.com/v24.0"),
		InstagramHTTPTimeout:     getEnvAsDuration("INSTAGRAM_HTTP_TIMEOUT", 10*time.Second),

		ServerReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		ServerWriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
		ServerIdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),

		MeetingsCarouselLimit: getEnvAsInt("MEETINGS_CAROUSEL_LIMIT", 10),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
