package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string

	// HTTP settings
	AllowedOrigins      []string
	RateLimitInterval   time.Duration
	RateLimitBurst      int
	MaxRequestBodyBytes int64
	CSRFEnabled         bool

	// Dashboard settings
	DashboardCacheTTL         time.Duration
	DashboardFetchConcurrency int
	DisplayCurrency           string
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
func LoadConfig() {
	// 1. Try loading from the current directory
	errEnv := godotenv.Load()

	// 2. If not found, try loading from the parent directory
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")
	Cfg = FromEnv()

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, AllowedOrigins=%d",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, len(Cfg.AllowedOrigins))
}

// FromEnv builds an AppConfig from the current process environment only.
func FromEnv() *AppConfig {
	maxBodyStr := getEnv("MAX_REQUEST_BODY_BYTES", "1048576") // 1MB default
	maxBody, err := strconv.ParseInt(maxBodyStr, 10, 64)
	if err != nil || maxBody <= 0 {
		log.Printf("WARNING: Invalid MAX_REQUEST_BODY_BYTES format '%s'. Using default 1MB.", maxBodyStr)
		maxBody = 1 << 20
	}

	currency := strings.ToUpper(strings.TrimSpace(getEnv("DISPLAY_CURRENCY", "USD")))
	if money.GetCurrency(currency) == nil {
		log.Printf("WARNING: Unknown DISPLAY_CURRENCY '%s'. Using default USD.", currency)
		currency = money.USD
	}

	concurrency := getEnvAsInt("DASHBOARD_FETCH_CONCURRENCY", 8)
	if concurrency < 1 {
		concurrency = 1
	}

	return &AppConfig{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./fundledger.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		AllowedOrigins:      getList("ALLOWED_ORIGINS", "http://localhost:3000"),
		RateLimitInterval:   getEnvAsDuration("RATE_LIMIT_INTERVAL", 100*time.Millisecond),
		RateLimitBurst:      getEnvAsInt("RATE_LIMIT_BURST", 30),
		MaxRequestBodyBytes: maxBody,
		CSRFEnabled:         getEnvAsBool("CSRF_ENABLED", true),

		DashboardCacheTTL:         getEnvAsDuration("DASHBOARD_CACHE_TTL", 5*time.Minute),
		DashboardFetchConcurrency: concurrency,
		DisplayCurrency:           currency,
	}
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid boolean value for %s ('%s'), using default: %t", key, valueStr, fallback)
	return fallback
}

// getList retrieves and parses a comma-separated list, dropping empty entries.
func getList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
