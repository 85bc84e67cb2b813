package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"pfa/internal/logger"
	"pfa/internal/pagination"
)

// Config holds client configuration
type Config struct {
	Env string

	// Remote API
	APIURL         string
	RequestTimeout time.Duration

	// Session
	TokenPath string

	// Transaction workspace
	PageSize         int
	ResetPageOnLimit bool

	// Local web front
	Port string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		logger.Get().Debug(".env file not found")
	}

	config := &Config{
		Env:    getEnv("ENV", "development"),
		APIURL: strings.TrimRight(getEnv("PFA_API_URL", "http://127.0.0.1:8000"), "/"),
		Port:   getEnv("PORT", "5173"),
	}

	timeoutStr := getEnv("PFA_REQUEST_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PFA_REQUEST_TIMEOUT %q: %w", timeoutStr, err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("PFA_REQUEST_TIMEOUT must be positive, got %v", timeout)
	}
	config.RequestTimeout = timeout

	tokenPath := os.Getenv("PFA_TOKEN_PATH")
	if tokenPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory for token store: %w", err)
		}
		tokenPath = filepath.Join(home, ".pfa", "session.db")
	}
	config.TokenPath = tokenPath

	sizeStr := getEnv("PFA_PAGE_SIZE", strconv.Itoa(pagination.DefaultLimit))
	size, err := strconv.Atoi(sizeStr)
	if err != nil || !pagination.IsAllowedLimit(size) {
		return nil, fmt.Errorf("invalid PFA_PAGE_SIZE %q: must be one of %v", sizeStr, pagination.AllowedLimits)
	}
	config.PageSize = size

	reset, err := parseBool(os.Getenv("PFA_RESET_PAGE_ON_LIMIT"), true)
	if err != nil {
		return nil, fmt.Errorf("invalid PFA_RESET_PAGE_ON_LIMIT value: %w", err)
	}
	config.ResetPageOnLimit = reset

	appConfig = config
	return config, nil
}

// Get returns the client configuration, loading it on first use.
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			logger.Get().Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(s string, defaultVal bool) (bool, error) {
	if s == "" {
		return defaultVal, nil
	}
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("must be true, false, 1, or 0, got %q", s)
	}
}
