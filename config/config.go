package config

import "os"

// Config holds the application configuration
type Config struct {
	// Environment
	Environment string

	// Compiler defaults
	DefaultTimeSig string // e.g. "4/4", used when no -sig flag is given

	// Observability
	SentryDSN string // Sentry DSN for error tracking
}

func Load() *Config {
	return &Config{
		Environment:    getEnv("ENVIRONMENT", "development"),
		DefaultTimeSig: getEnv("BARBEAT_TIME_SIG", "4/4"),
		SentryDSN:      getEnv("SENTRY_DSN", ""),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}
