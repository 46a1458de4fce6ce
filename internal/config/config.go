package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   Server
	Database Database
	CORS     CORS
	Quotes   Quotes
}

// Server holds server-specific configuration
type Server struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// Database holds database-specific configuration
type Database struct {
	Path string
}

// CORS holds CORS-specific configuration
type CORS struct {
	AllowedOrigins []string
}

// Quotes holds quote-source configuration.
//
// APIKey is the Alpha Vantage key taken from the environment; when empty the
// key stored (fernet-encrypted) in the system_setting table is used instead.
// RefreshSchedule is a cron expression that invalidates the persisted quote
// cache so the next calculation re-fetches fresh closes.
type Quotes struct {
	APIKey          string
	FernetKey       string
	RefreshSchedule string
	RefreshEnabled  bool
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: Server{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: Database{
			Path: getEnv("DB_PATH", "./data/rebalancer.db"),
		},
		CORS: CORS{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
		Quotes: Quotes{
			APIKey:          os.Getenv("ALPHAVANTAGE_API_KEY"),
			FernetKey:       os.Getenv("FERNET_KEY"),
			RefreshSchedule: getEnv("QUOTE_REFRESH_SCHEDULE", "0 6 * * *"),
			RefreshEnabled:  getEnv("QUOTE_REFRESH_ENABLED", "true") == "true",
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
