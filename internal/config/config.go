package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string

	// Database
	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Session tokens issued after PIN unlock
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Price feed
	FeedBaseURL    string
	FeedTimeout    time.Duration
	FeedRatePerSec float64

	// Valuation loop
	RefreshInterval time.Duration
	HistoryLimit    int

	// Starting fiat balance for a freshly created profile
	StartingBalance decimal.Decimal
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),

		// Database: sqlite is the default for a local single-user
		// simulator; postgres is available for hosted deployments.
		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		DBPath:     getEnv("DB_PATH", "papertrade.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "papertrade"),
		DBPassword: getEnv("DB_PASSWORD", "papertrade"),
		DBName:     getEnv("DB_NAME", "papertrade"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		FeedBaseURL: getEnv("FEED_BASE_URL", "https://api.coingecko.com/api/v3"),
	}

	config.JWTExpirationDur = getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour)
	config.FeedTimeout = getEnvDuration("FEED_TIMEOUT", 10*time.Second)
	config.RefreshInterval = getEnvDuration("REFRESH_INTERVAL", 5*time.Second)
	config.FeedRatePerSec = getEnvFloat("FEED_RATE_PER_SEC", 2)
	config.HistoryLimit = getEnvInt("HISTORY_LIMIT", 7)

	balanceStr := getEnv("STARTING_BALANCE", "1000")
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		log.Printf("Warning: invalid STARTING_BALANCE value '%s', falling back to 1000\n", balanceStr)
		balance = decimal.NewFromInt(1000)
	}
	config.StartingBalance = balance

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	s := getEnv(key, "")
	if s == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, s, defaultValue)
		return defaultValue
	}
	return d
}

func getEnvInt(key string, defaultValue int) int {
	s := getEnv(key, "")
	if s == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, s, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	s := getEnv(key, "")
	if s == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %g\n", key, s, defaultValue)
		return defaultValue
	}
	return f
}
