// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      int
	LogLevel  string
	LogPretty bool
	DevMode   bool

	// Catalog API
	SuperformAPIKey  string
	SuperformBaseURL string

	// RPC endpoint overrides (other chains use public defaults)
	EthereumRPCURL string
	BaseRPCURL     string

	// Render pipeline knobs
	VaultLimit         int           // max aggregator vaults per render
	VaultWorkers       int           // section worker pool size
	SubvaultBatchSize  int           // sub-vault lookups per batch
	SubvaultBatchDelay time.Duration // pause between lookup batches
	RetryMaxAttempts   int           // total attempts per upstream call
	RetryBaseDelay     time.Duration // first backoff step
	FetchTimeout       time.Duration // per-call timeout for upstream fetches
	RenderTimeout      time.Duration // whole-page assembly budget
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getEnvAsInt("PORT", 8080),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),
		DevMode:   getEnvAsBool("DEV_MODE", false),

		SuperformAPIKey:  getEnv("SUPERFORM_API_KEY", ""),
		SuperformBaseURL: getEnv("SUPERFORM_API_URL", "https://api.superform.xyz/"),

		EthereumRPCURL: getEnv("ETHEREUM_RPC_URL", "https://eth.llamarpc.com"),
		BaseRPCURL:     getEnv("BASE_RPC_URL", "https://mainnet.base.org"),

		VaultLimit:         getEnvAsInt("VAULT_LIMIT", 15),
		VaultWorkers:       getEnvAsInt("VAULT_WORKERS", 4),
		SubvaultBatchSize:  getEnvAsInt("SUBVAULT_BATCH_SIZE", 2),
		SubvaultBatchDelay: getEnvAsDuration("SUBVAULT_BATCH_DELAY_MS", 200) * time.Millisecond,
		RetryMaxAttempts:   getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
		RetryBaseDelay:     getEnvAsDuration("RETRY_BASE_DELAY_MS", 1000) * time.Millisecond,
		FetchTimeout:       getEnvAsDuration("FETCH_TIMEOUT_SECONDS", 30) * time.Second,
		RenderTimeout:      getEnvAsDuration("RENDER_TIMEOUT_SECONDS", 240) * time.Second,
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.SuperformAPIKey == "" {
		return fmt.Errorf("SUPERFORM_API_KEY is required (vault catalog is unreachable without it)")
	}
	if c.Port <= 0 {
		return fmt.Errorf("PORT must be positive, got %d", c.Port)
	}
	if c.VaultLimit < 1 {
		return fmt.Errorf("VAULT_LIMIT must be at least 1, got %d", c.VaultLimit)
	}
	if c.VaultWorkers < 1 {
		return fmt.Errorf("VAULT_WORKERS must be at least 1, got %d", c.VaultWorkers)
	}
	if c.SubvaultBatchSize < 1 {
		return fmt.Errorf("SUBVAULT_BATCH_SIZE must be at least 1, got %d", c.SubvaultBatchSize)
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1, got %d", c.RetryMaxAttempts)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsDuration reads a bare number (unit applied by the caller)
func getEnvAsDuration(key string, defaultValue int64) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return time.Duration(intVal)
		}
	}
	return time.Duration(defaultValue)
}
