package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SUPERFORM_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
	assert.Equal(t, "https://api.superform.xyz/", cfg.SuperformBaseURL)
	assert.Equal(t, "https://eth.llamarpc.com", cfg.EthereumRPCURL)
	assert.Equal(t, "https://mainnet.base.org", cfg.BaseRPCURL)
	assert.Equal(t, 15, cfg.VaultLimit)
	assert.Equal(t, 4, cfg.VaultWorkers)
	assert.Equal(t, 2, cfg.SubvaultBatchSize)
	assert.Equal(t, 200*time.Millisecond, cfg.SubvaultBatchDelay)
	assert.Equal(t, 3, cfg.RetryMaxAttempts)
	assert.Equal(t, time.Second, cfg.RetryBaseDelay)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 240*time.Second, cfg.RenderTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SUPERFORM_API_KEY", "test-key")
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("ETHEREUM_RPC_URL", "https://rpc.example.org")
	t.Setenv("VAULT_LIMIT", "5")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, "https://rpc.example.org", cfg.EthereumRPCURL)
	assert.Equal(t, 5, cfg.VaultLimit)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
}

func TestLoadMissingAPIKey(t *testing.T) {
	t.Setenv("SUPERFORM_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPERFORM_API_KEY")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.VaultWorkers = 0 },
			wantErr: "VAULT_WORKERS",
		},
		{
			name:    "zero vault limit",
			mutate:  func(c *Config) { c.VaultLimit = 0 },
			wantErr: "VAULT_LIMIT",
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.SubvaultBatchSize = 0 },
			wantErr: "SUBVAULT_BATCH_SIZE",
		},
		{
			name:    "negative port",
			mutate:  func(c *Config) { c.Port = -1 },
			wantErr: "PORT",
		},
		{
			name:    "zero retry attempts",
			mutate:  func(c *Config) { c.RetryMaxAttempts = 0 },
			wantErr: "RETRY_MAX_ATTEMPTS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Port:              8080,
				SuperformAPIKey:   "k",
				VaultLimit:        15,
				VaultWorkers:      4,
				SubvaultBatchSize: 2,
				RetryMaxAttempts:  3,
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
