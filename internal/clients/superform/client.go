// Package superform provides the client for the Superform catalog API, the
// hosted directory of vaults and aggregator-vault statistics.
package superform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/superform-xyz/supervaults/internal/domain"
)

// ErrEmptyCatalog means the catalog answered but listed no aggregator
// vaults. The orchestrator treats this as a render-cycle failure; there is
// nothing to draw without the catalog.
var ErrEmptyCatalog = errors.New("catalog returned no supervaults")

const defaultBaseURL = "https://api.superform.xyz/"

// Config configures the catalog client.
type Config struct {
	BaseURL string // defaults to the hosted catalog
	APIKey  string // required, sent as SF-API-KEY
	Timeout time.Duration
}

// Client is the catalog API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// New creates a catalog client. A missing API key is a construction error:
// every endpoint requires it, so a keyless client could never succeed.
func New(cfg Config, log zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("superform: API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("client", "superform").Logger(),
	}, nil
}

// ListSuperVaults returns the aggregator-vault stats listing. An empty
// listing is ErrEmptyCatalog.
func (c *Client) ListSuperVaults(ctx context.Context) ([]domain.SuperVaultStat, error) {
	var stats []domain.SuperVaultStat
	if err := c.get(ctx, "stats/vault/supervaults", &stats); err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return nil, ErrEmptyCatalog
	}

	c.log.Debug().Int("count", len(stats)).Msg("Fetched supervault stats")
	return stats, nil
}

// ListVaults returns the full vault catalog.
func (c *Client) ListVaults(ctx context.Context) ([]domain.VaultSummary, error) {
	var vaults []domain.VaultSummary
	if err := c.get(ctx, "vaults", &vaults); err != nil {
		return nil, err
	}

	c.log.Debug().Int("count", len(vaults)).Msg("Fetched vault catalog")
	return vaults, nil
}

// GetVault returns one catalog record by superform id.
func (c *Client) GetVault(ctx context.Context, id domain.SuperformID) (domain.VaultSummary, error) {
	var vault domain.VaultSummary
	if err := c.get(ctx, "vault/"+string(id), &vault); err != nil {
		return domain.VaultSummary{}, err
	}
	return vault, nil
}

// get performs an authenticated GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, action string, out interface{}) error {
	url := c.baseURL + action

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("SF-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request %s: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("catalog request %s: status %d", action, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", action, err)
	}
	return nil
}
