// Package goldsky queries the per-chain superform registry subgraphs. The
// orchestrator uses it as the degraded-resolution path for superform ids the
// catalog cannot serve.
package goldsky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/superform-xyz/supervaults/internal/domain"
)

const endpointTemplate = "https://api.goldsky.com/api/public/project_cl94kmyjc05xp0ixtdmoahbtu/subgraphs/superform-v1-%d/1.1.8/gn"

const superformsQueryTemplate = `
{
  superforms(where: {superformID_in: %s}) {
    superformID
    superformAddress
    vaultAddress
    vaultDetails {
      name
      symbol
      decimals
      vaultAsset {
        address
        name
        decimals
      }
    }
  }
}`

// VaultAsset is the underlying asset of a registered vault.
type VaultAsset struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
}

// VaultDetails describes the vault behind a superform.
type VaultDetails struct {
	Name       string     `json:"name"`
	Symbol     string     `json:"symbol"`
	Decimals   int        `json:"decimals"`
	VaultAsset VaultAsset `json:"vaultAsset"`
}

// Superform is one registry entry.
type Superform struct {
	SuperformID      domain.SuperformID `json:"superformID"`
	SuperformAddress string             `json:"superformAddress"`
	VaultAddress     string             `json:"vaultAddress"`
	VaultDetails     VaultDetails       `json:"vaultDetails"`
}

// Config configures the subgraph client.
type Config struct {
	EndpointTemplate string // %d is the chain id; defaults to the hosted subgraphs
	Timeout          time.Duration
}

// Client queries the registry subgraphs. One client serves every chain; the
// chain id selects the endpoint per call.
type Client struct {
	endpointTemplate string
	httpClient       *http.Client
	log              zerolog.Logger
}

// New creates a subgraph client.
func New(cfg Config, log zerolog.Logger) *Client {
	tmpl := cfg.EndpointTemplate
	if tmpl == "" {
		tmpl = endpointTemplate
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		endpointTemplate: tmpl,
		httpClient:       &http.Client{Timeout: timeout},
		log:              log.With().Str("client", "goldsky").Logger(),
	}
}

// GetSuperforms looks superform ids up in a chain's registry subgraph.
func (c *Client) GetSuperforms(ctx context.Context, chainID int, ids []domain.SuperformID) ([]Superform, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	strIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		strIDs = append(strIDs, string(id))
	}
	idsJSON, err := json.Marshal(strIDs)
	if err != nil {
		return nil, fmt.Errorf("marshal ids: %w", err)
	}

	query := fmt.Sprintf(superformsQueryTemplate, idsJSON)
	endpoint := fmt.Sprintf(c.endpointTemplate, chainID)

	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("subgraph request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("subgraph request: status %d", resp.StatusCode)
	}

	var gqlResp struct {
		Data struct {
			Superforms []Superform `json:"superforms"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		return nil, fmt.Errorf("decode subgraph response: %w", err)
	}
	if len(gqlResp.Errors) > 0 {
		return nil, fmt.Errorf("subgraph error: %s", gqlResp.Errors[0].Message)
	}

	c.log.Debug().Int("chain_id", chainID).Int("requested", len(ids)).
		Int("found", len(gqlResp.Data.Superforms)).Msg("Resolved superforms")
	return gqlResp.Data.Superforms, nil
}
