// Package morpho provides the Morpho Blue analytics client. Vault detail is
// fetched from the public GraphQL API in two steps: resolve the vault's API
// id by address, then pull its market allocation state.
package morpho

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/superform-xyz/supervaults/internal/domain"
)

// ErrVaultNotIndexed means the API does not know the address as a Morpho
// vault. Callers skip the detail chart; the section still renders.
var ErrVaultNotIndexed = errors.New("address is not an indexed morpho vault")

const defaultURL = "https://blue-api.morpho.org/graphql"

const vaultIDQuery = `
query ($addresses: [String!]!) {
  vaults(where: { address_in: $addresses }) {
    items {
      id
      address
    }
  }
}`

const vaultStateQuery = `
query ($id: String!) {
  vault(id: $id) {
    address
    state {
      allocation {
        market {
          collateralAsset {
            name
            logoURI
            symbol
          }
          state {
            supplyApy
            rewards {
              supplyApr
            }
            utilization
            liquidityAssets
          }
          lltv
        }
        supplyAssets
      }
    }
  }
}`

// Config configures the Morpho client.
type Config struct {
	URL     string // defaults to the public Blue API
	Timeout time.Duration
}

// Client talks to the Morpho GraphQL API. The API serves all chains from one
// endpoint, so a single client covers every vault.
type Client struct {
	url        string
	httpClient *http.Client
	log        zerolog.Logger
}

// New creates a Morpho client.
func New(cfg Config, log zerolog.Logger) *Client {
	url := cfg.URL
	if url == "" {
		url = defaultURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("client", "morpho").Logger(),
	}
}

// bigString tolerates both string and numeric encodings of the API's big
// fixed-point fields (lltv, supplyAssets).
type bigString string

func (b *bigString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*b = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = bigString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*b = bigString(n.String())
	return nil
}

type vaultItemsResponse struct {
	Vaults struct {
		Items []struct {
			ID      string `json:"id"`
			Address string `json:"address"`
		} `json:"items"`
	} `json:"vaults"`
}

type vaultStateResponse struct {
	Vault struct {
		Address string `json:"address"`
		State   struct {
			Allocation []allocationEntry `json:"allocation"`
		} `json:"state"`
	} `json:"vault"`
}

type allocationEntry struct {
	Market struct {
		CollateralAsset *struct {
			Name    string `json:"name"`
			LogoURI string `json:"logoURI"`
			Symbol  string `json:"symbol"`
		} `json:"collateralAsset"`
		State struct {
			SupplyAPY float64 `json:"supplyApy"`
			Rewards   []struct {
				SupplyAPR float64 `json:"supplyApr"`
			} `json:"rewards"`
			Utilization     float64   `json:"utilization"`
			LiquidityAssets bigString `json:"liquidityAssets"`
		} `json:"state"`
		LLTV bigString `json:"lltv"`
	} `json:"market"`
	SupplyAssets bigString `json:"supplyAssets"`
}

// FetchVaultDetail resolves a vault address to its market allocation set.
// The chain id is unused; the Blue API indexes all chains together.
func (c *Client) FetchVaultDetail(ctx context.Context, chainID int, address string) (*domain.ProtocolDetail, error) {
	var idResp vaultItemsResponse
	err := c.query(ctx, vaultIDQuery, map[string]interface{}{"addresses": []string{address}}, &idResp)
	if err != nil {
		return nil, fmt.Errorf("resolve vault id: %w", err)
	}
	if len(idResp.Vaults.Items) == 0 {
		return nil, fmt.Errorf("vault %s: %w", address, ErrVaultNotIndexed)
	}
	vaultID := idResp.Vaults.Items[0].ID

	var stateResp vaultStateResponse
	err = c.query(ctx, vaultStateQuery, map[string]interface{}{"id": vaultID}, &stateResp)
	if err != nil {
		return nil, fmt.Errorf("fetch vault state: %w", err)
	}

	markets := make([]domain.MorphoMarket, 0, len(stateResp.Vault.State.Allocation))
	for _, alloc := range stateResp.Vault.State.Allocation {
		market := alloc.Market
		if market.CollateralAsset == nil {
			// The idle market carries no collateral; nothing to chart.
			c.log.Debug().Str("vault", address).Msg("Skipping allocation without collateral asset")
			continue
		}

		lltv, err := domain.PercentFromWadString(string(market.LLTV))
		if err != nil {
			return nil, fmt.Errorf("market %s lltv: %w", market.CollateralAsset.Symbol, err)
		}

		supply, _ := strconv.ParseFloat(string(alloc.SupplyAssets), 64)

		supplyAPY := domain.PercentFromFraction(market.State.SupplyAPY)
		rewardAPR := 0.0
		for _, reward := range market.State.Rewards {
			rewardAPR += domain.PercentFromFraction(reward.SupplyAPR)
		}

		markets = append(markets, domain.MorphoMarket{
			CollateralSymbol: market.CollateralAsset.Symbol,
			CollateralName:   market.CollateralAsset.Name,
			CollateralLogo:   market.CollateralAsset.LogoURI,
			SupplyAssets:     supply,
			LLTV:             lltv,
			SupplyAPY:        supplyAPY,
			RewardAPR:        rewardAPR,
			TotalAPY:         supplyAPY + rewardAPR,
			Utilization:      market.State.Utilization,
		})
	}

	c.log.Debug().Str("vault", address).Int("markets", len(markets)).Msg("Fetched morpho detail")

	return &domain.ProtocolDetail{
		Protocol: "morpho",
		Morpho: &domain.MorphoMarketSet{
			VaultAddress: address,
			Markets:      markets,
		},
	}, nil
}

type graphqlRequest struct {
	Query     string      `json:"query"`
	Variables interface{} `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// query posts one GraphQL request and decodes its data payload into out.
// Any errors entry fails the whole call.
func (c *Client) query(ctx context.Context, query string, variables interface{}, out interface{}) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graphql request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graphql request: status %d", resp.StatusCode)
	}

	var gqlResp graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}
	if len(gqlResp.Errors) > 0 {
		return fmt.Errorf("graphql error: %s", gqlResp.Errors[0].Message)
	}

	if err := json.Unmarshal(gqlResp.Data, out); err != nil {
		return fmt.Errorf("decode graphql data: %w", err)
	}
	return nil
}
