// Package supervault reads allocation state from a deployed SuperVault
// contract: the whitelist of underlying superform ids and the basis-point
// weights assigned to them.
package supervault

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/rs/zerolog"

	"github.com/superform-xyz/supervaults/internal/chains"
	"github.com/superform-xyz/supervaults/internal/domain"
	"github.com/superform-xyz/supervaults/internal/ethrpc"
)

// ErrAllocationMismatch means getSuperVaultData returned id and weight
// arrays of different lengths. The on-chain data is unusable; callers drop
// the vault section rather than guess at a pairing.
var ErrAllocationMismatch = errors.New("superform id and weight arrays differ in length")

var (
	selGetWhitelist      = ethrpc.Selector("getWhitelist()")
	selGetSuperVaultData = ethrpc.Selector("getSuperVaultData()")
)

// Client reads one SuperVault contract on one chain. No retries happen at
// this layer; callers wrap calls in their own policy.
type Client struct {
	chain        chains.Chain
	vaultAddress string
	rpc          *ethrpc.Client
	log          zerolog.Logger
}

// New creates a client for one deployed SuperVault.
func New(chain chains.Chain, vaultAddress string, rpc *ethrpc.Client, log zerolog.Logger) *Client {
	return &Client{
		chain:        chain,
		vaultAddress: vaultAddress,
		rpc:          rpc,
		log: log.With().
			Str("client", "supervault").
			Int("chain_id", chain.ID).
			Str("vault", vaultAddress).
			Logger(),
	}
}

// Whitelist returns the superform ids the vault may allocate to, as decimal
// strings. An empty whitelist is an error; a SuperVault always has targets.
func (c *Client) Whitelist(ctx context.Context) ([]domain.SuperformID, error) {
	data, err := c.rpc.EthCall(ctx, c.vaultAddress, selGetWhitelist)
	if err != nil {
		return nil, fmt.Errorf("getWhitelist: %w", err)
	}

	offset, err := ethrpc.WordOffset(data, 0)
	if err != nil {
		return nil, fmt.Errorf("decode getWhitelist: %w", err)
	}
	raw, err := ethrpc.BigSliceAt(data, offset)
	if err != nil {
		return nil, fmt.Errorf("decode getWhitelist: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("getWhitelist returned no vaults")
	}

	ids := make([]domain.SuperformID, 0, len(raw))
	for _, id := range raw {
		ids = append(ids, domain.SuperformID(id.String()))
	}

	c.log.Debug().Int("count", len(ids)).Msg("Fetched whitelist")
	return ids, nil
}

// Allocations returns the parallel superform id and basis-point weight
// arrays from getSuperVaultData. The arrays are validated to be non-empty
// and of equal length; anything else fails the call.
func (c *Client) Allocations(ctx context.Context) ([]domain.SuperformID, []*big.Int, error) {
	data, err := c.rpc.EthCall(ctx, c.vaultAddress, selGetSuperVaultData)
	if err != nil {
		return nil, nil, fmt.Errorf("getSuperVaultData: %w", err)
	}

	idsOffset, err := ethrpc.WordOffset(data, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("decode getSuperVaultData: %w", err)
	}
	weightsOffset, err := ethrpc.WordOffset(data, 1)
	if err != nil {
		return nil, nil, fmt.Errorf("decode getSuperVaultData: %w", err)
	}

	rawIDs, err := ethrpc.BigSliceAt(data, idsOffset)
	if err != nil {
		return nil, nil, fmt.Errorf("decode superform ids: %w", err)
	}
	weights, err := ethrpc.BigSliceAt(data, weightsOffset)
	if err != nil {
		return nil, nil, fmt.Errorf("decode weights: %w", err)
	}

	if len(rawIDs) == 0 || len(weights) == 0 {
		return nil, nil, fmt.Errorf("getSuperVaultData returned empty arrays")
	}
	if len(rawIDs) != len(weights) {
		return nil, nil, fmt.Errorf("%w: %d ids, %d weights", ErrAllocationMismatch, len(rawIDs), len(weights))
	}

	ids := make([]domain.SuperformID, 0, len(rawIDs))
	for _, id := range rawIDs {
		ids = append(ids, domain.SuperformID(id.String()))
	}

	c.log.Debug().Int("count", len(ids)).Msg("Fetched allocations")
	return ids, weights, nil
}
