// Package euler reads Euler vault risk data through the deployed VaultLens
// contract: per-collateral LTV tiers plus a best-effort vault snapshot.
package euler

import (
	"context"
	"fmt"
	"math"
	"math/big"

	"github.com/rs/zerolog"

	"github.com/superform-xyz/supervaults/internal/chains"
	"github.com/superform-xyz/supervaults/internal/domain"
	"github.com/superform-xyz/supervaults/internal/ethrpc"
)

// lensAddresses holds the deployed VaultLens per supported chain. Chains
// outside this map cannot serve Euler detail.
var lensAddresses = map[int]string{
	1:    "0x5c5E9d8C89C9E2Cb8E6e9a2Ae5bD8e39B432f49b",
	8453: "0xc20B6e1d52ce377a450512958EEE8142063436CD",
}

var (
	selVaultInfoFull      = ethrpc.Selector("getVaultInfoFull(address)")
	selCollateralsLTVInfo = ethrpc.Selector("getRecognizedCollateralsLTVInfo(address)")
	selName               = ethrpc.Selector("name()")
)

// collateralStructWords is the width of one entry of the LTV info array:
// (collateral, borrowLTV, liquidationLTV, initialLiquidationLTV,
// targetTimestamp, rampDuration), all statically encoded.
const collateralStructWords = 6

// Client reads the VaultLens on one chain.
type Client struct {
	chain chains.Chain
	lens  string
	rpc   *ethrpc.Client
	log   zerolog.Logger
}

// New creates a lens client. Chains without a deployed lens are a
// construction error.
func New(chain chains.Chain, rpc *ethrpc.Client, log zerolog.Logger) (*Client, error) {
	lens, ok := lensAddresses[chain.ID]
	if !ok {
		return nil, fmt.Errorf("euler: no lens deployed on chain %d", chain.ID)
	}

	return &Client{
		chain: chain,
		lens:  lens,
		rpc:   rpc,
		log:   log.With().Str("client", "euler").Int("chain_id", chain.ID).Logger(),
	}, nil
}

// VaultInfo returns the lens vault snapshot with totals scaled by the
// vault's decimals.
func (c *Client) VaultInfo(ctx context.Context, vault string) (*domain.EulerVaultInfo, error) {
	addr, err := ethrpc.EncodeAddress(vault)
	if err != nil {
		return nil, err
	}

	data, err := c.rpc.EthCall(ctx, c.lens, append(selVaultInfoFull, addr...))
	if err != nil {
		return nil, fmt.Errorf("getVaultInfoFull: %w", err)
	}

	// The lens returns one dynamic struct: an offset word, then the struct
	// body. Fields used here, in struct word order: timestamp, vault,
	// name, symbol, decimals, asset, assetName, assetSymbol, assetDecimals,
	// totalShares, totalCash, totalBorrowed, totalAssets.
	base, err := ethrpc.WordOffset(data, 0)
	if err != nil {
		return nil, fmt.Errorf("decode vault info: %w", err)
	}
	body := data[base:]

	name, err := stringField(body, 2)
	if err != nil {
		return nil, fmt.Errorf("decode vault name: %w", err)
	}
	symbol, err := stringField(body, 3)
	if err != nil {
		return nil, fmt.Errorf("decode vault symbol: %w", err)
	}
	decimals, err := ethrpc.WordUint64(body, 4)
	if err != nil {
		return nil, fmt.Errorf("decode vault decimals: %w", err)
	}
	assetName, err := stringField(body, 6)
	if err != nil {
		return nil, fmt.Errorf("decode asset name: %w", err)
	}
	assetSymbol, err := stringField(body, 7)
	if err != nil {
		return nil, fmt.Errorf("decode asset symbol: %w", err)
	}

	scale := math.Pow(10, float64(decimals))
	scaled := func(i int) (float64, error) {
		n, err := ethrpc.WordBig(body, i)
		if err != nil {
			return 0, err
		}
		f, _ := new(big.Float).SetInt(n).Float64()
		return f / scale, nil
	}

	totalShares, err := scaled(9)
	if err != nil {
		return nil, fmt.Errorf("decode totals: %w", err)
	}
	totalCash, err := scaled(10)
	if err != nil {
		return nil, fmt.Errorf("decode totals: %w", err)
	}
	totalBorrowed, err := scaled(11)
	if err != nil {
		return nil, fmt.Errorf("decode totals: %w", err)
	}
	totalAssets, err := scaled(12)
	if err != nil {
		return nil, fmt.Errorf("decode totals: %w", err)
	}

	return &domain.EulerVaultInfo{
		Name:          name,
		Symbol:        symbol,
		AssetName:     assetName,
		AssetSymbol:   assetSymbol,
		TotalShares:   totalShares,
		TotalCash:     totalCash,
		TotalBorrowed: totalBorrowed,
		TotalAssets:   totalAssets,
	}, nil
}

// CollateralLTVs returns the recognized collaterals with their LTV tiers
// converted from basis points to percent, names resolved per resolveName.
func (c *Client) CollateralLTVs(ctx context.Context, vault string) ([]domain.EulerCollateral, error) {
	addr, err := ethrpc.EncodeAddress(vault)
	if err != nil {
		return nil, err
	}

	data, err := c.rpc.EthCall(ctx, c.lens, append(selCollateralsLTVInfo, addr...))
	if err != nil {
		return nil, fmt.Errorf("getRecognizedCollateralsLTVInfo: %w", err)
	}

	// Dynamic array of static 6-word structs:
	// (collateral, borrowLTV, liquidationLTV, initialLiquidationLTV,
	// targetTimestamp, rampDuration).
	offset, err := ethrpc.WordOffset(data, 0)
	if err != nil {
		return nil, fmt.Errorf("decode collateral array: %w", err)
	}
	length, err := ethrpc.WordUint64(data[offset:], 0)
	if err != nil {
		return nil, fmt.Errorf("decode collateral array: %w", err)
	}
	body := data[offset+32:]
	if int(length)*collateralStructWords*32 > len(body) {
		return nil, fmt.Errorf("collateral array of %d entries exceeds return data", length)
	}

	out := make([]domain.EulerCollateral, 0, length)
	for k := 0; k < int(length); k++ {
		base := k * collateralStructWords

		address, err := ethrpc.WordAddress(body, base)
		if err != nil {
			return nil, fmt.Errorf("decode collateral %d: %w", k, err)
		}
		borrowLTV, err := ethrpc.WordUint64(body, base+1)
		if err != nil {
			return nil, fmt.Errorf("decode collateral %d: %w", k, err)
		}
		liquidationLTV, err := ethrpc.WordUint64(body, base+2)
		if err != nil {
			return nil, fmt.Errorf("decode collateral %d: %w", k, err)
		}
		initialLLTV, err := ethrpc.WordUint64(body, base+3)
		if err != nil {
			return nil, fmt.Errorf("decode collateral %d: %w", k, err)
		}
		targetTimestamp, err := ethrpc.WordUint64(body, base+4)
		if err != nil {
			return nil, fmt.Errorf("decode collateral %d: %w", k, err)
		}
		rampDuration, err := ethrpc.WordUint64(body, base+5)
		if err != nil {
			return nil, fmt.Errorf("decode collateral %d: %w", k, err)
		}

		out = append(out, domain.EulerCollateral{
			Address:               address,
			Name:                  c.resolveName(ctx, address),
			BorrowLTV:             domain.PercentFromBasisPointsInt(int64(borrowLTV)),
			LiquidationLTV:        domain.PercentFromBasisPointsInt(int64(liquidationLTV)),
			InitialLiquidationLTV: domain.PercentFromBasisPointsInt(int64(initialLLTV)),
			RampTargetTimestamp:   targetTimestamp,
			RampDuration:          rampDuration,
		})
	}

	c.log.Debug().Str("vault", vault).Int("collaterals", len(out)).Msg("Fetched collateral LTVs")
	return out, nil
}

// resolveName turns a collateral address into a display name: the static
// table first, an ERC-20 name() call on miss, the raw address when the call
// fails too.
func (c *Client) resolveName(ctx context.Context, address string) string {
	if name, ok := knownTokens[address]; ok {
		return name
	}

	name, err := c.tokenName(ctx, address)
	if err != nil {
		c.log.Warn().Err(err).Str("token", address).Msg("Token name lookup failed, using address")
		return address
	}
	return name
}

// stringField decodes a string field of a struct: the offset word at index
// i is relative to the struct base.
func stringField(body []byte, i int) (string, error) {
	offset, err := ethrpc.WordOffset(body, i)
	if err != nil {
		return "", err
	}
	return ethrpc.StringAt(body, offset)
}

// tokenName calls ERC-20 name() on a token contract.
func (c *Client) tokenName(ctx context.Context, token string) (string, error) {
	data, err := c.rpc.EthCall(ctx, token, selName)
	if err != nil {
		return "", err
	}

	offset, err := ethrpc.WordOffset(data, 0)
	if err != nil {
		return "", err
	}
	return ethrpc.StringAt(data, offset)
}

// FetchVaultDetail assembles the Euler protocol detail for one vault. The
// collateral LTVs are required; the vault snapshot is best-effort and the
// detail still renders without it.
func (c *Client) FetchVaultDetail(ctx context.Context, vault string) (*domain.ProtocolDetail, error) {
	collaterals, err := c.CollateralLTVs(ctx, vault)
	if err != nil {
		return nil, err
	}
	if len(collaterals) == 0 {
		return nil, fmt.Errorf("vault %s has no recognized collaterals", vault)
	}

	info, err := c.VaultInfo(ctx, vault)
	if err != nil {
		c.log.Warn().Err(err).Str("vault", vault).Msg("Vault snapshot unavailable, rendering LTVs only")
		info = nil
	}

	return &domain.ProtocolDetail{
		Protocol: "euler",
		Euler: &domain.EulerCollateralSet{
			VaultAddress: vault,
			Info:         info,
			Collaterals:  collaterals,
		},
	}, nil
}
