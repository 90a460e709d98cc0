// Package domain defines the records exchanged between the vault catalog,
// the on-chain clients, and the presentation layer. All upstream payloads
// decode into these types at the client boundary; nothing downstream touches
// raw JSON or raw return data.
package domain

import (
	"bytes"
	"encoding/json"
	"sort"
)

// SuperformID identifies a vault position across the catalog, the on-chain
// registry, and the subgraph. The catalog serializes it as a string on some
// endpoints and a bare number on others; both decode to the decimal string
// form, which is also what on-chain uint256 ids stringify to.
type SuperformID string

// UnmarshalJSON accepts both string and numeric encodings.
func (s *SuperformID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = SuperformID(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = SuperformID(n.String())
	return nil
}

// ChainRef identifies the network a vault lives on.
type ChainRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ProtocolGraphics holds protocol artwork URLs.
type ProtocolGraphics struct {
	Icon string `json:"icon"`
}

// ProtocolRef names the lending protocol behind a vault.
type ProtocolRef struct {
	Name     string           `json:"name"`
	Graphics ProtocolGraphics `json:"graphics"`
}

// VaultStatistics carries the catalog's per-vault metrics.
type VaultStatistics struct {
	TVLNow        float64 `json:"tvl_now"`
	APYNow        float64 `json:"apy_now"`
	PricePerShare float64 `json:"price_per_share"`
}

// VaultSummary is one catalog record. Field names follow the catalog wire
// format; records are immutable once fetched.
type VaultSummary struct {
	ID              string          `json:"id"`
	SuperformID     SuperformID     `json:"superform_id"`
	FriendlyName    string          `json:"friendly_name"`
	ContractAddress string          `json:"contract_address"`
	Chain           ChainRef        `json:"chain"`
	Protocol        ProtocolRef     `json:"protocol"`
	YieldType       string          `json:"yield_type"`
	ExternalURL     string          `json:"external_url"`
	Statistics      VaultStatistics `json:"vault_statistics"`
}

// SuperVaultStat is one item of the aggregator-vault stats listing.
type SuperVaultStat struct {
	Vault VaultSummary `json:"vault"`
}

// AllocationEntry is a sub-vault's share of an aggregator vault's capital.
// Percentage is derived from the raw on-chain basis-point weight and is
// never negative. Entries need not sum to 100; capital can sit idle.
type AllocationEntry struct {
	SuperformID SuperformID
	Percentage  float64
}

// MorphoMarket is one lending market in a Morpho vault's allocation, with
// percent fields already scaled for display.
type MorphoMarket struct {
	CollateralSymbol string
	CollateralName   string
	CollateralLogo   string
	SupplyAssets     float64
	LLTV             float64 // percent
	SupplyAPY        float64 // percent
	RewardAPR        float64 // percent, summed over reward programs
	TotalAPY         float64 // SupplyAPY + RewardAPR
	Utilization      float64
}

// MorphoMarketSet is the Morpho detail for one charted vault, markets in
// upstream order.
type MorphoMarketSet struct {
	VaultAddress string
	Markets      []MorphoMarket
}

// EulerCollateral is one recognized collateral of an Euler vault. LTV fields
// are percent (converted from on-chain basis points).
type EulerCollateral struct {
	Address               string
	Name                  string
	BorrowLTV             float64
	LiquidationLTV        float64
	InitialLiquidationLTV float64
	RampTargetTimestamp   uint64
	RampDuration          uint64
}

// EulerVaultInfo is the lens vault snapshot, totals scaled by the vault's
// decimals.
type EulerVaultInfo struct {
	Name          string
	Symbol        string
	AssetName     string
	AssetSymbol   string
	TotalShares   float64
	TotalCash     float64
	TotalBorrowed float64
	TotalAssets   float64
}

// EulerCollateralSet is the Euler detail for one charted vault. Info is nil
// when the snapshot call failed; the LTV chart renders without it.
type EulerCollateralSet struct {
	VaultAddress string
	Info         *EulerVaultInfo
	Collaterals  []EulerCollateral
}

// ProtocolDetail carries chart data for exactly one protocol: exactly one of
// Morpho/Euler is non-nil, named by Protocol (lower case).
type ProtocolDetail struct {
	Protocol string
	Morpho   *MorphoMarketSet
	Euler    *EulerCollateralSet
}

// SubVaultEntry pairs a catalog record with its on-chain allocation.
type SubVaultEntry struct {
	Summary    VaultSummary
	Allocation AllocationEntry
}

// Inactive reports whether the sub-vault currently holds no capital. Inactive
// sub-vaults are still rendered, just marked.
func (e SubVaultEntry) Inactive() bool {
	return e.Allocation.Percentage == 0
}

// RenderRecord is everything the presentation layer needs for one
// aggregator-vault section.
type RenderRecord struct {
	Vault     VaultSummary
	SubVaults []SubVaultEntry // sorted by allocation percent, descending
	Detail    *ProtocolDetail // nil when no recognized protocol was charted
}

// SortByAllocation orders entries by allocation percent descending. Equal
// percentages keep their discovery order.
func SortByAllocation(entries []SubVaultEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Allocation.Percentage > entries[j].Allocation.Percentage
	})
}
