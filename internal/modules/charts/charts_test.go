package charts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superform-xyz/supervaults/internal/domain"
)

func entry(id domain.SuperformID, apy, pct float64) domain.SubVaultEntry {
	return domain.SubVaultEntry{
		Summary: domain.VaultSummary{
			SuperformID:  id,
			FriendlyName: "Vault " + string(id),
			Protocol:     domain.ProtocolRef{Name: "Morpho"},
			Statistics:   domain.VaultStatistics{APYNow: apy, TVLNow: 1000},
		},
		Allocation: domain.AllocationEntry{SuperformID: id, Percentage: pct},
	}
}

func TestBlendedAPYWeightsByAllocation(t *testing.T) {
	entries := []domain.SubVaultEntry{
		entry("1", 10.0, 75),
		entry("2", 2.0, 25),
		entry("3", 99.0, 0), // inactive, must not contribute
	}
	assert.InDelta(t, 8.0, BlendedAPY(entries), 1e-9)
}

func TestBlendedAPYZeroWithoutWeights(t *testing.T) {
	entries := []domain.SubVaultEntry{entry("1", 10.0, 0)}
	assert.Zero(t, BlendedAPY(entries))
}

func TestBuildSectionHeaderAndTiles(t *testing.T) {
	rec := domain.RenderRecord{
		Vault: domain.VaultSummary{
			ID:           "usdc-supervault",
			FriendlyName: "USDC SuperVault",
			Chain:        domain.ChainRef{ID: 1, Name: "Ethereum"},
		},
		SubVaults: []domain.SubVaultEntry{
			entry("101", 5.0, 66.666),
			entry("102", 3.0, 0),
		},
	}

	view := BuildSection(rec, "gray")

	assert.Equal(t, "USDC SuperVault", view.Name)
	assert.Equal(t, "Ethereum", view.ChainName)
	assert.Equal(t, "gray", view.ChainColor)
	assert.Equal(t, "https://www.superform.xyz/vault/usdc-supervault", view.VaultURL)
	assert.Empty(t, view.Charts)

	require.Len(t, view.Tiles, 2)
	assert.Equal(t, "66.67%", view.Tiles[0].Allocation)
	assert.False(t, view.Tiles[0].Inactive)
	assert.Equal(t, "0.00%", view.Tiles[1].Allocation)
	assert.True(t, view.Tiles[1].Inactive)
}

func TestMorphoChartsSkipIdleMarkets(t *testing.T) {
	set := &domain.MorphoMarketSet{Markets: []domain.MorphoMarket{
		{CollateralSymbol: "WETH", SupplyAssets: 500, LLTV: 86, SupplyAPY: 3, RewardAPR: 1, TotalAPY: 4},
		{CollateralSymbol: "idle", SupplyAssets: 0},
		{CollateralSymbol: "wstETH", SupplyAssets: 1500, LLTV: 94.5, SupplyAPY: 5, RewardAPR: 2, TotalAPY: 7},
	}}

	figures := morphoCharts(set)
	require.Len(t, figures, 2)

	donut := figures[0]
	require.Len(t, donut.Data, 1)
	assert.Equal(t, "pie", donut.Data[0].Type)
	assert.Equal(t, []string{"WETH", "wstETH"}, donut.Data[0].Labels)
	assert.Equal(t, []float64{500, 1500}, donut.Data[0].Values)
	assert.Equal(t, 0.4, donut.Data[0].Hole)
	assert.Equal(t, []string{"LLTV: 86.0%", "LLTV: 94.5%"}, donut.Data[0].Text)

	bar := figures[1]
	require.Len(t, bar.Data, 2)
	assert.Equal(t, "stack", bar.Layout.BarMode)
	assert.Equal(t, 400, bar.Layout.Height)
	// Sorted by total APY descending.
	assert.Equal(t, []string{"wstETH", "WETH"}, bar.Data[0].X)
	assert.Equal(t, []float64{5, 3}, bar.Data[0].Y)
	assert.Equal(t, []float64{2, 1}, bar.Data[1].Y)
	assert.Equal(t, "rgb(55, 83, 109)", bar.Data[0].Marker.Color)
	assert.Equal(t, "rgb(26, 118, 255)", bar.Data[1].Marker.Color)
}

func TestMorphoChartsEmptyWhenNothingSupplied(t *testing.T) {
	set := &domain.MorphoMarketSet{Markets: []domain.MorphoMarket{
		{CollateralSymbol: "WETH", SupplyAssets: 0},
	}}
	assert.Nil(t, morphoCharts(set))
}

func TestEulerChartsGroupLTVs(t *testing.T) {
	set := &domain.EulerCollateralSet{
		Info: &domain.EulerVaultInfo{Name: "Euler Prime USDC", AssetSymbol: "USDC", TotalAssets: 1234.5},
		Collaterals: []domain.EulerCollateral{
			{Name: "Wrapped Ether", BorrowLTV: 80, LiquidationLTV: 85},
			{Name: "Wrapped BTC", BorrowLTV: 75, LiquidationLTV: 80},
		},
	}

	figures := eulerCharts(set)
	require.Len(t, figures, 1)

	chart := figures[0]
	assert.Equal(t, "group", chart.Layout.BarMode)
	assert.Contains(t, chart.Layout.Title, "Euler Prime USDC")
	assert.Contains(t, chart.Layout.Title, "USDC")
	require.Len(t, chart.Data, 2)
	assert.Equal(t, []string{"Wrapped Ether", "Wrapped BTC"}, chart.Data[0].X)
	assert.Equal(t, []float64{80, 75}, chart.Data[0].Y)
	assert.Equal(t, []float64{85, 80}, chart.Data[1].Y)
}

func TestEulerChartsWithoutSnapshot(t *testing.T) {
	set := &domain.EulerCollateralSet{Collaterals: []domain.EulerCollateral{
		{Name: "Wrapped Ether", BorrowLTV: 80, LiquidationLTV: 85},
	}}

	figures := eulerCharts(set)
	require.Len(t, figures, 1)
	assert.Equal(t, "Collateral LTVs", figures[0].Layout.Title)
}
