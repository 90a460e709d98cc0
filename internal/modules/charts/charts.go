// Package charts turns render records into the chart and tile descriptions
// the page renders. Everything here is a pure function over domain values;
// the output marshals to Plotly-compatible JSON consumed client-side.
package charts

import (
	"fmt"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/superform-xyz/supervaults/internal/domain"
)

// Plotly palette shared by every bar chart.
const (
	colorPrimary   = "rgb(55, 83, 109)"
	colorSecondary = "rgb(26, 118, 255)"

	chartHeight = 400
	donutHole   = 0.4
)

// Marker styles one Plotly trace.
type Marker struct {
	Color string `json:"color,omitempty"`
}

// Trace is one Plotly trace. Pie traces fill Labels/Values, bar traces X/Y.
type Trace struct {
	Type      string    `json:"type"`
	Name      string    `json:"name,omitempty"`
	Labels    []string  `json:"labels,omitempty"`
	Values    []float64 `json:"values,omitempty"`
	X         []string  `json:"x,omitempty"`
	Y         []float64 `json:"y,omitempty"`
	Hole      float64   `json:"hole,omitempty"`
	Text      []string  `json:"text,omitempty"`
	HoverInfo string    `json:"hoverinfo,omitempty"`
	Marker    *Marker   `json:"marker,omitempty"`
}

// Layout is the Plotly layout for one chart.
type Layout struct {
	Title   string `json:"title,omitempty"`
	BarMode string `json:"barmode,omitempty"`
	Height  int    `json:"height,omitempty"`
}

// Chart is one renderable figure.
type Chart struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Tile is one sub-vault card.
type Tile struct {
	Name         string  `json:"name"`
	Protocol     string  `json:"protocol"`
	ProtocolIcon string  `json:"protocol_icon,omitempty"`
	YieldType    string  `json:"yield_type,omitempty"`
	Allocation   string  `json:"allocation"`
	TVL          float64 `json:"tvl"`
	SuperformURL string  `json:"superform_url"`
	ExternalURL  string  `json:"external_url,omitempty"`
	Inactive     bool    `json:"inactive"`
}

// SectionView is everything the page renders for one aggregator vault.
type SectionView struct {
	Name       string  `json:"name"`
	ChainName  string  `json:"chain_name"`
	ChainColor string  `json:"chain_color"`
	VaultURL   string  `json:"vault_url"`
	BlendedAPY float64 `json:"blended_apy"`
	Charts     []Chart `json:"charts"`
	Tiles      []Tile  `json:"tiles"`
}

// BuildSection renders one record into its section view. color is the
// display color of the vault's chain.
func BuildSection(rec domain.RenderRecord, color string) SectionView {
	return SectionView{
		Name:       rec.Vault.FriendlyName,
		ChainName:  rec.Vault.Chain.Name,
		ChainColor: color,
		VaultURL:   vaultURL(rec.Vault),
		BlendedAPY: BlendedAPY(rec.SubVaults),
		Charts:     buildCharts(rec.Detail),
		Tiles:      buildTiles(rec.SubVaults),
	}
}

func vaultURL(v domain.VaultSummary) string {
	id := v.ID
	if id == "" {
		id = string(v.SuperformID)
	}
	return "https://www.superform.xyz/vault/" + id
}

// BlendedAPY is the allocation-weighted mean of the catalog APYs over the
// sub-vaults that hold capital. Zero when nothing is allocated.
func BlendedAPY(entries []domain.SubVaultEntry) float64 {
	var apys, weights []float64
	for _, e := range entries {
		if e.Allocation.Percentage <= 0 {
			continue
		}
		apys = append(apys, e.Summary.Statistics.APYNow)
		weights = append(weights, e.Allocation.Percentage)
	}
	if len(apys) == 0 {
		return 0
	}
	return stat.Mean(apys, weights)
}

func buildCharts(detail *domain.ProtocolDetail) []Chart {
	if detail == nil {
		return nil
	}
	switch {
	case detail.Morpho != nil:
		return morphoCharts(detail.Morpho)
	case detail.Euler != nil:
		return eulerCharts(detail.Euler)
	}
	return nil
}

// morphoCharts renders a vault's market allocation as a donut of supply
// assets and a stacked base+reward APY bar, both over markets that currently
// hold supply.
func morphoCharts(set *domain.MorphoMarketSet) []Chart {
	var active []domain.MorphoMarket
	for _, m := range set.Markets {
		if m.SupplyAssets > 0 {
			active = append(active, m)
		}
	}
	if len(active) == 0 {
		return nil
	}

	labels := make([]string, len(active))
	values := make([]float64, len(active))
	hover := make([]string, len(active))
	for i, m := range active {
		labels[i] = m.CollateralSymbol
		values[i] = m.SupplyAssets
		hover[i] = fmt.Sprintf("LLTV: %.1f%%", m.LLTV)
	}

	donut := Chart{
		Data: []Trace{{
			Type:      "pie",
			Labels:    labels,
			Values:    values,
			Hole:      donutHole,
			Text:      hover,
			HoverInfo: "label+percent+text",
		}},
		Layout: Layout{Title: "Market Allocation", Height: chartHeight},
	}

	// APY bar sorted by total yield, best first.
	sorted := make([]domain.MorphoMarket, len(active))
	copy(sorted, active)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalAPY > sorted[j].TotalAPY
	})

	x := make([]string, len(sorted))
	base := make([]float64, len(sorted))
	reward := make([]float64, len(sorted))
	for i, m := range sorted {
		x[i] = m.CollateralSymbol
		base[i] = m.SupplyAPY
		reward[i] = m.RewardAPR
	}

	apy := Chart{
		Data: []Trace{
			{Type: "bar", Name: "Base APY", X: x, Y: base, Marker: &Marker{Color: colorPrimary}},
			{Type: "bar", Name: "Reward APR", X: x, Y: reward, Marker: &Marker{Color: colorSecondary}},
		},
		Layout: Layout{Title: "Market APY", BarMode: "stack", Height: chartHeight},
	}

	return []Chart{donut, apy}
}

// eulerCharts renders the recognized collaterals as a grouped borrow vs
// liquidation LTV bar. The lens snapshot, when present, titles the chart.
func eulerCharts(set *domain.EulerCollateralSet) []Chart {
	if len(set.Collaterals) == 0 {
		return nil
	}

	x := make([]string, len(set.Collaterals))
	borrow := make([]float64, len(set.Collaterals))
	liquidation := make([]float64, len(set.Collaterals))
	for i, c := range set.Collaterals {
		x[i] = c.Name
		borrow[i] = c.BorrowLTV
		liquidation[i] = c.LiquidationLTV
	}

	title := "Collateral LTVs"
	if set.Info != nil {
		title = fmt.Sprintf("%s: Collateral LTVs (%.2f %s supplied)",
			set.Info.Name, set.Info.TotalAssets, set.Info.AssetSymbol)
	}

	return []Chart{{
		Data: []Trace{
			{Type: "bar", Name: "Borrow LTV", X: x, Y: borrow, Marker: &Marker{Color: colorPrimary}},
			{Type: "bar", Name: "Liquidation LTV", X: x, Y: liquidation, Marker: &Marker{Color: colorSecondary}},
		},
		Layout: Layout{Title: title, BarMode: "group", Height: chartHeight},
	}}
}

func buildTiles(entries []domain.SubVaultEntry) []Tile {
	tiles := make([]Tile, len(entries))
	for i, e := range entries {
		tiles[i] = Tile{
			Name:         e.Summary.FriendlyName,
			Protocol:     e.Summary.Protocol.Name,
			ProtocolIcon: e.Summary.Protocol.Graphics.Icon,
			YieldType:    e.Summary.YieldType,
			Allocation:   strconv.FormatFloat(e.Allocation.Percentage, 'f', 2, 64) + "%",
			TVL:          e.Summary.Statistics.TVLNow,
			SuperformURL: vaultURL(e.Summary),
			ExternalURL:  e.Summary.ExternalURL,
			Inactive:     e.Inactive(),
		}
	}
	return tiles
}
