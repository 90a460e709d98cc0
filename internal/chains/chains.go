// Package chains holds the registry of supported EVM networks: chain ids,
// display names and colors, RPC endpoints, and per-chain RPC timeouts.
package chains

import (
	"fmt"
	"sort"
	"time"
)

// Chain describes one supported network.
type Chain struct {
	ID         int
	Name       string
	RPCURL     string
	Color      string
	RPCTimeout time.Duration
}

// Overrides carries the RPC endpoints configured via environment. Chains
// without an override use their public default endpoint.
type Overrides struct {
	EthereumRPCURL string
	BaseRPCURL     string
}

// Registry maps chain ids to chain descriptors. Construct with New; the
// registry is immutable afterwards.
type Registry struct {
	chains map[int]Chain
}

// New builds the registry of supported chains, applying endpoint overrides.
func New(o Overrides) *Registry {
	defs := []struct {
		id     int
		name   string
		rpcURL string
		color  string
	}{
		{1, "Ethereum", "https://eth.llamarpc.com", "gray"},
		{10, "Optimism", "https://mainnet.optimism.io", "red"},
		{56, "BSC", "https://bsc-dataseed.binance.org", "yellow"},
		{137, "Polygon", "https://polygon-rpc.com", "purple"},
		{250, "Fantom", "https://rpc.ftm.tools", "lightblue"},
		{8453, "Base", "https://mainnet.base.org", "blue"},
		{42161, "Arbitrum", "https://arb1.arbitrum.io/rpc", "navy"},
		{43114, "Avalanche", "https://api.avax.network/ext/bc/C/rpc", "maroon"},
		{81457, "Blast", "https://blast.blockpi.network/v1/rpc/public", "gold"},
		{59144, "Linea", "https://rpc.linea.build", "black"},
	}

	m := make(map[int]Chain, len(defs))
	for _, d := range defs {
		rpcURL := d.rpcURL
		switch {
		case d.id == 1 && o.EthereumRPCURL != "":
			rpcURL = o.EthereumRPCURL
		case d.id == 8453 && o.BaseRPCURL != "":
			rpcURL = o.BaseRPCURL
		}

		m[d.id] = Chain{
			ID:         d.id,
			Name:       d.name,
			RPCURL:     rpcURL,
			Color:      d.color,
			RPCTimeout: rpcTimeout(d.id),
		}
	}

	return &Registry{chains: m}
}

// rpcTimeout returns the call timeout for a chain. Optimism nodes are the
// slowest of the public endpoints, mainnet is next; everything else answers
// quickly.
func rpcTimeout(id int) time.Duration {
	switch id {
	case 10:
		return 90 * time.Second
	case 1:
		return 30 * time.Second
	default:
		return 15 * time.Second
	}
}

// Get returns the chain for an id, or an error for unsupported ids.
func (r *Registry) Get(id int) (Chain, error) {
	c, ok := r.chains[id]
	if !ok {
		return Chain{}, fmt.Errorf("unsupported chain id %d", id)
	}
	return c, nil
}

// Color returns the display color for a chain, black for unknown ids.
func (r *Registry) Color(id int) string {
	if c, ok := r.chains[id]; ok {
		return c.Color
	}
	return "#000000"
}

// IDs returns all supported chain ids in ascending order.
func (r *Registry) IDs() []int {
	ids := make([]int, 0, len(r.chains))
	for id := range r.chains {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
