package euler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/superform-xyz/supervaults/internal/chains"
	"github.com/superform-xyz/supervaults/internal/domain"
	"github.com/superform-xyz/supervaults/internal/ethrpc"
)

// Lens fans vault detail requests out to the per-chain lens clients, so the
// orchestrator can ask for any chain and get a clean error where no lens is
// deployed.
type Lens struct {
	clients map[int]*Client
	log     zerolog.Logger
}

// NewLens builds lens clients for every chain that both has a deployed lens
// and an RPC client in rpcs.
func NewLens(registry *chains.Registry, rpcs map[int]*ethrpc.Client, log zerolog.Logger) *Lens {
	clients := make(map[int]*Client)
	for chainID := range lensAddresses {
		chain, err := registry.Get(chainID)
		if err != nil {
			continue
		}
		rpc, ok := rpcs[chainID]
		if !ok {
			continue
		}
		client, err := New(chain, rpc, log)
		if err != nil {
			continue
		}
		clients[chainID] = client
	}

	return &Lens{
		clients: clients,
		log:     log.With().Str("client", "euler-lens").Logger(),
	}
}

// FetchVaultDetail dispatches to the chain's lens client.
func (l *Lens) FetchVaultDetail(ctx context.Context, chainID int, address string) (*domain.ProtocolDetail, error) {
	client, ok := l.clients[chainID]
	if !ok {
		return nil, fmt.Errorf("euler: no lens deployed on chain %d", chainID)
	}
	return client.FetchVaultDetail(ctx, address)
}
