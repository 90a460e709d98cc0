// Package dashboard assembles the render records for the vault dashboard:
// it joins the catalog's aggregator-vault listing with on-chain allocation
// state and protocol-specific detail, in bounded parallelism.
package dashboard

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/superform-xyz/supervaults/internal/chains"
	"github.com/superform-xyz/supervaults/internal/clients/goldsky"
	"github.com/superform-xyz/supervaults/internal/domain"
	"github.com/superform-xyz/supervaults/internal/retry"
)

// CatalogClient is the directory service the dashboard renders from.
type CatalogClient interface {
	ListSuperVaults(ctx context.Context) ([]domain.SuperVaultStat, error)
	GetVault(ctx context.Context, id domain.SuperformID) (domain.VaultSummary, error)
}

// AllocationReader reads one aggregator vault's on-chain allocation state.
type AllocationReader interface {
	Whitelist(ctx context.Context) ([]domain.SuperformID, error)
	Allocations(ctx context.Context) ([]domain.SuperformID, []*big.Int, error)
}

// AllocationReaderFactory builds the reader for one deployed vault.
type AllocationReaderFactory func(chain chains.Chain, vaultAddress string) AllocationReader

// DetailClient fetches protocol-specific chart data for one sub-vault.
type DetailClient interface {
	FetchVaultDetail(ctx context.Context, chainID int, address string) (*domain.ProtocolDetail, error)
}

// RegistryClient is the subgraph fallback for ids the catalog cannot serve.
type RegistryClient interface {
	GetSuperforms(ctx context.Context, chainID int, ids []domain.SuperformID) ([]goldsky.Superform, error)
}

// Knobs bounds the render pipeline.
type Knobs struct {
	VaultLimit int           // aggregator vaults per render
	Workers    int           // section worker pool size
	BatchSize  int           // sub-vault lookups per batch
	BatchDelay time.Duration // pause between lookup batches
}

// Config wires a Service.
type Config struct {
	Catalog      CatalogClient
	Chains       *chains.Registry
	Readers      AllocationReaderFactory
	Details      map[string]DetailClient // keyed by lower-case protocol name
	Registry     RegistryClient          // optional; nil disables the fallback
	Policy       retry.Policy            // catalog listing, on-chain reads, detail fetches
	LookupPolicy retry.Policy            // per-sub-vault catalog lookups
	Knobs        Knobs
	Log          zerolog.Logger
}

// Service builds dashboards. Safe for concurrent use; every build fetches
// from origin, nothing is cached between renders.
type Service struct {
	catalog      CatalogClient
	chains       *chains.Registry
	readers      AllocationReaderFactory
	details      map[string]DetailClient
	registry     RegistryClient
	policy       retry.Policy
	lookupPolicy retry.Policy
	limiter      *rate.Limiter
	knobs        Knobs
	log          zerolog.Logger
}

// NewService creates the dashboard service.
func NewService(cfg Config) *Service {
	knobs := cfg.Knobs
	if knobs.VaultLimit < 1 {
		knobs.VaultLimit = 15
	}
	if knobs.Workers < 1 {
		knobs.Workers = 4
	}
	if knobs.BatchSize < 1 {
		knobs.BatchSize = 2
	}
	if knobs.BatchDelay <= 0 {
		knobs.BatchDelay = 200 * time.Millisecond
	}

	return &Service{
		catalog:      cfg.Catalog,
		chains:       cfg.Chains,
		readers:      cfg.Readers,
		details:      cfg.Details,
		registry:     cfg.Registry,
		policy:       cfg.Policy,
		lookupPolicy: cfg.LookupPolicy,
		// One token per batch delay, shared across sections, so nested
		// lookups never hammer the catalog no matter how many workers run.
		limiter: rate.NewLimiter(rate.Every(knobs.BatchDelay), 1),
		knobs:   knobs,
		log:     cfg.Log.With().Str("service", "dashboard").Logger(),
	}
}

// BuildDashboard fetches and joins everything for one page render. Failed
// sections are omitted and logged; only total catalog failure is an error.
func (s *Service) BuildDashboard(ctx context.Context) ([]domain.RenderRecord, error) {
	cycleID := uuid.NewString()
	log := s.log.With().Str("cycle_id", cycleID).Logger()
	start := time.Now()
	log.Info().Msg("Render cycle started")

	var stats []domain.SuperVaultStat
	err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
		var listErr error
		stats, listErr = s.catalog.ListSuperVaults(ctx)
		return listErr
	})
	if err != nil {
		return nil, fmt.Errorf("list supervaults: %w", err)
	}

	// Chain 1 sections lead the page; everything else keeps catalog order.
	sort.SliceStable(stats, func(i, j int) bool {
		return chainRank(stats[i]) < chainRank(stats[j])
	})
	if len(stats) > s.knobs.VaultLimit {
		stats = stats[:s.knobs.VaultLimit]
	}

	records := s.buildSections(ctx, log, stats)

	log.Info().
		Int("sections", len(records)).
		Int("candidates", len(stats)).
		Dur("duration_ms", time.Since(start)).
		Msg("Render cycle finished")
	return records, nil
}

func chainRank(stat domain.SuperVaultStat) int {
	if stat.Vault.Chain.ID == 1 {
		return 0
	}
	return 1
}

type sectionJob struct {
	index int
	stat  domain.SuperVaultStat
}

// buildSections runs the per-vault assembly in a bounded worker pool.
// Results land in per-index slots and are compacted in display order, so
// the output is deterministic regardless of completion order.
func (s *Service) buildSections(ctx context.Context, log zerolog.Logger, stats []domain.SuperVaultStat) []domain.RenderRecord {
	if len(stats) == 0 {
		return nil
	}

	workers := s.knobs.Workers
	if len(stats) < workers {
		workers = len(stats)
	}

	jobs := make(chan sectionJob, len(stats))
	slots := make([]*domain.RenderRecord, len(stats))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					return
				}
				slots[job.index] = s.buildSection(ctx, log, job.stat)
			}
		}()
	}

	for i, stat := range stats {
		jobs <- sectionJob{index: i, stat: stat}
	}
	close(jobs)
	wg.Wait()

	records := make([]domain.RenderRecord, 0, len(slots))
	for _, rec := range slots {
		if rec != nil {
			records = append(records, *rec)
		}
	}
	return records
}

// buildSection assembles one aggregator vault's render record. Any failure
// that leaves the section without usable data returns nil; the section is
// omitted from the page, never shown as an error widget.
func (s *Service) buildSection(ctx context.Context, log zerolog.Logger, stat domain.SuperVaultStat) *domain.RenderRecord {
	vault := stat.Vault
	slog := log.With().
		Str("vault", vault.ContractAddress).
		Int("chain_id", vault.Chain.ID).
		Logger()

	chain, err := s.chains.Get(vault.Chain.ID)
	if err != nil {
		slog.Warn().Err(err).Msg("Dropping section on unsupported chain")
		return nil
	}

	reader := s.readers(chain, vault.ContractAddress)

	var whitelist []domain.SuperformID
	err = retry.Do(ctx, s.policy, func(ctx context.Context) error {
		var wlErr error
		whitelist, wlErr = reader.Whitelist(ctx)
		return wlErr
	})
	if err != nil {
		slog.Warn().Err(err).Msg("Dropping section: whitelist unavailable")
		return nil
	}

	var allocIDs []domain.SuperformID
	var weights []*big.Int
	err = retry.Do(ctx, s.policy, func(ctx context.Context) error {
		var allocErr error
		allocIDs, weights, allocErr = reader.Allocations(ctx)
		return allocErr
	})
	if err != nil {
		slog.Warn().Err(err).Msg("Dropping section: allocations unavailable")
		return nil
	}

	percentages := make(map[domain.SuperformID]float64, len(allocIDs))
	for i, id := range allocIDs {
		percentages[id] = domain.PercentFromBasisPoints(weights[i])
	}

	summaries := s.resolveSummaries(ctx, slog, chain, whitelist)

	entries := make([]domain.SubVaultEntry, 0, len(whitelist))
	for _, id := range whitelist {
		summary, ok := summaries[id]
		if !ok {
			continue
		}
		entries = append(entries, domain.SubVaultEntry{
			Summary: summary,
			Allocation: domain.AllocationEntry{
				SuperformID: id,
				Percentage:  percentages[id],
			},
		})
	}
	if len(entries) == 0 {
		slog.Warn().Msg("Dropping section: no sub-vaults resolved")
		return nil
	}

	domain.SortByAllocation(entries)

	return &domain.RenderRecord{
		Vault:     vault,
		SubVaults: entries,
		Detail:    s.fetchDetail(ctx, slog, entries),
	}
}

// resolveSummaries looks each whitelisted id up in the catalog, in paced
// batches, falling back to the registry subgraph for ids the catalog cannot
// serve. Ids failing both paths are logged and skipped.
func (s *Service) resolveSummaries(ctx context.Context, log zerolog.Logger, chain chains.Chain, ids []domain.SuperformID) map[domain.SuperformID]domain.VaultSummary {
	summaries := make(map[domain.SuperformID]domain.VaultSummary, len(ids))
	var unresolved []domain.SuperformID

	for batchStart := 0; batchStart < len(ids); batchStart += s.knobs.BatchSize {
		batchEnd := batchStart + s.knobs.BatchSize
		if batchEnd > len(ids) {
			batchEnd = len(ids)
		}
		batch := ids[batchStart:batchEnd]

		if err := s.limiter.Wait(ctx); err != nil {
			log.Warn().Err(err).Msg("Sub-vault resolution interrupted")
			return summaries
		}

		results := make([]*domain.VaultSummary, len(batch))
		var wg sync.WaitGroup
		for i, id := range batch {
			wg.Add(1)
			go func(i int, id domain.SuperformID) {
				defer wg.Done()
				var summary domain.VaultSummary
				err := retry.Do(ctx, s.lookupPolicy, func(ctx context.Context) error {
					var lookupErr error
					summary, lookupErr = s.catalog.GetVault(ctx, id)
					return lookupErr
				})
				if err != nil {
					log.Warn().Err(err).Str("superform_id", string(id)).Msg("Catalog lookup failed")
					return
				}
				results[i] = &summary
			}(i, id)
		}
		wg.Wait()

		for i, id := range batch {
			if results[i] != nil {
				summaries[id] = *results[i]
			} else {
				unresolved = append(unresolved, id)
			}
		}
	}

	for _, id := range s.resolveFromRegistry(ctx, log, chain, unresolved, summaries) {
		log.Warn().Str("superform_id", string(id)).Msg("Sub-vault unresolved, skipping")
	}

	return summaries
}

// resolveFromRegistry fills summaries from the subgraph for the given ids
// and returns the ids still missing afterwards. Registry records carry no
// protocol or statistics; the tile renders with what the subgraph knows.
func (s *Service) resolveFromRegistry(ctx context.Context, log zerolog.Logger, chain chains.Chain, ids []domain.SuperformID, summaries map[domain.SuperformID]domain.VaultSummary) []domain.SuperformID {
	if len(ids) == 0 {
		return nil
	}
	if s.registry == nil {
		return ids
	}

	superforms, err := s.registry.GetSuperforms(ctx, chain.ID, ids)
	if err != nil {
		log.Warn().Err(err).Msg("Registry fallback failed")
		return ids
	}

	found := make(map[domain.SuperformID]bool, len(superforms))
	for _, sf := range superforms {
		found[sf.SuperformID] = true
		summaries[sf.SuperformID] = domain.VaultSummary{
			SuperformID:     sf.SuperformID,
			FriendlyName:    sf.VaultDetails.Name,
			ContractAddress: sf.VaultAddress,
			Chain:           domain.ChainRef{ID: chain.ID, Name: chain.Name},
			YieldType:       sf.VaultDetails.Symbol,
		}
	}

	var missing []domain.SuperformID
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

// fetchDetail scans the active sub-vaults in allocation order for the first
// protocol with a registered detail client and a successful fetch. Each
// protocol is attempted once per section; a failed fetch moves the scan to
// the next candidate instead of dropping the section.
func (s *Service) fetchDetail(ctx context.Context, log zerolog.Logger, entries []domain.SubVaultEntry) *domain.ProtocolDetail {
	attempted := make(map[string]bool)

	for _, entry := range entries {
		if entry.Allocation.Percentage <= 0 {
			continue
		}

		name := strings.ToLower(entry.Summary.Protocol.Name)
		client, ok := s.details[name]
		if !ok || attempted[name] {
			continue
		}
		attempted[name] = true

		address := entry.Summary.ContractAddress
		chainID := entry.Summary.Chain.ID

		var detail *domain.ProtocolDetail
		err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
			var fetchErr error
			detail, fetchErr = client.FetchVaultDetail(ctx, chainID, address)
			return fetchErr
		})
		if err != nil {
			log.Warn().Err(err).Str("protocol", name).Str("sub_vault", address).
				Msg("Protocol detail fetch failed, scanning next candidate")
			continue
		}

		log.Debug().Str("protocol", name).Str("sub_vault", address).Msg("Protocol detail fetched")
		return detail
	}

	return nil
}
