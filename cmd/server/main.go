// Package main is the entry point for the SuperVaults dashboard, a web
// application that aggregates on-chain allocation state and protocol
// analytics for Superform SuperVaults into a single page.
//
// Startup sequence:
// 1. Load configuration from environment variables (.env supported)
// 2. Initialize logging
// 3. Build the chain registry and one RPC client per supported chain
// 4. Wire upstream clients (catalog, Morpho, Euler lenses, registry subgraph)
// 5. Wire the dashboard service and HTTP handlers
// 6. Start the HTTP server and wait for a shutdown signal
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/superform-xyz/supervaults/internal/chains"
	"github.com/superform-xyz/supervaults/internal/clients/euler"
	"github.com/superform-xyz/supervaults/internal/clients/goldsky"
	"github.com/superform-xyz/supervaults/internal/clients/morpho"
	"github.com/superform-xyz/supervaults/internal/clients/superform"
	"github.com/superform-xyz/supervaults/internal/clients/supervault"
	"github.com/superform-xyz/supervaults/internal/config"
	"github.com/superform-xyz/supervaults/internal/ethrpc"
	"github.com/superform-xyz/supervaults/internal/modules/dashboard"
	dashboardhandlers "github.com/superform-xyz/supervaults/internal/modules/dashboard/handlers"
	systemhandlers "github.com/superform-xyz/supervaults/internal/modules/system/handlers"
	"github.com/superform-xyz/supervaults/internal/retry"
	"github.com/superform-xyz/supervaults/internal/server"
	"github.com/superform-xyz/supervaults/pkg/logger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})

	log.Info().
		Str("version", version).
		Int("port", cfg.Port).
		Msg("Starting SuperVaults dashboard")

	registry := chains.New(chains.Overrides{
		EthereumRPCURL: cfg.EthereumRPCURL,
		BaseRPCURL:     cfg.BaseRPCURL,
	})

	// One RPC client per supported chain, shared across renders.
	rpcs := make(map[int]*ethrpc.Client)
	for _, id := range registry.IDs() {
		chain, err := registry.Get(id)
		if err != nil {
			continue
		}
		rpcs[id] = ethrpc.New(ethrpc.Config{
			URL:     chain.RPCURL,
			Timeout: chain.RPCTimeout,
		}, log)
	}

	catalog, err := superform.New(superform.Config{
		BaseURL: cfg.SuperformBaseURL,
		APIKey:  cfg.SuperformAPIKey,
		Timeout: cfg.FetchTimeout,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create catalog client")
	}

	morphoClient := morpho.New(morpho.Config{Timeout: cfg.FetchTimeout}, log)
	eulerLens := euler.NewLens(registry, rpcs, log)
	goldskyClient := goldsky.New(goldsky.Config{Timeout: cfg.FetchTimeout}, log)

	dashboardService := dashboard.NewService(dashboard.Config{
		Catalog: catalog,
		Chains:  registry,
		Readers: func(chain chains.Chain, vaultAddress string) dashboard.AllocationReader {
			return supervault.New(chain, vaultAddress, rpcs[chain.ID], log)
		},
		Details: map[string]dashboard.DetailClient{
			"morpho": morphoClient,
			"euler":  eulerLens,
		},
		Registry: goldskyClient,
		Policy:   retry.DefaultPolicy(cfg),
		LookupPolicy: retry.Policy{
			MaxAttempts:   cfg.RetryMaxAttempts,
			BaseDelay:     cfg.RetryBaseDelay,
			MaxDelay:      30 * time.Second,
			PerTryTimeout: cfg.FetchTimeout,
		},
		Knobs: dashboard.Knobs{
			VaultLimit: cfg.VaultLimit,
			Workers:    cfg.VaultWorkers,
			BatchSize:  cfg.SubvaultBatchSize,
			BatchDelay: cfg.SubvaultBatchDelay,
		},
		Log: log,
	})

	dashboardHandler := dashboardhandlers.NewHandler(
		dashboardService, catalog, registry, cfg.RenderTimeout, log)
	systemHandler := systemhandlers.NewHandler(version, log)

	srv := server.New(server.Config{
		Log:              log,
		Port:             cfg.Port,
		DevMode:          cfg.DevMode,
		RenderTimeout:    cfg.RenderTimeout,
		DashboardHandler: dashboardHandler,
		SystemHandler:    systemHandler,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Block until shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
