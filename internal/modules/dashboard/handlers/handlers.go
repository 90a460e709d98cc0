// Package handlers provides HTTP handlers for the dashboard API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/superform-xyz/supervaults/internal/chains"
	"github.com/superform-xyz/supervaults/internal/clients/superform"
	"github.com/superform-xyz/supervaults/internal/domain"
	"github.com/superform-xyz/supervaults/internal/modules/charts"
)

// DashboardService assembles render records for one page load.
type DashboardService interface {
	BuildDashboard(ctx context.Context) ([]domain.RenderRecord, error)
}

// VaultLister serves the raw catalog listing.
type VaultLister interface {
	ListVaults(ctx context.Context) ([]domain.VaultSummary, error)
}

// Handler handles dashboard HTTP requests
type Handler struct {
	dashboard     DashboardService
	catalog       VaultLister
	chains        *chains.Registry
	renderTimeout time.Duration
	log           zerolog.Logger
}

// NewHandler creates a new dashboard handler
func NewHandler(
	dashboard DashboardService,
	catalog VaultLister,
	registry *chains.Registry,
	renderTimeout time.Duration,
	log zerolog.Logger,
) *Handler {
	if renderTimeout <= 0 {
		renderTimeout = 4 * time.Minute
	}
	return &Handler{
		dashboard:     dashboard,
		catalog:       catalog,
		chains:        registry,
		renderTimeout: renderTimeout,
		log:           log.With().Str("handler", "dashboard").Logger(),
	}
}

// HandleGetSuperVaults handles GET /api/supervaults
func (h *Handler) HandleGetSuperVaults(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.renderTimeout)
	defer cancel()

	records, err := h.dashboard.BuildDashboard(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Dashboard build failed")

		message := "Failed to build dashboard"
		if errors.Is(err, superform.ErrEmptyCatalog) {
			message = "Vault catalog returned no supervaults"
		}
		h.writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
			"metadata": map[string]interface{}{
				"timestamp": time.Now().Format(time.RFC3339),
			},
		})
		return
	}

	sections := make([]charts.SectionView, 0, len(records))
	for _, rec := range records {
		sections = append(sections, charts.BuildSection(rec, h.chains.Color(rec.Vault.Chain.ID)))
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"sections": sections,
			"count":    len(sections),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleListVaults handles GET /api/vaults
func (h *Handler) HandleListVaults(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	vaults, err := h.catalog.ListVaults(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list vaults")
		http.Error(w, "Failed to list vaults", http.StatusBadGateway)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"vaults": vaults,
			"count":  len(vaults),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
