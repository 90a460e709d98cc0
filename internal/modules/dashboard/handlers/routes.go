package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all dashboard routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/supervaults", h.HandleGetSuperVaults)
	r.Get("/vaults", h.HandleListVaults)
}
