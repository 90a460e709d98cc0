// Package handlers provides HTTP handlers for system status.
package handlers

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Handler handles system HTTP requests
type Handler struct {
	version   string
	startedAt time.Time
	log       zerolog.Logger
}

// NewHandler creates a new system handler
func NewHandler(version string, log zerolog.Logger) *Handler {
	return &Handler{
		version:   version,
		startedAt: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
	}
}

// HandleGetStatus handles GET /api/system/status
func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.systemStats()

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"version":        h.version,
			"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
			"goroutines":     runtime.NumGoroutine(),
			"cpu_percent":    cpuPercent,
			"memory_percent": memPercent,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// systemStats samples CPU and RAM usage. The 100ms CPU window keeps the
// endpoint fast enough for frequent polling.
func (h *Handler) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
