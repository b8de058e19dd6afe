// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"maps"
	"net/http"
	"time"
)

// StatsProvider exposes service counters and effective configuration.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves the provider's stats plus process uptime.
type StatsHandler struct {
	provider  StatsProvider
	startedAt time.Time
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider, startedAt: time.Now()}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	out := map[string]interface{}{}
	if h.provider != nil {
		maps.Copy(out, h.provider.GetStats())
	}
	out["uptimeSeconds"] = int64(time.Since(h.startedAt).Seconds())
	writeJSON(w, http.StatusOK, out)
}
