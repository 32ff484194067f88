package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/mcoot/bullcow/internal/api/apierr"
	"github.com/mcoot/bullcow/internal/api/response"
	"github.com/mcoot/bullcow/internal/loop"
	"github.com/mcoot/bullcow/internal/services/matchmaking"
	"github.com/mcoot/bullcow/internal/services/registry"
)

const statsTimeout = 2 * time.Second

// StatsHandler reports live coordinator state. Reads run on the event loop.
type StatsHandler struct {
	executor   loop.Executor
	registry   *registry.Registry
	matchmaker *matchmaking.Matchmaker
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(executor loop.Executor, registry *registry.Registry, matchmaker *matchmaking.Matchmaker) *StatsHandler {
	return &StatsHandler{
		executor:   executor,
		registry:   registry,
		matchmaker: matchmaker,
	}
}

// Get handles GET /api/v1/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), statsTimeout)
	defer cancel()

	var stats response.Stats
	err := h.executor.Do(ctx, func() {
		stats = response.StatsFromRegistry(h.registry.Stats(), h.matchmaker.QueueLength())
	})
	if err != nil {
		apierr.WriteError(w, apierr.NewUnavailableError())
		return
	}

	response.JSON(w, http.StatusOK, stats)
}
