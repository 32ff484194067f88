package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/bullcow/internal/api/handler"
	apimiddleware "github.com/mcoot/bullcow/internal/api/middleware"
	"github.com/mcoot/bullcow/internal/api/response"
	"github.com/mcoot/bullcow/internal/loop"
	"github.com/mcoot/bullcow/internal/middleware"
	"github.com/mcoot/bullcow/internal/services/history"
	"github.com/mcoot/bullcow/internal/services/matchmaking"
	"github.com/mcoot/bullcow/internal/services/registry"
	"github.com/mcoot/bullcow/internal/web/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger     *slog.Logger
	Executor   loop.Executor
	Registry   *registry.Registry
	Matchmaker *matchmaking.Matchmaker
	History    *history.Service
	WSHandler  *ws.Handler
}

// NewRouter creates a new router with the REST API and the WebSocket route
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	historyHandler := handler.NewHistoryHandler(cfg.History)
	statsHandler := handler.NewStatsHandler(cfg.Executor, cfg.Registry, cfg.Matchmaker)

	recoveryMiddleware := apimiddleware.Recovery(cfg.Logger)
	loggingMiddleware := middleware.Logging(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/stats", statsHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/players/{player_id}/matches", historyHandler.ListForPlayer).Methods(http.MethodGet)
	api.HandleFunc("/players/{player_id}/matches/{match_id}", historyHandler.Get).Methods(http.MethodGet)

	// The logging writer supports hijacking, so upgrades pass through it
	if cfg.WSHandler != nil {
		serveWS := http.HandlerFunc(cfg.WSHandler.ServeWS)
		r.Handle("/ws", recoveryMiddleware(middleware.Identity(loggingMiddleware(serveWS)))).Methods(http.MethodGet)
	}

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
