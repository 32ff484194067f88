package ws

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mcoot/bullcow/internal/api/apierr"
	"github.com/mcoot/bullcow/internal/loop"
	"github.com/mcoot/bullcow/internal/middleware"
	"github.com/mcoot/bullcow/internal/model"
	"github.com/mcoot/bullcow/internal/services/dispatch"
)

// Handler upgrades player connections and bridges them onto the event loop
type Handler struct {
	upgrader   websocket.Upgrader
	dispatcher *dispatch.Dispatcher
	executor   loop.Executor
	logger     *slog.Logger

	mu      sync.Mutex
	clients map[*Client]struct{}
}

// NewHandler creates a WebSocket handler
func NewHandler(dispatcher *dispatch.Dispatcher, executor loop.Executor, logger *slog.Logger) *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Clients identify by an opaque id only, so any origin may connect
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		dispatcher: dispatcher,
		executor:   executor,
		logger:     logger.With(slog.String("component", "ws")),
		clients:    make(map[*Client]struct{}),
	}
}

// CloseAll closes every open socket. Each close surfaces as a normal
// disconnect, so players in a game get their grace period.
func (h *Handler) CloseAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
	h.logger.Info("closed all websocket clients", slog.Int("count", len(clients)))
}

// Open returns the number of sockets currently open
func (h *Handler) Open() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Handler) track(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Handler) untrack(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// ServeWS handles GET /ws?player_id=<id>
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.PlayerID(r.Context())
	if playerID == "" {
		playerID = model.PlayerID(r.URL.Query().Get("player_id"))
	}
	if playerID == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("player_id is required"))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied with an HTTP error
		h.logger.Warn("ws upgrade failed",
			slog.String("player_id", string(playerID)),
			slog.String("error", err.Error()),
		)
		return
	}

	client := NewClient(playerID, conn, h.logger)
	h.track(client)
	go client.writePump()

	// Connect is queued before any frame can be read, so it always runs first
	h.executor.Post(func() {
		if err := h.dispatcher.Connect(playerID, client); err != nil {
			h.logger.Warn("connection rejected",
				slog.String("player_id", string(playerID)),
				slog.String("error", err.Error()),
			)
			client.Close()
		}
	})

	go client.readPump(
		func(env model.Envelope) {
			h.executor.Post(func() { h.dispatcher.Handle(playerID, client, env) })
		},
		func() {
			h.untrack(client)
			h.executor.Post(func() { h.dispatcher.Disconnect(playerID, client) })
		},
	)
}
