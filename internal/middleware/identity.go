package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/bullcow/internal/model"
)

type contextKey string

const playerIDContextKey contextKey = "player_id"

// PlayerIDHeader carries the player identifier on plain HTTP requests
const PlayerIDHeader = "X-Player-ID"

// Identity extracts the client-supplied player identifier into the request
// context. It never rejects a request; handlers that need an identity
// check PlayerID themselves.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := extractPlayerID(r); id != "" {
			r = r.WithContext(WithPlayerID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// extractPlayerID checks the query string first, then the header.
// Browsers cannot set headers on a WebSocket handshake.
func extractPlayerID(r *http.Request) model.PlayerID {
	if id := strings.TrimSpace(r.URL.Query().Get("player_id")); id != "" {
		return model.PlayerID(id)
	}
	return model.PlayerID(strings.TrimSpace(r.Header.Get(PlayerIDHeader)))
}

// WithPlayerID returns a context carrying the player identifier
func WithPlayerID(ctx context.Context, id model.PlayerID) context.Context {
	return context.WithValue(ctx, playerIDContextKey, id)
}

// PlayerID returns the player identifier from the context, or ""
func PlayerID(ctx context.Context) model.PlayerID {
	id, _ := ctx.Value(playerIDContextKey).(model.PlayerID)
	return id
}
