package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/bullcow/internal/api/apierr"
	"github.com/mcoot/bullcow/internal/api/request"
	"github.com/mcoot/bullcow/internal/api/response"
	"github.com/mcoot/bullcow/internal/model"
	"github.com/mcoot/bullcow/internal/services/history"
)

// HistoryHandler serves archived matches
type HistoryHandler struct {
	history *history.Service
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(history *history.Service) *HistoryHandler {
	return &HistoryHandler{
		history: history,
	}
}

// ListForPlayer handles GET /api/v1/players/{player_id}/matches
func (h *HistoryHandler) ListForPlayer(w http.ResponseWriter, r *http.Request) {
	playerID := model.PlayerID(mux.Vars(r)["player_id"])
	if playerID == "" {
		apierr.WriteError(w, model.ErrMissingPlayerID)
		return
	}

	query, err := request.ParseHistoryQuery(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	matches, err := h.history.ForPlayer(r.Context(), playerID, query.Limit)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchListFromModel(playerID, matches))
}

// Get handles GET /api/v1/players/{player_id}/matches/{match_id}
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	playerID := model.PlayerID(vars["player_id"])

	match, err := h.history.Get(r.Context(), model.MatchID(vars["match_id"]))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	// Matches are only visible under the players who took part
	if !match.Involves(playerID) {
		apierr.WriteError(w, model.ErrMatchNotFound)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchFromModel(match, playerID))
}
