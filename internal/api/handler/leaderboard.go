package handler

import (
	"net/http"

	"github.com/mcoot/killergame/internal/api/response"
	"github.com/mcoot/killergame/internal/services/ring"
)

// LeaderboardHandler serves the public leaderboard
type LeaderboardHandler struct {
	controller *ring.Controller
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(controller *ring.Controller) *LeaderboardHandler {
	return &LeaderboardHandler{controller: controller}
}

// Get handles GET /api/v1/leaderboard
func (h *LeaderboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	entries, err := h.controller.Leaderboard(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(entries))
}
