package handler

import (
	"net/http"

	"github.com/mcoot/killergame/internal/api/middleware"
	"github.com/mcoot/killergame/internal/api/sse"
)

// EventsHandler streams notifications to a connected player
type EventsHandler struct {
	hubManager *sse.HubManager
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hubManager *sse.HubManager) *EventsHandler {
	return &EventsHandler{hubManager: hubManager}
}

// Stream handles GET /api/v1/me/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	actor := middleware.MustGetActor(r.Context())
	sse.ServeSSE(w, r, h.hubManager, actor)
}
