package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/killergame/internal/api/middleware"
	"github.com/mcoot/killergame/internal/api/response"
	"github.com/mcoot/killergame/internal/model"
	"github.com/mcoot/killergame/internal/services/notify"
	"github.com/mcoot/killergame/internal/services/ring"
)

// AdminHandler handles moderation endpoints
type AdminHandler struct {
	controller *ring.Controller
	dispatcher *notify.Dispatcher
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(controller *ring.Controller, dispatcher *notify.Dispatcher) *AdminHandler {
	return &AdminHandler{
		controller: controller,
		dispatcher: dispatcher,
	}
}

// Distribute handles POST /api/v1/admin/distribute
func (h *AdminHandler) Distribute(w http.ResponseWriter, r *http.Request) {
	actor := middleware.MustGetActor(r.Context())

	result, err := h.controller.Distribute(r.Context(), actor)
	if err != nil {
		WriteError(w, err)
		return
	}

	writeResult(w, r, h.dispatcher, actor, result)
}

// Reset handles POST /api/v1/admin/reset
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	actor := middleware.MustGetActor(r.Context())

	result, err := h.controller.Reset(r.Context(), actor)
	if err != nil {
		WriteError(w, err)
		return
	}

	writeResult(w, r, h.dispatcher, actor, result)
}

// GrantAdmin handles PUT /api/v1/admin/admins/{player_id}
func (h *AdminHandler) GrantAdmin(w http.ResponseWriter, r *http.Request) {
	h.setAdmin(w, r, true)
}

// RevokeAdmin handles DELETE /api/v1/admin/admins/{player_id}
func (h *AdminHandler) RevokeAdmin(w http.ResponseWriter, r *http.Request) {
	h.setAdmin(w, r, false)
}

func (h *AdminHandler) setAdmin(w http.ResponseWriter, r *http.Request, grant bool) {
	actor := middleware.MustGetActor(r.Context())

	target, err := model.ParsePlayerID(mux.Vars(r)["player_id"])
	if err != nil {
		WriteError(w, model.ErrInvalidPlayerID)
		return
	}

	result, err := h.controller.SetAdmin(r.Context(), actor, target, grant)
	if err != nil {
		WriteError(w, err)
		return
	}

	writeResult(w, r, h.dispatcher, actor, result)
}

// Ring handles GET /api/v1/admin/ring
func (h *AdminHandler) Ring(w http.ResponseWriter, r *http.Request) {
	actor := middleware.MustGetActor(r.Context())

	report, err := h.controller.Ring(r.Context(), actor)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RingReportFromModel(report))
}
