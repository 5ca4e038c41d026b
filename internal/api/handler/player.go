package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mcoot/killergame/internal/api/middleware"
	"github.com/mcoot/killergame/internal/api/request"
	"github.com/mcoot/killergame/internal/api/response"
	"github.com/mcoot/killergame/internal/model"
	"github.com/mcoot/killergame/internal/services/notify"
	"github.com/mcoot/killergame/internal/services/ring"
)

// PlayerHandler handles the acting player's endpoints
type PlayerHandler struct {
	controller *ring.Controller
	dispatcher *notify.Dispatcher
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(controller *ring.Controller, dispatcher *notify.Dispatcher) *PlayerHandler {
	return &PlayerHandler{
		controller: controller,
		dispatcher: dispatcher,
	}
}

// Touch handles POST /api/v1/me/touch
func (h *PlayerHandler) Touch(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.controller.Touch)
}

// Register handles POST /api/v1/me/register
func (h *PlayerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid request body"))
		return
	}

	h.run(w, r, func(ctx context.Context, id model.PlayerID) (*model.Result, error) {
		return h.controller.Register(ctx, id, req.Name)
	})
}

// Cancel handles POST /api/v1/me/cancel
func (h *PlayerHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.controller.Cancel)
}

// ConfirmCancel handles POST /api/v1/me/cancel/confirm
func (h *PlayerHandler) ConfirmCancel(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.controller.ConfirmCancel)
}

// RequestKill handles POST /api/v1/me/kill
func (h *PlayerHandler) RequestKill(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.controller.RequestKill)
}

// ConfirmKill handles POST /api/v1/me/kill/confirm
func (h *PlayerHandler) ConfirmKill(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.controller.ConfirmKill)
}

// DenyKill handles POST /api/v1/me/kill/deny
func (h *PlayerHandler) DenyKill(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.controller.DenyKill)
}

// Status handles GET /api/v1/me/status
func (h *PlayerHandler) Status(w http.ResponseWriter, r *http.Request) {
	actor := middleware.MustGetActor(r.Context())

	status, err := h.controller.Status(r.Context(), actor)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.StatusFromModel(status))
}

func (h *PlayerHandler) run(w http.ResponseWriter, r *http.Request, op func(context.Context, model.PlayerID) (*model.Result, error)) {
	actor := middleware.MustGetActor(r.Context())

	result, err := op(r.Context(), actor)
	if err != nil {
		WriteError(w, err)
		return
	}

	writeResult(w, r, h.dispatcher, actor, result)
}

// writeResult dispatches the committed result and returns it to the caller
func writeResult(w http.ResponseWriter, r *http.Request, dispatcher *notify.Dispatcher, actor model.PlayerID, result *model.Result) {
	rendered := dispatcher.Dispatch(r.Context(), actor, result)
	response.JSON(w, http.StatusOK, response.ResultFromModel(result, rendered))
}
