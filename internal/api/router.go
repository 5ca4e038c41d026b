package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/killergame/internal/api/handler"
	"github.com/mcoot/killergame/internal/api/middleware"
	"github.com/mcoot/killergame/internal/api/sse"
	sharedmw "github.com/mcoot/killergame/internal/middleware"
	"github.com/mcoot/killergame/internal/services/auth"
	"github.com/mcoot/killergame/internal/services/notify"
	"github.com/mcoot/killergame/internal/services/ring"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	AuthService *auth.Service
	Controller  *ring.Controller
	Dispatcher  *notify.Dispatcher
	HubManager  *sse.HubManager
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.Controller, cfg.Dispatcher)
	adminHandler := handler.NewAdminHandler(cfg.Controller, cfg.Dispatcher)
	leaderboardHandler := handler.NewLeaderboardHandler(cfg.Controller)
	eventsHandler := handler.NewEventsHandler(cfg.HubManager)

	// Create middleware
	apiKeyMiddleware := middleware.APIKey(cfg.AuthService)
	actorMiddleware := middleware.Actor()
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(sharedmw.RequestID)
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Everything else is called by trusted adapters
	authed := api.NewRoute().Subrouter()
	authed.Use(apiKeyMiddleware)

	authed.HandleFunc("/leaderboard", leaderboardHandler.Get).Methods(http.MethodGet)

	// Routes acting on behalf of a player
	me := authed.PathPrefix("/me").Subrouter()
	me.Use(actorMiddleware)
	me.HandleFunc("/touch", playerHandler.Touch).Methods(http.MethodPost)
	me.HandleFunc("/register", playerHandler.Register).Methods(http.MethodPost)
	me.HandleFunc("/cancel", playerHandler.Cancel).Methods(http.MethodPost)
	me.HandleFunc("/cancel/confirm", playerHandler.ConfirmCancel).Methods(http.MethodPost)
	me.HandleFunc("/status", playerHandler.Status).Methods(http.MethodGet)
	me.HandleFunc("/kill", playerHandler.RequestKill).Methods(http.MethodPost)
	me.HandleFunc("/kill/confirm", playerHandler.ConfirmKill).Methods(http.MethodPost)
	me.HandleFunc("/kill/deny", playerHandler.DenyKill).Methods(http.MethodPost)
	if cfg.HubManager != nil {
		me.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)
	}

	// Moderation routes; the controller checks admin rights
	admin := authed.PathPrefix("/admin").Subrouter()
	admin.Use(actorMiddleware)
	admin.HandleFunc("/distribute", adminHandler.Distribute).Methods(http.MethodPost)
	admin.HandleFunc("/reset", adminHandler.Reset).Methods(http.MethodPost)
	admin.HandleFunc("/admins/{player_id}", adminHandler.GrantAdmin).Methods(http.MethodPut)
	admin.HandleFunc("/admins/{player_id}", adminHandler.RevokeAdmin).Methods(http.MethodDelete)
	admin.HandleFunc("/ring", adminHandler.Ring).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
