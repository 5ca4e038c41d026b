package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/killergame/internal/api/apierr"
	"github.com/mcoot/killergame/internal/model"
	"github.com/mcoot/killergame/internal/services/auth"
)

// Header names used by transport adapters
const (
	APIKeyHeader   = "X-API-Key"
	PlayerIDHeader = "X-Player-ID"
)

type contextKey string

const actorContextKey contextKey = "actor"

// APIKey creates middleware that only admits callers presenting a configured API key.
// It does nothing when the auth service has no keys configured.
func APIKey(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authService.Enabled() {
				if err := authService.ValidateKey(extractKey(r)); err != nil {
					apierr.WriteError(w, err)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Actor creates middleware that reads the acting player from X-Player-ID
func Actor() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(PlayerIDHeader))
			if raw == "" {
				apierr.WriteError(w, apierr.NewInvalidRequestError(PlayerIDHeader+" header required"))
				return
			}
			id, err := model.ParsePlayerID(raw)
			if err != nil {
				apierr.WriteError(w, model.ErrInvalidPlayerID)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorContextKey, id)))
		})
	}
}

// extractKey reads the API key from X-API-Key, falling back to a bearer token
func extractKey(r *http.Request) string {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// GetActor returns the acting player from the request context
func GetActor(ctx context.Context) (model.PlayerID, bool) {
	id, ok := ctx.Value(actorContextKey).(model.PlayerID)
	return id, ok
}

// MustGetActor returns the acting player or panics
func MustGetActor(ctx context.Context) model.PlayerID {
	id, ok := GetActor(ctx)
	if !ok {
		panic("no actor in context - actor middleware not applied?")
	}
	return id
}
