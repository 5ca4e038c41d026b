package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/killergame/internal/model"
	"github.com/mcoot/killergame/internal/services/auth"
	"github.com/mcoot/killergame/internal/storage"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInvalidName         = "INVALID_NAME"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeAccessDenied        = "ACCESS_DENIED"
	CodePlayerNotFound      = "PLAYER_NOT_FOUND"
	CodeStaleClaim          = "STALE_CLAIM"
	CodeInsufficientPlayers = "INSUFFICIENT_PLAYERS"
	CodeConflict            = "CONFLICT"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Ring errors
	case errors.Is(err, model.ErrStaleClaim):
		return &httpError{http.StatusConflict, APIError{CodeStaleClaim, "No pending kill claim for this action"}}
	case errors.Is(err, model.ErrInsufficientPlayers):
		return &httpError{http.StatusConflict, APIError{CodeInsufficientPlayers, "At least two registered players without a target are needed"}}
	case errors.Is(err, model.ErrAccessDenied):
		return &httpError{http.StatusForbidden, APIError{CodeAccessDenied, "Admin rights required"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrInvalidName):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidName, "Name must be 1 to 64 printable characters"}}
	case errors.Is(err, model.ErrInvalidPlayerID):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Invalid player id"}}

	// Storage errors that survived the controller's retries
	case errors.Is(err, storage.ErrConflict):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeConflict, "Too much contention, try again"}}

	// Auth errors
	case errors.Is(err, auth.ErrMissingKey):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "API key required"}}
	case errors.Is(err, auth.ErrInvalidKey):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid API key"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
