package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound  = errors.New("player not found")
	ErrInvalidPlayerID = errors.New("invalid player id")
	ErrInvalidName     = errors.New("invalid display name")

	// Ring errors
	ErrStaleClaim          = errors.New("claim is stale or does not exist")
	ErrInsufficientPlayers = errors.New("insufficient players to distribute targets")

	// Moderation errors
	ErrAccessDenied = errors.New("access denied")
)
