package model

import (
	"strconv"
	"time"
)

// PlayerID uniquely identifies a player across the system.
// It is the external identity handed to us by the transport (e.g. a chat user id).
// Zero is never a valid player id.
type PlayerID int64

// String returns the decimal form of the id
func (id PlayerID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParsePlayerID parses a decimal player id
func ParsePlayerID(s string) (PlayerID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, ErrInvalidPlayerID
	}
	return PlayerID(v), nil
}

// TargetState describes where a player stands in the current round
type TargetState string

const (
	TargetNone     TargetState = "none"     // Not in an active round
	TargetAssigned TargetState = "assigned" // Hunting another player
	TargetWon      TargetState = "won"      // Sole survivor, no opponent left
)

// Target is the outgoing edge of a player in the ring.
// The zero value is equivalent to TargetNone.
type Target struct {
	State TargetState `json:"state"`
	ID    PlayerID    `json:"id,omitempty"` // Only meaningful when State is TargetAssigned
}

// NoTarget returns an empty target
func NoTarget() Target {
	return Target{State: TargetNone}
}

// AssignedTarget returns a target pointing at the given player
func AssignedTarget(id PlayerID) Target {
	return Target{State: TargetAssigned, ID: id}
}

// WonTarget returns the winner marker
func WonTarget() Target {
	return Target{State: TargetWon}
}

// IsSet reports whether the player is part of an active round (hunting or won)
func (t Target) IsSet() bool {
	return t.State == TargetAssigned || t.State == TargetWon
}

// Assigned returns the target id if the target is assigned
func (t Target) Assigned() (PlayerID, bool) {
	if t.State != TargetAssigned {
		return 0, false
	}
	return t.ID, true
}

// IsWon reports whether the target is the winner marker
func (t Target) IsWon() bool {
	return t.State == TargetWon
}

// Player is one row of the player store: everyone who has ever talked to the game
type Player struct {
	ID            PlayerID
	Name          *string // nil when not registered as a contestant
	Target        Target
	Kills         int
	KillRequested bool // true while an elimination claim awaits confirmation
	IsAdmin       bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewPlayer creates a player row with default fields
func NewPlayer(id PlayerID, now time.Time) *Player {
	return &Player{
		ID:        id,
		Target:    NoTarget(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsRegistered reports whether the player has a display name
func (p *Player) IsRegistered() bool {
	return p.Name != nil
}

// DisplayName returns the registered name or an empty string
func (p *Player) DisplayName() string {
	if p.Name == nil {
		return ""
	}
	return *p.Name
}

// SetName sets or clears the display name
func (p *Player) SetName(name string) {
	p.Name = &name
}

// ClearName removes the player from future distributions and the leaderboard
func (p *Player) ClearName() {
	p.Name = nil
}

// Alive reports whether the player is still in the active round
func (p *Player) Alive() bool {
	return p.Target.IsSet()
}

// Clone returns a deep copy of the player
func (p *Player) Clone() *Player {
	c := *p
	if p.Name != nil {
		name := *p.Name
		c.Name = &name
	}
	return &c
}
