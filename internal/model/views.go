package model

// Status is the read-only projection a player sees about themself
type Status struct {
	PlayerID        PlayerID
	Registered      bool
	Name            string
	HasTarget       bool   // true when hunting someone
	TargetName      string // empty unless HasTarget
	Won             bool
	Kills           int
	KillRequested   bool
	IsAdmin         bool
	RegisteredCount int
}

// LeaderboardEntry is one registered player in the leaderboard
type LeaderboardEntry struct {
	PlayerID PlayerID
	Name     string
	Kills    int
	Alive    bool
}

// RingReport describes the shape of the target graph
type RingReport struct {
	Cycles     [][]PlayerID // Each cycle in hop order, starting from its smallest id
	Winners    []PlayerID
	Violations []string
}

// Healthy reports whether the graph satisfies every ring invariant
func (r RingReport) Healthy() bool {
	return len(r.Violations) == 0
}
