package response

import (
	"github.com/mcoot/killergame/internal/model"
	"github.com/mcoot/killergame/internal/services/notify"
)

// Outcome is one rendered notification in API responses
type Outcome struct {
	Kind       string            `json:"kind"`
	Recipient  int64             `json:"recipient,omitempty"`
	Recipients []int64           `json:"recipients,omitempty"`
	Key        string            `json:"key"`
	Params     map[string]string `json:"params,omitempty"`
	Text       string            `json:"text"`
}

// OutcomeFromRendered converts a dispatched outcome
func OutcomeFromRendered(r notify.Rendered) Outcome {
	var recipients []int64
	for _, id := range r.Recipients {
		recipients = append(recipients, int64(id))
	}
	return Outcome{
		Kind:       string(r.Kind),
		Recipient:  int64(r.Recipient),
		Recipients: recipients,
		Key:        string(r.Key),
		Params:     r.Params,
		Text:       r.Text,
	}
}

// Result is the response for every mutating endpoint
type Result struct {
	Outcomes             []Outcome `json:"outcomes"`
	NoOp                 bool      `json:"no_op"`
	ConfirmationRequired bool      `json:"confirmation_required"`
}

// ResultFromModel converts a result and its rendered outcomes
func ResultFromModel(res *model.Result, rendered []notify.Rendered) Result {
	outcomes := make([]Outcome, len(rendered))
	for i, r := range rendered {
		outcomes[i] = OutcomeFromRendered(r)
	}
	return Result{
		Outcomes:             outcomes,
		NoOp:                 res.NoOp,
		ConfirmationRequired: res.ConfirmationRequired,
	}
}

// Status is the acting player's view of themself
type Status struct {
	PlayerID        int64  `json:"player_id"`
	Registered      bool   `json:"registered"`
	Name            string `json:"name,omitempty"`
	HasTarget       bool   `json:"has_target"`
	TargetName      string `json:"target_name,omitempty"`
	Won             bool   `json:"won"`
	Kills           int    `json:"kills"`
	KillRequested   bool   `json:"kill_requested"`
	IsAdmin         bool   `json:"is_admin"`
	RegisteredCount int    `json:"registered_count"`
}

// StatusFromModel converts model.Status
func StatusFromModel(s *model.Status) Status {
	return Status{
		PlayerID:        int64(s.PlayerID),
		Registered:      s.Registered,
		Name:            s.Name,
		HasTarget:       s.HasTarget,
		TargetName:      s.TargetName,
		Won:             s.Won,
		Kills:           s.Kills,
		KillRequested:   s.KillRequested,
		IsAdmin:         s.IsAdmin,
		RegisteredCount: s.RegisteredCount,
	}
}

// LeaderboardEntry is one row of the leaderboard
type LeaderboardEntry struct {
	PlayerID int64  `json:"player_id"`
	Name     string `json:"name"`
	Kills    int    `json:"kills"`
	Alive    bool   `json:"alive"`
}

// Leaderboard is the response for the leaderboard endpoint
type Leaderboard struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// LeaderboardFromModel converts leaderboard entries
func LeaderboardFromModel(entries []model.LeaderboardEntry) Leaderboard {
	out := make([]LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = LeaderboardEntry{
			PlayerID: int64(e.PlayerID),
			Name:     e.Name,
			Kills:    e.Kills,
			Alive:    e.Alive,
		}
	}
	return Leaderboard{Entries: out}
}

// RingReport describes the target graph for admins
type RingReport struct {
	Cycles     [][]int64 `json:"cycles"`
	Winners    []int64   `json:"winners"`
	Violations []string  `json:"violations"`
	Healthy    bool      `json:"healthy"`
}

// RingReportFromModel converts model.RingReport
func RingReportFromModel(r *model.RingReport) RingReport {
	cycles := make([][]int64, len(r.Cycles))
	for i, cycle := range r.Cycles {
		cycles[i] = toInt64s(cycle)
	}
	violations := r.Violations
	if violations == nil {
		violations = []string{}
	}
	return RingReport{
		Cycles:     cycles,
		Winners:    toInt64s(r.Winners),
		Violations: violations,
		Healthy:    r.Healthy(),
	}
}

func toInt64s(ids []model.PlayerID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
