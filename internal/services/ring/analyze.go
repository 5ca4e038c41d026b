package ring

import (
	"fmt"

	"github.com/mcoot/killergame/internal/model"
)

// Analyze checks the target graph of the given players.
// Every assigned player must have exactly one incoming edge from another assigned player,
// edges must point at known players, and pending claims need an assigned target.
// Cycles are reported in hop order starting from their smallest id.
func Analyze(players []*model.Player) model.RingReport {
	var report model.RingReport

	byID := make(map[model.PlayerID]*model.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	incoming := make(map[model.PlayerID]int)
	var assigned []model.PlayerID // ListPlayers order, so ascending ids
	for _, p := range players {
		if p.KillRequested && p.Target.State != model.TargetAssigned {
			report.Violations = append(report.Violations,
				fmt.Sprintf("player %d has a pending claim without a target", p.ID))
		}
		if p.Target.IsWon() {
			report.Winners = append(report.Winners, p.ID)
		}

		target, ok := p.Target.Assigned()
		if !ok {
			continue
		}
		assigned = append(assigned, p.ID)

		switch t, exists := byID[target]; {
		case !exists:
			report.Violations = append(report.Violations,
				fmt.Sprintf("player %d targets unknown player %d", p.ID, target))
		case target == p.ID:
			report.Violations = append(report.Violations,
				fmt.Sprintf("player %d targets itself", p.ID))
		case t.Target.State != model.TargetAssigned:
			report.Violations = append(report.Violations,
				fmt.Sprintf("player %d targets player %d who is not in the ring", p.ID, target))
		}
		incoming[target]++
	}

	for _, id := range assigned {
		if n := incoming[id]; n != 1 {
			report.Violations = append(report.Violations,
				fmt.Sprintf("player %d has %d hunters", id, n))
		}
	}

	// Walk cycles from the smallest unvisited id
	visited := make(map[model.PlayerID]bool, len(assigned))
	for _, start := range assigned {
		if visited[start] {
			continue
		}
		var cycle []model.PlayerID
		cur := start
		closed := false
		for {
			if visited[cur] {
				closed = cur == start
				break
			}
			p, ok := byID[cur]
			if !ok {
				break
			}
			next, ok := p.Target.Assigned()
			if !ok {
				break
			}
			visited[cur] = true
			cycle = append(cycle, cur)
			cur = next
		}
		if closed {
			report.Cycles = append(report.Cycles, cycle)
		} else {
			report.Violations = append(report.Violations,
				fmt.Sprintf("chain starting at player %d does not close into a cycle", start))
		}
	}

	return report
}
