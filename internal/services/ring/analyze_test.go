package ring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/killergame/internal/model"
)

func players(targets map[model.PlayerID]model.Target) []*model.Player {
	var out []*model.Player
	for id := model.PlayerID(1); id <= 10; id++ {
		target, ok := targets[id]
		if !ok {
			continue
		}
		p := model.NewPlayer(id, time.Time{})
		p.SetName("P" + id.String())
		p.Target = target
		out = append(out, p)
	}
	return out
}

func TestAnalyzeSingleCycle(t *testing.T) {
	report := Analyze(players(map[model.PlayerID]model.Target{
		1: model.AssignedTarget(3),
		2: model.AssignedTarget(1),
		3: model.AssignedTarget(2),
		4: model.NoTarget(),
	}))
	assert.True(t, report.Healthy(), report.Violations)
	assert.Equal(t, [][]model.PlayerID{{1, 3, 2}}, report.Cycles)
	assert.Empty(t, report.Winners)
}

func TestAnalyzeWinner(t *testing.T) {
	report := Analyze(players(map[model.PlayerID]model.Target{
		1: model.WonTarget(),
		2: model.NoTarget(),
	}))
	assert.True(t, report.Healthy())
	assert.Empty(t, report.Cycles)
	assert.Equal(t, []model.PlayerID{1}, report.Winners)
}

func TestAnalyzeEmpty(t *testing.T) {
	report := Analyze(nil)
	assert.True(t, report.Healthy())
	assert.Empty(t, report.Cycles)
}

func TestAnalyzeViolations(t *testing.T) {
	tests := []struct {
		name    string
		targets map[model.PlayerID]model.Target
	}{
		{
			name: "shared target",
			targets: map[model.PlayerID]model.Target{
				1: model.AssignedTarget(3),
				2: model.AssignedTarget(3),
				3: model.AssignedTarget(1),
			},
		},
		{
			name: "self target",
			targets: map[model.PlayerID]model.Target{
				1: model.AssignedTarget(1),
			},
		},
		{
			name: "unknown target",
			targets: map[model.PlayerID]model.Target{
				1: model.AssignedTarget(9),
			},
		},
		{
			name: "target outside ring",
			targets: map[model.PlayerID]model.Target{
				1: model.AssignedTarget(2),
				2: model.NoTarget(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Analyze(players(tt.targets))
			assert.False(t, report.Healthy())
		})
	}
}

func TestAnalyzeClaimWithoutTarget(t *testing.T) {
	ps := players(map[model.PlayerID]model.Target{1: model.NoTarget()})
	ps[0].KillRequested = true

	report := Analyze(ps)
	assert.False(t, report.Healthy())
}

func TestAnalyzeSeparateCycles(t *testing.T) {
	report := Analyze(players(map[model.PlayerID]model.Target{
		1: model.AssignedTarget(2),
		2: model.AssignedTarget(1),
		3: model.AssignedTarget(4),
		4: model.AssignedTarget(3),
	}))
	assert.True(t, report.Healthy())
	assert.Len(t, report.Cycles, 2)
}
