package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/mcoot/killergame/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter. A nil writer means stdout.
func NewOutput(format string, w io.Writer) *Output {
	if w == nil {
		w = os.Stdout
	}
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Result:
		o.printResult(v)
	case response.Status:
		o.printStatus(v)
	case response.Leaderboard:
		o.printLeaderboard(v)
	case response.RingReport:
		o.printRingReport(v)
	case HealthResult:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	case HashKeyResult:
		fmt.Fprintf(o.w, "Key:  %s\nHash: %s\n", v.Key, v.Hash)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// HashKeyResult is printed by hash-key
type HashKeyResult struct {
	Key  string `json:"key"`
	Hash string `json:"hash"`
}

func (o *Output) printResult(r response.Result) {
	for _, outcome := range r.Outcomes {
		switch outcome.Kind {
		case "notify":
			fmt.Fprintf(o.w, "-> #%d: %s\n", outcome.Recipient, outcome.Text)
		case "broadcast":
			fmt.Fprintf(o.w, "=> %d players: %s\n", len(outcome.Recipients), outcome.Text)
		default:
			fmt.Fprintln(o.w, outcome.Text)
		}
	}
	if r.ConfirmationRequired {
		fmt.Fprintln(o.w, "Run 'killerctl player cancel-confirm' to confirm.")
	}
	if r.NoOp && o.verbose() {
		fmt.Fprintln(o.w, "(no change)")
	}
}

func (o *Output) printStatus(s response.Status) {
	name := s.Name
	if !s.Registered {
		name = "(not registered)"
	}
	fmt.Fprintf(o.w, "Player: %s (%d)\n", name, s.PlayerID)

	switch {
	case s.Won:
		fmt.Fprintln(o.w, "Round: won")
	case s.HasTarget:
		fmt.Fprintf(o.w, "Target: %s\n", s.TargetName)
		if s.KillRequested {
			fmt.Fprintln(o.w, "Kill claim: awaiting confirmation")
		}
	default:
		fmt.Fprintln(o.w, "Round: not playing")
	}

	fmt.Fprintf(o.w, "Kills: %d\n", s.Kills)
	if s.IsAdmin {
		fmt.Fprintln(o.w, "Admin: yes")
	}
	fmt.Fprintf(o.w, "Registered players: %d\n", s.RegisteredCount)
}

func (o *Output) printLeaderboard(l response.Leaderboard) {
	if len(l.Entries) == 0 {
		fmt.Fprintln(o.w, "No registered players")
		return
	}

	data := pterm.TableData{{"#", "Name", "Kills", "Status"}}
	for i, e := range l.Entries {
		status := "out"
		if e.Alive {
			status = "alive"
		}
		data = append(data, []string{strconv.Itoa(i + 1), e.Name, strconv.Itoa(e.Kills), status})
	}
	o.printTable(data)
}

func (o *Output) printRingReport(r response.RingReport) {
	if len(r.Cycles) == 0 && len(r.Winners) == 0 {
		fmt.Fprintln(o.w, "No active round")
	}

	if len(r.Cycles) > 0 {
		data := pterm.TableData{{"Cycle", "Players", "Ring"}}
		for i, cycle := range r.Cycles {
			hops := make([]string, 0, len(cycle)+1)
			for _, id := range cycle {
				hops = append(hops, strconv.FormatInt(id, 10))
			}
			hops = append(hops, hops[0])
			data = append(data, []string{strconv.Itoa(i + 1), strconv.Itoa(len(cycle)), strings.Join(hops, " -> ")})
		}
		o.printTable(data)
	}

	for _, id := range r.Winners {
		fmt.Fprintf(o.w, "Winner: %d\n", id)
	}

	if r.Healthy {
		fmt.Fprintln(o.w, "Ring: healthy")
		return
	}
	fmt.Fprintln(o.w, "Ring: broken")
	for _, v := range r.Violations {
		fmt.Fprintf(o.w, "  - %s\n", v)
	}
}

func (o *Output) printTable(data pterm.TableData) {
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		o.printJSON(data)
		return
	}
	fmt.Fprintln(o.w, table)
}

func (o *Output) verbose() bool {
	return cfg != nil && cfg.Verbose
}
