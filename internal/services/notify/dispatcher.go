// Package notify renders engine outcomes and pushes them to their recipients.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/killergame/internal/model"
	"github.com/mcoot/killergame/internal/services/render"
)

// ErrNoSubscribers is returned by a Deliverer when the recipient has no open connection
var ErrNoSubscribers = errors.New("recipient has no subscribers")

// Event is one rendered message pushed to a player
type Event struct {
	Kind   model.OutcomeKind `json:"kind"`
	Key    model.MessageKey  `json:"key"`
	Params map[string]string `json:"params,omitempty"`
	Text   string            `json:"text"`
}

// Deliverer pushes an event to a single player
type Deliverer interface {
	Deliver(ctx context.Context, recipient model.PlayerID, event Event) error
}

// Rendered is an outcome together with its text
type Rendered struct {
	model.Outcome
	Text string
}

// Dispatcher renders results and hands notify and broadcast outcomes to a Deliverer.
// It runs after the transaction committed, so delivery failures are logged and never returned.
type Dispatcher struct {
	renderer  *render.Renderer
	deliverer Deliverer
	logger    *slog.Logger
}

// NewDispatcher creates a Dispatcher. A nil deliverer only renders.
func NewDispatcher(renderer *render.Renderer, deliverer Deliverer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		renderer:  renderer,
		deliverer: deliverer,
		logger:    logger.With(slog.String("component", "notify")),
	}
}

// Dispatch renders every outcome of the result, delivers pushes, and returns the rendered outcomes in order.
// Reply outcomes are addressed to the actor and left for the caller to send.
func (d *Dispatcher) Dispatch(ctx context.Context, actor model.PlayerID, result *model.Result) []Rendered {
	if result == nil {
		return nil
	}

	rendered := make([]Rendered, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		text, err := d.renderer.RenderOutcome(o)
		if err != nil {
			d.logger.Error("failed to render outcome",
				slog.String("key", string(o.Key)),
				slog.Any("error", err),
			)
			text = string(o.Key)
		}
		if o.Kind == model.OutcomeReply {
			o.Recipient = actor
		}
		rendered = append(rendered, Rendered{Outcome: o, Text: text})

		event := Event{Kind: o.Kind, Key: o.Key, Params: o.Params, Text: text}
		switch o.Kind {
		case model.OutcomeNotify:
			d.deliver(ctx, o.Recipient, event)
		case model.OutcomeBroadcast:
			for _, recipient := range o.Recipients {
				d.deliver(ctx, recipient, event)
			}
		}
	}
	return rendered
}

func (d *Dispatcher) deliver(ctx context.Context, recipient model.PlayerID, event Event) {
	if d.deliverer == nil {
		return
	}
	err := d.deliverer.Deliver(ctx, recipient, event)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoSubscribers):
		d.logger.Debug("recipient offline",
			slog.Int64("player_id", int64(recipient)),
			slog.String("key", string(event.Key)),
		)
	default:
		d.logger.Warn("failed to deliver notification",
			slog.Int64("player_id", int64(recipient)),
			slog.String("key", string(event.Key)),
			slog.Any("error", err),
		)
	}
}
