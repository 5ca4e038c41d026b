package model

// OutcomeKind identifies how the transport must deliver an outcome
type OutcomeKind string

const (
	OutcomeNotify    OutcomeKind = "notify"    // Push to a single recipient
	OutcomeBroadcast OutcomeKind = "broadcast" // Push to every listed recipient
	OutcomeReply     OutcomeKind = "reply"     // Answer (or edit the message of) the acting player
)

// MessageKey is a template key resolved by the transport's message catalog
type MessageKey string

const (
	// Roster messages
	MsgWelcome               MessageKey = "welcome"
	MsgRegistered            MessageKey = "registration.accepted"
	MsgCancelled             MessageKey = "registration.cancelled"
	MsgCancelConfirmRequired MessageKey = "registration.cancel_confirm"
	MsgWithdrawn             MessageKey = "registration.withdrawn"

	// Kill protocol messages
	MsgKillAwaiting   MessageKey = "kill.awaiting_confirmation"
	MsgKillPrompt     MessageKey = "kill.confirm_prompt"
	MsgKillConfirmed  MessageKey = "kill.confirmed"
	MsgKillEliminated MessageKey = "kill.eliminated"
	MsgKillDenied     MessageKey = "kill.denied"
	MsgKillDenyAck    MessageKey = "kill.deny_ack"

	// Ring messages
	MsgTargetAssigned   MessageKey = "ring.target_assigned"
	MsgTargetReassigned MessageKey = "ring.target_reassigned"
	MsgDistributed      MessageKey = "ring.distributed"
	MsgGameOver         MessageKey = "game.over"

	// Moderation messages
	MsgReset          MessageKey = "admin.reset"
	MsgAdminChanged   MessageKey = "admin.changed"
	MsgAdminUnchanged MessageKey = "admin.unchanged"
)

// AllMessageKeys lists every message key the engine emits
var AllMessageKeys = []MessageKey{
	MsgWelcome,
	MsgRegistered,
	MsgCancelled,
	MsgCancelConfirmRequired,
	MsgWithdrawn,
	MsgKillAwaiting,
	MsgKillPrompt,
	MsgKillConfirmed,
	MsgKillEliminated,
	MsgKillDenied,
	MsgKillDenyAck,
	MsgTargetAssigned,
	MsgTargetReassigned,
	MsgDistributed,
	MsgGameOver,
	MsgReset,
	MsgAdminChanged,
	MsgAdminUnchanged,
}

// Message parameter names
const (
	ParamName   = "name"
	ParamTarget = "target"
	ParamKiller = "killer"
	ParamWinner = "winner"
	ParamCount  = "count"
	ParamPlayer = "player"
	ParamGrant  = "grant"
)

// Outcome is one notification the transport must render and send
type Outcome struct {
	Kind       OutcomeKind
	Recipient  PlayerID   // Set for OutcomeNotify
	Recipients []PlayerID // Set for OutcomeBroadcast
	Key        MessageKey
	Params     map[string]string
}

// Notify creates an outcome addressed to one player
func Notify(recipient PlayerID, key MessageKey, params map[string]string) Outcome {
	return Outcome{Kind: OutcomeNotify, Recipient: recipient, Key: key, Params: params}
}

// Broadcast creates an outcome addressed to every given player
func Broadcast(recipients []PlayerID, key MessageKey, params map[string]string) Outcome {
	return Outcome{Kind: OutcomeBroadcast, Recipients: recipients, Key: key, Params: params}
}

// Reply creates an outcome answering the acting player
func Reply(key MessageKey, params map[string]string) Outcome {
	return Outcome{Kind: OutcomeReply, Key: key, Params: params}
}

// Result is what every mutating engine operation returns after its transaction committed
type Result struct {
	Outcomes []Outcome

	// NoOp is set when the request had no effect. It is not a failure.
	NoOp bool

	// ConfirmationRequired is set when the caller must drive an explicit confirm step
	ConfirmationRequired bool
}

// Add appends outcomes to the result
func (r *Result) Add(outcomes ...Outcome) {
	r.Outcomes = append(r.Outcomes, outcomes...)
}

// OutcomesOfKind returns the outcomes with the given kind
func (r *Result) OutcomesOfKind(kind OutcomeKind) []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			out = append(out, o)
		}
	}
	return out
}
