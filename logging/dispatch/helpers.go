package dispatch

import (
	"context"

	"github.com/SNeC-Lab-PSU/LLMER/logging"
)

const (
	// EventCommandRouted is emitted when a routing command is accepted.
	EventCommandRouted logging.EventType = "dispatch.command_routed"
	// EventCommandDropped is emitted when a response cannot be parsed or routed.
	EventCommandDropped logging.EventType = "dispatch.command_dropped"
	// EventTurnComposed is emitted after a System/User pair is sent.
	EventTurnComposed logging.EventType = "dispatch.turn_composed"
	// EventTurnCompleted is emitted when the backend closes a turn.
	EventTurnCompleted logging.EventType = "dispatch.turn_completed"
	// EventGateChanged is emitted when the construction gate transitions.
	EventGateChanged logging.EventType = "dispatch.gate_changed"
	// EventGateWaitExpired is emitted when a reader proceeds without an idle gate.
	EventGateWaitExpired logging.EventType = "dispatch.gate_wait_expired"
)

// CommandRoutedPayload summarises an accepted routing command.
type CommandRoutedPayload struct {
	CommandType string          `json:"commandType"`
	Request     string          `json:"request,omitempty"`
	Flags       map[string]bool `json:"flags,omitempty"`
}

// CommandDroppedPayload records why a response was discarded.
type CommandDroppedPayload struct {
	Kind    string `json:"kind"`
	Reason  string `json:"reason"`
	Excerpt string `json:"excerpt,omitempty"`
}

// TurnComposedPayload describes the frames sent for one composition.
type TurnComposedPayload struct {
	CommandType string `json:"commandType"`
	SystemBytes int    `json:"systemBytes"`
	UserBytes   int    `json:"userBytes"`
	ImageBytes  int    `json:"imageBytes,omitempty"`
}

// TurnCompletedPayload summarises one inbound turn.
type TurnCompletedPayload struct {
	Frames   int            `json:"frames"`
	Kinds    map[string]int `json:"kinds,omitempty"`
	Commands []string       `json:"commands,omitempty"`
	Seconds  float64        `json:"seconds"`
}

// GateChangedPayload records a construction gate transition.
type GateChangedPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// GateWaitExpiredPayload records a soft deadline that elapsed.
type GateWaitExpiredPayload struct {
	CommandType string  `json:"commandType"`
	Waited      float64 `json:"waitedSeconds"`
}

var agentActor = logging.EntityRef{ID: "dispatcher", Kind: logging.EntityKindAgent}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	event.Actor = agentActor
	event.Category = logging.CategoryDispatch
	pub.Publish(ctx, event)
}

// CommandRouted publishes an info event for an accepted command.
func CommandRouted(ctx context.Context, pub logging.Publisher, tick uint64, payload CommandRoutedPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{Type: EventCommandRouted, Tick: tick, Severity: logging.SeverityInfo, Payload: payload, Extra: extra})
}

// CommandDropped publishes a warning for a discarded response.
func CommandDropped(ctx context.Context, pub logging.Publisher, tick uint64, payload CommandDroppedPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{Type: EventCommandDropped, Tick: tick, Severity: logging.SeverityWarn, Payload: payload, Extra: extra})
}

// TurnComposed publishes a debug event after a composed turn is sent.
func TurnComposed(ctx context.Context, pub logging.Publisher, tick uint64, payload TurnComposedPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{Type: EventTurnComposed, Tick: tick, Severity: logging.SeverityDebug, Payload: payload, Extra: extra})
}

// TurnCompleted publishes an info event when a turn ends.
func TurnCompleted(ctx context.Context, pub logging.Publisher, tick uint64, payload TurnCompletedPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{Type: EventTurnCompleted, Tick: tick, Severity: logging.SeverityInfo, Payload: payload, Extra: extra})
}

// GateChanged publishes a debug event for a gate transition.
func GateChanged(ctx context.Context, pub logging.Publisher, tick uint64, payload GateChangedPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{Type: EventGateChanged, Tick: tick, Severity: logging.SeverityDebug, Payload: payload, Extra: extra})
}

// GateWaitExpired publishes a warning when a reader stops waiting.
func GateWaitExpired(ctx context.Context, pub logging.Publisher, tick uint64, payload GateWaitExpiredPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{Type: EventGateWaitExpired, Tick: tick, Severity: logging.SeverityWarn, Payload: payload, Extra: extra})
}
