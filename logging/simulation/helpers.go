package simulation

import (
	"context"

	"github.com/SNeC-Lab-PSU/LLMER/logging"
)

const (
	// EventTickBudgetOverrun is emitted when one tick takes longer than its budget.
	EventTickBudgetOverrun logging.EventType = "simulation.tick_budget_overrun"
	// EventRequestDropped is emitted when the inbound request queue is full.
	EventRequestDropped logging.EventType = "simulation.request_dropped"
	// EventRequestFailed is emitted when a staged request cannot be submitted.
	EventRequestFailed logging.EventType = "simulation.request_failed"
)

// TickBudgetOverrunPayload captures timing details for a slow tick.
type TickBudgetOverrunPayload struct {
	DurationMillis int64   `json:"durationMillis"`
	BudgetMillis   int64   `json:"budgetMillis"`
	Ratio          float64 `json:"ratio"`
	Streak         uint64  `json:"streak"`
}

// RequestPayload identifies a user request by a bounded excerpt.
type RequestPayload struct {
	Excerpt string `json:"excerpt"`
	Reason  string `json:"reason,omitempty"`
}

var loopActor = logging.EntityRef{ID: "loop", Kind: logging.EntityKindWorld}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	event.Actor = loopActor
	event.Category = logging.CategorySystem
	pub.Publish(ctx, event)
}

// TickBudgetOverrun publishes a warning for a tick that exceeded its budget.
func TickBudgetOverrun(ctx context.Context, pub logging.Publisher, tick uint64, payload TickBudgetOverrunPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{Type: EventTickBudgetOverrun, Tick: tick, Severity: logging.SeverityWarn, Payload: payload, Extra: extra})
}

// RequestDropped publishes a warning when a request never reached the loop.
func RequestDropped(ctx context.Context, pub logging.Publisher, tick uint64, payload RequestPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{Type: EventRequestDropped, Tick: tick, Severity: logging.SeverityWarn, Payload: payload, Extra: extra})
}

// RequestFailed publishes an error when the backend turn for a request could
// not be sent.
func RequestFailed(ctx context.Context, pub logging.Publisher, tick uint64, payload RequestPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{Type: EventRequestFailed, Tick: tick, Severity: logging.SeverityError, Payload: payload, Extra: extra})
}
