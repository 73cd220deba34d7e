package animation

import (
	"context"

	"github.com/SNeC-Lab-PSU/LLMER/logging"
)

const (
	// EventTaskStarted is emitted when a timed task registers.
	EventTaskStarted logging.EventType = "animation.task_started"
	// EventTaskCompleted is emitted when a task reaches its end state.
	EventTaskCompleted logging.EventType = "animation.task_completed"
	// EventTaskCancelled is emitted when a task observes its stop flag.
	EventTaskCancelled logging.EventType = "animation.task_cancelled"
	// EventTaskSuperseded is emitted when a new task takes over a name.
	EventTaskSuperseded logging.EventType = "animation.task_superseded"
	// EventTargetUnresolved is emitted when an action names no live entity.
	EventTargetUnresolved logging.EventType = "animation.target_unresolved"
	// EventCompositeAborted is emitted when a multi-phase action stops early.
	EventCompositeAborted logging.EventType = "animation.composite_aborted"
	// EventActionRejected is emitted when an action cannot be applied.
	EventActionRejected logging.EventType = "animation.action_rejected"
)

// TaskPayload describes a task lifecycle step.
type TaskPayload struct {
	Kind    string  `json:"kind"`
	Elapsed float64 `json:"elapsedSeconds,omitempty"`
}

// UnresolvedPayload names the reference that failed to resolve.
type UnresolvedPayload struct {
	Action    string `json:"action"`
	Reference string `json:"reference"`
	Role      string `json:"role"`
}

// CompositeAbortedPayload records where a composite stopped.
type CompositeAbortedPayload struct {
	Action string `json:"action"`
	Phase  int    `json:"phase"`
	Reason string `json:"reason"`
}

// ActionRejectedPayload records why an action was skipped.
type ActionRejectedPayload struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	event.Category = logging.CategoryAnimation
	pub.Publish(ctx, event)
}

// TaskStarted publishes a debug event when a task registers.
func TaskStarted(ctx context.Context, pub logging.Publisher, tick uint64, task string, target logging.EntityRef, payload TaskPayload) {
	publish(ctx, pub, logging.Event{Type: EventTaskStarted, Tick: tick, Actor: logging.Task(task), Targets: []logging.EntityRef{target}, Severity: logging.SeverityDebug, Payload: payload})
}

// TaskCompleted publishes a debug event when a task finishes.
func TaskCompleted(ctx context.Context, pub logging.Publisher, tick uint64, task string, target logging.EntityRef, payload TaskPayload) {
	publish(ctx, pub, logging.Event{Type: EventTaskCompleted, Tick: tick, Actor: logging.Task(task), Targets: []logging.EntityRef{target}, Severity: logging.SeverityDebug, Payload: payload})
}

// TaskCancelled publishes an info event when a task stops early.
func TaskCancelled(ctx context.Context, pub logging.Publisher, tick uint64, task string, target logging.EntityRef, payload TaskPayload) {
	publish(ctx, pub, logging.Event{Type: EventTaskCancelled, Tick: tick, Actor: logging.Task(task), Targets: []logging.EntityRef{target}, Severity: logging.SeverityInfo, Payload: payload})
}

// TaskSuperseded publishes an info event when a name is reused.
func TaskSuperseded(ctx context.Context, pub logging.Publisher, tick uint64, task string, payload TaskPayload) {
	publish(ctx, pub, logging.Event{Type: EventTaskSuperseded, Tick: tick, Actor: logging.Task(task), Severity: logging.SeverityInfo, Payload: payload})
}

// TargetUnresolved publishes a warning for an unknown reference.
func TargetUnresolved(ctx context.Context, pub logging.Publisher, tick uint64, task string, payload UnresolvedPayload) {
	publish(ctx, pub, logging.Event{Type: EventTargetUnresolved, Tick: tick, Actor: logging.Task(task), Severity: logging.SeverityWarn, Payload: payload})
}

// CompositeAborted publishes a warning when a composite action stops.
func CompositeAborted(ctx context.Context, pub logging.Publisher, tick uint64, task string, payload CompositeAbortedPayload) {
	publish(ctx, pub, logging.Event{Type: EventCompositeAborted, Tick: tick, Actor: logging.Task(task), Severity: logging.SeverityWarn, Payload: payload})
}

// ActionRejected publishes a warning for an inapplicable action.
func ActionRejected(ctx context.Context, pub logging.Publisher, tick uint64, task string, target logging.EntityRef, payload ActionRejectedPayload) {
	publish(ctx, pub, logging.Event{Type: EventActionRejected, Tick: tick, Actor: logging.Task(task), Targets: []logging.EntityRef{target}, Severity: logging.SeverityWarn, Payload: payload})
}
