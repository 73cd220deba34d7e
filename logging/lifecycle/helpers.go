package lifecycle

import (
	"context"

	"github.com/SNeC-Lab-PSU/LLMER/logging"
)

const (
	// EventRuntimeStarted is emitted once the runtime begins serving.
	EventRuntimeStarted logging.EventType = "lifecycle.runtime_started"
	// EventRuntimeStopped is emitted when the runtime shuts down.
	EventRuntimeStopped logging.EventType = "lifecycle.runtime_stopped"
	// EventDialFailed is emitted when the backend could not be reached.
	EventDialFailed logging.EventType = "lifecycle.dial_failed"
)

// RuntimeStartedPayload captures the settings the runtime started with.
type RuntimeStartedPayload struct {
	Backend  string `json:"backend"`
	Framing  string `json:"framing"`
	TickRate int    `json:"tickRate"`
	Listen   string `json:"listen,omitempty"`
}

// RuntimeStoppedPayload captures why the runtime stopped.
type RuntimeStoppedPayload struct {
	Reason string `json:"reason"`
}

// DialFailedPayload captures a failed connection attempt.
type DialFailedPayload struct {
	Address string `json:"address"`
	Attempt int    `json:"attempt"`
	Error   string `json:"error"`
}

var runtimeActor = logging.EntityRef{ID: "runtime", Kind: logging.EntityKindWorld}

// RuntimeStarted publishes a runtime start event.
func RuntimeStarted(ctx context.Context, pub logging.Publisher, payload RuntimeStartedPayload, extra map[string]any) {
	publish(ctx, pub, EventRuntimeStarted, logging.SeverityInfo, payload, extra)
}

// RuntimeStopped publishes a runtime stop event.
func RuntimeStopped(ctx context.Context, pub logging.Publisher, payload RuntimeStoppedPayload, extra map[string]any) {
	publish(ctx, pub, EventRuntimeStopped, logging.SeverityInfo, payload, extra)
}

// DialFailed publishes a warning for a failed backend dial.
func DialFailed(ctx context.Context, pub logging.Publisher, payload DialFailedPayload, extra map[string]any) {
	publish(ctx, pub, EventDialFailed, logging.SeverityWarn, payload, extra)
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, severity logging.Severity, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Actor:    runtimeActor,
		Severity: severity,
		Category: logging.CategorySystem,
		Payload:  payload,
		Extra:    extra,
	})
}
