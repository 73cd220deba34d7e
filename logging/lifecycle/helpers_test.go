package lifecycle

import (
	"context"
	"testing"

	"github.com/SNeC-Lab-PSU/LLMER/logging"
	"github.com/SNeC-Lab-PSU/LLMER/logging/sinks"
)

func TestHelpersPublishRuntimeEvents(t *testing.T) {
	memory := sinks.NewMemorySink()
	ctx := context.Background()

	RuntimeStarted(ctx, memory, RuntimeStartedPayload{Backend: "127.0.0.1:8000", TickRate: 60}, nil)
	DialFailed(ctx, memory, DialFailedPayload{Address: "127.0.0.1:8000", Attempt: 2, Error: "refused"}, nil)
	RuntimeStopped(ctx, memory, RuntimeStoppedPayload{Reason: "cancelled"}, nil)
	RuntimeStopped(ctx, nil, RuntimeStoppedPayload{}, nil)

	events := memory.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	failed := memory.OfType(EventDialFailed)
	if len(failed) != 1 || failed[0].Severity != logging.SeverityWarn {
		t.Fatalf("expected one warn dial failure, got %+v", failed)
	}
	if events[0].Category != logging.CategorySystem || events[0].Actor.ID != "runtime" {
		t.Fatalf("expected runtime system actor, got %+v", events[0])
	}
	if payload, ok := failed[0].Payload.(DialFailedPayload); !ok || payload.Attempt != 2 {
		t.Fatalf("expected dial payload, got %#v", failed[0].Payload)
	}
}
