package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/SNeC-Lab-PSU/LLMER/logging"
	"github.com/SNeC-Lab-PSU/LLMER/logging/sinks"
)

func TestRouterDeliversAndFilters(t *testing.T) {
	memory := sinks.NewMemorySink()
	stamp := time.Unix(100, 0)
	cfg := logging.DefaultConfig()
	cfg.Fields = map[string]any{"agent": "Robot"}
	router, err := logging.NewRouter(logging.ClockFunc(func() time.Time { return stamp }), cfg, nil, []logging.NamedSink{{Name: "memory", Sink: memory}})
	if err != nil {
		t.Fatalf("expected router, got %v", err)
	}

	router.Publish(context.Background(), logging.Event{Type: "test.info", Severity: logging.SeverityInfo})
	router.Publish(context.Background(), logging.Event{Type: "test.debug", Severity: logging.SeverityDebug})
	router.Publish(context.Background(), logging.Event{Severity: logging.SeverityError})

	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("expected clean close, got %v", err)
	}

	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 delivered event, got %d", len(events))
	}
	if !events[0].Time.Equal(stamp) {
		t.Fatalf("expected clock timestamp, got %v", events[0].Time)
	}
	if events[0].Extra["agent"] != "Robot" {
		t.Fatalf("expected default field, got %v", events[0].Extra)
	}
	stats := router.Stats()
	if stats.Routed != 1 || stats.Filtered != 1 {
		t.Fatalf("expected 1 routed and 1 filtered, got %+v", stats)
	}
	if got := stats.Sinks["memory"]; got.Written != 1 || got.Dropped != 0 {
		t.Fatalf("expected one write to memory sink, got %+v", got)
	}
}

func TestRouterIgnoresPublishAfterClose(t *testing.T) {
	memory := sinks.NewMemorySink()
	router, _ := logging.NewRouter(nil, logging.DefaultConfig(), nil, []logging.NamedSink{{Name: "memory", Sink: memory}})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("expected clean close, got %v", err)
	}
	router.Publish(context.Background(), logging.Event{Type: "late", Severity: logging.SeverityError})
	if got := len(memory.Events()); got != 0 {
		t.Fatalf("expected no events after close, got %d", got)
	}
	if router.Sink("memory") != memory {
		t.Fatalf("expected sink lookup by name")
	}
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("expected second close to be a no-op, got %v", err)
	}
}

func TestRouterRejectsDuplicateSinkNames(t *testing.T) {
	sinkA, sinkB := sinks.NewMemorySink(), sinks.NewMemorySink()
	_, err := logging.NewRouter(nil, logging.DefaultConfig(), nil, []logging.NamedSink{{Name: "m", Sink: sinkA}, {Name: "m", Sink: sinkB}})
	if err == nil {
		t.Fatalf("expected duplicate sink error")
	}
}

type failingSink struct{ closed bool }

func (f *failingSink) Write(logging.Event) error { return errors.New("disk full") }

func (f *failingSink) Close(context.Context) error {
	f.closed = true
	return nil
}

func TestRouterCountsSinkFailures(t *testing.T) {
	var fallback bytes.Buffer
	failing := &failingSink{}
	router, _ := logging.NewRouter(nil, logging.DefaultConfig(), log.New(&fallback, "", 0), []logging.NamedSink{{Name: "disk", Sink: failing}})
	router.Publish(context.Background(), logging.Event{Type: "a", Severity: logging.SeverityWarn})
	router.Publish(context.Background(), logging.Event{Type: "b", Severity: logging.SeverityWarn})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("expected clean close, got %v", err)
	}
	if got := router.Stats().Sinks["disk"].Failed; got != 2 {
		t.Fatalf("expected 2 failures, got %d", got)
	}
	if !failing.closed {
		t.Fatalf("expected failing sink to be closed")
	}
	if got := strings.Count(fallback.String(), "write failed"); got != 1 {
		t.Fatalf("expected one rate-limited report, got %d: %q", got, fallback.String())
	}
}

func TestSeverityMarshalsAsName(t *testing.T) {
	data, err := json.Marshal(logging.Event{Type: "x", Severity: logging.SeverityWarn})
	if err != nil {
		t.Fatalf("expected marshal, got %v", err)
	}
	if !strings.Contains(string(data), `"severity":"warn"`) {
		t.Fatalf("expected severity name in %s", data)
	}
	var back logging.Event
	if err := json.Unmarshal(data, &back); err != nil || back.Severity != logging.SeverityWarn {
		t.Fatalf("expected round trip, got %v %v", back.Severity, err)
	}
}

func TestParseSeverity(t *testing.T) {
	for raw, want := range map[string]logging.Severity{"": logging.SeverityInfo, "DEBUG": logging.SeverityDebug, "warning": logging.SeverityWarn, "error": logging.SeverityError} {
		got, err := logging.ParseSeverity(raw)
		if err != nil || got != want {
			t.Fatalf("ParseSeverity(%q) = %v, %v; want %v", raw, got, err, want)
		}
	}
	if _, err := logging.ParseSeverity("loud"); err == nil {
		t.Fatalf("expected error for unknown severity")
	}
}
