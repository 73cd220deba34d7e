// Package logging routes typed runtime events to pluggable sinks.
package logging

import (
	"context"
	"fmt"
	"time"
)

// EventType names an event, conventionally "<category>.<what>".
type EventType string

// Severity orders events for filtering. It marshals as its lower-case name.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// EntityKind classifies the subject of an event.
type EntityKind string

const (
	EntityKindAgent   EntityKind = "agent"
	EntityKindEntity  EntityKind = "entity"
	EntityKindTask    EntityKind = "task"
	EntityKindChannel EntityKind = "channel"
	EntityKindWorld   EntityKind = "world"
)

const (
	CategoryProtocol     = "protocol"
	CategoryDispatch     = "dispatch"
	CategoryAnimation    = "animation"
	CategoryConstruction = "construction"
	CategorySystem       = "system"
)

// Event is one structured record. Tick is the loop tick the event was raised
// on and stays zero for events raised off the tick thread.
type Event struct {
	Type     EventType      `json:"type"`
	Tick     uint64         `json:"tick"`
	Time     time.Time      `json:"time"`
	Severity Severity       `json:"severity"`
	Category string         `json:"category,omitempty"`
	Actor    EntityRef      `json:"actor"`
	Targets  []EntityRef    `json:"targets,omitempty"`
	Payload  any            `json:"payload,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// EntityRef points at whatever raised or received an event.
type EntityRef struct {
	ID   string     `json:"id"`
	Kind EntityKind `json:"kind"`
}

func (r EntityRef) String() string {
	switch {
	case r.ID == "":
		return string(r.Kind)
	case r.Kind == "":
		return r.ID
	default:
		return fmt.Sprintf("%s:%s", r.Kind, r.ID)
	}
}

// Entity builds a reference to a scene entity by name.
func Entity(name string) EntityRef {
	return EntityRef{ID: name, Kind: EntityKindEntity}
}

// Task builds a reference to a named scheduler task.
func Task(name string) EntityRef {
	return EntityRef{ID: name, Kind: EntityKindTask}
}

// Publisher accepts events. Implementations must not block the caller.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}

// NopPublisher discards every event.
func NopPublisher() Publisher {
	return nopPublisher{}
}

// Clone copies the slices and maps of e so sinks can retain it.
func (e Event) Clone() Event {
	out := e
	if len(e.Targets) > 0 {
		out.Targets = append([]EntityRef(nil), e.Targets...)
	}
	if e.Extra != nil {
		out.Extra = make(map[string]any, len(e.Extra))
		for k, v := range e.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// withDefaults returns e with fields merged into Extra. Keys already present
// on the event win.
func (e Event) withDefaults(fields map[string]any) Event {
	if len(fields) == 0 {
		return e
	}
	out := e.Clone()
	if out.Extra == nil {
		out.Extra = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		if _, ok := out.Extra[k]; !ok {
			out.Extra[k] = v
		}
	}
	return out
}
