package construction

import (
	"context"

	"github.com/SNeC-Lab-PSU/LLMER/logging"
)

const (
	// EventEntityCreated is emitted when a creation command spawns an entity.
	EventEntityCreated logging.EventType = "construction.entity_created"
	// EventEntityRejected is emitted when a creation command is refused.
	EventEntityRejected logging.EventType = "construction.entity_rejected"
	// EventTeardown is emitted when constructed entities are destroyed in bulk.
	EventTeardown logging.EventType = "construction.teardown"
)

// EntityCreatedPayload captures how an entity was built.
type EntityCreatedPayload struct {
	Prefab   string `json:"prefab"`
	Template bool   `json:"template"`
	Layer    int    `json:"layer"`
	Parent   string `json:"parent,omitempty"`
}

// EntityRejectedPayload records why a creation command was refused.
type EntityRejectedPayload struct {
	Prefab string `json:"prefab"`
	Reason string `json:"reason"`
}

// TeardownPayload counts destroyed entities.
type TeardownPayload struct {
	Count int `json:"count"`
}

// EntityCreated publishes an info event for a new entity.
func EntityCreated(ctx context.Context, pub logging.Publisher, tick uint64, name string, payload EntityCreatedPayload) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventEntityCreated,
		Tick:     tick,
		Actor:    logging.Entity(name),
		Severity: logging.SeverityInfo,
		Category: logging.CategoryConstruction,
		Payload:  payload,
	}
	pub.Publish(ctx, event)
}

// EntityRejected publishes a warning for a refused creation command.
func EntityRejected(ctx context.Context, pub logging.Publisher, tick uint64, name string, payload EntityRejectedPayload) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventEntityRejected,
		Tick:     tick,
		Actor:    logging.Entity(name),
		Severity: logging.SeverityWarn,
		Category: logging.CategoryConstruction,
		Payload:  payload,
	}
	pub.Publish(ctx, event)
}

// Teardown publishes an info event after a bulk destroy.
func Teardown(ctx context.Context, pub logging.Publisher, tick uint64, payload TeardownPayload) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventTeardown,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: "constructor", Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryConstruction,
		Payload:  payload,
	}
	pub.Publish(ctx, event)
}
