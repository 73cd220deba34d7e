// Package construct creates scene entities from environment objects and
// tracks them for bulk teardown.
package construct

import (
	"context"
	"errors"
	"fmt"

	"github.com/SNeC-Lab-PSU/LLMER/internal/anim"
	"github.com/SNeC-Lab-PSU/LLMER/internal/command"
	"github.com/SNeC-Lab-PSU/LLMER/internal/scene"
	"github.com/SNeC-Lab-PSU/LLMER/internal/telemetry"
	"github.com/SNeC-Lab-PSU/LLMER/logging"
	constructlog "github.com/SNeC-Lab-PSU/LLMER/logging/construction"
)

const (
	// BaseLayer marks ground objects; while one exists the placeholder
	// surface is hidden.
	BaseLayer = 0
	// MaxLayer is the deepest layer a descendant can be assigned.
	MaxLayer = 2
	// CanvasTag marks drawable sub-objects whose layer is never rewritten.
	CanvasTag = "Whiteboard"
	// LookTaskName is the task under which the agent turns to each new
	// entity.
	LookTaskName = "creatingObjects"

	lookSpeed = 90.0

	entitiesCreatedMetricKey  = "construct_entities_created_total"
	entitiesRejectedMetricKey = "construct_entities_rejected_total"
	trackedMetricKey          = "construct_entities_tracked"
)

var (
	// ErrInvalidLayer indicates a negative layer.
	ErrInvalidLayer = errors.New("construct: invalid layer")
	// ErrUnknownPrefab indicates a prefab that is neither a template nor a
	// primitive shape.
	ErrUnknownPrefab = errors.New("construct: unknown prefab")
)

// Resolver maps a name to a live entity.
type Resolver interface {
	Resolve(ref string) scene.Entity
}

// Starter runs named animation tasks.
type Starter interface {
	Start(ctx context.Context, name string, task anim.Task)
}

// Deferrer runs work after every task has stepped for the current tick.
type Deferrer interface {
	Defer(fn func())
}

// Config names the well-known entities the constructor interacts with.
type Config struct {
	// AgentName is the entity that looks at each new creation. Empty
	// disables the look.
	AgentName string
	// PlaceholderName is the default ground surface. Empty disables the
	// placeholder toggle.
	PlaceholderName string
	Publisher       logging.Publisher
	Metrics         telemetry.Metrics
}

// Constructor builds entities and owns the teardown list. It is driven from
// the tick loop and is not safe for concurrent use.
type Constructor struct {
	cfg       Config
	resources scene.ResourceProvider
	resolver  Resolver
	starter   Starter
	deferrer  Deferrer

	created []scene.Entity
	hasBase bool
	layer   int
}

// New constructs a scene constructor. starter and deferrer may be nil.
func New(cfg Config, resources scene.ResourceProvider, resolver Resolver, starter Starter, deferrer Deferrer) *Constructor {
	if cfg.Publisher == nil {
		cfg.Publisher = logging.NopPublisher()
	}
	return &Constructor{
		cfg:       cfg,
		resources: resources,
		resolver:  resolver,
		starter:   starter,
		deferrer:  deferrer,
		layer:     -1,
	}
}

// CreateEntity instantiates obj and applies its placement, scale, parent,
// color and layer in that order. Nothing is created when the layer is
// negative or the prefab is unknown.
func (c *Constructor) CreateEntity(ctx context.Context, tick uint64, obj command.EnvironmentObject) (scene.Entity, error) {
	if c == nil {
		return nil, nil
	}
	name := obj.ObjectName
	if name == "" {
		name = obj.PrefabType
	}
	if obj.Layer < 0 {
		return nil, c.reject(ctx, tick, name, obj, fmt.Errorf("%w: %d", ErrInvalidLayer, obj.Layer))
	}

	instance, template := c.instantiate(obj.PrefabType)
	if instance == nil {
		return nil, c.reject(ctx, tick, name, obj, fmt.Errorf("%w: %q", ErrUnknownPrefab, obj.PrefabType))
	}

	pos := scene.Zero
	if obj.Position != nil {
		pos = *obj.Position
	}
	instance.SetPosition(pos)
	instance.SetRotation(scene.Euler(obj.Rotation))

	if obj.Scale != nil {
		instance.SetLocalScale(*obj.Scale)
	}

	parentName := ""
	if obj.Parent != "" && c.resolver != nil {
		if parent := c.resolver.Resolve(obj.Parent); parent != nil {
			instance.SetParent(parent)
			parentName = parent.Name()
			if obj.LocalPosition != nil {
				// local offsets arrive in world axes
				instance.SetLocalPosition(parent.Pose().InverseTransformDirection(*obj.LocalPosition))
			}
		}
	}

	if obj.Color != nil {
		if colored, ok := instance.(scene.Colored); ok {
			if _, has := colored.Color(); has {
				colored.SetColor(scene.ColorFromVec3(*obj.Color))
			}
		}
	}

	if obj.Layer == BaseLayer {
		c.hasBase = true
	}
	c.layer = obj.Layer
	instance.SetName(name)
	assignLayers(instance, obj.Layer)

	c.created = append(c.created, instance)
	c.addMetric(entitiesCreatedMetricKey)
	c.storeMetric(trackedMetricKey, uint64(len(c.created)))
	constructlog.EntityCreated(ctx, c.cfg.Publisher, tick, name, constructlog.EntityCreatedPayload{
		Prefab:   obj.PrefabType,
		Template: template,
		Layer:    obj.Layer,
		Parent:   parentName,
	})

	c.lookAt(ctx, instance)
	return instance, nil
}

func (c *Constructor) instantiate(prefab string) (scene.Entity, bool) {
	if c.resources == nil || prefab == "" {
		return nil, false
	}
	if e, ok := c.resources.Instantiate(prefab); ok && e != nil {
		return e, true
	}
	if e, ok := c.resources.CreatePrimitive(scene.Primitive(prefab)); ok && e != nil {
		return e, false
	}
	return nil, false
}

func (c *Constructor) reject(ctx context.Context, tick uint64, name string, obj command.EnvironmentObject, err error) error {
	c.addMetric(entitiesRejectedMetricKey)
	constructlog.EntityRejected(ctx, c.cfg.Publisher, tick, name, constructlog.EntityRejectedPayload{
		Prefab: obj.PrefabType,
		Reason: err.Error(),
	})
	return err
}

func (c *Constructor) lookAt(ctx context.Context, target scene.Entity) {
	if c.starter == nil || c.resolver == nil || c.cfg.AgentName == "" {
		return
	}
	agent := c.resolver.Resolve(c.cfg.AgentName)
	if agent == nil || agent == target {
		return
	}
	c.starter.Start(ctx, LookTaskName, anim.LookTowards(agent, target.Pose().Position, lookSpeed))
}

// assignLayers sets the entity's layer and gives every descendant the next
// layer down, capped at MaxLayer. Canvas subtrees keep their layers.
func assignLayers(root scene.Entity, layer int) {
	if l, ok := root.(scene.Layered); ok {
		l.SetLayer(layer)
	}
	child := min(layer+1, MaxLayer)
	for _, c := range root.Children() {
		scene.Walk(c, func(e scene.Entity) bool {
			if tagged, ok := e.(scene.Tagged); ok && tagged.Tag() == CanvasTag {
				return false
			}
			if l, ok := e.(scene.Layered); ok {
				l.SetLayer(child)
			}
			return true
		})
	}
}

// DestroyAll schedules destruction of every tracked entity at the end of
// the tick and clears the base flag once it runs.
func (c *Constructor) DestroyAll(ctx context.Context, tick uint64) {
	if c == nil {
		return
	}
	teardown := func() {
		count := 0
		for _, e := range c.created {
			if scene.IsAlive(e) {
				e.Destroy()
				count++
			}
		}
		c.created = nil
		c.hasBase = false
		c.storeMetric(trackedMetricKey, 0)
		constructlog.Teardown(ctx, c.cfg.Publisher, tick, constructlog.TeardownPayload{Count: count})
	}
	if c.deferrer == nil {
		teardown()
		return
	}
	c.deferrer.Defer(teardown)
}

// UpdatePlaceholder hides the placeholder surface while a base entity
// exists and shows it otherwise.
func (c *Constructor) UpdatePlaceholder() {
	if c == nil || c.cfg.PlaceholderName == "" || c.resolver == nil {
		return
	}
	holder, ok := c.resolver.Resolve(c.cfg.PlaceholderName).(scene.Activatable)
	if !ok {
		return
	}
	if holder.Active() == c.hasBase {
		holder.SetActive(!c.hasBase)
	}
}

// HasBase reports whether a base layer entity was created since the last
// teardown.
func (c *Constructor) HasBase() bool {
	return c != nil && c.hasBase
}

// Tracked reports the number of entities awaiting teardown.
func (c *Constructor) Tracked() int {
	if c == nil {
		return 0
	}
	return len(c.created)
}

// CurrentLayer reports the layer of the last created entity, or -1.
func (c *Constructor) CurrentLayer() int {
	if c == nil {
		return -1
	}
	return c.layer
}

func (c *Constructor) addMetric(key string) {
	if c.cfg.Metrics != nil {
		c.cfg.Metrics.Add(key, 1)
	}
}

func (c *Constructor) storeMetric(key string, value uint64) {
	if c.cfg.Metrics != nil {
		c.cfg.Metrics.Store(key, value)
	}
}
