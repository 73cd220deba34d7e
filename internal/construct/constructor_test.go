package construct

import (
	"context"
	"errors"
	"testing"

	"github.com/SNeC-Lab-PSU/LLMER/internal/anim"
	"github.com/SNeC-Lab-PSU/LLMER/internal/command"
	"github.com/SNeC-Lab-PSU/LLMER/internal/resolver"
	"github.com/SNeC-Lab-PSU/LLMER/internal/scene"
	"github.com/SNeC-Lab-PSU/LLMER/internal/scene/memscene"
	constructlog "github.com/SNeC-Lab-PSU/LLMER/logging/construction"
	"github.com/SNeC-Lab-PSU/LLMER/logging/sinks"
)

type deferQueue struct {
	fns []func()
}

func (d *deferQueue) Defer(fn func()) { d.fns = append(d.fns, fn) }

func (d *deferQueue) flush() {
	fns := d.fns
	d.fns = nil
	for _, fn := range fns {
		fn()
	}
}

type startRecorder struct {
	names []string
	tasks []anim.Task
}

func (r *startRecorder) Start(_ context.Context, name string, task anim.Task) {
	r.names = append(r.names, name)
	r.tasks = append(r.tasks, task)
}

type fixture struct {
	scene    *memscene.Scene
	events   *sinks.MemorySink
	deferred *deferQueue
	starter  *startRecorder
	ctor     *Constructor
}

func newFixture() *fixture {
	s := memscene.New("")
	s.Register(memscene.Template{
		Name: "Easel",
		Size: scene.Vec3{X: 1, Y: 2, Z: 0.5},
		Children: []memscene.Template{
			{Name: "Leg", Primitive: scene.PrimitiveCylinder, Children: []memscene.Template{{Name: "Foot", Primitive: scene.PrimitiveCube}}},
			{Name: "Canvas", Primitive: scene.PrimitiveQuad, Tag: CanvasTag, Children: []memscene.Template{{Name: "Ink", Primitive: scene.PrimitiveQuad}}},
		},
	})
	f := &fixture{
		scene:    s,
		events:   sinks.NewMemorySink(),
		deferred: &deferQueue{},
		starter:  &startRecorder{},
	}
	f.ctor = New(Config{AgentName: "Robot", PlaceholderName: "PlaneHolder", Publisher: f.events}, s, resolver.New(s), f.starter, f.deferred)
	return f
}

func vec(x, y, z float64) *scene.Vec3 {
	return &scene.Vec3{X: x, Y: y, Z: z}
}

func TestCreatePrimitiveAppliesPlacement(t *testing.T) {
	f := newFixture()
	e, err := f.ctor.CreateEntity(context.Background(), 1, command.EnvironmentObject{
		PrefabType: "cube",
		ObjectName: "RedCube",
		Layer:      1,
		Position:   vec(1, 2, 3),
		Rotation:   scene.Vec3{Y: 90},
		Scale:      vec(2, 2, 2),
		Color:      vec(1, 0, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Name() != "RedCube" {
		t.Fatalf("expected name RedCube, got %q", e.Name())
	}
	if got := e.Pose().Position; got != (scene.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Fatalf("unexpected position %v", got)
	}
	if got := e.LocalScale(); got != (scene.Vec3{X: 2, Y: 2, Z: 2}) {
		t.Fatalf("unexpected scale %v", got)
	}
	if got, _ := e.(scene.Colored).Color(); got != (scene.Color{R: 1, A: 1}) {
		t.Fatalf("unexpected color %v", got)
	}
	if got := e.(scene.Layered).Layer(); got != 1 {
		t.Fatalf("expected layer 1, got %d", got)
	}
	if f.ctor.Tracked() != 1 {
		t.Fatalf("expected entity to be tracked")
	}
	created := f.events.OfType(constructlog.EventEntityCreated)
	if len(created) != 1 {
		t.Fatalf("expected one created event, got %d", len(created))
	}
	if payload := created[0].Payload.(constructlog.EntityCreatedPayload); payload.Template {
		t.Fatalf("expected primitive fallback, got template")
	}
}

func TestNegativeLayerCreatesNothing(t *testing.T) {
	f := newFixture()
	before := len(f.scene.Entities())
	_, err := f.ctor.CreateEntity(context.Background(), 1, command.EnvironmentObject{PrefabType: "cube", ObjectName: "Bad", Layer: -1})
	if !errors.Is(err, ErrInvalidLayer) {
		t.Fatalf("expected invalid layer error, got %v", err)
	}
	if got := len(f.scene.Entities()); got != before {
		t.Fatalf("expected no entity to be created, have %d", got)
	}
	if len(f.events.OfType(constructlog.EventEntityRejected)) != 1 {
		t.Fatalf("expected rejection event")
	}
}

func TestUnknownPrefabIsRejected(t *testing.T) {
	f := newFixture()
	_, err := f.ctor.CreateEntity(context.Background(), 1, command.EnvironmentObject{PrefabType: "Dragon", ObjectName: "Smaug", Layer: 1})
	if !errors.Is(err, ErrUnknownPrefab) {
		t.Fatalf("expected unknown prefab error, got %v", err)
	}
	if f.ctor.Tracked() != 0 {
		t.Fatalf("expected nothing tracked")
	}
}

func TestTemplateLayersDescendants(t *testing.T) {
	f := newFixture()
	_, err := f.ctor.CreateEntity(context.Background(), 1, command.EnvironmentObject{PrefabType: "Easel", ObjectName: "Easel1", Layer: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	layers := map[string]int{"Easel1": 1, "Leg": 2, "Foot": 2, "Canvas": 0, "Ink": 0}
	for name, want := range layers {
		n := f.scene.Find(name)
		if n == nil {
			t.Fatalf("missing %s", name)
		}
		if got := n.Layer(); got != want {
			t.Fatalf("expected %s on layer %d, got %d", name, want, got)
		}
	}
	payload := f.events.OfType(constructlog.EventEntityCreated)[0].Payload.(constructlog.EntityCreatedPayload)
	if !payload.Template {
		t.Fatalf("expected template instantiation")
	}
}

func TestDescendantLayerIsCapped(t *testing.T) {
	f := newFixture()
	if _, err := f.ctor.CreateEntity(context.Background(), 1, command.EnvironmentObject{PrefabType: "Easel", ObjectName: "Deep", Layer: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.scene.Find("Leg").Layer(); got != MaxLayer {
		t.Fatalf("expected capped layer %d, got %d", MaxLayer, got)
	}
}

func TestParentConvertsLocalOffset(t *testing.T) {
	f := newFixture()
	table := f.scene.Add("Table")
	table.SetPosition(scene.Vec3{X: 5})
	table.SetRotation(scene.Euler(scene.Vec3{Y: 90}))

	e, err := f.ctor.CreateEntity(context.Background(), 1, command.EnvironmentObject{
		PrefabType:    "sphere",
		ObjectName:    "Apple",
		Layer:         1,
		Parent:        "Table",
		LocalPosition: vec(1, 0, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Parent() != scene.Entity(table) {
		t.Fatalf("expected apple under table")
	}
	if got := e.Pose().Position; !got.ApproxEqual(scene.Vec3{X: 6}, 1e-9) {
		t.Fatalf("expected world offset along +x, got %v", got)
	}
}

func TestMissingParentKeepsRoot(t *testing.T) {
	f := newFixture()
	e, err := f.ctor.CreateEntity(context.Background(), 1, command.EnvironmentObject{PrefabType: "cube", ObjectName: "Lonely", Layer: 1, Parent: "Nowhere"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Parent() != nil {
		t.Fatalf("expected root entity")
	}
}

func TestAgentLooksAtCreation(t *testing.T) {
	f := newFixture()
	f.scene.Add("Robot")
	if _, err := f.ctor.CreateEntity(context.Background(), 1, command.EnvironmentObject{PrefabType: "cube", ObjectName: "Box", Layer: 1, Position: vec(2, 0, 0)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.starter.names) != 1 || f.starter.names[0] != LookTaskName {
		t.Fatalf("expected look task, got %v", f.starter.names)
	}
	if kind := f.starter.tasks[0].Kind(); kind != command.ActionLookTowards {
		t.Fatalf("expected look task kind, got %s", kind)
	}
}

func TestPlaceholderFollowsBase(t *testing.T) {
	f := newFixture()
	holder := f.scene.AddPrimitive("PlaneHolder", scene.PrimitivePlane)
	ctx := context.Background()

	f.ctor.UpdatePlaceholder()
	if !holder.Active() {
		t.Fatalf("expected placeholder visible without base")
	}
	if _, err := f.ctor.CreateEntity(ctx, 1, command.EnvironmentObject{PrefabType: "plane", ObjectName: "Floor", Layer: BaseLayer}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.ctor.UpdatePlaceholder()
	if holder.Active() {
		t.Fatalf("expected placeholder hidden with base")
	}

	f.ctor.DestroyAll(ctx, 2)
	if !f.ctor.HasBase() {
		t.Fatalf("expected base flag to survive until the deferral runs")
	}
	f.deferred.flush()
	f.ctor.UpdatePlaceholder()
	if !holder.Active() {
		t.Fatalf("expected placeholder visible after teardown")
	}
}

func TestDestroyAllIsDeferred(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a, _ := f.ctor.CreateEntity(ctx, 1, command.EnvironmentObject{PrefabType: "cube", ObjectName: "A", Layer: 1})
	b, _ := f.ctor.CreateEntity(ctx, 1, command.EnvironmentObject{PrefabType: "Easel", ObjectName: "B", Layer: 1})
	keep := f.scene.Add("Keep")

	f.ctor.DestroyAll(ctx, 2)
	if !a.Alive() || !b.Alive() {
		t.Fatalf("expected entities to live until the end of the tick")
	}
	f.deferred.flush()
	if a.Alive() || b.Alive() {
		t.Fatalf("expected tracked entities to be destroyed")
	}
	if !keep.Alive() {
		t.Fatalf("expected untracked entity to survive")
	}
	if f.ctor.Tracked() != 0 {
		t.Fatalf("expected teardown list to be cleared")
	}
	teardown := f.events.OfType(constructlog.EventTeardown)
	if len(teardown) != 1 || teardown[0].Payload.(constructlog.TeardownPayload).Count != 2 {
		t.Fatalf("unexpected teardown events %+v", teardown)
	}
}
