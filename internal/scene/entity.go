package scene

// Entity is a live handle to an object owned by the scene. Handles are weak:
// holding one never keeps a destroyed entity alive, so callers check Alive
// before mutating through a handle they kept across ticks.
type Entity interface {
	Name() string
	SetName(name string)

	// Pose reports the world-space placement.
	Pose() Pose
	SetPosition(world Vec3)
	SetRotation(world Quat)
	LocalPosition() Vec3
	SetLocalPosition(local Vec3)
	SetLocalRotation(local Quat)
	LocalScale() Vec3
	SetLocalScale(scale Vec3)

	Bounds() Bounds
	Parent() Entity
	// SetParent reparents while keeping the world pose. A nil parent moves
	// the entity to the scene root.
	SetParent(parent Entity)
	Children() []Entity

	Destroy()
	Alive() bool
}

// Colored is implemented by entities that may carry a material color. ok is
// false when the entity has no renderer.
type Colored interface {
	Color() (c Color, ok bool)
	SetColor(c Color)
}

// Physical is implemented by entities with a physics body.
type Physical interface {
	Kinematic() bool
	SetKinematic(kinematic bool)
}

// Layered is implemented by entities that carry a selection layer.
type Layered interface {
	Layer() int
	SetLayer(layer int)
}

// Tagged is implemented by entities that carry a classification tag.
type Tagged interface {
	Tag() string
}

// Activatable is implemented by entities that can be hidden without being
// destroyed.
type Activatable interface {
	Active() bool
	SetActive(active bool)
}

// Labeled is implemented by real-world anchors recognised by the headset.
type Labeled interface {
	Labels() []string
}

// Provider exposes the live entities of the scene.
type Provider interface {
	// Entities lists every live entity, descendants included.
	Entities() []Entity
	// Viewpoint is the user's current eye position.
	Viewpoint() Vec3
}

// Resource describes a packaged template and its bounding size.
type Resource struct {
	Name string
	Size Vec3
}

// Primitive names a built-in shape used when no template matches.
type Primitive string

const (
	PrimitiveCube     Primitive = "cube"
	PrimitiveSphere   Primitive = "sphere"
	PrimitiveCylinder Primitive = "cylinder"
	PrimitiveCapsule  Primitive = "capsule"
	PrimitivePlane    Primitive = "plane"
	PrimitiveQuad     Primitive = "quad"
	PrimitiveEmpty    Primitive = "empty"
)

// Primitives lists every built-in shape.
var Primitives = []Primitive{
	PrimitiveCube,
	PrimitiveSphere,
	PrimitiveCylinder,
	PrimitiveCapsule,
	PrimitivePlane,
	PrimitiveQuad,
	PrimitiveEmpty,
}

// ResourceProvider instantiates packaged templates and primitive shapes.
type ResourceProvider interface {
	Instantiate(template string) (Entity, bool)
	CreatePrimitive(kind Primitive) (Entity, bool)
	ListAvailable() []Resource
}

// SurfaceProvider is the drawable canvas the user writes on.
type SurfaceProvider interface {
	CaptureImage() ([]byte, error)
	Clear() error
}

// Interactor attaches hand interaction affordances to an entity.
type Interactor interface {
	MakeGrabbable(e Entity) error
}

// Speaker voices plain text replies.
type Speaker interface {
	Speak(text string)
}

// IsAlive reports whether e is a non-nil live handle.
func IsAlive(e Entity) bool {
	return e != nil && e.Alive()
}

// Walk visits e and every descendant depth first. Returning false from
// visit skips that entity's subtree.
func Walk(e Entity, visit func(Entity) bool) {
	if e == nil {
		return
	}
	if !visit(e) {
		return
	}
	for _, child := range e.Children() {
		Walk(child, visit)
	}
}

// BoundsOf returns the entity's render bounds, falling back to the combined
// bounds of its descendants and then to a zero box at its position.
func BoundsOf(e Entity) Bounds {
	if e == nil {
		return Bounds{}
	}
	b := e.Bounds()
	if b.Extents != Zero {
		return b
	}
	var combined Bounds
	found := false
	for _, child := range e.Children() {
		cb := BoundsOf(child)
		if cb.Extents == Zero {
			continue
		}
		if !found {
			combined = cb
			found = true
			continue
		}
		combined = combined.Encapsulate(cb)
	}
	if found {
		return combined
	}
	return Bounds{Center: e.Pose().Position}
}
