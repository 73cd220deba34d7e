// Package memscene is an in-memory scene graph that satisfies every scene
// collaborator contract. Headless runs and tests drive it in place of a
// rendering engine. It is not safe for concurrent use; the tick loop owns it.
package memscene

import (
	"errors"
	"sort"
	"strings"

	"github.com/SNeC-Lab-PSU/LLMER/internal/scene"
)

// Template describes a packaged resource that Instantiate can clone.
type Template struct {
	Name      string
	Primitive scene.Primitive
	// Size is the full bounding size at unit scale.
	Size     scene.Vec3
	Body     bool
	Tag      string
	Children []Template
}

// Scene owns the root nodes and the resource library.
type Scene struct {
	roots     []*Node
	templates map[string]Template
	viewpoint string
	fallback  scene.Vec3
}

// New constructs an empty scene. viewpoint names the node whose position is
// reported by Viewpoint.
func New(viewpoint string) *Scene {
	return &Scene{
		templates: make(map[string]Template),
		viewpoint: viewpoint,
	}
}

// Add creates a root node with the given name.
func (s *Scene) Add(name string) *Node {
	n := newNode(s, name)
	s.roots = append(s.roots, n)
	return n
}

// AddPrimitive creates a root node with the render extents of kind.
func (s *Scene) AddPrimitive(name string, kind scene.Primitive) *Node {
	n := s.Add(name)
	n.extents = primitiveExtents(kind)
	return n
}

// AddChild creates a node under parent at the given local position.
func (s *Scene) AddChild(parent *Node, name string, local scene.Vec3) *Node {
	n := newNode(s, name)
	n.parent = parent
	n.localPos = local
	parent.children = append(parent.children, n)
	return n
}

// Register adds a template to the resource library.
func (s *Scene) Register(t Template) {
	if t.Name == "" {
		return
	}
	s.templates[t.Name] = t
}

// SetFallbackViewpoint is used when no viewpoint node exists.
func (s *Scene) SetFallbackViewpoint(v scene.Vec3) {
	s.fallback = v
}

// Entities implements scene.Provider.
func (s *Scene) Entities() []scene.Entity {
	var out []scene.Entity
	for _, root := range s.roots {
		scene.Walk(root, func(e scene.Entity) bool {
			if !e.Alive() {
				return false
			}
			out = append(out, e)
			return true
		})
	}
	return out
}

// Viewpoint implements scene.Provider.
func (s *Scene) Viewpoint() scene.Vec3 {
	if n := s.Find(s.viewpoint); n != nil {
		return n.Pose().Position
	}
	return s.fallback
}

// Find returns the first live node with the given name.
func (s *Scene) Find(name string) *Node {
	if name == "" {
		return nil
	}
	for _, e := range s.Entities() {
		if e.Name() == name {
			return e.(*Node)
		}
	}
	return nil
}

// Instantiate implements scene.ResourceProvider.
func (s *Scene) Instantiate(name string) (scene.Entity, bool) {
	t, ok := s.templates[name]
	if !ok {
		return nil, false
	}
	n := newNode(s, t.Name)
	s.roots = append(s.roots, n)
	s.build(n, t)
	return n, true
}

func (s *Scene) build(n *Node, t Template) {
	n.extents = t.Size.Scale(0.5)
	if n.extents == scene.Zero && t.Primitive != "" {
		n.extents = primitiveExtents(t.Primitive)
	}
	n.hasBody = t.Body
	n.tag = t.Tag
	for _, ct := range t.Children {
		child := s.AddChild(n, ct.Name, scene.Zero)
		s.build(child, ct)
	}
}

// CreatePrimitive implements scene.ResourceProvider.
func (s *Scene) CreatePrimitive(kind scene.Primitive) (scene.Entity, bool) {
	kind = scene.Primitive(strings.ToLower(string(kind)))
	known := false
	for _, p := range scene.Primitives {
		if p == kind {
			known = true
			break
		}
	}
	if !known {
		return nil, false
	}
	n := s.AddPrimitive(string(kind), kind)
	if kind != scene.PrimitiveEmpty && kind != scene.PrimitivePlane && kind != scene.PrimitiveQuad {
		n.hasBody = true
	}
	return n, true
}

// ListAvailable implements scene.ResourceProvider, sorted by name.
func (s *Scene) ListAvailable() []scene.Resource {
	out := make([]scene.Resource, 0, len(s.templates))
	for _, t := range s.templates {
		size := t.Size
		if size == scene.Zero && t.Primitive != "" {
			size = primitiveExtents(t.Primitive).Scale(2)
		}
		out = append(out, scene.Resource{Name: t.Name, Size: size})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MakeGrabbable implements scene.Interactor.
func (s *Scene) MakeGrabbable(e scene.Entity) error {
	n, ok := e.(*Node)
	if !ok || !n.Alive() {
		return errors.New("memscene: entity is not a live node")
	}
	n.hasBody = true
	n.kinematic = true
	n.grabbable = true
	return nil
}

func primitiveExtents(kind scene.Primitive) scene.Vec3 {
	switch kind {
	case scene.PrimitiveCube, scene.PrimitiveSphere:
		return scene.Vec3{X: 0.5, Y: 0.5, Z: 0.5}
	case scene.PrimitiveCylinder, scene.PrimitiveCapsule:
		return scene.Vec3{X: 0.5, Y: 1, Z: 0.5}
	case scene.PrimitivePlane:
		return scene.Vec3{X: 5, Z: 5}
	case scene.PrimitiveQuad:
		return scene.Vec3{X: 0.5, Y: 0.5}
	default:
		return scene.Zero
	}
}

var (
	_ scene.Provider         = (*Scene)(nil)
	_ scene.ResourceProvider = (*Scene)(nil)
	_ scene.Interactor       = (*Scene)(nil)
)
