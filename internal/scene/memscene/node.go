package memscene

import (
	"math"

	"github.com/SNeC-Lab-PSU/LLMER/internal/scene"
)

// Node is an entity in the in-memory scene graph. Transforms are stored
// relative to the parent; world values are derived on demand.
type Node struct {
	scene *Scene

	name       string
	localPos   scene.Vec3
	localRot   scene.Quat
	localScale scene.Vec3

	parent   *Node
	children []*Node

	// extents is the render half-size at unit scale; zero means no renderer.
	extents   scene.Vec3
	color     scene.Color
	hasBody   bool
	kinematic bool
	layer     int
	tag       string
	labels    []string
	active    bool
	grabbable bool
	alive     bool
}

func newNode(s *Scene, name string) *Node {
	return &Node{
		scene:      s,
		name:       name,
		localRot:   scene.Identity,
		localScale: scene.One,
		color:      scene.Color{R: 1, G: 1, B: 1, A: 1},
		active:     true,
		alive:      true,
	}
}

func (n *Node) Name() string {
	if n == nil {
		return ""
	}
	return n.name
}

func (n *Node) SetName(name string) {
	if n == nil {
		return
	}
	n.name = name
}

func (n *Node) Pose() scene.Pose {
	if n == nil {
		return scene.Pose{Rotation: scene.Identity, Scale: scene.One}
	}
	if n.parent == nil {
		return scene.Pose{Position: n.localPos, Rotation: n.localRot, Scale: n.localScale}
	}
	parent := n.parent.Pose()
	return scene.Pose{
		Position: parent.TransformPoint(n.localPos),
		Rotation: parent.Rotation.Mul(n.localRot).Normalized(),
		Scale:    parent.Scale.Mul(n.localScale),
	}
}

func (n *Node) SetPosition(world scene.Vec3) {
	if n == nil {
		return
	}
	if n.parent == nil {
		n.localPos = world
		return
	}
	parent := n.parent.Pose()
	local := parent.InverseTransformDirection(world.Sub(parent.Position))
	n.localPos = divide(local, parent.Scale)
}

func (n *Node) SetRotation(world scene.Quat) {
	if n == nil {
		return
	}
	if n.parent == nil {
		n.localRot = world.Normalized()
		return
	}
	n.localRot = n.parent.Pose().Rotation.Inverse().Mul(world).Normalized()
}

func (n *Node) LocalPosition() scene.Vec3 {
	if n == nil {
		return scene.Zero
	}
	return n.localPos
}

func (n *Node) SetLocalPosition(local scene.Vec3) {
	if n == nil {
		return
	}
	n.localPos = local
}

// LocalRotation reports the rotation relative to the parent.
func (n *Node) LocalRotation() scene.Quat {
	if n == nil {
		return scene.Identity
	}
	return n.localRot
}

func (n *Node) SetLocalRotation(local scene.Quat) {
	if n == nil {
		return
	}
	n.localRot = local.Normalized()
}

func (n *Node) LocalScale() scene.Vec3 {
	if n == nil {
		return scene.One
	}
	return n.localScale
}

func (n *Node) SetLocalScale(s scene.Vec3) {
	if n == nil {
		return
	}
	n.localScale = s
}

// Bounds approximates the render box by scaling the extents with the world
// scale; rotation is ignored.
func (n *Node) Bounds() scene.Bounds {
	if n == nil {
		return scene.Bounds{}
	}
	pose := n.Pose()
	ext := n.extents.Mul(pose.Scale)
	return scene.Bounds{
		Center:  pose.Position,
		Extents: scene.Vec3{X: math.Abs(ext.X), Y: math.Abs(ext.Y), Z: math.Abs(ext.Z)},
	}
}

func (n *Node) Parent() scene.Entity {
	if n == nil || n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) SetParent(parent scene.Entity) {
	if n == nil || !n.alive {
		return
	}
	var next *Node
	if parent != nil {
		p, ok := parent.(*Node)
		if !ok || p == nil || p.scene != n.scene || p.isDescendantOf(n) {
			return
		}
		next = p
	}
	if next == n.parent {
		return
	}
	world := n.Pose()
	n.detach()
	n.parent = next
	if next == nil {
		n.scene.roots = append(n.scene.roots, n)
	} else {
		next.children = append(next.children, n)
	}
	n.SetPosition(world.Position)
	n.SetRotation(world.Rotation)
	if next != nil {
		n.localScale = divide(world.Scale, next.Pose().Scale)
	} else {
		n.localScale = world.Scale
	}
}

func (n *Node) Children() []scene.Entity {
	if n == nil {
		return nil
	}
	out := make([]scene.Entity, 0, len(n.children))
	for _, child := range n.children {
		if child.alive {
			out = append(out, child)
		}
	}
	return out
}

// Destroy removes the node and its subtree from the scene.
func (n *Node) Destroy() {
	if n == nil || !n.alive {
		return
	}
	n.detach()
	n.markDead()
}

func (n *Node) Alive() bool {
	return n != nil && n.alive
}

// Color reports the material color; ok is false for nodes without a
// renderer.
func (n *Node) Color() (scene.Color, bool) {
	return n.color, n.HasRenderer()
}

func (n *Node) SetColor(c scene.Color) {
	if !n.HasRenderer() {
		return
	}
	n.color = c
}

// HasRenderer reports whether the node draws anything.
func (n *Node) HasRenderer() bool {
	return n != nil && n.extents != scene.Zero
}

func (n *Node) Kinematic() bool {
	return n.kinematic
}

func (n *Node) SetKinematic(kinematic bool) {
	if !n.hasBody {
		return
	}
	n.kinematic = kinematic
}

// HasBody reports whether the node carries a physics body.
func (n *Node) HasBody() bool {
	return n != nil && n.hasBody
}

func (n *Node) Layer() int         { return n.layer }
func (n *Node) SetLayer(layer int) { n.layer = layer }
func (n *Node) Tag() string        { return n.tag }
func (n *Node) Labels() []string   { return append([]string(nil), n.labels...) }

func (n *Node) Active() bool {
	return n.active
}

func (n *Node) SetActive(active bool) {
	n.active = active
}

// Grabbable reports whether hand interaction was attached.
func (n *Node) Grabbable() bool {
	return n != nil && n.grabbable
}

func (n *Node) detach() {
	if n.parent != nil {
		n.parent.children = removeNode(n.parent.children, n)
		n.parent = nil
		return
	}
	n.scene.roots = removeNode(n.scene.roots, n)
}

func (n *Node) markDead() {
	n.alive = false
	for _, child := range n.children {
		child.markDead()
	}
}

func (n *Node) isDescendantOf(ancestor *Node) bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

func removeNode(list []*Node, target *Node) []*Node {
	for i, candidate := range list {
		if candidate == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func divide(v, by scene.Vec3) scene.Vec3 {
	return scene.Vec3{X: safeDiv(v.X, by.X), Y: safeDiv(v.Y, by.Y), Z: safeDiv(v.Z, by.Z)}
}

func safeDiv(a, b float64) float64 {
	if math.Abs(b) < scene.Epsilon {
		return a
	}
	return a / b
}

var (
	_ scene.Entity      = (*Node)(nil)
	_ scene.Colored     = (*Node)(nil)
	_ scene.Physical    = (*Node)(nil)
	_ scene.Layered     = (*Node)(nil)
	_ scene.Tagged      = (*Node)(nil)
	_ scene.Activatable = (*Node)(nil)
	_ scene.Labeled     = (*Node)(nil)
)
