package anim

import "github.com/SNeC-Lab-PSU/LLMER/internal/scene"

// ParentStack remembers the parent an entity had before it was first
// attached so a later detach can put it back.
type ParentStack struct {
	previous map[scene.Entity]scene.Entity
}

// NewParentStack constructs an empty stack.
func NewParentStack() *ParentStack {
	return &ParentStack{previous: make(map[scene.Entity]scene.Entity)}
}

// Attach reparents e under parent, freezes its physics response and places
// it at the grab offset. The pre-attach parent is recorded only on the first
// attach; a nil record means the scene root. Attach reports false, leaving e
// untouched, when the scene refuses the reparent, as it does for cycles.
func (p *ParentStack) Attach(e, parent scene.Entity) bool {
	if p == nil || !scene.IsAlive(e) || !scene.IsAlive(parent) {
		return false
	}
	_, recorded := p.previous[e]
	prev := e.Parent()
	e.SetParent(parent)
	if e.Parent() != parent {
		return false
	}
	if !recorded {
		p.previous[e] = prev
	}
	offset := scene.Vec3{X: -scene.BoundsOf(e).Extents.X}
	if body, ok := e.(scene.Physical); ok {
		body.SetKinematic(true)
	}
	e.SetLocalPosition(offset)
	e.SetLocalRotation(scene.Identity)
	return true
}

// Detach restores the recorded parent and re-enables physics. It reports
// false, changing nothing, when e was never attached. A recorded parent that
// has since been destroyed restores e to the scene root.
func (p *ParentStack) Detach(e scene.Entity) bool {
	if p == nil || e == nil {
		return false
	}
	prev, recorded := p.previous[e]
	if !recorded {
		return false
	}
	delete(p.previous, e)
	if !e.Alive() {
		return true
	}
	if !scene.IsAlive(prev) {
		prev = nil
	}
	e.SetParent(prev)
	if body, ok := e.(scene.Physical); ok {
		body.SetKinematic(false)
	}
	return true
}

// Has reports whether e has a recorded parent.
func (p *ParentStack) Has(e scene.Entity) bool {
	if p == nil {
		return false
	}
	_, ok := p.previous[e]
	return ok
}

// Previous returns the recorded parent of e.
func (p *ParentStack) Previous(e scene.Entity) (scene.Entity, bool) {
	if p == nil {
		return nil, false
	}
	prev, ok := p.previous[e]
	return prev, ok
}

// Len reports the number of recorded entities.
func (p *ParentStack) Len() int {
	if p == nil {
		return 0
	}
	return len(p.previous)
}

// Prune drops records for destroyed entities.
func (p *ParentStack) Prune() int {
	if p == nil {
		return 0
	}
	removed := 0
	for e := range p.previous {
		if !e.Alive() {
			delete(p.previous, e)
			removed++
		}
	}
	return removed
}
