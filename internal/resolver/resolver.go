// Package resolver maps symbolic names and opaque identifiers to live scene
// entities.
package resolver

import (
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/SNeC-Lab-PSU/LLMER/internal/scene"
)

// Resolver looks entities up by name or identifier. It is owned by the tick
// loop and is not safe for concurrent use.
type Resolver struct {
	provider scene.Provider
	ids      map[uuid.UUID]scene.Entity
	handles  map[scene.Entity]uuid.UUID
}

// New constructs a resolver over the provider's entities.
func New(provider scene.Provider) *Resolver {
	return &Resolver{
		provider: provider,
		ids:      make(map[uuid.UUID]scene.Entity),
		handles:  make(map[scene.Entity]uuid.UUID),
	}
}

// Resolve returns the live entity for ref, or nil when nothing matches. A
// ref that parses as a UUID is looked up in the identifier registry only.
// Otherwise the entity named ref closest to the viewpoint wins.
func (r *Resolver) Resolve(ref string) scene.Entity {
	if r == nil {
		return nil
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	if id, err := uuid.Parse(ref); err == nil {
		e, ok := r.ids[id]
		if !ok || !scene.IsAlive(e) {
			return nil
		}
		return e
	}
	return r.nearest(r.FindAll(ref))
}

// FindAll lists every live entity whose name equals name.
func (r *Resolver) FindAll(name string) []scene.Entity {
	if r == nil || r.provider == nil {
		return nil
	}
	var matches []scene.Entity
	for _, e := range r.provider.Entities() {
		if scene.IsAlive(e) && e.Name() == name {
			matches = append(matches, e)
		}
	}
	return matches
}

func (r *Resolver) nearest(candidates []scene.Entity) scene.Entity {
	switch len(candidates) {
	case 0:
		return nil
	case 1:
		return candidates[0]
	}
	viewpoint := r.provider.Viewpoint()
	best := candidates[0]
	bestDist := math.Inf(1)
	for _, e := range candidates {
		d := e.Pose().Position.Distance(viewpoint)
		if d < bestDist {
			best = e
			bestDist = d
		}
	}
	return best
}

// GetOrAssignID returns the identifier mapped to e, minting one when e has
// none. It is idempotent per handle.
func (r *Resolver) GetOrAssignID(e scene.Entity) uuid.UUID {
	if r == nil || e == nil {
		return uuid.Nil
	}
	if id, ok := r.handles[e]; ok {
		return id
	}
	id := uuid.New()
	r.ids[id] = e
	r.handles[e] = id
	return id
}

// Register binds a known identifier to e. It reports false without changing
// the registry when either side is already mapped elsewhere.
func (r *Resolver) Register(id uuid.UUID, e scene.Entity) bool {
	if r == nil || e == nil || id == uuid.Nil {
		return false
	}
	if existing, ok := r.ids[id]; ok {
		return existing == e
	}
	if _, ok := r.handles[e]; ok {
		return false
	}
	r.ids[id] = e
	r.handles[e] = id
	return true
}

// IDOf reports the identifier mapped to e without minting one.
func (r *Resolver) IDOf(e scene.Entity) (uuid.UUID, bool) {
	if r == nil || e == nil {
		return uuid.Nil, false
	}
	id, ok := r.handles[e]
	return id, ok
}

// Prune forgets identifiers whose entity has been destroyed and returns how
// many were removed.
func (r *Resolver) Prune() int {
	if r == nil {
		return 0
	}
	removed := 0
	for id, e := range r.ids {
		if scene.IsAlive(e) {
			continue
		}
		delete(r.ids, id)
		delete(r.handles, e)
		removed++
	}
	return removed
}

// Len reports the number of registered identifiers.
func (r *Resolver) Len() int {
	if r == nil {
		return 0
	}
	return len(r.ids)
}
