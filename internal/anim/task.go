// Package anim runs named, cooperatively cancellable tasks that animate or
// restructure scene entities one tick at a time.
package anim

import (
	"github.com/SNeC-Lab-PSU/LLMER/internal/command"
	"github.com/SNeC-Lab-PSU/LLMER/internal/scene"
)

// Status is the outcome of one task step.
type Status uint8

const (
	// Continue keeps the task registered for the next tick.
	Continue Status = iota
	// Done means the task reached its end state.
	Done
	// Cancelled means the task stopped early without forcing its end state.
	Cancelled
	// Aborted means a multi-phase task failed part way; applied phases stay.
	Aborted
)

func (s Status) String() string {
	switch s {
	case Continue:
		return "continue"
	case Done:
		return "done"
	case Cancelled:
		return "cancelled"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Task advances one operation against an entity. Step is called once per
// tick with the elapsed seconds; it never blocks.
type Task interface {
	Kind() command.ActionKind
	Target() scene.Entity
	Step(dt float64) Status
}

// completionSlack absorbs float accumulation error so a task of duration D
// finishes on the tick where the summed dt reaches D.
const completionSlack = 1e-9

// tween tracks elapsed time against a fixed duration.
type tween struct {
	elapsed  float64
	duration float64
}

// advance adds dt and returns the interpolation factor and whether the end
// was reached. Non-positive durations finish immediately.
func (t *tween) advance(dt float64) (float64, bool) {
	if t.duration <= 0 {
		return 1, true
	}
	t.elapsed += dt
	if t.elapsed >= t.duration-completionSlack {
		return 1, true
	}
	return t.elapsed / t.duration, false
}

// budget tracks how long an open-ended task has run. A negative limit means
// no limit.
type budget struct {
	elapsed float64
	limit   float64
}

func (b *budget) spent() bool {
	return b.limit >= 0 && b.elapsed >= b.limit-completionSlack
}

func (b *budget) add(dt float64) {
	b.elapsed += dt
}

// flatLook returns the level rotation that faces point from origin. ok is
// false when point is directly above or below origin.
func flatLook(origin, point scene.Vec3) (scene.Quat, bool) {
	dir := point.Sub(origin)
	dir.Y = 0
	if dir.Length() < scene.Epsilon {
		return scene.Identity, false
	}
	return scene.LookRotation(dir, scene.Up), true
}
