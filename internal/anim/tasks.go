package anim

import (
	"math"

	"github.com/SNeC-Lab-PSU/LLMER/internal/command"
	"github.com/SNeC-Lab-PSU/LLMER/internal/scene"
)

// MoveTask interpolates an entity's world position toward a fixed point.
type MoveTask struct {
	entity scene.Entity
	from   scene.Vec3
	to     scene.Vec3
	tween  tween
}

// MoveTowards moves e to the world point at speed metres per second.
func MoveTowards(e scene.Entity, to scene.Vec3, speed float64) *MoveTask {
	from := e.Pose().Position
	return &MoveTask{
		entity: e,
		from:   from,
		to:     to,
		tween:  tween{duration: travelTime(from.Distance(to), speed)},
	}
}

func (t *MoveTask) Kind() command.ActionKind { return command.ActionMoveTowards }
func (t *MoveTask) Target() scene.Entity     { return t.entity }

// Destination reports the point the task converges on.
func (t *MoveTask) Destination() scene.Vec3 { return t.to }

// Duration reports the planned travel time in seconds.
func (t *MoveTask) Duration() float64 { return t.tween.duration }

func (t *MoveTask) Step(dt float64) Status {
	if !scene.IsAlive(t.entity) {
		return Cancelled
	}
	f, done := t.tween.advance(dt)
	if done {
		t.entity.SetPosition(t.to)
		return Done
	}
	t.entity.SetPosition(scene.Lerp(t.from, t.to, f))
	return Continue
}

// RotateTask interpolates an entity's world rotation toward a fixed
// orientation.
type RotateTask struct {
	kind   command.ActionKind
	entity scene.Entity
	from   scene.Quat
	to     scene.Quat
	tween  tween
}

// RotateTowards turns e to the Euler orientation at speed degrees per
// second.
func RotateTowards(e scene.Entity, euler scene.Vec3, speed float64) *RotateTask {
	return newRotate(command.ActionRotateTowards, e, scene.Euler(euler), speed)
}

// LookTowards turns e about the vertical axis until it faces point. The
// vertical component of the look direction is ignored so the gaze stays
// level. A point straight above or below keeps the current rotation.
func LookTowards(e scene.Entity, point scene.Vec3, speed float64) *RotateTask {
	pose := e.Pose()
	to, ok := flatLook(pose.Position, point)
	if !ok {
		to = pose.Rotation
	}
	return newRotate(command.ActionLookTowards, e, to, speed)
}

func newRotate(kind command.ActionKind, e scene.Entity, to scene.Quat, speed float64) *RotateTask {
	from := e.Pose().Rotation
	return &RotateTask{
		kind:   kind,
		entity: e,
		from:   from,
		to:     to,
		tween:  tween{duration: travelTime(scene.Angle(from, to), speed)},
	}
}

func (t *RotateTask) Kind() command.ActionKind { return t.kind }
func (t *RotateTask) Target() scene.Entity     { return t.entity }

// Orientation reports the rotation the task converges on.
func (t *RotateTask) Orientation() scene.Quat { return t.to }

func (t *RotateTask) Step(dt float64) Status {
	if !scene.IsAlive(t.entity) {
		return Cancelled
	}
	f, done := t.tween.advance(dt)
	if done {
		t.entity.SetRotation(t.to)
		return Done
	}
	t.entity.SetRotation(scene.Slerp(t.from, t.to, f))
	return Continue
}

// SelfRotateTask spins an entity about one of its local axes.
type SelfRotateTask struct {
	entity scene.Entity
	axis   scene.Vec3
	speed  float64
	budget budget
}

// SelfRotate spins e about the local axis at speed degrees per second for
// limit seconds, or until stopped when limit is negative.
func SelfRotate(e scene.Entity, axis scene.Vec3, speed, limit float64) *SelfRotateTask {
	if axis.Length() < scene.Epsilon {
		axis = scene.Up
	}
	return &SelfRotateTask{entity: e, axis: axis, speed: speed, budget: budget{limit: limit}}
}

func (t *SelfRotateTask) Kind() command.ActionKind { return command.ActionSelfRotate }
func (t *SelfRotateTask) Target() scene.Entity     { return t.entity }

func (t *SelfRotateTask) Step(dt float64) Status {
	if !scene.IsAlive(t.entity) {
		return Cancelled
	}
	if t.budget.spent() {
		return Done
	}
	rot := t.entity.Pose().Rotation.Mul(scene.AngleAxis(t.speed*dt, t.axis))
	t.entity.SetRotation(rot.Normalized())
	t.budget.add(dt)
	if t.budget.spent() {
		return Done
	}
	return Continue
}

// orbitDisplacement is the target movement that re-anchors an orbit.
const orbitDisplacement = 0.01

// OrbitTask circles an entity around a live target.
type OrbitTask struct {
	entity     scene.Entity
	center     scene.Entity
	speed      float64
	budget     budget
	normal     scene.Vec3
	radius     float64
	lastCenter scene.Vec3
	lastScale  scene.Vec3
}

// Orbit circles e around center at speed degrees per second. The orbit
// plane contains the line between them; its normal always points into the
// upper half space.
func Orbit(e, center scene.Entity, speed, limit float64) *OrbitTask {
	if p, ok := e.(scene.Physical); ok {
		p.SetKinematic(true)
	}
	t := &OrbitTask{
		entity: e,
		center: center,
		speed:  speed,
		budget: budget{limit: limit},
	}
	t.anchor()
	return t
}

// OrbitNormal returns the plane normal for an orbit from position around
// center.
func OrbitNormal(position, center scene.Vec3) scene.Vec3 {
	dir := center.Sub(position)
	aux := scene.Forward
	if math.Abs(dir.Normalized().Dot(scene.Forward)) > 0.999 {
		aux = scene.Right
	}
	normal := dir.Cross(aux)
	if normal.Dot(scene.Up) < 0 {
		normal = normal.Neg()
	}
	return normal
}

func (t *OrbitTask) anchor() {
	pos := t.entity.Pose().Position
	center := t.center.Pose().Position
	t.normal = OrbitNormal(pos, center)
	t.radius = pos.Distance(center)
	t.lastCenter = center
	t.lastScale = t.entity.LocalScale()
}

func (t *OrbitTask) Kind() command.ActionKind { return command.ActionOrbit }
func (t *OrbitTask) Target() scene.Entity     { return t.entity }

// Normal reports the current plane normal.
func (t *OrbitTask) Normal() scene.Vec3 { return t.normal }

// Radius reports the current orbit radius.
func (t *OrbitTask) Radius() float64 { return t.radius }

func (t *OrbitTask) Step(dt float64) Status {
	if !scene.IsAlive(t.entity) || !scene.IsAlive(t.center) {
		return Cancelled
	}
	if t.budget.spent() {
		return Done
	}
	center := t.center.Pose().Position
	if center.Distance(t.lastCenter) > orbitDisplacement || t.entity.LocalScale() != t.lastScale {
		offset := center.Sub(t.lastCenter)
		t.entity.SetPosition(t.entity.Pose().Position.Add(offset))
		t.anchor()
	}
	deg := t.speed * dt
	pose := t.entity.Pose()
	t.entity.SetPosition(scene.RotateAround(pose.Position, center, t.normal, deg))
	t.entity.SetRotation(scene.AngleAxis(deg, t.normal).Mul(pose.Rotation).Normalized())
	t.budget.add(dt)
	if t.budget.spent() {
		return Done
	}
	return Continue
}

// gazeSpeed is the fixed tracking rate of a gaze in degrees per second.
const gazeSpeed = 90.0

// GazeTask keeps an entity facing a live target.
type GazeTask struct {
	entity scene.Entity
	focus  scene.Entity
	budget budget
}

// Gazing turns e toward focus every tick for limit seconds, or until
// stopped when limit is negative.
func Gazing(e, focus scene.Entity, limit float64) *GazeTask {
	return &GazeTask{entity: e, focus: focus, budget: budget{limit: limit}}
}

func (t *GazeTask) Kind() command.ActionKind { return command.ActionGazing }
func (t *GazeTask) Target() scene.Entity     { return t.entity }

func (t *GazeTask) Step(dt float64) Status {
	if !scene.IsAlive(t.entity) || !scene.IsAlive(t.focus) {
		return Cancelled
	}
	if t.budget.spent() {
		return Done
	}
	pose := t.entity.Pose()
	if want, ok := flatLook(pose.Position, t.focus.Pose().Position); ok {
		angle := scene.Angle(pose.Rotation, want)
		step := gazeSpeed * dt
		if angle <= step {
			t.entity.SetRotation(want)
		} else {
			t.entity.SetRotation(scene.Slerp(pose.Rotation, want, step/angle))
		}
	}
	t.budget.add(dt)
	if t.budget.spent() {
		return Done
	}
	return Continue
}

// ScaleTask interpolates an entity's local scale.
type ScaleTask struct {
	entity scene.Entity
	from   scene.Vec3
	to     scene.Vec3
	tween  tween
}

// ScaleOverTime rescales e to the local scale over duration seconds.
func ScaleOverTime(e scene.Entity, to scene.Vec3, duration float64) *ScaleTask {
	return &ScaleTask{entity: e, from: e.LocalScale(), to: to, tween: tween{duration: duration}}
}

func (t *ScaleTask) Kind() command.ActionKind { return command.ActionScale }
func (t *ScaleTask) Target() scene.Entity     { return t.entity }

func (t *ScaleTask) Step(dt float64) Status {
	if !scene.IsAlive(t.entity) {
		return Cancelled
	}
	f, done := t.tween.advance(dt)
	if done {
		t.entity.SetLocalScale(t.to)
		return Done
	}
	t.entity.SetLocalScale(scene.Lerp(t.from, t.to, f))
	return Continue
}

// ColorTask fades an entity's material color.
type ColorTask struct {
	entity  scene.Entity
	colored scene.Colored
	from    scene.Color
	to      scene.Color
	tween   tween
}

// FadeColor fades e to the color over duration seconds. ok is false when e
// has no renderer.
func FadeColor(e scene.Entity, to scene.Color, duration float64) (*ColorTask, bool) {
	colored, ok := e.(scene.Colored)
	if !ok {
		return nil, false
	}
	from, ok := colored.Color()
	if !ok {
		return nil, false
	}
	return &ColorTask{
		entity:  e,
		colored: colored,
		from:    from,
		to:      to,
		tween:   tween{duration: duration},
	}, true
}

func (t *ColorTask) Kind() command.ActionKind { return command.ActionColor }
func (t *ColorTask) Target() scene.Entity     { return t.entity }

func (t *ColorTask) Step(dt float64) Status {
	if !scene.IsAlive(t.entity) {
		return Cancelled
	}
	f, done := t.tween.advance(dt)
	if done {
		t.colored.SetColor(t.to)
		return Done
	}
	t.colored.SetColor(scene.LerpColor(t.from, t.to, f))
	return Continue
}

// CatchTask moves to a target, takes hold of it, then returns.
type CatchTask struct {
	mover   scene.Entity
	prey    scene.Entity
	parents *ParentStack
	speed   float64
	origin  scene.Vec3
	phase   int
	move    *MoveTask
}

// Catch approaches prey to within safeBound of its centre, attaches prey to
// mover and carries it back to mover's starting point. A negative safeBound
// derives the clearance from prey's bounds.
func Catch(mover, prey scene.Entity, parents *ParentStack, speed, safeBound float64) *CatchTask {
	preyPos := prey.Pose().Position
	if safeBound < 0 {
		safeBound = scene.BoundsOf(prey).Extents.Length()
	}
	origin := mover.Pose().Position
	approach := preyPos.Add(origin.Sub(preyPos).Normalized().Scale(safeBound))
	return &CatchTask{
		mover:   mover,
		prey:    prey,
		parents: parents,
		speed:   speed,
		origin:  origin,
		move:    MoveTowards(mover, approach, speed),
	}
}

func (t *CatchTask) Kind() command.ActionKind { return command.ActionCatch }
func (t *CatchTask) Target() scene.Entity     { return t.mover }

// Phase reports the current phase: 0 approach, 1 attach, 2 return.
func (t *CatchTask) Phase() int { return t.phase }

func (t *CatchTask) Step(dt float64) Status {
	if !scene.IsAlive(t.mover) {
		return Cancelled
	}
	switch t.phase {
	case 0:
		status := t.move.Step(dt)
		if status != Done {
			return status
		}
		t.phase = 1
		return Continue
	case 1:
		if !scene.IsAlive(t.prey) {
			return Aborted
		}
		if !t.parents.Attach(t.prey, t.mover) {
			return Aborted
		}
		t.phase = 2
		t.move = MoveTowards(t.mover, t.origin, t.speed)
		return Continue
	default:
		return t.move.Step(dt)
	}
}

func travelTime(distance, speed float64) float64 {
	if speed <= 0 || distance <= 0 {
		return 0
	}
	return distance / speed
}
