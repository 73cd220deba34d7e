package anim

import (
	"context"
	"strings"

	"github.com/SNeC-Lab-PSU/LLMER/internal/command"
	"github.com/SNeC-Lab-PSU/LLMER/internal/scene"
	animlog "github.com/SNeC-Lab-PSU/LLMER/logging/animation"
)

// destination derives the world point a move or look action aims at. A
// resolved target supplies the reference frame; otherwise the object's own
// frame is used and an absolute position takes precedence. target is nil
// when the action named none or it did not resolve.
func (s *Scheduler) destination(ctx context.Context, obj scene.Entity, a command.Action) (point scene.Vec3, target scene.Entity, ok bool) {
	if a.Target != "" {
		target = s.resolver.Resolve(a.Target)
		if target == nil {
			animlog.TargetUnresolved(ctx, s.cfg.Publisher, s.tick, a.ID, animlog.UnresolvedPayload{
				Action:    string(a.Kind),
				Reference: a.Target,
				Role:      "target",
			})
		}
	}
	self := obj.Pose()
	if target != nil {
		frame := target.Pose()
		switch {
		case a.LocalPosition != nil:
			return frame.TransformPoint(*a.LocalPosition), target, true
		case a.LocalDirection != nil:
			return self.Position.Add(frame.TransformDirection(*a.LocalDirection).Scale(a.Distance)), target, true
		default:
			return frame.Position, target, true
		}
	}
	switch {
	case a.Position != nil:
		return *a.Position, nil, true
	case a.LocalPosition != nil:
		return self.TransformPoint(*a.LocalPosition), nil, true
	case a.LocalDirection != nil:
		return self.Position.Add(self.TransformDirection(*a.LocalDirection).Scale(a.Distance)), nil, true
	}
	return scene.Vec3{}, nil, false
}

// moveDestination applies the safe bound and the agent height rule to a
// move destination.
func (s *Scheduler) moveDestination(ctx context.Context, obj scene.Entity, a command.Action) (scene.Vec3, bool) {
	to, target, ok := s.destination(ctx, obj, a)
	if !ok {
		return to, false
	}
	from := obj.Pose().Position
	if a.SafeBound != nil {
		to = withClearance(from, to, target, *a.SafeBound)
	}
	if s.cfg.AgentName != "" && strings.Contains(obj.Name(), s.cfg.AgentName) {
		to.Y = from.Y
	}
	return to, true
}

// withClearance pulls to back toward from by bound. A negative bound is
// derived from the target's bounding radius, or ignored without a target.
func withClearance(from, to scene.Vec3, target scene.Entity, bound float64) scene.Vec3 {
	if bound < 0 {
		if target == nil {
			return to
		}
		bound = scene.BoundsOf(target).Extents.Length()
	}
	return to.Add(from.Sub(to).Normalized().Scale(bound))
}
