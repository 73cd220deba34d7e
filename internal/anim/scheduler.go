package anim

import (
	"context"
	"sort"

	"github.com/SNeC-Lab-PSU/LLMER/internal/command"
	"github.com/SNeC-Lab-PSU/LLMER/internal/scene"
	"github.com/SNeC-Lab-PSU/LLMER/internal/telemetry"
	"github.com/SNeC-Lab-PSU/LLMER/logging"
	animlog "github.com/SNeC-Lab-PSU/LLMER/logging/animation"
)

const (
	activeTasksMetricKey    = "anim_active_tasks"
	pendingMetricKey        = "anim_pending_commands"
	tasksStartedMetricKey   = "anim_tasks_started_total"
	tasksCancelledMetricKey = "anim_tasks_cancelled_total"
	tasksAbortedMetricKey   = "anim_tasks_aborted_total"
)

// Resolver maps an object reference to a live entity.
type Resolver interface {
	Resolve(ref string) scene.Entity
}

// Deferrer runs work after every task has stepped for the current tick.
type Deferrer interface {
	Defer(fn func())
}

// Config carries the scheduler's ambient dependencies.
type Config struct {
	// AgentName marks entities whose moves keep their current height.
	AgentName string
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
}

type entry struct {
	name      string
	task      Task
	cancelled bool
	retired   bool
	elapsed   float64
}

// Scheduler owns the named task registry and the queue of structural
// commands. It is driven by Tick from the owning loop and is not safe for
// concurrent use.
type Scheduler struct {
	cfg        Config
	resolver   Resolver
	interactor scene.Interactor
	deferrer   Deferrer
	parents    *ParentStack

	pending []command.Action
	order   []*entry
	byName  map[string]*entry
	// lane is the blocking task that holds back the next command.
	lane *entry
	tick uint64
}

// NewScheduler constructs a scheduler. interactor and deferrer may be nil;
// without a deferrer removals run immediately.
func NewScheduler(cfg Config, resolver Resolver, interactor scene.Interactor, deferrer Deferrer) *Scheduler {
	if cfg.Publisher == nil {
		cfg.Publisher = logging.NopPublisher()
	}
	return &Scheduler{
		cfg:        cfg,
		resolver:   resolver,
		interactor: interactor,
		deferrer:   deferrer,
		parents:    NewParentStack(),
		byName:     make(map[string]*entry),
	}
}

// Parents exposes the attach record.
func (s *Scheduler) Parents() *ParentStack {
	if s == nil {
		return nil
	}
	return s.parents
}

// Enqueue stages a structural command for a later tick.
func (s *Scheduler) Enqueue(action command.Action) {
	if s == nil {
		return
	}
	s.pending = append(s.pending, action)
	s.storeMetric(pendingMetricKey, uint64(len(s.pending)))
}

// Pending reports the number of staged commands.
func (s *Scheduler) Pending() int {
	if s == nil {
		return 0
	}
	return len(s.pending)
}

// Busy reports whether a blocking task holds the sequencing lane.
func (s *Scheduler) Busy() bool {
	return s != nil && s.lane != nil
}

// ActiveTaskNames lists the registered task names in lexical order.
func (s *Scheduler) ActiveTaskNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start registers task under name. A task already registered under the same
// name is cancelled and removed first; it never steps again. An empty name
// runs the task without registering it. The task first steps on the next
// call to Tick, or on the current one when called before stepping.
func (s *Scheduler) Start(ctx context.Context, name string, task Task) {
	s.start(ctx, name, task, false)
}

// Stop flags the named task for cancellation. The task is removed when the
// scheduler next polls it, without forcing its end state.
func (s *Scheduler) Stop(name string) bool {
	if s == nil {
		return false
	}
	e, ok := s.byName[name]
	if !ok {
		return false
	}
	e.cancelled = true
	return true
}

// Tick applies every staged stop, then at most one other staged command when
// no blocking task holds the lane, and then steps every live task once in
// start order. A stop queued behind a staged command carrying the same name
// waits for that command so it stops the task it was meant for.
func (s *Scheduler) Tick(ctx context.Context, tick uint64, dt float64) {
	if s == nil {
		return
	}
	s.tick = tick
	s.applyStops(ctx)
	if len(s.pending) > 0 && s.lane == nil {
		s.apply(ctx, s.dequeue())
	}

	live := s.order[:0]
	for _, e := range s.order {
		if e.retired {
			continue
		}
		s.step(ctx, e, dt)
		if !e.retired {
			live = append(live, e)
		}
	}
	for i := len(live); i < len(s.order); i++ {
		s.order[i] = nil
	}
	s.order = live
	s.storeMetric(activeTasksMetricKey, uint64(len(s.order)))
	s.storeMetric(pendingMetricKey, uint64(len(s.pending)))
}

// applyStops applies queued stops out of order and keeps the rest in place.
func (s *Scheduler) applyStops(ctx context.Context) {
	var staged map[string]bool
	kept := s.pending[:0]
	for _, a := range s.pending {
		if a.Kind == command.ActionStop && !staged[a.ID] {
			s.apply(ctx, a)
			continue
		}
		if a.Kind != command.ActionStop && a.ID != "" {
			if staged == nil {
				staged = make(map[string]bool)
			}
			staged[a.ID] = true
		}
		kept = append(kept, a)
	}
	clear(s.pending[len(kept):])
	s.pending = kept
}

func (s *Scheduler) dequeue() command.Action {
	action := s.pending[0]
	s.pending[0] = command.Action{}
	s.pending = s.pending[1:]
	return action
}

func (s *Scheduler) step(ctx context.Context, e *entry, dt float64) {
	if e.cancelled {
		s.finish(ctx, e, Cancelled)
		return
	}
	status := e.task.Step(dt)
	e.elapsed += dt
	if status != Continue {
		s.finish(ctx, e, status)
	}
}

func (s *Scheduler) start(ctx context.Context, name string, task Task, blocking bool) {
	if s == nil || task == nil {
		return
	}
	if prev, ok := s.byName[name]; ok && name != "" {
		prev.cancelled = true
		s.retire(prev)
		s.addMetric(tasksCancelledMetricKey)
		animlog.TaskSuperseded(ctx, s.cfg.Publisher, s.tick, name, animlog.TaskPayload{
			Kind:    string(prev.task.Kind()),
			Elapsed: prev.elapsed,
		})
	}
	e := &entry{name: name, task: task}
	s.order = append(s.order, e)
	if name != "" {
		s.byName[name] = e
	}
	if blocking {
		s.lane = e
	}
	s.addMetric(tasksStartedMetricKey)
	s.storeMetric(activeTasksMetricKey, uint64(len(s.order)))
	animlog.TaskStarted(ctx, s.cfg.Publisher, s.tick, name, entityRef(task.Target()), animlog.TaskPayload{Kind: string(task.Kind())})
}

func (s *Scheduler) finish(ctx context.Context, e *entry, status Status) {
	s.retire(e)
	payload := animlog.TaskPayload{Kind: string(e.task.Kind()), Elapsed: e.elapsed}
	target := entityRef(e.task.Target())
	switch status {
	case Done:
		animlog.TaskCompleted(ctx, s.cfg.Publisher, s.tick, e.name, target, payload)
	case Cancelled:
		s.addMetric(tasksCancelledMetricKey)
		animlog.TaskCancelled(ctx, s.cfg.Publisher, s.tick, e.name, target, payload)
	case Aborted:
		phase := 0
		if phased, ok := e.task.(interface{ Phase() int }); ok {
			phase = phased.Phase()
		}
		s.addMetric(tasksAbortedMetricKey)
		animlog.CompositeAborted(ctx, s.cfg.Publisher, s.tick, e.name, animlog.CompositeAbortedPayload{
			Action: string(e.task.Kind()),
			Phase:  phase,
			Reason: "target destroyed",
		})
	}
}

func (s *Scheduler) retire(e *entry) {
	e.retired = true
	if current, ok := s.byName[e.name]; ok && current == e {
		delete(s.byName, e.name)
	}
	if s.lane == e {
		s.lane = nil
	}
}

func (s *Scheduler) apply(ctx context.Context, a command.Action) {
	if a.Kind == command.ActionStop {
		s.Stop(a.ID)
		return
	}
	obj := s.resolve(ctx, a, a.Object, "object")
	if obj == nil {
		return
	}
	if a.NewObjectName != "" {
		obj.SetName(a.NewObjectName)
	}

	switch a.Kind {
	case command.ActionAttach:
		if target := s.resolve(ctx, a, a.Target, "target"); target != nil {
			if !s.parents.Attach(obj, target) {
				s.reject(ctx, a, obj, "reparent refused")
			}
		}
	case command.ActionDetach:
		s.parents.Detach(obj)
	case command.ActionScale:
		s.start(ctx, a.ID, ScaleOverTime(obj, *a.Scale, a.Time), true)
	case command.ActionColor:
		task, ok := FadeColor(obj, scene.ColorFromVec3(*a.Color), a.Time)
		if !ok {
			s.reject(ctx, a, obj, "entity has no renderer")
			return
		}
		s.start(ctx, a.ID, task, true)
	case command.ActionMoveTowards:
		to, ok := s.moveDestination(ctx, obj, a)
		if !ok {
			s.reject(ctx, a, obj, "no destination")
			return
		}
		s.start(ctx, a.ID, MoveTowards(obj, to, a.SpeedMov), true)
	case command.ActionRotateTowards:
		s.start(ctx, a.ID, RotateTowards(obj, *a.Orientation, a.SpeedRot), true)
	case command.ActionLookTowards:
		point, _, ok := s.destination(ctx, obj, a)
		if !ok {
			s.reject(ctx, a, obj, "no look point")
			return
		}
		s.start(ctx, a.ID, LookTowards(obj, point, a.SpeedRot), true)
	case command.ActionCatch:
		prey := s.resolver.Resolve(a.Target)
		if prey == nil {
			animlog.CompositeAborted(ctx, s.cfg.Publisher, s.tick, a.ID, animlog.CompositeAbortedPayload{
				Action: string(a.Kind),
				Reason: "target unresolved: " + a.Target,
			})
			return
		}
		bound := command.DefaultCatchSafeBound
		if a.SafeBound != nil {
			bound = *a.SafeBound
		}
		s.start(ctx, a.ID, Catch(obj, prey, s.parents, a.SpeedMov, bound), true)
	case command.ActionSelfRotate:
		s.start(ctx, a.ID, SelfRotate(obj, a.Axis, a.SpeedRot, a.Time), false)
	case command.ActionOrbit:
		if center := s.resolve(ctx, a, a.Target, "target"); center != nil {
			s.start(ctx, a.ID, Orbit(obj, center, a.SpeedRot, a.Time), false)
		}
	case command.ActionGazing:
		if focus := s.resolve(ctx, a, a.Target, "target"); focus != nil {
			s.start(ctx, a.ID, Gazing(obj, focus, a.Time), false)
		}
	case command.ActionRemove:
		s.parents.Detach(obj)
		if s.deferrer == nil {
			obj.Destroy()
			return
		}
		s.deferrer.Defer(obj.Destroy)
	case command.ActionGrabbable:
		if s.interactor == nil {
			s.reject(ctx, a, obj, "no interactor")
			return
		}
		if err := s.interactor.MakeGrabbable(obj); err != nil {
			s.reject(ctx, a, obj, err.Error())
		}
	}
}

func (s *Scheduler) resolve(ctx context.Context, a command.Action, ref, role string) scene.Entity {
	var e scene.Entity
	if s.resolver != nil {
		e = s.resolver.Resolve(ref)
	}
	if e == nil {
		animlog.TargetUnresolved(ctx, s.cfg.Publisher, s.tick, a.ID, animlog.UnresolvedPayload{
			Action:    string(a.Kind),
			Reference: ref,
			Role:      role,
		})
	}
	return e
}

func (s *Scheduler) reject(ctx context.Context, a command.Action, obj scene.Entity, reason string) {
	animlog.ActionRejected(ctx, s.cfg.Publisher, s.tick, a.ID, entityRef(obj), animlog.ActionRejectedPayload{
		Action: string(a.Kind),
		Reason: reason,
	})
}

func (s *Scheduler) addMetric(key string) {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.Add(key, 1)
	}
}

func (s *Scheduler) storeMetric(key string, value uint64) {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.Store(key, value)
	}
}

func entityRef(e scene.Entity) logging.EntityRef {
	if e == nil {
		return logging.EntityRef{Kind: logging.EntityKindEntity}
	}
	return logging.Entity(e.Name())
}
