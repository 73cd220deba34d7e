// Package gate serialises environment construction bursts against readers
// that need a stable scene.
package gate

// State is the construction gate position.
type State uint8

const (
	Idle State = iota
	Constructing
)

func (s State) String() string {
	if s == Constructing {
		return "constructing"
	}
	return "idle"
}

// Observer is notified of every state transition.
type Observer func(from, to State)

// Gate is a two-state machine mutated only by the dispatcher on the tick
// loop.
type Gate struct {
	state    State
	observer Observer
}

// New returns an idle gate.
func New(observer Observer) *Gate {
	return &Gate{observer: observer}
}

// State reports the current position.
func (g *Gate) State() State {
	if g == nil {
		return Idle
	}
	return g.state
}

// Idle reports whether no construction is in progress.
func (g *Gate) Idle() bool {
	return g.State() == Idle
}

// BeginConstruction moves the gate to Constructing.
func (g *Gate) BeginConstruction() {
	g.set(Constructing)
}

// EndConstruction moves the gate to Idle.
func (g *Gate) EndConstruction() {
	g.set(Idle)
}

func (g *Gate) set(next State) {
	if g == nil || g.state == next {
		return
	}
	prev := g.state
	g.state = next
	if g.observer != nil {
		g.observer(prev, next)
	}
}

// AwaitIdle starts a cooperative wait bounded by maxWait seconds.
func (g *Gate) AwaitIdle(maxWait float64) *Waiter {
	return &Waiter{gate: g, max: maxWait}
}

// Waiter is a soft deadline polled once per tick. Once it reports ready it
// stays ready.
type Waiter struct {
	gate    *Gate
	max     float64
	elapsed float64
	expired bool
	ready   bool
}

// Poll advances the wait by dt seconds and reports whether the caller may
// proceed. It proceeds when the gate is idle or the budget is spent.
func (w *Waiter) Poll(dt float64) bool {
	if w == nil {
		return true
	}
	if w.ready {
		return true
	}
	if w.gate.Idle() {
		w.ready = true
		return true
	}
	if dt > 0 {
		w.elapsed += dt
	}
	if w.elapsed >= w.max {
		w.ready = true
		w.expired = true
		return true
	}
	return false
}

// Expired reports whether the wait ended because the budget ran out.
func (w *Waiter) Expired() bool {
	return w != nil && w.expired
}

// Elapsed reports the seconds spent waiting.
func (w *Waiter) Elapsed() float64 {
	if w == nil {
		return 0
	}
	return w.elapsed
}
