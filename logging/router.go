package logging

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Clock supplies event timestamps.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// Sink consumes routed events. Write is only ever called from the sink's
// own goroutine.
type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

type NamedSink struct {
	Name string
	Sink Sink
}

// Router fans published events out to sinks. Each sink has its own bounded
// backlog and goroutine; a slow sink loses events instead of stalling the
// publisher or the other sinks.
type Router struct {
	clock    Clock
	fallback *log.Logger
	min      Severity
	fields   map[string]any
	warn     time.Duration

	mu      sync.RWMutex
	closed  bool
	outlets []*outlet
	wg      sync.WaitGroup

	routed   atomic.Uint64
	filtered atomic.Uint64
}

// RouterStats totals router activity since construction.
type RouterStats struct {
	Routed   uint64               `json:"routed"`
	Filtered uint64               `json:"filtered"`
	Sinks    map[string]SinkStats `json:"sinks"`
}

// SinkStats counts what one sink lost.
type SinkStats struct {
	Written uint64 `json:"written"`
	Dropped uint64 `json:"dropped"`
	Failed  uint64 `json:"failed"`
}

type outlet struct {
	name    string
	sink    Sink
	backlog chan Event

	written  atomic.Uint64
	dropped  atomic.Uint64
	failed   atomic.Uint64
	nextWarn atomic.Int64
}

// NewRouter starts one goroutine per sink. fallback receives the router's
// own diagnostics; nil writes to stderr. Nil sinks are skipped.
func NewRouter(clock Clock, cfg Config, fallback *log.Logger, sinks []NamedSink) (*Router, error) {
	if clock == nil {
		clock = SystemClock{}
	}
	if fallback == nil {
		fallback = log.New(os.Stderr, "[logging] ", log.LstdFlags)
	}
	backlog := cfg.BufferSize
	if backlog <= 0 {
		backlog = DefaultConfig().BufferSize
	}
	warn := cfg.WarnInterval
	if warn <= 0 {
		warn = DefaultConfig().WarnInterval
	}
	r := &Router{
		clock:    clock,
		fallback: fallback,
		min:      cfg.MinimumSeverity,
		warn:     warn,
	}
	if len(cfg.Fields) > 0 {
		r.fields = make(map[string]any, len(cfg.Fields))
		for k, v := range cfg.Fields {
			r.fields[k] = v
		}
	}
	seen := make(map[string]bool, len(sinks))
	for _, named := range sinks {
		if named.Sink == nil {
			continue
		}
		if seen[named.Name] {
			return nil, errors.New("logging: duplicate sink " + named.Name)
		}
		seen[named.Name] = true
		o := &outlet{name: named.Name, sink: named.Sink, backlog: make(chan Event, backlog)}
		r.outlets = append(r.outlets, o)
		r.wg.Add(1)
		go r.drain(o)
	}
	return r, nil
}

func (r *Router) drain(o *outlet) {
	defer r.wg.Done()
	for event := range o.backlog {
		if err := o.sink.Write(event); err != nil {
			n := o.failed.Add(1)
			r.report(o, "sink %s write failed (%d total): %v", o.name, n, err)
			continue
		}
		o.written.Add(1)
	}
}

// report logs through the fallback at most once per warn interval per sink.
func (r *Router) report(o *outlet, format string, args ...any) {
	now := r.clock.Now().UnixNano()
	next := o.nextWarn.Load()
	if now < next {
		return
	}
	if o.nextWarn.CompareAndSwap(next, now+r.warn.Nanoseconds()) {
		r.fallback.Printf(format, args...)
	}
}

// Publish stamps and enqueues event on every sink. Events without a type,
// below the minimum severity, or published after Close are discarded.
func (r *Router) Publish(_ context.Context, event Event) {
	if r == nil || event.Type == "" {
		return
	}
	if event.Severity < r.min {
		r.filtered.Add(1)
		return
	}
	if event.Time.IsZero() {
		event.Time = r.clock.Now()
	}
	event = event.withDefaults(r.fields)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	r.routed.Add(1)
	for _, o := range r.outlets {
		select {
		case o.backlog <- event.Clone():
		default:
			n := o.dropped.Add(1)
			r.report(o, "sink %s backlog full, dropped %s (%d total)", o.name, event.Type, n)
		}
	}
}

// Close stops accepting events, lets every sink drain its backlog and then
// closes the sinks. Closing twice is a no-op.
func (r *Router) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	for _, o := range r.outlets {
		close(o.backlog)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	var errs []error
	for _, o := range r.outlets {
		if err := o.sink.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Router) Stats() RouterStats {
	if r == nil {
		return RouterStats{}
	}
	stats := RouterStats{
		Routed:   r.routed.Load(),
		Filtered: r.filtered.Load(),
		Sinks:    make(map[string]SinkStats, len(r.outlets)),
	}
	for _, o := range r.outlets {
		stats.Sinks[o.name] = SinkStats{
			Written: o.written.Load(),
			Dropped: o.dropped.Load(),
			Failed:  o.failed.Load(),
		}
	}
	return stats
}

// Sink returns the sink registered under name, or nil.
func (r *Router) Sink(name string) Sink {
	if r == nil {
		return nil
	}
	for _, o := range r.outlets {
		if o.name == name {
			return o.sink
		}
	}
	return nil
}

var _ Publisher = (*Router)(nil)
