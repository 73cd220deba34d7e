// Package sim drives the single-threaded tick loop that owns every piece of
// mutable runtime state.
package sim

import (
	"context"

	"github.com/SNeC-Lab-PSU/LLMER/internal/protocol"
)

// FrameSource yields the frames received since the last drain.
type FrameSource interface {
	Drain() []protocol.Frame
}

// Dispatcher consumes frames and user requests.
type Dispatcher interface {
	HandleFrames(ctx context.Context, tick uint64, frames []protocol.Frame)
	Tick(ctx context.Context, tick uint64, dt float64)
	SubmitRequest(ctx context.Context, tick uint64, text string) error
}

// Placeholder refreshes the default surface once per tick.
type Placeholder interface {
	UpdatePlaceholder()
}

// Animator steps the live animation tasks.
type Animator interface {
	Tick(ctx context.Context, tick uint64, dt float64)
}

// Registry forgets identifiers of destroyed entities.
type Registry interface {
	Prune() int
}

// CoreState groups the components mutated on the tick thread. Any field may
// be nil; the matching tick phase is then skipped.
type CoreState struct {
	Frames      FrameSource
	Dispatcher  Dispatcher
	Constructor Placeholder
	Scheduler   Animator
	Resolver    Registry
	Deferrals   *Deferrals
}

type phaseCounts struct {
	frames   int
	deferred int
	pruned   int
}

// step runs one tick in a fixed order: frames, gate waits, placeholder,
// tasks, deferred work, identifier pruning.
func (c *CoreState) step(ctx context.Context, tick uint64, dt float64) phaseCounts {
	var counts phaseCounts
	if c.Frames != nil {
		if frames := c.Frames.Drain(); len(frames) > 0 {
			counts.frames = len(frames)
			if c.Dispatcher != nil {
				c.Dispatcher.HandleFrames(ctx, tick, frames)
			}
		}
	}
	if c.Dispatcher != nil {
		c.Dispatcher.Tick(ctx, tick, dt)
	}
	if c.Constructor != nil {
		c.Constructor.UpdatePlaceholder()
	}
	if c.Scheduler != nil {
		c.Scheduler.Tick(ctx, tick, dt)
	}
	counts.deferred = c.Deferrals.Flush()
	if c.Resolver != nil {
		counts.pruned = c.Resolver.Prune()
	}
	return counts
}
