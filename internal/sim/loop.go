package sim

import (
	"context"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/SNeC-Lab-PSU/LLMER/internal/telemetry"
	"github.com/SNeC-Lab-PSU/LLMER/logging"
	simlog "github.com/SNeC-Lab-PSU/LLMER/logging/simulation"
)

const (
	// DefaultTickRate is the loop frequency in ticks per second.
	DefaultTickRate = 60
	// DefaultRequestCapacity bounds requests staged between ticks.
	DefaultRequestCapacity = 32

	// RequestRejectQueueFull indicates the request buffer is saturated.
	RequestRejectQueueFull = "queue_full"
	// RequestRejectEmpty indicates a blank request.
	RequestRejectEmpty = "empty"

	tickMetricKey          = "sim_tick"
	requestsMetricKey      = "sim_requests_total"
	deferredMetricKey      = "sim_deferred_total"
	prunedMetricKey        = "sim_pruned_ids_total"
	budgetOverrunMetricKey = "sim_tick_budget_overruns_total"
	excerptLimit           = 80
)

// LoopConfig tunes the request buffer and tick loop orchestration.
type LoopConfig struct {
	TickRate        int
	CatchupMaxTicks int
	RequestCapacity int
	Logger          telemetry.Logger
	Metrics         telemetry.Metrics
	Publisher       logging.Publisher
	Clock           logging.Clock
}

// LoopTickContext describes the tick being advanced.
type LoopTickContext struct {
	Tick  uint64
	Now   time.Time
	Delta float64
}

// LoopStepResult summarises one advanced tick.
type LoopStepResult struct {
	Tick         uint64
	Now          time.Time
	Delta        float64
	Requests     int
	Frames       int
	Deferred     int
	Pruned       int
	Duration     time.Duration
	Budget       time.Duration
	ClampedDelta bool
	MaxDelta     float64
}

// LoopHooks observe the loop from the tick thread.
type LoopHooks struct {
	AfterStep     func(LoopStepResult)
	OnRequestDrop func(reason string, req Request)
}

type tickObserver interface {
	ObserveTick(time.Duration)
}

// Loop stages user requests from any goroutine and advances the core on a
// fixed timestep.
type Loop struct {
	core     *CoreState
	requests *RequestBuffer
	hooks    LoopHooks
	config   LoopConfig
	tick     atomic.Uint64
	streak   uint64
}

// NewLoop wraps core with a request queue and a ticker.
func NewLoop(core *CoreState, cfg LoopConfig, hooks LoopHooks) *Loop {
	if core == nil {
		return nil
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultTickRate
	}
	if cfg.RequestCapacity <= 0 {
		cfg.RequestCapacity = DefaultRequestCapacity
	}
	if cfg.Publisher == nil {
		cfg.Publisher = logging.NopPublisher()
	}
	if cfg.Clock == nil {
		cfg.Clock = logging.SystemClock{}
	}
	if core.Deferrals == nil {
		core.Deferrals = NewDeferrals()
	}
	return &Loop{
		core:     core,
		requests: NewRequestBuffer(cfg.RequestCapacity, cfg.Metrics),
		hooks:    hooks,
		config:   cfg,
	}
}

// Tick reports the last advanced tick. Safe from any goroutine.
func (l *Loop) Tick() uint64 {
	if l == nil {
		return 0
	}
	return l.tick.Load()
}

// Pending reports the number of staged requests.
func (l *Loop) Pending() int {
	if l == nil {
		return 0
	}
	return l.requests.Len()
}

// Submit stages a user request for the next tick. Safe from any goroutine.
func (l *Loop) Submit(ctx context.Context, text string) (bool, string) {
	if l == nil {
		return false, RequestRejectQueueFull
	}
	if text == "" {
		return false, RequestRejectEmpty
	}
	req := Request{Text: text, ReceivedAt: l.config.Clock.Now()}
	if !l.requests.Push(req) {
		simlog.RequestDropped(ctx, l.config.Publisher, l.Tick(), simlog.RequestPayload{
			Excerpt: excerpt(text),
			Reason:  RequestRejectQueueFull,
		}, nil)
		if l.hooks.OnRequestDrop != nil {
			l.hooks.OnRequestDrop(RequestRejectQueueFull, req)
		}
		return false, RequestRejectQueueFull
	}
	return true, ""
}

// Advance executes a single tick: staged requests first, then the core
// phases.
func (l *Loop) Advance(ctx context.Context, tc LoopTickContext) LoopStepResult {
	if l == nil {
		return LoopStepResult{}
	}
	l.tick.Store(tc.Tick)
	result := LoopStepResult{Tick: tc.Tick, Now: tc.Now, Delta: tc.Delta}

	requests := l.requests.Drain()
	result.Requests = len(requests)
	for _, req := range requests {
		if l.core.Dispatcher == nil {
			break
		}
		if err := l.core.Dispatcher.SubmitRequest(ctx, tc.Tick, req.Text); err != nil {
			simlog.RequestFailed(ctx, l.config.Publisher, tc.Tick, simlog.RequestPayload{
				Excerpt: excerpt(req.Text),
				Reason:  err.Error(),
			}, nil)
		}
	}

	counts := l.core.step(ctx, tc.Tick, tc.Delta)
	result.Frames = counts.frames
	result.Deferred = counts.deferred
	result.Pruned = counts.pruned

	l.store(tickMetricKey, tc.Tick)
	l.add(requestsMetricKey, uint64(result.Requests))
	l.add(deferredMetricKey, uint64(result.Deferred))
	l.add(prunedMetricKey, uint64(result.Pruned))
	return result
}

// Run drives the fixed-timestep loop until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	if l == nil {
		return nil
	}
	tickRate := l.config.TickRate
	budgetDuration := time.Second / time.Duration(tickRate)
	ticker := time.NewTicker(budgetDuration)
	defer ticker.Stop()

	clock := l.config.Clock
	last := clock.Now()
	budgetSeconds := 1.0 / float64(tickRate)
	maxDt := budgetSeconds
	if l.config.CatchupMaxTicks > 1 {
		maxDt = budgetSeconds * float64(l.config.CatchupMaxTicks)
	}

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := clock.Now()
			dt := now.Sub(last).Seconds()
			clamped := false
			if dt <= 0 {
				dt = budgetSeconds
			} else if dt > maxDt {
				dt = maxDt
				clamped = true
			}
			last = now
			tick++

			start := clock.Now()
			result := l.Advance(ctx, LoopTickContext{Tick: tick, Now: now, Delta: dt})
			result.Duration = clock.Now().Sub(start)
			result.Budget = budgetDuration
			result.ClampedDelta = clamped
			result.MaxDelta = maxDt
			l.observe(ctx, result)

			if l.hooks.AfterStep != nil {
				l.hooks.AfterStep(result)
			}
		}
	}
}

func (l *Loop) observe(ctx context.Context, result LoopStepResult) {
	if obs, ok := l.config.Metrics.(tickObserver); ok {
		obs.ObserveTick(result.Duration)
	}
	if result.Budget <= 0 || result.Duration <= result.Budget {
		l.streak = 0
		return
	}
	l.streak++
	l.add(budgetOverrunMetricKey, 1)
	simlog.TickBudgetOverrun(ctx, l.config.Publisher, result.Tick, simlog.TickBudgetOverrunPayload{
		DurationMillis: result.Duration.Milliseconds(),
		BudgetMillis:   result.Budget.Milliseconds(),
		Ratio:          float64(result.Duration) / float64(result.Budget),
		Streak:         l.streak,
	}, nil)
	// Power-of-two streaks only.
	if l.config.Logger != nil && l.streak&(l.streak-1) == 0 {
		l.config.Logger.Printf("[loop] tick %d took %s (budget %s, streak %d)", result.Tick, result.Duration, result.Budget, l.streak)
	}
}

func (l *Loop) add(key string, delta uint64) {
	if l.config.Metrics != nil && delta > 0 {
		l.config.Metrics.Add(key, delta)
	}
}

func (l *Loop) store(key string, value uint64) {
	if l.config.Metrics != nil {
		l.config.Metrics.Store(key, value)
	}
}

func excerpt(text string) string {
	if len(text) <= excerptLimit {
		return text
	}
	cut := excerptLimit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
