// Package app wires configuration, logging, the backend channel, the tick
// loop and the status surface into one runtime.
package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SNeC-Lab-PSU/LLMER/internal/anim"
	"github.com/SNeC-Lab-PSU/LLMER/internal/config"
	"github.com/SNeC-Lab-PSU/LLMER/internal/construct"
	"github.com/SNeC-Lab-PSU/LLMER/internal/dispatch"
	"github.com/SNeC-Lab-PSU/LLMER/internal/gate"
	"github.com/SNeC-Lab-PSU/LLMER/internal/observability"
	"github.com/SNeC-Lab-PSU/LLMER/internal/prompt"
	"github.com/SNeC-Lab-PSU/LLMER/internal/protocol"
	"github.com/SNeC-Lab-PSU/LLMER/internal/resolver"
	"github.com/SNeC-Lab-PSU/LLMER/internal/scene/memscene"
	"github.com/SNeC-Lab-PSU/LLMER/internal/sim"
	"github.com/SNeC-Lab-PSU/LLMER/internal/telemetry"
	"github.com/SNeC-Lab-PSU/LLMER/logging"
	lifecyclelog "github.com/SNeC-Lab-PSU/LLMER/logging/lifecycle"
	protocollog "github.com/SNeC-Lab-PSU/LLMER/logging/protocol"
	loggingSinks "github.com/SNeC-Lab-PSU/LLMER/logging/sinks"
)

// DialFunc opens a transport to the backend.
type DialFunc func(ctx context.Context, address string, timeout time.Duration) (io.ReadWriteCloser, error)

// Config carries the runtime configuration and the process-level seams.
type Config struct {
	Runtime config.Config
	Logger  telemetry.Logger
	// Input supplies user requests one per line. Nil disables request
	// intake.
	Input io.Reader
	// Output receives spoken replies and console events. Nil selects stdout.
	Output io.Writer
	// Dial defaults to protocol.Dial.
	Dial DialFunc
}

// Runtime is a fully wired process.
type Runtime struct {
	cfg    config.Config
	logger telemetry.Logger
	input  io.Reader
	dial   DialFunc
	router *logging.Router

	Channel     *protocol.Channel
	Scene       *memscene.Scene
	Surface     *memscene.Surface
	Voice       *memscene.Voice
	Resolver    *resolver.Resolver
	Gate        *gate.Gate
	Scheduler   *anim.Scheduler
	Constructor *construct.Constructor
	Dispatcher  *dispatch.Dispatcher
	Loop        *sim.Loop
	Status      *observability.StatusBoard
	Metrics     *telemetry.Prometheus
	Counters    *logging.Metrics
}

// New builds every component without starting any goroutine except the
// logging router's workers.
func New(cfg Config) (*Runtime, error) {
	rc := cfg.Runtime
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.WrapLogger(log.Default())
	}
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	dial := cfg.Dial
	if dial == nil {
		dial = protocol.Dial
	}

	fallbackLogger := log.Default()
	if provider, ok := logger.(interface{ StandardLogger() *log.Logger }); ok {
		if candidate := provider.StandardLogger(); candidate != nil {
			fallbackLogger = candidate
		}
	}

	rt := &Runtime{cfg: rc, logger: logger, input: cfg.Input, dial: dial}

	routerCfg := rc.RouterConfig()
	var named []logging.NamedSink
	if routerCfg.HasSink(logging.SinkConsole) {
		named = append(named, logging.NamedSink{Name: logging.SinkConsole, Sink: loggingSinks.NewConsoleSink(output, routerCfg.Console)})
	}
	if routerCfg.HasSink(logging.SinkJSON) {
		var sink logging.Sink
		if path := routerCfg.JSON.FilePath; path != "" {
			file, err := loggingSinks.NewJSONFile(path, routerCfg.JSON.FlushInterval)
			if err != nil {
				return nil, err
			}
			sink = file
		} else {
			sink = loggingSinks.NewJSON(output, routerCfg.JSON.FlushInterval)
		}
		named = append(named, logging.NamedSink{Name: logging.SinkJSON, Sink: sink})
	}
	router, err := logging.NewRouter(logging.SystemClock{}, routerCfg, fallbackLogger, named)
	if err != nil {
		return nil, fmt.Errorf("failed to construct logging router: %w", err)
	}
	rt.router = router

	rt.Scene = memscene.New(rc.Scene.ViewpointName)
	if rc.Scene.SeedFile != "" {
		seeded, err := memscene.LoadSeedFile(rc.Scene.SeedFile)
		if err != nil {
			_ = router.Close(context.Background())
			return nil, err
		}
		rt.Scene = seeded
	}
	rt.Surface = memscene.NewSurface(rc.Scene.SurfaceImage)
	rt.Voice = memscene.NewVoice(output)

	rt.Metrics = telemetry.NewPrometheus("llmer")
	rt.Counters = &logging.Metrics{}
	metrics := telemetry.Fanout(rt.Metrics, telemetry.WrapMetrics(rt.Counters))

	rt.Channel = protocol.NewChannel(protocol.ChannelConfig{
		Framing:    rc.Framing(),
		Capacity:   rc.Loop.FrameCapacity,
		MaxPayload: rc.Backend.MaxPayload,
		Metrics:    metrics,
		Publisher:  router,
	})

	deferrals := sim.NewDeferrals()
	rt.Resolver = resolver.New(rt.Scene)
	rt.Gate = gate.New(nil)
	rt.Scheduler = anim.NewScheduler(anim.Config{
		AgentName: rc.Scene.AgentName,
		Publisher: router,
		Metrics:   metrics,
	}, rt.Resolver, rt.Scene, deferrals)
	rt.Constructor = construct.New(construct.Config{
		AgentName:       rc.Scene.AgentName,
		PlaceholderName: rc.Scene.PlaceholderName,
		Publisher:       router,
		Metrics:         metrics,
	}, rt.Scene, rt.Resolver, rt.Scheduler, deferrals)

	history := prompt.NewHistory(rc.Dispatch.HistorySize)
	builder := prompt.NewContextBuilder(prompt.ContextConfig{
		AgentName:       rc.Scene.AgentName,
		UserName:        rc.Scene.UserName,
		ViewpointName:   rc.Scene.ViewpointName,
		PlaceholderName: rc.Scene.PlaceholderName,
		Hands:           rc.Scene.Hands,
		Radius:          rc.Scene.Radius,
		UserHeight:      rc.Scene.UserHeight,
	}, rt.Scene, rt.Scene, rt.Resolver, rt.Scheduler, history)

	rt.Dispatcher = dispatch.New(dispatch.Config{
		ConstructionWait: rc.Dispatch.ConstructionWait.Seconds(),
		Publisher:        router,
		Metrics:          metrics,
	}, dispatch.Deps{
		Sender:      rt.Channel,
		Gate:        rt.Gate,
		Constructor: rt.Constructor,
		Scheduler:   rt.Scheduler,
		Composer:    prompt.NewComposer(builder, history),
		History:     history,
		Surface:     rt.Surface,
		Speaker:     rt.Voice,
	})

	rt.Status = observability.NewStatusBoard()
	rt.Loop = sim.NewLoop(&sim.CoreState{
		Frames:      rt.Channel,
		Dispatcher:  rt.Dispatcher,
		Constructor: rt.Constructor,
		Scheduler:   rt.Scheduler,
		Resolver:    rt.Resolver,
		Deferrals:   deferrals,
	}, sim.LoopConfig{
		TickRate:        rc.Loop.TickRate,
		CatchupMaxTicks: rc.Loop.CatchupMaxTicks,
		RequestCapacity: rc.Loop.RequestCapacity,
		Logger:          logger,
		Metrics:         metrics,
		Publisher:       router,
	}, sim.LoopHooks{
		AfterStep: rt.publishStatus,
	})
	return rt, nil
}

// publishStatus runs on the tick thread after every step.
func (rt *Runtime) publishStatus(result sim.LoopStepResult) {
	rt.Status.Store(observability.Status{
		Tick:            result.Tick,
		Gate:            rt.Gate.State().String(),
		Connected:       rt.Channel.Connected(),
		ActiveTasks:     rt.Scheduler.ActiveTaskNames(),
		PendingCommands: rt.Scheduler.Pending(),
		PendingWaits:    rt.Dispatcher.PendingWaits(),
		PendingFrames:   rt.Channel.Pending(),
		FramesReceived:  rt.Channel.Received(),
		TrackedEntities: rt.Constructor.Tracked(),
		KnownIDs:        rt.Resolver.Len(),
		UpdatedAt:       result.Now,
	})
}

// Run starts the backend connection, the tick loop, the status surface and
// request intake, and blocks until ctx is cancelled or one of them fails.
func (rt *Runtime) Run(ctx context.Context) error {
	defer rt.close()

	lifecyclelog.RuntimeStarted(ctx, rt.router, lifecyclelog.RuntimeStartedPayload{
		Backend:  rt.cfg.Backend.Address,
		Framing:  rt.cfg.Backend.Framing,
		TickRate: rt.cfg.Loop.TickRate,
		Listen:   rt.cfg.Observability.ListenAddr,
	}, nil)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rt.connect(ctx) })
	g.Go(func() error { return rt.Loop.Run(ctx) })

	if addr := rt.cfg.Observability.ListenAddr; addr != "" {
		handler := observability.NewHandler(rt.Status, observability.HandlerConfig{
			Metrics:     rt.Metrics.Handler(),
			EnablePprof: rt.cfg.Observability.EnablePprof,
			TickRate:    rt.cfg.Loop.TickRate,
			Counters:    rt.Counters.Snapshot,
		})
		g.Go(func() error { return observability.Serve(ctx, addr, handler, rt.logger) })
	}

	// Intake is not part of the group; a blocked read outlives ctx.
	if rt.input != nil {
		go rt.readRequests(ctx, rt.input)
	}

	err := g.Wait()
	reason := "cancelled"
	if err != nil {
		reason = err.Error()
	}
	lifecyclelog.RuntimeStopped(context.Background(), rt.router, lifecyclelog.RuntimeStoppedPayload{Reason: reason}, nil)
	if err != nil {
		return fmt.Errorf("runtime failed: %w", err)
	}
	return nil
}

// connect keeps one backend transport attached, re-dialling after the
// configured delay whenever it closes.
func (rt *Runtime) connect(ctx context.Context) error {
	backend := rt.cfg.Backend
	for attempt := 1; ; attempt++ {
		conn, err := rt.dial(ctx, backend.Address, backend.DialTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			lifecyclelog.DialFailed(ctx, rt.router, lifecyclelog.DialFailedPayload{
				Address: backend.Address,
				Attempt: attempt,
				Error:   err.Error(),
			}, nil)
		} else {
			attempt = 0
			rt.Channel.Attach(conn)
			protocollog.Connected(ctx, rt.router, protocollog.ConnectedPayload{
				Address: backend.Address,
				Framing: backend.Framing,
			}, nil)
			if err := rt.Channel.ReceiveLoop(ctx); err != nil {
				rt.logger.Printf("backend connection lost: %v", err)
			}
		}
		if ctx.Err() != nil {
			return nil
		}
		timer := time.NewTimer(backend.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (rt *Runtime) readRequests(ctx context.Context, input io.Reader) {
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if ok, reason := rt.Loop.Submit(ctx, line); !ok {
			rt.logger.Printf("request dropped (%s): %q", reason, line)
		}
	}
	if err := scanner.Err(); err != nil {
		rt.logger.Printf("request input failed: %v", err)
	}
}

func (rt *Runtime) close() {
	_ = rt.Channel.Close()
	if err := rt.router.Close(context.Background()); err != nil {
		rt.logger.Printf("failed to close logging router: %v", err)
	}
}

// Run builds a runtime from cfg and runs it until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	rt, err := New(cfg)
	if err != nil {
		return err
	}
	return rt.Run(ctx)
}
