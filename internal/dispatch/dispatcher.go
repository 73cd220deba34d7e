// Package dispatch routes backend responses to the scene constructor, the
// animation scheduler and the interaction collaborators, and composes the
// turns sent back to the backend.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SNeC-Lab-PSU/LLMER/internal/command"
	"github.com/SNeC-Lab-PSU/LLMER/internal/gate"
	"github.com/SNeC-Lab-PSU/LLMER/internal/prompt"
	"github.com/SNeC-Lab-PSU/LLMER/internal/protocol"
	"github.com/SNeC-Lab-PSU/LLMER/internal/scene"
	"github.com/SNeC-Lab-PSU/LLMER/internal/telemetry"
	"github.com/SNeC-Lab-PSU/LLMER/logging"
	dispatchlog "github.com/SNeC-Lab-PSU/LLMER/logging/dispatch"
)

// DefaultConstructionWait bounds how long an animation turn waits for an
// idle construction gate, in seconds.
const DefaultConstructionWait = 10.0

const (
	framesMetricKey       = "dispatch_frames_total"
	droppedMetricKey      = "dispatch_commands_dropped_total"
	turnsMetricKey        = "dispatch_turns_total"
	composedMetricKey     = "dispatch_turns_composed_total"
	pendingWaitsMetricKey = "dispatch_pending_waits"
	excerptLimit          = 120
)

// ErrNoRequest indicates a routing command without request text.
var ErrNoRequest = errors.New("dispatch: command has no request")

// Sender writes one frame to the backend.
type Sender interface {
	Send(role protocol.Role, payload []byte) error
}

// Constructor creates and tears down environment entities.
type Constructor interface {
	CreateEntity(ctx context.Context, tick uint64, obj command.EnvironmentObject) (scene.Entity, error)
	DestroyAll(ctx context.Context, tick uint64)
}

// Scheduler accepts structural animation commands.
type Scheduler interface {
	Enqueue(action command.Action)
}

// Config carries the dispatcher's tunables and ambient dependencies.
type Config struct {
	// ConstructionWait is the soft deadline, in seconds, for animation turns
	// waiting on the construction gate.
	ConstructionWait float64
	Publisher        logging.Publisher
	Metrics          telemetry.Metrics
	Clock            func() time.Time
}

// Deps carries the collaborators the dispatcher routes to. Surface and
// Speaker may be nil; the operations that need them are then dropped.
type Deps struct {
	Sender      Sender
	Gate        *gate.Gate
	Constructor Constructor
	Scheduler   Scheduler
	Composer    *prompt.Composer
	History     *prompt.History
	Surface     scene.SurfaceProvider
	Speaker     scene.Speaker
}

type pendingAnimation struct {
	command command.Animation
	waiter  *gate.Waiter
}

type turnStats struct {
	started  time.Time
	frames   int
	kinds    map[string]int
	commands []string
}

// Dispatcher consumes received frames on the tick loop. It is not safe for
// concurrent use.
type Dispatcher struct {
	cfg  Config
	deps Deps

	waits []pendingAnimation
	turn  turnStats
	tick  uint64
}

// New constructs a dispatcher.
func New(cfg Config, deps Deps) *Dispatcher {
	if cfg.ConstructionWait <= 0 {
		cfg.ConstructionWait = DefaultConstructionWait
	}
	if cfg.Publisher == nil {
		cfg.Publisher = logging.NopPublisher()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if deps.Composer == nil {
		deps.Composer = prompt.NewComposer(nil, deps.History)
	}
	return &Dispatcher{cfg: cfg, deps: deps}
}

// PendingWaits reports the animation turns still waiting on the gate.
func (d *Dispatcher) PendingWaits() int {
	if d == nil {
		return 0
	}
	return len(d.waits)
}

// HandleFrames routes frames in wire order.
func (d *Dispatcher) HandleFrames(ctx context.Context, tick uint64, frames []protocol.Frame) {
	for _, frame := range frames {
		d.HandleFrame(ctx, tick, frame)
	}
}

// HandleFrame routes one received frame by its kind. Nothing it does returns
// an error; failures are published and the frame is dropped.
func (d *Dispatcher) HandleFrame(ctx context.Context, tick uint64, frame protocol.Frame) {
	if d == nil {
		return
	}
	d.tick = tick
	d.recordFrame(frame.Role)

	text := strings.TrimSpace(frame.Text())
	switch frame.Role {
	case protocol.KindCommand:
		d.handleCommandText(ctx, text)
	case protocol.KindPrefab:
		d.handlePrefabText(ctx, text)
	case protocol.KindText:
		if text == "" {
			return
		}
		if d.deps.Speaker == nil {
			d.drop(ctx, "text", "no speaker", text)
			return
		}
		d.deps.Speaker.Speak(text)
	case protocol.KindAction:
		d.handleActionText(ctx, text)
	case protocol.KindEnd:
		d.completeTurn(ctx)
	default:
		d.drop(ctx, frame.Role.KindName(), "unknown frame kind", text)
	}
}

// Tick resumes animation turns whose gate wait has finished. Turns resume in
// the order they arrived.
func (d *Dispatcher) Tick(ctx context.Context, tick uint64, dt float64) {
	if d == nil || len(d.waits) == 0 {
		return
	}
	d.tick = tick
	remaining := d.waits[:0]
	for _, w := range d.waits {
		if !w.waiter.Poll(dt) {
			remaining = append(remaining, w)
			continue
		}
		d.resumeAnimation(ctx, w)
	}
	for i := len(remaining); i < len(d.waits); i++ {
		d.waits[i] = pendingAnimation{}
	}
	d.waits = remaining
	d.storeMetric(pendingWaitsMetricKey, uint64(len(d.waits)))
}

// SubmitRequest records a user request and sends the routing turn for it.
func (d *Dispatcher) SubmitRequest(ctx context.Context, tick uint64, text string) error {
	if d == nil {
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrNoRequest
	}
	d.tick = tick
	d.deps.History.Add(text)
	return d.sendTurn(ctx, "general", d.deps.Composer.General(text), nil)
}

// Route applies one parsed routing command.
func (d *Dispatcher) Route(ctx context.Context, cmd command.Command) {
	if d == nil || cmd == nil {
		return
	}
	d.turn.commands = append(d.turn.commands, cmd.Kind().String())
	switch c := cmd.(type) {
	case command.Environment:
		d.routeEnvironment(ctx, c)
	case command.Animation:
		d.routeAnimation(ctx, c)
	case command.Interaction:
		d.routeInteraction(ctx, c)
	case command.EndOfAction:
		d.endConstruction(ctx)
		d.routed(ctx, cmd.Kind(), "", command.Flags{})
	}
}

func (d *Dispatcher) handleCommandText(ctx context.Context, text string) {
	blocks := command.ExtractBlocks(text)
	if len(blocks) == 0 {
		d.drop(ctx, "command", command.ErrNoStructuredBlock.Error(), text)
		return
	}
	for _, block := range blocks {
		d.routeBlock(ctx, "command", block)
	}
}

func (d *Dispatcher) routeBlock(ctx context.Context, kind, block string) {
	raw, err := command.DecodeObject(block)
	if err != nil {
		d.drop(ctx, kind, err.Error(), block)
		return
	}
	cmd, err := command.RoutingFromMap(raw)
	if err != nil {
		d.drop(ctx, kind, err.Error(), block)
		return
	}
	d.Route(ctx, cmd)
}

func (d *Dispatcher) handlePrefabText(ctx context.Context, text string) {
	blocks := command.ExtractBlocks(text)
	if len(blocks) == 0 {
		d.drop(ctx, "prefab", command.ErrNoStructuredBlock.Error(), text)
		return
	}
	for _, block := range blocks {
		if command.IsRouting(block) {
			d.routeBlock(ctx, "prefab", block)
			continue
		}
		raw, err := command.DecodeObject(block)
		if err != nil {
			d.drop(ctx, "prefab", err.Error(), block)
			continue
		}
		obj, err := command.EnvironmentObjectFromMap(raw)
		if err != nil {
			d.drop(ctx, "prefab", err.Error(), block)
			continue
		}
		if d.deps.Constructor == nil {
			d.drop(ctx, "prefab", "no constructor", block)
			continue
		}
		// Rejections are published by the constructor.
		_, _ = d.deps.Constructor.CreateEntity(ctx, d.tick, obj)
	}
}

func (d *Dispatcher) handleActionText(ctx context.Context, text string) {
	actions, errs := command.ParseActions(text)
	for _, err := range errs {
		d.drop(ctx, "action", err.Error(), text)
	}
	if d.deps.Scheduler == nil {
		if len(actions) > 0 {
			d.drop(ctx, "action", "no scheduler", text)
		}
		return
	}
	for _, action := range actions {
		d.deps.Scheduler.Enqueue(action)
	}
}

func (d *Dispatcher) routeEnvironment(ctx context.Context, c command.Environment) {
	if c.ClearEnv && d.deps.Constructor != nil {
		d.deps.Constructor.DestroyAll(ctx, d.tick)
	}
	c.Flags.Resource = true
	c.Flags.Size = true
	d.routed(ctx, c.Kind(), c.Request, c.Flags)
	if strings.TrimSpace(c.Request) == "" {
		if !c.ClearEnv {
			d.drop(ctx, "command", ErrNoRequest.Error(), c.Kind().String())
		}
		return
	}
	d.beginConstruction(ctx)
	_ = d.sendTurn(ctx, c.Kind().String(), d.deps.Composer.Environment(c.Request, c.Flags), nil)
}

func (d *Dispatcher) routeAnimation(ctx context.Context, c command.Animation) {
	c.Flags.Scene = true
	c.Flags.AnimationData = true
	d.routed(ctx, c.Kind(), c.Request, c.Flags)
	if strings.TrimSpace(c.Request) == "" {
		d.drop(ctx, "command", ErrNoRequest.Error(), c.Kind().String())
		return
	}
	w := pendingAnimation{command: c, waiter: d.awaitIdle()}
	if w.waiter.Poll(0) {
		d.resumeAnimation(ctx, w)
		return
	}
	d.waits = append(d.waits, w)
	d.storeMetric(pendingWaitsMetricKey, uint64(len(d.waits)))
}

func (d *Dispatcher) awaitIdle() *gate.Waiter {
	if d.deps.Gate == nil {
		return nil
	}
	return d.deps.Gate.AwaitIdle(d.cfg.ConstructionWait)
}

func (d *Dispatcher) resumeAnimation(ctx context.Context, w pendingAnimation) {
	if w.waiter.Expired() {
		dispatchlog.GateWaitExpired(ctx, d.cfg.Publisher, d.tick, dispatchlog.GateWaitExpiredPayload{
			CommandType: w.command.Kind().String(),
			Waited:      w.waiter.Elapsed(),
		}, nil)
	}
	_ = d.sendTurn(ctx, w.command.Kind().String(), d.deps.Composer.Animation(w.command.Request, w.command.Flags), nil)
}

func (d *Dispatcher) routeInteraction(ctx context.Context, c command.Interaction) {
	d.routed(ctx, c.Kind(), c.Request, command.Flags{})
	if d.deps.Surface == nil {
		d.drop(ctx, "command", "no drawing surface", string(c.Type))
		return
	}
	if c.Type == command.InteractionClearance {
		if err := d.deps.Surface.Clear(); err != nil {
			d.drop(ctx, "command", err.Error(), string(c.Type))
		}
		return
	}
	image, err := d.deps.Surface.CaptureImage()
	if err != nil {
		d.drop(ctx, "command", fmt.Sprintf("capture surface: %v", err), string(c.Type))
		return
	}
	var turn prompt.Turn
	if c.Type == command.InteractionConversion {
		turn = d.deps.Composer.Conversion(c.Request)
	} else {
		turn = d.deps.Composer.Recognition(c.Request)
	}
	_ = d.sendTurn(ctx, string(c.Type), turn, image)
}

// sendTurn writes the System frame, the optional image frame and the User
// frame in that order, stopping at the first failure.
func (d *Dispatcher) sendTurn(ctx context.Context, commandType string, turn prompt.Turn, image []byte) error {
	if d.deps.Sender == nil {
		d.drop(ctx, "send", protocol.ErrUnavailable.Error(), commandType)
		return protocol.ErrUnavailable
	}
	if err := d.deps.Sender.Send(protocol.RoleSystem, []byte(turn.System)); err != nil {
		d.drop(ctx, "send", err.Error(), commandType)
		return err
	}
	if image != nil {
		if err := d.deps.Sender.Send(protocol.RoleImage, image); err != nil {
			d.drop(ctx, "send", err.Error(), commandType)
			return err
		}
	}
	if err := d.deps.Sender.Send(protocol.RoleUser, []byte(turn.User)); err != nil {
		d.drop(ctx, "send", err.Error(), commandType)
		return err
	}
	d.addMetric(composedMetricKey)
	dispatchlog.TurnComposed(ctx, d.cfg.Publisher, d.tick, dispatchlog.TurnComposedPayload{
		CommandType: commandType,
		SystemBytes: len(turn.System),
		UserBytes:   len(turn.User),
		ImageBytes:  len(image),
	}, nil)
	return nil
}

func (d *Dispatcher) beginConstruction(ctx context.Context) {
	if d.deps.Gate == nil {
		return
	}
	from := d.deps.Gate.State()
	d.deps.Gate.BeginConstruction()
	d.gateChanged(ctx, from)
}

func (d *Dispatcher) endConstruction(ctx context.Context) {
	if d.deps.Gate == nil {
		return
	}
	from := d.deps.Gate.State()
	d.deps.Gate.EndConstruction()
	d.gateChanged(ctx, from)
}

func (d *Dispatcher) gateChanged(ctx context.Context, from gate.State) {
	to := d.deps.Gate.State()
	if to == from {
		return
	}
	dispatchlog.GateChanged(ctx, d.cfg.Publisher, d.tick, dispatchlog.GateChangedPayload{
		From: from.String(),
		To:   to.String(),
	}, nil)
}

func (d *Dispatcher) recordFrame(role protocol.Role) {
	d.addMetric(framesMetricKey)
	if d.turn.frames == 0 {
		d.turn.started = d.cfg.Clock()
		d.turn.kinds = make(map[string]int)
	}
	d.turn.frames++
	d.turn.kinds[role.KindName()]++
}

func (d *Dispatcher) completeTurn(ctx context.Context) {
	stats := d.turn
	d.turn = turnStats{}
	d.addMetric(turnsMetricKey)
	dispatchlog.TurnCompleted(ctx, d.cfg.Publisher, d.tick, dispatchlog.TurnCompletedPayload{
		Frames:   stats.frames,
		Kinds:    stats.kinds,
		Commands: stats.commands,
		Seconds:  d.cfg.Clock().Sub(stats.started).Seconds(),
	}, nil)
}

func (d *Dispatcher) routed(ctx context.Context, kind command.Kind, request string, flags command.Flags) {
	dispatchlog.CommandRouted(ctx, d.cfg.Publisher, d.tick, dispatchlog.CommandRoutedPayload{
		CommandType: kind.String(),
		Request:     request,
		Flags:       flags.Map(),
	}, nil)
}

func (d *Dispatcher) drop(ctx context.Context, kind, reason, text string) {
	d.addMetric(droppedMetricKey)
	dispatchlog.CommandDropped(ctx, d.cfg.Publisher, d.tick, dispatchlog.CommandDroppedPayload{
		Kind:    kind,
		Reason:  reason,
		Excerpt: excerpt(text),
	}, nil)
}

func (d *Dispatcher) addMetric(key string) {
	if d.cfg.Metrics != nil {
		d.cfg.Metrics.Add(key, 1)
	}
}

func (d *Dispatcher) storeMetric(key string, value uint64) {
	if d.cfg.Metrics != nil {
		d.cfg.Metrics.Store(key, value)
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
