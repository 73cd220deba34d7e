package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SNeC-Lab-PSU/LLMER/internal/scene"
)

// ErrInvalidAction indicates an animation object that cannot be executed.
var ErrInvalidAction = errors.New("command: invalid action")

// ActionKind names an animation action.
type ActionKind string

const (
	ActionAttach        ActionKind = "attach"
	ActionDetach        ActionKind = "detach"
	ActionScale         ActionKind = "scale"
	ActionColor         ActionKind = "color"
	ActionMoveTowards   ActionKind = "movetowards"
	ActionRotateTowards ActionKind = "rotatetowards"
	ActionLookTowards   ActionKind = "looktowards"
	ActionCatch         ActionKind = "catch"
	ActionSelfRotate    ActionKind = "selfrotate"
	ActionOrbit         ActionKind = "orbit"
	ActionGazing        ActionKind = "gazing"
	ActionStop          ActionKind = "stop"
	ActionRemove        ActionKind = "remove"
	ActionGrabbable     ActionKind = "grabbable"
)

// ActionKinds lists every supported action.
var ActionKinds = []ActionKind{
	ActionAttach,
	ActionDetach,
	ActionScale,
	ActionColor,
	ActionMoveTowards,
	ActionRotateTowards,
	ActionLookTowards,
	ActionCatch,
	ActionSelfRotate,
	ActionOrbit,
	ActionGazing,
	ActionStop,
	ActionRemove,
	ActionGrabbable,
}

// Defaults applied when an action omits a value.
const (
	DefaultFadeSeconds    = 1.0
	DefaultSpeedMov       = 1.0
	DefaultSpeedRot       = 90.0
	DefaultOrbitSpeedRot  = 20.0
	DefaultDistance       = 1.0
	DefaultCatchSafeBound = -1.0
	Unbounded             = -1.0
)

// Action is a validated animation object. Optional vectors are nil when
// absent; scalar fields already carry their defaults.
type Action struct {
	Kind          ActionKind
	Object        string
	ID            string
	NewObjectName string
	Target        string

	// Time is the fade duration for scale and color, and the run budget for
	// selfrotate, orbit and gazing where Unbounded means no limit.
	Time           float64
	Scale          *scene.Vec3
	Color          *scene.Vec3
	Position       *scene.Vec3
	LocalPosition  *scene.Vec3
	LocalDirection *scene.Vec3
	Orientation    *scene.Vec3
	Axis           scene.Vec3
	Distance       float64
	// SafeBound is nil when no clearance was requested. A negative value
	// derives the clearance from the target's bounds.
	SafeBound *float64
	SpeedRot  float64
	SpeedMov  float64
}

type rawAction struct {
	Action         string      `mapstructure:"action"`
	Object         string      `mapstructure:"object"`
	ID             string      `mapstructure:"id"`
	NewObjectName  string      `mapstructure:"newobjectname"`
	Time           *float64    `mapstructure:"time"`
	Target         string      `mapstructure:"target"`
	Scale          *scene.Vec3 `mapstructure:"scale"`
	Color          *scene.Vec3 `mapstructure:"color"`
	Position       *scene.Vec3 `mapstructure:"position"`
	LocalPosition  *scene.Vec3 `mapstructure:"localposition"`
	LocalDirection *scene.Vec3 `mapstructure:"localdirection"`
	Distance       *float64    `mapstructure:"distance"`
	SafeBound      *float64    `mapstructure:"safebound"`
	Orientation    *scene.Vec3 `mapstructure:"orientation"`
	Axis           *scene.Vec3 `mapstructure:"axis"`
	SpeedRot       *float64    `mapstructure:"speedRot"`
	SpeedMov       *float64    `mapstructure:"speedMov"`
}

// ParseAction decodes the first animation object in text.
func ParseAction(text string) (Action, error) {
	raw, err := ExtractObject(text)
	if err != nil {
		return Action{}, err
	}
	return ActionFromMap(raw)
}

// ParseActions decodes every animation object in text. Objects that fail
// to decode are reported in errs and do not stop the others.
func ParseActions(text string) (actions []Action, errs []error) {
	blocks := ExtractBlocks(text)
	if len(blocks) == 0 {
		return nil, []error{ErrNoStructuredBlock}
	}
	for _, block := range blocks {
		raw, err := DecodeObject(block)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		action, err := ActionFromMap(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		actions = append(actions, action)
	}
	return actions, errs
}

// ActionFromMap validates a parsed animation object and fills defaults.
func ActionFromMap(raw map[string]any) (Action, error) {
	var r rawAction
	if err := decodeInto(raw, &r); err != nil {
		return Action{}, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	kind := ActionKind(strings.ToLower(strings.TrimSpace(r.Action)))
	if !kind.Valid() {
		return Action{}, fmt.Errorf("%w: unknown action %q", ErrInvalidAction, r.Action)
	}
	a := Action{
		Kind:           kind,
		Object:         strings.TrimSpace(r.Object),
		ID:             strings.TrimSpace(r.ID),
		NewObjectName:  strings.TrimSpace(r.NewObjectName),
		Target:         strings.TrimSpace(r.Target),
		Scale:          r.Scale,
		Color:          r.Color,
		Position:       r.Position,
		LocalPosition:  r.LocalPosition,
		LocalDirection: r.LocalDirection,
		Orientation:    r.Orientation,
		SafeBound:      r.SafeBound,
		Distance:       orDefault(r.Distance, DefaultDistance),
		SpeedMov:       positiveOr(r.SpeedMov, DefaultSpeedMov),
		SpeedRot:       positiveOr(r.SpeedRot, DefaultSpeedRot),
		Axis:           scene.Up,
	}
	if r.Axis != nil && r.Axis.Length() > 0 {
		a.Axis = *r.Axis
	}

	switch kind {
	case ActionScale, ActionColor:
		a.Time = orDefault(r.Time, DefaultFadeSeconds)
	case ActionSelfRotate, ActionOrbit, ActionGazing:
		a.Time = orDefault(r.Time, Unbounded)
	default:
		a.Time = orDefault(r.Time, 0)
	}
	if kind == ActionOrbit {
		a.SpeedRot = positiveOr(r.SpeedRot, DefaultOrbitSpeedRot)
	}
	if kind == ActionCatch && a.SafeBound == nil {
		sb := DefaultCatchSafeBound
		a.SafeBound = &sb
	}

	if err := a.validate(); err != nil {
		return Action{}, err
	}
	return a, nil
}

func (a Action) validate() error {
	missing := func(field string) error {
		return fmt.Errorf("%w: %s requires %s", ErrInvalidAction, a.Kind, field)
	}
	if a.Object == "" && a.Kind != ActionStop {
		return missing("object")
	}
	switch a.Kind {
	case ActionAttach, ActionCatch, ActionOrbit, ActionGazing:
		if a.Target == "" {
			return missing("target")
		}
	case ActionScale:
		if a.Scale == nil {
			return missing("scale")
		}
	case ActionColor:
		if a.Color == nil {
			return missing("color")
		}
	case ActionRotateTowards:
		if a.Orientation == nil {
			return missing("orientation")
		}
	case ActionStop:
		if a.ID == "" {
			return missing("id")
		}
	}
	return nil
}

// Valid reports whether k is a supported action.
func (k ActionKind) Valid() bool {
	for _, known := range ActionKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Blocking reports whether the action occupies the scheduler's sequencing
// lane until it finishes.
func (k ActionKind) Blocking() bool {
	switch k {
	case ActionMoveTowards, ActionRotateTowards, ActionLookTowards, ActionScale, ActionColor, ActionCatch:
		return true
	}
	return false
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func positiveOr(v *float64, def float64) float64 {
	if v == nil || *v <= 0 {
		return def
	}
	return *v
}
