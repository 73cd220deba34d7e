package command

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownCommandType indicates a routing object whose commandType is
	// missing or unrecognised.
	ErrUnknownCommandType = errors.New("command: unknown command type")
	// ErrInvalidInteraction indicates an mrinteraction command without a
	// recognised sub-type.
	ErrInvalidInteraction = errors.New("command: invalid interaction type")
)

// Kind discriminates routing commands.
type Kind uint8

const (
	KindEnvironment Kind = iota + 1
	KindAnimation
	KindInteraction
	KindEndOfAction
)

func (k Kind) String() string {
	switch k {
	case KindEnvironment:
		return "environment"
	case KindAnimation:
		return "animation"
	case KindInteraction:
		return "mrinteraction"
	case KindEndOfAction:
		return "-1"
	default:
		return "unknown"
	}
}

// Command is the tagged union produced by ParseRouting.
type Command interface {
	Kind() Kind
}

// Flags select which context blocks accompany a composed turn.
type Flags struct {
	Robot         bool `mapstructure:"robot" json:"robot,omitempty"`
	Scene         bool `mapstructure:"scene" json:"scene,omitempty"`
	User          bool `mapstructure:"user" json:"user,omitempty"`
	Resource      bool `mapstructure:"resource" json:"resource,omitempty"`
	AnimationData bool `mapstructure:"animationData" json:"animationData,omitempty"`
	Position      bool `mapstructure:"position" json:"position,omitempty"`
	Orientation   bool `mapstructure:"orientation" json:"orientation,omitempty"`
	Scale         bool `mapstructure:"scale" json:"scale,omitempty"`
	Size          bool `mapstructure:"size" json:"size,omitempty"`
}

// Map lists the enabled flags by wire name.
func (f Flags) Map() map[string]bool {
	out := make(map[string]bool)
	set := func(name string, on bool) {
		if on {
			out[name] = true
		}
	}
	set("robot", f.Robot)
	set("scene", f.Scene)
	set("user", f.User)
	set("resource", f.Resource)
	set("animationData", f.AnimationData)
	set("position", f.Position)
	set("orientation", f.Orientation)
	set("scale", f.Scale)
	set("size", f.Size)
	return out
}

// Environment asks for scene construction.
type Environment struct {
	Request  string
	ClearEnv bool
	Flags    Flags
}

func (Environment) Kind() Kind { return KindEnvironment }

// Animation asks for actions against existing entities.
type Animation struct {
	Request string
	Flags   Flags
}

func (Animation) Kind() Kind { return KindAnimation }

// InteractionType selects the drawing-surface operation.
type InteractionType string

const (
	InteractionRecognition InteractionType = "recognition"
	InteractionConversion  InteractionType = "conversion"
	InteractionClearance   InteractionType = "clearance"
)

// Interaction asks for an operation over the user's drawing surface.
type Interaction struct {
	Type    InteractionType
	Request string
}

func (Interaction) Kind() Kind { return KindInteraction }

// EndOfAction closes a construction burst.
type EndOfAction struct{}

func (EndOfAction) Kind() Kind { return KindEndOfAction }

type routing struct {
	CommandType string `mapstructure:"commandType"`
	Request     string `mapstructure:"request"`
	ClearEnv    bool   `mapstructure:"clearEnv"`
	MRType      string `mapstructure:"MRtype"`
	Flags       `mapstructure:",squash"`
}

// IsRouting reports whether text looks like a routing response.
func IsRouting(text string) bool {
	return strings.Contains(text, "commandType")
}

// ParseRouting decodes the first routing object in text.
func ParseRouting(text string) (Command, error) {
	raw, err := ExtractObject(text)
	if err != nil {
		return nil, err
	}
	return RoutingFromMap(raw)
}

// RoutingFromMap decodes an already parsed routing object.
func RoutingFromMap(raw map[string]any) (Command, error) {
	var r routing
	if err := decodeInto(raw, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedObject, err)
	}
	switch strings.ToLower(strings.TrimSpace(r.CommandType)) {
	case "environment":
		return Environment{Request: r.Request, ClearEnv: r.ClearEnv, Flags: r.Flags}, nil
	case "animation":
		return Animation{Request: r.Request, Flags: r.Flags}, nil
	case "mrinteraction":
		kind := InteractionType(strings.ToLower(strings.TrimSpace(r.MRType)))
		switch kind {
		case InteractionRecognition, InteractionConversion, InteractionClearance:
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidInteraction, r.MRType)
		}
		return Interaction{Type: kind, Request: r.Request}, nil
	case "-1":
		return EndOfAction{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommandType, r.CommandType)
	}
}
