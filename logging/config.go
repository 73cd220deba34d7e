package logging

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Names of the sinks the runtime knows how to build.
const (
	SinkConsole = "console"
	SinkJSON    = "json"
)

// Config selects sinks and filtering for the Router.
type Config struct {
	EnabledSinks    []string
	BufferSize      int
	MinimumSeverity Severity
	// Fields are merged into every event's Extra.
	Fields  map[string]any
	JSON    JSONConfig
	Console ConsoleConfig
	// WarnInterval rate-limits the router's own drop and failure reports.
	WarnInterval time.Duration
}

// JSONConfig targets the newline-delimited JSON sink. An empty FilePath
// writes to the process output.
type JSONConfig struct {
	FilePath      string
	FlushInterval time.Duration
}

type ConsoleConfig struct {
	UseColor bool
}

// DefaultConfig logs info and above to the console.
func DefaultConfig() Config {
	return Config{
		EnabledSinks:    []string{SinkConsole},
		BufferSize:      512,
		MinimumSeverity: SeverityInfo,
		WarnInterval:    5 * time.Second,
		JSON:            JSONConfig{FlushInterval: 2 * time.Second},
	}
}

// KnownSink reports whether name is a sink the runtime can build.
func KnownSink(name string) bool {
	return name == SinkConsole || name == SinkJSON
}

// ParseSeverity maps a severity name to its level. Empty means info.
func ParseSeverity(raw string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return SeverityDebug, nil
	case "", "info":
		return SeverityInfo, nil
	case "warn", "warning":
		return SeverityWarn, nil
	case "error":
		return SeverityError, nil
	default:
		return SeverityInfo, fmt.Errorf("unknown severity %q", raw)
	}
}

// String returns the lower-case severity name.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

func (c Config) HasSink(name string) bool {
	return slices.Contains(c.EnabledSinks, name)
}
