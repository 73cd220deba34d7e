package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SNeC-Lab-PSU/LLMER/logging"
)

// ConsoleSink prints one human readable line per event:
//
//	15:04:05.000 WARN  dispatch.command_dropped tick=12 actor=agent:Robot reason=parse
type ConsoleSink struct {
	mu       sync.Mutex
	w        io.Writer
	useColor bool
}

func NewConsoleSink(w io.Writer, cfg logging.ConsoleConfig) *ConsoleSink {
	if w == nil {
		w = io.Discard
	}
	return &ConsoleSink{w: w, useColor: cfg.UseColor}
}

func (s *ConsoleSink) Write(event logging.Event) error {
	var b strings.Builder
	b.WriteString(event.Time.Format("15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString(s.level(event.Severity))
	b.WriteByte(' ')
	b.WriteString(string(event.Type))
	if event.Tick > 0 {
		fmt.Fprintf(&b, " tick=%d", event.Tick)
	}
	if actor := event.Actor.String(); actor != "" {
		b.WriteString(" actor=")
		b.WriteString(actor)
	}
	if len(event.Targets) > 0 {
		names := make([]string, len(event.Targets))
		for i, target := range event.Targets {
			names[i] = target.String()
		}
		b.WriteString(" targets=")
		b.WriteString(strings.Join(names, ","))
	}
	writeFields(&b, payloadFields(event.Payload))
	writeFields(&b, event.Extra)
	b.WriteByte('\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.w, b.String())
	return err
}

func (s *ConsoleSink) Close(context.Context) error {
	return nil
}

func (s *ConsoleSink) level(sev logging.Severity) string {
	label := fmt.Sprintf("%-5s", strings.ToUpper(sev.String()))
	if !s.useColor {
		return label
	}
	code := "0"
	switch sev {
	case logging.SeverityDebug:
		code = "90"
	case logging.SeverityWarn:
		code = "33"
	case logging.SeverityError:
		code = "31"
	}
	return "\x1b[" + code + "m" + label + "\x1b[0m"
}

// payloadFields flattens a struct payload into its JSON fields so they print
// as key=value pairs. Non-object payloads print under "payload".
func payloadFields(payload any) map[string]any {
	if payload == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return map[string]any{"payload": fmt.Sprint(payload)}
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return map[string]any{"payload": string(data)}
	}
	return fields
}

func writeFields(b *strings.Builder, fields map[string]any) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%s", k, formatValue(fields[k]))
	}
}

func formatValue(v any) string {
	switch value := v.(type) {
	case string:
		if value == "" || strings.ContainsAny(value, " \t\n\"=") {
			return fmt.Sprintf("%q", value)
		}
		return value
	case time.Duration:
		return value.String()
	case nil:
		return "null"
	case map[string]any, []any:
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}
		return string(data)
	default:
		return fmt.Sprint(value)
	}
}
