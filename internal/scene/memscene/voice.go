package memscene

import (
	"fmt"
	"io"
	"sync"
)

// Voice records spoken replies and echoes each to an optional writer.
type Voice struct {
	mu    sync.Mutex
	out   io.Writer
	lines []string
}

// NewVoice returns a voice writing "agent: <text>" lines to out. out may be
// nil.
func NewVoice(out io.Writer) *Voice {
	return &Voice{out: out}
}

// Speak implements scene.Speaker.
func (v *Voice) Speak(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lines = append(v.lines, text)
	if v.out != nil {
		fmt.Fprintf(v.out, "agent: %s\n", text)
	}
}

// Lines returns every reply spoken so far.
func (v *Voice) Lines() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.lines...)
}
