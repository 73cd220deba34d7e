// Package sinks provides the console, JSON and in-memory event sinks.
package sinks

import (
	"context"
	"sync"

	"github.com/SNeC-Lab-PSU/LLMER/logging"
)

// MemorySink retains every event. It is also a logging.Publisher, so tests
// can hand it to components directly and skip the asynchronous router.
type MemorySink struct {
	mu     sync.RWMutex
	events []logging.Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Publish(_ context.Context, event logging.Event) {
	_ = s.Write(event)
}

func (s *MemorySink) Write(event logging.Event) error {
	s.mu.Lock()
	s.events = append(s.events, event.Clone())
	s.mu.Unlock()
	return nil
}

// Events returns a copy of everything retained so far.
func (s *MemorySink) Events() []logging.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]logging.Event(nil), s.events...)
}

// OfType returns the retained events with the given type.
func (s *MemorySink) OfType(eventType logging.EventType) []logging.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []logging.Event
	for _, event := range s.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

func (s *MemorySink) Reset() {
	s.mu.Lock()
	s.events = nil
	s.mu.Unlock()
}

func (s *MemorySink) Close(context.Context) error {
	return nil
}
