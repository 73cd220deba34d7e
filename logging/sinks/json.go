package sinks

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/SNeC-Lab-PSU/LLMER/logging"
)

// JSON emits one JSON object per line.
type JSON struct {
	mu      sync.Mutex
	buf     *bufio.Writer
	enc     *json.Encoder
	owned   io.Closer
	every   time.Duration
	stop    chan struct{}
	stopped sync.Once
}

// NewJSON writes to w without taking ownership of it. A positive
// flushInterval batches writes; otherwise every event is flushed.
func NewJSON(w io.Writer, flushInterval time.Duration) *JSON {
	if w == nil {
		w = io.Discard
	}
	s := &JSON{buf: bufio.NewWriter(w), every: flushInterval, stop: make(chan struct{})}
	s.enc = json.NewEncoder(s.buf)
	if flushInterval > 0 {
		go s.flushLoop()
	}
	return s
}

// NewJSONFile appends to path, creating it when missing. Close closes the
// file.
func NewJSONFile(path string, flushInterval time.Duration) (*JSON, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open json log: %w", err)
	}
	s := NewJSON(file, flushInterval)
	s.owned = file
	return s, nil
}

func (s *JSON) Write(event logging.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(event); err != nil {
		return err
	}
	if s.every <= 0 {
		return s.buf.Flush()
	}
	return nil
}

// Close stops the flusher, flushes buffered events and closes an owned file.
func (s *JSON) Close(context.Context) error {
	s.stopped.Do(func() { close(s.stop) })
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.buf.Flush()
	if s.owned != nil {
		if cerr := s.owned.Close(); err == nil {
			err = cerr
		}
		s.owned = nil
	}
	return err
}

func (s *JSON) flushLoop() {
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			_ = s.buf.Flush()
			s.mu.Unlock()
		}
	}
}
