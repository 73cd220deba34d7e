package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SNeC-Lab-PSU/LLMER/logging"
	protocollog "github.com/SNeC-Lab-PSU/LLMER/logging/protocol"
)

var (
	// ErrUnavailable indicates no transport is attached to the channel.
	ErrUnavailable = errors.New("protocol: channel unavailable")
	// ErrClosed indicates the attached transport has shut down.
	ErrClosed = errors.New("protocol: channel closed")
)

const (
	defaultQueueCapacity = 256
	pushRetryInterval    = 5 * time.Millisecond
)

// ChannelConfig controls framing and buffering for a Channel.
type ChannelConfig struct {
	Framing  Framing
	Capacity int
	// MaxPayload bounds each inbound payload; zero means DefaultMaxPayload.
	MaxPayload int
	Metrics    queueMetrics
	Publisher  logging.Publisher
}

type session struct {
	conn      io.ReadWriteCloser
	dec       *Decoder
	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
		s.conn.Close()
	})
}

// Channel exchanges frames with the backend over one attached transport at a
// time. Received frames accumulate in a FIFO that survives reattachment.
//
// Send performs no locking of its own: all sends must come from one
// goroutine. ReceiveLoop runs on its own goroutine and only writes to the
// FIFO.
type Channel struct {
	framing  Framing
	max      int
	queue    *FrameQueue
	pub      logging.Publisher
	current  atomic.Pointer[session]
	received atomic.Uint64
}

// NewChannel constructs a detached channel.
func NewChannel(cfg ChannelConfig) *Channel {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	framing := cfg.Framing
	if framing == "" {
		framing = FramingLength
	}
	return &Channel{
		framing: framing,
		max:     cfg.MaxPayload,
		queue:   NewFrameQueue(capacity, cfg.Metrics),
		pub:     cfg.Publisher,
	}
}

// Attach installs conn as the active transport, closing any previous one.
func (c *Channel) Attach(conn io.ReadWriteCloser) {
	if c == nil || conn == nil {
		return
	}
	next := &session{
		conn: conn,
		dec:  NewDecoder(conn, c.framing).LimitPayload(c.max),
		done: make(chan struct{}),
	}
	if prev := c.current.Swap(next); prev != nil {
		prev.close()
	}
}

// Connected reports whether an open transport is attached.
func (c *Channel) Connected() bool {
	if c == nil {
		return false
	}
	s := c.current.Load()
	return s != nil && !s.closed.Load()
}

// Done returns a channel closed when the current transport shuts down. It
// returns nil when no transport is attached.
func (c *Channel) Done() <-chan struct{} {
	if c == nil {
		return nil
	}
	s := c.current.Load()
	if s == nil {
		return nil
	}
	return s.done
}

// Send writes one complete frame with a single Write call.
func (c *Channel) Send(role Role, payload []byte) error {
	if c == nil {
		return ErrUnavailable
	}
	s := c.current.Load()
	if s == nil {
		return ErrUnavailable
	}
	if s.closed.Load() {
		return ErrClosed
	}
	data, err := Encode(role, payload)
	if err != nil {
		return err
	}
	if _, err := s.conn.Write(data); err != nil {
		protocollog.SendFailed(context.Background(), c.pub, 0, protocollog.SendFailedPayload{
			Role:   role.String(),
			Length: len(payload),
			Error:  err.Error(),
		}, nil)
		return fmt.Errorf("protocol: send %s: %w", role, err)
	}
	return nil
}

// SendText is Send for a string payload.
func (c *Channel) SendText(role Role, text string) error {
	return c.Send(role, []byte(text))
}

// ReceiveLoop decodes frames from the attached transport until it closes or
// ctx is cancelled. A clean end of stream or cancellation returns nil; any
// other failure marks the channel closed and is returned wrapped. Frames are
// never dropped: when the FIFO is full the loop waits for the consumer.
func (c *Channel) ReceiveLoop(ctx context.Context) error {
	if c == nil {
		return ErrUnavailable
	}
	s := c.current.Load()
	if s == nil {
		return ErrUnavailable
	}
	if s.closed.Load() {
		return ErrClosed
	}

	go func() {
		select {
		case <-ctx.Done():
			s.close()
		case <-s.done:
		}
	}()

	for {
		frame, err := s.dec.Next()
		if err != nil {
			s.close()
			reason := err.Error()
			if ctx.Err() != nil {
				reason = "cancelled"
			}
			protocollog.ChannelClosed(context.Background(), c.pub, protocollog.ChannelClosedPayload{
				Reason:   reason,
				Received: c.received.Load(),
			}, nil)
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("protocol: receive: %w", err)
		}
		c.received.Add(1)
		protocollog.FrameReceived(ctx, c.pub, protocollog.FramePayload{
			Role:   frame.Role.KindName(),
			Length: len(frame.Payload),
		}, nil)
		if !c.enqueue(ctx, s, frame) {
			return nil
		}
	}
}

func (c *Channel) enqueue(ctx context.Context, s *session, frame Frame) bool {
	for !c.queue.Push(frame) {
		timer := time.NewTimer(pushRetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.close()
			return false
		case <-timer.C:
		}
	}
	return true
}

// Drain returns every received frame in wire order.
func (c *Channel) Drain() []Frame {
	if c == nil {
		return nil
	}
	return c.queue.Drain()
}

// Pending reports the number of frames waiting in the FIFO.
func (c *Channel) Pending() int {
	if c == nil {
		return 0
	}
	return c.queue.Len()
}

// Received reports the number of frames decoded since construction.
func (c *Channel) Received() uint64 {
	if c == nil {
		return 0
	}
	return c.received.Load()
}

// Close shuts down the attached transport.
func (c *Channel) Close() error {
	if c == nil {
		return nil
	}
	if s := c.current.Load(); s != nil {
		s.close()
	}
	return nil
}
