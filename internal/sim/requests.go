package sim

import (
	"sync"
	"time"
)

const (
	requestBufferOccupancyMetricKey = "sim_request_buffer_occupancy"
	requestBufferOverflowMetricKey  = "sim_request_buffer_overflow_total"
)

// Request is a user utterance waiting for the next tick. Seq numbers
// accepted requests from 1 in arrival order.
type Request struct {
	Seq        uint64
	Text       string
	ReceivedAt time.Time
}

// RequestBuffer holds at most capacity requests between ticks. Producers may
// push from any goroutine; the tick thread drains.
type RequestBuffer struct {
	mu       sync.Mutex
	pending  []Request
	spare    []Request
	capacity int
	seq      uint64
	metrics  metricsSink
}

type metricsSink interface {
	Add(string, uint64)
	Store(string, uint64)
}

func NewRequestBuffer(capacity int, metrics metricsSink) *RequestBuffer {
	capacity = max(capacity, 1)
	return &RequestBuffer{
		pending:  make([]Request, 0, capacity),
		spare:    make([]Request, 0, capacity),
		capacity: capacity,
		metrics:  metrics,
	}
}

func (b *RequestBuffer) Capacity() int {
	if b == nil {
		return 0
	}
	return b.capacity
}

// Push stamps req with the next sequence number and stages it. It reports
// false without staging when the buffer is full.
func (b *RequestBuffer) Push(req Request) bool {
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) >= b.capacity {
		if b.metrics != nil {
			b.metrics.Add(requestBufferOverflowMetricKey, 1)
		}
		return false
	}
	b.seq++
	req.Seq = b.seq
	b.pending = append(b.pending, req)
	b.report()
	return true
}

// Drain hands over everything staged, oldest first, or nil when empty. The
// returned slice is reused by the next Drain.
func (b *RequestBuffer) Drain() []Request {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return nil
	}
	out := b.pending
	clear(b.spare)
	b.pending, b.spare = b.spare[:0], out
	b.report()
	return out
}

func (b *RequestBuffer) Len() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *RequestBuffer) report() {
	if b.metrics != nil {
		b.metrics.Store(requestBufferOccupancyMetricKey, uint64(len(b.pending)))
	}
}
