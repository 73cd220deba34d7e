package protocol

import "sync"

const (
	frameQueueOccupancyMetricKey = "protocol_frame_queue_occupancy"
	frameQueueOverflowMetricKey  = "protocol_frame_queue_full_total"
)

type queueMetrics interface {
	Add(string, uint64)
	Store(string, uint64)
}

// FrameQueue stores received frames in a fixed-size ring. It is safe for a
// single producer (the receive loop) and a single consumer (the tick loop).
type FrameQueue struct {
	mu      sync.Mutex
	data    []Frame
	head    int
	tail    int
	count   int
	metrics queueMetrics
}

// NewFrameQueue constructs a ring with the provided capacity.
func NewFrameQueue(capacity int, metrics queueMetrics) *FrameQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &FrameQueue{
		data:    make([]Frame, capacity),
		metrics: metrics,
	}
}

// Capacity reports the maximum number of frames the queue can hold.
func (q *FrameQueue) Capacity() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}

// Push stages a frame, returning false if the queue is full.
func (q *FrameQueue) Push(frame Frame) bool {
	if q == nil {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == len(q.data) {
		if q.metrics != nil {
			q.metrics.Add(frameQueueOverflowMetricKey, 1)
		}
		return false
	}
	q.data[q.tail] = frame
	q.tail = (q.tail + 1) % len(q.data)
	q.count++
	q.storeOccupancyLocked()
	return true
}

// Drain returns all staged frames in wire order and clears the queue.
func (q *FrameQueue) Drain() []Frame {
	if q == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return nil
	}
	frames := make([]Frame, q.count)
	for i := 0; i < q.count; i++ {
		idx := (q.head + i) % len(q.data)
		frames[i] = q.data[idx]
		q.data[idx] = Frame{}
	}
	q.head = 0
	q.tail = 0
	q.count = 0
	q.storeOccupancyLocked()
	return frames
}

// Len reports the number of staged frames.
func (q *FrameQueue) Len() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

func (q *FrameQueue) storeOccupancyLocked() {
	if q.metrics == nil {
		return
	}
	q.metrics.Store(frameQueueOccupancyMetricKey, uint64(q.count))
}
