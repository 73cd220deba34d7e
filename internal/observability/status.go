package observability

import (
	"sync"
	"time"
)

// Status is a point-in-time copy of the tick thread's state. It is built on
// the tick thread and read by HTTP handlers.
type Status struct {
	Tick            uint64    `json:"tick"`
	Gate            string    `json:"gate"`
	Connected       bool      `json:"connected"`
	ActiveTasks     []string  `json:"activeTasks"`
	PendingCommands int       `json:"pendingCommands"`
	PendingWaits    int       `json:"pendingWaits"`
	PendingFrames   int       `json:"pendingFrames"`
	FramesReceived  uint64    `json:"framesReceived"`
	TrackedEntities int       `json:"trackedEntities"`
	KnownIDs        int       `json:"knownIds"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// StatusSource yields the latest status snapshot.
type StatusSource interface {
	Status() Status
}

// StatusBoard holds the latest snapshot. Store is called from the tick
// thread; Status from any goroutine.
type StatusBoard struct {
	mu     sync.RWMutex
	status Status
}

// NewStatusBoard returns an empty board.
func NewStatusBoard() *StatusBoard {
	return &StatusBoard{status: Status{Gate: "idle", ActiveTasks: []string{}}}
}

// Store replaces the snapshot. The task slice is copied.
func (b *StatusBoard) Store(status Status) {
	if b == nil {
		return
	}
	tasks := make([]string, len(status.ActiveTasks))
	copy(tasks, status.ActiveTasks)
	status.ActiveTasks = tasks
	b.mu.Lock()
	b.status = status
	b.mu.Unlock()
}

// Status returns a copy of the latest snapshot.
func (b *StatusBoard) Status() Status {
	if b == nil {
		return Status{ActiveTasks: []string{}}
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := b.status
	out.ActiveTasks = append([]string(nil), b.status.ActiveTasks...)
	if out.ActiveTasks == nil {
		out.ActiveTasks = []string{}
	}
	return out
}
