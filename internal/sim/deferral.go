package sim

// Deferrals holds work that must run after every task has stepped for the
// current tick. It is owned by the tick thread.
type Deferrals struct {
	queue []func()
}

// NewDeferrals returns an empty queue.
func NewDeferrals() *Deferrals {
	return &Deferrals{}
}

// Defer appends fn to the queue. Nil functions are ignored.
func (d *Deferrals) Defer(fn func()) {
	if d == nil || fn == nil {
		return
	}
	d.queue = append(d.queue, fn)
}

// Len reports the queued work items.
func (d *Deferrals) Len() int {
	if d == nil {
		return 0
	}
	return len(d.queue)
}

// Flush runs the queued work in the order it was deferred. Work deferred
// while flushing waits for the next flush.
func (d *Deferrals) Flush() int {
	if d == nil || len(d.queue) == 0 {
		return 0
	}
	batch := d.queue
	d.queue = nil
	for _, fn := range batch {
		fn()
	}
	return len(batch)
}
