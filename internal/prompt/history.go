package prompt

// DefaultHistorySize is the number of user messages retained.
const DefaultHistorySize = 10

// History keeps the latest user messages, oldest first. The newest message
// is the request being composed and is excluded from Previous.
type History struct {
	max      int
	messages []string
}

// NewHistory constructs a history holding up to max messages.
func NewHistory(max int) *History {
	if max < 1 {
		max = DefaultHistorySize
	}
	return &History{max: max}
}

// Add appends a message and drops the oldest beyond the limit.
func (h *History) Add(msg string) {
	if h == nil {
		return
	}
	h.messages = append(h.messages, msg)
	if over := len(h.messages) - h.max; over > 0 {
		h.messages = append(h.messages[:0], h.messages[over:]...)
	}
}

// Previous returns every retained message except the newest.
func (h *History) Previous() []string {
	if h == nil || len(h.messages) < 2 {
		return nil
	}
	prev := h.messages[:len(h.messages)-1]
	return append([]string(nil), prev...)
}

// Len reports the number of retained messages.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.messages)
}
