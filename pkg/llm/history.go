package llm

import "sync"

// DefaultMaxMessages bounds conversation history when no limit is given.
const DefaultMaxMessages = 20

// History is a bounded, ordered conversation transcript.
//
// Appends evict the oldest entry once the bound is exceeded, on every
// append. With PinFirst set (the default) the first entry survives
// eviction, so system instructions inserted up front outlive long
// conversations; disable it to get strict FIFO across all entries.
type History struct {
	mu       sync.Mutex
	entries  []Message
	max      int
	pinFirst bool
}

// HistoryOption configures a History.
type HistoryOption func(*History)

// WithoutPin disables first-entry pinning, making eviction strict FIFO.
func WithoutPin() HistoryOption {
	return func(h *History) { h.pinFirst = false }
}

// NewHistory creates a history bounded to max entries.
// A max of zero or less falls back to DefaultMaxMessages.
func NewHistory(max int, opts ...HistoryOption) *History {
	if max <= 0 {
		max = DefaultMaxMessages
	}
	h := &History{max: max, pinFirst: true}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Append adds a message, evicting the oldest evictable entry if the
// bound is exceeded.
func (h *History) Append(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, msg)
	for len(h.entries) > h.max {
		if h.pinFirst && len(h.entries) > 1 {
			h.entries = append(h.entries[:1], h.entries[2:]...)
		} else {
			h.entries = h.entries[1:]
		}
	}
}

// SetInstructions places system instructions at the front of the
// transcript, replacing any existing ones.
func (h *History) SetInstructions(instructions string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := NewSystemMessage(instructions)
	if len(h.entries) > 0 && h.entries[0].Role == RoleSystem {
		h.entries[0] = msg
		return
	}
	h.entries = append([]Message{msg}, h.entries...)
}

// SetWelcome seeds the transcript with an assistant greeting, so the
// model knows it already said hello.
func (h *History) SetWelcome(welcome string) {
	h.Append(NewAssistantMessage(welcome))
}

// Snapshot returns a copy of the current transcript.
func (h *History) Snapshot() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Message, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Clear removes all entries.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}
