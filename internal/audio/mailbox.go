// Package audio provides the microphone capture pipeline: a background
// pump that fills fixed-size PCM buffers and a single-slot mailbox handing
// the latest complete buffer to the engine. The mailbox is deliberately
// not a queue: under producer/consumer rate mismatch the most recent
// buffer wins and unread older buffers are discarded.
package audio

import "sync"

// Mailbox is a single-slot, most-recent-wins handoff for PCM buffers. It
// is the only cross-thread shared mutable state between the capture
// context and the engine; the critical section is copy-in/copy-out only.
type Mailbox struct {
	mu    sync.Mutex
	buf   []int16
	ready bool
}

// NewMailbox creates an empty Mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Publish stores a copy of a complete buffer, replacing any unread one.
func (m *Mailbox) Publish(pcm []int16) {
	cp := make([]int16, len(pcm))
	copy(cp, pcm)

	m.mu.Lock()
	m.buf = cp
	m.ready = true
	m.mu.Unlock()
}

// Take returns the latest buffer and clears the slot. ok is false when no
// unread buffer exists; the caller then reuses its prior snapshot. A
// missed handoff is not an error.
func (m *Mailbox) Take() (pcm []int16, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return nil, false
	}
	m.ready = false
	return m.buf, true
}
