package notify

import "sync"

// Level classifies a message for presentation.
type Level string

const (
	// LevelSuccess marks a completed operation.
	LevelSuccess Level = "success"

	// LevelError marks a failed operation.
	LevelError Level = "error"

	// LevelInfo marks a neutral status update.
	LevelInfo Level = "info"
)

// Message is one user-facing status message.
type Message struct {
	Level Level
	Text  string
}

// Handler consumes delivered messages.
type Handler func(Message)

// Mailbox is a capacity-1, last-write-wins message slot with an explicit
// register/unregister contract. The zero value is not usable; create one
// with New.
type Mailbox struct {
	mu      sync.Mutex
	pending *Message
	handler Handler
}

// New creates an empty mailbox with no handler registered.
func New() *Mailbox {
	return &Mailbox{}
}

// Publish delivers the message to the registered handler, or buffers it
// when none is registered. A buffered message is overwritten by the next
// publish; only the latest one survives until a handler arrives.
func (m *Mailbox) Publish(msg Message) {
	m.mu.Lock()
	handler := m.handler
	if handler == nil {
		m.pending = &msg
	}
	m.mu.Unlock()

	if handler != nil {
		handler(msg)
	}
}

// Register installs the handler and immediately delivers the buffered
// message, if any. It replaces any previously registered handler.
func (m *Mailbox) Register(handler Handler) {
	m.mu.Lock()
	m.handler = handler
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	if handler != nil && pending != nil {
		handler(*pending)
	}
}

// Unregister removes the handler. Later publishes buffer again.
func (m *Mailbox) Unregister() {
	m.mu.Lock()
	m.handler = nil
	m.mu.Unlock()
}
