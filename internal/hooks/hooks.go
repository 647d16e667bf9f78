// Package hooks dispatches conversation lifecycle events so side concerns
// (notifications, audit trails) stay out of the orchestrator.
package hooks

import (
	"context"
	"sync"

	"github.com/soyeahso/maitred/internal/logging"
)

// Lifecycle event names.
const (
	EventMessageReceived = "message_received"
	EventResponseReady   = "response_ready"
	EventSessionCreated  = "session_created"
	EventSessionReset    = "session_reset"
	EventHandlerFailed   = "handler_failed"
	EventGatewayStart    = "gateway_start"
	EventGatewayStop     = "gateway_stop"
)

// Payload carries event data to listeners.
type Payload struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

// Listener handles one event. A returned error is logged and does not stop
// other listeners.
type Listener func(ctx context.Context, p Payload) error

// Manager holds listener registrations and dispatches events.
type Manager struct {
	mu        sync.RWMutex
	listeners map[string][]namedListener
	log       *logging.Logger
}

type namedListener struct {
	name     string
	listener Listener
}

// NewManager creates an empty hook manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		listeners: make(map[string][]namedListener),
		log:       log.Sub("hooks"),
	}
}

// On registers a listener for the event under a name used for logging and
// removal.
func (m *Manager) On(event, name string, l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners[event] = append(m.listeners[event], namedListener{name: name, listener: l})
	m.log.Debug().Str("event", event).Str("listener", name).Msg("hook registered")
}

// Off removes all listeners registered under name for the event.
func (m *Manager) Off(event, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.listeners[event][:0]
	for _, l := range m.listeners[event] {
		if l.name != name {
			kept = append(kept, l)
		}
	}
	m.listeners[event] = kept
}

// Emit dispatches the event to all listeners in registration order.
// A nil *Manager emits nothing.
func (m *Manager) Emit(ctx context.Context, event string, data map[string]any) {
	if m == nil {
		return
	}

	m.mu.RLock()
	listeners := make([]namedListener, len(m.listeners[event]))
	copy(listeners, m.listeners[event])
	m.mu.RUnlock()

	if len(listeners) == 0 {
		return
	}

	payload := Payload{Event: event, Data: data}
	for _, l := range listeners {
		if err := l.listener(ctx, payload); err != nil {
			m.log.Warn().Err(err).Str("event", event).Str("listener", l.name).
				Msg("hook listener error")
		}
	}
}
