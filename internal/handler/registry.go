// Package handler hosts the specialized conversation handlers and the
// registry that constructs them on demand.
package handler

import (
	"context"
	"fmt"
	"sync"

	"github.com/soyeahso/maitred/internal/logging"
)

// Handler answers a user message for one area of the restaurant's business.
type Handler interface {
	// Name returns the handler's registry identifier.
	Name() string

	// Respond produces a reply for the user's message. meta carries
	// request-scoped context such as the user id and recent turns.
	Respond(ctx context.Context, text string, meta map[string]string) (string, error)
}

// Closer is implemented by handlers that hold resources.
type Closer interface {
	Close() error
}

// Factory builds a handler. Called at most once per registered name.
type Factory func() (Handler, error)

type descriptor struct {
	factory Factory
	once    sync.Once
	handler Handler
	err     error
}

// Registry maps handler names to lazily-constructed handlers. Construction
// is single-flight per name; a construction failure is memoized.
type Registry struct {
	mu   sync.RWMutex
	desc map[string]*descriptor
	log  *logging.Logger
}

// NewRegistry creates an empty handler registry.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		desc: make(map[string]*descriptor),
		log:  log.Sub("handler"),
	}
}

// RegisterFactory registers a handler factory under name. Registering the
// same name twice is an error.
func (r *Registry) RegisterFactory(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("handler name is empty")
	}
	if factory == nil {
		return fmt.Errorf("handler %q: nil factory", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.desc[name]; exists {
		return fmt.Errorf("handler %q already registered", name)
	}
	r.desc[name] = &descriptor{factory: factory}
	r.log.Debug().Str("name", name).Msg("handler registered")
	return nil
}

// Get returns the handler for name, constructing it on first use.
func (r *Registry) Get(name string) (Handler, error) {
	r.mu.RLock()
	d, ok := r.desc[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown handler %q", name)
	}

	d.once.Do(func() {
		d.handler, d.err = d.factory()
		if d.err != nil {
			r.log.Error().Str("name", name).Err(d.err).Msg("handler construction failed")
			return
		}
		r.log.Info().Str("name", name).Msg("handler constructed")
	})
	if d.err != nil {
		return nil, fmt.Errorf("constructing handler %q: %w", name, d.err)
	}
	return d.handler, nil
}

// Names returns the registered handler names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.desc))
	for name := range r.desc {
		names = append(names, name)
	}
	return names
}

// InitializeAll eagerly constructs every registered handler, failing on the
// first construction error.
func (r *Registry) InitializeAll() error {
	for _, name := range r.Names() {
		if _, err := r.Get(name); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown closes every constructed handler and clears the registry.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, d := range r.desc {
		if d.handler == nil {
			continue
		}
		if c, ok := d.handler.(Closer); ok {
			if err := c.Close(); err != nil {
				r.log.Warn().Str("name", name).Err(err).Msg("handler close failed")
			}
		}
	}
	r.desc = make(map[string]*descriptor)
}
