// Package encoder binds backends to output formats and owns the arena of
// live encoder instances addressed by domain.EncoderHandle.
package encoder

import (
	"errors"
	"fmt"
	"sync"

	"github.com/eleven-am/movierec/internal/domain"
)

var ErrFormatNotRegistered = errors.New("encoder: no backend registered for format")

// Registry maps an output format to the backend that writes it. The first
// backend registered for a format wins unless a later one is preferred.
type Registry struct {
	mu       sync.RWMutex
	backends map[domain.OutputFormat]domain.Backend
	order    []domain.OutputFormat
}

// NewRegistry registers backends in order, none of them preferred.
func NewRegistry(backends ...domain.Backend) *Registry {
	r := &Registry{backends: make(map[domain.OutputFormat]domain.Backend)}
	for _, b := range backends {
		r.Register(b, false)
	}
	return r
}

// Register binds b to every format it reports. A preferred backend replaces
// one already registered for the same format.
func (r *Registry) Register(b domain.Backend, preferred bool) {
	if b == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, format := range b.Formats() {
		if _, exists := r.backends[format]; exists && !preferred {
			continue
		} else if !exists {
			r.order = append(r.order, format)
		}
		r.backends[format] = b
	}
}

// Lookup returns the backend for format, or ErrFormatNotRegistered.
func (r *Registry) Lookup(format domain.OutputFormat) (domain.Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.backends[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFormatNotRegistered, format)
	}
	return b, nil
}

// Formats lists the registered formats in registration order.
func (r *Registry) Formats() []domain.OutputFormat {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.OutputFormat, len(r.order))
	copy(out, r.order)
	return out
}
