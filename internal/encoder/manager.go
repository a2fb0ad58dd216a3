package encoder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/eleven-am/movierec/internal/domain"
)

var (
	ErrInvalidHandle      = errors.New("encoder: handle is not bound to an encoder")
	ErrAlreadyConstructed = errors.New("encoder: handle already has a live encoder")
	ErrNotConstructed     = errors.New("encoder: handle has no constructed encoder")
)

type slot struct {
	generation uint32
	live       bool
	backend    domain.Backend
	instance   domain.Instance
	path       string
}

// Manager is an arena of encoder slots. A handle names a slot index and the
// generation it was issued for, so a stale handle never reaches the slot's
// next occupant. A slot is reused only after Destroy.
type Manager struct {
	mu     sync.Mutex
	slots  []slot
	free   []int
	logger hclog.Logger
}

// NewManager returns an empty arena. A nil logger discards output.
func NewManager(logger hclog.Logger) *Manager {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Manager{logger: logger}
}

// Register reserves a slot for backend and returns its handle.
func (m *Manager) Register(backend domain.Backend) domain.EncoderHandle {
	m.mu.Lock()
	defer m.mu.Unlock()

	var idx int
	if n := len(m.free); n > 0 {
		idx = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		m.slots = append(m.slots, slot{})
		idx = len(m.slots) - 1
	}

	s := &m.slots[idx]
	s.generation++
	s.live = true
	s.backend = backend
	s.instance = nil
	s.path = ""

	return domain.EncoderHandle{Index: idx, Generation: s.generation}
}

// Construct opens the backend bound to h with the given attributes.
func (m *Manager) Construct(ctx context.Context, h domain.EncoderHandle, path string, attrs []domain.Attribute) error {
	m.mu.Lock()
	s, err := m.lookup(h)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if s.instance != nil {
		m.mu.Unlock()
		return ErrAlreadyConstructed
	}
	backend := s.backend
	m.mu.Unlock()

	inst, err := backend.Open(ctx, path, attrs)
	if err != nil {
		return fmt.Errorf("construct %s: %w", backend.Name(), err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s, err = m.lookup(h)
	if err != nil {
		inst.Close()
		return err
	}
	s.instance = inst
	s.path = path

	m.logger.Debug("encoder constructed", "handle", h.Index, "backend", backend.Name(), "path", path)
	return nil
}

// Exists reports whether h names a live slot.
func (m *Manager) Exists(h domain.EncoderHandle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.lookup(h)
	return err == nil
}

// Destroy closes the encoder bound to h, if any, and frees the slot.
func (m *Manager) Destroy(h domain.EncoderHandle) error {
	m.mu.Lock()
	s, err := m.lookup(h)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	inst := s.instance
	path := s.path
	s.live = false
	s.backend = nil
	s.instance = nil
	s.path = ""
	m.free = append(m.free, h.Index)
	m.mu.Unlock()

	if inst == nil {
		return nil
	}
	if err := inst.Close(); err != nil {
		return fmt.Errorf("close encoder for %s: %w", path, err)
	}
	m.logger.Debug("encoder destroyed", "handle", h.Index, "path", path)
	return nil
}

// DestroyIfExists is Destroy for handles that may never have been bound.
func (m *Manager) DestroyIfExists(h domain.EncoderHandle) error {
	if !m.Exists(h) {
		return nil
	}
	return m.Destroy(h)
}

// AddFrame appends one video frame to the encoder bound to h.
func (m *Manager) AddFrame(h domain.EncoderHandle, frame domain.Readback, t domain.MediaTime) error {
	inst, err := m.instance(h)
	if err != nil {
		return err
	}
	return inst.AddFrame(frame, t)
}

// AddSamples appends interleaved audio samples to the encoder bound to h.
func (m *Manager) AddSamples(h domain.EncoderHandle, samples []float32) error {
	inst, err := m.instance(h)
	if err != nil {
		return err
	}
	return inst.AddSamples(samples)
}

// Active returns the number of constructed encoders.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for i := range m.slots {
		if m.slots[i].live && m.slots[i].instance != nil {
			n++
		}
	}
	return n
}

func (m *Manager) instance(h domain.EncoderHandle) (domain.Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(h)
	if err != nil {
		return nil, err
	}
	if s.instance == nil {
		return nil, ErrNotConstructed
	}
	return s.instance, nil
}

func (m *Manager) lookup(h domain.EncoderHandle) (*slot, error) {
	if h.IsZero() || h.Index < 0 || h.Index >= len(m.slots) {
		return nil, ErrInvalidHandle
	}
	s := &m.slots[h.Index]
	if !s.live || s.generation != h.Generation {
		return nil, ErrInvalidHandle
	}
	return s, nil
}
