// Package concurrency tracks how many recordings are active in the process
// and warns when more than one runs at the same time.
//
// The count is advisory: it never prevents a recording from starting.
package concurrency

import (
	"sync"

	"github.com/hashicorp/go-hclog"
)

const contentionMessage = "There are two or more concurrent movie recorders active. Keep only one of them active per recording to avoid slowdowns or other issues."

// Monitor counts active recordings. It is safe for concurrent use.
type Monitor struct {
	mu     sync.Mutex
	count  int
	warned bool
	logger hclog.Logger
}

var (
	defaultOnce sync.Once
	defaultInst *Monitor
)

// Default returns the process-wide monitor.
func Default() *Monitor {
	defaultOnce.Do(func() {
		defaultInst = NewMonitor(hclog.Default().Named("concurrency"))
	})
	return defaultInst
}

// NewMonitor returns an empty monitor that logs to logger, or nowhere when
// logger is nil.
func NewMonitor(logger hclog.Logger) *Monitor {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Monitor{logger: logger}
}

// Increment records a recording that started successfully.
func (m *Monitor) Increment() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
	return m.count
}

// Decrement records the end of a recording. It reports false when the count
// went negative, which means an end without a matching start.
func (m *Monitor) Decrement() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.count--
	ok := true
	if m.count < 0 {
		m.logger.Error("recording ended with no matching beginning recording", "count", m.count)
		ok = false
	}
	if m.count <= 1 && m.warned {
		m.warned = false
	}
	return ok
}

// Check warns once per contention episode. It returns true when this call
// emitted the warning.
func (m *Monitor) Check() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.count > 1 && !m.warned {
		m.logger.Warn(contentionMessage, "count", m.count)
		m.warned = true
		return true
	}
	return false
}

// Count returns the number of active recordings.
func (m *Monitor) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// Warned reports whether the current contention episode was already
// reported.
func (m *Monitor) Warned() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.warned
}

// Reset clears the count and the warned flag.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count = 0
	m.warned = false
}
