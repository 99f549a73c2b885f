package testutil

import (
	"sync"

	"github.com/input-output-hk/sync-dir-s3/s3types"
)

// ProgressTick is a single recorded tick.
type ProgressTick struct {
	Entry   s3types.FileEntry
	Outcome s3types.Outcome
}

// MockProgressTracker records ticks. It is safe for concurrent use.
type MockProgressTracker struct {
	mu             sync.Mutex
	ticks          []ProgressTick
	completeCalled int
}

// Tick records a tick.
func (m *MockProgressTracker) Tick(entry s3types.FileEntry, outcome s3types.Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks = append(m.ticks, ProgressTick{Entry: entry, Outcome: outcome})
}

// Complete records completion.
func (m *MockProgressTracker) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completeCalled++
}

// Ticks returns a copy of the recorded ticks.
func (m *MockProgressTracker) Ticks() []ProgressTick {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ProgressTick(nil), m.ticks...)
}

// CompleteCalls returns how many times Complete was called.
func (m *MockProgressTracker) CompleteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completeCalled
}

// CountOutcome returns the number of ticks with the given outcome.
func (m *MockProgressTracker) CountOutcome(outcome s3types.Outcome) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.ticks {
		if t.Outcome == outcome {
			n++
		}
	}
	return n
}
