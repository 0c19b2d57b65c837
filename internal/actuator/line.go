package actuator

import (
	"sync"
)

// Line is a binary output that can be read back.
type Line interface {
	// Value reads the current level of the line.
	Value() (bool, error)
	// Set drives the line high (true) or low (false).
	Set(on bool) error
}

// MemoryLine is an in-memory Line used by the simulated hardware driver and in tests.
type MemoryLine struct {
	// mu protects all fields.
	mu sync.Mutex
	// on is the current level.
	on bool
	// writes counts successful Set calls.
	writes int
}

// NewMemoryLine returns a line starting low.
func NewMemoryLine() *MemoryLine {
	return new(MemoryLine)
}

// Value returns the current level.
func (l *MemoryLine) Value() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.on, nil
}

// Set changes the level and counts the write.
func (l *MemoryLine) Set(on bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.on = on
	l.writes++

	return nil
}

// Writes returns how many times the line has been driven.
func (l *MemoryLine) Writes() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.writes
}
