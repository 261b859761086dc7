package store

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by port operations.
var (
	// ErrOutOfRange indicates an address outside the store capacity.
	ErrOutOfRange = errors.New("store: address out of range")

	// ErrReadPortBusy indicates the single read port was already used this tick.
	ErrReadPortBusy = errors.New("store: read port already used this tick")

	// ErrWritePortBusy indicates the single write port was already used this tick.
	ErrWritePortBusy = errors.New("store: write port already used this tick")
)

// Stats tracks port activity for telemetry and tests.
type Stats struct {
	// Reads counts successful read-port accesses.
	Reads uint64

	// Writes counts successful write-port accesses.
	Writes uint64

	// Contentions counts accesses rejected because a port was already
	// used in the current tick. Nonzero means the exclusivity protocol
	// was violated somewhere upstream.
	Contentions uint64
}

// Store is the shared element memory: a flat array of byte-wide elements
// behind one read port and one write port.
//
// Store is NOT safe for concurrent use. The scheduling model is synchronous
// cooperative: exactly one owner drives the ports between BeginTick calls.
type Store struct {
	cells []uint8

	// Port arming for the current tick. BeginTick re-arms both.
	readUsed  bool
	writeUsed bool

	stats Stats
}

// New creates a store with the given capacity in elements.
func New(capacity int) (*Store, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("store: capacity must be positive, got %d", capacity)
	}
	return &Store{cells: make([]uint8, capacity)}, nil
}

// Capacity returns the total number of addressable elements.
func (s *Store) Capacity() int {
	return len(s.cells)
}

// BeginTick re-arms both ports. The orchestrator calls this exactly once at
// the start of every global tick, before any state machine runs.
func (s *Store) BeginTick() {
	s.readUsed = false
	s.writeUsed = false
}

// Read consumes the read port for the current tick and returns the element
// at addr.
func (s *Store) Read(addr int) (uint8, error) {
	if s.readUsed {
		s.stats.Contentions++
		return 0, ErrReadPortBusy
	}
	if addr < 0 || addr >= len(s.cells) {
		return 0, fmt.Errorf("%w: read %d (capacity %d)", ErrOutOfRange, addr, len(s.cells))
	}
	s.readUsed = true
	s.stats.Reads++
	return s.cells[addr], nil
}

// Write consumes the write port for the current tick and stores v at addr.
func (s *Store) Write(addr int, v uint8) error {
	if s.writeUsed {
		s.stats.Contentions++
		return ErrWritePortBusy
	}
	if addr < 0 || addr >= len(s.cells) {
		return fmt.Errorf("%w: write %d (capacity %d)", ErrOutOfRange, addr, len(s.cells))
	}
	s.writeUsed = true
	s.stats.Writes++
	s.cells[addr] = v
	return nil
}

// Peek returns the element at addr without consuming the read port.
//
// Debug/telemetry only: snapshots and tests use it to inspect memory
// without perturbing port accounting. Returns 0 for out-of-range addresses.
func (s *Store) Peek(addr int) uint8 {
	if addr < 0 || addr >= len(s.cells) {
		return 0
	}
	return s.cells[addr]
}

// PeekRange copies the half-open range [start, end) without touching the
// read port. Out-of-range requests are clamped to the valid region.
func (s *Store) PeekRange(start, end int) []uint8 {
	if start < 0 {
		start = 0
	}
	if end > len(s.cells) {
		end = len(s.cells)
	}
	if start >= end {
		return nil
	}
	out := make([]uint8, end-start)
	copy(out, s.cells[start:end])
	return out
}

// Stats returns a copy of the accumulated port statistics.
func (s *Store) Stats() Stats {
	return s.stats
}
