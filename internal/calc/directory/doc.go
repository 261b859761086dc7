// Package directory implements the matrix resource manager: a fixed-size
// directory of matrix slots over a bump-allocated region of the shared store.
//
// # Model
//
// Every stored matrix occupies one Slot: shape, address range and a commit
// stamp. Slots sharing a (rows, cols) shape form a dimension class; each
// class carries an independent quota and its own eviction cursor. Addresses
// are handed out by a bump allocator: the high-water mark only ever grows,
// and a range is reused only by re-committing the exact slot that owns it.
// There is no free list and no compaction.
//
// # Allocate / Commit Split
//
// Allocate is a pure planning step. It returns a placement hint — either a
// fresh (slot, address) pair past the high-water mark, or, when the class is
// at quota, an existing class member chosen by the eviction policy. Nothing
// in the directory changes until Commit writes the record. A sub-controller
// can therefore poll Allocate every tick while it waits, then stream element
// data, and only Commit once the matrix is fully written.
//
// # Invariants
//
// For every valid slot: End == Start + Rows*Cols and the range lies within
// the store capacity. Ranges of distinct valid slots never overlap. Once a
// class quota is nonzero, the number of valid slots in that class never
// exceeds it. CheckInvariants verifies all three on demand.
//
// # Eviction Policies
//
// Two victim policies exist in the appliance's history and both are kept,
// behind the VictimPolicy interface:
//
//   - RoundRobin (canonical): a per-class cursor cycles through the class's
//     slots in increasing index order with wraparound.
//   - OldestFirst: a linear scan picks the class member with the smallest
//     commit stamp.
//
// They produce different victim orders for identical input sequences, so the
// choice is configuration, never a merge.
//
// Directory is not safe for concurrent use: the orchestrator guarantees a
// single owner per tick, and all mutation funnels through Commit.
package directory
