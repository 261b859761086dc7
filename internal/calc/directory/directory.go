package directory

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNoCapacity is the only allocate-time failure: no free slot
	// remains, or the bump allocator would run past the store capacity.
	ErrNoCapacity = errors.New("directory: no capacity")

	// ErrBadSlot indicates a slot index outside the directory.
	ErrBadSlot = errors.New("directory: slot index out of range")

	// ErrBadRange indicates a commit whose address range would leave the
	// store capacity.
	ErrBadRange = errors.New("directory: address range outside store")
)

// Class identifies a dimension class: the set of slots sharing one shape.
type Class struct {
	Rows int
	Cols int
}

// Elems returns the element count of a matrix of this shape.
func (c Class) Elems() int {
	return c.Rows * c.Cols
}

// Slot is one directory entry describing a stored matrix.
type Slot struct {
	// Valid marks the slot as holding live data. Slots are never freed;
	// they are overwritten in place or selected for eviction.
	Valid bool

	// Rows and Cols are the matrix shape (1..15 by upstream validation).
	Rows int
	Cols int

	// Start and End delimit the half-open element range [Start, End)
	// in the shared store. End == Start + Rows*Cols always.
	Start int
	End   int

	// Stamp is the monotonically increasing commit counter value assigned
	// when this slot was last committed. OldestFirst eviction orders by it.
	Stamp uint64
}

// Placement is the result of a successful Allocate: a hint the caller must
// turn into directory state with Commit.
type Placement struct {
	// Slot is the directory index to commit into.
	Slot int

	// Addr is the store element address the matrix should occupy.
	Addr int

	// Evicted reports whether the placement reuses a live class member's
	// slot and address rather than extending the high-water mark.
	Evicted bool
}

// Stats tracks resource-manager activity for telemetry.
type Stats struct {
	// FreshAllocs counts placements past the high-water mark.
	FreshAllocs uint64

	// Evictions counts placements that reuse a live slot.
	Evictions uint64

	// Commits counts directory mutations.
	Commits uint64

	// CapacityFailures counts ErrNoCapacity results.
	CapacityFailures uint64
}

// classState is the per-class bookkeeping: member count and the eviction
// cursor used by the round-robin policy.
type classState struct {
	count  int
	cursor int
}

// Directory is the matrix resource manager.
type Directory struct {
	slots    []Slot
	capacity int
	quota    int
	policy   VictimPolicy

	// nextStamp is the recency counter handed out at commit time.
	nextStamp uint64

	classes map[Class]*classState
	stats   Stats
}

// New creates a directory with slotCount slots over a store of capacity
// elements. quota bounds live matrices per dimension class (0 disables the
// quota). policyName selects the eviction policy by its config name.
func New(slotCount, capacity, quota int, policyName string) (*Directory, error) {
	if slotCount < 1 {
		return nil, fmt.Errorf("directory: slot count %d must be positive", slotCount)
	}
	if capacity < 1 {
		return nil, fmt.Errorf("directory: store capacity %d must be positive", capacity)
	}
	if quota < 0 {
		return nil, fmt.Errorf("directory: quota %d is negative", quota)
	}
	policy, err := PolicyByName(policyName)
	if err != nil {
		return nil, err
	}
	return &Directory{
		slots:    make([]Slot, slotCount),
		capacity: capacity,
		quota:    quota,
		policy:   policy,
		classes:  make(map[Class]*classState),
	}, nil
}

// Allocate plans a placement for a rows×cols matrix.
//
// Shape validation happens upstream in the sub-controllers; Allocate trusts
// rows and cols to be in range. If the dimension class is at quota the
// eviction policy picks a live class member and its slot and address are
// returned for reuse. Otherwise the lowest-indexed invalid slot and the
// current high-water mark form a fresh placement.
//
// The directory is not mutated: the placement is a hint until Commit.
func (d *Directory) Allocate(rows, cols int) (Placement, error) {
	c := Class{Rows: rows, Cols: cols}

	if cs, ok := d.classes[c]; ok && d.quota > 0 && cs.count >= d.quota {
		victim := d.policy.SelectVictim(d, c)
		d.stats.Evictions++
		return Placement{Slot: victim, Addr: d.slots[victim].Start, Evicted: true}, nil
	}

	slot := -1
	for i := range d.slots {
		if !d.slots[i].Valid {
			slot = i
			break
		}
	}
	addr := d.highWater()
	if slot < 0 || addr+c.Elems() > d.capacity {
		d.stats.CapacityFailures++
		return Placement{}, ErrNoCapacity
	}
	d.stats.FreshAllocs++
	return Placement{Slot: slot, Addr: addr}, nil
}

// Commit writes a matrix record into the directory.
//
// It performs the quota bookkeeping: a slot changing dimension class leaves
// its old class (count decremented, cursor moved off it) and joins the new
// one (count incremented, cursor initialized if it is the first member).
// The caller is responsible for passing an address consistent with a prior
// Allocate result; Commit only rejects structurally impossible arguments.
func (d *Directory) Commit(slot, rows, cols, addr int) error {
	if slot < 0 || slot >= len(d.slots) {
		return fmt.Errorf("%w: %d (directory size %d)", ErrBadSlot, slot, len(d.slots))
	}
	c := Class{Rows: rows, Cols: cols}
	if addr < 0 || addr+c.Elems() > d.capacity {
		return fmt.Errorf("%w: [%d, %d) capacity %d", ErrBadRange, addr, addr+c.Elems(), d.capacity)
	}

	prev := d.slots[slot]
	switch {
	case !prev.Valid:
		d.attach(slot, c)
	case prev.Valid && (prev.Rows != rows || prev.Cols != cols):
		d.detach(slot, Class{Rows: prev.Rows, Cols: prev.Cols})
		d.attach(slot, c)
	default:
		// Same class re-commit: membership unchanged, stamp refreshed.
	}

	d.nextStamp++
	d.slots[slot] = Slot{
		Valid: true,
		Rows:  rows,
		Cols:  cols,
		Start: addr,
		End:   addr + c.Elems(),
		Stamp: d.nextStamp,
	}
	d.stats.Commits++
	return nil
}

// View is the read-only answer to Query.
type View struct {
	Valid bool
	Rows  int
	Cols  int
	Addr  int
	Elems int
}

// Query returns the state of one slot. Out-of-range and never-committed
// slots answer Valid == false; Query is always defined.
func (d *Directory) Query(slot int) View {
	if slot < 0 || slot >= len(d.slots) {
		return View{}
	}
	s := d.slots[slot]
	if !s.Valid {
		return View{}
	}
	return View{Valid: true, Rows: s.Rows, Cols: s.Cols, Addr: s.Start, Elems: s.End - s.Start}
}

// TotalCount recounts the valid slots on demand. Recomputing instead of
// maintaining a counter keeps the value drift-free by construction.
func (d *Directory) TotalCount() int {
	n := 0
	for i := range d.slots {
		if d.slots[i].Valid {
			n++
		}
	}
	return n
}

// ClassCount returns the live member count of a dimension class.
func (d *Directory) ClassCount(rows, cols int) int {
	if cs, ok := d.classes[Class{Rows: rows, Cols: cols}]; ok {
		return cs.count
	}
	return 0
}

// SlotCount returns the fixed directory size.
func (d *Directory) SlotCount() int {
	return len(d.slots)
}

// Quota returns the per-class limit (0 means unbounded).
func (d *Directory) Quota() int {
	return d.quota
}

// SetQuota installs a new per-class limit. Lowering the quota below a
// class's current population does not evict anything; the class simply
// stops growing and evicts on its next allocation.
func (d *Directory) SetQuota(quota int) error {
	if quota < 0 {
		return fmt.Errorf("directory: quota %d is negative", quota)
	}
	d.quota = quota
	return nil
}

// PolicyName returns the active eviction policy's config name.
func (d *Directory) PolicyName() string {
	return d.policy.Name()
}

// Slots returns a copy of the directory for snapshots and tests.
func (d *Directory) Slots() []Slot {
	out := make([]Slot, len(d.slots))
	copy(out, d.slots)
	return out
}

// Stats returns a copy of the accumulated statistics.
func (d *Directory) Stats() Stats {
	return d.stats
}

// CheckInvariants verifies the directory's structural invariants:
// address arithmetic, range disjointness, quota bounds, and class
// bookkeeping consistency. Tests call it after every mutation sequence.
func (d *Directory) CheckInvariants() error {
	counts := make(map[Class]int)
	for i := range d.slots {
		s := d.slots[i]
		if !s.Valid {
			continue
		}
		if s.End != s.Start+s.Rows*s.Cols {
			return fmt.Errorf("slot %d: end %d != start %d + %d*%d", i, s.End, s.Start, s.Rows, s.Cols)
		}
		if s.Start < 0 || s.End > d.capacity {
			return fmt.Errorf("slot %d: range [%d, %d) outside capacity %d", i, s.Start, s.End, d.capacity)
		}
		for j := i + 1; j < len(d.slots); j++ {
			o := d.slots[j]
			if o.Valid && s.Start < o.End && o.Start < s.End {
				return fmt.Errorf("slots %d and %d overlap: [%d,%d) vs [%d,%d)", i, j, s.Start, s.End, o.Start, o.End)
			}
		}
		counts[Class{Rows: s.Rows, Cols: s.Cols}]++
	}
	for c, n := range counts {
		if d.quota > 0 && n > d.quota {
			return fmt.Errorf("class %dx%d has %d members, quota %d", c.Rows, c.Cols, n, d.quota)
		}
		cs, ok := d.classes[c]
		if !ok {
			return fmt.Errorf("class %dx%d populated but untracked", c.Rows, c.Cols)
		}
		if cs.count != n {
			return fmt.Errorf("class %dx%d tracked count %d, actual %d", c.Rows, c.Cols, cs.count, n)
		}
		v := d.slots[cs.cursor]
		if !v.Valid || v.Rows != c.Rows || v.Cols != c.Cols {
			return fmt.Errorf("class %dx%d cursor %d does not point at a class member", c.Rows, c.Cols, cs.cursor)
		}
	}
	for c, cs := range d.classes {
		if counts[c] == 0 && cs.count != 0 {
			return fmt.Errorf("class %dx%d tracked with count %d but empty", c.Rows, c.Cols, cs.count)
		}
	}
	return nil
}

// highWater returns the maximum End among valid slots, or 0 when empty.
func (d *Directory) highWater() int {
	hw := 0
	for i := range d.slots {
		if d.slots[i].Valid && d.slots[i].End > hw {
			hw = d.slots[i].End
		}
	}
	return hw
}

// attach adds slot to class c's bookkeeping. The first member of a class
// becomes its eviction cursor.
func (d *Directory) attach(slot int, c Class) {
	cs, ok := d.classes[c]
	if !ok {
		cs = &classState{cursor: slot}
		d.classes[c] = cs
	}
	cs.count++
	if cs.count == 1 {
		cs.cursor = slot
	}
}

// detach removes slot from class c's bookkeeping ahead of a class change.
// The record at slot still carries c's shape when this runs, so cursor
// advancement must exclude the slot explicitly.
func (d *Directory) detach(slot int, c Class) {
	cs, ok := d.classes[c]
	if !ok {
		return
	}
	cs.count--
	if cs.count <= 0 {
		delete(d.classes, c)
		return
	}
	if cs.cursor == slot {
		cs.cursor = d.nextOfClass(c, slot, slot)
	}
}

// nextOfClass scans forward from index `from` (exclusive, wrapping) for the
// next valid slot of class c, skipping `exclude`. Returns `from` when the
// class has no other member.
func (d *Directory) nextOfClass(c Class, from, exclude int) int {
	n := len(d.slots)
	for step := 1; step <= n; step++ {
		i := (from + step) % n
		if i == exclude {
			continue
		}
		s := d.slots[i]
		if s.Valid && s.Rows == c.Rows && s.Cols == c.Cols {
			return i
		}
	}
	return from
}
