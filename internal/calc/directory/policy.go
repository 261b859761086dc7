package directory

import "fmt"

// VictimPolicy chooses which live class member an at-quota allocation
// reuses. Both implementations assume the class is populated — Allocate
// only consults the policy once the class count has reached the quota, so
// by construction a member always exists.
type VictimPolicy interface {
	// Name returns the policy's configuration name.
	Name() string

	// SelectVictim returns the slot index to reuse for class c. A policy
	// may advance internal per-class state (the round-robin cursor) as a
	// side effect of selection.
	SelectVictim(d *Directory, c Class) int
}

// PolicyByName maps a configuration name to its policy.
func PolicyByName(name string) (VictimPolicy, error) {
	switch name {
	case "round-robin":
		return RoundRobin{}, nil
	case "fifo":
		return OldestFirst{}, nil
	default:
		return nil, fmt.Errorf("directory: unknown eviction policy %q", name)
	}
}

// RoundRobin cycles through a class's slots in increasing index order with
// wraparound: with quota L and members s1 < s2 < ... < sL, evictions hit
// s1, s2, ..., sL, s1, ... regardless of commit age. Canonical policy.
type RoundRobin struct{}

// Name implements VictimPolicy.
func (RoundRobin) Name() string { return "round-robin" }

// SelectVictim returns the class cursor and advances it to the next valid
// slot of the same class. With a single member the cursor stays put.
func (RoundRobin) SelectVictim(d *Directory, c Class) int {
	cs := d.classes[c]
	victim := cs.cursor
	cs.cursor = d.nextOfClass(c, victim, victim)
	return victim
}

// OldestFirst evicts the class member with the smallest commit stamp,
// found by a linear scan per allocation. This is the strict FIFO-by-age
// variant from the appliance's earlier revision; it diverges from
// RoundRobin as soon as a class member is re-committed in place, because
// re-commits refresh the stamp but do not move the cursor.
type OldestFirst struct{}

// Name implements VictimPolicy.
func (OldestFirst) Name() string { return "fifo" }

// SelectVictim returns the valid class member with the oldest stamp.
func (OldestFirst) SelectVictim(d *Directory, c Class) int {
	victim := -1
	var oldest uint64
	for i := range d.slots {
		s := d.slots[i]
		if !s.Valid || s.Rows != c.Rows || s.Cols != c.Cols {
			continue
		}
		if victim < 0 || s.Stamp < oldest {
			victim = i
			oldest = s.Stamp
		}
	}
	return victim
}
