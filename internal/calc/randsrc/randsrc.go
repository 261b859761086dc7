// Package randsrc provides the bounded pseudo-random value source the
// generate mode draws from.
//
// On the appliance the source is a free-running LFSR sampled once per tick;
// here it is an interface so tests can substitute fixed sequences. The
// default implementation is a deterministic xorshift64* generator: same
// seed, same stream, which is what the round-trip tests rely on.
package randsrc

// Source delivers one bounded value per request.
type Source interface {
	// Next returns a pseudo-random value in [0, max]. max is inclusive
	// because the appliance clamps generated elements to the configured
	// maximum value, and that maximum itself must be reachable.
	Next(max uint8) uint8
}

// XorShift is a deterministic xorshift64* Source.
type XorShift struct {
	state uint64
}

// NewXorShift creates a source seeded with seed. A zero seed is replaced
// with a fixed odd constant: xorshift has an all-zero fixed point.
func NewXorShift(seed uint64) *XorShift {
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	return &XorShift{state: seed}
}

// Next returns the next value in [0, max].
func (x *XorShift) Next(max uint8) uint8 {
	x.state ^= x.state >> 12
	x.state ^= x.state << 25
	x.state ^= x.state >> 27
	v := x.state * 0x2545F4914F6CDD1D
	return uint8(v % (uint64(max) + 1))
}

// Fixed is a Source that replays a canned sequence, wrapping at the end.
// Tests use it to make generated matrices predictable.
type Fixed struct {
	values []uint8
	pos    int
}

// NewFixed creates a replaying source. An empty sequence yields all zeros.
func NewFixed(values []uint8) *Fixed {
	return &Fixed{values: values}
}

// Next returns the next canned value, clamped to max.
func (f *Fixed) Next(max uint8) uint8 {
	if len(f.values) == 0 {
		return 0
	}
	v := f.values[f.pos%len(f.values)]
	f.pos++
	if v > max {
		v = max
	}
	return v
}
