package serial

import (
	"errors"
	"sync"
)

// ErrBusy indicates a transmit was started while a previous byte was still
// in flight. A well-behaved state machine polls Busy before every Send, so
// this error only appears when the gating protocol is broken.
var ErrBusy = errors.New("serial: transmit started while busy")

// Port is the device-side view of the serial transport.
//
// Implementations are clocked by Tick: the orchestrator advances the port
// once per global tick, before any state machine runs. All other methods
// are level signals sampled between ticks.
type Port interface {
	// Tick advances the transport by one clock. Transmit busy time and
	// receive staging both progress here.
	Tick()

	// ByteReady reports whether a received byte is staged for Recv.
	ByteReady() bool

	// Recv consumes the staged byte. The second result is false when no
	// byte is ready; the staged byte is cleared either way.
	Recv() (byte, bool)

	// Busy reports whether a transmit is still in flight. Senders must
	// observe !Busy before each Send.
	Busy() bool

	// Send starts transmitting one byte. Returns ErrBusy if a transmit
	// is already in flight.
	Send(b byte) error
}

// Stats tracks transport activity.
type Stats struct {
	// BytesIn counts bytes consumed by the device via Recv.
	BytesIn uint64

	// BytesOut counts bytes the device transmitted.
	BytesOut uint64

	// BusyRejects counts Send calls rejected because a transmit was in
	// flight. Nonzero means a sender skipped the busy gate.
	BusyRejects uint64
}

// LoopbackPort is an in-memory Port with a host-side API.
//
// The device side (Tick/ByteReady/Recv/Busy/Send) follows the synchronous
// cooperative model and is driven by exactly one owner. The host side
// (HostWrite/HostRead) is mutex-guarded so a host pump may run on its own
// goroutine, as the CLI does.
type LoopbackPort struct {
	mu sync.Mutex

	// rx holds host→device bytes not yet staged.
	rx []byte

	// staged is the byte currently visible to ByteReady/Recv.
	staged    byte
	hasStaged bool

	// tx accumulates device→host bytes.
	tx []byte

	// busyTicks is how many ticks a transmit occupies the line.
	busyTicks int

	// busyLeft counts down while a transmit is in flight.
	busyLeft int

	stats Stats
}

// NewLoopback creates a loopback port whose transmits hold the line busy
// for busyTicks ticks. busyTicks < 1 is clamped to 1: a zero-latency line
// would let a sender bypass the busy gate entirely, which no hardware does.
func NewLoopback(busyTicks int) *LoopbackPort {
	if busyTicks < 1 {
		busyTicks = 1
	}
	return &LoopbackPort{busyTicks: busyTicks}
}

// Tick advances busy countdown and stages the next received byte.
func (p *LoopbackPort) Tick() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.busyLeft > 0 {
		p.busyLeft--
	}
	if !p.hasStaged && len(p.rx) > 0 {
		p.staged = p.rx[0]
		p.rx = p.rx[1:]
		p.hasStaged = true
	}
}

// ByteReady reports whether a received byte is staged.
func (p *LoopbackPort) ByteReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasStaged
}

// Recv consumes the staged byte.
func (p *LoopbackPort) Recv() (byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.hasStaged {
		return 0, false
	}
	p.hasStaged = false
	p.stats.BytesIn++
	return p.staged, true
}

// Busy reports whether a transmit is in flight.
func (p *LoopbackPort) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busyLeft > 0
}

// Send starts transmitting one byte toward the host.
func (p *LoopbackPort) Send(b byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.busyLeft > 0 {
		p.stats.BusyRejects++
		return ErrBusy
	}
	p.busyLeft = p.busyTicks
	p.tx = append(p.tx, b)
	p.stats.BytesOut++
	return nil
}

// HostWrite queues bytes on the host→device direction.
func (p *LoopbackPort) HostWrite(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rx = append(p.rx, b...)
}

// HostRead drains and returns everything the device transmitted so far.
func (p *LoopbackPort) HostRead() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := p.tx
	p.tx = nil
	return out
}

// PendingIn reports how many host→device bytes are queued or staged.
func (p *LoopbackPort) PendingIn() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.rx)
	if p.hasStaged {
		n++
	}
	return n
}

// Stats returns a copy of the transport statistics.
func (p *LoopbackPort) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
