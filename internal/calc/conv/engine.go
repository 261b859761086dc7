package conv

import (
	"errors"
	"fmt"

	"github.com/kolvan/matrixctl/internal/calc/store"
)

// KernelSize is the fixed convolution kernel edge length.
const KernelSize = 3

// ErrImageTooSmall indicates a source matrix below 3 on either axis; valid
// convolution has no defined output for it.
var ErrImageTooSmall = errors.New("conv: image smaller than kernel")

// Params binds one convolution run to store addresses.
type Params struct {
	// ImageAddr is the source matrix base (row-major).
	ImageAddr int

	// ImageRows and ImageCols are the source shape.
	ImageRows int
	ImageCols int

	// KernelAddr is the 3×3 kernel base (row-major).
	KernelAddr int

	// OutAddr is the output matrix base (row-major, (rows-2)×(cols-2)).
	OutAddr int
}

// Stats tracks engine activity across runs.
type Stats struct {
	// MACs counts multiply-accumulate operations.
	MACs uint64

	// Outputs counts output elements written.
	Outputs uint64

	// Runs counts Start calls that passed validation.
	Runs uint64
}

// phase is the engine's position within one tap pair or output write.
type phase uint8

const (
	phaseImageRead phase = iota
	phaseKernelRead
	phaseWrite
)

// Engine is the tick-driven convolution state machine.
//
// Engine is not safe for concurrent use; the compute controller owns it and
// drives Tick while compute mode is active.
type Engine struct {
	st *store.Store

	p       Params
	outRows int
	outCols int

	// Output cursor and tap index within the current output element.
	i, j int
	tap  int

	// acc is the running MAC sum for the current output element. Wide
	// enough that 9 × 255 × 255 cannot wrap; truncation to the low byte
	// happens only at the output write.
	acc uint32

	// image holds the sample latched in the read-latency tick.
	image uint8

	phase   phase
	running bool
	done    bool
	cycles  uint64

	stats Stats
}

// New creates an engine over the shared store.
func New(st *store.Store) *Engine {
	return &Engine{st: st}
}

// Start validates params, resets all run state including the cycle counter,
// and begins processing on the next Tick.
func (e *Engine) Start(p Params) error {
	if p.ImageRows < KernelSize || p.ImageCols < KernelSize {
		return fmt.Errorf("%w: %dx%d", ErrImageTooSmall, p.ImageRows, p.ImageCols)
	}
	e.p = p
	e.outRows = p.ImageRows - (KernelSize - 1)
	e.outCols = p.ImageCols - (KernelSize - 1)
	e.i, e.j, e.tap = 0, 0, 0
	e.acc = 0
	e.phase = phaseImageRead
	e.cycles = 0
	e.running = true
	e.done = false
	e.stats.Runs++
	return nil
}

// Stop deasserts the engine: it stops processing and drops Done.
func (e *Engine) Stop() {
	e.running = false
	e.done = false
}

// Running reports whether a run is in progress or holding Done.
func (e *Engine) Running() bool {
	return e.running
}

// Done reports completion. It holds until Start or Stop.
func (e *Engine) Done() bool {
	return e.done
}

// Cycles returns the active-processing tick count of the current run.
func (e *Engine) Cycles() uint64 {
	return e.cycles
}

// OutShape returns the output dimensions of the current run.
func (e *Engine) OutShape() (rows, cols int) {
	return e.outRows, e.outCols
}

// Stats returns a copy of the accumulated statistics.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Tick advances the engine by one step. Idle and completed engines no-op.
// At most one store port is used per tick.
func (e *Engine) Tick() error {
	if !e.running || e.done {
		return nil
	}
	e.cycles++

	switch e.phase {
	case phaseImageRead:
		ki, kj := e.tap/KernelSize, e.tap%KernelSize
		addr := e.p.ImageAddr + (e.i+ki)*e.p.ImageCols + (e.j + kj)
		v, err := e.st.Read(addr)
		if err != nil {
			return fmt.Errorf("conv: image tap (%d,%d): %w", ki, kj, err)
		}
		e.image = v
		e.phase = phaseKernelRead

	case phaseKernelRead:
		k, err := e.st.Read(e.p.KernelAddr + e.tap)
		if err != nil {
			return fmt.Errorf("conv: kernel tap %d: %w", e.tap, err)
		}
		e.acc += uint32(e.image) * uint32(k)
		e.stats.MACs++
		e.tap++
		if e.tap == KernelSize*KernelSize {
			e.phase = phaseWrite
		} else {
			e.phase = phaseImageRead
		}

	case phaseWrite:
		addr := e.p.OutAddr + e.i*e.outCols + e.j
		if err := e.st.Write(addr, uint8(e.acc)); err != nil {
			return fmt.Errorf("conv: output (%d,%d): %w", e.i, e.j, err)
		}
		e.stats.Outputs++
		e.acc = 0
		e.tap = 0
		e.j++
		if e.j == e.outCols {
			e.j = 0
			e.i++
		}
		if e.i == e.outRows {
			e.done = true
		} else {
			e.phase = phaseImageRead
		}
	}
	return nil
}
