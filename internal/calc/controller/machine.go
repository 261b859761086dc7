package controller

import (
	"fmt"

	"github.com/kolvan/matrixctl/internal/calc/config"
	"github.com/kolvan/matrixctl/internal/calc/directory"
	"github.com/kolvan/matrixctl/internal/calc/randsrc"
	"github.com/kolvan/matrixctl/internal/calc/serial"
	"github.com/kolvan/matrixctl/internal/calc/store"
)

// Kind selects a streaming variant.
type Kind uint8

const (
	// KindInput parses matrix elements off the serial link.
	KindInput Kind = iota

	// KindGenerate draws matrix elements from the random source.
	KindGenerate

	// KindDisplay reads back and transcribes an existing slot.
	KindDisplay
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindGenerate:
		return "generate"
	case KindDisplay:
		return "display"
	default:
		return "unknown"
	}
}

// Stage is a position in the linear sub-controller protocol.
type Stage uint8

const (
	// StageParseRows reads the row-count parameter.
	StageParseRows Stage = iota

	// StageParseCols reads the column-count parameter.
	StageParseCols

	// StageParseSlot reads the slot parameter (display only).
	StageParseSlot

	// StageAcquire polls the allocator under the bounded timeout.
	StageAcquire

	// StageStream moves one element per tick.
	StageStream

	// StageCommit publishes the matrix to the directory.
	StageCommit

	// StageTranscript streams the formatted matrix back to the host.
	StageTranscript

	// StageDone is terminal until the next Reset.
	StageDone
)

// Deps wires a machine to its collaborators. All machines of one appliance
// share the same instances; the orchestrator guarantees only one of them
// runs per tick.
type Deps struct {
	Dir   *directory.Directory
	Store *store.Store
	Port  serial.Port
	Rand  randsrc.Source

	// Cfg is shared live configuration: the setting sub-controller may
	// change it between runs.
	Cfg *config.Settings
}

// Stats tracks machine activity across runs.
type Stats struct {
	// Ticks counts Tick calls while not done.
	Ticks uint64

	// WaitTicksTotal counts ticks spent polling the allocator.
	WaitTicksTotal uint64

	// Elements counts elements streamed to or from the store.
	Elements uint64

	// Completions counts clean runs.
	Completions uint64

	// Aborts counts error aborts.
	Aborts uint64
}

// Machine is one streaming sub-controller.
type Machine struct {
	kind Kind
	deps Deps

	stage  Stage
	parser DigitParser

	rows, cols int
	slot, addr int
	idx        int
	waitTicks  int

	tr      *Transcript
	errKind ErrKind

	stats Stats
}

// NewMachine creates a machine of the given kind. It starts in its initial
// parse stage; the orchestrator Resets it again on every mode entry.
func NewMachine(kind Kind, deps Deps) *Machine {
	m := &Machine{kind: kind, deps: deps}
	m.Reset()
	return m
}

// Reset discards all in-flight state and returns to the initial stage.
// Anything not yet committed is lost; that is the cancellation contract.
func (m *Machine) Reset() {
	m.parser.Reset()
	m.rows, m.cols, m.slot, m.addr, m.idx = 0, 0, 0, 0, 0
	m.waitTicks = 0
	m.tr = nil
	m.errKind = ErrNone
	if m.kind == KindDisplay {
		m.stage = StageParseSlot
	} else {
		m.stage = StageParseRows
	}
}

// Kind returns the machine's variant.
func (m *Machine) Kind() Kind { return m.kind }

// Stage returns the current protocol stage.
func (m *Machine) Stage() Stage { return m.stage }

// Done reports whether the machine reached its terminal state.
func (m *Machine) Done() bool { return m.stage == StageDone }

// Err returns the error kind of the last run (ErrNone while running or
// after a clean completion).
func (m *Machine) Err() ErrKind { return m.errKind }

// Stats returns a copy of the accumulated statistics.
func (m *Machine) Stats() Stats { return m.stats }

// abort records the error kind and jumps to the terminal stage.
func (m *Machine) abort(kind ErrKind) {
	m.errKind = kind
	m.stage = StageDone
	m.stats.Aborts++
}

// Tick advances the machine by one stage-step.
func (m *Machine) Tick() error {
	if m.stage == StageDone {
		return nil
	}
	m.stats.Ticks++

	switch m.stage {
	case StageParseRows, StageParseCols:
		m.tickParseDim()
	case StageParseSlot:
		m.tickParseSlot()
	case StageAcquire:
		m.tickAcquire()
	case StageStream:
		return m.tickStream()
	case StageCommit:
		return m.tickCommit()
	case StageTranscript:
		return m.tickTranscript()
	}
	return nil
}

// tickParseDim consumes one received byte toward rows or cols.
func (m *Machine) tickParseDim() {
	b, ok := m.deps.Port.Recv()
	if !ok {
		return
	}
	v, done := m.parser.Feed(b)
	if !done {
		return
	}
	if v < 1 || v > m.deps.Cfg.MaxDimension {
		m.abort(ErrDimRange)
		return
	}
	if m.stage == StageParseRows {
		m.rows = v
		m.stage = StageParseCols
	} else {
		m.cols = v
		m.waitTicks = 0
		m.stage = StageAcquire
	}
}

// tickParseSlot consumes one received byte toward the display slot index,
// then resolves it against the directory.
func (m *Machine) tickParseSlot() {
	b, ok := m.deps.Port.Recv()
	if !ok {
		return
	}
	v, done := m.parser.Feed(b)
	if !done {
		return
	}
	view := m.deps.Dir.Query(v)
	if !view.Valid {
		m.abort(ErrDimRange)
		return
	}
	m.slot = v
	m.rows, m.cols, m.addr = view.Rows, view.Cols, view.Addr
	m.tr = NewTranscript(m.deps.Store, m.deps.Port, m.rows, m.cols, m.addr, MarkerDone)
	m.stage = StageTranscript
}

// tickAcquire polls the allocator once and counts the tick against the
// bounded wait. The allocator's no-capacity failure is retried, never
// surfaced: the user-visible outcome of a full store is the timeout.
func (m *Machine) tickAcquire() {
	p, err := m.deps.Dir.Allocate(m.rows, m.cols)
	if err == nil {
		m.slot, m.addr = p.Slot, p.Addr
		m.idx = 0
		m.stage = StageStream
		return
	}
	m.waitTicks++
	m.stats.WaitTicksTotal++
	if m.waitTicks >= m.deps.Cfg.AllocTimeoutTicks {
		m.abort(ErrAllocTimeout)
	}
}

// tickStream moves one element between the link/source and the store.
func (m *Machine) tickStream() error {
	switch m.kind {
	case KindGenerate:
		v := m.deps.Rand.Next(uint8(m.deps.Cfg.MaxValue))
		if err := m.deps.Store.Write(m.addr+m.idx, v); err != nil {
			return fmt.Errorf("controller: %s stream: %w", m.kind, err)
		}
		m.idx++
		m.stats.Elements++

	case KindInput:
		b, ok := m.deps.Port.Recv()
		if !ok {
			return nil
		}
		if b < '0' || b > '9' {
			// Separators between element digits are allowed noise.
			return nil
		}
		v := b - '0'
		if v > uint8(m.deps.Cfg.MaxValue) {
			v = uint8(m.deps.Cfg.MaxValue)
		}
		if err := m.deps.Store.Write(m.addr+m.idx, v); err != nil {
			return fmt.Errorf("controller: %s stream: %w", m.kind, err)
		}
		m.idx++
		m.stats.Elements++
	}

	if m.idx == m.rows*m.cols {
		m.stage = StageCommit
	}
	return nil
}

// tickCommit publishes the streamed matrix and opens the transcript.
func (m *Machine) tickCommit() error {
	if err := m.deps.Dir.Commit(m.slot, m.rows, m.cols, m.addr); err != nil {
		return fmt.Errorf("controller: %s commit: %w", m.kind, err)
	}
	m.tr = NewTranscript(m.deps.Store, m.deps.Port, m.rows, m.cols, m.addr, MarkerDone)
	m.stage = StageTranscript
	return nil
}

// tickTranscript advances the transcript by at most one byte.
func (m *Machine) tickTranscript() error {
	if err := m.tr.Tick(); err != nil {
		return err
	}
	if m.tr.Done() {
		m.stats.Completions++
		m.stage = StageDone
	}
	return nil
}
