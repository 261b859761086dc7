package orchestrator

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/kolvan/matrixctl/internal/calc/controller"
	"github.com/kolvan/matrixctl/internal/calc/serial"
	"github.com/kolvan/matrixctl/internal/calc/store"
)

// Mode identifies one operating mode of the appliance.
type Mode uint8

const (
	// ModeMenu is the idle mode; the only place mode changes happen.
	ModeMenu Mode = iota

	// ModeInput streams matrix elements in from the serial link.
	ModeInput

	// ModeGenerate fills a matrix from the random source.
	ModeGenerate

	// ModeDisplay transcribes a stored matrix back to the host.
	ModeDisplay

	// ModeCompute runs an operation over stored operands.
	ModeCompute

	// ModeSetting updates the live configuration parameters.
	ModeSetting
)

// selectOrder is the fixed menu cycle.
var selectOrder = []Mode{ModeInput, ModeGenerate, ModeDisplay, ModeCompute, ModeSetting}

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeMenu:
		return "menu"
	case ModeInput:
		return "input"
	case ModeGenerate:
		return "generate"
	case ModeDisplay:
		return "display"
	case ModeCompute:
		return "compute"
	case ModeSetting:
		return "setting"
	default:
		return "unknown"
	}
}

// SubController is what the orchestrator demands of a mode's session
// machine. All sub-controllers in this module satisfy it.
type SubController interface {
	// Reset discards in-flight session state.
	Reset()

	// Tick advances the session by one step. Errors are internal faults,
	// not user-level session failures; those surface through Err.
	Tick() error

	// Done reports whether the session reached a terminal state.
	Done() bool

	// Err returns the session's user-visible error kind.
	Err() controller.ErrKind
}

var (
	// ErrUnknownMode reports selection of a mode with no registered
	// sub-controller.
	ErrUnknownMode = errors.New("orchestrator: no sub-controller for mode")

	// ErrSessionActive reports a mode change attempted outside the menu.
	ErrSessionActive = errors.New("orchestrator: session active")
)

// Stats tracks orchestrator activity.
type Stats struct {
	// Ticks counts global ticks.
	Ticks uint64

	// Sessions counts confirmed mode entries.
	Sessions uint64

	// Completions counts sessions that ended without error.
	Completions uint64

	// Aborts counts sessions that ended with a user-visible error.
	Aborts uint64

	// Cancels counts sessions torn down by Back.
	Cancels uint64
}

// Options configures an orchestrator.
type Options struct {
	// Store is the shared matrix store; its ports are re-armed every tick.
	Store *store.Store

	// Port is the serial link, advanced every tick.
	Port serial.Port

	// ErrorHoldTicks is how long DisplayedError latches a session error.
	ErrorHoldTicks int

	// Logger receives mode-transition and session-outcome records.
	// Defaults to a discard logger.
	Logger logrus.FieldLogger
}

// Orchestrator arbitrates the shared store and serial link between the
// registered sub-controllers.
type Orchestrator struct {
	st   *store.Store
	port serial.Port
	log  logrus.FieldLogger

	subs map[Mode]SubController

	mode     Mode
	selected Mode
	active   bool

	lastErr   controller.ErrKind
	errHold   int
	holdTicks int

	tick  uint64
	stats Stats
}

// New creates an orchestrator with no sub-controllers registered.
func New(opts Options) (*Orchestrator, error) {
	if opts.Store == nil {
		return nil, errors.New("orchestrator: nil store")
	}
	if opts.Port == nil {
		return nil, errors.New("orchestrator: nil port")
	}
	if opts.ErrorHoldTicks < 0 {
		return nil, fmt.Errorf("orchestrator: negative error hold %d", opts.ErrorHoldTicks)
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Orchestrator{
		st:        opts.Store,
		port:      opts.Port,
		log:       log,
		subs:      make(map[Mode]SubController),
		mode:      ModeMenu,
		selected:  selectOrder[0],
		holdTicks: opts.ErrorHoldTicks,
	}, nil
}

// Register installs the sub-controller for a mode. The menu is not a
// session and cannot be registered.
func (o *Orchestrator) Register(m Mode, sub SubController) error {
	if m == ModeMenu {
		return errors.New("orchestrator: cannot register the menu")
	}
	if sub == nil {
		return fmt.Errorf("orchestrator: nil sub-controller for %s", m)
	}
	o.subs[m] = sub
	return nil
}

// Mode returns the current operating mode (ModeMenu while idle).
func (o *Orchestrator) Mode() Mode { return o.mode }

// Selected returns the menu highlight.
func (o *Orchestrator) Selected() Mode { return o.selected }

// TickCount returns the number of global ticks elapsed.
func (o *Orchestrator) TickCount() uint64 { return o.tick }

// Stats returns a copy of the accumulated statistics.
func (o *Orchestrator) Stats() Stats { return o.stats }

// Select moves the menu highlight to a registered mode.
func (o *Orchestrator) Select(m Mode) error {
	if o.active {
		return ErrSessionActive
	}
	if _, ok := o.subs[m]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMode, m)
	}
	o.selected = m
	return nil
}

// SelectNext advances the highlight to the next registered mode in the
// fixed menu order, wrapping around. With nothing registered it is a no-op.
func (o *Orchestrator) SelectNext() error {
	if o.active {
		return ErrSessionActive
	}
	start := 0
	for i, m := range selectOrder {
		if m == o.selected {
			start = i
			break
		}
	}
	for i := 1; i <= len(selectOrder); i++ {
		m := selectOrder[(start+i)%len(selectOrder)]
		if _, ok := o.subs[m]; ok {
			o.selected = m
			return nil
		}
	}
	return nil
}

// Confirm enters the selected mode: the sub-controller is reset and owns
// the tick until it is done or cancelled.
func (o *Orchestrator) Confirm() error {
	if o.active {
		return ErrSessionActive
	}
	sub, ok := o.subs[o.selected]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMode, o.selected)
	}
	sub.Reset()
	o.mode = o.selected
	o.active = true
	o.stats.Sessions++
	o.log.WithField("mode", o.mode.String()).Debug("session start")
	return nil
}

// Back cancels the in-flight session and returns to the menu. In the menu
// it clears a latched error early. Uncommitted session state is discarded.
func (o *Orchestrator) Back() {
	if !o.active {
		o.errHold = 0
		return
	}
	o.subs[o.mode].Reset()
	o.active = false
	o.mode = ModeMenu
	o.stats.Cancels++
	o.log.WithField("mode", o.selected.String()).Debug("session cancelled")
}

// DisplayedError returns the latched error kind while the hold window is
// open, ErrNone otherwise.
func (o *Orchestrator) DisplayedError() controller.ErrKind {
	if o.errHold > 0 {
		return o.lastErr
	}
	return controller.ErrNone
}

// Tick advances the whole appliance by one step: re-arm the store ports,
// move the serial link, then give the active sub-controller (if any) one
// step. Returns only internal faults; session errors latch instead.
func (o *Orchestrator) Tick() error {
	o.tick++
	o.stats.Ticks++
	o.st.BeginTick()
	o.port.Tick()

	if !o.active {
		if o.errHold > 0 {
			o.errHold--
		}
		return nil
	}

	sub := o.subs[o.mode]
	if err := sub.Tick(); err != nil {
		return fmt.Errorf("orchestrator: %s: %w", o.mode, err)
	}
	if !sub.Done() {
		return nil
	}

	kind := sub.Err()
	o.active = false
	o.mode = ModeMenu
	if kind == controller.ErrNone {
		o.stats.Completions++
		o.log.WithField("mode", o.selected.String()).Debug("session complete")
		return nil
	}
	o.stats.Aborts++
	o.lastErr = kind
	o.errHold = o.holdTicks
	o.log.WithFields(logrus.Fields{
		"mode":  o.selected.String(),
		"error": kind.String(),
	}).Warn("session aborted")
	return nil
}
