package calc

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/kolvan/matrixctl/internal/calc/compute"
	"github.com/kolvan/matrixctl/internal/calc/config"
	"github.com/kolvan/matrixctl/internal/calc/controller"
	"github.com/kolvan/matrixctl/internal/calc/directory"
	"github.com/kolvan/matrixctl/internal/calc/orchestrator"
	"github.com/kolvan/matrixctl/internal/calc/randsrc"
	"github.com/kolvan/matrixctl/internal/calc/serial"
	"github.com/kolvan/matrixctl/internal/calc/store"
)

// Mode identifies an operating mode of the appliance.
type Mode uint8

const (
	// ModeMenu is the idle mode between sessions.
	ModeMenu Mode = iota

	// ModeInput streams matrix elements in from the host.
	ModeInput

	// ModeGenerate fills a matrix from the pseudo-random source.
	ModeGenerate

	// ModeDisplay transcribes a stored matrix back to the host.
	ModeDisplay

	// ModeCompute runs an operation over stored matrices.
	ModeCompute

	// ModeSetting updates the live configuration parameters.
	ModeSetting
)

// String returns the mode name.
func (m Mode) String() string { return toInternal(m).String() }

func toInternal(m Mode) orchestrator.Mode {
	switch m {
	case ModeInput:
		return orchestrator.ModeInput
	case ModeGenerate:
		return orchestrator.ModeGenerate
	case ModeDisplay:
		return orchestrator.ModeDisplay
	case ModeCompute:
		return orchestrator.ModeCompute
	case ModeSetting:
		return orchestrator.ModeSetting
	default:
		return orchestrator.ModeMenu
	}
}

func fromInternal(m orchestrator.Mode) Mode {
	switch m {
	case orchestrator.ModeInput:
		return ModeInput
	case orchestrator.ModeGenerate:
		return ModeGenerate
	case orchestrator.ModeDisplay:
		return ModeDisplay
	case orchestrator.ModeCompute:
		return ModeCompute
	case orchestrator.ModeSetting:
		return ModeSetting
	default:
		return ModeMenu
	}
}

// ErrNeverIdle reports that RunUntilIdle exhausted its tick budget.
var ErrNeverIdle = errors.New("calc: appliance did not return to the menu")

// Options configures an appliance. The zero value builds an appliance with
// default settings, a discard logger, and one-tick serial pacing.
type Options struct {
	// ConfigPath names a YAML settings file. Empty means defaults.
	ConfigPath string

	// ConfigData is raw YAML settings; it takes precedence over ConfigPath.
	ConfigData []byte

	// Logger receives session and transition records. Defaults to discard.
	Logger logrus.FieldLogger

	// BusyTicks is the serial link's per-byte transmit time in ticks.
	// Zero means 1.
	BusyTicks int
}

// Appliance is one fully wired matrix calculator.
type Appliance struct {
	cfg  config.Settings
	st   *store.Store
	dir  *directory.Directory
	port *serial.LoopbackPort
	orch *orchestrator.Orchestrator
	comp *compute.Controller
}

// New builds an appliance from the options, wiring the store, directory,
// serial link, and all five mode controllers.
func New(opts Options) (*Appliance, error) {
	var (
		cfg config.Settings
		err error
	)
	switch {
	case opts.ConfigData != nil:
		cfg, err = config.Parse(opts.ConfigData)
	case opts.ConfigPath != "":
		cfg, err = config.LoadFile(opts.ConfigPath)
	default:
		cfg = config.Defaults()
	}
	if err != nil {
		return nil, fmt.Errorf("calc: settings: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("calc: settings: %w", err)
	}

	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	busy := opts.BusyTicks
	if busy == 0 {
		busy = 1
	}

	st, err := store.New(cfg.StoreCapacity)
	if err != nil {
		return nil, fmt.Errorf("calc: %w", err)
	}
	dir, err := directory.New(cfg.SlotCount, cfg.StoreCapacity, cfg.ClassQuota, cfg.EvictionPolicy)
	if err != nil {
		return nil, fmt.Errorf("calc: %w", err)
	}

	a := &Appliance{cfg: cfg, st: st, dir: dir, port: serial.NewLoopback(busy)}
	deps := controller.Deps{
		Dir:   dir,
		Store: st,
		Port:  a.port,
		Rand:  randsrc.NewXorShift(cfg.Seed),
		Cfg:   &a.cfg,
	}

	orch, err := orchestrator.New(orchestrator.Options{
		Store:          st,
		Port:           a.port,
		ErrorHoldTicks: cfg.ErrorHoldTicks,
		Logger:         log,
	})
	if err != nil {
		return nil, fmt.Errorf("calc: %w", err)
	}
	a.orch = orch
	a.comp = compute.New(deps)

	regs := []struct {
		mode orchestrator.Mode
		sub  orchestrator.SubController
	}{
		{orchestrator.ModeInput, controller.NewMachine(controller.KindInput, deps)},
		{orchestrator.ModeGenerate, controller.NewMachine(controller.KindGenerate, deps)},
		{orchestrator.ModeDisplay, controller.NewMachine(controller.KindDisplay, deps)},
		{orchestrator.ModeCompute, a.comp},
		{orchestrator.ModeSetting, controller.NewSetting(deps)},
	}
	for _, r := range regs {
		if err := orch.Register(r.mode, r.sub); err != nil {
			return nil, fmt.Errorf("calc: %w", err)
		}
	}
	return a, nil
}

// Tick advances the appliance by one step.
func (a *Appliance) Tick() error { return a.orch.Tick() }

// TickCount returns the number of ticks elapsed since construction.
func (a *Appliance) TickCount() uint64 { return a.orch.TickCount() }

// Mode returns the current operating mode.
func (a *Appliance) Mode() Mode { return fromInternal(a.orch.Mode()) }

// Selected returns the menu highlight.
func (a *Appliance) Selected() Mode { return fromInternal(a.orch.Selected()) }

// Select moves the menu highlight to the given mode.
func (a *Appliance) Select(m Mode) error { return a.orch.Select(toInternal(m)) }

// SelectNext advances the menu highlight, wrapping around.
func (a *Appliance) SelectNext() error { return a.orch.SelectNext() }

// Confirm enters the selected mode.
func (a *Appliance) Confirm() error { return a.orch.Confirm() }

// Back cancels the in-flight session, or clears a shown error in the menu.
func (a *Appliance) Back() { a.orch.Back() }

// DisplayedError returns the error indication currently shown, or the
// empty string when none is.
func (a *Appliance) DisplayedError() string {
	if k := a.orch.DisplayedError(); k != controller.ErrNone {
		return k.String()
	}
	return ""
}

// HostWrite queues bytes on the host side of the serial link.
func (a *Appliance) HostWrite(b []byte) { a.port.HostWrite(b) }

// HostRead drains everything the appliance has sent to the host so far.
func (a *Appliance) HostRead() []byte { return a.port.HostRead() }

// RunUntilIdle ticks until the appliance is back in the menu, up to
// maxTicks. A session stuck on missing host input runs out the budget and
// returns ErrNeverIdle.
func (a *Appliance) RunUntilIdle(maxTicks int) error {
	for i := 0; i < maxTicks; i++ {
		if err := a.Tick(); err != nil {
			return err
		}
		if a.orch.Mode() == orchestrator.ModeMenu {
			return nil
		}
	}
	if a.orch.Mode() == orchestrator.ModeMenu {
		return nil
	}
	return fmt.Errorf("%w after %d ticks", ErrNeverIdle, maxTicks)
}
