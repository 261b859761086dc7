// Package calc provides the public API for the matrix calculator appliance.
//
// The appliance models a small embedded matrix calculator: a bounded
// element store behind a one-read one-write port, a fixed slot directory
// with per-shape quotas and eviction, a serial link to the host, and a set
// of mode controllers (input, generate, display, compute, setting)
// arbitrated by a menu. Everything advances on a single cooperative tick.
//
// # Quick Start
//
//	app, err := calc.New(calc.Options{})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	app.HostWrite([]byte("2 2 1234"))
//	app.Select(calc.ModeInput)
//	app.Confirm()
//	if err := app.RunUntilIdle(10000); err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("%s", app.HostRead())
//
// The host side of the serial link is driven with [Appliance.HostWrite] and
// [Appliance.HostRead]; the appliance side consumes and produces bytes one
// per tick as the active session progresses.
//
// # Ticking
//
// Nothing happens between ticks. [Appliance.Tick] advances the whole
// machine one step; [Appliance.RunUntilIdle] ticks until the menu is
// reached again, which is the natural end of every session. Sessions that
// fail leave an error indication readable through
// [Appliance.DisplayedError] for a configured number of ticks.
//
// # Configuration
//
// Settings load from YAML (see [Options.ConfigPath]) over built-in
// defaults. The setting mode can change the dimension ceiling, the value
// ceiling, and the per-shape quota at runtime; everything else is fixed at
// construction.
//
// # State Export
//
// [Appliance.Snapshot] captures the full observable state — mode, settings,
// committed matrices, telemetry counters — and [Appliance.MarshalSnapshot]
// renders it as JSON for tooling.
package calc
