// Package orchestrator owns the appliance's mode state machine and the
// global tick.
//
// The appliance is single-threaded by construction: one Tick call re-arms
// the store's access ports, advances the serial link, and then advances at
// most one sub-controller by one step. Sub-controllers never run
// concurrently, which is what makes the one-read one-write port discipline
// of the store enforceable at all.
//
// Mode changes happen only at the menu. Select and SelectNext move the
// menu highlight, Confirm resets the chosen sub-controller and hands it the
// tick, and Back cancels an in-flight session unconditionally — whatever
// the session had not committed is simply gone. When a session ends with an
// error the kind is latched and exposed through DisplayedError for a
// configured number of ticks, mirroring a front-panel error indicator.
package orchestrator
