// Package controller implements the streaming sub-controller protocol shared
// by input, generate and display modes, plus the setting sub-controller.
//
// # Protocol
//
// Every streaming mode is the same linear machine, one stage-step per tick:
//
//	parse parameters → acquire storage → stream elements → commit → transcript
//
// A stage re-enters itself on every tick its exit condition is false: waiting
// for a received byte, polling the allocator, or holding for the transport's
// busy line. Nothing blocks — while a stage waits, the rest of the system
// keeps ticking.
//
// The three variants differ only where the data comes from:
//
//   - Generate draws elements from the pseudo-random source.
//   - Input parses element digits off the serial link.
//   - Display queries an existing slot instead of allocating; its stream
//     and transcript collapse into one read-back pass.
//
// # Error Kinds
//
// Parse rejections and allocation timeouts are recovered state, not Go
// errors: the machine aborts to done with an ErrKind the orchestrator
// exposes for display rendering. The allocator's no-capacity failure never
// surfaces directly — acquire retries every tick and reports ErrAllocTimeout
// when the bounded wait expires.
//
// Tick returns a non-nil error only for protocol violations (port used twice
// in a tick, impossible commits). Those indicate a wiring bug, not a user
// mistake, and the orchestrator logs and aborts the mode.
package controller
