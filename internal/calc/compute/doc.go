// Package compute implements the compute controller: operand selection,
// operation dispatch, and the drive loop for the convolution engine.
//
// A compute session parses an image slot, a one-letter operation code, and
// — for convolution — a kernel slot off the serial link, validates the
// operands against the directory, acquires an output matrix under the same
// bounded-wait rules as the streaming controllers, runs the engine to
// completion one tick at a time, commits the result, and transcribes it
// with the result marker.
//
// The operation table carries five entries (transpose, add, scalar,
// multiply, convolve) but only convolve has defined semantics. Selecting
// any other entry aborts the session immediately with a range error; the
// placeholders never produce wrong output.
//
// Output allocation has one hazard the streaming controllers don't: when
// the output's dimension class is at quota, eviction may pick the very slot
// holding the image or the kernel. Overwriting an operand mid-read is never
// acceptable, so such placements are treated as failed attempts and retried
// until the bounded wait expires — the user sees an allocation timeout.
package compute
