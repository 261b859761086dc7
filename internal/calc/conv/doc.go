// Package conv implements the convolution engine, the appliance's one fully
// specified compute kernel.
//
// The engine performs a valid (no padding, unit stride) 3×3 convolution over
// a source matrix in the shared store: for every output position the nine
// image/kernel tap pairs are multiplied and accumulated sequentially, and
// the low-order byte of the sum — truncated, not saturated — is written to
// the output matrix. Output shape is (rows-2)×(cols-2); inputs smaller than
// 3 on either axis are rejected at Start.
//
// # Tick Model
//
// The store's read port has one cycle of latency, so each tap costs a tick
// pair: one tick latches the image sample, the next reads the kernel tap and
// accumulates. A full output element is 9 tap pairs plus one write tick, 19
// ticks in all. The engine uses at most one store port per tick, which keeps
// it composable with the single-port discipline the orchestrator enforces.
//
// A cycle counter increments on every tick the engine spends actively
// processing, from the tick after Start until the last output write. It is
// telemetry only and resets on the next Start.
//
// After the final write the engine asserts Done and holds it until Start is
// called again or Stop deasserts it.
package conv
