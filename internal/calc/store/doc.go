// Package store models the appliance's shared element memory.
//
// The store is a flat, fixed-capacity array of byte-wide elements sitting
// behind exactly one read port and one write port. Each port accepts at most
// one access per tick; the orchestrator grants both ports to a single owner
// at a time and re-arms them at the start of every tick.
//
// # Port Discipline
//
// Hardware has one read port and one write port, period. The Go model keeps
// that honest: Read and Write fail with ErrReadPortBusy/ErrWritePortBusy when
// a port is used twice between BeginTick calls. Components that respect the
// tick protocol never see these errors; seeing one in a test means two state
// machines touched the store in the same tick, which the orchestrator is
// supposed to make impossible.
//
// # Usage
//
//	st, err := store.New(1024)
//	...
//	st.BeginTick()
//	v, err := st.Read(addr)      // ok
//	err = st.Write(addr+1, v)    // ok, separate port
//	_, err = st.Read(addr + 2)   // ErrReadPortBusy until next BeginTick
//
// Peek bypasses the read port entirely. It exists for telemetry snapshots
// and tests and must never appear on a device data path.
package store
