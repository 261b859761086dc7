// Package serial defines the byte transport contract between the appliance
// core and the host link.
//
// The physical link (baud rate, start/stop bits, voltage levels) is an
// external collaborator. The core only ever sees four signals:
//
//   - a "byte ready" flag with a consuming receive,
//   - a "busy" flag that holds while a transmit is in flight,
//   - a transmit start that accepts one byte when not busy,
//   - a per-tick clock edge.
//
// Port captures exactly those signals. LoopbackPort is the in-memory
// implementation used by tests, the examples, and the CLI host adapter:
// the host side pushes bytes in and drains transmitted bytes out, while
// the device side sees the same ready/busy protocol real hardware gives it.
package serial
