package controller

import (
	"fmt"

	"github.com/kolvan/matrixctl/internal/calc/serial"
	"github.com/kolvan/matrixctl/internal/calc/store"
)

// Framing marker bytes on the serial link.
const (
	// MarkerTable opens every matrix transcript.
	MarkerTable = 'T'

	// MarkerDone closes store/display transcripts.
	MarkerDone = 'D'

	// MarkerResult closes compute-result transcripts.
	MarkerResult = 'R'
)

// Transcript streams a stored matrix over the serial link, one byte per
// tick, gated on the transport's busy line.
//
// Wire format: the table-start marker, then each row as single-digit
// elements separated by single spaces and terminated by CR LF, then one
// extra LF, then the completion marker. Elements render as their low
// decimal digit; stored values are below ten by construction everywhere
// except compute results, whose truncated bytes render truncated again.
//
// Each element costs one store read-port access, taken in the same tick
// its digit byte is sent; the separator and framing bytes that follow are
// flushed on later ticks without touching the store.
type Transcript struct {
	st   *store.Store
	port serial.Port

	rows, cols, addr int
	marker           byte

	// pending holds bytes queued behind the one sent this tick.
	pending []byte

	started  bool
	row, col int
	done     bool
}

// NewTranscript creates a transcript of the rows×cols matrix at addr,
// closed by the given completion marker.
func NewTranscript(st *store.Store, port serial.Port, rows, cols, addr int, marker byte) *Transcript {
	return &Transcript{st: st, port: port, rows: rows, cols: cols, addr: addr, marker: marker}
}

// Done reports whether every byte including the completion marker went out.
func (tr *Transcript) Done() bool {
	return tr.done
}

// Tick emits at most one byte. It holds (emitting nothing) while the
// transport is busy.
func (tr *Transcript) Tick() error {
	if tr.done || tr.port.Busy() {
		return nil
	}

	if len(tr.pending) == 0 {
		if err := tr.refill(); err != nil {
			return err
		}
	}
	b := tr.pending[0]
	tr.pending = tr.pending[1:]
	if err := tr.port.Send(b); err != nil {
		return fmt.Errorf("controller: transcript send: %w", err)
	}
	if len(tr.pending) == 0 && tr.started && tr.row == tr.rows {
		tr.done = true
	}
	return nil
}

// refill queues the next run of bytes: the start marker, or one element
// digit plus the separators and framing that follow it.
func (tr *Transcript) refill() error {
	if !tr.started {
		tr.started = true
		tr.pending = []byte{MarkerTable}
		return nil
	}

	v, err := tr.st.Read(tr.addr + tr.row*tr.cols + tr.col)
	if err != nil {
		return fmt.Errorf("controller: transcript element (%d,%d): %w", tr.row, tr.col, err)
	}
	digit := byte('0' + v%10)

	last := tr.row == tr.rows-1 && tr.col == tr.cols-1
	switch {
	case last:
		tr.pending = []byte{digit, '\r', '\n', '\n', tr.marker}
	case tr.col == tr.cols-1:
		tr.pending = []byte{digit, '\r', '\n'}
	default:
		tr.pending = []byte{digit, ' '}
	}

	tr.col++
	if tr.col == tr.cols {
		tr.col = 0
		tr.row++
	}
	return nil
}
