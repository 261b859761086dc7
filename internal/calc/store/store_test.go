package store

import (
	"errors"
	"testing"
)

// TestNew tests capacity validation.
func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		wantErr  bool
	}{
		{name: "positive capacity", capacity: 64, wantErr: false},
		{name: "single element", capacity: 1, wantErr: false},
		{name: "zero capacity", capacity: 0, wantErr: true},
		{name: "negative capacity", capacity: -5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := New(tt.capacity)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%d) error = %v, wantErr %v", tt.capacity, err, tt.wantErr)
			}
			if err == nil && st.Capacity() != tt.capacity {
				t.Errorf("Capacity() = %d, want %d", st.Capacity(), tt.capacity)
			}
		})
	}
}

// TestPortsOncePerTick verifies that each port admits exactly one access
// between BeginTick calls.
func TestPortsOncePerTick(t *testing.T) {
	st, err := New(16)
	if err != nil {
		t.Fatal(err)
	}

	st.BeginTick()
	if err := st.Write(3, 7); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := st.Write(4, 8); !errors.Is(err, ErrWritePortBusy) {
		t.Errorf("second write in same tick: got %v, want ErrWritePortBusy", err)
	}
	if _, err := st.Read(3); err != nil {
		t.Fatalf("read port should be independent of write port: %v", err)
	}
	if _, err := st.Read(3); !errors.Is(err, ErrReadPortBusy) {
		t.Errorf("second read in same tick: got %v, want ErrReadPortBusy", err)
	}

	// Next tick re-arms both ports.
	st.BeginTick()
	v, err := st.Read(3)
	if err != nil {
		t.Fatalf("read after BeginTick failed: %v", err)
	}
	if v != 7 {
		t.Errorf("Read(3) = %d, want 7", v)
	}
	if err := st.Write(4, 8); err != nil {
		t.Fatalf("write after BeginTick failed: %v", err)
	}
}

// TestBounds verifies out-of-range accesses fail without consuming ports.
func TestBounds(t *testing.T) {
	st, _ := New(8)
	st.BeginTick()

	if _, err := st.Read(8); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Read(8) error = %v, want ErrOutOfRange", err)
	}
	if _, err := st.Read(-1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Read(-1) error = %v, want ErrOutOfRange", err)
	}
	if err := st.Write(100, 1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Write(100) error = %v, want ErrOutOfRange", err)
	}

	// A failed bounds check must not burn the port for this tick.
	if _, err := st.Read(0); err != nil {
		t.Errorf("in-range read after failed bounds check: %v", err)
	}
	if err := st.Write(0, 1); err != nil {
		t.Errorf("in-range write after failed bounds check: %v", err)
	}
}

// TestPeek verifies Peek bypasses port accounting.
func TestPeek(t *testing.T) {
	st, _ := New(8)
	st.BeginTick()
	if err := st.Write(2, 42); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		if got := st.Peek(2); got != 42 {
			t.Fatalf("Peek(2) = %d, want 42", got)
		}
	}
	if got := st.Peek(-1); got != 0 {
		t.Errorf("Peek(-1) = %d, want 0", got)
	}

	// Read port must still be armed despite all the peeking.
	if _, err := st.Read(2); err != nil {
		t.Errorf("read after peeks failed: %v", err)
	}
}

// TestPeekRange verifies range clamping.
func TestPeekRange(t *testing.T) {
	st, _ := New(4)
	for i := 0; i < 4; i++ {
		st.BeginTick()
		if err := st.Write(i, uint8(i+1)); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name       string
		start, end int
		want       []uint8
	}{
		{name: "full range", start: 0, end: 4, want: []uint8{1, 2, 3, 4}},
		{name: "middle", start: 1, end: 3, want: []uint8{2, 3}},
		{name: "clamped high", start: 2, end: 100, want: []uint8{3, 4}},
		{name: "clamped low", start: -3, end: 2, want: []uint8{1, 2}},
		{name: "empty", start: 3, end: 3, want: nil},
		{name: "inverted", start: 3, end: 1, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := st.PeekRange(tt.start, tt.end)
			if len(got) != len(tt.want) {
				t.Fatalf("PeekRange(%d,%d) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("PeekRange(%d,%d)[%d] = %d, want %d", tt.start, tt.end, i, got[i], tt.want[i])
				}
			}
		})
	}
}

// TestStats verifies read/write/contention accounting.
func TestStats(t *testing.T) {
	st, _ := New(8)

	st.BeginTick()
	_ = st.Write(0, 1)
	_, _ = st.Read(0)
	_, _ = st.Read(0) // contention
	st.BeginTick()
	_, _ = st.Read(0)

	stats := st.Stats()
	if stats.Writes != 1 {
		t.Errorf("Writes = %d, want 1", stats.Writes)
	}
	if stats.Reads != 2 {
		t.Errorf("Reads = %d, want 2", stats.Reads)
	}
	if stats.Contentions != 1 {
		t.Errorf("Contentions = %d, want 1", stats.Contentions)
	}
}
