package serial

import (
	"errors"
	"testing"
)

// TestReceiveStaging verifies one byte is staged per tick and Recv consumes it.
func TestReceiveStaging(t *testing.T) {
	p := NewLoopback(1)
	p.HostWrite([]byte("ab"))

	if p.ByteReady() {
		t.Fatal("byte ready before any tick")
	}

	p.Tick()
	if !p.ByteReady() {
		t.Fatal("byte not ready after tick")
	}
	b, ok := p.Recv()
	if !ok || b != 'a' {
		t.Fatalf("Recv() = (%q, %v), want ('a', true)", b, ok)
	}
	if p.ByteReady() {
		t.Error("byte still ready after Recv")
	}

	// Second byte needs another tick to stage.
	if _, ok := p.Recv(); ok {
		t.Error("Recv succeeded with nothing staged")
	}
	p.Tick()
	b, ok = p.Recv()
	if !ok || b != 'b' {
		t.Fatalf("Recv() = (%q, %v), want ('b', true)", b, ok)
	}
}

// TestBusyGate verifies the transmit busy window and the rejection path.
func TestBusyGate(t *testing.T) {
	p := NewLoopback(3)

	if p.Busy() {
		t.Fatal("port busy before any send")
	}
	if err := p.Send('x'); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if !p.Busy() {
		t.Fatal("port not busy right after Send")
	}
	if err := p.Send('y'); !errors.Is(err, ErrBusy) {
		t.Fatalf("Send while busy: got %v, want ErrBusy", err)
	}

	// Busy holds for exactly 3 ticks.
	for i := 0; i < 2; i++ {
		p.Tick()
		if !p.Busy() {
			t.Fatalf("port went idle after %d ticks, want 3", i+1)
		}
	}
	p.Tick()
	if p.Busy() {
		t.Fatal("port still busy after 3 ticks")
	}

	if err := p.Send('y'); err != nil {
		t.Fatalf("Send after busy window failed: %v", err)
	}
	got := string(p.HostRead())
	if got != "xy" {
		t.Errorf("HostRead() = %q, want %q", got, "xy")
	}
}

// TestBusyTicksClamp verifies busyTicks < 1 is clamped to 1.
func TestBusyTicksClamp(t *testing.T) {
	p := NewLoopback(0)
	if err := p.Send('a'); err != nil {
		t.Fatal(err)
	}
	if !p.Busy() {
		t.Fatal("zero-latency port must still assert busy for one tick")
	}
	p.Tick()
	if p.Busy() {
		t.Fatal("port busy after one tick with clamped latency")
	}
}

// TestHostReadDrains verifies HostRead consumes the transmit buffer.
func TestHostReadDrains(t *testing.T) {
	p := NewLoopback(1)
	_ = p.Send('1')
	p.Tick()
	_ = p.Send('2')

	if got := string(p.HostRead()); got != "12" {
		t.Fatalf("first HostRead() = %q, want %q", got, "12")
	}
	if got := p.HostRead(); len(got) != 0 {
		t.Errorf("second HostRead() = %q, want empty", got)
	}
}

// TestStats verifies byte and rejection accounting.
func TestStats(t *testing.T) {
	p := NewLoopback(2)
	p.HostWrite([]byte("zz"))
	p.Tick()
	_, _ = p.Recv()

	_ = p.Send('a')
	_ = p.Send('b') // rejected, busy

	stats := p.Stats()
	if stats.BytesIn != 1 {
		t.Errorf("BytesIn = %d, want 1", stats.BytesIn)
	}
	if stats.BytesOut != 1 {
		t.Errorf("BytesOut = %d, want 1", stats.BytesOut)
	}
	if stats.BusyRejects != 1 {
		t.Errorf("BusyRejects = %d, want 1", stats.BusyRejects)
	}
	if p.PendingIn() != 1 {
		t.Errorf("PendingIn() = %d, want 1", p.PendingIn())
	}
}
