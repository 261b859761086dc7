package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolvan/matrixctl/internal/calc/config"
	"github.com/kolvan/matrixctl/internal/calc/directory"
	"github.com/kolvan/matrixctl/internal/calc/randsrc"
	"github.com/kolvan/matrixctl/internal/calc/serial"
	"github.com/kolvan/matrixctl/internal/calc/store"
)

// rig bundles a full set of collaborators for machine tests.
type rig struct {
	cfg  *config.Settings
	st   *store.Store
	dir  *directory.Directory
	port *serial.LoopbackPort
	deps Deps
}

func newRig(t *testing.T, mutate func(*config.Settings)) *rig {
	t.Helper()
	cfg := config.Defaults()
	if mutate != nil {
		mutate(&cfg)
	}
	st, err := store.New(cfg.StoreCapacity)
	require.NoError(t, err)
	dir, err := directory.New(cfg.SlotCount, cfg.StoreCapacity, cfg.ClassQuota, cfg.EvictionPolicy)
	require.NoError(t, err)
	port := serial.NewLoopback(1)
	r := &rig{cfg: &cfg, st: st, dir: dir, port: port}
	r.deps = Deps{
		Dir:   dir,
		Store: st,
		Port:  port,
		Rand:  randsrc.NewFixed([]uint8{1, 2, 3, 4, 5, 6, 7, 8}),
		Cfg:   &cfg,
	}
	return r
}

// tickUntilDone drives one sub-controller to its terminal state.
func (r *rig) tickUntilDone(t *testing.T, sub interface {
	Tick() error
	Done() bool
}) int {
	t.Helper()
	ticks := 0
	for !sub.Done() {
		r.st.BeginTick()
		r.port.Tick()
		require.NoError(t, sub.Tick())
		ticks++
		require.Less(t, ticks, 10000, "sub-controller never terminated")
	}
	return ticks
}

func TestGenerateHappyPath(t *testing.T) {
	r := newRig(t, nil)
	m := NewMachine(KindGenerate, r.deps)

	r.port.HostWrite([]byte("2 2 "))
	r.tickUntilDone(t, m)

	assert.Equal(t, ErrNone, m.Err())
	assert.Equal(t, "T1 2\r\n3 4\r\n\nD", string(r.port.HostRead()))

	require.Equal(t, 1, r.dir.TotalCount())
	v := r.dir.Query(0)
	require.True(t, v.Valid)
	assert.Equal(t, 2, v.Rows)
	assert.Equal(t, 2, v.Cols)
	assert.Equal(t, []uint8{1, 2, 3, 4}, r.st.PeekRange(v.Addr, v.Addr+4))
	require.NoError(t, r.dir.CheckInvariants())

	s := m.Stats()
	assert.Equal(t, uint64(4), s.Elements)
	assert.Equal(t, uint64(1), s.Completions)
}

func TestGenerateClampsToMaxValue(t *testing.T) {
	r := newRig(t, func(c *config.Settings) { c.MaxValue = 3 })
	r.deps.Rand = randsrc.NewFixed([]uint8{9, 9, 9, 9})
	m := NewMachine(KindGenerate, r.deps)

	r.port.HostWrite([]byte("1 4\r"))
	r.tickUntilDone(t, m)

	v := r.dir.Query(0)
	require.True(t, v.Valid)
	assert.Equal(t, []uint8{3, 3, 3, 3}, r.st.PeekRange(v.Addr, v.Addr+4))
}

func TestInputParsesElements(t *testing.T) {
	r := newRig(t, nil)
	m := NewMachine(KindInput, r.deps)

	// Dims then four element digits; separators inside the element run
	// are tolerated noise.
	r.port.HostWrite([]byte("2 2 12 34"))
	r.tickUntilDone(t, m)

	assert.Equal(t, ErrNone, m.Err())
	v := r.dir.Query(0)
	require.True(t, v.Valid)
	assert.Equal(t, []uint8{1, 2, 3, 4}, r.st.PeekRange(v.Addr, v.Addr+4))
	assert.Equal(t, "T1 2\r\n3 4\r\n\nD", string(r.port.HostRead()))
}

func TestInputClampsElements(t *testing.T) {
	r := newRig(t, func(c *config.Settings) { c.MaxValue = 5 })
	m := NewMachine(KindInput, r.deps)

	r.port.HostWrite([]byte("1 2 79"))
	r.tickUntilDone(t, m)

	v := r.dir.Query(0)
	require.True(t, v.Valid)
	assert.Equal(t, []uint8{5, 5}, r.st.PeekRange(v.Addr, v.Addr+2))
}

func TestDimRangeRejection(t *testing.T) {
	tests := []struct {
		name  string
		bytes string
	}{
		{name: "zero rows", bytes: "0 "},
		{name: "rows above max", bytes: "12 "},
		{name: "zero cols", bytes: "3 0 "},
		{name: "cols above max", bytes: "3 99 "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t, func(c *config.Settings) { c.MaxDimension = 9 })
			m := NewMachine(KindGenerate, r.deps)

			r.port.HostWrite([]byte(tt.bytes))
			r.tickUntilDone(t, m)

			assert.Equal(t, ErrDimRange, m.Err())
			assert.Equal(t, 0, r.dir.TotalCount(), "rejection must not allocate")
			assert.Empty(t, r.port.HostRead(), "no transcript after rejection")
		})
	}
}

func TestAllocTimeoutExactTicks(t *testing.T) {
	const timeout = 17
	r := newRig(t, func(c *config.Settings) {
		c.SlotCount = 1
		c.StoreCapacity = 16
		c.AllocTimeoutTicks = timeout
		c.ClassQuota = 0 // unbounded: eviction can never free the slot
	})
	// Occupy the only slot so every allocate fails.
	require.NoError(t, r.dir.Commit(0, 3, 3, 0))

	m := NewMachine(KindGenerate, r.deps)
	r.port.HostWrite([]byte("2 2 "))
	r.tickUntilDone(t, m)

	assert.Equal(t, ErrAllocTimeout, m.Err())
	assert.Equal(t, uint64(timeout), m.Stats().WaitTicksTotal,
		"timeout must fire after exactly the configured ticks, not before")
}

func TestDisplayRoundTrip(t *testing.T) {
	r := newRig(t, nil)
	gen := NewMachine(KindGenerate, r.deps)
	r.port.HostWrite([]byte("3 3\r"))
	r.tickUntilDone(t, gen)
	genOut := string(r.port.HostRead())
	require.Equal(t, ErrNone, gen.Err())

	disp := NewMachine(KindDisplay, r.deps)
	r.port.HostWrite([]byte("0\r"))
	r.tickUntilDone(t, disp)
	dispOut := string(r.port.HostRead())

	assert.Equal(t, ErrNone, disp.Err())
	assert.Equal(t, genOut, dispOut, "display must reproduce the stored transcript byte for byte")
}

func TestDisplayInvalidSlot(t *testing.T) {
	tests := []struct {
		name  string
		bytes string
	}{
		{name: "never committed", bytes: "3\r"},
		{name: "out of range", bytes: "99\r"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t, nil)
			m := NewMachine(KindDisplay, r.deps)
			r.port.HostWrite([]byte(tt.bytes))
			r.tickUntilDone(t, m)
			assert.Equal(t, ErrDimRange, m.Err())
			assert.Empty(t, r.port.HostRead())
		})
	}
}

func TestResetDiscardsInFlightState(t *testing.T) {
	r := newRig(t, nil)
	m := NewMachine(KindGenerate, r.deps)

	// Park the machine mid-parse, then reset.
	r.port.HostWrite([]byte("2 "))
	for i := 0; i < 8; i++ {
		r.st.BeginTick()
		r.port.Tick()
		require.NoError(t, m.Tick())
	}
	require.Equal(t, StageParseCols, m.Stage())
	m.Reset()
	assert.Equal(t, StageParseRows, m.Stage())
	assert.Equal(t, 0, r.dir.TotalCount(), "nothing committed, nothing durable")

	// The machine works normally after the reset.
	r.port.HostWrite([]byte("1 1 "))
	r.tickUntilDone(t, m)
	assert.Equal(t, ErrNone, m.Err())
	assert.Equal(t, 1, r.dir.TotalCount())
}

func TestBusyGatingThrottlesTranscript(t *testing.T) {
	r := newRig(t, nil)
	// Slow line: each byte holds busy for 4 ticks.
	slow := serial.NewLoopback(4)
	r.deps.Port = slow
	m := NewMachine(KindGenerate, r.deps)

	slow.HostWrite([]byte("1 1 "))
	ticks := r2TickUntilDone(t, r, slow, m)

	out := string(slow.HostRead())
	assert.Equal(t, "T1\r\n\nD", out)
	// 6 bytes at >= 4 ticks each dominates the runtime.
	assert.GreaterOrEqual(t, ticks, 6*4)
}

// r2TickUntilDone is tickUntilDone for a substituted port.
func r2TickUntilDone(t *testing.T, r *rig, port *serial.LoopbackPort, m *Machine) int {
	t.Helper()
	ticks := 0
	for !m.Done() {
		r.st.BeginTick()
		port.Tick()
		require.NoError(t, m.Tick())
		ticks++
		require.Less(t, ticks, 10000)
	}
	return ticks
}

func TestQuotaEvictionEndToEnd(t *testing.T) {
	r := newRig(t, func(c *config.Settings) { c.ClassQuota = 2 })

	for i := 0; i < 3; i++ {
		m := NewMachine(KindGenerate, r.deps)
		r.port.HostWrite([]byte("2 2 "))
		r.tickUntilDone(t, m)
		require.Equal(t, ErrNone, m.Err())
		r.port.HostRead()
	}

	// The third generate evicted in place: population stays at the
	// quota and no new address range was opened.
	assert.Equal(t, 2, r.dir.TotalCount())
	addrs := make(map[int]bool)
	for s := 0; s < r.dir.SlotCount(); s++ {
		if v := r.dir.Query(s); v.Valid {
			addrs[v.Addr] = true
		}
	}
	assert.Equal(t, map[int]bool{0: true, 4: true}, addrs)
	require.NoError(t, r.dir.CheckInvariants())
}
