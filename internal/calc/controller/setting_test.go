package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingAppliesParameters(t *testing.T) {
	r := newRig(t, nil)
	s := NewSetting(r.deps)

	r.port.HostWrite([]byte("7 8 3 "))
	r.tickUntilDone(t, s)

	assert.Equal(t, ErrNone, s.Err())
	assert.Equal(t, 7, r.cfg.MaxDimension)
	assert.Equal(t, 8, r.cfg.MaxValue)
	assert.Equal(t, 3, r.cfg.ClassQuota)
	assert.Equal(t, 3, r.dir.Quota(), "directory quota must track the setting")
	assert.Equal(t, "D", string(r.port.HostRead()))
}

func TestSettingZeroQuotaDisables(t *testing.T) {
	r := newRig(t, nil)
	s := NewSetting(r.deps)

	r.port.HostWrite([]byte("9 9 0 "))
	r.tickUntilDone(t, s)

	assert.Equal(t, ErrNone, s.Err())
	assert.Equal(t, 0, r.dir.Quota())
}

func TestSettingRejectsAtomically(t *testing.T) {
	tests := []struct {
		name  string
		bytes string
	}{
		{name: "zero max dimension", bytes: "0 9 2 "},
		{name: "max dimension over 15", bytes: "16 9 2 "},
		{name: "zero max value", bytes: "9 0 2 "},
		{name: "max value over 9", bytes: "9 10 2 "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t, nil)
			before := *r.cfg
			s := NewSetting(r.deps)

			r.port.HostWrite([]byte(tt.bytes))
			r.tickUntilDone(t, s)

			assert.Equal(t, ErrDimRange, s.Err())
			assert.Equal(t, before, *r.cfg, "rejected runs must not change configuration")
			assert.Empty(t, r.port.HostRead(), "no done marker after rejection")
		})
	}
}

func TestSettingReset(t *testing.T) {
	r := newRig(t, nil)
	s := NewSetting(r.deps)

	r.port.HostWrite([]byte("7 "))
	for i := 0; i < 6; i++ {
		r.st.BeginTick()
		r.port.Tick()
		require.NoError(t, s.Tick())
	}
	s.Reset()

	r.port.HostWrite([]byte("5 5 1 "))
	r.tickUntilDone(t, s)
	assert.Equal(t, 5, r.cfg.MaxDimension)
	assert.Equal(t, 1, r.cfg.ClassQuota)
}

func TestSettingConfigIsShared(t *testing.T) {
	// A machine created before the setting run must observe the new
	// limits: configuration is shared live state.
	r := newRig(t, nil)
	m := NewMachine(KindGenerate, r.deps)

	s := NewSetting(r.deps)
	r.port.HostWrite([]byte("4 9 2 "))
	r.tickUntilDone(t, s)
	r.port.HostRead()

	m.Reset()
	r.port.HostWrite([]byte("5 5 ")) // above the new max of 4
	r.tickUntilDone(t, m)
	assert.Equal(t, ErrDimRange, m.Err())
}
