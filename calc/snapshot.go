package calc

import (
	"fmt"

	"github.com/sugawarayuuta/sonnet"
)

// SettingsSnapshot is the live configuration at capture time.
type SettingsSnapshot struct {
	SchemaVersion  string `json:"schemaVersion"`
	MaxDimension   int    `json:"maxDimension"`
	MaxValue       int    `json:"maxValue"`
	ClassQuota     int    `json:"classQuota"`
	AllocTimeout   int    `json:"allocTimeoutTicks"`
	SlotCount      int    `json:"slotCount"`
	StoreCapacity  int    `json:"storeCapacity"`
	EvictionPolicy string `json:"evictionPolicy"`
	ErrorHoldTicks int    `json:"errorHoldTicks"`
}

// MatrixSnapshot is one committed matrix.
type MatrixSnapshot struct {
	Slot     int     `json:"slot"`
	Rows     int     `json:"rows"`
	Cols     int     `json:"cols"`
	Addr     int     `json:"addr"`
	Stamp    uint64  `json:"stamp"`
	Elements []uint8 `json:"elements"`
}

// Telemetry aggregates the counters of every component.
type Telemetry struct {
	StoreReads       uint64 `json:"storeReads"`
	StoreWrites      uint64 `json:"storeWrites"`
	StoreContentions uint64 `json:"storeContentions"`

	SerialBytesIn     uint64 `json:"serialBytesIn"`
	SerialBytesOut    uint64 `json:"serialBytesOut"`
	SerialBusyRejects uint64 `json:"serialBusyRejects"`

	FreshAllocs      uint64 `json:"freshAllocs"`
	Evictions        uint64 `json:"evictions"`
	Commits          uint64 `json:"commits"`
	CapacityFailures uint64 `json:"capacityFailures"`

	ConvMACs    uint64 `json:"convMACs"`
	ConvOutputs uint64 `json:"convOutputs"`
	ConvRuns    uint64 `json:"convRuns"`

	Sessions    uint64 `json:"sessions"`
	Completions uint64 `json:"completions"`
	Aborts      uint64 `json:"aborts"`
	Cancels     uint64 `json:"cancels"`
}

// Snapshot is the full observable state of an appliance.
type Snapshot struct {
	Version        string           `json:"version"`
	Tick           uint64           `json:"tick"`
	Mode           string           `json:"mode"`
	DisplayedError string           `json:"displayedError,omitempty"`
	Settings       SettingsSnapshot `json:"settings"`
	Matrices       []MatrixSnapshot `json:"matrices"`
	Telemetry      Telemetry        `json:"telemetry"`
}

// Snapshot captures the appliance's current state. The element ranges are
// read through the store's side channel, not its access ports, so capture
// never perturbs port accounting.
func (a *Appliance) Snapshot() Snapshot {
	snap := Snapshot{
		Version:        Version,
		Tick:           a.orch.TickCount(),
		Mode:           a.orch.Mode().String(),
		DisplayedError: a.DisplayedError(),
		Settings: SettingsSnapshot{
			SchemaVersion:  a.cfg.SchemaVersion,
			MaxDimension:   a.cfg.MaxDimension,
			MaxValue:       a.cfg.MaxValue,
			ClassQuota:     a.cfg.ClassQuota,
			AllocTimeout:   a.cfg.AllocTimeoutTicks,
			SlotCount:      a.cfg.SlotCount,
			StoreCapacity:  a.cfg.StoreCapacity,
			EvictionPolicy: a.cfg.EvictionPolicy,
			ErrorHoldTicks: a.cfg.ErrorHoldTicks,
		},
	}

	for i, s := range a.dir.Slots() {
		if !s.Valid {
			continue
		}
		snap.Matrices = append(snap.Matrices, MatrixSnapshot{
			Slot:     i,
			Rows:     s.Rows,
			Cols:     s.Cols,
			Addr:     s.Start,
			Stamp:    s.Stamp,
			Elements: a.st.PeekRange(s.Start, s.End),
		})
	}

	ss, ds, ps := a.st.Stats(), a.dir.Stats(), a.port.Stats()
	es, os := a.comp.EngineStats(), a.orch.Stats()
	snap.Telemetry = Telemetry{
		StoreReads:       ss.Reads,
		StoreWrites:      ss.Writes,
		StoreContentions: ss.Contentions,

		SerialBytesIn:     ps.BytesIn,
		SerialBytesOut:    ps.BytesOut,
		SerialBusyRejects: ps.BusyRejects,

		FreshAllocs:      ds.FreshAllocs,
		Evictions:        ds.Evictions,
		Commits:          ds.Commits,
		CapacityFailures: ds.CapacityFailures,

		ConvMACs:    es.MACs,
		ConvOutputs: es.Outputs,
		ConvRuns:    es.Runs,

		Sessions:    os.Sessions,
		Completions: os.Completions,
		Aborts:      os.Aborts,
		Cancels:     os.Cancels,
	}
	return snap
}

// MarshalSnapshot renders the current snapshot as JSON.
func (a *Appliance) MarshalSnapshot() ([]byte, error) {
	b, err := sonnet.Marshal(a.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("calc: snapshot: %w", err)
	}
	return b, nil
}
