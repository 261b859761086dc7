// Package config holds the appliance settings produced by setting mode and
// consumed by every other component.
//
// Settings come from three layers, lowest priority first: built-in reset
// defaults, an optional YAML file, and live updates applied by the setting
// sub-controller over the serial link. The YAML schema carries a semver
// schema version; files whose major version differs from the supported
// schema are rejected before any field is looked at.
package config

import (
	"fmt"
	"os"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// SupportedSchema is the schema major version this build understands.
const SupportedSchema = "v1"

// Eviction policy names accepted in EvictionPolicy.
const (
	// PolicyRoundRobin cycles through a dimension class's slots with a
	// per-class cursor. This is the canonical policy.
	PolicyRoundRobin = "round-robin"

	// PolicyFIFO evicts the class member with the oldest commit stamp.
	PolicyFIFO = "fifo"
)

// Settings is the full configuration surface of the appliance core.
type Settings struct {
	// SchemaVersion identifies the config schema, e.g. "v1.0.0".
	SchemaVersion string `yaml:"schema"`

	// MaxDimension is the largest accepted rows/cols value (1..15).
	MaxDimension int `yaml:"max_dimension"`

	// MaxValue is the largest element value (1..9). Transcripts render
	// elements as single decimal digits, so 9 is the hard ceiling.
	MaxValue int `yaml:"max_value"`

	// ClassQuota bounds the number of live matrices per dimension class.
	// Zero disables the quota entirely.
	ClassQuota int `yaml:"class_quota"`

	// AllocTimeoutTicks bounds how many ticks a sub-controller waits for
	// an allocation before aborting with an allocation timeout.
	AllocTimeoutTicks int `yaml:"alloc_timeout_ticks"`

	// SlotCount is the fixed size of the slot directory.
	SlotCount int `yaml:"slot_count"`

	// StoreCapacity is the shared store size in elements.
	StoreCapacity int `yaml:"store_capacity"`

	// EvictionPolicy selects the victim policy: PolicyRoundRobin or
	// PolicyFIFO.
	EvictionPolicy string `yaml:"eviction_policy"`

	// ErrorHoldTicks is how long the orchestrator keeps an error code
	// visible before auto-recovering to mode select.
	ErrorHoldTicks int `yaml:"error_hold_ticks"`

	// Seed seeds the pseudo-random value source. Zero means "use the
	// built-in constant".
	Seed uint64 `yaml:"seed"`
}

// Defaults returns the built-in reset values.
func Defaults() Settings {
	return Settings{
		SchemaVersion:     "v1.0.0",
		MaxDimension:      9,
		MaxValue:          9,
		ClassQuota:        2,
		AllocTimeoutTicks: 64,
		SlotCount:         16,
		StoreCapacity:     1024,
		EvictionPolicy:    PolicyRoundRobin,
		ErrorHoldTicks:    32,
		Seed:              0,
	}
}

// LoadFile reads a YAML settings file layered over Defaults and validates
// the result. Fields absent from the file keep their default values.
func LoadFile(path string) (Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes YAML settings layered over Defaults and validates them.
func Parse(raw []byte) (Settings, error) {
	s := Defaults()
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Settings{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks field ranges and the schema version gate.
func (s Settings) Validate() error {
	if !semver.IsValid(s.SchemaVersion) {
		return fmt.Errorf("config: schema version %q is not valid semver", s.SchemaVersion)
	}
	if major := semver.Major(s.SchemaVersion); major != SupportedSchema {
		return fmt.Errorf("config: schema %s not supported (want %s.x)", major, SupportedSchema)
	}
	if s.MaxDimension < 1 || s.MaxDimension > 15 {
		return fmt.Errorf("config: max_dimension %d outside 1..15", s.MaxDimension)
	}
	if s.MaxValue < 1 || s.MaxValue > 9 {
		return fmt.Errorf("config: max_value %d outside 1..9", s.MaxValue)
	}
	if s.ClassQuota < 0 {
		return fmt.Errorf("config: class_quota %d is negative", s.ClassQuota)
	}
	if s.AllocTimeoutTicks < 1 {
		return fmt.Errorf("config: alloc_timeout_ticks %d must be positive", s.AllocTimeoutTicks)
	}
	if s.SlotCount < 1 || s.SlotCount > 64 {
		return fmt.Errorf("config: slot_count %d outside 1..64", s.SlotCount)
	}
	if s.StoreCapacity < 1 {
		return fmt.Errorf("config: store_capacity %d must be positive", s.StoreCapacity)
	}
	if s.EvictionPolicy != PolicyRoundRobin && s.EvictionPolicy != PolicyFIFO {
		return fmt.Errorf("config: eviction_policy %q unknown (want %q or %q)",
			s.EvictionPolicy, PolicyRoundRobin, PolicyFIFO)
	}
	if s.ErrorHoldTicks < 0 {
		return fmt.Errorf("config: error_hold_ticks %d is negative", s.ErrorHoldTicks)
	}
	return nil
}
