package calc

import (
	"golang.org/x/mod/semver"

	"github.com/kolvan/matrixctl/internal/calc/config"
)

// Version information for the matrix calculator appliance.
const (
	// Version is the current appliance version.
	Version = "1.0.0"

	// VersionMajor is the major version number.
	VersionMajor = 1

	// VersionMinor is the minor version number.
	VersionMinor = 0

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info provides build and compatibility information.
type Info struct {
	// Version is the appliance version string.
	Version string

	// ConfigSchema is the settings schema major this build accepts.
	ConfigSchema string
}

// GetInfo returns version and compatibility information.
func GetInfo() Info {
	return Info{
		Version:      Version,
		ConfigSchema: config.SupportedSchema,
	}
}

// CompatibleWith reports whether a settings schema version (for example
// "v1.2.0") is accepted by this build. Only the major component matters.
func CompatibleWith(schemaVersion string) bool {
	return semver.IsValid(schemaVersion) &&
		semver.Major(schemaVersion) == config.SupportedSchema
}
