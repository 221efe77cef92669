// Package build holds build-time information.
package build

// MajorVersion is the manifest format version this engine understands.
// A manifest is only accepted when its version field equals this value.
const MajorVersion uint64 = 1

var (
	// Version is the application version.
	// It defaults to "dev" and can be overwritten by linker flags.
	Version = "dev"
	// Commit is the git commit the binary was built from.
	Commit = "none"
	// Date is the build timestamp.
	Date = "unknown"
)
