package domain

import (
	"runtime"
	"slices"
)

// Platform identifies the operating system family a manifest was compiled for.
type Platform uint64

const (
	// PlatformWindows is the Windows family.
	PlatformWindows Platform = 0
	// PlatformUnix is any Unix-like host.
	PlatformUnix Platform = 1
	// PlatformMac is macOS.
	PlatformMac Platform = 2
	// PlatformFreeBSD is FreeBSD. Manifests targeting it are rejected.
	PlatformFreeBSD Platform = 3
)

// String returns the lower-case platform name.
func (p Platform) String() string {
	switch p {
	case PlatformWindows:
		return "windows"
	case PlatformUnix:
		return "unix"
	case PlatformMac:
		return "mac"
	case PlatformFreeBSD:
		return "freebsd"
	default:
		return "unknown"
	}
}

// Known reports whether p is one of the defined platform codes.
func (p Platform) Known() bool {
	return p <= PlatformFreeBSD
}

// Accepts reports whether a manifest compiled for p may run on host.
// Unix manifests run on every Unix-like host, macOS included.
func (p Platform) Accepts(host Platform) bool {
	switch p {
	case PlatformUnix:
		return host == PlatformUnix || host == PlatformMac || host == PlatformFreeBSD
	case PlatformMac, PlatformWindows:
		return host == p
	default:
		return false
	}
}

// ParsePlatform maps a platform name back to its code.
func ParsePlatform(name string) (Platform, bool) {
	for p := PlatformWindows; p <= PlatformFreeBSD; p++ {
		if p.String() == name {
			return p, true
		}
	}
	return 0, false
}

// HostPlatform returns the platform of the running process.
func HostPlatform() Platform {
	switch runtime.GOOS {
	case "windows":
		return PlatformWindows
	case "darwin":
		return PlatformMac
	case "freebsd":
		return PlatformFreeBSD
	default:
		return PlatformUnix
	}
}

// Manifest is the decoded build description: every declared target keyed by name.
type Manifest struct {
	Platform Platform
	Version  uint64
	// Digest is the xxhash64 of the encoded manifest bytes. Zero for manifests
	// that were never encoded.
	Digest  uint64
	Targets map[InternedString]*Target
}

// NewManifest creates an empty manifest for the given platform and version.
func NewManifest(platform Platform, version uint64) *Manifest {
	return &Manifest{
		Platform: platform,
		Version:  version,
		Targets:  make(map[InternedString]*Target),
	}
}

// Add inserts t, replacing any target with the same name.
// It reports whether a target was replaced.
func (m *Manifest) Add(t *Target) bool {
	_, exists := m.Targets[t.Name]
	m.Targets[t.Name] = t
	return exists
}

// Target looks a target up by name.
func (m *Manifest) Target(name string) (*Target, bool) {
	t, ok := m.Targets[NewInternedString(name)]
	return t, ok
}

// Names returns the declared target names in lexical order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Targets))
	for name := range m.Targets {
		names = append(names, name.String())
	}
	slices.Sort(names)
	return names
}

// Len returns the number of declared targets.
func (m *Manifest) Len() int {
	return len(m.Targets)
}

// DecodeOptions controls how strictly a manifest is decoded.
type DecodeOptions struct {
	// Strict rejects manifests that declare the same target name twice.
	Strict bool
}
