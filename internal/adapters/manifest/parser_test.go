package manifest_test

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/remake/internal/adapters/manifest"
	"go.trai.ch/remake/internal/core/domain"
)

const version = 1

func parse(data []byte, opts ...manifest.Option) (*domain.Manifest, error) {
	opts = append([]manifest.Option{
		manifest.WithHost(domain.PlatformUnix),
		manifest.WithVersion(version),
	}, opts...)
	return manifest.Parse(data, opts...)
}

func sampleManifest() *domain.Manifest {
	m := domain.NewManifest(domain.PlatformUnix, version)
	m.Add(&domain.Target{
		Name:         domain.NewInternedString("app"),
		Dependencies: domain.NewInternedStrings([]string{"lib", "gen"}),
		Commands: []*domain.Command{
			{
				Executable:  "cc",
				Arguments:   []string{"-o", "app", "main.o"},
				Environment: map[string]string{"CC": "clang", "LANG": "C"},
				WorkingDir:  "/src",
			},
			{Executable: "strip", Arguments: []string{"app"}, IgnoreError: true},
		},
	})
	m.Add(&domain.Target{
		Name:         domain.NewInternedString("lib"),
		Dependencies: domain.NewInternedStrings([]string{"gen"}),
		Commands:     []*domain.Command{{Executable: "ar", Arguments: []string{"rcs", "lib.a"}}},
	})
	m.Add(&domain.Target{Name: domain.NewInternedString("gen")})
	return m
}

func TestParse_RoundTrip(t *testing.T) {
	src := sampleManifest()
	data := manifest.Encode(src)

	m, err := parse(data)
	require.NoError(t, err)

	assert.Equal(t, domain.PlatformUnix, m.Platform)
	assert.Equal(t, uint64(version), m.Version)
	assert.Equal(t, xxhash.Sum64(data), m.Digest)
	assert.Equal(t, []string{"app", "gen", "lib"}, m.Names())

	app, ok := m.Target("app")
	require.True(t, ok)
	assert.Equal(t, []string{"lib", "gen"}, domain.Strings(app.Dependencies))
	require.Len(t, app.Commands, 2)
	assert.Equal(t, "cc -o app main.o", app.Commands[0].String())
	assert.Equal(t, map[string]string{"CC": "clang", "LANG": "C"}, app.Commands[0].Environment)
	assert.Equal(t, "/src", app.Commands[0].WorkingDir)
	assert.False(t, app.Commands[0].IgnoreError)
	assert.True(t, app.Commands[1].IgnoreError)

	assert.Equal(t, data, manifest.Encode(m), "re-encoding yields identical bytes")
}

func TestParse_EmptyManifest(t *testing.T) {
	m, err := parse(new(raw).header(domain.PlatformUnix, version).u64(0).b)
	require.NoError(t, err)
	assert.Zero(t, m.Len())
}

func TestParse_BadMagic(t *testing.T) {
	data := new(raw).u64(uint64(domain.PlatformUnix)).u64(version).u64(0).b

	_, err := parse(data)
	pErr := requireParseError(t, err, domain.ErrBadMagic)
	assert.Equal(t, domain.Span{Start: 0, End: 6}, *pErr.Span)
}

func TestParse_TooShortForMagic(t *testing.T) {
	_, err := parse([]byte("rem"))
	requireParseError(t, err, domain.ErrUnexpectedEOF)
}

func TestParse_Platform(t *testing.T) {
	tests := []struct {
		name     string
		platform domain.Platform
		host     domain.Platform
		wantErr  error
	}{
		{"unix on unix", domain.PlatformUnix, domain.PlatformUnix, nil},
		{"unix on mac", domain.PlatformUnix, domain.PlatformMac, nil},
		{"mac on mac", domain.PlatformMac, domain.PlatformMac, nil},
		{"windows on windows", domain.PlatformWindows, domain.PlatformWindows, nil},
		{"windows on unix", domain.PlatformWindows, domain.PlatformUnix, domain.ErrPlatformMismatch},
		{"mac on unix", domain.PlatformMac, domain.PlatformUnix, domain.ErrPlatformMismatch},
		{"unknown code", domain.Platform(7), domain.PlatformUnix, domain.ErrUnknownPlatform},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := new(raw).header(tt.platform, version).u64(0).b

			_, err := parse(data, manifest.WithHost(tt.host))
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			pErr := requireParseError(t, err, tt.wantErr)
			assert.Equal(t, domain.Span{Start: 6, End: 14}, *pErr.Span)
		})
	}
}

func TestParse_FreeBSDIsFatal(t *testing.T) {
	data := new(raw).header(domain.PlatformFreeBSD, version).u64(0).b

	_, err := parse(data, manifest.WithHost(domain.PlatformFreeBSD))
	require.ErrorIs(t, err, domain.ErrUnsupportedPlatform)

	var pErr *domain.ParseError
	assert.NotErrorAs(t, err, &pErr)
}

func TestParse_VersionMismatch(t *testing.T) {
	data := new(raw).header(domain.PlatformUnix, version+1).u64(0).b

	_, err := parse(data)
	pErr := requireParseError(t, err, domain.ErrVersionMismatch)
	assert.Equal(t, domain.Span{Start: 14, End: 22}, *pErr.Span)
}

func TestParse_TrailingData(t *testing.T) {
	data := new(raw).header(domain.PlatformUnix, version).u64(0).bytes(0xAA).b

	_, err := parse(data)
	pErr := requireParseError(t, err, domain.ErrTrailingData)
	assert.Equal(t, domain.Span{Start: 30, End: 31}, *pErr.Span)
}

func TestParse_Truncated(t *testing.T) {
	full := manifest.Encode(sampleManifest())

	for _, cut := range []int{len(full) - 1, len(full) / 2, 23} {
		_, err := parse(full[:cut])
		requireParseError(t, err, domain.ErrUnexpectedEOF)
	}
}

func TestParse_DuplicateTargets(t *testing.T) {
	data := new(raw).header(domain.PlatformUnix, version).u64(2).
		str("x").strs().u64(1).command("echo", false, "first").
		str("x").strs("y").u64(1).command("echo", false, "second").b

	t.Run("last write wins", func(t *testing.T) {
		m, err := parse(data)
		require.NoError(t, err)
		x, ok := m.Target("x")
		require.True(t, ok)
		assert.Equal(t, "echo second", x.Commands[0].String())
		assert.Equal(t, []string{"y"}, domain.Strings(x.Dependencies))
	})

	t.Run("strict", func(t *testing.T) {
		_, err := parse(data, manifest.WithStrict(true))
		requireParseError(t, err, domain.ErrDuplicateTarget)
	})
}

func TestParse_UndeclaredDependencyIsAccepted(t *testing.T) {
	data := new(raw).header(domain.PlatformUnix, version).u64(1).
		str("x").strs("y").u64(0).b

	m, err := parse(data)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
}

func TestParse_IgnoreErrorByte(t *testing.T) {
	data := new(raw).header(domain.PlatformUnix, version).u64(1).
		str("x").strs().u64(1).
		str("false").strs().bytes(0x7f).u64(0).str("").b

	m, err := parse(data)
	require.NoError(t, err)
	x, _ := m.Target("x")
	assert.True(t, x.Commands[0].IgnoreError)
}
