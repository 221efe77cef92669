package manifest

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/remake/internal/build"
	"go.trai.ch/remake/internal/core/domain"
	"go.trai.ch/zerr"
)

// Magic is the tag every manifest starts with.
const Magic = "remake"

type decoder struct {
	r       *Reader
	host    domain.Platform
	version uint64
	strict  bool
}

// Option configures Parse.
type Option func(*decoder)

// WithHost overrides the platform the manifest is checked against.
func WithHost(p domain.Platform) Option {
	return func(d *decoder) { d.host = p }
}

// WithVersion overrides the major version the manifest must carry.
func WithVersion(v uint64) Option {
	return func(d *decoder) { d.version = v }
}

// WithStrict rejects manifests that declare a target name more than once.
func WithStrict(strict bool) Option {
	return func(d *decoder) { d.strict = strict }
}

// Parse decodes a complete manifest. The whole input must be consumed.
//
// Malformed input is reported as *domain.ParseError. A manifest compiled for
// FreeBSD is refused with domain.ErrUnsupportedPlatform instead.
func Parse(data []byte, opts ...Option) (*domain.Manifest, error) {
	d := &decoder{
		r:       NewReader(data),
		host:    domain.HostPlatform(),
		version: build.MajorVersion,
	}
	for _, opt := range opts {
		opt(d)
	}

	if err := d.magic(); err != nil {
		return nil, err
	}
	platform, err := d.platform()
	if err != nil {
		return nil, err
	}
	version, err := d.majorVersion()
	if err != nil {
		return nil, err
	}

	m := domain.NewManifest(platform, version)
	if err := d.targets(m); err != nil {
		return nil, err
	}

	if !d.r.AtEnd() {
		span := domain.NewSpan(d.r.Offset(), uint64(len(data)))
		return nil, domain.NewParseError(domain.ErrTrailingData, span,
			fmt.Sprintf("%d unexpected bytes after the last target", d.r.Remaining()))
	}

	m.Digest = xxhash.Sum64(data)
	return m, nil
}

func (d *decoder) magic() error {
	tag, err := d.r.Read(uint64(len(Magic)))
	if err != nil {
		return err
	}
	if string(tag) != Magic {
		return domain.NewParseError(domain.ErrBadMagic, domain.NewSpan(0, uint64(len(Magic))),
			"missing the `remake` magic tag")
	}
	return nil
}

func (d *decoder) platform() (domain.Platform, error) {
	start := d.r.Offset()
	code, err := d.r.ReadU64()
	if err != nil {
		return 0, err
	}
	span := domain.NewSpan(start, d.r.Offset())

	p := domain.Platform(code)
	switch {
	case !p.Known():
		return 0, domain.NewParseError(domain.ErrUnknownPlatform, span,
			fmt.Sprintf("platform number %d is unknown", code))
	case p == domain.PlatformFreeBSD:
		err := zerr.Wrap(domain.ErrUnsupportedPlatform, "refusing to run a manifest compiled for freebsd")
		return 0, zerr.With(err, "platform", p.String())
	case !p.Accepts(d.host):
		return 0, domain.NewParseError(domain.ErrPlatformMismatch, span,
			fmt.Sprintf("manifest targets %s but the host is %s", p, d.host))
	}
	return p, nil
}

func (d *decoder) majorVersion() (uint64, error) {
	start := d.r.Offset()
	v, err := d.r.ReadU64()
	if err != nil {
		return 0, err
	}
	if v != d.version {
		return 0, domain.NewParseError(domain.ErrVersionMismatch, domain.NewSpan(start, d.r.Offset()),
			fmt.Sprintf("manifest version %d does not match engine version %d", v, d.version))
	}
	return v, nil
}

func (d *decoder) targets(m *domain.Manifest) error {
	count, err := d.r.ReadU64()
	if err != nil {
		return err
	}
	for range count {
		name, span, err := d.r.readString()
		if err != nil {
			return err
		}
		t, err := d.target(name)
		if err != nil {
			return err
		}
		if m.Add(t) && d.strict {
			return domain.NewParseError(domain.ErrDuplicateTarget, span,
				fmt.Sprintf("target %q is declared more than once", name))
		}
	}
	return nil
}

func (d *decoder) target(name string) (*domain.Target, error) {
	deps, err := d.r.ReadStringArray()
	if err != nil {
		return nil, err
	}
	count, err := d.r.ReadU64()
	if err != nil {
		return nil, err
	}

	t := &domain.Target{
		Name:         domain.NewInternedString(name),
		Dependencies: domain.NewInternedStrings(deps),
		Commands:     make([]*domain.Command, 0, d.r.capacity(count, minCommandSize)),
	}
	for range count {
		cmd, err := d.command()
		if err != nil {
			return nil, err
		}
		t.Commands = append(t.Commands, cmd)
	}
	return t, nil
}

// minCommandSize is the encoded size of a command with every field empty.
const minCommandSize = minStringSize + u64Size + 1 + u64Size + minStringSize

func (d *decoder) command() (*domain.Command, error) {
	executable, err := d.r.ReadString()
	if err != nil {
		return nil, err
	}
	args, err := d.r.ReadStringArray()
	if err != nil {
		return nil, err
	}
	ignore, err := d.r.ReadBool()
	if err != nil {
		return nil, err
	}
	env, err := d.r.ReadStringMap()
	if err != nil {
		return nil, err
	}
	wd, err := d.r.ReadString()
	if err != nil {
		return nil, err
	}
	return &domain.Command{
		Executable:  executable,
		Arguments:   args,
		IgnoreError: ignore,
		Environment: env,
		WorkingDir:  wd,
	}, nil
}
