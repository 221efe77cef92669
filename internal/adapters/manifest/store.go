package manifest

import (
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/remake/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store implements ports.ManifestStore on the local filesystem.
type Store struct {
	opts []Option
}

// NewStore creates a Store. The options apply to every Load.
func NewStore(opts ...Option) *Store {
	return &Store{opts: opts}
}

// Load reads and decodes the manifest at path.
func (s *Store) Load(path string, opts domain.DecodeOptions) (*domain.Manifest, error) {
	path = filepath.Clean(path)

	//nolint:gosec // Path is provided by the user on the command line
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read manifest"), "path", path)
	}

	parseOpts := append(slices.Clone(s.opts), WithStrict(opts.Strict))
	m, err := Parse(data, parseOpts...)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return m, nil
}

// Save encodes m and writes it to path, creating parent directories.
func (s *Store) Save(path string, m *domain.Manifest) error {
	path = filepath.Clean(path)

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return zerr.Wrap(err, "failed to create directory for manifest")
	}

	//nolint:gosec // Path is provided by the user on the command line
	if err := os.WriteFile(path, Encode(m), 0o644); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write manifest"), "path", path)
	}
	return nil
}
