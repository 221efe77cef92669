package ports

import "go.trai.ch/remake/internal/core/domain"

// ManifestStore reads and writes compiled binary manifests.
//
//go:generate mockgen -source=manifest_store.go -destination=mocks/mock_manifest_store.go -package=mocks
type ManifestStore interface {
	// Load decodes the manifest at path.
	// Decoding failures are returned as *domain.ParseError.
	Load(path string, opts domain.DecodeOptions) (*domain.Manifest, error)

	// Save encodes m and writes it to path.
	Save(path string, m *domain.Manifest) error
}
