package ports

import "go.trai.ch/remake/internal/core/domain"

// ConfigLoader loads a human-written build source and compiles it into a manifest.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the build source at path and returns the equivalent manifest.
	Load(path string) (*domain.Manifest, error)
}
