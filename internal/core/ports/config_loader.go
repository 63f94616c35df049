package ports

import "go.trai.ch/rig/internal/core/domain"

// ConfigLoader defines the interface for loading target declarations.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the declarations at path and returns the registry. Dangling
	// prerequisites and cycles are reported when a plan touches them.
	// If path is a directory, the declaration file is discovered inside it.
	Load(path string) (*domain.Registry, error)
}
