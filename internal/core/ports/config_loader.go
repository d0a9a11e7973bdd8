package ports

import "go.trai.ch/knob/internal/core/domain"

// ConfigLoader defines the interface for loading the knob configuration.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration at path. An empty path searches upwards from the working
	// directory for knob.yaml and falls back to defaults when none exists.
	Load(path string) (*domain.Config, error)
}
