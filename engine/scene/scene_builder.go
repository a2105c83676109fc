package scene

import (
	"github.com/Carmen-Shannon/oxy-noise/engine/loader"
	"go.uber.org/zap"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithLogger sets the logger used for fetch and frame diagnostics.
//
// Parameters:
//   - logger: the logger to use; nil keeps the no-op default
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) SceneBuilderOption {
	return func(s *scene) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithCatalogue sets the fragment names used to validate requests and to cycle selections.
//
// Parameters:
//   - c: the catalogue
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCatalogue(c loader.Catalogue) SceneBuilderOption {
	return func(s *scene) {
		s.catalogue = c
	}
}

// WithEventQueueSize sets how many parameter changes can be queued between two frames.
//
// Parameters:
//   - n: the queue capacity; values below one are ignored
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithEventQueueSize(n int) SceneBuilderOption {
	return func(s *scene) {
		if n > 0 {
			s.eventQueueSize = n
		}
	}
}
