package uniform

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// UniformStateBuilderOption is a functional option applied to the state by NewUniformState.
type UniformStateBuilderOption func(*uniformState)

// WithLogger sets the logger used for upload diagnostics.
//
// Parameters:
//   - logger: the logger to use; nil keeps the no-op default
//
// Returns:
//   - UniformStateBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) UniformStateBuilderOption {
	return func(s *uniformState) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithResolution sets the initial framebuffer size.
//
// Parameters:
//   - res: the size in pixels as (width, height)
//
// Returns:
//   - UniformStateBuilderOption: option function to apply
func WithResolution(res mgl32.Vec2) UniformStateBuilderOption {
	return func(s *uniformState) {
		s.block.Resolution = [2]float32(res)
	}
}
