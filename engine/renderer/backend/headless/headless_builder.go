package headless

import "go.uber.org/zap"

// BackendBuilderOption is a functional option applied to the headless backend by New.
type BackendBuilderOption func(*headlessBackend)

// WithLogger sets the logger used for compile and device events.
//
// Parameters:
//   - logger: the logger to use; nil keeps the no-op default
//
// Returns:
//   - BackendBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) BackendBuilderOption {
	return func(b *headlessBackend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithSize sets the initial surface size reported by Size.
//
// Parameters:
//   - width: width in pixels
//   - height: height in pixels
//
// Returns:
//   - BackendBuilderOption: option function to apply
func WithSize(width, height int) BackendBuilderOption {
	return func(b *headlessBackend) {
		b.width, b.height = width, height
	}
}
