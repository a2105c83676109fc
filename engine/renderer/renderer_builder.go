package renderer

import (
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/uniform"
	"go.uber.org/zap"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithLogger sets the logger used for rebuild diagnostics. It is passed on to the uniform state.
//
// Parameters:
//   - logger: the logger to use; nil keeps the no-op default
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(logger *zap.Logger) RendererBuilderOption {
	return func(r *renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithUniformOptions forwards options to the uniform state created by NewRenderer.
//
// Parameters:
//   - opts: the uniform state options, e.g. uniform.WithResolution
//
// Returns:
//   - RendererBuilderOption: a function that applies the uniform options to a renderer
func WithUniformOptions(opts ...uniform.UniformStateBuilderOption) RendererBuilderOption {
	return func(r *renderer) {
		r.uniformOptions = append(r.uniformOptions, opts...)
	}
}

// WithPipelineOptions appends options applied to every pipeline the renderer builds.
//
// Parameters:
//   - opts: the pipeline options, e.g. pipeline.WithCullMode
//
// Returns:
//   - RendererBuilderOption: a function that applies the pipeline options to a renderer
func WithPipelineOptions(opts ...pipeline.PipelineBuilderOption) RendererBuilderOption {
	return func(r *renderer) {
		r.pipelineOptions = append(r.pipelineOptions, opts...)
	}
}
