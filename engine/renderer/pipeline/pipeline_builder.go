package pipeline

import (
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/shader"
)

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithVertexShader sets the vertex shader for this pipeline.
//
// Parameters:
//   - s: the vertex shader to use for this pipeline
//
// Returns:
//   - PipelineBuilderOption: a function that sets the vertex shader for this pipeline
func WithVertexShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexShader = s
	}
}

// WithFragmentShader sets the fragment shader for this pipeline.
//
// Parameters:
//   - s: the assembled fragment shader to use for this pipeline
//
// Returns:
//   - PipelineBuilderOption: a function that sets the fragment shader for this pipeline
func WithFragmentShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentShader = s
	}
}

// WithComponents records the component set the fragment shader was assembled from.
//
// Parameters:
//   - set: the component set snapshot
//
// Returns:
//   - PipelineBuilderOption: a function that sets the components for this pipeline
func WithComponents(set shader.ComponentSet) PipelineBuilderOption {
	return func(p *pipeline) {
		p.components = set
	}
}

// WithCullMode sets the cull mode for this pipeline.
//
// Parameters:
//   - mode: the cull mode to use for this pipeline (e.g., backend.CullModeNone, backend.CullModeBack)
//
// Returns:
//   - PipelineBuilderOption: a function that sets the cull mode for this pipeline
func WithCullMode(mode backend.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

// WithTopology sets the primitive topology for this pipeline.
//
// Parameters:
//   - topology: the primitive topology to use for this pipeline (e.g., backend.PrimitiveTopologyTriangleList)
//
// Returns:
//   - PipelineBuilderOption: a function that sets the primitive topology for this pipeline
func WithTopology(topology backend.PrimitiveTopology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.topology = topology
	}
}

// WithVertexCount sets the number of vertices drawn per frame. The default of 3 draws the
// fullscreen triangle generated by the embedded vertex stage.
//
// Parameters:
//   - n: the vertex count
//
// Returns:
//   - PipelineBuilderOption: a function that sets the vertex count for this pipeline
func WithVertexCount(n uint32) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexCount = n
	}
}
