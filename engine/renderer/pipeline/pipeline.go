package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/shader"
)

// Key returns the pipeline key for a component set: "<hash>+<noise>#<generation>".
func Key(set shader.ComponentSet) string {
	return fmt.Sprintf("%s+%s#%d", set.Hash.Name, set.Noise.Name, set.Generation)
}

// pipeline is the implementation of the Pipeline interface.
// It holds the backend handles of one linked noise pipeline together with the component set it was built from.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for logging and lookups
	pipelineKey string

	vertexShader, fragmentShader shader.Shader

	// components is the snapshot the fragment stage was assembled from
	components shader.ComponentSet

	// renderPipeline is the linked pipeline, nil until SetRenderPipeline
	renderPipeline backend.RenderPipeline
	// fragmentModule is owned by this pipeline; the vertex module is shared and is not
	fragmentModule backend.ShaderModule

	cullMode    backend.CullMode
	topology    backend.PrimitiveTopology
	vertexCount uint32
}

// Pipeline defines the interface for a linked noise render pipeline. It pairs the shared vertex
// stage with a fragment stage assembled from one hash and one noise fragment, and owns the backend
// handles created for that fragment stage.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader associated with the specified type if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the type of shader to retrieve (vertex or fragment)
	//
	// Returns:
	//   - shader.Shader: the shader associated with the specified type, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// Pipeline returns the underlying backend pipeline handle.
	//
	// Returns:
	//   - backend.RenderPipeline: the linked pipeline, or nil if not built yet
	Pipeline() backend.RenderPipeline

	// FragmentModule returns the compiled fragment module owned by this pipeline.
	FragmentModule() backend.ShaderModule

	// Components returns the component set the fragment stage was assembled from.
	Components() shader.ComponentSet

	// HashName returns the name of the hash fragment.
	HashName() string

	// NoiseName returns the name of the noise fragment.
	NoiseName() string

	// Arity returns the hash arity the glue was chosen for.
	Arity() shader.HashArity

	// Source returns the fragment stage source, or "" if no fragment shader is set.
	Source() string

	// CullMode returns the cull mode configured for this pipeline.
	CullMode() backend.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	Topology() backend.PrimitiveTopology

	// VertexCount returns the number of vertices drawn per frame.
	VertexCount() uint32

	// Descriptor builds the plain description the backend links this pipeline from.
	//
	// Parameters:
	//   - vertex: the compiled vertex module
	//   - layouts: the bind group layouts, in group order
	//
	// Returns:
	//   - backend.RenderPipelineDescriptor: the pipeline description
	Descriptor(vertex backend.ShaderModule, layouts []backend.BindGroupLayout) backend.RenderPipelineDescriptor

	// SetRenderPipeline sets the linked pipeline handle.
	//
	// Parameters:
	//   - p: the backend pipeline to set
	SetRenderPipeline(p backend.RenderPipeline)

	// SetFragmentModule sets the compiled fragment module.
	//
	// Parameters:
	//   - m: the compiled module; it is released with the pipeline
	SetFragmentModule(m backend.ShaderModule)

	// Release frees the pipeline and its fragment module. Safe to call more than once.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline interface.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey: pipelineKey,
		cullMode:    backend.CullModeNone,
		topology:    backend.PrimitiveTopologyTriangleList,
		vertexCount: 3,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) Pipeline() backend.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) FragmentModule() backend.ShaderModule {
	return p.fragmentModule
}

func (p *pipeline) Components() shader.ComponentSet {
	return p.components
}

func (p *pipeline) HashName() string {
	return p.components.Hash.Name
}

func (p *pipeline) NoiseName() string {
	return p.components.Noise.Name
}

func (p *pipeline) Arity() shader.HashArity {
	return p.components.Arity
}

func (p *pipeline) Source() string {
	if p.fragmentShader == nil {
		return ""
	}
	return p.fragmentShader.Source()
}

func (p *pipeline) CullMode() backend.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() backend.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) VertexCount() uint32 {
	return p.vertexCount
}

func (p *pipeline) Descriptor(vertex backend.ShaderModule, layouts []backend.BindGroupLayout) backend.RenderPipelineDescriptor {
	desc := backend.RenderPipelineDescriptor{
		Label:            p.pipelineKey + " Render Pipeline",
		Vertex:           backend.ProgrammableStage{Module: vertex},
		Fragment:         backend.ProgrammableStage{Module: p.fragmentModule},
		BindGroupLayouts: layouts,
		Primitive: backend.PrimitiveState{
			Topology: p.topology,
			CullMode: p.cullMode,
		},
	}
	if p.vertexShader != nil {
		desc.Vertex.EntryPoint = p.vertexShader.EntryPoint()
	}
	if p.fragmentShader != nil {
		desc.Fragment.EntryPoint = p.fragmentShader.EntryPoint()
	}
	return desc
}

func (p *pipeline) SetRenderPipeline(rp backend.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) SetFragmentModule(m backend.ShaderModule) {
	p.fragmentModule = m
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	if p.fragmentModule != nil {
		p.fragmentModule.Release()
		p.fragmentModule = nil
	}
}
