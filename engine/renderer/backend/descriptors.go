package backend

// ShaderStage is a bit set of pipeline stages a binding is visible to.
type ShaderStage uint32

const (
	ShaderStageNone     ShaderStage = 0
	ShaderStageVertex   ShaderStage = 1 << 0
	ShaderStageFragment ShaderStage = 1 << 1
)

// BufferBindingType identifies how a buffer binding is accessed from a shader.
type BufferBindingType int

const (
	// BufferBindingTypeUndefined marks a layout entry that is not a buffer binding.
	BufferBindingTypeUndefined BufferBindingType = iota

	// BufferBindingTypeUniform maps to var<uniform>.
	BufferBindingTypeUniform

	// BufferBindingTypeStorage maps to var<storage, read_write>.
	BufferBindingTypeStorage

	// BufferBindingTypeReadOnlyStorage maps to var<storage, read>.
	BufferBindingTypeReadOnlyStorage
)

// PrimitiveTopology selects how vertices are assembled into primitives.
type PrimitiveTopology int

const (
	PrimitiveTopologyTriangleList PrimitiveTopology = iota
	PrimitiveTopologyTriangleStrip
)

// CullMode selects which triangle faces are discarded.
type CullMode int

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

// BufferBindingLayout describes a buffer binding within a bind group layout entry.
type BufferBindingLayout struct {
	Type           BufferBindingType
	MinBindingSize uint64
}

// BindGroupLayoutEntry describes a single binding of a bind group layout.
type BindGroupLayoutEntry struct {
	Binding    uint32
	Visibility ShaderStage
	Buffer     BufferBindingLayout
}

// BindGroupLayoutDescriptor describes a bind group layout. Entries are ordered by binding index.
type BindGroupLayoutDescriptor struct {
	Label   string
	Entries []BindGroupLayoutEntry
}

// ShaderModuleDescriptor describes a WGSL shader module to compile.
type ShaderModuleDescriptor struct {
	Label string
	Code  string
}

// ProgrammableStage pairs a compiled module with the entry point used from it.
type ProgrammableStage struct {
	Module     ShaderModule
	EntryPoint string
}

// PrimitiveState configures primitive assembly and rasterization.
type PrimitiveState struct {
	Topology PrimitiveTopology
	CullMode CullMode
}

// RenderPipelineDescriptor is the plain description a render pipeline is linked from.
// BindGroupLayouts are placed at consecutive group indices starting at zero.
type RenderPipelineDescriptor struct {
	Label            string
	Vertex           ProgrammableStage
	Fragment         ProgrammableStage
	BindGroupLayouts []BindGroupLayout
	Primitive        PrimitiveState
}

// UniformBindingDescriptor describes a uniform buffer and the single-binding layout exposing it.
type UniformBindingDescriptor struct {
	Label  string
	Layout BindGroupLayoutDescriptor
	Size   uint64
}
