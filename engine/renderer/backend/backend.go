// Package backend defines the GPU execution context consumed by the renderer. Implementations
// compile WGSL into shader modules, link render pipelines from plain descriptor structs, own
// uniform buffers and bind groups, and drive the per-frame render pass. The renderer and its
// collaborators only ever hold the opaque handle interfaces declared here, which keeps them
// independent of the concrete GPU API in use.
package backend

// Releaser is implemented by every GPU handle. Release frees the underlying GPU object and
// must be safe to call more than once.
type Releaser interface {
	Release()
}

// ShaderModule is a compiled shader program handle.
type ShaderModule interface {
	Releaser

	// Label returns the debug label the module was compiled with.
	Label() string
}

// RenderPipeline is a linked render pipeline handle.
type RenderPipeline interface {
	Releaser

	// Label returns the debug label the pipeline was built with.
	Label() string
}

// Buffer is a GPU buffer handle.
type Buffer interface {
	Releaser

	// Size returns the buffer size in bytes.
	Size() uint64
}

// BindGroupLayout is a bind group layout handle.
type BindGroupLayout interface {
	Releaser
}

// BindGroup is a bind group handle.
type BindGroup interface {
	Releaser
}

// UniformBinding groups the three handles created together for a single uniform buffer binding.
// They are created once and stay valid until released.
type UniformBinding struct {
	Layout    BindGroupLayout
	Buffer    Buffer
	BindGroup BindGroup
}

// RendererBackend is the GPU execution context used by the renderer.
//
// Frame calls follow the sequence BeginFrame, Draw (any number of times), EndFrame, Present.
// Handles returned by the backend are owned by the caller, which must release them.
type RendererBackend interface {
	// CompileShader compiles WGSL source into a shader module.
	//
	// Parameters:
	//   - desc: the module label and WGSL source
	//
	// Returns:
	//   - ShaderModule: the compiled module
	//   - error: a *CompileError carrying the backend diagnostic if the source is rejected
	CompileShader(desc ShaderModuleDescriptor) (ShaderModule, error)

	// BuildPipeline links a render pipeline from compiled vertex and fragment modules and the
	// bind group layouts the pipeline layout is made of.
	//
	// Parameters:
	//   - desc: the plain pipeline description
	//
	// Returns:
	//   - RenderPipeline: the linked pipeline
	//   - error: a *PipelineBuildError if the modules and layout are incompatible
	BuildPipeline(desc RenderPipelineDescriptor) (RenderPipeline, error)

	// CreateUniformBinding creates a uniform buffer together with its bind group layout and
	// bind group.
	//
	// Parameters:
	//   - desc: the layout entries and buffer size
	//
	// Returns:
	//   - UniformBinding: the created handles
	//   - error: a *GpuError if any of the objects could not be created
	CreateUniformBinding(desc UniformBindingDescriptor) (UniformBinding, error)

	// WriteBuffer uploads data into buf at the given byte offset.
	//
	// Parameters:
	//   - buf: the destination buffer
	//   - offset: byte offset into the buffer
	//   - data: bytes to upload
	//
	// Returns:
	//   - error: a *GpuError on device-level failure such as device loss
	WriteBuffer(buf Buffer, offset uint64, data []byte) error

	// BeginFrame acquires the next surface texture and begins the main render pass.
	//
	// Returns:
	//   - error: an error if no surface texture could be acquired
	BeginFrame() error

	// Draw encodes a non-indexed draw of vertexCount vertices within the current render pass.
	// Bind groups are set at consecutive group indices starting at zero.
	//
	// Parameters:
	//   - p: the pipeline to bind
	//   - bindGroups: the bind groups to bind, in group order
	//   - vertexCount: the number of vertices to draw
	Draw(p RenderPipeline, bindGroups []BindGroup, vertexCount uint32)

	// EndFrame ends the render pass and submits the recorded commands.
	EndFrame()

	// Present presents the acquired surface texture.
	Present()

	// Resize reconfigures the presentation surface.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// Release frees the device and every object the backend still owns.
	Release()
}
