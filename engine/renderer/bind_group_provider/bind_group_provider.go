package bind_group_provider

import (
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// The following fields are GPU handles owned by the provider and released with it.

	bindGroup       backend.BindGroup
	bindGroupLayout backend.BindGroupLayout
	// buffers holds the GPU buffers created for this provider, keyed by binding index.
	buffers map[int]backend.Buffer
}

// BindGroupProvider owns the GPU resources behind one bind group: the layout, the bind group
// itself and the buffers bound into it. Components that upload data to the GPU hold a provider
// and hand its bind group to draw calls.
//
// Usage pattern:
//  1. The component asks the backend to create the binding
//  2. It wraps the returned handles in a provider with the With* options
//  3. It writes data with WriteAll using BufferWrite values that target the provider
//  4. Draw calls use BindGroup(); Release() frees everything once
type BindGroupProvider interface {
	// Release releases every GPU handle held by this provider. Safe to call more than once.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the bind group for shader binding, or nil if not set.
	//
	// Returns:
	//   - backend.BindGroup: the bind group or nil
	BindGroup() backend.BindGroup

	// BindGroupLayout returns the layout the bind group was created from, or nil if not set.
	//
	// Returns:
	//   - backend.BindGroupLayout: the bind group layout or nil
	BindGroupLayout() backend.BindGroupLayout

	// Buffer returns the buffer bound at the given binding index, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - backend.Buffer: the buffer or nil
	Buffer(binding int) backend.Buffer

	// Buffers returns all buffers associated with this provider, keyed by binding index.
	//
	// Returns:
	//   - map[int]backend.Buffer: a map of buffers keyed by binding index
	Buffers() map[int]backend.Buffer

	// SetBindGroup sets the bind group after GPU initialization.
	//
	// Parameters:
	//   - bg: the created bind group
	SetBindGroup(bg backend.BindGroup)

	// SetBindGroupLayout sets the bind group layout after GPU initialization.
	//
	// Parameters:
	//   - bgl: the created bind group layout
	SetBindGroupLayout(bgl backend.BindGroupLayout)

	// SetBuffer sets the buffer for a binding index.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the created buffer
	SetBuffer(binding int, buf backend.Buffer)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: a debug label for the provider
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:   label,
		buffers: make(map[int]backend.Buffer),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// NewUniformProvider wraps the handles of a backend.UniformBinding in a provider, with the
// buffer bound at binding 0.
//
// Parameters:
//   - label: a debug label for the provider
//   - binding: the handles created by backend.RendererBackend.CreateUniformBinding
//
// Returns:
//   - BindGroupProvider: the provider owning the binding's handles
func NewUniformProvider(label string, binding backend.UniformBinding) BindGroupProvider {
	return NewBindGroupProvider(label,
		WithBindGroupLayout(binding.Layout),
		WithBindGroup(binding.BindGroup),
		WithBuffer(0, binding.Buffer),
	)
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() backend.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() backend.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(binding int) backend.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) Buffers() map[int]backend.Buffer {
	return p.buffers
}

func (p *bindGroupProvider) SetBindGroup(bg backend.BindGroup) {
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl backend.BindGroupLayout) {
	p.bindGroupLayout = bgl
}

func (p *bindGroupProvider) SetBuffer(binding int, buf backend.Buffer) {
	if p.buffers == nil {
		p.buffers = make(map[int]backend.Buffer)
	}
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) Release() {
	// bind group first, it references the buffers and the layout
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
}
