// Package uniform keeps the CPU copy of the per-frame uniform block and mirrors it into a
// single GPU uniform buffer. The buffer, its bind group layout and its bind group are created
// once and reused for the life of the state.
package uniform

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

const providerLabel = "uniforms"

type uniformState struct {
	mu     *sync.Mutex
	logger *zap.Logger

	block    GPUUniforms
	pending  bool
	uploads  int
	provider bind_group_provider.BindGroupProvider
}

// UniformState is the CPU-side uniform block plus the GPU binding it is uploaded to.
type UniformState interface {
	// SetResolution stores the framebuffer size. It takes effect on the next Update.
	//
	// Parameters:
	//   - width: width in pixels
	//   - height: height in pixels
	SetResolution(width, height float32)

	// SetResolutionVec stores the framebuffer size from a vector.
	//
	// Parameters:
	//   - res: the size in pixels as (width, height)
	SetResolutionVec(res mgl32.Vec2)

	// SetDiscriminant stores the hash arity discriminant. It takes effect on the next Update.
	//
	// Parameters:
	//   - v: the discriminant value
	SetDiscriminant(v int32)

	// Resolution returns the stored framebuffer size.
	Resolution() mgl32.Vec2

	// Block returns a copy of the CPU-side block.
	Block() GPUUniforms

	// Pending reports whether the block changed since the last successful Update.
	Pending() bool

	// Update uploads the whole block to the GPU buffer, whether or not it changed.
	//
	// Parameters:
	//   - w: the writer that performs the upload, normally the renderer backend
	//
	// Returns:
	//   - error: a *backend.GpuError if the upload failed
	Update(w bind_group_provider.BufferWriter) error

	// Uploads returns the number of successful uploads.
	Uploads() int

	// BindGroup returns the bind group the block is bound through.
	BindGroup() backend.BindGroup

	// BindGroupLayout returns the layout of the uniform bind group.
	BindGroupLayout() backend.BindGroupLayout

	// Release frees the GPU buffer, layout and bind group.
	Release()
}

var _ UniformState = &uniformState{}

// NewUniformState creates the GPU binding for the block and returns the state wrapping it.
// The binding size is the Go block size; layout must describe a single uniform binding
// whose minimum size fits in it.
//
// Parameters:
//   - b: the backend used to create the binding
//   - layout: the bind group layout derived from the shader that reads the block
//   - options: functional options applied to the state
//
// Returns:
//   - UniformState: the new state
//   - error: a *backend.GpuError if the binding could not be created
func NewUniformState(b backend.RendererBackend, layout backend.BindGroupLayoutDescriptor, options ...UniformStateBuilderOption) (UniformState, error) {
	s := &uniformState{
		mu:      &sync.Mutex{},
		logger:  zap.NewNop(),
		pending: true,
	}
	for _, opt := range options {
		opt(s)
	}

	if layout.Label == "" {
		layout.Label = providerLabel
	}
	binding, err := b.CreateUniformBinding(backend.UniformBindingDescriptor{
		Label:  providerLabel,
		Layout: layout,
		Size:   uint64(s.block.Size()),
	})
	if err != nil {
		return nil, err
	}
	s.provider = bind_group_provider.NewUniformProvider(providerLabel, binding)
	return s, nil
}

func (s *uniformState) SetResolution(width, height float32) {
	s.SetResolutionVec(mgl32.Vec2{width, height})
}

func (s *uniformState) SetResolutionVec(res mgl32.Vec2) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.block.Resolution != [2]float32(res) {
		s.block.Resolution = [2]float32(res)
		s.pending = true
	}
}

func (s *uniformState) SetDiscriminant(v int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.block.HashVariant != v {
		s.block.HashVariant = v
		s.pending = true
	}
}

func (s *uniformState) Resolution() mgl32.Vec2 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return mgl32.Vec2(s.block.Resolution)
}

func (s *uniformState) Block() GPUUniforms {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.block
}

func (s *uniformState) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *uniformState) Update(w bind_group_provider.BufferWriter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := bind_group_provider.WriteAll(w, bind_group_provider.BufferWrite{
		Provider: s.provider,
		Binding:  0,
		Offset:   0,
		Data:     s.block.Marshal(),
	})
	if err != nil {
		s.logger.Debug("uniform upload failed", zap.Error(err))
		return err
	}
	s.pending = false
	s.uploads++
	return nil
}

func (s *uniformState) Uploads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}

func (s *uniformState) BindGroup() backend.BindGroup {
	return s.provider.BindGroup()
}

func (s *uniformState) BindGroupLayout() backend.BindGroupLayout {
	return s.provider.BindGroupLayout()
}

func (s *uniformState) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider.Release()
}
