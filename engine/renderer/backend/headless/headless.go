// Package headless implements backend.RendererBackend without a GPU. Shader modules are compiled
// to SPIR-V with the pure Go naga compiler, so shader source is validated for real, while buffers
// live in memory and the frame calls only count what they would have submitted. It backs the
// CLI's offline shader checks and lets the renderer run where no adapter is available.
package headless

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend"
	"github.com/gogpu/naga"
	"go.uber.org/zap"
)

type headlessBackend struct {
	mu     *sync.Mutex
	logger *zap.Logger

	lost    bool
	inFrame bool

	compiled int
	draws    int
	frames   int
	width    int
	height   int
}

// Backend is a backend.RendererBackend with inspection hooks for offline use.
type Backend interface {
	backend.RendererBackend

	// Lose simulates device loss. Every later call that needs the device fails with a
	// backend.GpuError wrapping backend.ErrDeviceLost.
	Lose()

	// Compiled returns the number of shader modules compiled successfully.
	Compiled() int

	// Draws returns the number of draw calls encoded across all frames.
	Draws() int

	// Frames returns the number of frames presented.
	Frames() int

	// Size returns the surface size set by the last Resize.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	Size() (int, int)

	// BufferContents returns a copy of a buffer's current contents, or nil if buf was not
	// created by this backend.
	//
	// Parameters:
	//   - buf: the buffer to read
	//
	// Returns:
	//   - []byte: a copy of the buffer bytes
	BufferContents(buf backend.Buffer) []byte
}

var _ Backend = &headlessBackend{}

// New creates a headless backend.
//
// Parameters:
//   - options: functional options applied to the backend
//
// Returns:
//   - Backend: the backend
func New(options ...BackendBuilderOption) Backend {
	b := &headlessBackend{
		mu:     &sync.Mutex{},
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

type shaderModule struct {
	label    string
	spirv    []byte
	released bool
}

func (m *shaderModule) Label() string { return m.label }
func (m *shaderModule) Release()      { m.released = true; m.spirv = nil }

type renderPipeline struct {
	label    string
	released bool
}

func (p *renderPipeline) Label() string { return p.label }
func (p *renderPipeline) Release()      { p.released = true }

type buffer struct {
	data     []byte
	released bool
}

func (b *buffer) Size() uint64 { return uint64(len(b.data)) }
func (b *buffer) Release()     { b.released = true }

type handle struct {
	released bool
}

func (h *handle) Release() { h.released = true }

func (b *headlessBackend) CompileShader(desc backend.ShaderModuleDescriptor) (backend.ShaderModule, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lost {
		return nil, &backend.GpuError{Op: "compile shader", Err: backend.ErrDeviceLost}
	}

	spirv, err := naga.Compile(desc.Code)
	if err != nil {
		return nil, &backend.CompileError{Label: desc.Label, Diagnostic: err.Error()}
	}
	b.compiled++
	b.logger.Debug("compiled shader module", zap.String("label", desc.Label), zap.Int("spirv_bytes", len(spirv)))
	return &shaderModule{label: desc.Label, spirv: spirv}, nil
}

func (b *headlessBackend) BuildPipeline(desc backend.RenderPipelineDescriptor) (backend.RenderPipeline, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lost {
		return nil, &backend.GpuError{Op: "build pipeline", Err: backend.ErrDeviceLost}
	}

	if err := checkStage("vertex", desc.Vertex); err != nil {
		return nil, &backend.PipelineBuildError{Label: desc.Label, Err: err}
	}
	if err := checkStage("fragment", desc.Fragment); err != nil {
		return nil, &backend.PipelineBuildError{Label: desc.Label, Err: err}
	}
	for i, l := range desc.BindGroupLayouts {
		h, ok := l.(*handle)
		if !ok || h.released {
			return nil, &backend.PipelineBuildError{Label: desc.Label, Err: fmt.Errorf("bind group layout %d is not a live layout", i)}
		}
	}
	return &renderPipeline{label: desc.Label}, nil
}

func checkStage(name string, stage backend.ProgrammableStage) error {
	m, ok := stage.Module.(*shaderModule)
	if !ok || m == nil {
		return fmt.Errorf("%s stage has no module", name)
	}
	if m.released {
		return fmt.Errorf("%s module %q was released", name, m.label)
	}
	if stage.EntryPoint == "" {
		return fmt.Errorf("%s stage has no entry point", name)
	}
	return nil
}

func (b *headlessBackend) CreateUniformBinding(desc backend.UniformBindingDescriptor) (backend.UniformBinding, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lost {
		return backend.UniformBinding{}, &backend.GpuError{Op: "create uniform binding", Err: backend.ErrDeviceLost}
	}
	if len(desc.Layout.Entries) == 0 {
		return backend.UniformBinding{}, &backend.GpuError{Op: "create uniform binding", Err: errors.New("layout has no entries")}
	}
	for _, e := range desc.Layout.Entries {
		if e.Buffer.MinBindingSize > desc.Size {
			return backend.UniformBinding{}, &backend.GpuError{
				Op:  "create uniform binding",
				Err: fmt.Errorf("binding %d needs %d bytes, buffer has %d", e.Binding, e.Buffer.MinBindingSize, desc.Size),
			}
		}
	}

	return backend.UniformBinding{
		Layout:    &handle{},
		Buffer:    &buffer{data: make([]byte, desc.Size)},
		BindGroup: &handle{},
	}, nil
}

func (b *headlessBackend) WriteBuffer(buf backend.Buffer, offset uint64, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lost {
		return &backend.GpuError{Op: "write buffer", Err: backend.ErrDeviceLost}
	}
	hb, ok := buf.(*buffer)
	if !ok || hb == nil || hb.released {
		return &backend.GpuError{Op: "write buffer", Err: errors.New("buffer is not a live buffer")}
	}
	if offset+uint64(len(data)) > hb.Size() {
		return &backend.GpuError{Op: "write buffer", Err: fmt.Errorf("write of %d bytes at offset %d overflows %d byte buffer", len(data), offset, hb.Size())}
	}
	copy(hb.data[offset:], data)
	return nil
}

func (b *headlessBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lost {
		return &backend.GpuError{Op: "begin frame", Err: backend.ErrDeviceLost}
	}
	if b.inFrame {
		return errors.New("previous frame not yet presented")
	}
	b.inFrame = true
	return nil
}

func (b *headlessBackend) Draw(p backend.RenderPipeline, bindGroups []backend.BindGroup, vertexCount uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inFrame || p == nil {
		return
	}
	b.draws++
}

func (b *headlessBackend) EndFrame() {}

func (b *headlessBackend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inFrame {
		return
	}
	b.inFrame = false
	b.frames++
}

func (b *headlessBackend) Resize(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width, b.height = width, height
}

func (b *headlessBackend) Release() {}

func (b *headlessBackend) Lose() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lost = true
	b.logger.Warn("headless device lost")
}

func (b *headlessBackend) Compiled() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.compiled
}

func (b *headlessBackend) Draws() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.draws
}

func (b *headlessBackend) Frames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

func (b *headlessBackend) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *headlessBackend) BufferContents(buf backend.Buffer) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	hb, ok := buf.(*buffer)
	if !ok || hb == nil {
		return nil
	}
	out := make([]byte, len(hb.data))
	copy(out, hb.data)
	return out
}
