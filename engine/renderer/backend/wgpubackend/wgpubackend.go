// Package wgpubackend implements backend.RendererBackend on WebGPU through
// github.com/cogentcore/webgpu. It owns the instance, adapter, device and surface, links
// pipelines from the plain descriptors declared by package backend, and records one render
// pass per frame into the surface texture.
package wgpubackend

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// ParsePresentMode maps "vsync" and "uncapped" to a PresentMode.
func ParsePresentMode(s string) (PresentMode, error) {
	switch s {
	case "vsync", "fifo":
		return PresentModeVSync, nil
	case "uncapped", "immediate", "":
		return PresentModeUncapped, nil
	default:
		return 0, fmt.Errorf("unknown present mode %q", s)
	}
}

type wgpuBackend struct {
	mu     *sync.Mutex
	logger *zap.Logger

	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        wgpu.TextureFormat
	renderPassDescriptor *wgpu.RenderPassDescriptor
	clearColor           wgpu.Color

	presentMode          wgpu.PresentMode
	forceFallbackAdapter bool
	lost                 bool

	// Frame state for one render pass per frame
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ backend.RendererBackend = &wgpuBackend{}

type shaderModule struct {
	label  string
	module *wgpu.ShaderModule
}

func (m *shaderModule) Label() string { return m.label }

func (m *shaderModule) Release() {
	if m.module != nil {
		m.module.Release()
		m.module = nil
	}
}

type renderPipeline struct {
	label    string
	pipeline *wgpu.RenderPipeline
	layout   *wgpu.PipelineLayout
}

func (p *renderPipeline) Label() string { return p.label }

func (p *renderPipeline) Release() {
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
}

type buffer struct {
	buf  *wgpu.Buffer
	size uint64
}

func (b *buffer) Size() uint64 { return b.size }

func (b *buffer) Release() {
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
	}
}

type bindGroupLayout struct {
	layout *wgpu.BindGroupLayout
}

func (l *bindGroupLayout) Release() {
	if l.layout != nil {
		l.layout.Release()
		l.layout = nil
	}
}

type bindGroup struct {
	group *wgpu.BindGroup
}

func (g *bindGroup) Release() {
	if g.group != nil {
		g.group.Release()
		g.group = nil
	}
}

// New creates a WebGPU backend presenting to the given surface. The calling goroutine is
// locked to its OS thread, which must be the thread that owns the window.
//
// Parameters:
//   - surfaceDescriptor: the platform-specific surface descriptor, typically from the window
//   - width: the initial surface width in pixels
//   - height: the initial surface height in pixels
//   - options: functional options applied to the backend
//
// Returns:
//   - backend.RendererBackend: the backend
//   - error: an error if no adapter or device could be acquired
func New(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...BackendBuilderOption) (backend.RendererBackend, error) {
	runtime.LockOSThread()
	b := &wgpuBackend{
		mu:          &sync.Mutex{},
		logger:      zap.NewNop(),
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		clearColor:  wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
	}
	for _, opt := range options {
		opt(b)
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, &backend.GpuError{Op: "request adapter", Err: err}
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		return nil, &backend.GpuError{Op: "request device", Err: err}
	}
	b.device = d
	b.queue = d.GetQueue()

	b.configureSurface(width, height)
	b.logger.Info("webgpu backend ready", zap.Int("width", width), zap.Int("height", height))
	return b, nil
}

func (b *wgpuBackend) configureSurface(width, height int) {
	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	// View is set per frame to the swapchain view.
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: b.clearColor,
			},
		},
	}
}

func (b *wgpuBackend) CompileShader(desc backend.ShaderModuleDescriptor) (backend.ShaderModule, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lost {
		return nil, &backend.GpuError{Op: "compile shader", Err: backend.ErrDeviceLost}
	}
	m, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: desc.Code,
		},
	})
	if err != nil {
		return nil, &backend.CompileError{Label: desc.Label, Diagnostic: err.Error()}
	}
	return &shaderModule{label: desc.Label, module: m}, nil
}

func (b *wgpuBackend) BuildPipeline(desc backend.RenderPipelineDescriptor) (backend.RenderPipeline, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lost {
		return nil, &backend.GpuError{Op: "build pipeline", Err: backend.ErrDeviceLost}
	}

	vs, ok := desc.Vertex.Module.(*shaderModule)
	if !ok || vs.module == nil {
		return nil, &backend.PipelineBuildError{Label: desc.Label, Err: errors.New("vertex stage has no live module")}
	}
	fs, ok := desc.Fragment.Module.(*shaderModule)
	if !ok || fs.module == nil {
		return nil, &backend.PipelineBuildError{Label: desc.Label, Err: errors.New("fragment stage has no live module")}
	}

	bindGroupLayouts := make([]*wgpu.BindGroupLayout, len(desc.BindGroupLayouts))
	for g, l := range desc.BindGroupLayouts {
		bl, ok := l.(*bindGroupLayout)
		if !ok || bl.layout == nil {
			return nil, &backend.PipelineBuildError{Label: desc.Label, Err: fmt.Errorf("bind group layout %d is not a live layout", g)}
		}
		bindGroupLayouts[g] = bl.layout
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return nil, &backend.PipelineBuildError{Label: desc.Label, Err: err}
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs.module,
			EntryPoint: desc.Vertex.EntryPoint,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs.module,
			EntryPoint: desc.Fragment.EntryPoint,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    b.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  toTopology(desc.Primitive.Topology),
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  toCullMode(desc.Primitive.CullMode),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		pipelineLayout.Release()
		return nil, &backend.PipelineBuildError{Label: desc.Label, Err: err}
	}
	return &renderPipeline{label: desc.Label, pipeline: created, layout: pipelineLayout}, nil
}

func (b *wgpuBackend) CreateUniformBinding(desc backend.UniformBindingDescriptor) (backend.UniformBinding, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lost {
		return backend.UniformBinding{}, &backend.GpuError{Op: "create uniform binding", Err: backend.ErrDeviceLost}
	}
	if len(desc.Layout.Entries) == 0 {
		return backend.UniformBinding{}, &backend.GpuError{Op: "create uniform binding", Err: errors.New("layout has no entries")}
	}

	layout, err := b.device.CreateBindGroupLayout(toBindGroupLayoutDescriptor(desc.Layout))
	if err != nil {
		return backend.UniformBinding{}, &backend.GpuError{Op: "create bind group layout", Err: err}
	}

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: desc.Label + " Buffer",
		Size:  desc.Size,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		layout.Release()
		return backend.UniformBinding{}, &backend.GpuError{Op: "create buffer", Err: err}
	}

	entries := make([]wgpu.BindGroupEntry, len(desc.Layout.Entries))
	for i, e := range desc.Layout.Entries {
		entries[i] = wgpu.BindGroupEntry{
			Binding: e.Binding,
			Buffer:  buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		}
	}
	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		buf.Release()
		layout.Release()
		return backend.UniformBinding{}, &backend.GpuError{Op: "create bind group", Err: err}
	}

	return backend.UniformBinding{
		Layout:    &bindGroupLayout{layout: layout},
		Buffer:    &buffer{buf: buf, size: desc.Size},
		BindGroup: &bindGroup{group: group},
	}, nil
}

func (b *wgpuBackend) WriteBuffer(buf backend.Buffer, offset uint64, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lost {
		return &backend.GpuError{Op: "write buffer", Err: backend.ErrDeviceLost}
	}
	wb, ok := buf.(*buffer)
	if !ok || wb.buf == nil {
		return &backend.GpuError{Op: "write buffer", Err: errors.New("buffer is not a live buffer")}
	}
	if offset+uint64(len(data)) > wb.size {
		return &backend.GpuError{Op: "write buffer", Err: fmt.Errorf("write of %d bytes at offset %d overflows %d byte buffer", len(data), offset, wb.size)}
	}
	b.queue.WriteBuffer(wb.buf, offset, data)
	return nil
}

func (b *wgpuBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lost {
		return &backend.GpuError{Op: "begin frame", Err: backend.ErrDeviceLost}
	}
	// A held surface texture means the previous frame was never presented; acquiring again
	// fails in wgpu-native with "Surface image is already acquired".
	if b.frameSurface != nil {
		return errors.New("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return &backend.GpuError{Op: "acquire surface texture", Err: err}
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return &backend.GpuError{Op: "create surface view", Err: err}
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return &backend.GpuError{Op: "create command encoder", Err: err}
	}

	b.renderPassDescriptor.ColorAttachments[0].View = view
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view

	return nil
}

func (b *wgpuBackend) Draw(p backend.RenderPipeline, bindGroups []backend.BindGroup, vertexCount uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rp, ok := p.(*renderPipeline)
	if !ok || rp.pipeline == nil || b.framePass == nil {
		return
	}
	b.framePass.SetPipeline(rp.pipeline)

	for i, bg := range bindGroups {
		g, ok := bg.(*bindGroup)
		if !ok || g.group == nil {
			continue
		}
		b.framePass.SetBindGroup(uint32(i), g.group, nil)
	}
	b.framePass.Draw(vertexCount, 1, 0, 0)
}

func (b *wgpuBackend) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.framePass.End()

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.logger.Warn("finish command encoder", zap.Error(err))
		b.frameEncoder.Release()
		b.frameView.Release()
		b.frameSurface.Release()
		b.frameEncoder = nil
		b.framePass = nil
		b.frameSurface = nil
		b.frameView = nil
		return
	}

	b.queue.Submit(commandBuffer)

	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil
	b.framePass = nil
}

func (b *wgpuBackend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}

	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuBackend) Resize(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if width <= 0 || height <= 0 {
		return
	}
	b.configureSurface(width, height)
}

func (b *wgpuBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lost = true
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

func toBindGroupLayoutDescriptor(desc backend.BindGroupLayoutDescriptor) *wgpu.BindGroupLayoutDescriptor {
	entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entries[i] = wgpu.BindGroupLayoutEntry{
			Binding:    e.Binding,
			Visibility: toShaderStage(e.Visibility),
			Buffer: wgpu.BufferBindingLayout{
				Type:           toBufferBindingType(e.Buffer.Type),
				MinBindingSize: e.Buffer.MinBindingSize,
			},
		}
	}
	return &wgpu.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	}
}

func toShaderStage(s backend.ShaderStage) wgpu.ShaderStage {
	var out wgpu.ShaderStage
	if s&backend.ShaderStageVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if s&backend.ShaderStageFragment != 0 {
		out |= wgpu.ShaderStageFragment
	}
	return out
}

func toBufferBindingType(t backend.BufferBindingType) wgpu.BufferBindingType {
	switch t {
	case backend.BufferBindingTypeUniform:
		return wgpu.BufferBindingTypeUniform
	case backend.BufferBindingTypeStorage:
		return wgpu.BufferBindingTypeStorage
	case backend.BufferBindingTypeReadOnlyStorage:
		return wgpu.BufferBindingTypeReadOnlyStorage
	default:
		return wgpu.BufferBindingTypeUndefined
	}
}

func toTopology(t backend.PrimitiveTopology) wgpu.PrimitiveTopology {
	if t == backend.PrimitiveTopologyTriangleStrip {
		return wgpu.PrimitiveTopologyTriangleStrip
	}
	return wgpu.PrimitiveTopologyTriangleList
}

func toCullMode(m backend.CullMode) wgpu.CullMode {
	switch m {
	case backend.CullModeFront:
		return wgpu.CullModeFront
	case backend.CullModeBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}
