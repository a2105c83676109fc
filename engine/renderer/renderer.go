package renderer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/uniform"
	"go.uber.org/zap"
)

// ErrNoPipeline is returned by Draw before the first successful build.
var ErrNoPipeline = errors.New("renderer: no pipeline built yet")

// State reports whether the live pipeline matches the component store.
type State int

const (
	// StateClean means the live pipeline was built from the current component set.
	StateClean State = iota

	// StateDirty means a fragment changed since the last successful build.
	StateDirty
)

func (s State) String() string {
	switch s {
	case StateClean:
		return "clean"
	case StateDirty:
		return "dirty"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Stats is a snapshot of rebuild counters.
type Stats struct {
	// Rebuilds counts successful pipeline builds.
	Rebuilds int
	// Failures counts builds that failed to assemble, compile or link.
	Failures int
	// Key is the key of the live pipeline, empty before the first build.
	Key string
	// Generation is the component store generation the live pipeline was built from.
	Generation uint64
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu     *sync.Mutex
	logger *zap.Logger

	backend   backend.RendererBackend
	store     shader.ComponentStore
	assembler shader.Assembler
	uniforms  uniform.UniformState

	vertexModule backend.ShaderModule

	current pipeline.Pipeline
	// retired pipelines may still be referenced by the frame in flight; they are released
	// at the start of the next Update
	retired []pipeline.Pipeline

	dirty bool
	// failedGen is the store generation whose last build failed; Update does not retry it
	// until a commit or MarkDirty clears it
	failedGen uint64
	failed    bool
	assembled string
	stats     Stats

	uniformOptions  []uniform.UniformStateBuilderOption
	pipelineOptions []pipeline.PipelineBuilderOption
}

// Renderer owns the live noise pipeline and keeps it in sync with a ComponentStore.
//
// Fragment commits mark the renderer dirty; the next Update rebuilds the pipeline from a
// snapshot of the store. A failed rebuild keeps the previous pipeline and leaves the renderer
// dirty, so the frame still draws; the same component set is not rebuilt again until a new
// commit or MarkDirty. Rebuilds, commits and dirty-flag changes are serialised by
// one mutex and never overlap.
type Renderer interface {
	// State reports whether a rebuild is pending.
	//
	// Returns:
	//   - State: StateDirty if a fragment changed since the last successful build
	State() State

	// Update releases retired pipelines, rebuilds the pipeline if dirty, then uploads the
	// uniform block. Must be called before BeginFrame.
	//
	// Returns:
	//   - error: the joined rebuild and uniform errors; a *backend.CompileError or
	//     *backend.PipelineBuildError leaves the previous pipeline live
	Update() error

	// CurrentPipeline returns the live pipeline, or nil before the first successful build.
	CurrentPipeline() pipeline.Pipeline

	// BindGroup returns the uniform bind group drawn at group 0.
	BindGroup() backend.BindGroup

	// Uniforms returns the uniform state.
	Uniforms() uniform.UniformState

	// Store returns the component store the renderer builds from.
	Store() shader.ComponentStore

	// RequestHash fetches a hash fragment, commits it and marks the renderer dirty.
	//
	// Parameters:
	//   - ctx: cancels the fetch
	//   - name: the hash fragment name
	//
	// Returns:
	//   - error: a *loader.FetchError, or shader.ErrStaleRequest if a newer request was issued meanwhile
	RequestHash(ctx context.Context, name string) error

	// RequestNoise fetches a noise fragment, commits it and marks the renderer dirty.
	//
	// Parameters:
	//   - ctx: cancels the fetch
	//   - name: the noise fragment name
	//
	// Returns:
	//   - error: a *loader.FetchError, or shader.ErrStaleRequest if a newer request was issued meanwhile
	RequestNoise(ctx context.Context, name string) error

	// ApplyFragment commits fetched source for a request issued with ComponentStore.Begin and
	// marks the renderer dirty on success.
	//
	// Parameters:
	//   - req: the request the source was fetched for
	//   - source: the fetched WGSL source
	//
	// Returns:
	//   - error: shader.ErrStaleRequest if superseded, or a *loader.FetchError if the source is unusable
	ApplyFragment(req shader.Request, source string) error

	// MarkDirty forces a rebuild on the next Update, including a retry of a set whose last
	// build failed.
	MarkDirty()

	// SetResolution sets the resolution uploaded on the next Update.
	//
	// Parameters:
	//   - width: the surface width in pixels
	//   - height: the surface height in pixels
	SetResolution(width, height float32)

	// Resize reconfigures the backend surface and updates the resolution uniform.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// AssembledSource returns the assembled fragment source of the last successful build.
	AssembledSource() string

	// Stats returns a snapshot of the rebuild counters.
	Stats() Stats

	// BeginFrame acquires the surface texture and begins the render pass.
	BeginFrame() error

	// Draw draws the live pipeline with the uniform bind group.
	//
	// Returns:
	//   - error: ErrNoPipeline if nothing was built yet
	Draw() error

	// EndFrame ends the render pass and submits the recorded commands.
	EndFrame()

	// Present presents the frame.
	Present()

	// Release frees every pipeline, the uniform binding and the vertex module. The backend
	// itself is not released.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer drawing with b. The vertex stage is compiled once and the
// uniform binding is created from the layout the assembler's skeleton declares at group 0.
// No pipeline is built until the first Update.
//
// Parameters:
//   - b: the GPU backend
//   - store: the component store to build from
//   - assembler: the assembler providing skeleton, glue and vertex stage
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the renderer, initially StateDirty
//   - error: an error if the skeleton's uniform layout does not match uniform.GPUUniforms or a
//     backend object could not be created
func NewRenderer(b backend.RendererBackend, store shader.ComponentStore, assembler shader.Assembler, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:        &sync.Mutex{},
		logger:    zap.NewNop(),
		backend:   b,
		store:     store,
		assembler: assembler,
		dirty:     true,
	}
	for _, opt := range options {
		opt(r)
	}

	layout := assembler.UniformLayout()
	if err := checkUniformLayout(layout); err != nil {
		return nil, err
	}

	uniforms, err := uniform.NewUniformState(b, layout, append([]uniform.UniformStateBuilderOption{uniform.WithLogger(r.logger)}, r.uniformOptions...)...)
	if err != nil {
		return nil, err
	}

	vm, err := b.CompileShader(assembler.Vertex().Module())
	if err != nil {
		uniforms.Release()
		return nil, fmt.Errorf("renderer: vertex stage: %w", err)
	}

	r.uniforms = uniforms
	r.vertexModule = vm
	return r, nil
}

func checkUniformLayout(layout backend.BindGroupLayoutDescriptor) error {
	var g uniform.GPUUniforms
	if len(layout.Entries) != 1 {
		return fmt.Errorf("renderer: skeleton declares %d bindings at group 0, want 1", len(layout.Entries))
	}
	e := layout.Entries[0]
	if e.Buffer.Type != backend.BufferBindingTypeUniform {
		return fmt.Errorf("renderer: group 0 binding %d is not a uniform buffer", e.Binding)
	}
	if e.Buffer.MinBindingSize != uint64(g.Size()) {
		return fmt.Errorf("renderer: skeleton uniform block is %d bytes, Go block is %d", e.Buffer.MinBindingSize, g.Size())
	}
	return nil
}

func (r *renderer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dirty {
		return StateDirty
	}
	return StateClean
}

func (r *renderer) Update() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.retired {
		p.Release()
	}
	r.retired = nil

	var buildErr error
	if r.dirty {
		buildErr = r.rebuild()
	}

	if r.current != nil {
		r.uniforms.SetDiscriminant(int32(r.current.Arity()))
	} else {
		r.uniforms.SetDiscriminant(int32(r.store.Snapshot().Arity))
	}
	return errors.Join(buildErr, r.uniforms.Update(r.backend))
}

// rebuild assembles, compiles and links the current component set. Must be called with r.mu held.
func (r *renderer) rebuild() error {
	set := r.store.Snapshot()
	if !set.Complete() {
		r.logger.Debug("rebuild deferred, component set incomplete",
			zap.String("hash", set.Hash.Name), zap.String("noise", set.Noise.Name))
		return nil
	}
	if r.current != nil && r.current.Components().Generation == set.Generation {
		r.dirty = false
		return nil
	}
	if r.failed && r.failedGen == set.Generation {
		return nil
	}

	key := pipeline.Key(set)
	p, src, err := r.build(key, set)
	if err != nil {
		r.failed = true
		r.failedGen = set.Generation
		r.stats.Failures++
		r.logger.Warn("pipeline rebuild failed, keeping previous pipeline",
			zap.String("key", key), zap.Error(err))
		return err
	}

	if r.current != nil {
		r.retired = append(r.retired, r.current)
	}
	r.current = p
	r.assembled = src
	r.dirty = false
	r.failed = false
	r.stats.Rebuilds++
	r.stats.Key = key
	r.stats.Generation = set.Generation
	r.logger.Info("pipeline rebuilt", zap.String("key", key), zap.Stringer("arity", set.Arity), zap.Int("rebuilds", r.stats.Rebuilds))
	return nil
}

func (r *renderer) build(key string, set shader.ComponentSet) (pipeline.Pipeline, string, error) {
	src, err := r.assembler.Assemble(set)
	if err != nil {
		return nil, "", err
	}

	fs, err := shader.NewShader(key, shader.ShaderTypeFragment, src)
	if err != nil {
		return nil, "", &backend.CompileError{Label: key, Diagnostic: err.Error()}
	}

	module, err := r.backend.CompileShader(fs.Module())
	if err != nil {
		return nil, "", err
	}

	opts := append([]pipeline.PipelineBuilderOption{
		pipeline.WithVertexShader(r.assembler.Vertex()),
		pipeline.WithFragmentShader(fs),
		pipeline.WithComponents(set),
	}, r.pipelineOptions...)
	p := pipeline.NewPipeline(key, opts...)
	p.SetFragmentModule(module)

	rp, err := r.backend.BuildPipeline(p.Descriptor(r.vertexModule, []backend.BindGroupLayout{r.uniforms.BindGroupLayout()}))
	if err != nil {
		p.Release()
		return nil, "", err
	}
	p.SetRenderPipeline(rp)
	return p, src, nil
}

func (r *renderer) CurrentPipeline() pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *renderer) BindGroup() backend.BindGroup {
	return r.uniforms.BindGroup()
}

func (r *renderer) Uniforms() uniform.UniformState {
	return r.uniforms
}

func (r *renderer) Store() shader.ComponentStore {
	return r.store
}

func (r *renderer) RequestHash(ctx context.Context, name string) error {
	return r.request(ctx, shader.SlotHash, name)
}

func (r *renderer) RequestNoise(ctx context.Context, name string) error {
	return r.request(ctx, shader.SlotNoise, name)
}

func (r *renderer) request(ctx context.Context, slot shader.Slot, name string) error {
	req := r.store.Begin(slot, name)
	source, err := r.store.Fetch(ctx, req)
	if err != nil {
		return err
	}
	return r.ApplyFragment(req, source)
}

func (r *renderer) ApplyFragment(req shader.Request, source string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Commit(req, source); err != nil {
		return err
	}
	r.dirty = true
	r.failed = false
	return nil
}

func (r *renderer) MarkDirty() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = true
	r.failed = false
}

func (r *renderer) SetResolution(width, height float32) {
	r.uniforms.SetResolution(width, height)
}

func (r *renderer) Resize(width, height int) {
	r.backend.Resize(width, height)
	r.uniforms.SetResolution(float32(width), float32(height))
}

func (r *renderer) AssembledSource() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.assembled
}

func (r *renderer) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) Draw() error {
	r.mu.Lock()
	p := r.current
	r.mu.Unlock()

	if p == nil || p.Pipeline() == nil {
		return ErrNoPipeline
	}
	r.backend.Draw(p.Pipeline(), []backend.BindGroup{r.uniforms.BindGroup()}, p.VertexCount())
	return nil
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.retired {
		p.Release()
	}
	r.retired = nil
	if r.current != nil {
		r.current.Release()
		r.current = nil
	}
	if r.vertexModule != nil {
		r.vertexModule.Release()
		r.vertexModule = nil
	}
	r.uniforms.Release()
}
