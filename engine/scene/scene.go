package scene

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-noise/engine/loader"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/shader"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrQueueFull is returned by Submit when the event queue has no room left.
var ErrQueueFull = errors.New("scene: event queue full")

// ErrUnknownParameter is returned by Submit for a parameter the scene does not handle.
var ErrUnknownParameter = errors.New("scene: unknown parameter")

const defaultEventQueueSize = 64

// Parameter names a user-selectable input of the viewer.
type Parameter int

const (
	// ParameterHash selects the hash fragment.
	ParameterHash Parameter = iota

	// ParameterNoise selects the noise fragment.
	ParameterNoise
)

func (p Parameter) String() string {
	switch p {
	case ParameterHash:
		return "hash"
	case ParameterNoise:
		return "noise"
	default:
		return fmt.Sprintf("parameter(%d)", int(p))
	}
}

func (p Parameter) slot() (shader.Slot, bool) {
	switch p {
	case ParameterHash:
		return shader.SlotHash, true
	case ParameterNoise:
		return shader.SlotNoise, true
	default:
		return 0, false
	}
}

// ParameterChanged is emitted by the UI, the window or the file watcher when a selection
// changes. Value is the fragment name.
type ParameterChanged struct {
	Parameter Parameter
	Value     string
}

// FrameStats counts what the scene has done with fetched fragments.
type FrameStats struct {
	Frames     uint64
	Dispatched uint64
	Applied    uint64
	Stale      uint64
	Failed     uint64
	Skipped    uint64
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu     *sync.Mutex
	logger *zap.Logger

	name   string
	active bool

	renderer renderer.Renderer
	loader   loader.Loader

	// ctx is cancelled on Close and passed to every fetch.
	ctx    context.Context
	cancel context.CancelFunc

	events chan ParameterChanged

	// requests maps loader job IDs to the store requests they were issued for.
	requests  map[uint64]shader.Request
	nextJobID uint64

	// selected holds the most recently requested name per slot.
	selected map[shader.Slot]string

	catalogue loader.Catalogue
	watcher   *loader.Watcher

	pendingWidth, pendingHeight int
	resizePending               bool

	stats  FrameStats
	closed bool

	eventQueueSize int
}

// Scene is the single owner of the viewer's render state. Producers on any goroutine call
// Submit (or RequestHash, RequestNoise, Resize); the render loop calls Frame once per frame,
// which applies everything submitted since the previous frame in order.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Renderer returns the scene's renderer.
	Renderer() renderer.Renderer

	// Loader returns the loader fragment fetches run on.
	Loader() loader.Loader

	// Submit enqueues a parameter change. It never blocks.
	//
	// Parameters:
	//   - ev: the change to apply on the next Frame
	//
	// Returns:
	//   - error: ErrQueueFull if the queue has no room, ErrUnknownParameter for an unhandled parameter
	Submit(ev ParameterChanged) error

	// RequestHash enqueues a hash fragment selection.
	RequestHash(name string) error

	// RequestNoise enqueues a noise fragment selection.
	RequestNoise(name string) error

	// Cycle selects the catalogue entry step positions away from the current selection.
	//
	// Parameters:
	//   - p: the parameter to cycle
	//   - step: the offset, negative to go backwards
	//
	// Returns:
	//   - string: the newly requested name, or "" if the catalogue has no entries for p
	//   - error: the Submit error
	Cycle(p Parameter, step int) (string, error)

	// Selected returns the most recently requested fragment name for a parameter.
	Selected(p Parameter) string

	// Resize records a new surface size. It is applied at the start of the next Frame.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// Catalogue returns the known fragment names.
	Catalogue() loader.Catalogue

	// SetCatalogue replaces the known fragment names used for validation and cycling.
	SetCatalogue(c loader.Catalogue)

	// Preload fetches and commits the initial hash and noise fragments concurrently, blocking
	// until both are committed. The next Frame builds the first pipeline.
	//
	// Parameters:
	//   - ctx: cancels both fetches
	//   - hash: the initial hash fragment name
	//   - noise: the initial noise fragment name
	//
	// Returns:
	//   - error: the first fetch error
	Preload(ctx context.Context, hash, noise string) error

	// Watch reloads the active fragments whenever their files under root change.
	//
	// Parameters:
	//   - root: the on-disk catalogue root
	//   - options: watcher options such as loader.WithDebounce
	//
	// Returns:
	//   - error: an error if the directory cannot be watched
	Watch(root string, options ...loader.WatcherOption) error

	// Frame runs one frame: queued events are dispatched as fetches, completed fetches are
	// committed, the renderer is updated and the frame is drawn and presented.
	//
	// Returns:
	//   - error: a *backend.GpuError if the frame could not be drawn; build failures are
	//     logged and leave the previous pipeline on screen
	Frame() error

	// Pending returns the number of dispatched fetches that have not been committed yet.
	Pending() int

	// Stats returns a snapshot of the scene counters.
	Stats() FrameStats

	// Close stops the watcher, cancels outstanding fetches, waits for them and releases the
	// renderer. The scene cannot be used afterwards.
	Close()
}

var _ Scene = &scene{}

// NewScene creates a Scene that drives r and fetches fragments on l. Both must share the
// store's fetcher for paths to resolve the same way.
//
// Parameters:
//   - name: the scene identifier
//   - r: the renderer to drive
//   - l: the loader fragment fetches run on
//   - options: a variadic list of SceneBuilderOption functions to configure the scene
//
// Returns:
//   - Scene: the new active scene
func NewScene(name string, r renderer.Renderer, l loader.Loader, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:             &sync.Mutex{},
		logger:         zap.NewNop(),
		name:           name,
		active:         true,
		renderer:       r,
		loader:         l,
		requests:       make(map[uint64]shader.Request),
		selected:       make(map[shader.Slot]string),
		eventQueueSize: defaultEventQueueSize,
	}
	for _, option := range options {
		option(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.events = make(chan ParameterChanged, s.eventQueueSize)

	for _, slot := range []shader.Slot{shader.SlotHash, shader.SlotNoise} {
		if f, ok := r.Store().Fragment(slot); ok {
			s.selected[slot] = f.Name
		}
	}
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Renderer() renderer.Renderer {
	return s.renderer
}

func (s *scene) Loader() loader.Loader {
	return s.loader
}

func (s *scene) Submit(ev ParameterChanged) error {
	if _, ok := ev.Parameter.slot(); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParameter, ev.Parameter)
	}
	select {
	case s.events <- ev:
		return nil
	default:
		s.logger.Warn("dropping parameter change, queue full",
			zap.Stringer("parameter", ev.Parameter), zap.String("value", ev.Value))
		return ErrQueueFull
	}
}

func (s *scene) RequestHash(name string) error {
	return s.Submit(ParameterChanged{Parameter: ParameterHash, Value: name})
}

func (s *scene) RequestNoise(name string) error {
	return s.Submit(ParameterChanged{Parameter: ParameterNoise, Value: name})
}

func (s *scene) Cycle(p Parameter, step int) (string, error) {
	slot, ok := p.slot()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownParameter, p)
	}

	s.mu.Lock()
	names := s.catalogue.Noises
	if slot == shader.SlotHash {
		names = s.catalogue.Hashes
	}
	next := loader.Cycle(names, s.selected[slot], step)
	s.mu.Unlock()

	if next == "" {
		return "", nil
	}
	return next, s.Submit(ParameterChanged{Parameter: p, Value: next})
}

func (s *scene) Selected(p Parameter) string {
	slot, ok := p.slot()
	if !ok {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected[slot]
}

func (s *scene) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingWidth, s.pendingHeight = width, height
	s.resizePending = true
}

func (s *scene) Catalogue() loader.Catalogue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalogue
}

func (s *scene) SetCatalogue(c loader.Catalogue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalogue = c
	s.logger.Debug("catalogue set", zap.Int("hashes", len(c.Hashes)), zap.Int("noises", len(c.Noises)))
}

func (s *scene) Preload(ctx context.Context, hash, noise string) error {
	s.mu.Lock()
	s.selected[shader.SlotHash] = hash
	s.selected[shader.SlotNoise] = noise
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.renderer.RequestHash(gctx, hash) })
	g.Go(func() error { return s.renderer.RequestNoise(gctx, noise) })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("scene %s: preload: %w", s.name, err)
	}
	s.logger.Info("preloaded fragments", zap.String("hash", hash), zap.String("noise", noise))
	return nil
}

func (s *scene) Watch(root string, options ...loader.WatcherOption) error {
	s.mu.Lock()
	if s.watcher != nil {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	opts := append([]loader.WatcherOption{loader.WithWatcherLogger(s.logger)}, options...)
	w, err := loader.NewWatcher(root, s.onChange, opts...)
	if err != nil {
		return fmt.Errorf("scene %s: watch %s: %w", s.name, root, err)
	}
	if err := w.Start(s.ctx); err != nil {
		w.Stop()
		return fmt.Errorf("scene %s: watch %s: %w", s.name, root, err)
	}

	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
	return nil
}

// onChange reloads a changed fragment if it is the one currently committed for its slot.
func (s *scene) onChange(c loader.Change) {
	p := ParameterNoise
	slot := shader.SlotNoise
	if c.Dir == loader.HashDir {
		p, slot = ParameterHash, shader.SlotHash
	}
	f, ok := s.renderer.Store().Fragment(slot)
	if !ok || f.Name != c.Name {
		return
	}
	s.logger.Info("fragment changed on disk, reloading", zap.Stringer("parameter", p), zap.String("name", c.Name))
	if err := s.Submit(ParameterChanged{Parameter: p, Value: c.Name}); err != nil {
		s.logger.Debug("reload not queued", zap.String("path", s.renderer.Store().Path(slot, c.Name)), zap.Error(err))
	}
}

func (s *scene) Frame() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.stats.Frames++
	resize, w, h := s.resizePending, s.pendingWidth, s.pendingHeight
	s.resizePending = false
	s.mu.Unlock()

	if resize {
		s.renderer.Resize(w, h)
	}

	s.dispatchEvents()
	s.collectResults()

	if err := s.renderer.Update(); err != nil {
		if backend.IsGpuError(err) {
			s.logger.Warn("skipping frame", zap.Error(err))
			s.count(func(st *FrameStats) { st.Skipped++ })
			return err
		}
		s.logger.Debug("update finished with build errors", zap.Error(err))
	}

	if err := s.renderer.BeginFrame(); err != nil {
		s.logger.Warn("skipping frame", zap.Error(err))
		s.count(func(st *FrameStats) { st.Skipped++ })
		return err
	}
	if err := s.renderer.Draw(); err != nil && !errors.Is(err, renderer.ErrNoPipeline) {
		s.logger.Warn("draw failed", zap.Error(err))
	}
	s.renderer.EndFrame()
	s.renderer.Present()
	return nil
}

// dispatchEvents drains every queued event in submission order and issues one fetch per
// event. Request IDs are issued here so the last event per slot wins.
func (s *scene) dispatchEvents() {
	store := s.renderer.Store()
	for {
		var ev ParameterChanged
		select {
		case ev = <-s.events:
		default:
			return
		}

		slot, _ := ev.Parameter.slot()
		s.mu.Lock()
		known := s.known(slot, ev.Value)
		s.selected[slot] = ev.Value
		s.nextJobID++
		job := loader.Job{ID: s.nextJobID, Tag: slot.String(), Path: store.Path(slot, ev.Value)}
		s.requests[job.ID] = store.Begin(slot, ev.Value)
		s.stats.Dispatched++
		s.mu.Unlock()

		if !known {
			s.logger.Warn("fragment not in catalogue", zap.Stringer("parameter", ev.Parameter), zap.String("name", ev.Value))
		}

		if err := s.loader.Submit(s.ctx, job); err != nil {
			s.logger.Warn("fetch not dispatched", zap.String("path", job.Path), zap.Error(err))
			s.mu.Lock()
			delete(s.requests, job.ID)
			s.stats.Failed++
			s.mu.Unlock()
		}
	}
}

// known reports whether name is listed in the catalogue. An empty catalogue knows every name.
func (s *scene) known(slot shader.Slot, name string) bool {
	if s.catalogue.Empty() {
		return true
	}
	if slot == shader.SlotHash {
		return s.catalogue.HasHash(name)
	}
	return s.catalogue.HasNoise(name)
}

// collectResults commits every completed fetch.
func (s *scene) collectResults() {
	for _, res := range s.loader.Drain() {
		s.mu.Lock()
		req, ok := s.requests[res.Job.ID]
		delete(s.requests, res.Job.ID)
		s.mu.Unlock()
		if !ok {
			continue
		}

		if res.Err != nil {
			s.logger.Warn("fragment fetch failed, keeping current fragment",
				zap.String("path", res.Job.Path), zap.Error(res.Err))
			s.count(func(st *FrameStats) { st.Failed++ })
			continue
		}

		err := s.renderer.ApplyFragment(req, res.Source)
		switch {
		case err == nil:
			s.logger.Debug("fragment applied", zap.String("slot", req.Slot.String()), zap.String("name", req.Name))
			s.count(func(st *FrameStats) { st.Applied++ })
		case errors.Is(err, shader.ErrStaleRequest):
			s.logger.Debug("fragment superseded", zap.String("slot", req.Slot.String()), zap.String("name", req.Name))
			s.count(func(st *FrameStats) { st.Stale++ })
		default:
			s.logger.Warn("fragment rejected, keeping current fragment",
				zap.String("path", res.Job.Path), zap.Error(err))
			s.count(func(st *FrameStats) { st.Failed++ })
		}
	}
}

func (s *scene) count(f func(*FrameStats)) {
	s.mu.Lock()
	f(&s.stats)
	s.mu.Unlock()
}

func (s *scene) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *scene) Stats() FrameStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *scene) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	if w != nil {
		w.Stop()
	}
	s.cancel()
	s.loader.Close()
	s.renderer.Release()
}
