package engine

import (
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/Carmen-Shannon/oxy-noise/engine/loader"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend/headless"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-noise/engine/scene"
	"github.com/Carmen-Shannon/oxy-noise/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type handle struct{ label string }

func (h *handle) Label() string { return h.label }
func (h *handle) Release()      {}

type permissiveBackend struct {
	headless.Backend
}

func (b *permissiveBackend) CompileShader(desc backend.ShaderModuleDescriptor) (backend.ShaderModule, error) {
	return &handle{label: desc.Label}, nil
}

func (b *permissiveBackend) BuildPipeline(desc backend.RenderPipelineDescriptor) (backend.RenderPipeline, error) {
	return &handle{label: desc.Label}, nil
}

// fakeWindow runs an empty message loop until RequestClose.
type fakeWindow struct {
	mu       sync.Mutex
	onResize func(width, height int)
	closeCh  chan struct{}
	once     sync.Once
	closed   bool
}

var _ window.Window = &fakeWindow{}

func newFakeWindow() *fakeWindow { return &fakeWindow{closeCh: make(chan struct{})} }

func (w *fakeWindow) SetUpdateCallback(func()) {}
func (w *fakeWindow) SetResizeCallback(cb func(width, height int)) {
	w.onResize = cb
}
func (w *fakeWindow) SetKeyDownCallback(func(uint32, window.Modifier)) {}
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor      { return nil }
func (w *fakeWindow) Title() string                                    { return "" }
func (w *fakeWindow) SetTitle(string)                                  {}
func (w *fakeWindow) IsRunning() bool {
	select {
	case <-w.closeCh:
		return false
	default:
		return true
	}
}
func (w *fakeWindow) RequestClose() { w.once.Do(func() { close(w.closeCh) }) }
func (w *fakeWindow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}
func (w *fakeWindow) ProcessMessages() { <-w.closeCh }
func (w *fakeWindow) Width() int       { return 0 }
func (w *fakeWindow) Height() int      { return 0 }

func newTestScene(t *testing.T, name string, options ...scene.SceneBuilderOption) (headless.Backend, scene.Scene) {
	t.Helper()
	hb := headless.New()
	fetcher := loader.NewFSFetcher(fstest.MapFS{})
	store := shader.NewComponentStore(fetcher,
		shader.WithFragment(shader.SlotHash, "fasthash", "fn hash11(x: u32) -> u32 { return x; }\n"),
		shader.WithFragment(shader.SlotNoise, "perlin_21", "fn noise(p: vec2<f32>) -> f32 { return 0.5; }\n"),
	)
	a, err := shader.NewAssembler()
	require.NoError(t, err)
	r, err := renderer.NewRenderer(&permissiveBackend{Backend: hb}, store, a)
	require.NoError(t, err)
	return hb, scene.NewScene(name, r, loader.NewLoader(fetcher), options...)
}

func TestRunDrivesActiveScenes(t *testing.T) {
	activeBackend, active := newTestScene(t, "active")
	idleBackend, idle := newTestScene(t, "idle", scene.WithActive(false))

	var renders, ticks atomic.Int64
	e := NewEngine(
		WithScene(0, active),
		WithScene(1, idle),
		WithRenderFrameLimit(500),
		WithTickRate(200),
	)
	e.SetRenderCallback(func(float32) { renders.Add(1) })
	e.SetTickCallback(func(float32) { ticks.Add(1) })

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	require.Eventually(t, func() bool {
		return activeBackend.Frames() >= 3 && ticks.Load() >= 2
	}, 5*time.Second, 5*time.Millisecond)
	e.Quit()
	e.Quit()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Quit")
	}

	assert.Positive(t, renders.Load())
	assert.Equal(t, 0, idleBackend.Frames())
	assert.Nil(t, active.Renderer().CurrentPipeline(), "scenes are closed when Run returns")
	assert.Equal(t, "fasthash+perlin_21#2", active.Renderer().Stats().Key)
}

func TestWindowLifecycle(t *testing.T) {
	hb, s := newTestScene(t, "noise")
	w := newFakeWindow()
	e := NewEngine(WithWindow(w), WithScene(0, s), WithRenderFrameLimit(500))
	require.NotNil(t, w.onResize)

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	w.onResize(1024, 768)
	require.Eventually(t, func() bool {
		width, height := hb.Size()
		return width == 1024 && height == 768
	}, 5*time.Second, 5*time.Millisecond)

	// closing the window stops the engine
	w.RequestClose()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the window closed")
	}
	w.mu.Lock()
	assert.True(t, w.closed)
	w.mu.Unlock()
}

func TestProfilerReportsRebuilds(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	_, s := newTestScene(t, "noise")

	e := NewEngine(
		WithLogger(zap.New(core)),
		WithScene(0, s),
		WithProfiling(true),
		WithProfileInterval(time.Millisecond),
		WithRenderFrameLimit(500),
	)

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()
	require.Eventually(t, func() bool {
		for _, entry := range logs.FilterMessage("profiler").All() {
			if entry.ContextMap()["rebuilds"] == int64(1) {
				return true
			}
		}
		return false
	}, 5*time.Second, 5*time.Millisecond)
	e.Quit()
	<-done

	entry := logs.FilterMessage("profiler").All()[0]
	assert.Equal(t, "noise", entry.ContextMap()["scene"])
}

func TestSceneRegistry(t *testing.T) {
	_, s := newTestScene(t, "noise")
	t.Cleanup(s.Close)

	e := NewEngine()
	assert.Nil(t, e.Scene(3))
	e.AddScene(3, s)
	assert.Same(t, s, e.Scene(3))

	scenes := e.Scenes()
	delete(scenes, 3)
	assert.Len(t, e.Scenes(), 1, "Scenes returns a copy")

	e.RemoveScene(3)
	assert.Empty(t, e.Scenes())
}
