package main

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/Carmen-Shannon/oxy-noise/engine"
	"github.com/Carmen-Shannon/oxy-noise/engine/loader"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend/wgpubackend"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-noise/engine/scene"
	"github.com/Carmen-Shannon/oxy-noise/engine/window"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// GLFW must be driven from the main thread.
func init() {
	runtime.LockOSThread()
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the viewer window",
	Long: `Opens a window and renders the configured hash and noise fragments.

The initial fragments come from shaders.hash and shaders.noise. With shaders.watch set and a
directory catalogue, saving a fragment that is on screen reloads it.`,
	Args: cobra.NoArgs,
	RunE: runViewer,
}

func runViewer(cmd *cobra.Command, args []string) error {
	logger = logger.With(zap.String("session", uuid.NewString()))

	win := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithWidth(cfg.Window.Width),
		window.WithHeight(cfg.Window.Height),
	)

	mode, err := wgpubackend.ParsePresentMode(strings.ToLower(cfg.Renderer.PresentMode))
	if err != nil {
		_ = win.Close()
		return err
	}
	b, err := wgpubackend.New(win.SurfaceDescriptor(), win.Width(), win.Height(),
		wgpubackend.WithLogger(logger.Named("gpu")),
		wgpubackend.WithPresentMode(mode),
		wgpubackend.WithForceSoftwareRenderer(cfg.Renderer.ForceSoftware),
	)
	if err != nil {
		_ = win.Close()
		return fmt.Errorf("failed to create GPU backend: %w", err)
	}
	defer b.Release()

	sc, err := newScene(cmd.Context(), b)
	if err != nil {
		_ = win.Close()
		return err
	}
	sc.Resize(win.Width(), win.Height())

	eng := engine.NewEngine(
		engine.WithLogger(logger),
		engine.WithWindow(win),
		engine.WithScene(0, sc),
		engine.WithProfiling(cfg.Renderer.Profiling),
		engine.WithProfileInterval(cfg.Renderer.ProfileIntervalDuration()),
		engine.WithTickRate(float64(cfg.Renderer.TickRate)),
		engine.WithRenderFrameLimit(float64(cfg.Renderer.FrameLimit)),
	)
	win.SetKeyDownCallback(keyHandler(eng, sc))
	win.SetUpdateCallback(func() {
		win.SetTitle(windowTitle(cfg.Window.Title, sc))
	})

	eng.Run()
	return nil
}

// newScene wires the fetch, assembly and render stack for one noise scene on b and loads the
// configured fragments. A failed initial load is logged; the viewer then shows the clear
// colour until a fragment loads.
func newScene(ctx context.Context, b backend.RendererBackend) (scene.Scene, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	fetcher, err := newFetcher(cfg.Shaders.Root)
	if err != nil {
		return nil, err
	}

	store := shader.NewComponentStore(fetcher, shader.WithLogger(logger.Named("store")))
	a, err := shader.NewAssembler()
	if err != nil {
		return nil, err
	}
	r, err := renderer.NewRenderer(b, store, a, renderer.WithLogger(logger.Named("renderer")))
	if err != nil {
		return nil, err
	}
	l := loader.NewLoader(fetcher,
		loader.WithLogger(logger.Named("loader")),
		loader.WithWorkers(cfg.Loader.Workers),
		loader.WithQueueSize(cfg.Loader.QueueSize),
		loader.WithFetchTimeout(cfg.Loader.Timeout()),
	)

	catalogue, err := loader.ReadCatalogue(ctx, fetcher)
	if err != nil {
		logger.Warn("catalogue unavailable, cycling disabled", zap.Error(err))
	}

	sc := scene.NewScene("noise", r, l,
		scene.WithLogger(logger.Named("scene")),
		scene.WithCatalogue(catalogue),
	)

	if err := sc.Preload(ctx, cfg.Shaders.Hash, cfg.Shaders.Noise); err != nil {
		logger.Warn("initial fragments failed to load",
			zap.String("hash", cfg.Shaders.Hash),
			zap.String("noise", cfg.Shaders.Noise),
			zap.Error(err),
		)
	}

	if cfg.Shaders.Watch {
		switch {
		case cfg.Shaders.Root == "" || loader.IsURL(cfg.Shaders.Root):
			logger.Warn("shaders.watch needs a catalogue directory, ignoring", zap.String("root", cfg.Shaders.Root))
		default:
			if err := sc.Watch(cfg.Shaders.Root, loader.WithDebounce(cfg.Shaders.DebounceDuration())); err != nil {
				sc.Close()
				return nil, err
			}
		}
	}
	return sc, nil
}

// keyHandler maps viewer keys onto scene requests.
func keyHandler(eng engine.Engine, sc scene.Scene) func(keyCode uint32, mods window.Modifier) {
	profiling := cfg.Renderer.Profiling
	return func(keyCode uint32, mods window.Modifier) {
		step := 1
		if mods.Has(window.ModShift) {
			step = -1
		}

		var err error
		switch keyCode {
		case window.KeyH:
			_, err = sc.Cycle(scene.ParameterHash, step)
		case window.KeyN:
			_, err = sc.Cycle(scene.ParameterNoise, step)
		case window.KeyR:
			if err = sc.RequestHash(sc.Selected(scene.ParameterHash)); err == nil {
				err = sc.RequestNoise(sc.Selected(scene.ParameterNoise))
			}
		case window.KeyP:
			profiling = !profiling
			if profiling {
				eng.EnableProfiler()
			} else {
				eng.DisableProfiler()
			}
		}
		if err != nil {
			logger.Warn("key ignored", zap.Uint32("key", keyCode), zap.Error(err))
		}
	}
}

func windowTitle(base string, sc scene.Scene) string {
	hash, noise := sc.Selected(scene.ParameterHash), sc.Selected(scene.ParameterNoise)
	if hash == "" && noise == "" {
		return base
	}
	return fmt.Sprintf("%s - %s + %s", base, hash, noise)
}
