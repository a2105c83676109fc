package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-noise/engine/scene"
	"github.com/Carmen-Shannon/oxy-noise/engine/window"
	"go.uber.org/zap"
)

// EngineBuilderOption configures an engine in NewEngine.
type EngineBuilderOption func(*engine)

// WithLogger sets the logger shared by the engine and its profiler.
//
// Parameters:
//   - logger: the logger to use; nil keeps the no-op default
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithProfiling starts the engine with frame-time sampling switched on. It can be toggled
// later with EnableProfiler and DisableProfiler.
//
// Parameters:
//   - enabled: whether samples are logged from the first frame
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfileInterval sets how often a profiler sample with the rebuild counters is logged.
//
// Parameters:
//   - d: the sample interval; zero or less keeps the profiler default of one second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfileInterval(d time.Duration) EngineBuilderOption {
	return func(e *engine) {
		e.profileInterval = d
	}
}

// WithTickRate sets how many ticks per second the tick loop runs. Values <= 0 mean 60.
//
// Parameters:
//   - fps: ticks per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithWindow attaches the output window. Run then drives its message loop and returns when it
// closes; without a window Run blocks until Quit.
//
// Parameters:
//   - w: the window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithScene registers s under key. Active scenes are framed in ascending key order.
//
// Parameters:
//   - key: the frame order of the scene
//   - s: the scene
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(key int, s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scenes[key] = s
	}
}

// WithRenderFrameLimit caps the render loop at fps frames per second. Zero or less leaves it
// uncapped, which with a vsync present mode still paces frames to the display.
//
// Parameters:
//   - fps: the frame cap
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = 0
		if fps > 0 {
			e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
		}
	}
}
