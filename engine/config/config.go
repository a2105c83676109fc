// Package config loads the noise viewer configuration from YAML, an optional .env file and
// OXY_NOISE_* environment variables, in that order of precedence (lowest first).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "OXY_NOISE_"

// Config is the top-level viewer configuration.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Renderer RendererConfig `yaml:"renderer"`
	Shaders  ShadersConfig  `yaml:"shaders"`
	Loader   LoaderConfig   `yaml:"loader"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WindowConfig configures the output window.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// RendererConfig configures the GPU backend and the frame loop.
type RendererConfig struct {
	PresentMode     string `yaml:"present_mode"` // vsync, uncapped
	FrameLimit      int    `yaml:"frame_limit"`  // 0 = unlimited
	TickRate        int    `yaml:"tick_rate"`    // 0 = 60Hz
	ForceSoftware   bool   `yaml:"force_software"`
	Profiling       bool   `yaml:"profiling"`
	ProfileInterval string `yaml:"profile_interval"` // empty = once a second
}

// ShadersConfig selects the fragment catalogue and the initial component set.
type ShadersConfig struct {
	Root     string `yaml:"root"` // directory or http(s) URL; empty = embedded catalogue
	Hash     string `yaml:"hash"`
	Noise    string `yaml:"noise"`
	Watch    bool   `yaml:"watch"`
	Debounce string `yaml:"debounce"`
}

// LoaderConfig configures the asynchronous fetch pool.
type LoaderConfig struct {
	Workers      int    `yaml:"workers"`
	QueueSize    int    `yaml:"queue_size"`
	FetchTimeout string `yaml:"fetch_timeout"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "oxy-noise",
			Width:  1280,
			Height: 720,
		},
		Renderer: RendererConfig{
			PresentMode: "vsync",
		},
		Shaders: ShadersConfig{
			Hash:     "fasthash",
			Noise:    "perlin_21",
			Debounce: "100ms",
		},
		Loader: LoaderConfig{
			Workers:      2,
			QueueSize:    64,
			FetchTimeout: "5s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file, then applies environment overrides.
// A missing file yields the defaults.
//
// Parameters:
//   - path: the YAML file to read; empty skips the file
//
// Returns:
//   - *Config: the loaded configuration
//   - error: an error if the file cannot be read or parsed, or the result is invalid
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv loads KEY=VALUE files into the process environment. Files that do not exist are
// skipped and variables already set are left alone.
//
// Parameters:
//   - files: the .env files to read, in order
//
// Returns:
//   - error: an error if an existing file cannot be parsed
func LoadEnv(files ...string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks ranges and parses every duration field.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Renderer.FrameLimit < 0 {
		errs = append(errs, fmt.Errorf("frame_limit must not be negative, got %d", c.Renderer.FrameLimit))
	}
	if c.Renderer.TickRate < 0 {
		errs = append(errs, fmt.Errorf("tick_rate must not be negative, got %d", c.Renderer.TickRate))
	}
	if _, err := parseDuration("renderer.profile_interval", c.Renderer.ProfileInterval); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Renderer.PresentMode) {
	case "", "vsync", "fifo", "uncapped", "immediate":
	default:
		errs = append(errs, fmt.Errorf("unknown present_mode %q", c.Renderer.PresentMode))
	}
	if c.Shaders.Hash == "" || c.Shaders.Noise == "" {
		errs = append(errs, errors.New("shaders.hash and shaders.noise are required"))
	}
	if _, err := parseDuration("shaders.debounce", c.Shaders.Debounce); err != nil {
		errs = append(errs, err)
	}
	if _, err := parseDuration("loader.fetch_timeout", c.Loader.FetchTimeout); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// DebounceDuration returns the parsed watcher debounce, or zero if unset.
func (c ShadersConfig) DebounceDuration() time.Duration {
	d, _ := parseDuration("shaders.debounce", c.Debounce)
	return d
}

// ProfileIntervalDuration returns the parsed profiler sample interval, or zero if unset.
func (c RendererConfig) ProfileIntervalDuration() time.Duration {
	d, _ := parseDuration("renderer.profile_interval", c.ProfileInterval)
	return d
}

// Timeout returns the parsed per-fetch timeout, or zero if unset.
func (c LoaderConfig) Timeout() time.Duration {
	d, _ := parseDuration("loader.fetch_timeout", c.FetchTimeout)
	return d
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative, got %s", field, value)
	}
	return d, nil
}

// applyEnvOverrides applies OXY_NOISE_* environment variables on top of the file values.
func (c *Config) applyEnvOverrides() error {
	var errs []error

	envString("WINDOW_TITLE", &c.Window.Title)
	errs = append(errs, envInt("WIDTH", &c.Window.Width), envInt("HEIGHT", &c.Window.Height))

	envString("PRESENT_MODE", &c.Renderer.PresentMode)
	envString("PROFILE_INTERVAL", &c.Renderer.ProfileInterval)
	errs = append(errs,
		envInt("FRAME_LIMIT", &c.Renderer.FrameLimit),
		envInt("TICK_RATE", &c.Renderer.TickRate),
		envBool("FORCE_SOFTWARE", &c.Renderer.ForceSoftware),
		envBool("PROFILING", &c.Renderer.Profiling),
	)

	envString("SHADER_ROOT", &c.Shaders.Root)
	envString("HASH", &c.Shaders.Hash)
	envString("NOISE", &c.Shaders.Noise)
	envString("DEBOUNCE", &c.Shaders.Debounce)
	errs = append(errs, envBool("WATCH", &c.Shaders.Watch))

	envString("FETCH_TIMEOUT", &c.Loader.FetchTimeout)
	errs = append(errs, envInt("WORKERS", &c.Loader.Workers), envInt("QUEUE_SIZE", &c.Loader.QueueSize))

	envString("LOG_LEVEL", &c.Logging.Level)
	errs = append(errs, envBool("LOG_DEVELOPMENT", &c.Logging.Development))

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	return nil
}

func envString(key string, dst *string) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	*dst = n
	return nil
}

func envBool(key string, dst *bool) error {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	*dst = b
	return nil
}
