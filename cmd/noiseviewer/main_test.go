package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-noise/engine"
	"github.com/Carmen-Shannon/oxy-noise/engine/config"
	"github.com/Carmen-Shannon/oxy-noise/engine/loader"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend/headless"
	"github.com/Carmen-Shannon/oxy-noise/engine/scene"
	"github.com/Carmen-Shannon/oxy-noise/engine/window"
	"github.com/Carmen-Shannon/oxy-noise/shaders"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup(t *testing.T) {
	t.Helper()
	cfg = config.DefaultConfig()
	logger = zap.NewNop()
}

func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	return cmd, &out
}

func TestNewFetcher(t *testing.T) {
	setup(t)

	embedded, err := newFetcher("")
	require.NoError(t, err)
	text, err := embedded.FetchText(context.Background(), loader.HashPath("fasthash"))
	require.NoError(t, err)
	assert.Contains(t, text, "fn hash11")

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "hash"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hash", "mine.wgsl"), []byte("fn hash11(x: u32) -> u32 { return x; }\n"), 0644))
	onDisk, err := newFetcher(dir)
	require.NoError(t, err)
	_, err = onDisk.FetchText(context.Background(), loader.HashPath("mine"))
	assert.NoError(t, err)

	_, err = newFetcher("http://localhost:1/shaders/")
	assert.NoError(t, err)
}

func TestAssemblePrintsProgram(t *testing.T) {
	setup(t)
	cmd, out := newTestCommand()

	require.NoError(t, runAssemble(cmd, []string{"fasthash", "perlin_21"}))
	source := out.String()
	assert.Contains(t, source, "fn hash11")
	assert.Contains(t, source, "@fragment")
}

func TestAssembleUnknownFragment(t *testing.T) {
	setup(t)
	cmd, _ := newTestCommand()

	var fetchErr *loader.FetchError
	assert.ErrorAs(t, runAssemble(cmd, []string{"no_such_hash"}), &fetchErr)
}

func TestCatalogueCommand(t *testing.T) {
	setup(t)
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "hash"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "noise", "2d"), 0755))
	for _, f := range []string{"hash/b.wgsl", "hash/a.wgsl", "noise/2d/n.wgsl", "noise/2d/readme.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, filepath.FromSlash(f)), []byte("// x\n"), 0644))
	}

	cmd, out := newTestCommand()
	require.NoError(t, runCatalogue(cmd, []string{dir}))
	assert.Equal(t, "hashes (2): a, b\nnoises (1): n\n", out.String())

	data, err := os.ReadFile(filepath.Join(dir, loader.HashListPath))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, loader.ParseList(string(data)))

	assert.Error(t, runCatalogue(cmd, []string{"https://example.com/shaders"}))
	assert.Error(t, runCatalogue(cmd, nil), "no directory configured")
}

func TestCheckCatalogueCoversEveryPair(t *testing.T) {
	setup(t)
	c := loader.Catalogue{Hashes: []string{"fasthash", "iqint_21"}, Noises: []string{"perlin_21", "value_21"}}

	results, err := checkCatalogue(context.Background(), loader.NewFSFetcher(shaders.FS), c, 2)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, pairResult{Hash: "fasthash", Noise: "perlin_21"}, pairResult{Hash: results[0].Hash, Noise: results[0].Noise})
	assert.Equal(t, pairResult{Hash: "iqint_21", Noise: "value_21"}, pairResult{Hash: results[3].Hash, Noise: results[3].Noise})

	c.Noises = append(c.Noises, "missing")
	_, err = checkCatalogue(context.Background(), loader.NewFSFetcher(shaders.FS), c, 2)
	var fetchErr *loader.FetchError
	assert.ErrorAs(t, err, &fetchErr)
}

func TestKeyHandlerCyclesSelection(t *testing.T) {
	setup(t)
	hb := headless.New()
	sc, err := newScene(context.Background(), hb)
	require.NoError(t, err)
	t.Cleanup(sc.Close)

	assert.Equal(t, "oxy-noise - fasthash + perlin_21", windowTitle("oxy-noise", sc))

	eng := engine.NewEngine()
	onKey := keyHandler(eng, sc)

	onKey(window.KeyH, 0)
	require.NoError(t, sc.Frame())
	assert.Equal(t, "iqint_21", sc.Selected(scene.ParameterHash))

	onKey(window.KeyH, window.ModShift)
	onKey(window.KeyN, window.ModShift)
	require.NoError(t, sc.Frame())
	assert.Equal(t, "fasthash", sc.Selected(scene.ParameterHash))
	assert.Equal(t, "perlin2_21", sc.Selected(scene.ParameterNoise))

	onKey(window.KeyR, 0)
	require.NoError(t, sc.Frame())
	assert.Equal(t, "fasthash", sc.Selected(scene.ParameterHash))
}
