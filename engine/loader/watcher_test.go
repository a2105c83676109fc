package loader

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatcherReportsSettledChanges(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "hash"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "noise", "2d"), 0755))

	var mu sync.Mutex
	var changes []Change
	w, err := NewWatcher(dir, func(c Change) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, c)
	}, WithDebounce(40*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	target := filepath.Join(dir, "noise", "2d", "value_21.wgsl")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(target, []byte("fn noise(p: vec2<f32>) -> f32 { return 0.0; }"), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hash", "notes.txt"), []byte("ignored"), 0644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changes) > 0
	}, 2*time.Second, 10*time.Millisecond)

	w.Stop()

	mu.Lock()
	defer mu.Unlock()
	for _, c := range changes {
		assert.Equal(t, Change{Dir: NoiseDir, Name: "value_21"}, c)
	}
}

func TestWatcherStartFailsWithoutDirs(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	w, err := NewWatcher(filepath.Join(t.TempDir(), "missing"), func(Change) {})
	require.NoError(t, err)
	assert.Error(t, w.Start(context.Background()))
	w.Stop()
}

func TestWatcherStopsOnContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "hash"), 0755))

	ctx, cancel := context.WithCancel(context.Background())
	w, err := NewWatcher(dir, func(Change) {})
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	cancel()
	w.Stop()
}
