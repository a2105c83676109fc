package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTickLogsEachInterval(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	clock := time.Unix(0, 0)

	p := NewProfiler(
		WithLogger(zap.New(core)),
		WithInterval(time.Second),
		WithFields(func() []zap.Field { return []zap.Field{zap.Uint64("rebuilds", 4)} }),
	)
	p.now = func() time.Time { return clock }
	p.lastTime = clock

	for i := 0; i < 59; i++ {
		clock = clock.Add(10 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	clock = clock.Add(410 * time.Millisecond)
	require.True(t, p.Tick())

	assert.InDelta(t, 60.0, p.Last().FPS, 0.001)
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, uint64(4), fields["rebuilds"])
	assert.Contains(t, fields, "heap_mb")

	// counter resets after a sample
	clock = clock.Add(2 * time.Second)
	require.True(t, p.Tick())
	assert.InDelta(t, 0.5, p.Last().FPS, 0.001)
}
