package uniform

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend/headless"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformLayout() backend.BindGroupLayoutDescriptor {
	return backend.BindGroupLayoutDescriptor{
		Entries: []backend.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: backend.ShaderStageFragment,
			Buffer:     backend.BufferBindingLayout{Type: backend.BufferBindingTypeUniform, MinBindingSize: 16},
		}},
	}
}

func TestGPUUniformsLayout(t *testing.T) {
	var g GPUUniforms
	assert.Equal(t, 16, g.Size())
	assert.Len(t, g.Marshal(), 16)
}

func TestGPUUniformsRoundTrip(t *testing.T) {
	tests := []GPUUniforms{
		{},
		{Resolution: [2]float32{800, 600}, HashVariant: 1},
		{Resolution: [2]float32{1.5, float32(math.Inf(1))}, HashVariant: -3},
		{Resolution: [2]float32{-0.25, 3840}, HashVariant: math.MaxInt32},
	}
	for _, want := range tests {
		got, err := UnmarshalGPUUniforms(want.Marshal())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := UnmarshalGPUUniforms(make([]byte, 12))
	assert.Error(t, err)
}

func TestUpdateUploadsResolution(t *testing.T) {
	b := headless.New()
	s, err := NewUniformState(b, uniformLayout())
	require.NoError(t, err)
	defer s.Release()

	s.SetResolution(800, 600)
	assert.True(t, s.Pending())
	require.NoError(t, s.Update(b))
	assert.False(t, s.Pending())

	got, err := UnmarshalGPUUniforms(b.BufferContents(s.(*uniformState).provider.Buffer(0)))
	require.NoError(t, err)
	assert.Equal(t, [2]float32{800, 600}, got.Resolution)

	// unchanged blocks are still uploaded
	require.NoError(t, s.Update(b))
	assert.Equal(t, 2, s.Uploads())
}

func TestSettersTrackPending(t *testing.T) {
	b := headless.New()
	s, err := NewUniformState(b, uniformLayout(), WithResolution(mgl32.Vec2{320, 240}))
	require.NoError(t, err)
	require.NoError(t, s.Update(b))

	s.SetResolutionVec(mgl32.Vec2{320, 240})
	assert.False(t, s.Pending(), "same resolution is not a change")

	s.SetDiscriminant(2)
	assert.True(t, s.Pending())
	assert.Equal(t, int32(2), s.Block().HashVariant)
	assert.Equal(t, mgl32.Vec2{320, 240}, s.Resolution())
}

func TestUpdateFailsAfterDeviceLoss(t *testing.T) {
	b := headless.New()
	s, err := NewUniformState(b, uniformLayout())
	require.NoError(t, err)

	b.Lose()
	s.SetResolution(10, 10)
	err = s.Update(b)
	assert.True(t, backend.IsGpuError(err))
	assert.True(t, s.Pending())
	assert.Equal(t, 0, s.Uploads())
}

func TestNewUniformStateRejectsOversizedLayout(t *testing.T) {
	layout := uniformLayout()
	layout.Entries[0].Buffer.MinBindingSize = 32
	_, err := NewUniformState(headless.New(), layout)
	assert.True(t, backend.IsGpuError(err))
}
