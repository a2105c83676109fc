package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFragmentArity(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   HashArity
	}{
		{"plain", "fn hash11(x: u32) -> u32 { return x; }", HashArityOneToOne},
		{"suffix_21", "fn hash21(p: vec2<u32>) -> u32 { return p.x; }", HashArityTwoToOne},
		{"suffix_13", "fn hash13(x: u32) -> vec3<u32> { return vec3<u32>(x); }", HashArityOneToThree},
		{"annotated_13", "//@oxy:arity 13\nfn hash13(x: u32) -> vec3<u32> { return vec3<u32>(x); }", HashArityOneToThree},
		{"annotated_over_suffix_13", "//@oxy:arity 11\nfn hash11(x: u32) -> u32 { return x; }", HashArityOneToOne},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := newFragment(SlotHash, tt.name, tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Arity)
			assert.Equal(t, tt.source, f.Source)
		})
	}
}

func TestNewFragmentNoiseIgnoresArity(t *testing.T) {
	f, err := newFragment(SlotNoise, "value_21", "fn noise(p: vec2<f32>) -> f32 { return 0.0; }")
	require.NoError(t, err)
	assert.Equal(t, HashArityOneToOne, f.Arity)
}

func TestNewFragmentMalformedAnnotation(t *testing.T) {
	_, err := newFragment(SlotHash, "bad", "//@oxy:arity 7\nfn hash11(x: u32) -> u32 { return x; }")
	assert.Error(t, err)
}

func TestSlotAndArityNames(t *testing.T) {
	for _, name := range []string{"hash", "noise", "HASH"} {
		_, err := ParseSlot(name)
		assert.NoError(t, err, name)
	}
	_, err := ParseSlot("glue")
	assert.Error(t, err)

	assert.Equal(t, "hash", SlotHash.String())
	assert.Equal(t, "noise", SlotNoise.String())
	assert.Equal(t, "hash21", HashArityTwoToOne.Function())
	assert.Equal(t, "13", HashArityOneToThree.String())
}

func TestComponentSetComplete(t *testing.T) {
	var set ComponentSet
	assert.False(t, set.Complete())
	set.Hash = Fragment{Source: "h"}
	assert.False(t, set.Complete())
	set.Noise = Fragment{Source: "n"}
	assert.True(t, set.Complete())
}
