package shader

import (
	"context"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-noise/engine/loader"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/uniform"
	"github.com/Carmen-Shannon/oxy-noise/shaders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleJoinsParts(t *testing.T) {
	tests := []struct {
		name                    string
		head, hash, noise, glue string
		want                    string
	}{
		{"terminated", "H\n", "A\n", "N\n", "G\n", "H\nA\nN\nG\n"},
		{"unterminated", "H", "A", "N", "G", "HANG"},
		{"empty parts", "H", "", "N", "", "HN"},
		{"all empty", "", "", "", "", ""},
		{"blank lines kept", "H\n\n", "A", "N\n", "G", "H\n\nAN\nG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Assemble(tt.head, tt.hash, tt.noise, tt.glue)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Assemble(tt.head, tt.hash, tt.noise, tt.glue))
		})
	}
}

func TestAssemblerOrdersHeadHashNoiseGlue(t *testing.T) {
	a, err := NewAssembler()
	require.NoError(t, err)

	f := loader.NewFSFetcher(shaders.FS)
	ctx := context.Background()
	hash, err := f.FetchText(ctx, loader.HashPath("fasthash"))
	require.NoError(t, err)
	noise, err := f.FetchText(ctx, loader.NoisePath("perlin_21"))
	require.NoError(t, err)

	s := NewComponentStore(f, WithFragment(SlotHash, "fasthash", hash), WithFragment(SlotNoise, "perlin_21", noise))
	set := s.Snapshot()

	src, err := a.Assemble(set)
	require.NoError(t, err)

	headAt := strings.Index(src, "fn fs_main(")
	hashAt := strings.Index(src, "fn hash11(")
	noiseAt := strings.Index(src, "fn noise(")
	glueAt := strings.Index(src, "fn lattice_hash(")
	require.True(t, headAt >= 0 && hashAt >= 0 && noiseAt >= 0 && glueAt >= 0)
	assert.Less(t, headAt, hashAt)
	assert.Less(t, hashAt, noiseAt)
	assert.Less(t, noiseAt, glueAt)

	assert.Equal(t, a.Head().Source()+hash+noise+a.Glue(HashArityOneToOne), src)

	again, err := a.Assemble(s.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, src, again)
}

func TestAssemblerPicksGlueByArity(t *testing.T) {
	a, err := NewAssembler(WithGlue(HashArityTwoToOne, "// glue 21\n"))
	require.NoError(t, err)

	src, err := a.Assemble(ComponentSet{
		Hash:  Fragment{Slot: SlotHash, Name: "iqint_21", Source: testHash21, Arity: HashArityTwoToOne},
		Noise: Fragment{Slot: SlotNoise, Name: "value_21", Source: testNoise},
		Arity: HashArityTwoToOne,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(src, testNoise+"// glue 21\n"))
}

func TestAssemblerRejectsIncompleteSet(t *testing.T) {
	a, err := NewAssembler()
	require.NoError(t, err)

	_, err = a.Assemble(ComponentSet{Noise: Fragment{Source: testNoise}})
	assert.ErrorIs(t, err, ErrIncompleteSet)

	_, err = a.Assemble(ComponentSet{Hash: Fragment{Source: testHash11}, Noise: Fragment{Source: testNoise}, Arity: HashArity(9)})
	assert.Error(t, err)
}

func TestAssemblerStages(t *testing.T) {
	a, err := NewAssembler()
	require.NoError(t, err)

	assert.Equal(t, "fs_main", a.Head().EntryPoint())
	assert.Equal(t, "vs_main", a.Vertex().EntryPoint())
	assert.NotContains(t, a.Head().Source(), "@oxy:")
	assert.Equal(t, "uniforms", a.Head().BindGroupVarName(0, 0))

	layout := a.UniformLayout()
	require.Len(t, layout.Entries, 1)
	entry := layout.Entries[0]
	assert.Equal(t, backend.BufferBindingTypeUniform, entry.Buffer.Type)
	assert.Equal(t, backend.ShaderStageFragment, entry.Visibility)

	var g uniform.GPUUniforms
	assert.Equal(t, uint64(g.Size()), entry.Buffer.MinBindingSize)
}

func TestNewAssemblerRequiresEntryPoints(t *testing.T) {
	_, err := NewAssembler(WithHeadSource("fn not_an_entry() {}"))
	assert.Error(t, err)

	_, err = NewAssembler(WithVertexSource("//@oxy:include missing"))
	assert.Error(t, err)
}
