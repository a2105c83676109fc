package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModule struct {
	label    string
	released int
}

func (m *fakeModule) Label() string { return m.label }
func (m *fakeModule) Release()      { m.released++ }

type fakePipeline struct {
	fakeModule
}

func TestKey(t *testing.T) {
	set := shader.ComponentSet{
		Hash:       shader.Fragment{Name: "pcg3d_13"},
		Noise:      shader.Fragment{Name: "perlin_21"},
		Generation: 7,
	}
	assert.Equal(t, "pcg3d_13+perlin_21#7", Key(set))
}

func TestDescriptor(t *testing.T) {
	vs, err := shader.NewShader("vs", shader.ShaderTypeVertex, "@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }")
	require.NoError(t, err)
	fs, err := shader.NewShader("fs", shader.ShaderTypeFragment, "@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }")
	require.NoError(t, err)

	vertex, fragment := &fakeModule{label: "vs"}, &fakeModule{label: "fs"}
	p := NewPipeline("k", WithVertexShader(vs), WithFragmentShader(fs), WithCullMode(backend.CullModeBack))
	p.SetFragmentModule(fragment)

	desc := p.Descriptor(vertex, nil)
	assert.Equal(t, "k Render Pipeline", desc.Label)
	assert.Same(t, vertex, desc.Vertex.Module)
	assert.Equal(t, "vs_main", desc.Vertex.EntryPoint)
	assert.Same(t, fragment, desc.Fragment.Module)
	assert.Equal(t, "fs_main", desc.Fragment.EntryPoint)
	assert.Equal(t, backend.CullModeBack, desc.Primitive.CullMode)
	assert.Equal(t, backend.PrimitiveTopologyTriangleList, desc.Primitive.Topology)
	assert.Equal(t, uint32(3), p.VertexCount())
	assert.Equal(t, fs.Source(), p.Source())
	assert.Nil(t, p.Shader(shader.ShaderType(5)))
}

func TestReleaseOwnsFragmentOnly(t *testing.T) {
	fragment := &fakeModule{label: "fs"}
	rp := &fakePipeline{fakeModule{label: "p"}}

	set := shader.ComponentSet{Hash: shader.Fragment{Name: "h"}, Noise: shader.Fragment{Name: "n"}, Arity: shader.HashArityTwoToOne}
	p := NewPipeline(Key(set), WithComponents(set))
	p.SetFragmentModule(fragment)
	p.SetRenderPipeline(rp)

	assert.Equal(t, "h", p.HashName())
	assert.Equal(t, "n", p.NoiseName())
	assert.Equal(t, shader.HashArityTwoToOne, p.Arity())
	assert.Equal(t, "", p.Source())

	p.Release()
	p.Release()
	assert.Equal(t, 1, fragment.released)
	assert.Equal(t, 1, rp.released)
	assert.Nil(t, p.Pipeline())
	assert.Nil(t, p.FragmentModule())
}
