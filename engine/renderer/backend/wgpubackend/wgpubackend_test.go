package wgpubackend

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestParsePresentMode(t *testing.T) {
	tests := []struct {
		in      string
		want    PresentMode
		wantErr bool
	}{
		{"vsync", PresentModeVSync, false},
		{"fifo", PresentModeVSync, false},
		{"uncapped", PresentModeUncapped, false},
		{"", PresentModeUncapped, false},
		{"mailbox", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePresentMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestDescriptorConversion(t *testing.T) {
	desc := toBindGroupLayoutDescriptor(backend.BindGroupLayoutDescriptor{
		Label: "uniforms",
		Entries: []backend.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: backend.ShaderStageVertex | backend.ShaderStageFragment,
			Buffer:     backend.BufferBindingLayout{Type: backend.BufferBindingTypeUniform, MinBindingSize: 16},
		}},
	})
	assert.Equal(t, "uniforms", desc.Label)
	assert.Len(t, desc.Entries, 1)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, desc.Entries[0].Visibility)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, desc.Entries[0].Buffer.Type)
	assert.Equal(t, uint64(16), desc.Entries[0].Buffer.MinBindingSize)

	assert.Equal(t, wgpu.CullModeBack, toCullMode(backend.CullModeBack))
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleStrip, toTopology(backend.PrimitiveTopologyTriangleStrip))
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, toBufferBindingType(backend.BufferBindingTypeReadOnlyStorage))
}

func TestHandlesReleaseOnce(t *testing.T) {
	var (
		m  = &shaderModule{label: "m"}
		p  = &renderPipeline{label: "p"}
		bf = &buffer{size: 16}
	)
	// handles without live objects release as no-ops
	m.Release()
	p.Release()
	bf.Release()
	(&bindGroup{}).Release()
	(&bindGroupLayout{}).Release()
	assert.Equal(t, "m", m.Label())
	assert.Equal(t, "p", p.Label())
	assert.Equal(t, uint64(16), bf.Size())
}
