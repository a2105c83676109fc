package uniform

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"
)

// GPUUniformsSource is the canonical WGSL definition of the Uniforms struct.
// Matches GPUUniforms layout exactly (16 bytes).
//
//go:embed assets/uniforms.wgsl
var GPUUniformsSource string

// GPUUniforms is the GPU-aligned representation of the per-frame uniform block.
// Matches the WGSL Uniforms struct layout exactly (see GPUUniformsSource).
// Size: 16 bytes.
type GPUUniforms struct {
	Resolution  [2]float32 // offset  0: framebuffer size in pixels (vec2<f32>)
	HashVariant int32      // offset  8: hash arity discriminant (i32)
	_pad        float32    // offset 12: padding to 16 bytes
}

// Size returns the size of the GPUUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (g *GPUUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUUniforms struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUUniforms) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(g.Resolution[0]))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(g.Resolution[1]))
	binary.LittleEndian.PutUint32(buf[8:], uint32(g.HashVariant))
	binary.LittleEndian.PutUint32(buf[12:], 0) // _pad
	return buf
}

// UnmarshalGPUUniforms decodes a block produced by Marshal.
//
// Parameters:
//   - data: the 16 serialized bytes
//
// Returns:
//   - GPUUniforms: the decoded block
//   - error: an error if data is not exactly one block long
func UnmarshalGPUUniforms(data []byte) (GPUUniforms, error) {
	var g GPUUniforms
	if len(data) != g.Size() {
		return g, fmt.Errorf("uniform block is %d bytes, want %d", len(data), g.Size())
	}
	g.Resolution[0] = math.Float32frombits(binary.LittleEndian.Uint32(data[0:]))
	g.Resolution[1] = math.Float32frombits(binary.LittleEndian.Uint32(data[4:]))
	g.HashVariant = int32(binary.LittleEndian.Uint32(data[8:]))
	return g, nil
}
