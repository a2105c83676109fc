package shader

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/uniform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreProcessorProcess(t *testing.T) {
	src := strings.Join([]string{
		"//@oxy:include uniforms",
		"//@oxy:include uniforms",
		"//@oxy:group 0 0 storage_uniform uniforms uniforms",
		"//@oxy:arity 21",
		"fn main() {}",
	}, "\n")

	pp := NewPreProcessor()
	out, err := pp.Process(src)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "struct Uniforms"), "struct is injected once")
	assert.Contains(t, out, strings.TrimRight(uniform.GPUUniformsSource, "\n"))
	assert.Contains(t, out, "@group(0) @binding(0) var<uniform> uniforms: Uniforms;")
	assert.NotContains(t, out, "@oxy:")
	assert.True(t, strings.HasSuffix(out, "fn main() {}"))

	decls := pp.Declarations()
	require.Len(t, decls, 2)
	assert.Equal(t, AnnotationTypeBindingGroup, decls[0].Type)
	assert.Equal(t, AnnotationTypeArity, decls[1].Type)
}

func TestPreProcessorResetsDeclarations(t *testing.T) {
	pp := NewPreProcessor()
	_, err := pp.Process("//@oxy:arity 11")
	require.NoError(t, err)
	require.Len(t, pp.Declarations(), 1)

	_, err = pp.Process("fn main() {}")
	require.NoError(t, err)
	assert.Empty(t, pp.Declarations())
}

func TestPreProcessorError(t *testing.T) {
	_, err := NewPreProcessor().Process("fn a() {}\n//@oxy:include nothing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestPreProcessorStorageArray(t *testing.T) {
	out, err := NewPreProcessor().Process("//@oxy:group 1 2 storage_read_write items array<uniforms>")
	require.NoError(t, err)
	assert.Equal(t, "@group(1) @binding(2) var<storage, read_write> items: array<Uniforms>;", out)
}
