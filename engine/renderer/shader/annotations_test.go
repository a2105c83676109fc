package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnnotation(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantType AnnotationType
		wantArgs []AnnotationArg
		wantErr  bool
		wantNil  bool
	}{
		{name: "plain code", line: "fn noise(p: vec2<f32>) -> f32 {", wantNil: true},
		{name: "plain comment", line: "// just a comment", wantNil: true},
		{name: "prefix outside comment", line: `let s = "@oxy:include uniforms";`, wantNil: true},
		{name: "include", line: "//@oxy:include uniforms", wantType: annotationTypeInclude, wantArgs: []AnnotationArg{AnnotationArgUniforms}},
		{name: "indented include", line: "    // @oxy:include uniforms", wantType: annotationTypeInclude, wantArgs: []AnnotationArg{AnnotationArgUniforms}},
		{name: "group", line: "//@oxy:group 0 0 storage_uniform uniforms uniforms", wantType: AnnotationTypeBindingGroup,
			wantArgs: []AnnotationArg{"storage_uniform", "uniforms", "uniforms"}},
		{name: "arity", line: "//@oxy:arity 13", wantType: AnnotationTypeArity, wantArgs: []AnnotationArg{AnnotationArgArity13}},
		{name: "empty", line: "//@oxy:", wantErr: true},
		{name: "unknown type", line: "//@oxy:provider 0 0 camera", wantErr: true},
		{name: "unknown struct", line: "//@oxy:include camera", wantErr: true},
		{name: "bad group number", line: "//@oxy:group x 0 storage_uniform u uniforms", wantErr: true},
		{name: "bad address space", line: "//@oxy:group 0 0 private u uniforms", wantErr: true},
		{name: "group arg count", line: "//@oxy:group 0 0 storage_uniform uniforms", wantErr: true},
		{name: "bad arity", line: "//@oxy:arity 22", wantErr: true},
		{name: "arity arg count", line: "//@oxy:arity", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := parseAnnotation(tt.line, 7)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "line 7")
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, a)
				return
			}
			require.NotNil(t, a)
			assert.Equal(t, tt.wantType, a.Type)
			assert.Equal(t, tt.wantArgs, a.Args)
			assert.Equal(t, 7, a.Line)
		})
	}
}

func TestParseAnnotationGroupIndices(t *testing.T) {
	a, err := parseAnnotation("//@oxy:group 2 3 storage_read data array<uniforms>", 1)
	require.NoError(t, err)
	require.NotNil(t, a.Group)
	require.NotNil(t, a.Binding)
	assert.Equal(t, 2, *a.Group)
	assert.Equal(t, 3, *a.Binding)
}
