package shader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend"
)

// ShaderType identifies which pipeline stage a shader provides.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment shader type, used in pair with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) visibility() backend.ShaderStage {
	switch t {
	case ShaderTypeVertex:
		return backend.ShaderStageVertex
	case ShaderTypeFragment:
		return backend.ShaderStageFragment
	default:
		return backend.ShaderStageNone
	}
}

// shader is the implementation of the Shader interface.
type shader struct {
	key                        string
	source                     string
	shaderType                 ShaderType
	bindGroupLayoutDescriptors map[int]backend.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	entryPoint                 string
	functions                  []string
	declarations               []Annotation
}

// Shader is a pre-processed and parsed WGSL stage. It exposes the processed source, the entry
// point and the bind group layouts declared by the stage.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used as its module label.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the pre-processed WGSL source.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// BindGroupLayoutDescriptor retrieves the layout descriptor for a group index.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - backend.BindGroupLayoutDescriptor: the descriptor, or an empty one if the group is not declared
	BindGroupLayoutDescriptor(group int) backend.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves all parsed bind group layout descriptors keyed by group index.
	BindGroupLayoutDescriptors() map[int]backend.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name declared at a group and binding.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if not declared
	BindGroupVarName(group, binding int) string

	// EntryPoint returns the entry point name for this shader's stage.
	EntryPoint() string

	// Functions returns the names of every function the source declares, in source order.
	Functions() []string

	// Module returns the descriptor used to compile this shader on a backend.
	Module() backend.ShaderModuleDescriptor

	// ShaderType returns the stage this shader provides.
	ShaderType() ShaderType

	// Declarations returns the group and arity annotations found while pre-processing.
	Declarations() []Annotation
}

var _ Shader = &shader{}

// NewShader pre-processes WGSL source and parses the entry point and bind group layouts
// for the given stage.
//
// Parameters:
//   - key: a unique identifier for the shader, used as its module label
//   - shaderType: the stage the shader provides
//   - source: the raw WGSL source, which may contain @oxy: annotations
//
// Returns:
//   - Shader: the parsed shader
//   - error: an error if pre-processing fails or the stage entry point is missing
func NewShader(key string, shaderType ShaderType, source string) (Shader, error) {
	pp := NewPreProcessor()
	processed, err := pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: pre-process: %w", key, err)
	}

	s := &shader{
		key:          key,
		source:       processed,
		shaderType:   shaderType,
		entryPoint:   parseEntryPoint(processed, shaderType),
		functions:    parseFunctionNames(processed),
		declarations: append([]Annotation(nil), pp.Declarations()...),
	}
	if s.entryPoint == "" {
		return nil, fmt.Errorf("shader %s: no entry point for stage %d", key, shaderType)
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames = parseBindGroupLayouts(processed, shaderType.visibility())
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) BindGroupLayoutDescriptor(group int) backend.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]backend.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	if s.bindingVarNames[group] == nil {
		return ""
	}
	return s.bindingVarNames[group][binding]
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) Functions() []string {
	return s.functions
}

func (s *shader) Module() backend.ShaderModuleDescriptor {
	return backend.ShaderModuleDescriptor{Label: s.key, Code: s.source}
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) Declarations() []Annotation {
	return s.declarations
}
