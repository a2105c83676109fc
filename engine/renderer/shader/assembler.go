package shader

import (
	"embed"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend"
)

//go:embed assets/vertex_main.wgsl
var vertexMainSource string

//go:embed assets/fragment_2d_main.wgsl
var fragment2DMainSource string

//go:embed assets/glue/*.wgsl
var glueFS embed.FS

// Assemble concatenates the fragment program in the order head, hash, noise, glue. Parts are
// joined as-is with no separator, so each source must carry its own trailing newline.
//
// Parameters:
//   - head: the fixed skeleton holding the entry point and shared declarations
//   - hash: the hash fragment source
//   - noise: the noise fragment source
//   - glue: the glue adapting the hash to the noise lattice
//
// Returns:
//   - string: the assembled WGSL source
func Assemble(head, hash, noise, glue string) string {
	var sb strings.Builder
	sb.Grow(len(head) + len(hash) + len(noise) + len(glue))
	sb.WriteString(head)
	sb.WriteString(hash)
	sb.WriteString(noise)
	sb.WriteString(glue)
	return sb.String()
}

type assembler struct {
	head   Shader
	vertex Shader
	glue   map[HashArity]string
}

// Assembler turns component sets into complete fragment programs using the embedded skeleton
// and glue, and provides the fixed vertex stage they are paired with.
type Assembler interface {
	// Assemble builds the fragment program for set.
	//
	// Parameters:
	//   - set: the fragments to assemble
	//
	// Returns:
	//   - string: the assembled WGSL source
	//   - error: ErrIncompleteSet if a slot is empty, or an error if no glue exists for the arity
	Assemble(set ComponentSet) (string, error)

	// Head returns the pre-processed fragment skeleton.
	Head() Shader

	// Vertex returns the pre-processed vertex stage.
	Vertex() Shader

	// Glue returns the glue source for an arity, or "" if none is registered.
	Glue(arity HashArity) string

	// UniformLayout returns the bind group layout the skeleton declares at group 0.
	UniformLayout() backend.BindGroupLayoutDescriptor
}

var _ Assembler = &assembler{}

// NewAssembler parses the skeleton and vertex stage and loads the glue table.
//
// Parameters:
//   - options: functional options overriding the embedded sources
//
// Returns:
//   - Assembler: the assembler
//   - error: an error if a source fails to pre-process or lacks its entry point
func NewAssembler(options ...AssemblerBuilderOption) (Assembler, error) {
	cfg := &assemblerConfig{
		head:   fragment2DMainSource,
		vertex: vertexMainSource,
		glue:   make(map[HashArity]string),
	}
	for arity, file := range map[HashArity]string{
		HashArityOneToOne:   "assets/glue/hash_11.wgsl",
		HashArityTwoToOne:   "assets/glue/hash_21.wgsl",
		HashArityOneToThree: "assets/glue/hash_13.wgsl",
	} {
		data, err := glueFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("shader: read glue %s: %w", file, err)
		}
		cfg.glue[arity] = string(data)
	}
	for _, opt := range options {
		opt(cfg)
	}

	head, err := NewShader("fragment_2d_main", ShaderTypeFragment, cfg.head)
	if err != nil {
		return nil, err
	}
	vertex, err := NewShader("vertex_main", ShaderTypeVertex, cfg.vertex)
	if err != nil {
		return nil, err
	}
	return &assembler{head: head, vertex: vertex, glue: cfg.glue}, nil
}

func (a *assembler) Assemble(set ComponentSet) (string, error) {
	if !set.Complete() {
		return "", ErrIncompleteSet
	}
	glue, ok := a.glue[set.Arity]
	if !ok {
		return "", fmt.Errorf("shader: no glue for hash arity %s", set.Arity)
	}
	return Assemble(a.head.Source(), set.Hash.Source, set.Noise.Source, glue), nil
}

func (a *assembler) Head() Shader {
	return a.head
}

func (a *assembler) Vertex() Shader {
	return a.vertex
}

func (a *assembler) Glue(arity HashArity) string {
	return a.glue[arity]
}

func (a *assembler) UniformLayout() backend.BindGroupLayoutDescriptor {
	return a.head.BindGroupLayoutDescriptor(0)
}
