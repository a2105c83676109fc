package shader

type assemblerConfig struct {
	head   string
	vertex string
	glue   map[HashArity]string
}

// AssemblerBuilderOption is a functional option applied by NewAssembler.
type AssemblerBuilderOption func(*assemblerConfig)

// WithHeadSource replaces the embedded fragment skeleton.
//
// Parameters:
//   - source: raw WGSL with a @fragment entry point; may contain @oxy: annotations
//
// Returns:
//   - AssemblerBuilderOption: option function to apply
func WithHeadSource(source string) AssemblerBuilderOption {
	return func(c *assemblerConfig) {
		c.head = source
	}
}

// WithVertexSource replaces the embedded vertex stage.
//
// Parameters:
//   - source: raw WGSL with a @vertex entry point
//
// Returns:
//   - AssemblerBuilderOption: option function to apply
func WithVertexSource(source string) AssemblerBuilderOption {
	return func(c *assemblerConfig) {
		c.vertex = source
	}
}

// WithGlue replaces the glue used for one hash arity.
//
// Parameters:
//   - arity: the hash arity the glue adapts
//   - source: the glue WGSL
//
// Returns:
//   - AssemblerBuilderOption: option function to apply
func WithGlue(arity HashArity, source string) AssemblerBuilderOption {
	return func(c *assemblerConfig) {
		c.glue[arity] = source
	}
}
