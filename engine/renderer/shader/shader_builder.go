package shader

// ShaderBuilderOption is a functional option used to configure a Shader during construction.
type ShaderBuilderOption func(*shader)

// WithPreProcessor sets the pre-processor, typically one shared by many shaders so they see
// the same include snippets.
//
// Parameters:
//   - pp: the pre-processor to use
//
// Returns:
//   - ShaderBuilderOption: a function that sets the pre-processor
func WithPreProcessor(pp PreProcessor) ShaderBuilderOption {
	return func(s *shader) {
		s.pp = pp
	}
}

// WithInclude registers an include snippet on the shader's pre-processor.
//
// Parameters:
//   - name: the include name
//   - source: the snippet
//
// Returns:
//   - ShaderBuilderOption: a function that registers the snippet
func WithInclude(name, source string) ShaderBuilderOption {
	return func(s *shader) {
		s.pp.Register(name, source)
	}
}

// WithLanguage sets the shading language instead of detecting it from the source.
//
// Parameters:
//   - lang: the shading language
//
// Returns:
//   - ShaderBuilderOption: a function that sets the language
func WithLanguage(lang Language) ShaderBuilderOption {
	return func(s *shader) {
		s.language = lang
		s.langSet = true
	}
}
