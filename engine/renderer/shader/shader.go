package shader

import (
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
)

// ShaderType identifies the pipeline stage a shader is compiled for.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex stage.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment stage, paired with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	if t == ShaderTypeVertex {
		return "vertex"
	}
	return "fragment"
}

// Language is the shading language of a source. The OpenGL device compiles GLSL and the
// WebGPU device compiles WGSL.
type Language int

const (
	LanguageGLSL Language = iota
	LanguageWGSL
)

// shader is the implementation of the Shader interface.
type shader struct {
	key        string
	source     string
	shaderType ShaderType
	language   Language
	langSet    bool
	entryPoint string
	uniforms   []gpu.UniformDecl

	pp PreProcessor
}

// Shader is a pre-processed shader stage. A Shader's identity is its handle: materials key
// their program caches on it, so replacing a shader with a new handle recompiles even when
// the source is identical, while editing nothing never does.
type Shader interface {
	// Key returns the unique identifier given at creation.
	//
	// Returns:
	//   - string: the shader's key
	Key() string

	// Source returns the processed source.
	//
	// Returns:
	//   - string: source with annotations expanded
	Source() string

	// ShaderType returns the stage.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// Language returns the shading language.
	//
	// Returns:
	//   - Language: LanguageGLSL or LanguageWGSL
	Language() Language

	// EntryPoint returns the stage's entry function.
	//
	// Returns:
	//   - string: "main" for GLSL, the annotated function name for WGSL
	EntryPoint() string

	// Uniforms returns the uniforms declared with //@oxy:uniform.
	//
	// Returns:
	//   - []gpu.UniformDecl: the declarations in source order
	Uniforms() []gpu.UniformDecl

	// Stage returns the stage description handed to a device.
	//
	// Returns:
	//   - gpu.StageSource: source, entry point and uniforms
	Stage() gpu.StageSource
}

var _ Shader = &shader{}

// NewShader pre-processes source and creates a Shader.
//
// Parameters:
//   - key: a unique identifier, used as the program debug label
//   - shaderType: the stage
//   - source: the annotated source
//   - options: variadic list of ShaderBuilderOption functions to configure the shader
//
// Returns:
//   - Shader: the processed shader
//   - error: a pre-processing failure, or a WGSL source without an entry point for the stage
func NewShader(key string, shaderType ShaderType, source string, options ...ShaderBuilderOption) (Shader, error) {
	s := &shader{
		key:        key,
		shaderType: shaderType,
		pp:         NewPreProcessor(),
	}
	for _, opt := range options {
		opt(s)
	}
	if !s.langSet {
		s.language = detectLanguage(source)
	}

	processed, err := s.pp.Process(source, shaderType, s.language)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	s.source = processed
	s.uniforms = append([]gpu.UniformDecl(nil), s.pp.Uniforms()...)
	s.entryPoint = parseEntryPoint(processed, shaderType, s.language)
	if s.entryPoint == "" {
		return nil, fmt.Errorf("shader %s: no %s entry point", key, shaderType)
	}
	return s, nil
}

// NewShaderFromPath reads source from path and creates a Shader.
//
// Parameters:
//   - key: a unique identifier
//   - shaderType: the stage
//   - path: the source file
//   - options: variadic list of ShaderBuilderOption functions to configure the shader
//
// Returns:
//   - Shader: the processed shader
//   - error: a read or pre-processing failure
func NewShaderFromPath(key string, shaderType ShaderType, path string, options ...ShaderBuilderOption) (Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shader %s: read %q: %w", key, path, err)
	}
	return NewShader(key, shaderType, string(data), options...)
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) Language() Language {
	return s.language
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) Uniforms() []gpu.UniformDecl {
	return s.uniforms
}

func (s *shader) Stage() gpu.StageSource {
	return gpu.StageSource{
		Source:   s.source,
		Entry:    s.entryPoint,
		Uniforms: s.uniforms,
	}
}
