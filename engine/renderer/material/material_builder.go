package material

import (
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/uniform"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithShaders is an option builder that sets the default vertex and fragment shaders.
//
// Parameters:
//   - vertex: the default vertex shader
//   - fragment: the default fragment shader
//
// Returns:
//   - MaterialBuilderOption: a function that applies the shaders to a material
func WithShaders(vertex, fragment shader.Shader) MaterialBuilderOption {
	return func(m *material) {
		m.vertex = vertex
		m.fragment = fragment
	}
}

// WithStateBlock is an option builder that replaces the default state block. Options are
// applied in order, so a later WithBlendMode still rewrites the blend fields.
//
// Parameters:
//   - s: the default state block
//
// Returns:
//   - MaterialBuilderOption: a function that applies the state block to a material
func WithStateBlock(s pipeline.StateBlock) MaterialBuilderOption {
	return func(m *material) {
		m.state = s
	}
}

// WithBlendMode is an option builder that sets the blend mode.
//
// Parameters:
//   - mode: the blend mode
//
// Returns:
//   - MaterialBuilderOption: a function that applies the blend mode to a material
func WithBlendMode(mode BlendMode) MaterialBuilderOption {
	return func(m *material) {
		m.blendMode = mode
		applyBlendMode(&m.state, mode)
	}
}

// WithPass is an option builder that installs a pass.
//
// Parameters:
//   - index: the pass index
//   - p: the pass
//
// Returns:
//   - MaterialBuilderOption: a function that installs the pass on a material
func WithPass(index int, p Pass) MaterialBuilderOption {
	return func(m *material) {
		m.passes[index] = p
	}
}

// WithUniform is an option builder that sets one material parameter.
//
// Parameters:
//   - name: the uniform name
//   - v: the value
//
// Returns:
//   - MaterialBuilderOption: a function that sets the parameter on a material
func WithUniform(name string, v gpu.Value) MaterialBuilderOption {
	return func(m *material) {
		if m.uniforms == nil {
			m.uniforms = uniform.NewBlock(uniform.WithLabel(m.name))
		}
		m.uniforms.Set(name, v)
	}
}
