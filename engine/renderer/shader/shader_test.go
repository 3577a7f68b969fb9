package shader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const glslVertex = `#version 410 core
//@oxy:uniform mat4 modelviewprojection
//@oxy:uniform mat3 normalMatrix
uniform mat4 modelviewprojection;
uniform mat3 normalMatrix;
layout(location = 0) in vec3 position;
void main() {
    gl_Position = modelviewprojection * vec4(position, 1.0);
}
`

const wgslFragment = `//@oxy:uniform int ambientPass
//@oxy:uniform vec3 light.color
//@oxy:uniform shadow light.shadowMap
//@oxy:uniform mat4 light.shadowMatrix 4
//@oxy:uniforms

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(u.light_color, 1.0);
}
`

func TestParseAnnotation(t *testing.T) {
	a, err := parseAnnotation("int x = 1;", 1)
	assert.NoError(t, err)
	assert.Nil(t, a)

	a, err = parseAnnotation("  //@oxy:uniform float light.pcfRadius", 3)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, AnnotationTypeUniform, a.Type)
	assert.Equal(t, gpu.UniformDecl{Name: "light.pcfRadius", Kind: gpu.KindFloat, Count: 1}, *a.Uniform)

	a, err = parseAnnotation("//@oxy:uniform mat4 light.shadowMatrix 6", 4)
	require.NoError(t, err)
	assert.Equal(t, 6, a.Uniform.Count)

	a, err = parseAnnotation("//@oxy:uniform bool light.shadowed", 5)
	require.NoError(t, err)
	assert.Equal(t, gpu.KindInt, a.Uniform.Kind)

	for _, bad := range []string{
		"//@oxy:",
		"//@oxy:bogus x",
		"//@oxy:include",
		"//@oxy:uniform float",
		"//@oxy:uniform quat q",
		"//@oxy:uniform float f 0",
		"//@oxy:uniform texture t 2",
		"//@oxy:uniforms now",
	} {
		_, err := parseAnnotation(bad, 9)
		assert.Error(t, err, bad)
	}
}

func TestNewShaderGLSL(t *testing.T) {
	s, err := NewShader("forward.vert", ShaderTypeVertex, glslVertex)
	require.NoError(t, err)

	assert.Equal(t, LanguageGLSL, s.Language())
	assert.Equal(t, "main", s.EntryPoint())
	assert.Equal(t, []gpu.UniformDecl{
		{Name: "modelviewprojection", Kind: gpu.KindMat4, Count: 1},
		{Name: "normalMatrix", Kind: gpu.KindMat3, Count: 1},
	}, s.Uniforms())
	assert.Equal(t, glslVertex, s.Source())

	stage := s.Stage()
	assert.Equal(t, "main", stage.Entry)
	assert.Len(t, stage.Uniforms, 2)
}

func TestNewShaderWGSLGeneratesDeclarations(t *testing.T) {
	s, err := NewShader("forward.frag", ShaderTypeFragment, wgslFragment)
	require.NoError(t, err)

	assert.Equal(t, LanguageWGSL, s.Language())
	assert.Equal(t, "fs_main", s.EntryPoint())
	src := s.Source()
	assert.Contains(t, src, "struct FragmentUniforms {\n    ambientPass: i32,\n    light_color: vec3<f32>,\n    light_shadowMatrix: array<mat4x4<f32>, 4>,\n}")
	assert.Contains(t, src, "@group(0) @binding(1) var<uniform> u: FragmentUniforms;")
	assert.Contains(t, src, "@group(1) @binding(0) var light_shadowMap: texture_depth_2d;")
	assert.Contains(t, src, "@group(1) @binding(1) var light_shadowMap_sampler: sampler_comparison;")
	assert.NotContains(t, src, "//@oxy:uniforms")
}

func TestUniformsRejectedInGLSL(t *testing.T) {
	_, err := NewShader("bad", ShaderTypeFragment, "//@oxy:uniforms\nvoid main() {}", WithLanguage(LanguageGLSL))
	assert.Error(t, err)
}

func TestIncludes(t *testing.T) {
	pp := NewPreProcessor()
	pp.Register("light", "//@oxy:uniform vec3 light.color\nuniform vec3 lightColor;")
	pp.Register("loop", "//@oxy:include loop")

	s, err := NewShader("inc", ShaderTypeFragment, "//@oxy:include light\nvoid main() {}", WithPreProcessor(pp))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.Source(), "//@oxy:uniform vec3 light.color\nuniform vec3 lightColor;"))
	require.Len(t, s.Uniforms(), 1)
	assert.Equal(t, "light.color", s.Uniforms()[0].Name)

	_, err = NewShader("missing", ShaderTypeFragment, "//@oxy:include nope\nvoid main() {}", WithPreProcessor(pp))
	assert.Error(t, err)

	_, err = NewShader("loop", ShaderTypeFragment, "//@oxy:include loop\nvoid main() {}", WithPreProcessor(pp))
	assert.Error(t, err)
}

func TestWithIncludeOption(t *testing.T) {
	s, err := NewShader("opt", ShaderTypeFragment, "//@oxy:include common\nvoid main() {}",
		WithInclude("common", "//@oxy:uniform float time"))
	require.NoError(t, err)
	require.Len(t, s.Uniforms(), 1)
	assert.Equal(t, "time", s.Uniforms()[0].Name)
}

func TestConflictingUniforms(t *testing.T) {
	src := "//@oxy:uniform float a\n//@oxy:uniform float a\n//@oxy:uniform vec3 b\n//@oxy:uniform vec4 b\nvoid main() {}"
	_, err := NewShader("conflict", ShaderTypeVertex, src)
	assert.ErrorContains(t, err, `"b"`)
}

func TestWGSLWithoutEntryPoint(t *testing.T) {
	_, err := NewShader("noentry", ShaderTypeVertex, "@fragment fn fs() {}")
	assert.Error(t, err)
}

func TestEntryPointIgnoresComments(t *testing.T) {
	src := "// @vertex fn commented() {}\n/* @vertex fn block() {} */\n@vertex\nfn vs_main() {}"
	s, err := NewShader("vs", ShaderTypeVertex, src)
	require.NoError(t, err)
	assert.Equal(t, "vs_main", s.EntryPoint())
}

func TestNewShaderFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.glsl")
	require.NoError(t, os.WriteFile(path, []byte(glslVertex), 0o644))

	s, err := NewShaderFromPath("v", ShaderTypeVertex, path)
	require.NoError(t, err)
	assert.Equal(t, "v", s.Key())
	assert.Equal(t, ShaderTypeVertex, s.ShaderType())

	_, err = NewShaderFromPath("v", ShaderTypeVertex, filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}
