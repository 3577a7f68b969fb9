package renderer

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed assets/forward.vert.glsl
var forwardVertGLSL string

//go:embed assets/forward.frag.glsl
var forwardFragGLSL string

//go:embed assets/light.glsl
var lightGLSL string

//go:embed assets/shadow.vert.glsl
var shadowVertGLSL string

//go:embed assets/shadow.frag.glsl
var shadowFragGLSL string

//go:embed assets/post.vert.glsl
var postVertGLSL string

//go:embed assets/post.frag.glsl
var postFragGLSL string

//go:embed assets/forward.vert.wgsl
var forwardVertWGSL string

//go:embed assets/forward.frag.wgsl
var forwardFragWGSL string

//go:embed assets/light.wgsl
var lightWGSL string

//go:embed assets/light_fn.wgsl
var lightFnWGSL string

//go:embed assets/shadow.vert.wgsl
var shadowVertWGSL string

//go:embed assets/shadow.frag.wgsl
var shadowFragWGSL string

//go:embed assets/post.vert.wgsl
var postVertWGSL string

//go:embed assets/post.frag.wgsl
var postFragWGSL string

// BuiltinShaders holds the engine's stock shader stages for one language.
type BuiltinShaders struct {
	ForwardVertex   shader.Shader
	ForwardFragment shader.Shader
	ShadowVertex    shader.Shader
	ShadowFragment  shader.Shader
	PostVertex      shader.Shader
	PostFragment    shader.Shader
}

var builtins = struct {
	sync.Mutex
	byLang map[shader.Language]*BuiltinShaders
}{byLang: make(map[shader.Language]*BuiltinShaders)}

// Builtins returns the stock shaders for lang. They are processed once and shared, so every
// material built on them shares shader handles.
//
// Parameters:
//   - lang: the shading language of the target device
//
// Returns:
//   - *BuiltinShaders: the shared stock shaders
//   - error: a pre-processing failure
func Builtins(lang shader.Language) (*BuiltinShaders, error) {
	builtins.Lock()
	defer builtins.Unlock()
	if b, ok := builtins.byLang[lang]; ok {
		return b, nil
	}

	type stage struct {
		dst  *shader.Shader
		key  string
		typ  shader.ShaderType
		src  string
		opts []shader.ShaderBuilderOption
	}
	b := &BuiltinShaders{}
	langOpt := shader.WithLanguage(lang)
	var stages []stage
	switch lang {
	case shader.LanguageWGSL:
		stages = []stage{
			{&b.ForwardVertex, "forward.vert", shader.ShaderTypeVertex, forwardVertWGSL, nil},
			{&b.ForwardFragment, "forward.frag", shader.ShaderTypeFragment, forwardFragWGSL, []shader.ShaderBuilderOption{
				shader.WithInclude("light", lightWGSL),
				shader.WithInclude("light_fn", lightFnWGSL),
			}},
			{&b.ShadowVertex, "shadow.vert", shader.ShaderTypeVertex, shadowVertWGSL, nil},
			{&b.ShadowFragment, "shadow.frag", shader.ShaderTypeFragment, shadowFragWGSL, nil},
			{&b.PostVertex, "post.vert", shader.ShaderTypeVertex, postVertWGSL, nil},
			{&b.PostFragment, "post.frag", shader.ShaderTypeFragment, postFragWGSL, nil},
		}
	default:
		stages = []stage{
			{&b.ForwardVertex, "forward.vert", shader.ShaderTypeVertex, forwardVertGLSL, nil},
			{&b.ForwardFragment, "forward.frag", shader.ShaderTypeFragment, forwardFragGLSL, []shader.ShaderBuilderOption{
				shader.WithInclude("light", lightGLSL),
			}},
			{&b.ShadowVertex, "shadow.vert", shader.ShaderTypeVertex, shadowVertGLSL, nil},
			{&b.ShadowFragment, "shadow.frag", shader.ShaderTypeFragment, shadowFragGLSL, nil},
			{&b.PostVertex, "post.vert", shader.ShaderTypeVertex, postVertGLSL, nil},
			{&b.PostFragment, "post.frag", shader.ShaderTypeFragment, postFragGLSL, nil},
		}
	}

	for _, st := range stages {
		s, err := shader.NewShader(st.key, st.typ, st.src, append(st.opts, langOpt)...)
		if err != nil {
			return nil, fmt.Errorf("builtin shader %s: %w", st.key, err)
		}
		*st.dst = s
	}
	builtins.byLang[lang] = b
	return b, nil
}

// NewForwardMaterial creates a lit Blinn-Phong material on the stock forward shaders. It has
// the ambient, light and shadow map passes, a white base color and a shininess of 32. The
// options are applied after those defaults.
//
// Parameters:
//   - lang: the shading language of the target device
//   - options: variadic list of material.MaterialBuilderOption functions
//
// Returns:
//   - material.Material: the new material
//   - error: a stock shader failed to pre-process
func NewForwardMaterial(lang shader.Language, options ...material.MaterialBuilderOption) (material.Material, error) {
	b, err := Builtins(lang)
	if err != nil {
		return nil, err
	}
	opts := []material.MaterialBuilderOption{
		material.WithName("forward"),
		material.WithShaders(b.ForwardVertex, b.ForwardFragment),
		material.WithPass(material.AmbientPass, material.NewPass()),
		material.WithPass(material.LightPass, material.NewPass()),
		material.WithPass(material.ShadowMapPass, material.NewPass(
			material.WithPassVertexShader(b.ShadowVertex),
			material.WithPassFragmentShader(b.ShadowFragment),
		)),
		material.WithUniform("baseColor", gpu.Vec4Value(mgl32.Vec4{1, 1, 1, 1})),
		material.WithUniform("shininess", gpu.FloatValue(32)),
	}
	return material.NewMaterial(append(opts, options...)...), nil
}

// NewUnlitMaterial creates a material drawn only in the ambient pass with the stock forward
// shaders, so it shows its base color scaled by the ambient color.
//
// Parameters:
//   - lang: the shading language of the target device
//   - options: variadic list of material.MaterialBuilderOption functions
//
// Returns:
//   - material.Material: the new material
//   - error: a stock shader failed to pre-process
func NewUnlitMaterial(lang shader.Language, options ...material.MaterialBuilderOption) (material.Material, error) {
	b, err := Builtins(lang)
	if err != nil {
		return nil, err
	}
	opts := []material.MaterialBuilderOption{
		material.WithName("unlit"),
		material.WithShaders(b.ForwardVertex, b.ForwardFragment),
		material.WithPass(material.AmbientPass, material.NewPass()),
		material.WithUniform("baseColor", gpu.Vec4Value(mgl32.Vec4{1, 1, 1, 1})),
	}
	return material.NewMaterial(append(opts, options...)...), nil
}
