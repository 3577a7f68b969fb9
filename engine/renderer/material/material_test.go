package material

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newShaders(t *testing.T) (shader.Shader, shader.Shader) {
	t.Helper()
	vert, err := shader.NewShader("vert", shader.ShaderTypeVertex, "#version 410 core\nvoid main() { gl_Position = vec4(0.0); }\n")
	require.NoError(t, err)
	frag, err := shader.NewShader("frag", shader.ShaderTypeFragment, "#version 410 core\nout vec4 c;\nvoid main() { c = vec4(1.0); }\n")
	require.NoError(t, err)
	return vert, frag
}

func TestBlendModeTable(t *testing.T) {
	cases := []struct {
		mode       BlendMode
		enabled    bool
		src, dst   gpu.BlendFactor
		depthWrite bool
	}{
		{BlendReplace, false, gpu.BlendOne, gpu.BlendZero, true},
		{BlendTranslucent, true, gpu.BlendSrcAlpha, gpu.BlendOneMinusSrcAlpha, false},
		{BlendAdd, true, gpu.BlendOne, gpu.BlendOne, false},
		{BlendModulate, true, gpu.BlendDstColor, gpu.BlendZero, false},
		{BlendScreen, true, gpu.BlendOne, gpu.BlendOneMinusSrcColor, false},
	}
	for _, c := range cases {
		t.Run(c.mode.String(), func(t *testing.T) {
			m := NewMaterial(WithName("m"))
			m.SetBlendMode(c.mode)
			s := m.StateBlock()
			assert.Equal(t, c.mode, m.BlendMode())
			assert.Equal(t, c.enabled, s.BlendEnabled())
			src, dst := s.BlendFactors()
			assert.Equal(t, c.src, src)
			assert.Equal(t, c.dst, dst)
			assert.Equal(t, gpu.BlendAdd, s.BlendEquation())
			assert.Equal(t, c.depthWrite, s.DepthWrite())
		})
	}
}

func TestReplaceAfterAddRestoresEverything(t *testing.T) {
	m := NewMaterial(WithBlendMode(BlendAdd))
	m.SetBlendMode(BlendReplace)
	assert.Equal(t, pipeline.DefaultStateBlock(), m.StateBlock())
}

func TestBlendModeKeepsOtherFields(t *testing.T) {
	m := NewMaterial(
		WithStateBlock(pipeline.NewStateBlock(pipeline.WithCullFaces(gpu.CullNone))),
		WithBlendMode(BlendTranslucent),
	)
	assert.Equal(t, gpu.CullNone, m.StateBlock().CullFaces())
	assert.True(t, m.StateBlock().BlendEnabled())
}

func TestParseBlendMode(t *testing.T) {
	m, ok := ParseBlendMode("screen")
	assert.True(t, ok)
	assert.Equal(t, BlendScreen, m)
	_, ok = ParseBlendMode("multiply")
	assert.False(t, ok)
}

func TestValidateRejectsUnlitModesOnLitMaterials(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	common.SetLogger(zap.New(core))
	t.Cleanup(func() { common.SetLogger(nil) })

	m := NewMaterial(WithName("glass"), WithPass(AmbientPass, NewPass()), WithPass(LightPass, NewPass()))
	require.NoError(t, m.Validate())

	m.SetBlendMode(BlendModulate)
	assert.ErrorIs(t, m.Validate(), ErrInvalidBlendMode)
	assert.GreaterOrEqual(t, logs.Len(), 1)
	assert.Equal(t, "glass", logs.All()[0].ContextMap()["material"])

	m.RemovePass(LightPass)
	assert.NoError(t, m.Validate(), "unlit materials may modulate")

	m.SetBlendMode(BlendScreen)
	m.SetPass(LightPass, NewPass())
	assert.ErrorIs(t, m.Validate(), ErrInvalidBlendMode)
}

func TestRegisterPass(t *testing.T) {
	assert.Equal(t, AmbientPass, RegisterPass("ambient"))
	assert.Equal(t, ShadowMapPass, RegisterPass("shadowmap"))

	outline := RegisterPass("outline-test")
	assert.GreaterOrEqual(t, outline, 3)
	assert.Equal(t, outline, RegisterPass("outline-test"))
	assert.Equal(t, "outline-test", PassName(outline))

	i, ok := PassIndex("light")
	assert.True(t, ok)
	assert.Equal(t, LightPass, i)
	_, ok = PassIndex("nope")
	assert.False(t, ok)
	assert.Equal(t, "", PassName(-1))
}

func TestPassInheritance(t *testing.T) {
	vert, frag := newShaders(t)
	_, otherFrag := newShaders(t)
	override := pipeline.NewStateBlock(pipeline.WithCullFaces(gpu.CullFront))

	m := NewMaterial(
		WithShaders(vert, frag),
		WithPass(AmbientPass, NewPass()),
		WithPass(ShadowMapPass, NewPass(WithPassFragmentShader(otherFrag), WithPassStateBlock(override))),
	)

	v, f := m.PassShaders(AmbientPass)
	assert.Same(t, vert, v)
	assert.Same(t, frag, f)
	assert.Equal(t, m.StateBlock(), m.PassStateBlock(AmbientPass))

	v, f = m.PassShaders(ShadowMapPass)
	assert.Same(t, vert, v)
	assert.Same(t, otherFrag, f)
	assert.Equal(t, override, m.PassStateBlock(ShadowMapPass))

	assert.Equal(t, []int{AmbientPass, ShadowMapPass}, m.Passes())
	assert.False(t, m.Lit())
}

func TestProgramCache(t *testing.T) {
	rec := gpu.NewRecorder()
	vert, frag := newShaders(t)
	m := NewMaterial(WithName("stone"), WithShaders(vert, frag), WithPass(AmbientPass, NewPass()), WithPass(LightPass, NewPass()))

	a := m.Program(rec, AmbientPass)
	require.NotNil(t, a)
	assert.Same(t, a, m.Program(rec, AmbientPass))
	assert.Equal(t, "stone/ambient", a.Label())

	l := m.Program(rec, LightPass)
	assert.NotSame(t, a, l, "each pass has its own permutation")
	assert.Equal(t, 2, rec.Count("CreateProgram"))

	src := a.(*gpu.RecordedProgram).Source
	assert.Equal(t, vert.Source(), src.Vertex.Source)
	assert.Equal(t, frag.Source(), src.Fragment.Source)
}

func TestProgramCacheFollowsShaderIdentity(t *testing.T) {
	rec := gpu.NewRecorder()
	vert, frag := newShaders(t)
	m := NewMaterial(WithShaders(vert, frag), WithPass(AmbientPass, NewPass()))
	first := m.Program(rec, AmbientPass)

	m.SetFragmentShader(frag)
	assert.Same(t, first, m.Program(rec, AmbientPass), "same handle keeps the program")

	_, sameSource := newShaders(t)
	m.SetFragmentShader(sameSource)
	second := m.Program(rec, AmbientPass)
	assert.NotSame(t, first, second, "a new handle recompiles even with identical source")
	assert.Equal(t, 2, rec.Count("CreateProgram"))
}

func TestStaleProgramsAreReleasedOnTheirDevice(t *testing.T) {
	rec := gpu.NewRecorder()
	other := gpu.NewRecorder()
	vert, frag := newShaders(t)
	m := NewMaterial(WithShaders(vert, frag), WithPass(AmbientPass, NewPass()), WithPass(LightPass, NewPass()))
	ambient := m.Program(rec, AmbientPass)
	light := m.Program(rec, LightPass)
	foreign := m.Program(other, AmbientPass)

	_, replacement := newShaders(t)
	m.SetFragmentShader(replacement)
	assert.Zero(t, rec.Count("ReleaseProgram"), "release waits for the render thread")

	m.Program(rec, AmbientPass)
	var released []any
	for _, c := range rec.Calls() {
		if c.Name == "ReleaseProgram" {
			released = append(released, c.Args[0])
		}
	}
	assert.ElementsMatch(t, []any{ambient, light}, released)
	assert.Zero(t, other.Count("ReleaseProgram"))

	m.Program(other, AmbientPass)
	assert.Equal(t, []gpu.Call{{Name: "ReleaseProgram", Args: []any{foreign}}}, other.Calls()[1:2])

	m.Program(rec, LightPass)
	assert.Equal(t, 2, rec.Count("ReleaseProgram"), "each program is released once")
}

func TestFailedProgramsAreNotReleased(t *testing.T) {
	rec := gpu.NewRecorder()
	rec.FailPrograms = true
	vert, frag := newShaders(t)
	m := NewMaterial(WithShaders(vert, frag), WithPass(AmbientPass, NewPass()))
	assert.Nil(t, m.Program(rec, AmbientPass))

	_, replacement := newShaders(t)
	m.SetFragmentShader(replacement)
	m.Program(rec, AmbientPass)
	assert.Zero(t, rec.Count("ReleaseProgram"))
}

func TestProgramFailureIsCached(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	common.SetLogger(zap.New(core))
	t.Cleanup(func() { common.SetLogger(nil) })

	rec := gpu.NewRecorder()
	rec.FailPrograms = true
	vert, frag := newShaders(t)
	m := NewMaterial(WithShaders(vert, frag), WithPass(AmbientPass, NewPass()))

	assert.Nil(t, m.Program(rec, AmbientPass))
	assert.Nil(t, m.Program(rec, AmbientPass))
	assert.Equal(t, 1, rec.Count("CreateProgram"))
	assert.Equal(t, 1, logs.Len())
}

func TestProgramWithoutShaders(t *testing.T) {
	rec := gpu.NewRecorder()
	m := NewMaterial(WithPass(AmbientPass, NewPass()))
	assert.Nil(t, m.Program(rec, AmbientPass))
	assert.Zero(t, rec.Count("CreateProgram"))
}

func TestMaterialUniforms(t *testing.T) {
	m := NewMaterial(WithName("red"), WithUniform("material.color", gpu.Vec3Value([3]float32{1, 0, 0})))
	v, ok := m.Uniforms().Get("material.color")
	require.True(t, ok)
	assert.Equal(t, float32(1), v.Vec3(0)[0])

	empty := NewMaterial()
	assert.Zero(t, empty.Uniforms().Len())
}
