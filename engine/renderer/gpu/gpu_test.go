package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueConstructors(t *testing.T) {
	assert.Equal(t, Value{Kind: KindInt, Count: 1, Int: 1}, BoolValue(true))
	assert.Equal(t, int32(0), BoolValue(false).Int)

	v := Vec3Value(mgl32.Vec3{1, 2, 3})
	assert.Equal(t, KindVec3, v.Kind)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, v.Vec3(0))

	arr := Mat4ArrayValue([]mgl32.Mat4{mgl32.Ident4(), mgl32.Translate3D(1, 2, 3)})
	assert.Equal(t, 2, arr.Count)
	assert.Len(t, arr.Floats, 32)
	assert.Equal(t, mgl32.Translate3D(1, 2, 3), arr.Mat4(1))

	floats := []float32{1, 2}
	fa := FloatArrayValue(floats)
	floats[0] = 9
	assert.Equal(t, float32(1), fa.Float(0), "array values copy their input")
}

func TestKindComponents(t *testing.T) {
	assert.Equal(t, 16, KindMat4.Components())
	assert.Equal(t, 9, KindMat3.Components())
	assert.Equal(t, 1, KindTexture.Components())
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "LEQUAL", DepthLessEqual.String())
	assert.Equal(t, "FRONT_AND_BACK", CullFrontAndBack.String())
	assert.Equal(t, "ONE_MINUS_SRC_ALPHA", BlendOneMinusSrcAlpha.String())
	assert.Equal(t, "REVERSE_SUBTRACT", BlendReverseSubtract.String())
	assert.Equal(t, "CW", FrontFaceCW.String())
	assert.Equal(t, "DepthFunc(42)", DepthFunc(42).String())
}

func TestMeshDataInterleaved(t *testing.T) {
	d := MeshData{
		Positions: []mgl32.Vec3{{1, 2, 3}, {4, 5, 6}},
		Normals:   []mgl32.Vec3{{0, 1, 0}},
		UVs:       []mgl32.Vec2{{0.5, 0.25}, {1, 1}},
	}
	got := d.Interleaved()
	require.Len(t, got, 16)
	assert.Equal(t, []float32{1, 2, 3, 0, 1, 0, 0.5, 0.25}, got[:8])
	assert.Equal(t, []float32{4, 5, 6, 0, 0, 0, 1, 1}, got[8:])
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.SetDepthWrite(true)
	r.SetDepthFunc(DepthLess)
	r.Clear(false, true, false)

	target, err := r.CreateDepthTarget(512, 256)
	require.NoError(t, err)
	w, h := target.Size()
	assert.Equal(t, 512, w)
	assert.Equal(t, 256, h)
	assert.NotNil(t, target.DepthTexture())
	assert.Nil(t, target.ColorTexture(), "depth targets have no color attachment")

	color, err := r.CreateColorTarget(64, 32)
	require.NoError(t, err)
	require.NotNil(t, color.ColorTexture())
	cw, ch := color.ColorTexture().Size()
	assert.Equal(t, 64, cw)
	assert.Equal(t, 32, ch)

	assert.NoError(t, r.BindRenderTarget(target))
	r.FailFramebuffers = true
	assert.ErrorIs(t, r.BindRenderTarget(target), ErrFramebufferIncomplete)
	assert.NoError(t, r.BindRenderTarget(nil))

	assert.Equal(t, 3, r.Count("BindRenderTarget"))
	assert.Equal(t, Call{Name: "SetDepthFunc", Args: []any{DepthLess}}, r.Calls()[1])

	r.FailPrograms = true
	_, err = r.CreateProgram(ProgramSource{Label: "broken"})
	assert.Error(t, err)

	r.Reset()
	assert.Zero(t, r.Len())
}

func TestUniformLayout(t *testing.T) {
	l := NewUniformLayout([]UniformDecl{
		{Name: "ambientPass", Kind: KindInt, Count: 1},
		{Name: "light.color", Kind: KindVec3, Count: 1},
		{Name: "light.radius", Kind: KindFloat, Count: 1},
		{Name: "light.shadowMap", Kind: KindTexture, Count: 1, Shadow: true},
		{Name: "normalMatrix", Kind: KindMat3, Count: 1},
		{Name: "light.shadowSplits", Kind: KindFloat, Count: 3},
		{Name: "light.shadowMatrix", Kind: KindMat4, Count: 2},
	})

	offsets := map[string]int{}
	for _, f := range l.Fields {
		offsets[f.Decl.Name] = f.Offset
	}
	assert.Equal(t, map[string]int{
		"ambientPass":        0,
		"light.color":        16,
		"light.radius":       28,
		"normalMatrix":       32,
		"light.shadowSplits": 80,
		"light.shadowMatrix": 128,
	}, offsets)
	assert.Equal(t, 256, l.Size)
	assert.Equal(t, 0, l.TextureIndex("light.shadowMap"))
	assert.Equal(t, -1, l.TextureIndex("missing"))

	splits, ok := l.Field("light.shadowSplits")
	require.True(t, ok)
	assert.Equal(t, "array<vec4<f32>, 3>", splits.WGSLType())
	nm, _ := l.Field("normalMatrix")
	assert.Equal(t, "mat3x3<f32>", nm.WGSLType())
	assert.Equal(t, "light_shadowMatrix", FieldIdent("light.shadowMatrix"))
}

func TestUniformLayoutPack(t *testing.T) {
	l := NewUniformLayout([]UniformDecl{
		{Name: "ambientPass", Kind: KindInt, Count: 1},
		{Name: "normalMatrix", Kind: KindMat3, Count: 1},
		{Name: "splits", Kind: KindFloat, Count: 2},
	})
	buf := make([]byte, l.Size)

	assert.True(t, l.Pack(buf, "ambientPass", IntValue(7)))
	assert.True(t, l.Pack(buf, "normalMatrix", Mat3Value(mgl32.Ident3())))
	assert.True(t, l.Pack(buf, "splits", FloatArrayValue([]float32{0.5, 2})))
	assert.False(t, l.Pack(buf, "missing", IntValue(1)))

	f32 := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(buf[0:]))
	assert.Equal(t, float32(1), f32(16))
	assert.Equal(t, float32(0), f32(16+12), "column padding stays zero")
	assert.Equal(t, float32(1), f32(16+16+4))
	assert.Equal(t, float32(1), f32(16+32+8))
	assert.Equal(t, float32(0.5), f32(64))
	assert.Equal(t, float32(2), f32(80))
}
