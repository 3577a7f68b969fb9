package gpu

import (
	"github.com/go-gl/mathgl/mgl32"
)

// ValueKind is the shader-visible type of a uniform value.
type ValueKind uint8

const (
	KindInt ValueKind = iota
	KindFloat
	KindVec2
	KindVec3
	KindVec4
	KindMat3
	KindMat4
	KindTexture
)

// Components returns the number of float32 slots one element of the kind occupies.
// Int and Texture values are carried outside the float slots and report 1.
func (k ValueKind) Components() int {
	switch k {
	case KindVec2:
		return 2
	case KindVec3:
		return 3
	case KindVec4:
		return 4
	case KindMat3:
		return 9
	case KindMat4:
		return 16
	default:
		return 1
	}
}

// Value is a tagged uniform value. Float-based kinds store Count elements packed in Floats;
// KindInt uses Int and KindTexture uses Texture.
type Value struct {
	Kind    ValueKind
	Count   int
	Int     int32
	Floats  []float32
	Texture Texture
}

// IntValue wraps a scalar integer uniform.
func IntValue(v int32) Value {
	return Value{Kind: KindInt, Count: 1, Int: v}
}

// BoolValue wraps a boolean as an integer uniform.
func BoolValue(v bool) Value {
	if v {
		return IntValue(1)
	}
	return IntValue(0)
}

// FloatValue wraps a scalar float uniform.
func FloatValue(v float32) Value {
	return Value{Kind: KindFloat, Count: 1, Floats: []float32{v}}
}

// FloatArrayValue wraps a float array uniform. The slice is copied.
func FloatArrayValue(v []float32) Value {
	return Value{Kind: KindFloat, Count: len(v), Floats: append([]float32(nil), v...)}
}

// Vec2Value wraps a vec2 uniform.
func Vec2Value(v mgl32.Vec2) Value {
	return Value{Kind: KindVec2, Count: 1, Floats: v[:]}
}

// Vec3Value wraps a vec3 uniform.
func Vec3Value(v mgl32.Vec3) Value {
	return Value{Kind: KindVec3, Count: 1, Floats: v[:]}
}

// Vec4Value wraps a vec4 uniform.
func Vec4Value(v mgl32.Vec4) Value {
	return Value{Kind: KindVec4, Count: 1, Floats: v[:]}
}

// Vec4ArrayValue wraps a vec4 array uniform.
func Vec4ArrayValue(v []mgl32.Vec4) Value {
	out := make([]float32, 0, 4*len(v))
	for _, e := range v {
		out = append(out, e[:]...)
	}
	return Value{Kind: KindVec4, Count: len(v), Floats: out}
}

// Mat3Value wraps a column-major mat3 uniform.
func Mat3Value(m mgl32.Mat3) Value {
	return Value{Kind: KindMat3, Count: 1, Floats: m[:]}
}

// Mat4Value wraps a column-major mat4 uniform.
func Mat4Value(m mgl32.Mat4) Value {
	return Value{Kind: KindMat4, Count: 1, Floats: m[:]}
}

// Mat4ArrayValue wraps a mat4 array uniform.
func Mat4ArrayValue(ms []mgl32.Mat4) Value {
	out := make([]float32, 0, 16*len(ms))
	for _, m := range ms {
		out = append(out, m[:]...)
	}
	return Value{Kind: KindMat4, Count: len(ms), Floats: out}
}

// TextureValue wraps a sampled texture. The render context resolves it to a texture unit.
func TextureValue(t Texture) Value {
	return Value{Kind: KindTexture, Count: 1, Texture: t}
}

// Mat4 returns element i of a KindMat4 value.
func (v Value) Mat4(i int) mgl32.Mat4 {
	var m mgl32.Mat4
	copy(m[:], v.Floats[16*i:16*i+16])
	return m
}

// Vec3 returns element i of a KindVec3 value.
func (v Value) Vec3(i int) mgl32.Vec3 {
	return mgl32.Vec3{v.Floats[3*i], v.Floats[3*i+1], v.Floats[3*i+2]}
}

// Float returns element i of a KindFloat value.
func (v Value) Float(i int) float32 {
	return v.Floats[i]
}
