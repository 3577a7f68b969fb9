package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// UniformField is the placement of one declared uniform inside a packed uniform buffer,
// following the WGSL uniform address space layout rules.
type UniformField struct {
	Decl   UniformDecl
	Offset int
	Stride int
	Size   int
}

// UniformLayout places a program's declared uniforms into one buffer. Texture declarations
// take no buffer space; they are listed separately in binding order.
type UniformLayout struct {
	Fields   []UniformField
	Textures []UniformDecl
	Size     int

	fields   map[string]int
	textures map[string]int
}

// NewUniformLayout computes the buffer layout for decls in declaration order.
//
// Parameters:
//   - decls: the program's uniform declarations
//
// Returns:
//   - *UniformLayout: the computed layout
func NewUniformLayout(decls []UniformDecl) *UniformLayout {
	l := &UniformLayout{
		fields:   make(map[string]int),
		textures: make(map[string]int),
	}
	end := 0
	for _, d := range decls {
		if d.Kind == KindTexture {
			l.textures[d.Name] = len(l.Textures)
			l.Textures = append(l.Textures, d)
			continue
		}
		align, stride, size := fieldMetrics(d)
		off := roundUp(align, end)
		l.fields[d.Name] = len(l.Fields)
		l.Fields = append(l.Fields, UniformField{Decl: d, Offset: off, Stride: stride, Size: size})
		end = off + size
	}
	l.Size = max(roundUp(16, end), 16)
	return l
}

// Field returns the placement of the named uniform.
func (l *UniformLayout) Field(name string) (UniformField, bool) {
	i, ok := l.fields[name]
	if !ok {
		return UniformField{}, false
	}
	return l.Fields[i], true
}

// TextureIndex returns the binding order of the named texture uniform, or -1.
func (l *UniformLayout) TextureIndex(name string) int {
	if i, ok := l.textures[name]; ok {
		return i
	}
	return -1
}

// Pack writes v into dst at the named field's offset. dst must be at least Size bytes.
//
// Parameters:
//   - dst: the buffer image
//   - name: the uniform name
//   - v: the value
//
// Returns:
//   - bool: false if the layout has no such field
func (l *UniformLayout) Pack(dst []byte, name string, v Value) bool {
	f, ok := l.Field(name)
	if !ok {
		return false
	}
	switch {
	case f.Decl.Kind == KindInt && v.Kind == KindInt:
		binary.LittleEndian.PutUint32(dst[f.Offset:], uint32(v.Int))
		return true
	case f.Decl.Kind == KindInt:
		if len(v.Floats) > 0 {
			binary.LittleEndian.PutUint32(dst[f.Offset:], uint32(int32(v.Floats[0])))
		}
		return true
	case v.Kind == KindInt:
		putFloats(dst[f.Offset:], []float32{float32(v.Int)})
		return true
	}

	comps := f.Decl.Kind.Components()
	count := min(max(f.Decl.Count, 1), v.Count)
	for e := 0; e < count; e++ {
		if len(v.Floats) < (e+1)*comps {
			break
		}
		base := f.Offset + e*f.Stride
		src := v.Floats[e*comps : (e+1)*comps]
		if f.Decl.Kind == KindMat3 {
			// Columns of a mat3x3 are padded to 16 bytes.
			for c := 0; c < 3; c++ {
				putFloats(dst[base+16*c:], src[3*c:3*c+3])
			}
			continue
		}
		putFloats(dst[base:], src)
	}
	return true
}

// FieldIdent turns a uniform name such as "light.shadowMatrix" into a WGSL identifier.
func FieldIdent(name string) string {
	return strings.NewReplacer(".", "_", "[", "_", "]", "").Replace(name)
}

// WGSLType returns the WGSL type a field is declared with.
func (f UniformField) WGSLType() string {
	elem := wgslScalarTypes[f.Decl.Kind]
	if f.Decl.Count <= 1 {
		return elem
	}
	switch f.Decl.Kind {
	case KindInt:
		elem = "vec4<i32>"
	case KindFloat, KindVec2:
		elem = "vec4<f32>"
	}
	return fmt.Sprintf("array<%s, %d>", elem, f.Decl.Count)
}

var wgslScalarTypes = map[ValueKind]string{
	KindInt:   "i32",
	KindFloat: "f32",
	KindVec2:  "vec2<f32>",
	KindVec3:  "vec3<f32>",
	KindVec4:  "vec4<f32>",
	KindMat3:  "mat3x3<f32>",
	KindMat4:  "mat4x4<f32>",
}

// fieldMetrics returns alignment, element stride and total size of a declaration.
// Arrays in the uniform address space need a 16 byte aligned stride, so scalar and vec2
// elements are widened to vec4.
func fieldMetrics(d UniformDecl) (align, stride, size int) {
	switch d.Kind {
	case KindInt, KindFloat:
		align, size = 4, 4
	case KindVec2:
		align, size = 8, 8
	case KindVec3:
		align, size = 16, 12
	case KindVec4:
		align, size = 16, 16
	case KindMat3:
		align, size = 16, 48
	case KindMat4:
		align, size = 16, 64
	}
	if d.Count <= 1 {
		return align, size, size
	}
	stride = roundUp(16, size)
	return 16, stride, stride * d.Count
}

func roundUp(align, v int) int {
	return (v + align - 1) / align * align
}

func putFloats(dst []byte, src []float32) {
	for i, f := range src {
		binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(f))
	}
}
