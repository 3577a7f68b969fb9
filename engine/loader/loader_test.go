package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// triangleBuffer holds three VEC3 float positions followed by three ushort indices and
// two bytes of padding.
func triangleBuffer() []byte {
	var buf bytes.Buffer
	for _, v := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0} {
		_ = binary.Write(&buf, binary.LittleEndian, math.Float32bits(v))
	}
	for _, i := range []uint16{0, 1, 2, 0} {
		_ = binary.Write(&buf, binary.LittleEndian, i)
	}
	return buf.Bytes()
}

// triangleDocument is a two-node scene drawing one translucent, double-sided triangle.
// buffer is the JSON object of the single buffer.
func triangleDocument(buffer string) string {
	return `{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"name": "demo", "nodes": [0]}],
  "nodes": [
    {"name": "root", "translation": [1, 2, 3], "children": [1]},
    {"name": "tri", "mesh": 0, "scale": [2, 2, 2]}
  ],
  "meshes": [{"name": "tri", "primitives": [{"attributes": {"POSITION": 0}, "indices": 1, "material": 0}]}],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
    {"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
  ],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 6}
  ],
  "buffers": [` + buffer + `],
  "materials": [{
    "name": "red",
    "pbrMetallicRoughness": {"baseColorFactor": [1, 0, 0, 0.5], "roughnessFactor": 0.5},
    "alphaMode": "BLEND",
    "doubleSided": true
  }]
}`
}

func dataURIDocument() string {
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(triangleBuffer())
	return triangleDocument(`{"uri": "` + uri + `", "byteLength": 44}`)
}

func buildGLB(t *testing.T, jsonDoc string, bin []byte) []byte {
	t.Helper()
	pad := func(b []byte, with byte) []byte {
		for len(b)%4 != 0 {
			b = append(b, with)
		}
		return b
	}
	jsonChunk := pad([]byte(jsonDoc), ' ')
	binChunk := pad(append([]byte(nil), bin...), 0)

	var out bytes.Buffer
	total := 12 + 8 + len(jsonChunk) + 8 + len(binChunk)
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBHeader{gltfGLBMagic, gltfGLBVersion, uint32(total)}))
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{uint32(len(jsonChunk)), gltfGLBChunkJSON}))
	out.Write(jsonChunk)
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{uint32(len(binChunk)), gltfGLBChunkBIN}))
	out.Write(binChunk)
	return out.Bytes()
}

func assertVec3(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	assert.True(t, want.ApproxEqualThreshold(got, 1e-5), "want %v, got %v", want, got)
}

func TestLoadReaderGLTF(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)
	a, err := l.LoadReader("triangle", strings.NewReader(dataURIDocument()), false)
	require.NoError(t, err)

	assert.Equal(t, "demo", a.Name)
	require.Len(t, a.Models, 1)
	data := a.Models[0].Data()
	assert.Equal(t, "tri", data.Label)
	assert.Equal(t, gpu.PrimitiveTriangles, data.Primitive)
	assert.Equal(t, []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, data.Positions)
	assert.Equal(t, []uint32{0, 1, 2}, data.Indices)
	require.Len(t, data.Normals, 3)
	for _, n := range data.Normals {
		assertVec3(t, mgl32.Vec3{0, 0, 1}, n)
	}

	require.Len(t, a.Materials, 1)
	m := a.Materials[0]
	assert.Equal(t, "red", m.Name())
	assert.Equal(t, material.BlendTranslucent, m.BlendMode())
	assert.Equal(t, gpu.CullNone, m.StateBlock().CullFaces())
	color, ok := m.Uniforms().Get("baseColor")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 0, 0, 0.5}, color.Floats)
	shininess, ok := m.Uniforms().Get("shininess")
	require.True(t, ok)
	assert.InDelta(t, 30.0, shininess.Float(0), 1e-3)

	bounds := a.Bounds()
	assertVec3(t, mgl32.Vec3{1, 2, 3}, bounds.Min)
	assertVec3(t, mgl32.Vec3{3, 4, 3}, bounds.Max)

	assert.Same(t, a, l.Get("triangle"))
}

func TestInstantiate(t *testing.T) {
	a, err := NewLoader(BackendTypeGLTF).LoadReader("triangle", strings.NewReader(dataURIDocument()), false)
	require.NoError(t, err)

	first := a.Instantiate()
	second := a.Instantiate()
	assert.NotEqual(t, first.ID(), second.ID())

	assert.Equal(t, "demo", first.Name())
	require.Equal(t, 1, first.ChildCount())
	root := first.Child(0)
	assert.Equal(t, "root", root.Name())
	assertVec3(t, mgl32.Vec3{1, 2, 3}, root.Position())

	require.Equal(t, 1, root.ChildCount())
	tri := root.Child(0)
	assertVec3(t, mgl32.Vec3{2, 2, 2}, tri.Scale())
	assert.Same(t, a.Models[0], tri.Mesh())
	assert.Same(t, a.Materials[0], tri.Material())
	assert.Same(t, tri.Mesh(), second.Child(0).Child(0).Mesh())

	world, ok := tri.WorldBounds()
	require.True(t, ok)
	assertVec3(t, a.Bounds().Min, world.Min)
	assertVec3(t, a.Bounds().Max, world.Max)
}

func TestLoadGLBFromFile(t *testing.T) {
	doc := triangleDocument(`{"byteLength": 44}`)
	path := filepath.Join(t.TempDir(), "tri.glb")
	require.NoError(t, os.WriteFile(path, buildGLB(t, doc, triangleBuffer()), 0o600))

	l := NewLoader(BackendTypeGLTF, WithLanguage(shader.LanguageWGSL))
	a, err := l.Load(path)
	require.NoError(t, err)
	require.Len(t, a.Models, 1)
	assert.Equal(t, []uint32{0, 1, 2}, a.Models[0].Data().Indices)

	again, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, a, again)
	assert.Len(t, l.Assets(), 1)
}

func TestLoadExternalBuffer(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.bin"), triangleBuffer(), 0o600))
	path := filepath.Join(dir, "tri.gltf")
	require.NoError(t, os.WriteFile(path, []byte(triangleDocument(`{"uri": "tri.bin", "byteLength": 44}`)), 0o600))

	a, err := NewLoader(BackendTypeGLTF).Load(path)
	require.NoError(t, err)
	assert.Len(t, a.Models, 1)

	require.NoError(t, os.Remove(filepath.Join(dir, "tri.bin")))
	missing := filepath.Join(dir, "copy.gltf")
	require.NoError(t, os.WriteFile(missing, []byte(triangleDocument(`{"uri": "tri.bin", "byteLength": 44}`)), 0o600))
	_, err = NewLoader(BackendTypeGLTF).Load(missing)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := NewLoader(BackendTypeGLTF).Load("mesh.obj")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		glb  bool
		want error
	}{
		{"old version", `{"asset": {"version": "1.0"}}`, false, errInvalidGLTFVersion},
		{"required extension", `{"asset": {"version": "2.0"}, "extensionsRequired": ["KHR_draco_mesh_compression"]}`, false, ErrUnsupportedFormat},
		{"bad magic", "notaglbfile!", true, errInvalidGLBMagic},
		{"bad data uri", `{"asset": {"version": "2.0"}, "buffers": [{"uri": "data:text/plain,abc", "byteLength": 3}]}`, false, errInvalidBufferURI},
		{"short buffer", `{"asset": {"version": "2.0"}, "buffers": [{"uri": "data:;base64,AAAA", "byteLength": 8}]}`, false, errBufferSizeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newGLTFParser().ParseReader(strings.NewReader(tt.data), tt.glb, ".")
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAccessorOutOfRange(t *testing.T) {
	doc := strings.Replace(dataURIDocument(), `"count": 3, "type": "VEC3"`, `"count": 30, "type": "VEC3"`, 1)
	_, err := NewLoader(BackendTypeGLTF).LoadReader("broken", strings.NewReader(doc), false)
	require.ErrorIs(t, err, errAccessorRange)
}

func TestMultiPrimitiveMeshWithoutMaterial(t *testing.T) {
	uri := "data:;base64," + base64.StdEncoding.EncodeToString(triangleBuffer())
	doc := `{
  "asset": {"version": "2.0"},
  "nodes": [{"mesh": 0}],
  "meshes": [{"primitives": [
    {"attributes": {"POSITION": 0}},
    {"attributes": {"POSITION": 0}, "indices": 1},
    {"attributes": {"POSITION": 0}, "mode": 6}
  ]}],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
    {"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
  ],
  "bufferViews": [
    {"buffer": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 6}
  ],
  "buffers": [{"uri": "` + uri + `", "byteLength": 44}]
}`
	a, err := NewLoader(BackendTypeGLTF).LoadReader("multi", strings.NewReader(doc), false)
	require.NoError(t, err)

	assert.Equal(t, "multi", a.Name)
	require.Len(t, a.Models, 2, "the triangle fan primitive is skipped")
	assert.Equal(t, "mesh0.0", a.Models[0].Name())
	assert.Equal(t, "mesh0.1", a.Models[1].Name())
	require.Len(t, a.Materials, 1)
	assert.Equal(t, "default", a.Materials[0].Name())

	root := a.Instantiate()
	require.Equal(t, 1, root.ChildCount())
	n := root.Child(0)
	assert.Equal(t, "node0", n.Name())
	assert.Nil(t, n.Mesh())
	require.Equal(t, 2, n.ChildCount())
	assert.Same(t, a.Materials[0], n.Child(1).Material())
}

func TestNodeCycleRejected(t *testing.T) {
	doc := `{
  "asset": {"version": "2.0"},
  "scenes": [{"nodes": [0]}],
  "nodes": [{"children": [1]}, {"children": [0]}]
}`
	_, err := NewLoader(BackendTypeGLTF).LoadReader("cycle", strings.NewReader(doc), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than once")
}

func TestMatrixNode(t *testing.T) {
	doc := `{
  "asset": {"version": "2.0"},
  "nodes": [{"matrix": [1,0,0,0, 0,1,0,0, 0,0,1,0, 5,6,7,1]}]
}`
	a, err := NewLoader(BackendTypeGLTF).LoadReader("matrix", strings.NewReader(doc), false)
	require.NoError(t, err)
	assertVec3(t, mgl32.Vec3{5, 6, 7}, a.Instantiate().Child(0).Position())
	assert.Equal(t, mgl32.Vec3{}, a.Bounds().Min, "an asset without geometry has zero bounds")
}

func TestWithAsset(t *testing.T) {
	a := &Asset{Name: "cached"}
	l := NewLoader(BackendTypeGLTF, WithAsset("cached.glb", a))
	got, err := l.Load("cached.glb")
	require.NoError(t, err)
	assert.Same(t, a, got)
}

func TestRoughnessToShininess(t *testing.T) {
	assert.Equal(t, float32(minShininess), roughnessToShininess(1))
	assert.Equal(t, float32(maxShininess), roughnessToShininess(0))
	assert.InDelta(t, 30.0, roughnessToShininess(0.5), 1e-3)
}

func TestReadComponentNormalized(t *testing.T) {
	assert.Equal(t, float32(1), readComponent([]byte{255}, gltfComponentTypeUnsignedByte))
	assert.Equal(t, float32(-1), readComponent([]byte{0x80}, gltfComponentTypeByte))
	assert.Equal(t, float32(-1), readComponent([]byte{0x00, 0x80}, gltfComponentTypeShort))
	assert.Equal(t, float32(1), readComponent([]byte{0xff, 0xff}, gltfComponentTypeUnsignedShort))
}

func TestGenerateNormalsWithoutIndices(t *testing.T) {
	normals := generateNormals([]mgl32.Vec3{{0, 0, 0}, {0, 0, 1}, {1, 0, 0}}, nil)
	for _, n := range normals {
		assertVec3(t, mgl32.Vec3{0, 1, 0}, n)
	}
}
