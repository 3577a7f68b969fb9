package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/model"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// gltfPrimitiveModel is one extracted primitive and the document material it references.
type gltfPrimitiveModel struct {
	model    model.Model
	material int // -1 when the primitive has no material
}

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	parser gltfParser
}

// gltfMeshExtractor converts glTF mesh primitives into models.
type gltfMeshExtractor interface {
	// ExtractMesh extracts every primitive of one mesh. Primitives with an unsupported
	// topology are skipped with a warning.
	//
	// Parameters:
	//   - meshIndex: the index of the mesh in the document
	//
	// Returns:
	//   - []gltfPrimitiveModel: one entry per extracted primitive
	//   - error: error if accessor data cannot be read
	ExtractMesh(meshIndex int) ([]gltfPrimitiveModel, error)

	// ExtractAllMeshes extracts every mesh in document order.
	//
	// Returns:
	//   - [][]gltfPrimitiveModel: the primitives of each mesh
	//   - error: error if any mesh fails
	ExtractAllMeshes() ([][]gltfPrimitiveModel, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

func newGLTFMeshExtractor(parser gltfParser) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{parser: parser}
}

func (e *gltfMeshExtractorImpl) ExtractMesh(meshIndex int) ([]gltfPrimitiveModel, error) {
	doc := e.parser.Document()
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", meshIndex)
	}

	mesh := &doc.Meshes[meshIndex]
	name := mesh.Name
	if name == "" {
		name = fmt.Sprintf("mesh%d", meshIndex)
	}

	out := make([]gltfPrimitiveModel, 0, len(mesh.Primitives))
	for i := range mesh.Primitives {
		prim := &mesh.Primitives[i]
		primName := name
		if len(mesh.Primitives) > 1 {
			primName = fmt.Sprintf("%s.%d", name, i)
		}

		m, ok, err := e.extractPrimitive(prim, primName)
		if err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: %w", name, i, err)
		}
		if !ok {
			continue
		}

		mat := -1
		if prim.Material != nil {
			mat = *prim.Material
		}
		out = append(out, gltfPrimitiveModel{model: m, material: mat})
	}
	return out, nil
}

func (e *gltfMeshExtractorImpl) ExtractAllMeshes() ([][]gltfPrimitiveModel, error) {
	doc := e.parser.Document()
	out := make([][]gltfPrimitiveModel, len(doc.Meshes))
	for i := range doc.Meshes {
		prims, err := e.ExtractMesh(i)
		if err != nil {
			return nil, err
		}
		out[i] = prims
	}
	return out, nil
}

// extractPrimitive reads one primitive. ok is false when the topology has no gpu.Primitive.
func (e *gltfMeshExtractorImpl) extractPrimitive(prim *gltfPrimitive, name string) (model.Model, bool, error) {
	topology, ok := gltfTopology(prim.Mode)
	if !ok {
		common.Logger().Warn("skipping glTF primitive with unsupported mode",
			zap.String("mesh", name), zap.Int("mode", *prim.Mode))
		return nil, false, nil
	}

	posAccessor, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, false, fmt.Errorf("primitive has no POSITION attribute")
	}
	positions, err := e.parser.ReadVec3Accessor(posAccessor)
	if err != nil {
		return nil, false, fmt.Errorf("read positions: %w", err)
	}

	data := gpu.MeshData{
		Label:     name,
		Primitive: topology,
		Positions: positions,
	}

	if prim.Indices != nil {
		data.Indices, err = e.parser.ReadIndicesAccessor(*prim.Indices)
		if err != nil {
			return nil, false, fmt.Errorf("read indices: %w", err)
		}
		for _, idx := range data.Indices {
			if int(idx) >= len(positions) {
				return nil, false, fmt.Errorf("index %d exceeds %d vertices", idx, len(positions))
			}
		}
	}

	if acc, ok := prim.Attributes["NORMAL"]; ok {
		data.Normals, err = e.parser.ReadVec3Accessor(acc)
		if err != nil {
			return nil, false, fmt.Errorf("read normals: %w", err)
		}
	} else if topology == gpu.PrimitiveTriangles {
		data.Normals = generateNormals(positions, data.Indices)
	}

	if acc, ok := prim.Attributes["TEXCOORD_0"]; ok {
		data.UVs, err = e.parser.ReadVec2Accessor(acc)
		if err != nil {
			return nil, false, fmt.Errorf("read texcoords: %w", err)
		}
	}

	return model.NewModel(model.WithName(name), model.WithMeshData(data)), true, nil
}

// gltfTopology maps a glTF primitive mode onto a device topology.
func gltfTopology(mode *int) (gpu.Primitive, bool) {
	if mode == nil {
		return gpu.PrimitiveTriangles, true
	}
	switch *mode {
	case gltfPrimitiveModeTriangles:
		return gpu.PrimitiveTriangles, true
	case gltfPrimitiveModeTriangleStrip:
		return gpu.PrimitiveTriangleStrip, true
	case gltfPrimitiveModeLines:
		return gpu.PrimitiveLines, true
	case gltfPrimitiveModePoints:
		return gpu.PrimitivePoints, true
	}
	return 0, false
}

// generateNormals computes smooth vertex normals for a triangle list. Face normals are
// accumulated unnormalized, so larger triangles weigh more, then each sum is normalized.
// Without indices every three consecutive vertices form a triangle.
func generateNormals(positions []mgl32.Vec3, indices []uint32) []mgl32.Vec3 {
	normals := make([]mgl32.Vec3, len(positions))
	triangle := func(a, b, c int) {
		n := positions[b].Sub(positions[a]).Cross(positions[c].Sub(positions[a]))
		normals[a] = normals[a].Add(n)
		normals[b] = normals[b].Add(n)
		normals[c] = normals[c].Add(n)
	}

	if len(indices) > 0 {
		for i := 0; i+2 < len(indices); i += 3 {
			triangle(int(indices[i]), int(indices[i+1]), int(indices[i+2]))
		}
	} else {
		for i := 0; i+2 < len(positions); i += 3 {
			triangle(i, i+1, i+2)
		}
	}

	for i, n := range normals {
		if l := n.Len(); l > 0 {
			normals[i] = n.Mul(1 / l)
		} else {
			normals[i] = mgl32.Vec3{0, 1, 0}
		}
	}
	return normals
}
