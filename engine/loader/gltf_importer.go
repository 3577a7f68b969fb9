package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct {
	language shader.Language
}

// gltfImporter combines the parser and the extractors to produce an Asset.
type gltfImporter interface {
	// Import loads a glTF or GLB file.
	//
	// Parameters:
	//   - path: the file path to the glTF or GLB file
	//
	// Returns:
	//   - *Asset: the imported asset
	//   - error: error if import fails
	Import(path string) (*Asset, error)

	// ImportReader loads a document from r. External buffers resolve against baseDir.
	//
	// Parameters:
	//   - name: the asset name used when the document names no scene
	//   - r: the reader providing glTF/GLB data
	//   - isGLB: true for GLB binary data
	//   - baseDir: the directory for relative buffer URIs
	//
	// Returns:
	//   - *Asset: the imported asset
	//   - error: error if import fails
	ImportReader(name string, r io.Reader, isGLB bool, baseDir string) (*Asset, error)
}

var _ gltfImporter = &gltfImporterImpl{}

func newGLTFImporter(lang shader.Language) gltfImporter {
	return &gltfImporterImpl{language: lang}
}

func (imp *gltfImporterImpl) Import(path string) (*Asset, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return imp.importFromParser(parser, name)
}

func (imp *gltfImporterImpl) ImportReader(name string, r io.Reader, isGLB bool, baseDir string) (*Asset, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, isGLB, baseDir); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return imp.importFromParser(parser, name)
}

func (imp *gltfImporterImpl) importFromParser(parser gltfParser, fallbackName string) (*Asset, error) {
	doc := parser.Document()

	meshes, err := newGLTFMeshExtractor(parser).ExtractAllMeshes()
	if err != nil {
		return nil, fmt.Errorf("mesh extraction: %w", err)
	}

	materials := newGLTFMaterialExtractor(parser, imp.language)
	mats, err := materials.ExtractAllMaterials()
	if err != nil {
		return nil, fmt.Errorf("material extraction: %w", err)
	}

	a := &Asset{
		Name:      gltfAssetName(doc, fallbackName),
		Materials: mats,
		nodes:     make([]assetNode, len(doc.Nodes)),
	}

	var fallback material.Material
	resolve := func(index int) (material.Material, error) {
		if index >= 0 && index < len(mats) {
			return mats[index], nil
		}
		if fallback == nil {
			if fallback, err = materials.DefaultMaterial(); err != nil {
				return nil, err
			}
			a.Materials = append(a.Materials, fallback)
		}
		return fallback, nil
	}

	for _, prims := range meshes {
		for _, p := range prims {
			a.Models = append(a.Models, p.model)
		}
	}

	for i := range doc.Nodes {
		src := &doc.Nodes[i]
		n := &a.nodes[i]
		n.name = common.Coalesce(src.Name, fmt.Sprintf("node%d", i))
		n.local = gltfLocalMatrix(src)
		n.children = src.Children

		if src.Mesh == nil {
			continue
		}
		if *src.Mesh < 0 || *src.Mesh >= len(meshes) {
			return nil, fmt.Errorf("node %q: mesh %d out of range", n.name, *src.Mesh)
		}
		for _, p := range meshes[*src.Mesh] {
			mat, err := resolve(p.material)
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", n.name, err)
			}
			n.parts = append(n.parts, assetPart{model: p.model, material: mat})
		}
	}

	a.roots, err = gltfSceneRoots(doc)
	if err != nil {
		return nil, err
	}
	if err := a.computeBounds(); err != nil {
		return nil, err
	}
	return a, nil
}

// gltfAssetName prefers the default scene's name over the fallback.
func gltfAssetName(doc *gltfDocument, fallback string) string {
	if s := gltfDefaultScene(doc); s != nil && s.Name != "" {
		return s.Name
	}
	return common.Coalesce(fallback, "unnamed_asset")
}

func gltfDefaultScene(doc *gltfDocument) *gltfScene {
	idx := 0
	if doc.Scene != nil {
		idx = *doc.Scene
	}
	if idx < 0 || idx >= len(doc.Scenes) {
		return nil
	}
	return &doc.Scenes[idx]
}

// gltfSceneRoots returns the root nodes of the default scene. A document without scenes
// uses every node that is nobody's child.
func gltfSceneRoots(doc *gltfDocument) ([]int, error) {
	if s := gltfDefaultScene(doc); s != nil {
		for _, r := range s.Nodes {
			if r < 0 || r >= len(doc.Nodes) {
				return nil, fmt.Errorf("scene %q: node %d out of range", s.Name, r)
			}
		}
		return s.Nodes, nil
	}
	if doc.Scene != nil {
		return nil, fmt.Errorf("default scene %d out of range", *doc.Scene)
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots, nil
}

// gltfLocalMatrix returns the node's matrix, or T * R * S from its TRS properties.
func gltfLocalMatrix(n *gltfNode) mgl32.Mat4 {
	if n.Matrix != nil {
		return mgl32.Mat4(*n.Matrix)
	}

	m := mgl32.Ident4()
	if t := n.Translation; t != nil {
		m = mgl32.Translate3D(t[0], t[1], t[2])
	}
	if r := n.Rotation; r != nil {
		q := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}.Normalize()
		m = m.Mul4(q.Mat4())
	}
	if s := n.Scale; s != nil {
		m = m.Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	}
	return m
}
