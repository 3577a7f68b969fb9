package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

const (
	minShininess = 1
	maxShininess = 512
)

// gltfMaterialExtractorImpl is the implementation of the gltfMaterialExtractor interface.
type gltfMaterialExtractorImpl struct {
	parser   gltfParser
	language shader.Language
}

// gltfMaterialExtractor maps glTF materials onto forward materials. The base color factor
// becomes baseColor, roughness becomes a Blinn-Phong shininess, BLEND selects translucent
// blending and doubleSided turns culling off.
type gltfMaterialExtractor interface {
	// ExtractMaterial builds the material at index.
	//
	// Parameters:
	//   - index: the index of the material in the document
	//
	// Returns:
	//   - material.Material: the forward material
	//   - error: error if the index is out of range or the stock shaders fail
	ExtractMaterial(index int) (material.Material, error)

	// ExtractAllMaterials builds every material in document order.
	//
	// Returns:
	//   - []material.Material: the materials
	//   - error: error if any material fails
	ExtractAllMaterials() ([]material.Material, error)

	// DefaultMaterial builds the material for primitives that reference none.
	DefaultMaterial() (material.Material, error)
}

var _ gltfMaterialExtractor = &gltfMaterialExtractorImpl{}

func newGLTFMaterialExtractor(parser gltfParser, lang shader.Language) gltfMaterialExtractor {
	return &gltfMaterialExtractorImpl{parser: parser, language: lang}
}

func (e *gltfMaterialExtractorImpl) ExtractMaterial(index int) (material.Material, error) {
	doc := e.parser.Document()
	if index < 0 || index >= len(doc.Materials) {
		return nil, fmt.Errorf("material index %d out of range", index)
	}

	src := &doc.Materials[index]
	name := src.Name
	if name == "" {
		name = fmt.Sprintf("material%d", index)
	}

	baseColor := mgl32.Vec4{1, 1, 1, 1}
	roughness := float32(1)
	if pbr := src.PbrMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			baseColor = mgl32.Vec4(*pbr.BaseColorFactor)
		}
		if pbr.RoughnessFactor != nil {
			roughness = *pbr.RoughnessFactor
		}
	}

	opts := []material.MaterialBuilderOption{
		material.WithName(name),
		material.WithUniform("baseColor", gpu.Vec4Value(baseColor)),
		material.WithUniform("shininess", gpu.FloatValue(roughnessToShininess(roughness))),
	}
	if src.DoubleSided {
		opts = append(opts, material.WithStateBlock(pipeline.NewStateBlock(pipeline.WithCullFaces(gpu.CullNone))))
	}

	switch src.AlphaMode {
	case "", gltfAlphaModeOpaque:
	case gltfAlphaModeBlend:
		opts = append(opts, material.WithBlendMode(material.BlendTranslucent))
	case gltfAlphaModeMask:
		common.Logger().Debug("glTF alpha mask drawn opaque", zap.String("material", name))
	default:
		common.Logger().Warn("unknown glTF alpha mode", zap.String("material", name), zap.String("alphaMode", src.AlphaMode))
	}

	m, err := renderer.NewForwardMaterial(e.language, opts...)
	if err != nil {
		return nil, fmt.Errorf("material %q: %w", name, err)
	}
	return m, nil
}

func (e *gltfMaterialExtractorImpl) ExtractAllMaterials() ([]material.Material, error) {
	doc := e.parser.Document()
	out := make([]material.Material, len(doc.Materials))
	for i := range doc.Materials {
		m, err := e.ExtractMaterial(i)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

func (e *gltfMaterialExtractorImpl) DefaultMaterial() (material.Material, error) {
	return renderer.NewForwardMaterial(e.language,
		material.WithName("default"),
		material.WithUniform("shininess", gpu.FloatValue(roughnessToShininess(1))),
	)
}

// roughnessToShininess converts a perceptual roughness to a Blinn-Phong exponent using
// alpha = roughness^2 and shininess = 2/alpha^2 - 2.
func roughnessToShininess(roughness float32) float32 {
	alpha := common.Clamp(roughness, 0.01, 1)
	alpha *= alpha
	return common.Clamp(2/(alpha*alpha)-2, minShininess, maxShininess)
}
