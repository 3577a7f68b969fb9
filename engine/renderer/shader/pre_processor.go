// pre_processor.go implements the shader pre-processor. It expands @oxy:include annotations
// from a snippet registry, collects @oxy:uniform declarations and, for WGSL stages, replaces
// @oxy:uniforms with the generated uniform struct and texture bindings.
package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
)

// maxIncludeDepth bounds nested includes so a snippet including itself fails instead of looping.
const maxIncludeDepth = 8

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// snippets maps include names to their source.
	snippets map[string]string

	// uniforms accumulates the declarations of the most recent Process call, in source order.
	uniforms []gpu.UniformDecl
}

// PreProcessor rewrites annotated shader source into source a backend can compile, collecting
// the stage's uniform declarations on the way.
type PreProcessor interface {
	// Register adds or replaces an include snippet.
	//
	// Parameters:
	//   - name: the name used by //@oxy:include
	//   - source: the snippet text, which may itself contain annotations
	Register(name, source string)

	// Process expands includes, collects uniform declarations and, for WGSL, generates the
	// declarations requested by //@oxy:uniforms. The declaration list is reset on each call.
	//
	// Parameters:
	//   - source: the annotated source
	//   - stage: the stage the source is compiled for
	//   - lang: the shading language of the source
	//
	// Returns:
	//   - string: the processed source
	//   - error: a malformed annotation, an unknown include, conflicting declarations, or
	//     //@oxy:uniforms in a GLSL source
	Process(source string, stage ShaderType, lang Language) (string, error)

	// Uniforms returns the declarations collected by the last Process call.
	//
	// Returns:
	//   - []gpu.UniformDecl: the declarations in source order
	Uniforms() []gpu.UniformDecl
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with an empty snippet registry.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		snippets: make(map[string]string),
	}
}

func (p *preProcessor) Register(name, source string) {
	p.snippets[name] = source
}

func (p *preProcessor) Uniforms() []gpu.UniformDecl {
	return p.uniforms
}

func (p *preProcessor) Process(source string, stage ShaderType, lang Language) (string, error) {
	p.uniforms = nil

	lines, err := p.expand(source, 0)
	if err != nil {
		return "", err
	}

	seen := make(map[string]gpu.UniformDecl)
	var generate []int
	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			continue
		}
		switch a.Type {
		case AnnotationTypeUniform:
			d := *a.Uniform
			if prev, ok := seen[d.Name]; ok {
				if prev != d {
					return "", fmt.Errorf("line %d: uniform %q redeclared with a different type", i+1, d.Name)
				}
				continue
			}
			seen[d.Name] = d
			p.uniforms = append(p.uniforms, d)
		case annotationTypeUniforms:
			if lang != LanguageWGSL {
				return "", fmt.Errorf("line %d: @oxy uniforms is only supported in WGSL sources", i+1)
			}
			generate = append(generate, i)
		}
	}

	if len(generate) > 0 {
		decl := wgslDeclarations(p.uniforms, stage)
		for _, i := range generate {
			lines[i] = decl
		}
	}
	return strings.Join(lines, "\n"), nil
}

// expand returns source split into lines with every include replaced by its snippet.
func (p *preProcessor) expand(source string, depth int) ([]string, error) {
	if depth > maxIncludeDepth {
		return nil, fmt.Errorf("includes nested deeper than %d", maxIncludeDepth)
	}
	in := strings.Split(source, "\n")
	out := make([]string, 0, len(in))
	for i, line := range in {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return nil, err
		}
		if a == nil || a.Type != annotationTypeInclude {
			out = append(out, line)
			continue
		}
		snippet, ok := p.snippets[a.Args[0]]
		if !ok {
			return nil, fmt.Errorf("line %d: unknown @oxy include %q", i+1, a.Args[0])
		}
		nested, err := p.expand(snippet, depth+1)
		if err != nil {
			return nil, fmt.Errorf("include %q: %w", a.Args[0], err)
		}
		out = append(out, nested...)
	}
	return out, nil
}

// wgslDeclarations generates the uniform struct and texture bindings for a stage, matching
// the placement gpu.NewUniformLayout computes for the same declarations.
func wgslDeclarations(decls []gpu.UniformDecl, stage ShaderType) string {
	layout := gpu.NewUniformLayout(decls)

	structName, binding, textureGroup := "FragmentUniforms", 1, gpu.FragmentTextureGroup
	if stage == ShaderTypeVertex {
		structName, binding, textureGroup = "VertexUniforms", 0, gpu.VertexTextureGroup
	}

	var sb strings.Builder
	if len(layout.Fields) > 0 {
		fmt.Fprintf(&sb, "struct %s {\n", structName)
		for _, f := range layout.Fields {
			fmt.Fprintf(&sb, "    %s: %s,\n", gpu.FieldIdent(f.Decl.Name), f.WGSLType())
		}
		sb.WriteString("}\n")
		fmt.Fprintf(&sb, "@group(%d) @binding(%d) var<uniform> u: %s;\n", gpu.UniformGroup, binding, structName)
	}
	for i, t := range layout.Textures {
		texType, samplerType := "texture_2d<f32>", "sampler"
		if t.Shadow {
			texType, samplerType = "texture_depth_2d", "sampler_comparison"
		}
		ident := gpu.FieldIdent(t.Name)
		fmt.Fprintf(&sb, "@group(%d) @binding(%d) var %s: %s;\n", textureGroup, 2*i, ident, texType)
		fmt.Fprintf(&sb, "@group(%d) @binding(%d) var %s_sampler: %s;\n", textureGroup, 2*i+1, ident, samplerType)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
