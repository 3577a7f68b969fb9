// annotations.go defines the @oxy: annotations understood by the shader pre-processor.
// Annotations are single-line comments, so a source that is never pre-processed still
// compiles. They drive snippet injection, uniform declaration and, for WGSL, generation
// of the uniform buffer struct and texture bindings an explicit-layout backend expects.
package shader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
)

// annotationPrefix marks an annotation inside a comment line.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a source line.
type AnnotationType string

const (
	// annotationTypeInclude injects a registered snippet at the annotation site.
	//
	// Syntax: //@oxy:include <name>
	//
	// Example: //@oxy:include light
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeUniform declares a uniform the stage reads. It produces no output; the
	// declaration is collected so backends can lay out and validate uniform values.
	//
	// Syntax: //@oxy:uniform <kind> <name> [count]
	//
	// Kinds: int, bool, float, vec2, vec3, vec4, mat3, mat4, texture, shadow.
	//
	// Example: //@oxy:uniform mat4 light.shadowMatrix 6
	AnnotationTypeUniform AnnotationType = "uniform"

	// annotationTypeUniforms is replaced with WGSL declarations for every uniform the stage
	// declared: one var<uniform> struct plus a texture and sampler binding per texture.
	//
	// Syntax: //@oxy:uniforms
	annotationTypeUniforms AnnotationType = "uniforms"
)

// Annotation is one parsed @oxy: annotation.
type Annotation struct {
	Type AnnotationType

	// Args holds the raw arguments: the snippet name for include, kind/name/count for uniform.
	Args []string

	Line int

	// Uniform is set for AnnotationTypeUniform.
	Uniform *gpu.UniformDecl
}

var uniformKinds = map[string]gpu.UniformDecl{
	"int":     {Kind: gpu.KindInt},
	"bool":    {Kind: gpu.KindInt},
	"float":   {Kind: gpu.KindFloat},
	"vec2":    {Kind: gpu.KindVec2},
	"vec3":    {Kind: gpu.KindVec3},
	"vec4":    {Kind: gpu.KindVec4},
	"mat3":    {Kind: gpu.KindMat3},
	"mat4":    {Kind: gpu.KindMat4},
	"texture": {Kind: gpu.KindTexture},
	"shadow":  {Kind: gpu.KindTexture, Shadow: true},
}

// parseAnnotation parses one source line. Lines without the annotation prefix return nil
// and no error.
//
// Parameters:
//   - line: the raw source line
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		return &Annotation{Type: annotationTypeInclude, Args: args[1:], Line: lineNum}, nil
	case AnnotationTypeUniform:
		if len(args) < 3 || len(args) > 4 {
			return nil, fmt.Errorf("line %d: @oxy uniform annotation requires a kind, a name and an optional count", lineNum)
		}
		decl, ok := uniformKinds[args[1]]
		if !ok {
			return nil, fmt.Errorf("line %d: unknown uniform kind %q in @oxy uniform annotation", lineNum, args[1])
		}
		decl.Name = args[2]
		decl.Count = 1
		if len(args) == 4 {
			n, err := strconv.Atoi(args[3])
			if err != nil || n < 1 {
				return nil, fmt.Errorf("line %d: invalid count %q in @oxy uniform annotation", lineNum, args[3])
			}
			if decl.Kind == gpu.KindTexture && n > 1 {
				return nil, fmt.Errorf("line %d: texture uniforms cannot be arrays", lineNum)
			}
			decl.Count = n
		}
		return &Annotation{Type: AnnotationTypeUniform, Args: args[1:], Line: lineNum, Uniform: &decl}, nil
	case annotationTypeUniforms:
		if len(args) != 1 {
			return nil, fmt.Errorf("line %d: @oxy uniforms annotation takes no arguments", lineNum)
		}
		return &Annotation{Type: annotationTypeUniforms, Line: lineNum}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}
