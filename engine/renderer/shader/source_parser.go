package shader

import (
	"regexp"
	"strings"
)

var (
	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// wgslMarkerRegex matches constructs only WGSL has
	wgslMarkerRegex = regexp.MustCompile(`@(vertex|fragment|group|binding|location)\b|\bfn\s+\w+\s*\(`)
)

// detectLanguage guesses the shading language from the source.
func detectLanguage(source string) Language {
	if wgslMarkerRegex.MatchString(stripComments(source)) {
		return LanguageWGSL
	}
	return LanguageGLSL
}

// parseEntryPoint returns the entry point of a stage. GLSL stages always enter at main.
//
// Parameters:
//   - source: the processed source
//   - shaderType: the stage to look for
//   - lang: the shading language
//
// Returns:
//   - string: the entry point name, or "" if a WGSL source has none for the stage
func parseEntryPoint(source string, shaderType ShaderType, lang Language) string {
	if lang == LanguageGLSL {
		return "main"
	}
	re := fragmentEntryRegex
	if shaderType == ShaderTypeVertex {
		re = vertexEntryRegex
	}
	if match := re.FindStringSubmatch(stripComments(source)); match != nil {
		return match[1]
	}
	return ""
}

// stripComments removes // and /* */ comments. Block comments nest as in WGSL.
func stripComments(source string) string {
	return stripLineComments(stripBlockComments(source))
}

func stripLineComments(source string) string {
	var sb strings.Builder
	for line := range strings.SplitSeq(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func stripBlockComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			if source[i] == '/' && source[i+1] == '*' {
				depth++
				i++
				continue
			}
			if source[i] == '*' && source[i+1] == '/' && depth > 0 {
				depth--
				i++
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}
