package material

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/shader"
)

// Predefined pass indices. Further passes are added with RegisterPass.
const (
	AmbientPass   = 0
	LightPass     = 1
	ShadowMapPass = 2
)

var (
	passMu    sync.RWMutex
	passNames = []string{"ambient", "light", "shadowmap"}
	passIndex = map[string]int{"ambient": AmbientPass, "light": LightPass, "shadowmap": ShadowMapPass}
)

// RegisterPass returns the index for the named pass, allocating the next free index the first
// time a name is seen.
//
// Parameters:
//   - name: the pass name
//
// Returns:
//   - int: the pass index
func RegisterPass(name string) int {
	passMu.Lock()
	defer passMu.Unlock()
	if i, ok := passIndex[name]; ok {
		return i
	}
	i := len(passNames)
	passNames = append(passNames, name)
	passIndex[name] = i
	return i
}

// PassIndex looks up a registered pass by name.
func PassIndex(name string) (int, bool) {
	passMu.RLock()
	defer passMu.RUnlock()
	i, ok := passIndex[name]
	return i, ok
}

// PassName returns the name a pass index was registered with, or "" if it is unknown.
func PassName(index int) string {
	passMu.RLock()
	defer passMu.RUnlock()
	if index < 0 || index >= len(passNames) {
		return ""
	}
	return passNames[index]
}

// Pass is one way of drawing a material. Every field is optional; an unset field inherits the
// material default.
type Pass struct {
	vertex   shader.Shader
	fragment shader.Shader
	state    *pipeline.StateBlock
}

// PassBuilderOption is a functional option used to configure a Pass during construction.
type PassBuilderOption func(*Pass)

// NewPass creates a Pass. With no options the pass draws exactly like the material defaults.
//
// Parameters:
//   - options: variadic list of PassBuilderOption functions to configure the pass
//
// Returns:
//   - Pass: the configured pass
func NewPass(options ...PassBuilderOption) Pass {
	var p Pass
	for _, opt := range options {
		opt(&p)
	}
	return p
}

// WithPassVertexShader overrides the vertex shader for the pass.
func WithPassVertexShader(s shader.Shader) PassBuilderOption {
	return func(p *Pass) {
		p.vertex = s
	}
}

// WithPassFragmentShader overrides the fragment shader for the pass.
func WithPassFragmentShader(s shader.Shader) PassBuilderOption {
	return func(p *Pass) {
		p.fragment = s
	}
}

// WithPassStateBlock overrides the state block for the pass.
func WithPassStateBlock(s pipeline.StateBlock) PassBuilderOption {
	return func(p *Pass) {
		p.state = &s
	}
}

// VertexShader returns the pass's vertex shader override, or nil.
func (p Pass) VertexShader() shader.Shader { return p.vertex }

// FragmentShader returns the pass's fragment shader override, or nil.
func (p Pass) FragmentShader() shader.Shader { return p.fragment }

// StateBlock returns the pass's state block override.
func (p Pass) StateBlock() (pipeline.StateBlock, bool) {
	if p.state == nil {
		return pipeline.StateBlock{}, false
	}
	return *p.state, true
}
