package material

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/uniform"
	"go.uber.org/zap"
)

// ErrInvalidBlendMode is returned by Validate when a blend mode cannot be combined with lighting.
var ErrInvalidBlendMode = errors.New("blend mode cannot be used on a lit material")

// material is the implementation of the Material interface.
type material struct {
	name      string
	vertex    shader.Shader
	fragment  shader.Shader
	state     pipeline.StateBlock
	blendMode BlendMode
	passes    map[int]Pass
	uniforms  uniform.Block

	mu       sync.Mutex
	programs map[programKey]gpu.Program
	retired  map[programKey]gpu.Program
}

// programKey identifies one compiled shader permutation. Shaders are compared by handle, so a
// replaced shader misses the cache even when its source is unchanged.
type programKey struct {
	device   gpu.Device
	pass     int
	vertex   shader.Shader
	fragment shader.Shader
}

// Material describes how a surface is drawn: a set of passes indexed by pass number, each
// picking a shader pair and a state block, plus the parameters its shaders read.
//
// Passes inherit the material's default shaders and state block for anything they do not
// override. The blend mode setter owns the blend fields and depth write of the default state
// block.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BlendMode returns the last blend mode set.
	BlendMode() BlendMode

	// SetBlendMode rewrites the default state block's blend factors, blend equation, blend
	// enable and depth write from the blend mode table. Modes that cannot be lit are logged
	// when the material has a light pass.
	//
	// Parameters:
	//   - mode: the blend mode
	SetBlendMode(mode BlendMode)

	// StateBlock returns the default state block.
	StateBlock() pipeline.StateBlock

	// SetStateBlock replaces the default state block. The blend mode is not updated.
	SetStateBlock(s pipeline.StateBlock)

	// VertexShader returns the default vertex shader.
	VertexShader() shader.Shader

	// FragmentShader returns the default fragment shader.
	FragmentShader() shader.Shader

	// SetVertexShader replaces the default vertex shader.
	SetVertexShader(s shader.Shader)

	// SetFragmentShader replaces the default fragment shader.
	SetFragmentShader(s shader.Shader)

	// SetPass installs p at index, replacing any pass already there.
	//
	// Parameters:
	//   - index: the pass index, see RegisterPass
	//   - p: the pass
	SetPass(index int, p Pass)

	// RemovePass removes the pass at index.
	RemovePass(index int)

	// Pass returns the pass at index.
	//
	// Returns:
	//   - Pass: the pass
	//   - bool: false if the material has no such pass
	Pass(index int) (Pass, bool)

	// HasPass reports whether the material has a pass at index.
	HasPass(index int) bool

	// Passes returns the installed pass indices in ascending order.
	Passes() []int

	// Lit reports whether the material has a light pass.
	Lit() bool

	// PassStateBlock returns the state block drawing pass index uses: the pass override if set,
	// the default otherwise.
	PassStateBlock(index int) pipeline.StateBlock

	// PassShaders returns the vertex and fragment shader pass index uses.
	PassShaders(index int) (vertex, fragment shader.Shader)

	// Program returns the program for pass index on device, compiling it the first time the
	// pass's shader pair is seen. Compile failures are logged and cached as nil so they are
	// not retried every frame.
	//
	// Parameters:
	//   - device: the device to compile on
	//   - index: the pass index
	//
	// Returns:
	//   - gpu.Program: the program, or nil if the pass has no shaders or failed to compile
	Program(device gpu.Device, index int) gpu.Program

	// Uniforms returns the material parameters applied before each draw.
	Uniforms() uniform.Block

	// Validate reports configuration the renderer cannot honor.
	//
	// Returns:
	//   - error: wraps ErrInvalidBlendMode for Modulate or Screen on a lit material
	Validate() error
}

var _ Material = &material{}

// NewMaterial creates a Material with a Replace blend mode, the default state block and no
// passes, then applies options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: the new material
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		state:    pipeline.DefaultStateBlock(),
		passes:   make(map[int]Pass),
		programs: make(map[programKey]gpu.Program),
	}
	applyBlendMode(&m.state, BlendReplace)
	for _, opt := range options {
		opt(m)
	}
	if m.uniforms == nil {
		m.uniforms = uniform.NewBlock(uniform.WithLabel(m.name))
	}
	_ = m.Validate()
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BlendMode() BlendMode {
	return m.blendMode
}

func (m *material) SetBlendMode(mode BlendMode) {
	m.blendMode = mode
	applyBlendMode(&m.state, mode)
	_ = m.Validate()
}

func (m *material) StateBlock() pipeline.StateBlock {
	return m.state
}

func (m *material) SetStateBlock(s pipeline.StateBlock) {
	m.state = s
}

func (m *material) VertexShader() shader.Shader {
	return m.vertex
}

func (m *material) FragmentShader() shader.Shader {
	return m.fragment
}

func (m *material) SetVertexShader(s shader.Shader) {
	m.vertex = s
	m.pruneStale()
}

func (m *material) SetFragmentShader(s shader.Shader) {
	m.fragment = s
	m.pruneStale()
}

func (m *material) SetPass(index int, p Pass) {
	m.passes[index] = p
	m.pruneStale()
}

func (m *material) RemovePass(index int) {
	delete(m.passes, index)
	m.pruneStale()
}

func (m *material) Pass(index int) (Pass, bool) {
	p, ok := m.passes[index]
	return p, ok
}

func (m *material) HasPass(index int) bool {
	_, ok := m.passes[index]
	return ok
}

func (m *material) Passes() []int {
	out := make([]int, 0, len(m.passes))
	for i := range m.passes {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

func (m *material) Lit() bool {
	return m.HasPass(LightPass)
}

func (m *material) PassStateBlock(index int) pipeline.StateBlock {
	if p, ok := m.passes[index]; ok {
		if s, ok := p.StateBlock(); ok {
			return s
		}
	}
	return m.state
}

func (m *material) PassShaders(index int) (shader.Shader, shader.Shader) {
	vert, frag := m.vertex, m.fragment
	if p, ok := m.passes[index]; ok {
		if p.vertex != nil {
			vert = p.vertex
		}
		if p.fragment != nil {
			frag = p.fragment
		}
	}
	return vert, frag
}

func (m *material) Program(device gpu.Device, index int) gpu.Program {
	vert, frag := m.PassShaders(index)
	if vert == nil || frag == nil {
		return nil
	}
	key := programKey{device: device, pass: index, vertex: vert, fragment: frag}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseRetired(device)
	if p, ok := m.programs[key]; ok {
		return p
	}
	label := fmt.Sprintf("%s/%s", m.name, passLabel(index))
	p, err := device.CreateProgram(gpu.ProgramSource{
		Label:    label,
		Vertex:   vert.Stage(),
		Fragment: frag.Stage(),
	})
	if err != nil {
		common.Logger().Error("program build failed",
			zap.String("material", m.name), zap.Int("pass", index), zap.Error(err))
		p = nil
	}
	m.programs[key] = p
	return p
}

func (m *material) Uniforms() uniform.Block {
	return m.uniforms
}

func (m *material) Validate() error {
	if (m.blendMode == BlendModulate || m.blendMode == BlendScreen) && m.Lit() {
		common.Logger().Warn("blend mode is not supported on lit materials",
			zap.String("material", m.name), zap.Stringer("blendMode", m.blendMode))
		return fmt.Errorf("material %q: %s: %w", m.name, m.blendMode, ErrInvalidBlendMode)
	}
	return nil
}

// pruneStale drops cached programs whose shader pair no longer matches what their pass uses.
// Dropped programs are freed by the next Program call on their device, which runs on the
// render thread.
func (m *material) pruneStale() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, p := range m.programs {
		vert, frag := m.PassShaders(k.pass)
		if k.vertex != vert || k.fragment != frag {
			delete(m.programs, k)
			if p != nil {
				if m.retired == nil {
					m.retired = make(map[programKey]gpu.Program)
				}
				m.retired[k] = p
			}
		}
	}
}

func (m *material) releaseRetired(device gpu.Device) {
	for k, p := range m.retired {
		if k.device == device {
			device.ReleaseProgram(p)
			delete(m.retired, k)
		}
	}
}

func passLabel(index int) string {
	if name := PassName(index); name != "" {
		return name
	}
	return fmt.Sprintf("pass%d", index)
}
