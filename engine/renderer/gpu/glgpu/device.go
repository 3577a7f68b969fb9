// Package glgpu implements gpu.Device on OpenGL 4.1 core. Every method must be called on the
// thread that owns the current GL context.
package glgpu

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

type program struct {
	id        uint32
	label     string
	locations map[string]int32
}

func (p *program) Label() string { return p.label }

func (p *program) location(name string) int32 {
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
	p.locations[name] = loc
	return loc
}

type texture struct {
	id            uint32
	width, height int
}

func (t *texture) Size() (int, int) { return t.width, t.height }

type renderTarget struct {
	fbo   uint32
	depth *texture
	color *texture
}

func (t *renderTarget) Size() (int, int)          { return t.depth.Size() }
func (t *renderTarget) DepthTexture() gpu.Texture { return t.depth }

func (t *renderTarget) ColorTexture() gpu.Texture {
	if t.color == nil {
		return nil
	}
	return t.color
}

type mesh struct {
	vao, vbo, ebo uint32
	primitive     gpu.Primitive
	vertexCount   int
	indexCount    int
}

func (m *mesh) Primitive() gpu.Primitive { return m.primitive }
func (m *mesh) VertexCount() int         { return m.vertexCount }
func (m *mesh) IndexCount() int          { return m.indexCount }

// Device is the OpenGL implementation of gpu.Device.
type Device struct {
	swap func()
}

var _ gpu.Device = &Device{}

// DeviceBuilderOption is a functional option used to configure a Device during construction.
type DeviceBuilderOption func(*Device)

// WithSwapFunc sets the function EndFrame calls to present the default framebuffer, normally
// the window's SwapBuffers.
//
// Parameters:
//   - swap: the present function
//
// Returns:
//   - DeviceBuilderOption: a function that sets the present function on the device
func WithSwapFunc(swap func()) DeviceBuilderOption {
	return func(d *Device) {
		d.swap = swap
	}
}

// NewDevice loads the GL entry points for the current context.
//
// Parameters:
//   - options: variadic list of DeviceBuilderOption functions to configure the device
//
// Returns:
//   - *Device: the device
//   - error: the entry points could not be loaded
func NewDevice(options ...DeviceBuilderOption) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gl init: %w", err)
	}
	d := &Device{}
	for _, opt := range options {
		opt(d)
	}
	common.Logger().Info("opengl device ready",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))
	return d, nil
}

func (d *Device) SetDepthWrite(enabled bool) {
	gl.DepthMask(enabled)
}

func (d *Device) SetDepthFunc(fn gpu.DepthFunc) {
	if fn == gpu.DepthDisabled {
		gl.Disable(gl.DEPTH_TEST)
		return
	}
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(glDepthFunc(fn))
}

func (d *Device) SetCullFaces(faces gpu.CullFaces) {
	if faces == gpu.CullNone {
		gl.Disable(gl.CULL_FACE)
		return
	}
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(glCullFace(faces))
}

func (d *Device) SetFrontFace(face gpu.FrontFace) {
	gl.FrontFace(glFrontFace(face))
}

func (d *Device) SetBlendEnabled(enabled bool) {
	if enabled {
		gl.Enable(gl.BLEND)
	} else {
		gl.Disable(gl.BLEND)
	}
}

func (d *Device) SetBlendFactors(src, dst gpu.BlendFactor) {
	gl.BlendFunc(glBlendFactor(src), glBlendFactor(dst))
}

func (d *Device) SetBlendEquation(eq gpu.BlendEquation) {
	gl.BlendEquation(glBlendEquation(eq))
}

func (d *Device) SetColorWrite(enabled bool) {
	gl.ColorMask(enabled, enabled, enabled, enabled)
}

func (d *Device) SetViewport(v gpu.Viewport) {
	gl.Viewport(v.X, v.Y, v.Width, v.Height)
}

func (d *Device) SetClearColor(c mgl32.Vec4) {
	gl.ClearColor(c[0], c[1], c[2], c[3])
}

func (d *Device) SetClearDepth(depth float32) {
	gl.ClearDepth(float64(depth))
}

func (d *Device) Clear(color, depth, stencil bool) {
	if mask := clearMask(color, depth, stencil); mask != 0 {
		gl.Clear(mask)
	}
}

func (d *Device) CreateProgram(src gpu.ProgramSource) (gpu.Program, error) {
	vert, err := compileShader(src.Vertex.Source, gl.VERTEX_SHADER)
	if err != nil {
		return nil, fmt.Errorf("program %s: vertex: %w", src.Label, err)
	}
	defer gl.DeleteShader(vert)
	frag, err := compileShader(src.Fragment.Source, gl.FRAGMENT_SHADER)
	if err != nil {
		return nil, fmt.Errorf("program %s: fragment: %w", src.Label, err)
	}
	defer gl.DeleteShader(frag)

	id := gl.CreateProgram()
	gl.AttachShader(id, vert)
	gl.AttachShader(id, frag)
	gl.LinkProgram(id)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var length int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &length)
		log := strings.Repeat("\x00", int(length+1))
		gl.GetProgramInfoLog(id, length, nil, gl.Str(log))
		gl.DeleteProgram(id)
		return nil, fmt.Errorf("program %s: link: %s", src.Label, strings.TrimRight(log, "\x00"))
	}
	return &program{id: id, label: src.Label, locations: make(map[string]int32)}, nil
}

func compileShader(source string, kind uint32) (uint32, error) {
	shader := gl.CreateShader(kind)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var length int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &length)
		log := strings.Repeat("\x00", int(length+1))
		gl.GetShaderInfoLog(shader, length, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile: %s", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func (d *Device) ReleaseProgram(p gpu.Program) {
	if prog, ok := p.(*program); ok && prog != nil && prog.id != 0 {
		gl.DeleteProgram(prog.id)
		prog.id = 0
	}
}

func (d *Device) UseProgram(p gpu.Program) {
	if p == nil {
		gl.UseProgram(0)
		return
	}
	gl.UseProgram(p.(*program).id)
}

func (d *Device) SetUniform(p gpu.Program, name string, v gpu.Value) {
	prog, ok := p.(*program)
	if !ok || prog == nil {
		return
	}
	loc := prog.location(name)
	if loc < 0 {
		return
	}
	count := int32(max(v.Count, 1))
	switch v.Kind {
	case gpu.KindInt, gpu.KindTexture:
		gl.ProgramUniform1i(prog.id, loc, v.Int)
		return
	}
	if len(v.Floats) == 0 {
		return
	}
	ptr := &v.Floats[0]
	switch v.Kind {
	case gpu.KindFloat:
		gl.ProgramUniform1fv(prog.id, loc, count, ptr)
	case gpu.KindVec2:
		gl.ProgramUniform2fv(prog.id, loc, count, ptr)
	case gpu.KindVec3:
		gl.ProgramUniform3fv(prog.id, loc, count, ptr)
	case gpu.KindVec4:
		gl.ProgramUniform4fv(prog.id, loc, count, ptr)
	case gpu.KindMat3:
		gl.ProgramUniformMatrix3fv(prog.id, loc, count, false, ptr)
	case gpu.KindMat4:
		gl.ProgramUniformMatrix4fv(prog.id, loc, count, false, ptr)
	}
}

func (d *Device) BindTexture(unit int, t gpu.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	if tex, ok := t.(*texture); ok && tex != nil {
		gl.BindTexture(gl.TEXTURE_2D, tex.id)
		return
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// boundTexture and boundFramebuffer read the current bindings so resource creation can put them
// back; pipeline.Context tracks what is bound and must not be contradicted.
func boundTexture() uint32 {
	var id int32
	gl.GetIntegerv(gl.TEXTURE_BINDING_2D, &id)
	return uint32(id)
}

func boundFramebuffer() uint32 {
	var id int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &id)
	return uint32(id)
}

// newTexture allocates a texture and runs configure while it is bound. The previous binding
// of the active unit is restored afterwards.
func newTexture(width, height int, internalFormat int32, format, xtype uint32, configure func()) *texture {
	prev := boundTexture()
	t := &texture{width: width, height: height}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internalFormat, int32(width), int32(height), 0, format, xtype, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	if configure != nil {
		configure()
	}
	gl.BindTexture(gl.TEXTURE_2D, prev)
	return t
}

func (d *Device) CreateDepthTarget(width, height int) (gpu.RenderTarget, error) {
	depth := newTexture(width, height, gl.DEPTH_COMPONENT24, gl.DEPTH_COMPONENT, gl.FLOAT, func() {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_FUNC, gl.LEQUAL)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
		border := [4]float32{1, 1, 1, 1}
		gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &border[0])
	})

	t := &renderTarget{depth: depth}
	prev := boundFramebuffer()
	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, depth.id, 0)
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, prev)
	if status != gl.FRAMEBUFFER_COMPLETE {
		d.ReleaseRenderTarget(t)
		return nil, fmt.Errorf("depth target %dx%d: status 0x%x: %w", width, height, status, gpu.ErrFramebufferIncomplete)
	}
	return t, nil
}

func (d *Device) CreateColorTarget(width, height int) (gpu.RenderTarget, error) {
	color := newTexture(width, height, gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE, func() {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	})
	depth := newTexture(width, height, gl.DEPTH_COMPONENT24, gl.DEPTH_COMPONENT, gl.FLOAT, nil)

	t := &renderTarget{depth: depth, color: color}
	prev := boundFramebuffer()
	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, color.id, 0)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, depth.id, 0)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, prev)
	if status != gl.FRAMEBUFFER_COMPLETE {
		d.ReleaseRenderTarget(t)
		return nil, fmt.Errorf("color target %dx%d: status 0x%x: %w", width, height, status, gpu.ErrFramebufferIncomplete)
	}
	return t, nil
}

func (d *Device) ReleaseRenderTarget(t gpu.RenderTarget) {
	rt, ok := t.(*renderTarget)
	if !ok || rt == nil {
		return
	}
	if rt.fbo != 0 {
		gl.DeleteFramebuffers(1, &rt.fbo)
		rt.fbo = 0
	}
	for _, tex := range []*texture{rt.depth, rt.color} {
		if tex != nil && tex.id != 0 {
			gl.DeleteTextures(1, &tex.id)
			tex.id = 0
		}
	}
}

func (d *Device) BindRenderTarget(t gpu.RenderTarget) error {
	rt, ok := t.(*renderTarget)
	if !ok || rt == nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return nil
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, rt.fbo)
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("status 0x%x: %w", status, gpu.ErrFramebufferIncomplete)
	}
	return nil
}

func (d *Device) CreateMesh(data gpu.MeshData) (gpu.Mesh, error) {
	if len(data.Positions) == 0 {
		return nil, fmt.Errorf("mesh %q has no vertices", data.Label)
	}
	m := &mesh{
		primitive:   data.Primitive,
		vertexCount: len(data.Positions),
		indexCount:  len(data.Indices),
	}
	vertices := data.Interleaved()

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	// position, normal, uv
	offsets := [3]int{0, 12, 24}
	sizes := [3]int32{3, 3, 2}
	for i := range offsets {
		gl.EnableVertexAttribArray(uint32(i))
		gl.VertexAttribPointerWithOffset(uint32(i), sizes[i], gl.FLOAT, false, gpu.VertexStride, uintptr(offsets[i]))
	}

	if m.indexCount > 0 {
		gl.GenBuffers(1, &m.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data.Indices)*4, gl.Ptr(data.Indices), gl.STATIC_DRAW)
	}
	gl.BindVertexArray(0)
	return m, nil
}

func (d *Device) Draw(m gpu.Mesh) {
	gm, ok := m.(*mesh)
	if !ok || gm == nil {
		return
	}
	gl.BindVertexArray(gm.vao)
	if gm.indexCount > 0 {
		gl.DrawElements(glPrimitive(gm.primitive), int32(gm.indexCount), gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(glPrimitive(gm.primitive), 0, int32(gm.vertexCount))
	}
	gl.BindVertexArray(0)
}

func (d *Device) BeginFrame() error {
	return nil
}

func (d *Device) EndFrame() {
	if d.swap != nil {
		d.swap()
	}
}
