package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// MaxTextureUnits is the number of texture units a single draw may claim.
const MaxTextureUnits = 16

// Context tracks what the device currently has bound and configured, so repeated state can be
// skipped. One Context exists per renderer and every state change for that device goes
// through it. It is not safe for concurrent use; like the device, it belongs to the render thread.
type Context struct {
	device gpu.Device

	state       StateBlock
	stateSynced bool

	colorWrite       bool
	colorWriteSynced bool

	viewport       gpu.Viewport
	viewportSynced bool

	clearColor       mgl32.Vec4
	clearColorSynced bool

	clearDepth       float32
	clearDepthSynced bool

	program gpu.Program
	target  gpu.RenderTarget

	// bound is what each device unit holds; inUse marks the units claimed since the last
	// ResetTextureUnits.
	bound []gpu.Texture
	inUse []bool
}

var _ gpu.TargetAllocator = &Context{}

// ContextBuilderOption is a functional option used to configure a Context during construction.
type ContextBuilderOption func(*Context)

// WithTextureUnits limits the number of texture units the context hands out. Values outside
// [1, MaxTextureUnits] are clamped.
//
// Parameters:
//   - n: the number of usable units
//
// Returns:
//   - ContextBuilderOption: a function that sets the unit count on the context
func WithTextureUnits(n int) ContextBuilderOption {
	return func(c *Context) {
		n = common.Clamp(n, 1, MaxTextureUnits)
		c.bound = make([]gpu.Texture, n)
		c.inUse = make([]bool, n)
	}
}

// NewContext creates a Context driving device. Nothing is assumed about the device's initial
// state: the first call of each kind is always issued.
//
// Parameters:
//   - device: the device to drive
//   - options: variadic list of ContextBuilderOption functions to configure the context
//
// Returns:
//   - *Context: the new context
func NewContext(device gpu.Device, options ...ContextBuilderOption) *Context {
	c := &Context{
		device: device,
		bound:  make([]gpu.Texture, MaxTextureUnits),
		inUse:  make([]bool, MaxTextureUnits),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Device returns the driven device.
func (c *Context) Device() gpu.Device {
	return c.device
}

// State returns the state block the device currently has.
func (c *Context) State() StateBlock {
	return c.state
}

// Invalidate forgets every baseline so the next call of each kind reaches the device. Use it
// after something outside the context touched the device.
func (c *Context) Invalidate() {
	c.stateSynced = false
	c.colorWriteSynced = false
	c.viewportSynced = false
	c.clearColorSynced = false
	c.clearDepthSynced = false
	c.program = nil
	c.target = nil
	for i := range c.bound {
		c.bound[i] = nil
		c.inUse[i] = false
	}
}

func (c *Context) applyState(s StateBlock, force bool) {
	force = force || !c.stateSynced
	cur := c.state
	d := c.device

	if force || s.depthWrite != cur.depthWrite {
		d.SetDepthWrite(s.depthWrite)
	}
	if force || s.depthFunc != cur.depthFunc {
		d.SetDepthFunc(s.depthFunc)
	}
	if force || s.cullFaces != cur.cullFaces {
		d.SetCullFaces(s.cullFaces)
	}
	if force || s.frontFace != cur.frontFace {
		d.SetFrontFace(s.frontFace)
	}
	if force || s.blendEnabled != cur.blendEnabled {
		d.SetBlendEnabled(s.blendEnabled)
	}

	// Factors and equation are only meaningful while blending; the baseline keeps the last
	// values actually sent so a later enable compares against the truth.
	if s.blendEnabled || force {
		if force || s.blendSrc != cur.blendSrc || s.blendDst != cur.blendDst {
			d.SetBlendFactors(s.blendSrc, s.blendDst)
			cur.blendSrc, cur.blendDst = s.blendSrc, s.blendDst
		}
		if force || s.blendEquation != cur.blendEquation {
			d.SetBlendEquation(s.blendEquation)
			cur.blendEquation = s.blendEquation
		}
	}

	cur.depthWrite = s.depthWrite
	cur.depthFunc = s.depthFunc
	cur.cullFaces = s.cullFaces
	cur.frontFace = s.frontFace
	cur.blendEnabled = s.blendEnabled
	c.state = cur
	c.stateSynced = true
}

// SetColorWrite masks or unmasks color writes.
func (c *Context) SetColorWrite(enabled bool) {
	if c.colorWriteSynced && c.colorWrite == enabled {
		return
	}
	c.device.SetColorWrite(enabled)
	c.colorWrite = enabled
	c.colorWriteSynced = true
}

// SetViewport sets the drawing rectangle.
func (c *Context) SetViewport(v gpu.Viewport) {
	if c.viewportSynced && c.viewport == v {
		return
	}
	common.Logger().Debug("viewport changed",
		zap.Int32("x", v.X), zap.Int32("y", v.Y), zap.Int32("width", v.Width), zap.Int32("height", v.Height))
	c.device.SetViewport(v)
	c.viewport = v
	c.viewportSynced = true
}

// Viewport returns the last viewport set through the context.
func (c *Context) Viewport() gpu.Viewport {
	return c.viewport
}

// SetClearColor sets the color used by Clear.
func (c *Context) SetClearColor(col mgl32.Vec4) {
	if c.clearColorSynced && c.clearColor == col {
		return
	}
	c.device.SetClearColor(col)
	c.clearColor = col
	c.clearColorSynced = true
}

// SetClearDepth sets the depth used by Clear.
func (c *Context) SetClearDepth(depth float32) {
	if c.clearDepthSynced && c.clearDepth == depth {
		return
	}
	c.device.SetClearDepth(depth)
	c.clearDepth = depth
	c.clearDepthSynced = true
}

// Clear clears the selected buffers of the bound target. Clearing depth requires depth writes,
// so the state baseline is updated if Clear had to turn them on.
func (c *Context) Clear(color, depth, stencil bool) {
	if depth && (!c.stateSynced || !c.state.depthWrite) {
		s := c.state
		if !c.stateSynced {
			s = DefaultStateBlock()
		}
		s.depthWrite = true
		c.applyState(s, false)
	}
	if color && (!c.colorWriteSynced || !c.colorWrite) {
		c.SetColorWrite(true)
	}
	c.device.Clear(color, depth, stencil)
}

// BindRenderTarget redirects drawing to t, or to the default framebuffer when t is nil.
// Binding the already bound target is a no-op.
//
// Parameters:
//   - t: the target to draw into, or nil
//
// Returns:
//   - error: wraps gpu.ErrFramebufferIncomplete if the target cannot be drawn to
func (c *Context) BindRenderTarget(t gpu.RenderTarget) error {
	if t == c.target && t != nil {
		return nil
	}
	err := c.device.BindRenderTarget(t)
	c.target = t
	if err != nil {
		return fmt.Errorf("bind render target: %w", err)
	}
	return nil
}

// RenderTarget returns the bound target, nil for the default framebuffer.
func (c *Context) RenderTarget() gpu.RenderTarget {
	return c.target
}

// UseProgram binds p for subsequent uniforms and draws.
func (c *Context) UseProgram(p gpu.Program) {
	if p == c.program {
		return
	}
	c.device.UseProgram(p)
	c.program = p
}

// Program returns the bound program.
func (c *Context) Program() gpu.Program {
	return c.program
}

// ResetTextureUnits makes every texture unit available to the next draw. Device bindings are
// kept, so a texture claimed again reuses the unit that already holds it.
func (c *Context) ResetTextureUnits() {
	for i := range c.inUse {
		c.inUse[i] = false
	}
}

// BindTexture claims a unit for t and returns its index. A unit already holding t is reused
// without touching the device, so a texture claimed twice by the same draw shares one unit.
// When every unit is taken an error is logged and -1 returned.
//
// Parameters:
//   - t: the texture to bind
//
// Returns:
//   - int: the unit holding t, or -1
func (c *Context) BindTexture(t gpu.Texture) int {
	free := -1
	for i, b := range c.bound {
		if b == t {
			c.inUse[i] = true
			return i
		}
		if free < 0 && !c.inUse[i] {
			free = i
		}
	}
	if free < 0 {
		common.Logger().Error("out of texture units", zap.Int("units", len(c.bound)))
		return -1
	}
	c.device.BindTexture(free, t)
	c.bound[free] = t
	c.inUse[free] = true
	return free
}

// SetUniform sets a uniform on the bound program. Texture values are bound to a unit first and
// sent as the unit index; if no unit is free the uniform is skipped.
//
// Parameters:
//   - name: the uniform name
//   - v: the value
func (c *Context) SetUniform(name string, v gpu.Value) {
	if c.program == nil {
		common.Logger().Error("uniform set with no program bound", zap.String("uniform", name))
		return
	}
	if v.Kind == gpu.KindTexture {
		if v.Texture == nil {
			return
		}
		unit := c.BindTexture(v.Texture)
		if unit < 0 {
			return
		}
		v = gpu.IntValue(int32(unit))
	}
	c.device.SetUniform(c.program, name, v)
}

// CreateDepthTarget allocates a depth-only target on the device. Allocation may disturb the
// device's texture and target bindings, so those baselines are dropped.
func (c *Context) CreateDepthTarget(width, height int) (gpu.RenderTarget, error) {
	defer c.forgetBindings()
	return c.device.CreateDepthTarget(width, height)
}

// CreateColorTarget allocates a color target with its own depth buffer on the device.
func (c *Context) CreateColorTarget(width, height int) (gpu.RenderTarget, error) {
	defer c.forgetBindings()
	return c.device.CreateColorTarget(width, height)
}

// ReleaseRenderTarget unbinds t and its textures from the context and frees it on the device.
func (c *Context) ReleaseRenderTarget(t gpu.RenderTarget) {
	if t == nil {
		return
	}
	if c.target == t {
		c.target = nil
	}
	for i, b := range c.bound {
		if b != nil && (b == t.DepthTexture() || b == t.ColorTexture()) {
			c.bound[i] = nil
			c.inUse[i] = false
		}
	}
	c.device.ReleaseRenderTarget(t)
}

// ReleaseProgram frees p on the device, unbinding it first if it is current.
func (c *Context) ReleaseProgram(p gpu.Program) {
	if p == nil {
		return
	}
	if c.program == p {
		c.program = nil
	}
	c.device.ReleaseProgram(p)
}

func (c *Context) forgetBindings() {
	c.target = nil
	for i := range c.bound {
		c.bound[i] = nil
	}
}

// Draw issues a draw of m with the current program and state.
func (c *Context) Draw(m gpu.Mesh) {
	c.device.Draw(m)
}
