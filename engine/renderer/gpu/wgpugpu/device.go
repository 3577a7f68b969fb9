// Package wgpugpu implements gpu.Device on WebGPU. Fixed-function state is folded into render
// pipelines cached per program, state and target format; uniforms are packed into per-draw
// slices of a frame arena bound with dynamic offsets.
package wgpugpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the display refresh rate.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause tearing.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing of the
// default framebuffer. Offscreen targets are always single sampled.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing.
	MSAA4x MSAASampleCount = 4
)

const (
	maxTextureUnits  = 16
	maxStageTextures = 8
	depthFormat      = wgpu.TextureFormatDepth32Float
	colorFormat      = wgpu.TextureFormatRGBA8Unorm

	vertexStage   = 0
	fragmentStage = 1
)

// stageUniforms is the CPU image of one stage's uniform block plus the texture unit each of
// its texture slots was set to.
type stageUniforms struct {
	layout *gpu.UniformLayout
	image  []byte
	units  []int32
}

func newStageUniforms(decls []gpu.UniformDecl) stageUniforms {
	l := gpu.NewUniformLayout(decls)
	s := stageUniforms{layout: l, units: make([]int32, len(l.Textures))}
	if len(l.Fields) > 0 {
		s.image = make([]byte, l.Size)
	}
	for i := range s.units {
		s.units[i] = -1
	}
	return s
}

type textureGroupKey struct {
	stage int
	views [maxStageTextures]*texture
}

func (k textureGroupKey) samples(t *texture) bool {
	for _, v := range k.views {
		if v == t {
			return true
		}
	}
	return false
}

type program struct {
	label          string
	vertex         *wgpu.ShaderModule
	fragment       *wgpu.ShaderModule
	vertexEntry    string
	fragmentEntry  string
	stages         [2]stageUniforms
	hasStageBlocks [2]bool
	groupLayouts   [3]*wgpu.BindGroupLayout
	layout         *wgpu.PipelineLayout
	emptyGroups    [3]*wgpu.BindGroup
	uniformGroups  map[*wgpu.Buffer]*wgpu.BindGroup
	textureGroups  map[textureGroupKey]*wgpu.BindGroup
}

func (p *program) Label() string { return p.label }

type texture struct {
	tex           *wgpu.Texture
	view          *wgpu.TextureView
	width, height int
	depth         bool
}

func (t *texture) Size() (int, int) { return t.width, t.height }

type renderTarget struct {
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
	vertex      *wgpu.Buffer
	index       *wgpu.Buffer
	primitive   gpu.Primitive
	vertexCount int
	indexCount  int
}

func (m *mesh) Primitive() gpu.Primitive { return m.primitive }
func (m *mesh) VertexCount() int         { return m.vertexCount }
func (m *mesh) IndexCount() int          { return m.indexCount }

// drawState is the fixed-function state folded into a render pipeline.
type drawState struct {
	depthWrite bool
	depthFunc  gpu.DepthFunc
	cull       gpu.CullFaces
	frontFace  gpu.FrontFace
	blend      bool
	src, dst   gpu.BlendFactor
	equation   gpu.BlendEquation
	colorWrite bool
}

// Device is the WebGPU implementation of gpu.Device. It draws into a window surface and owns
// the pipelines, samplers and uniform arena of that surface.
type Device struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	alphaMode     wgpu.CompositeAlphaMode
	presentMode   PresentMode
	sampleCount   MSAASampleCount
	forceFallback bool
	width, height int
	msaaView      *wgpu.TextureView
	depthView     *wgpu.TextureView

	state      drawState
	program    *program
	units      [maxTextureUnits]*texture
	viewport   gpu.Viewport
	clearColor mgl32.Vec4
	clearDepth float32

	frame frameState

	pipelines      map[pipelineKey]*wgpu.RenderPipeline
	programs       map[*program]struct{}
	arena          *uniformArena
	linearSampler  *wgpu.Sampler
	compareSampler *wgpu.Sampler
	fallbackColor  *texture
	fallbackDepth  *texture
}

var _ gpu.Device = &Device{}

// DeviceBuilderOption is a functional option used to configure a Device during construction.
type DeviceBuilderOption func(*Device)

// WithPresentMode sets how frames are delivered to the display. The default is PresentModeVSync.
//
// Parameters:
//   - mode: the present mode
//
// Returns:
//   - DeviceBuilderOption: a function that sets the present mode on the device
func WithPresentMode(mode PresentMode) DeviceBuilderOption {
	return func(d *Device) {
		d.presentMode = mode
	}
}

// WithSampleCount sets the MSAA sample count of the default framebuffer. The default is MSAAOff.
//
// Parameters:
//   - count: the sample count
//
// Returns:
//   - DeviceBuilderOption: a function that sets the sample count on the device
func WithSampleCount(count MSAASampleCount) DeviceBuilderOption {
	return func(d *Device) {
		d.sampleCount = count
	}
}

// WithFallbackAdapter forces the software adapter.
//
// Returns:
//   - DeviceBuilderOption: a function that forces the fallback adapter on the device
func WithFallbackAdapter() DeviceBuilderOption {
	return func(d *Device) {
		d.forceFallback = true
	}
}

// NewDevice creates a WebGPU device presenting to the surface described by desc and configures
// that surface at width × height.
//
// Parameters:
//   - desc: the window surface descriptor
//   - width, height: the initial surface size
//   - options: variadic list of DeviceBuilderOption functions to configure the device
//
// Returns:
//   - *Device: the device
//   - error: no adapter or device could be obtained, or a default resource failed
func NewDevice(desc *wgpu.SurfaceDescriptor, width, height int, options ...DeviceBuilderOption) (*Device, error) {
	d := &Device{
		presentMode: PresentModeVSync,
		sampleCount: MSAAOff,
		clearDepth:  1,
		pipelines:   make(map[pipelineKey]*wgpu.RenderPipeline),
		programs:    make(map[*program]struct{}),
		state: drawState{
			depthWrite: true,
			depthFunc:  gpu.DepthLess,
			cull:       gpu.CullBack,
			src:        gpu.BlendOne,
			dst:        gpu.BlendZero,
			colorWrite: true,
		},
	}
	for _, opt := range options {
		opt(d)
	}

	d.instance = wgpu.CreateInstance(nil)
	d.surface = d.instance.CreateSurface(desc)
	adapter, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallback,
		CompatibleSurface:    d.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	d.adapter = adapter
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "oxy-forward device"})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	d.device = device
	d.queue = device.GetQueue()
	d.arena = newUniformArena(func() (*wgpu.Buffer, error) {
		return d.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "uniform arena",
			Size:  arenaChunkSize,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
	})

	caps := d.surface.GetCapabilities(adapter)
	if len(caps.Formats) == 0 {
		return nil, fmt.Errorf("surface reports no formats")
	}
	d.surfaceFormat = caps.Formats[0]
	if len(caps.AlphaModes) > 0 {
		d.alphaMode = caps.AlphaModes[0]
	}
	if err := d.Resize(width, height); err != nil {
		return nil, err
	}
	if err := d.createDefaults(); err != nil {
		return nil, err
	}

	info := adapter.GetInfo()
	common.Logger().Info("webgpu device ready",
		zap.String("adapter", info.Name),
		zap.String("backend", info.BackendType.String()),
		zap.String("format", d.surfaceFormat.String()),
		zap.Uint32("samples", uint32(d.sampleCount)))
	return d, nil
}

// Resize reconfigures the surface and reallocates the default framebuffer attachments.
//
// Parameters:
//   - width, height: the new surface size in pixels
//
// Returns:
//   - error: an attachment could not be allocated
func (d *Device) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	d.width, d.height = width, height

	presentMode := wgpu.PresentModeFifo
	if d.presentMode == PresentModeUncapped {
		presentMode = wgpu.PresentModeImmediate
	}
	d.surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      d.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: presentMode,
		AlphaMode:   d.alphaMode,
	})

	samples := uint32(d.sampleCount)
	d.msaaView = nil
	if samples > 1 {
		view, err := d.attachment("msaa color", d.surfaceFormat, width, height, samples, wgpu.TextureUsageRenderAttachment)
		if err != nil {
			return err
		}
		d.msaaView = view
	}
	view, err := d.attachment("default depth", depthFormat, width, height, samples, wgpu.TextureUsageRenderAttachment)
	if err != nil {
		return err
	}
	d.depthView = view
	return nil
}

func (d *Device) attachment(label string, format wgpu.TextureFormat, width, height int, samples uint32, usage wgpu.TextureUsage) (*wgpu.TextureView, error) {
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("%s texture: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("%s view: %w", label, err)
	}
	return view, nil
}

// createDefaults builds the samplers and the textures bound to texture slots nothing was
// set for: opaque white for color slots, depth 1 for shadow slots.
func (d *Device) createDefaults() error {
	var err error
	d.linearSampler, err = d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "linear sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("linear sampler: %w", err)
	}
	d.compareSampler, err = d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "shadow comparison sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32,
		Compare:       wgpu.CompareFunctionLessEqual,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("comparison sampler: %w", err)
	}

	d.fallbackColor, err = d.newTexture("fallback color", colorFormat, 1, 1, wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopyDst)
	if err != nil {
		return err
	}
	err = d.queue.WriteTexture(d.fallbackColor.tex.AsImageCopy(), []byte{255, 255, 255, 255},
		&wgpu.TextureDataLayout{BytesPerRow: 4, RowsPerImage: 1},
		&wgpu.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1})
	if err != nil {
		return fmt.Errorf("fallback color upload: %w", err)
	}

	d.fallbackDepth, err = d.newTexture("fallback depth", depthFormat, 1, 1, wgpu.TextureUsageTextureBinding|wgpu.TextureUsageRenderAttachment)
	if err != nil {
		return err
	}
	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("fallback depth clear: %w", err)
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            d.fallbackDepth.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		},
	})
	if err := pass.End(); err != nil {
		encoder.Release()
		return fmt.Errorf("fallback depth clear: %w", err)
	}
	pass.Release()
	return d.submit(encoder)
}

func (d *Device) newTexture(label string, format wgpu.TextureFormat, width, height int, usage wgpu.TextureUsage) (*texture, error) {
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("%s texture: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("%s view: %w", label, err)
	}
	return &texture{tex: tex, view: view, width: width, height: height, depth: format == depthFormat}, nil
}

func (d *Device) submit(encoder *wgpu.CommandEncoder) error {
	defer encoder.Release()
	buf, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish command encoder: %w", err)
	}
	d.queue.Submit(buf)
	buf.Release()
	return nil
}

func (d *Device) SetDepthWrite(enabled bool) {
	d.state.depthWrite = enabled
}

func (d *Device) SetDepthFunc(fn gpu.DepthFunc) {
	d.state.depthFunc = fn
}

func (d *Device) SetCullFaces(faces gpu.CullFaces) {
	d.state.cull = faces
}

func (d *Device) SetFrontFace(face gpu.FrontFace) {
	d.state.frontFace = face
}

func (d *Device) SetBlendEnabled(enabled bool) {
	d.state.blend = enabled
}

func (d *Device) SetBlendFactors(src, dst gpu.BlendFactor) {
	d.state.src, d.state.dst = src, dst
}

func (d *Device) SetBlendEquation(eq gpu.BlendEquation) {
	d.state.equation = eq
}

func (d *Device) SetColorWrite(enabled bool) {
	d.state.colorWrite = enabled
}

func (d *Device) SetViewport(v gpu.Viewport) {
	d.viewport = v
	d.frame.viewportDirty = true
}

func (d *Device) SetClearColor(c mgl32.Vec4) {
	d.clearColor = c
}

func (d *Device) SetClearDepth(depth float32) {
	d.clearDepth = depth
}

func (d *Device) CreateProgram(src gpu.ProgramSource) (gpu.Program, error) {
	vs, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          src.Label + " vertex",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src.Vertex.Source},
	})
	if err != nil {
		return nil, fmt.Errorf("program %q vertex: %w", src.Label, err)
	}
	fs, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          src.Label + " fragment",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src.Fragment.Source},
	})
	if err != nil {
		return nil, fmt.Errorf("program %q fragment: %w", src.Label, err)
	}

	p := &program{
		label:         src.Label,
		vertex:        vs,
		fragment:      fs,
		vertexEntry:   src.Vertex.Entry,
		fragmentEntry: src.Fragment.Entry,
		uniformGroups: make(map[*wgpu.Buffer]*wgpu.BindGroup),
		textureGroups: make(map[textureGroupKey]*wgpu.BindGroup),
	}
	p.stages[vertexStage] = newStageUniforms(src.Vertex.Uniforms)
	p.stages[fragmentStage] = newStageUniforms(src.Fragment.Uniforms)
	for i := range p.stages {
		if n := len(p.stages[i].layout.Textures); n > maxStageTextures {
			return nil, fmt.Errorf("program %q declares %d textures in one stage, at most %d are supported", src.Label, n, maxStageTextures)
		}
		p.hasStageBlocks[i] = p.stages[i].image != nil
	}

	for group, entries := range bindGroupLayoutEntries(p) {
		layout, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s group %d", src.Label, group),
			Entries: entries,
		})
		if err != nil {
			return nil, fmt.Errorf("program %q bind group layout %d: %w", src.Label, group, err)
		}
		p.groupLayouts[group] = layout
		if len(entries) == 0 {
			bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{Label: "empty", Layout: layout})
			if err != nil {
				return nil, fmt.Errorf("program %q empty bind group %d: %w", src.Label, group, err)
			}
			p.emptyGroups[group] = bg
		}
	}
	p.layout, err = d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            src.Label,
		BindGroupLayouts: p.groupLayouts[:],
	})
	if err != nil {
		return nil, fmt.Errorf("program %q pipeline layout: %w", src.Label, err)
	}
	common.Logger().Debug("webgpu program created",
		zap.String("program", src.Label),
		zap.Int("vertexBytes", p.stages[vertexStage].layout.Size),
		zap.Int("fragmentBytes", p.stages[fragmentStage].layout.Size))
	d.programs[p] = struct{}{}
	return p, nil
}

func (d *Device) ReleaseProgram(p gpu.Program) {
	pp, ok := p.(*program)
	if !ok || pp == nil {
		return
	}
	for k, pl := range d.pipelines {
		if k.program != pp {
			continue
		}
		if pl != nil {
			pl.Release()
		}
		delete(d.pipelines, k)
	}
	for k, bg := range pp.uniformGroups {
		bg.Release()
		delete(pp.uniformGroups, k)
	}
	for k, bg := range pp.textureGroups {
		bg.Release()
		delete(pp.textureGroups, k)
	}
	for i := range pp.emptyGroups {
		if pp.emptyGroups[i] != nil {
			pp.emptyGroups[i].Release()
			pp.emptyGroups[i] = nil
		}
	}
	if pp.layout != nil {
		pp.layout.Release()
		pp.layout = nil
	}
	for i := range pp.groupLayouts {
		if pp.groupLayouts[i] != nil {
			pp.groupLayouts[i].Release()
			pp.groupLayouts[i] = nil
		}
	}
	if pp.vertex != nil {
		pp.vertex.Release()
		pp.vertex = nil
	}
	if pp.fragment != nil {
		pp.fragment.Release()
		pp.fragment = nil
	}
	if d.program == pp {
		d.program = nil
	}
	delete(d.programs, pp)
}

// bindGroupLayoutEntries lays out the uniform group and both texture groups of p.
func bindGroupLayoutEntries(p *program) [3][]wgpu.BindGroupLayoutEntry {
	var groups [3][]wgpu.BindGroupLayoutEntry
	visibility := [2]wgpu.ShaderStage{wgpu.ShaderStageVertex, wgpu.ShaderStageFragment}
	textureGroup := [2]int{gpu.VertexTextureGroup, gpu.FragmentTextureGroup}

	for stage := range p.stages {
		s := &p.stages[stage]
		if p.hasStageBlocks[stage] {
			groups[gpu.UniformGroup] = append(groups[gpu.UniformGroup], wgpu.BindGroupLayoutEntry{
				Binding:    uint32(stage),
				Visibility: visibility[stage],
				Buffer: wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeUniform,
					HasDynamicOffset: true,
					MinBindingSize:   uint64(s.layout.Size),
				},
			})
		}
		g := textureGroup[stage]
		for i, t := range s.layout.Textures {
			sampleType, samplerType := wgpu.TextureSampleTypeFloat, wgpu.SamplerBindingTypeFiltering
			if t.Shadow {
				sampleType, samplerType = wgpu.TextureSampleTypeDepth, wgpu.SamplerBindingTypeComparison
			}
			groups[g] = append(groups[g],
				wgpu.BindGroupLayoutEntry{
					Binding:    uint32(2 * i),
					Visibility: visibility[stage],
					Texture:    wgpu.TextureBindingLayout{SampleType: sampleType, ViewDimension: wgpu.TextureViewDimension2D},
				},
				wgpu.BindGroupLayoutEntry{
					Binding:    uint32(2*i + 1),
					Visibility: visibility[stage],
					Sampler:    wgpu.SamplerBindingLayout{Type: samplerType},
				})
		}
	}
	return groups
}

func (d *Device) UseProgram(p gpu.Program) {
	pp, _ := p.(*program)
	d.program = pp
}

func (d *Device) SetUniform(p gpu.Program, name string, v gpu.Value) {
	pp, ok := p.(*program)
	if !ok {
		return
	}
	for i := range pp.stages {
		s := &pp.stages[i]
		if idx := s.layout.TextureIndex(name); idx >= 0 {
			if v.Kind == gpu.KindInt {
				s.units[idx] = v.Int
			}
			continue
		}
		if s.image != nil {
			s.layout.Pack(s.image, name, v)
		}
	}
}

func (d *Device) BindTexture(unit int, t gpu.Texture) {
	if unit < 0 || unit >= len(d.units) {
		return
	}
	tt, _ := t.(*texture)
	d.units[unit] = tt
}

func (d *Device) CreateDepthTarget(width, height int) (gpu.RenderTarget, error) {
	depth, err := d.newTexture("depth target", depthFormat, width, height,
		wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding)
	if err != nil {
		return nil, err
	}
	return &renderTarget{depth: depth}, nil
}

func (d *Device) CreateColorTarget(width, height int) (gpu.RenderTarget, error) {
	color, err := d.newTexture("color target", colorFormat, width, height,
		wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding)
	if err != nil {
		return nil, err
	}
	depth, err := d.newTexture("color target depth", depthFormat, width, height,
		wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding)
	if err != nil {
		d.forgetTexture(color)
		return nil, err
	}
	return &renderTarget{depth: depth, color: color}, nil
}

func (d *Device) ReleaseRenderTarget(t gpu.RenderTarget) {
	rt, ok := t.(*renderTarget)
	if !ok || rt == nil {
		return
	}
	if d.frame.target == rt {
		d.endPass()
		d.frame.target = nil
	}
	for _, tex := range []*texture{rt.depth, rt.color} {
		if tex != nil {
			d.forgetTexture(tex)
		}
	}
}

// forgetTexture unbinds tex from every unit, drops the cached bind groups that sample it and
// releases its GPU objects.
func (d *Device) forgetTexture(tex *texture) {
	for i, u := range d.units {
		if u == tex {
			d.units[i] = nil
		}
	}
	for p := range d.programs {
		for k, bg := range p.textureGroups {
			if !k.samples(tex) {
				continue
			}
			if bg != nil {
				bg.Release()
			}
			delete(p.textureGroups, k)
		}
	}
	if tex.view != nil {
		tex.view.Release()
		tex.view = nil
	}
	if tex.tex != nil {
		tex.tex.Release()
		tex.tex = nil
	}
}

func (d *Device) CreateMesh(data gpu.MeshData) (gpu.Mesh, error) {
	m := &mesh{
		primitive:   data.Primitive,
		vertexCount: len(data.Positions),
		indexCount:  len(data.Indices),
	}
	if m.vertexCount == 0 {
		return nil, fmt.Errorf("mesh %q has no vertices", data.Label)
	}
	var err error
	m.vertex, err = d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    data.Label + " vertices",
		Contents: wgpu.ToBytes(data.Interleaved()),
		Usage:    wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("mesh %q vertex buffer: %w", data.Label, err)
	}
	if m.indexCount > 0 {
		m.index, err = d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    data.Label + " indices",
			Contents: wgpu.ToBytes(data.Indices),
			Usage:    wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			m.vertex.Release()
			return nil, fmt.Errorf("mesh %q index buffer: %w", data.Label, err)
		}
	}
	return m, nil
}

// Release frees the pipelines, the uniform arena and the device. The Device is unusable afterwards.
func (d *Device) Release() {
	d.frame.release()
	for k, p := range d.pipelines {
		p.Release()
		delete(d.pipelines, k)
	}
	d.arena.release()
	d.queue.Release()
	d.device.Release()
	d.adapter.Release()
	d.surface.Release()
	d.instance.Release()
}
