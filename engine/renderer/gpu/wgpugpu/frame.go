package wgpugpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// frameState is the command recording of the frame in flight. Render passes open lazily on
// the first draw or pending clear and close whenever the bound target changes.
type frameState struct {
	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder

	surfaceTexture *wgpu.Texture
	surfaceView    *wgpu.TextureView

	target        *renderTarget
	invalidTarget bool
	viewportDirty bool

	clearColor, clearDepth bool
	colorValue             wgpu.Color
	depthValue             float32
}

func (f *frameState) release() {
	if f.pass != nil {
		f.pass.Release()
		f.pass = nil
	}
	if f.encoder != nil {
		f.encoder.Release()
		f.encoder = nil
	}
	if f.surfaceView != nil {
		f.surfaceView.Release()
		f.surfaceView = nil
	}
	if f.surfaceTexture != nil {
		f.surfaceTexture.Release()
		f.surfaceTexture = nil
	}
}

func (d *Device) BeginFrame() error {
	if err := d.ensureEncoder(); err != nil {
		return err
	}
	return d.acquireSurface()
}

func (d *Device) EndFrame() {
	d.endPass()
	if d.frame.encoder != nil {
		write := func(buf *wgpu.Buffer, data []byte) error {
			return d.queue.WriteBuffer(buf, 0, data)
		}
		if err := d.arena.flush(write); err != nil {
			common.Logger().Error("uniform upload failed", zap.Error(err))
		}
		encoder := d.frame.encoder
		d.frame.encoder = nil
		if err := d.submit(encoder); err != nil {
			common.Logger().Error("frame submit failed", zap.Error(err))
		}
	}
	if d.frame.surfaceTexture != nil {
		d.surface.Present()
	}
	d.frame.release()
}

func (d *Device) ensureEncoder() error {
	if d.frame.encoder != nil {
		return nil
	}
	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("command encoder: %w", err)
	}
	d.frame.encoder = encoder
	return nil
}

func (d *Device) acquireSurface() error {
	if d.frame.surfaceTexture != nil {
		return nil
	}
	tex, err := d.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("acquire surface texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("surface view: %w", err)
	}
	d.frame.surfaceTexture = tex
	d.frame.surfaceView = view
	return nil
}

func (d *Device) BindRenderTarget(t gpu.RenderTarget) error {
	d.endPass()
	d.frame.invalidTarget = false
	if t == nil {
		d.frame.target = nil
		return nil
	}
	rt, ok := t.(*renderTarget)
	if !ok {
		d.frame.target = nil
		d.frame.invalidTarget = true
		return fmt.Errorf("render target %T was not created by this device: %w", t, gpu.ErrFramebufferIncomplete)
	}
	d.frame.target = rt
	return nil
}

// Clear records a clear of the bound target. WebGPU clears through the load operation of the
// next render pass, so the open pass is closed first.
func (d *Device) Clear(color, depth, _ bool) {
	if d.frame.invalidTarget {
		return
	}
	d.endPass()
	if color {
		d.frame.clearColor = true
		c := d.clearColor
		d.frame.colorValue = wgpu.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])}
	}
	if depth {
		d.frame.clearDepth = true
		d.frame.depthValue = d.clearDepth
	}
}

// targetSize returns the size of the bound target in pixels.
func (d *Device) targetSize() (int, int) {
	if d.frame.target != nil {
		return d.frame.target.Size()
	}
	return d.width, d.height
}

// targetFormat returns the color format and sample count pipelines drawing into the bound
// target must use. Depth-only targets report TextureFormatUndefined.
func (d *Device) targetFormat() (wgpu.TextureFormat, uint32) {
	switch {
	case d.frame.target == nil:
		return d.surfaceFormat, uint32(d.sampleCount)
	case d.frame.target.color == nil:
		return wgpu.TextureFormatUndefined, 1
	default:
		return colorFormat, 1
	}
}

func (d *Device) beginPass() error {
	if d.frame.pass != nil {
		return nil
	}
	if err := d.ensureEncoder(); err != nil {
		return err
	}

	colorLoad, depthLoad := wgpu.LoadOpLoad, wgpu.LoadOpLoad
	if d.frame.clearColor {
		colorLoad = wgpu.LoadOpClear
	}
	if d.frame.clearDepth {
		depthLoad = wgpu.LoadOpClear
	}
	desc := &wgpu.RenderPassDescriptor{
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			DepthLoadOp:     depthLoad,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: d.frame.depthValue,
		},
	}
	color := wgpu.RenderPassColorAttachment{
		LoadOp:     colorLoad,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: d.frame.colorValue,
	}

	switch t := d.frame.target; {
	case t == nil:
		if err := d.acquireSurface(); err != nil {
			return err
		}
		color.View = d.frame.surfaceView
		if d.msaaView != nil {
			color.View, color.ResolveTarget = d.msaaView, d.frame.surfaceView
		}
		desc.Label = "default framebuffer"
		desc.ColorAttachments = []wgpu.RenderPassColorAttachment{color}
		desc.DepthStencilAttachment.View = d.depthView
	case t.color != nil:
		color.View = t.color.view
		desc.Label = "color target"
		desc.ColorAttachments = []wgpu.RenderPassColorAttachment{color}
		desc.DepthStencilAttachment.View = t.depth.view
	default:
		desc.Label = "depth target"
		desc.DepthStencilAttachment.View = t.depth.view
	}

	d.frame.pass = d.frame.encoder.BeginRenderPass(desc)
	d.frame.clearColor, d.frame.clearDepth = false, false
	d.frame.viewportDirty = true
	return nil
}

// endPass closes the open render pass. A pending clear with no pass open is realized by an
// empty pass so it is not lost when the target changes.
func (d *Device) endPass() {
	if d.frame.pass == nil && (d.frame.clearColor || d.frame.clearDepth) {
		if err := d.beginPass(); err != nil {
			common.Logger().Error("clear pass failed", zap.Error(err))
			d.frame.clearColor, d.frame.clearDepth = false, false
			return
		}
	}
	if d.frame.pass == nil {
		return
	}
	if err := d.frame.pass.End(); err != nil {
		common.Logger().Error("render pass end failed", zap.Error(err))
	}
	d.frame.pass.Release()
	d.frame.pass = nil
}

func (d *Device) Draw(m gpu.Mesh) {
	mm, ok := m.(*mesh)
	if !ok || d.program == nil || d.frame.invalidTarget {
		return
	}
	if d.state.cull == gpu.CullFrontAndBack && isTriangles(mm.primitive) {
		return
	}
	w, h := d.targetSize()
	x, y, vw, vh := flipViewport(d.viewport, w, h)
	if vw == 0 || vh == 0 {
		return
	}
	if err := d.beginPass(); err != nil {
		common.Logger().Error("render pass unavailable", zap.Error(err))
		return
	}
	p := d.program
	pipeline, err := d.pipeline(p, mm.primitive)
	if err != nil {
		common.Logger().Error("render pipeline unavailable", zap.String("program", p.label), zap.Error(err))
		return
	}
	uniforms, offsets, err := d.uniformGroup(p)
	if err != nil {
		common.Logger().Error("uniform bind group unavailable", zap.String("program", p.label), zap.Error(err))
		return
	}
	fragmentTextures, err := d.textureGroup(p, fragmentStage)
	if err != nil {
		common.Logger().Error("texture bind group unavailable", zap.String("program", p.label), zap.Error(err))
		return
	}
	vertexTextures, err := d.textureGroup(p, vertexStage)
	if err != nil {
		common.Logger().Error("texture bind group unavailable", zap.String("program", p.label), zap.Error(err))
		return
	}

	pass := d.frame.pass
	if d.frame.viewportDirty {
		pass.SetViewport(x, y, vw, vh, 0, 1)
		d.frame.viewportDirty = false
	}
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(gpu.UniformGroup, uniforms, offsets)
	pass.SetBindGroup(gpu.FragmentTextureGroup, fragmentTextures, nil)
	pass.SetBindGroup(gpu.VertexTextureGroup, vertexTextures, nil)
	pass.SetVertexBuffer(0, mm.vertex, 0, wgpu.WholeSize)
	if mm.index != nil {
		pass.SetIndexBuffer(mm.index, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(uint32(mm.indexCount), 1, 0, 0, 0)
		return
	}
	pass.Draw(uint32(mm.vertexCount), 1, 0, 0)
}

// uniformGroup copies the program's stage images into the frame arena and returns the bind
// group and dynamic offsets that select them.
func (d *Device) uniformGroup(p *program) (*wgpu.BindGroup, []uint32, error) {
	vs, fs := &p.stages[vertexStage], &p.stages[fragmentStage]
	if !p.hasStageBlocks[vertexStage] && !p.hasStageBlocks[fragmentStage] {
		return p.emptyGroups[gpu.UniformGroup], nil, nil
	}
	vsize := 0
	if p.hasStageBlocks[vertexStage] {
		vsize = alignUp(len(vs.image), uniformAlignment)
	}
	chunk, base, err := d.arena.alloc(vsize + len(fs.image))
	if err != nil {
		return nil, nil, err
	}
	offsets := make([]uint32, 0, 2)
	entries := make([]wgpu.BindGroupEntry, 0, 2)
	if p.hasStageBlocks[vertexStage] {
		copy(chunk.staging[base:], vs.image)
		offsets = append(offsets, uint32(base))
		entries = append(entries, wgpu.BindGroupEntry{Binding: vertexStage, Buffer: chunk.buffer, Size: uint64(len(vs.image))})
	}
	if p.hasStageBlocks[fragmentStage] {
		copy(chunk.staging[base+vsize:], fs.image)
		offsets = append(offsets, uint32(base+vsize))
		entries = append(entries, wgpu.BindGroupEntry{Binding: fragmentStage, Buffer: chunk.buffer, Size: uint64(len(fs.image))})
	}

	if bg, ok := p.uniformGroups[chunk.buffer]; ok {
		return bg, offsets, nil
	}
	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.label + " uniforms",
		Layout:  p.groupLayouts[gpu.UniformGroup],
		Entries: entries,
	})
	if err != nil {
		return nil, nil, err
	}
	p.uniformGroups[chunk.buffer] = bg
	return bg, offsets, nil
}

// textureGroup returns the bind group holding the textures the stage's slots resolve to.
// Slots pointing at an empty unit, or at a texture of the wrong kind, sample a fallback.
func (d *Device) textureGroup(p *program, stage int) (*wgpu.BindGroup, error) {
	s := &p.stages[stage]
	group := gpu.FragmentTextureGroup
	if stage == vertexStage {
		group = gpu.VertexTextureGroup
	}
	if len(s.layout.Textures) == 0 {
		return p.emptyGroups[group], nil
	}

	key := textureGroupKey{stage: stage}
	for i, decl := range s.layout.Textures {
		key.views[i] = d.unitTexture(s.units[i], decl.Shadow)
	}
	if bg, ok := p.textureGroups[key]; ok {
		return bg, nil
	}

	entries := make([]wgpu.BindGroupEntry, 0, 2*len(s.layout.Textures))
	for i, decl := range s.layout.Textures {
		sampler := d.linearSampler
		if decl.Shadow {
			sampler = d.compareSampler
		}
		entries = append(entries,
			wgpu.BindGroupEntry{Binding: uint32(2 * i), TextureView: key.views[i].view},
			wgpu.BindGroupEntry{Binding: uint32(2*i + 1), Sampler: sampler})
	}
	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.label + " textures",
		Layout:  p.groupLayouts[group],
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	p.textureGroups[key] = bg
	return bg, nil
}

func (d *Device) unitTexture(unit int32, depth bool) *texture {
	if unit >= 0 && int(unit) < len(d.units) {
		if t := d.units[unit]; t != nil && t.depth == depth && !d.isAttachment(t) {
			return t
		}
	}
	if depth {
		return d.fallbackDepth
	}
	return d.fallbackColor
}

// isAttachment reports whether t is an attachment of the bound target, which a pass may not
// sample at the same time.
func (d *Device) isAttachment(t *texture) bool {
	rt := d.frame.target
	return rt != nil && (rt.depth == t || rt.color == t)
}
