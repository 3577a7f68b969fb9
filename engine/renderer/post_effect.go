package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-forward/engine/model"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/uniform"
)

// PostEffect tone maps an offscreen color target onto the default framebuffer. Point the
// renderer at Target, render the scene, then call Render.
type PostEffect struct {
	ctx      *pipeline.Context
	program  gpu.Program
	quad     model.Model
	target   gpu.RenderTarget
	uniforms uniform.Block
	state    pipeline.StateBlock
	exposure float32
}

// PostEffectBuilderOption is a functional option used to configure a PostEffect during construction.
type PostEffectBuilderOption func(*PostEffect)

// WithExposure sets the exposure the source is scaled by before tone mapping. The default is 1.
//
// Parameters:
//   - exposure: the exposure multiplier
//
// Returns:
//   - PostEffectBuilderOption: a function that sets the exposure on the post effect
func WithExposure(exposure float32) PostEffectBuilderOption {
	return func(p *PostEffect) {
		p.exposure = exposure
	}
}

// NewPostEffect builds the post program and a width × height source target on the device ctx
// drives. Targets are allocated and released through ctx.
//
// Parameters:
//   - ctx: the renderer's state cache
//   - lang: the shading language of the device
//   - width, height: the source target size
//   - options: variadic list of PostEffectBuilderOption functions
//
// Returns:
//   - *PostEffect: the post effect
//   - error: a shader, program, mesh or target failure
func NewPostEffect(ctx *pipeline.Context, lang shader.Language, width, height int, options ...PostEffectBuilderOption) (*PostEffect, error) {
	device := ctx.Device()
	b, err := Builtins(lang)
	if err != nil {
		return nil, err
	}
	program, err := device.CreateProgram(gpu.ProgramSource{
		Label:    "post",
		Vertex:   b.PostVertex.Stage(),
		Fragment: b.PostFragment.Stage(),
	})
	if err != nil {
		return nil, fmt.Errorf("post program: %w", err)
	}
	quad := model.FullscreenQuad()
	if err := quad.Upload(device); err != nil {
		return nil, fmt.Errorf("post quad: %w", err)
	}

	p := &PostEffect{
		ctx:      ctx,
		program:  program,
		quad:     quad,
		uniforms: uniform.NewBlock(uniform.WithLabel("post")),
		state: pipeline.NewStateBlock(
			pipeline.WithDepthFunc(gpu.DepthDisabled),
			pipeline.WithDepthWrite(false),
			pipeline.WithCullFaces(gpu.CullNone),
		),
		exposure: 1,
	}
	for _, opt := range options {
		opt(p)
	}
	if err := p.Resize(width, height); err != nil {
		return nil, err
	}
	return p, nil
}

// Target returns the color target the scene should be rendered into.
func (p *PostEffect) Target() gpu.RenderTarget {
	return p.target
}

// Exposure returns the exposure multiplier.
func (p *PostEffect) Exposure() float32 { return p.exposure }

// SetExposure sets the exposure multiplier.
func (p *PostEffect) SetExposure(exposure float32) { p.exposure = exposure }

// Resize reallocates the source target when its size changes and releases the old one.
//
// Parameters:
//   - width, height: the new size in pixels
//
// Returns:
//   - error: the allocation failure; the previous target is kept
func (p *PostEffect) Resize(width, height int) error {
	if p.target != nil {
		if w, h := p.target.Size(); w == width && h == height {
			return nil
		}
	}
	t, err := p.ctx.CreateColorTarget(width, height)
	if err != nil {
		return fmt.Errorf("post target %dx%d: %w", width, height, err)
	}
	if p.target != nil {
		p.ctx.ReleaseRenderTarget(p.target)
	}
	p.target = t
	return nil
}

// Render draws the source target over the whole viewport of the default framebuffer.
//
// Parameters:
//   - ctx: the renderer's state cache
//   - viewport: the default framebuffer rectangle
//
// Returns:
//   - error: the default framebuffer could not be bound
func (p *PostEffect) Render(ctx *pipeline.Context, viewport gpu.Viewport) error {
	if err := ctx.BindRenderTarget(nil); err != nil {
		return err
	}
	ctx.SetViewport(viewport)
	ctx.ResetTextureUnits()
	p.state.Apply(ctx)
	ctx.UseProgram(p.program)
	p.uniforms.Set("source", gpu.TextureValue(p.target.ColorTexture()))
	p.uniforms.Set("exposure", gpu.FloatValue(p.exposure))
	p.uniforms.Apply(ctx)
	ctx.Draw(p.quad.Mesh())
	return nil
}
