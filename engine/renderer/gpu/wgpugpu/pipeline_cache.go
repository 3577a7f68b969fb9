package wgpugpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// pipelineKey identifies one render pipeline: a program drawn with a fixed-function state
// into targets of one color format and sample count.
type pipelineKey struct {
	program   *program
	state     drawState
	primitive gpu.Primitive
	format    wgpu.TextureFormat
	samples   uint32
}

// newPipelineKey normalizes state that cannot affect the pipeline so equivalent states share
// one entry.
func newPipelineKey(p *program, s drawState, prim gpu.Primitive, format wgpu.TextureFormat, samples uint32) pipelineKey {
	if !s.blend {
		s.src, s.dst, s.equation = gpu.BlendOne, gpu.BlendZero, gpu.BlendAdd
	}
	if s.depthFunc == gpu.DepthDisabled {
		s.depthWrite = false
	}
	if format == wgpu.TextureFormatUndefined {
		s.blend, s.colorWrite = false, false
		s.src, s.dst, s.equation = gpu.BlendOne, gpu.BlendZero, gpu.BlendAdd
	}
	if !isTriangles(prim) {
		s.cull, s.frontFace = gpu.CullNone, gpu.FrontFaceCCW
	}
	return pipelineKey{program: p, state: s, primitive: prim, format: format, samples: samples}
}

var vertexLayout = wgpu.VertexBufferLayout{
	ArrayStride: gpu.VertexStride,
	StepMode:    wgpu.VertexStepModeVertex,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
	},
}

func (d *Device) pipeline(p *program, prim gpu.Primitive) (*wgpu.RenderPipeline, error) {
	format, samples := d.targetFormat()
	key := newPipelineKey(p, d.state, prim, format, samples)
	if rp, ok := d.pipelines[key]; ok {
		return rp, nil
	}
	rp, err := d.device.CreateRenderPipeline(pipelineDescriptor(key))
	if err != nil {
		return nil, fmt.Errorf("pipeline for %q: %w", p.label, err)
	}
	d.pipelines[key] = rp
	common.Logger().Debug("render pipeline created",
		zap.String("program", p.label),
		zap.Stringer("depthFunc", key.state.depthFunc),
		zap.Bool("blend", key.state.blend),
		zap.Int("cached", len(d.pipelines)))
	return rp, nil
}

// pipelineDescriptor translates a key into a render pipeline descriptor.
func pipelineDescriptor(k pipelineKey) *wgpu.RenderPipelineDescriptor {
	s := k.state
	primitive := wgpu.PrimitiveState{
		Topology:  topology(k.primitive),
		FrontFace: frontFace(s.frontFace),
		CullMode:  cullMode(s.cull),
	}
	if k.primitive == gpu.PrimitiveTriangleStrip {
		primitive.StripIndexFormat = wgpu.IndexFormatUint32
	}

	fragment := &wgpu.FragmentState{
		Module:     k.program.fragment,
		EntryPoint: k.program.fragmentEntry,
	}
	if k.format != wgpu.TextureFormatUndefined {
		target := wgpu.ColorTargetState{Format: k.format, WriteMask: wgpu.ColorWriteMaskNone}
		if s.colorWrite {
			target.WriteMask = wgpu.ColorWriteMaskAll
		}
		if s.blend {
			component := wgpu.BlendComponent{
				Operation: blendOperation(s.equation),
				SrcFactor: blendFactor(s.src),
				DstFactor: blendFactor(s.dst),
			}
			target.Blend = &wgpu.BlendState{Color: component, Alpha: component}
		}
		fragment.Targets = []wgpu.ColorTargetState{target}
	}

	return &wgpu.RenderPipelineDescriptor{
		Label:  k.program.label,
		Layout: k.program.layout,
		Vertex: wgpu.VertexState{
			Module:     k.program.vertex,
			EntryPoint: k.program.vertexEntry,
			Buffers:    []wgpu.VertexBufferLayout{vertexLayout},
		},
		Primitive: primitive,
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: s.depthWrite,
			DepthCompare:      compareFunction(s.depthFunc),
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{
			Count: k.samples,
			Mask:  0xFFFFFFFF,
		},
		Fragment: fragment,
	}
}
