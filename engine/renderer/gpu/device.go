package gpu

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrFramebufferIncomplete is returned by BindRenderTarget when the target cannot be rendered to.
var ErrFramebufferIncomplete = errors.New("framebuffer incomplete")

// Program is a linked vertex + fragment shader pair owned by a Device.
type Program interface {
	// Label returns the debug label the program was created with.
	Label() string
}

// Texture is a sampled image owned by a Device.
type Texture interface {
	// Size returns the texture dimensions in pixels.
	Size() (width, height int)
}

// RenderTarget is an offscreen framebuffer. Shadow maps are depth-only targets; post effects
// read the color attachment of a color target.
type RenderTarget interface {
	// Size returns the target dimensions in pixels.
	Size() (width, height int)

	// DepthTexture returns the sampled depth attachment.
	DepthTexture() Texture

	// ColorTexture returns the sampled color attachment, nil for depth-only targets.
	ColorTexture() Texture
}

// Mesh is an uploaded vertex/index buffer pair ready to draw.
type Mesh interface {
	// Primitive returns the topology the mesh is drawn with.
	Primitive() Primitive

	// VertexCount returns the number of vertices in the vertex buffer.
	VertexCount() int

	// IndexCount returns the number of indices, or 0 for non-indexed meshes.
	IndexCount() int
}

// UniformDecl declares one uniform a program reads. Backends with explicit
// buffer layouts (WebGPU) pack values in declaration order.
type UniformDecl struct {
	Name  string
	Kind  ValueKind
	Count int

	// Shadow marks a KindTexture uniform as a depth texture sampled with comparison.
	Shadow bool
}

// StageSource is the source of one shader stage.
type StageSource struct {
	Source   string
	Entry    string
	Uniforms []UniformDecl
}

// ProgramSource is everything a Device needs to build a Program.
type ProgramSource struct {
	Label    string
	Vertex   StageSource
	Fragment StageSource
}

// Uniforms returns the declarations of both stages, vertex first, without duplicates.
func (s ProgramSource) Uniforms() []UniformDecl {
	out := make([]UniformDecl, 0, len(s.Vertex.Uniforms)+len(s.Fragment.Uniforms))
	seen := make(map[string]bool)
	for _, list := range [][]UniformDecl{s.Vertex.Uniforms, s.Fragment.Uniforms} {
		for _, d := range list {
			if !seen[d.Name] {
				seen[d.Name] = true
				out = append(out, d)
			}
		}
	}
	return out
}

// Bind group placement shared by explicit-layout backends and generated shader declarations.
// The uniform group holds the vertex stage block at binding 0 and the fragment stage block at
// binding 1. Texture groups hold a texture at binding 2i and its sampler at 2i+1.
const (
	UniformGroup         = 0
	FragmentTextureGroup = 1
	VertexTextureGroup   = 2
)

// MeshData is CPU-side geometry. Positions, normals and UVs are parallel arrays.
type MeshData struct {
	Label     string
	Primitive Primitive
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Indices   []uint32
}

// Interleaved packs the vertex attributes as position(3) normal(3) uv(2) per vertex.
// Missing normals or UVs are written as zeros.
func (d MeshData) Interleaved() []float32 {
	out := make([]float32, 0, len(d.Positions)*8)
	for i, p := range d.Positions {
		var n mgl32.Vec3
		var uv mgl32.Vec2
		if i < len(d.Normals) {
			n = d.Normals[i]
		}
		if i < len(d.UVs) {
			uv = d.UVs[i]
		}
		out = append(out, p[0], p[1], p[2], n[0], n[1], n[2], uv[0], uv[1])
	}
	return out
}

// VertexStride is the byte size of one interleaved vertex.
const VertexStride = 8 * 4

// TargetAllocator creates and frees offscreen targets. Device implements it; so does
// pipeline.Context, which also keeps its binding baseline in sync with the allocation.
type TargetAllocator interface {
	CreateDepthTarget(width, height int) (RenderTarget, error)
	CreateColorTarget(width, height int) (RenderTarget, error)
	ReleaseRenderTarget(t RenderTarget)
}

// Device is the graphics API surface the renderer drives. Every call is blocking and
// executed in program order on the thread that owns the graphics context.
//
// Fixed-function setters are issued only by pipeline.Context, which diffs them against
// its baseline; nothing else should call them directly.
type Device interface {
	// SetDepthWrite enables or disables writes to the depth buffer.
	SetDepthWrite(enabled bool)

	// SetDepthFunc sets the depth comparison. DepthDisabled turns the depth test off.
	SetDepthFunc(fn DepthFunc)

	// SetCullFaces selects culled faces. CullNone turns culling off.
	SetCullFaces(faces CullFaces)

	// SetFrontFace sets the winding of front-facing polygons.
	SetFrontFace(face FrontFace)

	// SetBlendEnabled toggles blending.
	SetBlendEnabled(enabled bool)

	// SetBlendFactors sets the source and destination blend factors.
	SetBlendFactors(src, dst BlendFactor)

	// SetBlendEquation sets the blend equation.
	SetBlendEquation(eq BlendEquation)

	// SetColorWrite masks or unmasks all color channels.
	SetColorWrite(enabled bool)

	// SetViewport sets the drawing rectangle.
	SetViewport(v Viewport)

	// SetClearColor sets the color used by Clear.
	SetClearColor(c mgl32.Vec4)

	// SetClearDepth sets the depth used by Clear.
	SetClearDepth(d float32)

	// Clear clears the selected buffers of the bound target.
	Clear(color, depth, stencil bool)

	// CreateProgram compiles and links a program.
	//
	// Parameters:
	//   - src: shader sources and layout
	//
	// Returns:
	//   - Program: the linked program
	//   - error: compile or link failure
	CreateProgram(src ProgramSource) (Program, error)

	// ReleaseProgram frees p. It must not be bound or used afterwards.
	ReleaseProgram(p Program)

	// UseProgram binds p for subsequent uniforms and draws. nil unbinds.
	UseProgram(p Program)

	// SetUniform sets a uniform of the bound program. Texture values must already be
	// resolved to a unit (KindInt) by the caller.
	SetUniform(p Program, name string, v Value)

	// BindTexture binds t to the texture unit.
	BindTexture(unit int, t Texture)

	// CreateDepthTarget allocates a depth-only render target with a sampled depth texture.
	//
	// Parameters:
	//   - width, height: size in pixels
	//
	// Returns:
	//   - RenderTarget: the new target
	//   - error: allocation failure
	CreateDepthTarget(width, height int) (RenderTarget, error)

	// CreateColorTarget allocates an RGBA8 color target with a depth attachment.
	CreateColorTarget(width, height int) (RenderTarget, error)

	// ReleaseRenderTarget frees t and its attachments. It must not be bound or sampled
	// afterwards.
	ReleaseRenderTarget(t RenderTarget)

	// BindRenderTarget redirects drawing to t, or to the default framebuffer when t is nil.
	// Returns ErrFramebufferIncomplete (possibly wrapped) if t cannot be drawn to; the
	// target stays bound regardless.
	BindRenderTarget(t RenderTarget) error

	// CreateMesh uploads geometry.
	CreateMesh(data MeshData) (Mesh, error)

	// Draw issues one draw call for m with the bound program and state.
	Draw(m Mesh)

	// BeginFrame prepares the default framebuffer for a new frame.
	BeginFrame() error

	// EndFrame submits recorded work and presents the default framebuffer.
	EndFrame()
}
