package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Call is one recorded device invocation.
type Call struct {
	Name string
	Args []any
}

func (c Call) String() string {
	return fmt.Sprintf("%s%v", c.Name, c.Args)
}

// Recorder is a headless Device that records every call instead of talking to a driver.
// It backs the headless backend and the renderer tests.
type Recorder struct {
	mu    sync.Mutex
	calls []Call

	// FailFramebuffers makes BindRenderTarget report ErrFramebufferIncomplete for offscreen targets.
	FailFramebuffers bool

	// FailPrograms makes CreateProgram return an error.
	FailPrograms bool

	nextID int
}

var _ Device = &Recorder{}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordedProgram is the Program handle issued by a Recorder.
type RecordedProgram struct {
	ID     int
	Source ProgramSource
}

func (p *RecordedProgram) Label() string { return p.Source.Label }

// RecordedTexture is the Texture handle issued by a Recorder.
type RecordedTexture struct {
	ID            int
	Width, Height int
}

func (t *RecordedTexture) Size() (int, int) { return t.Width, t.Height }

// RecordedTarget is the RenderTarget handle issued by a Recorder.
type RecordedTarget struct {
	ID    int
	Depth *RecordedTexture
	Color *RecordedTexture
}

func (t *RecordedTarget) Size() (int, int)      { return t.Depth.Size() }
func (t *RecordedTarget) DepthTexture() Texture { return t.Depth }

func (t *RecordedTarget) ColorTexture() Texture {
	if t.Color == nil {
		return nil
	}
	return t.Color
}

// RecordedMesh is the Mesh handle issued by a Recorder.
type RecordedMesh struct {
	ID   int
	Data MeshData
}

func (m *RecordedMesh) Primitive() Primitive { return m.Data.Primitive }
func (m *RecordedMesh) VertexCount() int     { return len(m.Data.Positions) }
func (m *RecordedMesh) IndexCount() int      { return len(m.Data.Indices) }

// NewTexture issues a texture handle without recording a call, standing in for an
// upload performed by a loader.
func (r *Recorder) NewTexture(width, height int) *RecordedTexture {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	return &RecordedTexture{ID: r.nextID, Width: width, Height: height}
}

func (r *Recorder) record(name string, args ...any) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Name: name, Args: args})
	r.mu.Unlock()
}

// Calls returns a copy of every recorded call in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Count returns how many calls with the given name were recorded.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

// Len returns the number of recorded calls.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// Reset forgets all recorded calls. Issued handles stay valid.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = r.calls[:0]
	r.mu.Unlock()
}

func (r *Recorder) SetDepthWrite(enabled bool)   { r.record("SetDepthWrite", enabled) }
func (r *Recorder) SetDepthFunc(fn DepthFunc)    { r.record("SetDepthFunc", fn) }
func (r *Recorder) SetCullFaces(faces CullFaces) { r.record("SetCullFaces", faces) }
func (r *Recorder) SetFrontFace(face FrontFace)  { r.record("SetFrontFace", face) }
func (r *Recorder) SetBlendEnabled(enabled bool) { r.record("SetBlendEnabled", enabled) }
func (r *Recorder) SetBlendFactors(src, dst BlendFactor) {
	r.record("SetBlendFactors", src, dst)
}
func (r *Recorder) SetBlendEquation(eq BlendEquation) { r.record("SetBlendEquation", eq) }
func (r *Recorder) SetColorWrite(enabled bool)        { r.record("SetColorWrite", enabled) }
func (r *Recorder) SetViewport(v Viewport)            { r.record("SetViewport", v) }
func (r *Recorder) SetClearColor(c mgl32.Vec4)        { r.record("SetClearColor", c) }
func (r *Recorder) SetClearDepth(d float32)           { r.record("SetClearDepth", d) }

func (r *Recorder) Clear(color, depth, stencil bool) {
	r.record("Clear", color, depth, stencil)
}

func (r *Recorder) CreateProgram(src ProgramSource) (Program, error) {
	r.record("CreateProgram", src.Label)
	if r.FailPrograms {
		return nil, errors.New("recorder: program creation disabled")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	return &RecordedProgram{ID: r.nextID, Source: src}, nil
}

func (r *Recorder) ReleaseProgram(p Program) { r.record("ReleaseProgram", p) }
func (r *Recorder) UseProgram(p Program)     { r.record("UseProgram", p) }

func (r *Recorder) SetUniform(p Program, name string, v Value) {
	r.record("SetUniform", name, v)
}

func (r *Recorder) BindTexture(unit int, t Texture) { r.record("BindTexture", unit, t) }

func (r *Recorder) CreateDepthTarget(width, height int) (RenderTarget, error) {
	r.record("CreateDepthTarget", width, height)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	depth := &RecordedTexture{ID: r.nextID, Width: width, Height: height}
	r.nextID++
	return &RecordedTarget{ID: r.nextID, Depth: depth}, nil
}

func (r *Recorder) CreateColorTarget(width, height int) (RenderTarget, error) {
	r.record("CreateColorTarget", width, height)
	r.mu.Lock()
	defer r.mu.Unlock()
	depth := &RecordedTexture{ID: r.nextID + 1, Width: width, Height: height}
	color := &RecordedTexture{ID: r.nextID + 2, Width: width, Height: height}
	r.nextID += 3
	return &RecordedTarget{ID: r.nextID, Depth: depth, Color: color}, nil
}

func (r *Recorder) ReleaseRenderTarget(t RenderTarget) { r.record("ReleaseRenderTarget", t) }

func (r *Recorder) BindRenderTarget(t RenderTarget) error {
	r.record("BindRenderTarget", t)
	if t != nil && r.FailFramebuffers {
		return ErrFramebufferIncomplete
	}
	return nil
}

func (r *Recorder) CreateMesh(data MeshData) (Mesh, error) {
	r.record("CreateMesh", data.Label)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	return &RecordedMesh{ID: r.nextID, Data: data}, nil
}

func (r *Recorder) Draw(m Mesh) { r.record("Draw", m) }

func (r *Recorder) BeginFrame() error {
	r.record("BeginFrame")
	return nil
}

func (r *Recorder) EndFrame() { r.record("EndFrame") }
