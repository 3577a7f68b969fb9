package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/camera"
	"github.com/Carmen-Shannon/oxy-forward/engine/light"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/uniform"
	"github.com/Carmen-Shannon/oxy-forward/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Stats describes the last generated queue and the last executed frame.
type Stats struct {
	Nodes     int
	MeshNodes int
	Culled    int
	Lights    int

	ShadowCasters int
	ShadowEntries int

	OpaqueAmbient      int
	OpaqueLight        int
	TransparentAmbient int
	TransparentLight   int

	ShadowQueueExecutions int
	DrawCalls             int
}

// drawItem is a linearized mesh node with the data its queue entries share.
type drawItem struct {
	node     scene.Node
	mesh     gpu.Mesh
	material material.Material
	block    uniform.Block
	world    mgl32.Mat4
	visible  bool
}

type lightItem struct {
	node  scene.Node
	light light.Light
	block uniform.Block
}

type shadowJob struct {
	light  light.Light
	shadow *light.Shadow
	target gpu.RenderTarget
	queues []Queue
}

// nodeData is the renderer's per-node side table entry.
type nodeData struct {
	block uniform.Block
	frame uint64
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	device gpu.Device
	ctx    *pipeline.Context

	viewport     gpu.Viewport
	clearColor   mgl32.Vec4
	clearDepth   float32
	autoClear    bool
	state        pipeline.StateBlock
	stateForced  bool
	target       gpu.RenderTarget
	ambientColor mgl32.Vec3
	culling      bool
	textureUnits int

	sceneBounds    common.AABB
	hasSceneBounds bool

	frame    uint64
	nodes    map[scene.NodeID]*nodeData
	stack    []scene.Node
	items    []drawItem
	lights   [light.LightTypeCount][]lightItem
	shadows  []shadowJob
	queue    Queue
	ambient  uniform.Block
	additive uniform.Block
	overlays []uniform.Block
	overlayN int
	stats    Stats
}

// Renderer draws a scene graph with forward lighting: every mesh is drawn once with ambient
// light and then once more per light, blended additively. Shadowed lights first render their
// cascades into a depth atlas the light passes sample.
//
// A Renderer belongs to the thread that owns the device. Its setters may be called from other
// goroutines; they take effect at the next Render.
type Renderer interface {
	// Render draws root as seen by cam. Generating the queue walks the graph, updates the camera,
	// refits shadow cameras and rebuilds every draw; executing it issues the draws. Executing
	// without regenerating replays the previous frame's queue with the uniform values it
	// captured.
	//
	// Parameters:
	//   - root: the root of the graph to draw
	//   - cam: the camera to draw with
	//   - regenerateQueue: rebuild the queue from the graph
	//   - executeQueue: issue the queued draws
	//
	// Panics if a mesh node has no material, own or inherited.
	Render(root scene.Node, cam camera.Camera, regenerateQueue, executeQueue bool)

	// Resize sets the viewport to cover a width × height surface.
	//
	// Parameters:
	//   - width: the surface width in pixels
	//   - height: the surface height in pixels
	Resize(width, height int)

	// Viewport returns the rectangle the main pass draws into.
	Viewport() gpu.Viewport

	// SetViewport sets the rectangle the main pass draws into.
	SetViewport(v gpu.Viewport)

	// ClearColor returns the color the main target is cleared to.
	ClearColor() mgl32.Vec4

	// SetClearColor sets the color the main target is cleared to.
	SetClearColor(c mgl32.Vec4)

	// ClearDepth returns the depth the main target is cleared to.
	ClearDepth() float32

	// SetClearDepth sets the depth the main target is cleared to.
	SetClearDepth(d float32)

	// AutoClear returns whether Render clears the main target before drawing.
	AutoClear() bool

	// SetAutoClear sets whether Render clears the main target before drawing.
	SetAutoClear(enabled bool)

	// StateBlock returns the state applied at the start of every executed frame.
	StateBlock() pipeline.StateBlock

	// SetStateBlock replaces the state applied at the start of every executed frame. The next
	// frame applies it to the device in full.
	//
	// Parameters:
	//   - s: the new default state
	SetStateBlock(s pipeline.StateBlock)

	// AmbientColor returns the color ambient passes receive.
	AmbientColor() mgl32.Vec3

	// SetAmbientColor sets the color ambient passes receive.
	SetAmbientColor(c mgl32.Vec3)

	// RenderTarget returns the target the main pass draws into, nil for the default framebuffer.
	RenderTarget() gpu.RenderTarget

	// SetRenderTarget redirects the main pass. Shadow atlases are unaffected.
	//
	// Parameters:
	//   - t: the target to draw into, or nil for the default framebuffer
	SetRenderTarget(t gpu.RenderTarget)

	// SetSceneBounds fixes the world-space bounds shadow cameras are fitted to. Without explicit
	// bounds the union of every enabled mesh's world bounds is used.
	//
	// Parameters:
	//   - b: the bounds, or an empty AABB to go back to derived bounds
	SetSceneBounds(b common.AABB)

	// SetFrustumCulling toggles skipping meshes outside the camera frustum in the main pass.
	// Shadow queues are never culled.
	SetFrustumCulling(enabled bool)

	// Queue returns the main pass queue of the last generated frame.
	Queue() *Queue

	// ShadowQueue returns the queue of one cascade of l's shadow, or nil if l had no shadow in
	// the last generated frame.
	//
	// Parameters:
	//   - l: the shadowed light
	//   - cascade: the cascade index
	//
	// Returns:
	//   - *Queue: the cascade's queue, or nil
	ShadowQueue(l light.Light, cascade int) *Queue

	// NodeUniforms returns the per-node uniforms the renderer computed for a mesh node.
	//
	// Parameters:
	//   - id: the node id
	//
	// Returns:
	//   - uniform.Block: the node's matrices
	//   - bool: false if the node was not drawn in the last generated frame
	NodeUniforms(id scene.NodeID) (uniform.Block, bool)

	// Stats returns counters of the last generated and executed frame.
	Stats() Stats

	// Context returns the state cache every draw goes through.
	Context() *pipeline.Context

	// Device returns the device the renderer drives.
	Device() gpu.Device
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer driving device.
//
// Parameters:
//   - device: the device to draw with
//   - options: variadic list of RendererBuilderOption functions to configure the renderer
//
// Returns:
//   - Renderer: the new renderer
func NewRenderer(device gpu.Device, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:           &sync.Mutex{},
		device:       device,
		clearColor:   mgl32.Vec4{0, 0, 0, 1},
		clearDepth:   1,
		autoClear:    true,
		state:        pipeline.DefaultStateBlock(),
		stateForced:  true,
		ambientColor: mgl32.Vec3{0.1, 0.1, 0.1},
		textureUnits: pipeline.MaxTextureUnits,
		sceneBounds:  common.EmptyAABB(),
		nodes:        make(map[scene.NodeID]*nodeData),
		ambient:      uniform.NewBlock(uniform.WithLabel("ambient")),
		additive:     uniform.NewBlock(uniform.WithLabel("additive")),
	}
	for _, opt := range options {
		opt(r)
	}
	r.ctx = pipeline.NewContext(device, pipeline.WithTextureUnits(r.textureUnits))
	return r
}

func (r *renderer) Resize(width, height int) {
	r.SetViewport(gpu.Viewport{Width: int32(width), Height: int32(height)})
}

func (r *renderer) Viewport() gpu.Viewport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewport
}

func (r *renderer) SetViewport(v gpu.Viewport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.viewport = v
}

func (r *renderer) ClearColor() mgl32.Vec4 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clearColor
}

func (r *renderer) SetClearColor(c mgl32.Vec4) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearColor = c
}

func (r *renderer) ClearDepth() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clearDepth
}

func (r *renderer) SetClearDepth(d float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearDepth = d
}

func (r *renderer) AutoClear() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.autoClear
}

func (r *renderer) SetAutoClear(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.autoClear = enabled
}

func (r *renderer) StateBlock() pipeline.StateBlock {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *renderer) SetStateBlock(s pipeline.StateBlock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
	r.stateForced = true
}

func (r *renderer) AmbientColor() mgl32.Vec3 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ambientColor
}

func (r *renderer) SetAmbientColor(c mgl32.Vec3) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ambientColor = c
}

func (r *renderer) RenderTarget() gpu.RenderTarget {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target
}

func (r *renderer) SetRenderTarget(t gpu.RenderTarget) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = t
}

func (r *renderer) SetSceneBounds(b common.AABB) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sceneBounds = b
	r.hasSceneBounds = !b.IsEmpty()
}

func (r *renderer) SetFrustumCulling(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.culling = enabled
}

func (r *renderer) Queue() *Queue {
	return &r.queue
}

func (r *renderer) ShadowQueue(l light.Light, cascade int) *Queue {
	for i := range r.shadows {
		job := &r.shadows[i]
		if job.light == l && cascade >= 0 && cascade < len(job.queues) {
			return &job.queues[cascade]
		}
	}
	return nil
}

func (r *renderer) NodeUniforms(id scene.NodeID) (uniform.Block, bool) {
	d, ok := r.nodes[id]
	if !ok {
		return nil, false
	}
	return d.block, true
}

func (r *renderer) Stats() Stats {
	return r.stats
}

func (r *renderer) Context() *pipeline.Context {
	return r.ctx
}

func (r *renderer) Device() gpu.Device {
	return r.device
}

func (r *renderer) Render(root scene.Node, cam camera.Camera, regenerateQueue, executeQueue bool) {
	r.mu.Lock()
	settings := frameSettings{
		viewport:     r.viewport,
		clearColor:   r.clearColor,
		clearDepth:   r.clearDepth,
		autoClear:    r.autoClear,
		state:        r.state,
		forceState:   r.stateForced,
		target:       r.target,
		ambientColor: r.ambientColor,
		culling:      r.culling,
		sceneBounds:  r.sceneBounds,
		fixedBounds:  r.hasSceneBounds,
	}
	r.stateForced = false
	r.mu.Unlock()

	if regenerateQueue {
		r.generate(root, cam, settings)
	}
	if executeQueue {
		r.execute(settings)
	}
}

// frameSettings is a snapshot of the configurable state taken at the start of Render.
type frameSettings struct {
	viewport     gpu.Viewport
	clearColor   mgl32.Vec4
	clearDepth   float32
	autoClear    bool
	state        pipeline.StateBlock
	forceState   bool
	target       gpu.RenderTarget
	ambientColor mgl32.Vec3
	culling      bool
	sceneBounds  common.AABB
	fixedBounds  bool
}

func (r *renderer) generate(root scene.Node, cam camera.Camera, fs frameSettings) {
	r.frame++
	r.overlayN = 0
	r.stats = Stats{}

	cam.Update()
	bounds := r.linearize(root, cam, fs.culling)
	if fs.fixedBounds {
		bounds = fs.sceneBounds
	}
	r.prune()

	r.buildShadowQueues(cam, bounds)
	r.buildLightBlocks(cam)

	r.ambient.Set("ambientPass", gpu.IntValue(1))
	r.ambient.Set("ambientColor", gpu.Vec3Value(fs.ambientColor))
	r.additive.Set("ambientPass", gpu.IntValue(0))
	r.additive.Set("ambientColor", gpu.Vec3Value(fs.ambientColor))
	r.buildForwardQueue()

	common.Logger().Debug("render queue generated",
		zap.Int("nodes", r.stats.Nodes),
		zap.Int("entries", r.queue.Len()),
		zap.Int("shadowEntries", r.stats.ShadowEntries),
		zap.Int("culled", r.stats.Culled))
}

// linearize walks the enabled part of the graph depth first with children in order, computes
// the per-node uniforms of every mesh node and collects the enabled lights per type. It returns
// the union of the visited meshes' world bounds.
func (r *renderer) linearize(root scene.Node, cam camera.Camera, culling bool) common.AABB {
	r.items = r.items[:0]
	for t := range r.lights {
		r.lights[t] = r.lights[t][:0]
	}
	bounds := common.EmptyAABB()
	if root == nil {
		return bounds
	}

	view := cam.ViewMatrix()
	proj := cam.ProjectionMatrix()
	var frustum common.Frustum
	if culling {
		frustum = common.ExtractFrustum(cam.ViewProjectionMatrix())
	}

	r.stack = append(r.stack[:0], root)
	for len(r.stack) > 0 {
		n := r.stack[len(r.stack)-1]
		r.stack = r.stack[:len(r.stack)-1]
		if !n.Enabled() {
			continue
		}
		r.stats.Nodes++

		if l := n.Light(); l != nil && l.Enabled() {
			r.lights[l.Type()] = append(r.lights[l.Type()], lightItem{node: n, light: l})
			r.stats.Lights++
		}
		if m := n.Mesh(); m != nil {
			if item, ok := r.meshItem(n, view, proj); ok {
				if wb, ok := n.WorldBounds(); ok {
					bounds = bounds.Union(wb)
					item.visible = !culling || frustum.IntersectsAABB(wb)
				}
				if !item.visible {
					r.stats.Culled++
				}
				r.items = append(r.items, item)
				r.stats.MeshNodes++
			}
		}

		for i := n.ChildCount() - 1; i >= 0; i-- {
			r.stack = append(r.stack, n.Child(i))
		}
	}
	clear(r.stack[:cap(r.stack)])
	return bounds
}

// meshItem uploads the node's mesh if needed and refreshes its side table uniforms.
func (r *renderer) meshItem(n scene.Node, view, proj mgl32.Mat4) (drawItem, bool) {
	mat := n.Material()
	if mat == nil {
		panic(fmt.Sprintf("renderer: mesh node %d (%q) has no material", n.ID(), n.Name()))
	}
	m := n.Mesh()
	if m.Mesh() == nil {
		if err := m.Upload(r.device); err != nil {
			common.Logger().Error("mesh upload failed",
				zap.Uint64("node", uint64(n.ID())), zap.String("model", m.Name()), zap.Error(err))
			return drawItem{}, false
		}
	}

	d, ok := r.nodes[n.ID()]
	if !ok {
		d = &nodeData{block: uniform.NewBlock(uniform.WithLabel(fmt.Sprintf("node/%d", n.ID())))}
		r.nodes[n.ID()] = d
	}
	d.frame = r.frame

	world := n.WorldMatrix()
	modelview := view.Mul4(world)
	d.block.Set("model", gpu.Mat4Value(world))
	d.block.Set("view", gpu.Mat4Value(view))
	d.block.Set("projection", gpu.Mat4Value(proj))
	d.block.Set("modelview", gpu.Mat4Value(modelview))
	d.block.Set("normalMatrix", gpu.Mat3Value(common.NormalMatrix(modelview)))
	d.block.Set("modelviewprojection", gpu.Mat4Value(proj.Mul4(modelview)))

	return drawItem{
		node:     n,
		mesh:     m.Mesh(),
		material: mat,
		block:    d.block,
		world:    world,
		visible:  true,
	}, true
}

// prune forgets side table entries of nodes that were not drawn this frame.
func (r *renderer) prune() {
	for id, d := range r.nodes {
		if d.frame != r.frame {
			delete(r.nodes, id)
		}
	}
}

// overlay hands out a cleared per-entry block. Blocks are recycled every generated frame.
func (r *renderer) overlay() uniform.Block {
	if r.overlayN == len(r.overlays) {
		r.overlays = append(r.overlays, uniform.NewBlock(uniform.WithLabel("entry")))
	}
	b := r.overlays[r.overlayN]
	r.overlayN++
	b.Reset()
	return b
}

func (r *renderer) buildForwardQueue() {
	r.queue.reset()
	for _, transparent := range [2]bool{false, true} {
		ambientPhase, lightPhase := PhaseOpaqueAmbient, PhaseOpaqueLight
		if transparent {
			ambientPhase, lightPhase = PhaseTransparentAmbient, PhaseTransparentLight
		}

		for i := range r.items {
			it := &r.items[i]
			if !it.visible || it.material.StateBlock().BlendEnabled() != transparent {
				continue
			}
			if !it.material.HasPass(material.AmbientPass) {
				continue
			}
			program := r.program(it, material.AmbientPass)
			if program == nil {
				continue
			}
			r.queue.push(QueueEntry{
				Node:      it.node,
				Phase:     ambientPhase,
				Pass:      material.AmbientPass,
				Program:   program,
				Mesh:      it.mesh,
				State:     it.material.PassStateBlock(material.AmbientPass),
				Overrides: r.ambient,
			}, it.block, it.material.Uniforms())
		}

		for i := range r.items {
			it := &r.items[i]
			if !it.visible || it.material.StateBlock().BlendEnabled() != transparent || !it.material.Lit() {
				continue
			}
			program := r.program(it, material.LightPass)
			if program == nil {
				continue
			}
			state := additiveState(it.material.PassStateBlock(material.LightPass), transparent)
			for t := range r.lights {
				for _, l := range r.lights[t] {
					r.queue.push(QueueEntry{
						Node:      it.node,
						Phase:     lightPhase,
						Pass:      material.LightPass,
						Program:   program,
						Mesh:      it.mesh,
						State:     state,
						Overrides: r.additive,
					}, it.block, it.material.Uniforms(), l.block)
				}
			}
		}
	}

	r.stats.OpaqueAmbient = r.queue.Count(PhaseOpaqueAmbient)
	r.stats.OpaqueLight = r.queue.Count(PhaseOpaqueLight)
	r.stats.TransparentAmbient = r.queue.Count(PhaseTransparentAmbient)
	r.stats.TransparentLight = r.queue.Count(PhaseTransparentLight)
}

// additiveState turns a pass state into the one a light pass is drawn with: blending onto what
// earlier passes wrote, with the destination factor one, and the depth test restricted to the
// surfaces the ambient pass left in the depth buffer.
func additiveState(s pipeline.StateBlock, transparent bool) pipeline.StateBlock {
	src, _ := s.BlendFactors()
	if !transparent {
		src = gpu.BlendOne
	}
	s.SetBlendFactors(src, gpu.BlendOne)
	s.SetBlendEnabled(true)
	s.SetDepthFunc(s.AdditionalPassDepthFunc())
	return s
}

func (r *renderer) program(it *drawItem, pass int) gpu.Program {
	p := it.material.Program(r.device, pass)
	if p == nil {
		common.Logger().Debug("pass skipped without a program",
			zap.String("material", it.material.Name()),
			zap.String("pass", material.PassName(pass)),
			zap.Uint64("node", uint64(it.node.ID())))
	}
	return p
}

func (r *renderer) execute(fs frameSettings) {
	ctx := r.ctx
	r.stats.DrawCalls = 0
	r.stats.ShadowQueueExecutions = 0

	r.executeShadows()

	if err := ctx.BindRenderTarget(fs.target); err != nil {
		common.Logger().Error("main render target unusable", zap.Error(err))
	}
	ctx.SetViewport(fs.viewport)
	ctx.SetClearColor(fs.clearColor)
	ctx.SetClearDepth(fs.clearDepth)
	ctx.SetColorWrite(true)
	if fs.forceState {
		fs.state.ApplyForced(ctx)
	} else {
		fs.state.Apply(ctx)
	}
	if fs.autoClear {
		ctx.Clear(true, true, false)
	}

	r.stats.DrawCalls += r.queue.execute(ctx)
}
