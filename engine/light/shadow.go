package light

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/camera"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// MaxCascades is the largest number of cascades a shadow can split into.
const MaxCascades = 6

// Shadow defaults.
const (
	DefaultTileSize      = 1024
	DefaultShadowBias    = 0.0005
	DefaultNormalBias    = 0.02
	DefaultPCFSamples    = 3
	DefaultPCFRadius     = 1.0
	DefaultCascadeLambda = 0.75

	// SpotShadowNear is the near plane of spot light shadow cameras.
	SpotShadowNear = 0.1
)

type cascade struct {
	cam   camera.Camera
	mount Mount
}

// Shadow is the shadow-casting state of one light: its cascade cameras, the depth atlas they
// render into and the sampling parameters shaders read.
//
// All cascades share one depth target laid out as a grid of square tiles, AtlasGrid(n) tiles
// across. Directional lights split the view frustum into up to MaxCascades depth ranges; spot
// lights always use a single perspective cascade.
type Shadow struct {
	light *lightImpl

	autoCam      bool
	bias         float32
	normalBias   float32
	pcfSamples   int
	pcfRadius    float32
	cascadeCount int
	lambda       float32
	tileSize     int

	cascades [MaxCascades]cascade
	splits   []float32
	mounted  bool

	target gpu.RenderTarget
}

func newShadow(l *lightImpl, opts ...ShadowBuilderOption) *Shadow {
	s := &Shadow{
		light:        l,
		autoCam:      true,
		bias:         DefaultShadowBias,
		normalBias:   DefaultNormalBias,
		pcfSamples:   DefaultPCFSamples,
		pcfRadius:    DefaultPCFRadius,
		cascadeCount: 1,
		lambda:       DefaultCascadeLambda,
		tileSize:     DefaultTileSize,
	}
	for i := range s.cascades {
		s.cascades[i].cam = camera.NewCamera(camera.WithProjection(camera.DefaultOrthographic()))
	}
	for _, opt := range opts {
		opt(s)
	}
	s.SetCascadeCount(s.cascadeCount)
	return s
}

// AutoCam reports whether Update fits the cascade cameras.
func (s *Shadow) AutoCam() bool { return s.autoCam }

// SetAutoCam turns automatic cascade fitting on or off. With it off the cascade cameras keep
// whatever the caller configured.
func (s *Shadow) SetAutoCam(enabled bool) { s.autoCam = enabled }

// Bias returns the constant depth bias.
func (s *Shadow) Bias() float32 { return s.bias }

// SetBias sets the constant depth bias.
func (s *Shadow) SetBias(bias float32) { s.bias = bias }

// NormalBias returns the normal offset applied before the shadow lookup, in world units.
func (s *Shadow) NormalBias() float32 { return s.normalBias }

// SetNormalBias sets the normal offset applied before the shadow lookup.
func (s *Shadow) SetNormalBias(bias float32) { s.normalBias = bias }

// PCFSamples returns the filter kernel width in taps per axis.
func (s *Shadow) PCFSamples() int { return s.pcfSamples }

// SetPCFSamples sets the filter kernel width in taps per axis. Values below 1 become 1.
func (s *Shadow) SetPCFSamples(n int) { s.pcfSamples = max(n, 1) }

// PCFRadius returns the filter radius in texels.
func (s *Shadow) PCFRadius() float32 { return s.pcfRadius }

// SetPCFRadius sets the filter radius in texels.
func (s *Shadow) SetPCFRadius(r float32) { s.pcfRadius = r }

// CascadeLambda returns the blend between logarithmic (1) and linear (0) splits.
func (s *Shadow) CascadeLambda() float32 { return s.lambda }

// SetCascadeLambda sets the split blend factor, clamped to [0, 1].
func (s *Shadow) SetCascadeLambda(lambda float32) { s.lambda = common.Clamp(lambda, 0, 1) }

// TileSize returns the width and height of one cascade's atlas tile in texels.
func (s *Shadow) TileSize() int { return s.tileSize }

// SetTileSize sets the cascade tile size. The depth target is reallocated on next use.
func (s *Shadow) SetTileSize(size int) { s.tileSize = max(size, 1) }

// CascadeCount returns the number of cascades in use.
func (s *Shadow) CascadeCount() int { return s.cascadeCount }

// SetCascadeCount sets the number of cascades. Counts above MaxCascades, below 1, or above 1
// for lights that are not directional are clamped and logged.
//
// Parameters:
//   - n: the requested cascade count
func (s *Shadow) SetCascadeCount(n int) {
	switch {
	case n > MaxCascades:
		common.Logger().Warn("cascade count exceeds maximum, clamping",
			zap.Int("requested", n), zap.Int("max", MaxCascades))
		n = MaxCascades
	case n < 1:
		common.Logger().Warn("cascade count below one, clamping", zap.Int("requested", n))
		n = 1
	}
	if n > 1 && s.light.lightType != LightTypeDirectional {
		common.Logger().Warn("only directional lights support cascades, clamping to one",
			zap.Int("requested", n), zap.Stringer("light", s.light.lightType))
		n = 1
	}
	if n == s.cascadeCount && s.mounted == (s.light.host != nil) {
		return
	}
	s.unmount()
	s.cascadeCount = n
	s.splits = nil
	s.mount()
}

// Camera returns the camera of cascade i.
func (s *Shadow) Camera(i int) camera.Camera {
	return s.cascades[i].cam
}

// Splits returns the cascade boundaries computed by the last Update as view-space distances,
// CascadeCount()+1 values from the view camera's near plane to its far plane.
func (s *Shadow) Splits() []float32 {
	return s.splits
}

// AtlasSize returns the size of the depth target holding every cascade.
func (s *Shadow) AtlasSize() (width, height int) {
	cols, rows := AtlasGrid(s.cascadeCount)
	return cols * s.tileSize, rows * s.tileSize
}

// CascadeViewport returns the atlas rectangle cascade i renders into.
func (s *Shadow) CascadeViewport(i int) gpu.Viewport {
	cols, _ := AtlasGrid(s.cascadeCount)
	return gpu.Viewport{
		X:      int32((i % cols) * s.tileSize),
		Y:      int32((i / cols) * s.tileSize),
		Width:  int32(s.tileSize),
		Height: int32(s.tileSize),
	}
}

// Target returns the depth atlas, allocating it on first use and whenever the atlas size
// changed. A replaced atlas is released.
//
// Parameters:
//   - alloc: the allocator to create and free the atlas with
//
// Returns:
//   - gpu.RenderTarget: the depth target
//   - error: the allocation failure
func (s *Shadow) Target(alloc gpu.TargetAllocator) (gpu.RenderTarget, error) {
	w, h := s.AtlasSize()
	if s.target != nil {
		if tw, th := s.target.Size(); tw == w && th == h {
			return s.target, nil
		}
		alloc.ReleaseRenderTarget(s.target)
		s.target = nil
	}
	t, err := alloc.CreateDepthTarget(w, h)
	if err != nil {
		return nil, fmt.Errorf("shadow atlas %dx%d: %w", w, h, err)
	}
	s.target = t
	return t, nil
}

// ShadowMatrix maps a view-space position of the camera the frame is rendered with to the
// atlas: xy are texture coordinates inside cascade i's tile and z is the depth to compare.
//
// Parameters:
//   - i: the cascade
//   - inverseView: the rendering camera's inverse view matrix
//
// Returns:
//   - mgl32.Mat4: the view-space to atlas transform
func (s *Shadow) ShadowMatrix(i int, inverseView mgl32.Mat4) mgl32.Mat4 {
	cols, rows := AtlasGrid(s.cascadeCount)
	col, row := float32(i%cols), float32(i/cols)
	tile := mgl32.Translate3D(col/float32(cols), row/float32(rows), 0).
		Mul4(mgl32.Scale3D(1/float32(cols), 1/float32(rows), 1))
	bias := mgl32.Translate3D(0.5, 0.5, 0.5).Mul4(mgl32.Scale3D(0.5, 0.5, 0.5))
	return tile.Mul4(bias).Mul4(s.cascades[i].cam.ViewProjectionMatrix()).Mul4(inverseView)
}

// Update refits the cascade cameras to the view camera and the scene bounds. It does nothing
// when AutoCam is off or the light is not attached to a node. The view camera must already be
// updated for this frame.
//
// Parameters:
//   - view: the camera the frame is rendered with
//   - sceneBounds: world-space bounds of everything that may cast a shadow
func (s *Shadow) Update(view camera.Camera, sceneBounds common.AABB) {
	if !s.autoCam || s.light.host == nil {
		return
	}
	switch s.light.lightType {
	case LightTypeDirectional:
		s.fitDirectional(view, sceneBounds)
	case LightTypeSpot:
		s.fitSpot()
	}
}

// fitDirectional places each cascade camera on the light-space +Z face of the box enclosing
// its slice of the view frustum in X/Y and the whole scene in Z.
func (s *Shadow) fitDirectional(view camera.Camera, sceneBounds common.AABB) {
	lightWorld := s.light.host.WorldMatrix()
	lightRot := common.RotationOnly(lightWorld)
	toLight := lightRot.Transpose()
	toLocal := lightWorld.Inv()
	unscale := hostUnscale(lightWorld)

	near, far := view.Projection().NearFar()
	s.splits = CascadeSplits(near, far, s.lambda, s.cascadeCount)
	corners := common.FrustumCorners(view.ViewProjectionMatrix().Inv())

	sceneL := sceneBounds.Transform(toLight)
	depth := far - near

	for i := 0; i < s.cascadeCount; i++ {
		start, end := float32(0), float32(1)
		if depth > 0 {
			start = (s.splits[i] - near) / depth
			end = (s.splits[i+1] - near) / depth
		}
		box := common.EmptyAABB()
		for _, c := range common.FrustumSlice(corners, start, end) {
			box = box.Extend(common.TransformPoint(toLight, c))
		}
		minZ, maxZ := box.Min[2], box.Max[2]
		if !sceneL.IsEmpty() {
			minZ, maxZ = sceneL.Min[2], sceneL.Max[2]
		}

		cx := (box.Min[0] + box.Max[0]) / 2
		cy := (box.Min[1] + box.Max[1]) / 2
		eye := common.TransformPoint(lightRot, mgl32.Vec3{cx, cy, maxZ})

		c := s.cascades[i]
		c.mount.SetPosition(common.TransformPoint(toLocal, eye))
		c.mount.SetRotation(mgl32.QuatIdent())
		c.mount.SetScale(unscale)
		c.cam.SetProjection(camera.Orthographic{
			Left:   box.Min[0] - cx,
			Right:  box.Max[0] - cx,
			Bottom: box.Min[1] - cy,
			Top:    box.Max[1] - cy,
			Near:   0,
			Far:    maxZ - minZ,
		})
		c.cam.Update()
	}
}

// fitSpot gives the single cascade the light's cone as a perspective frustum.
func (s *Shadow) fitSpot() {
	s.splits = nil
	c := s.cascades[0]
	c.mount.SetPosition(mgl32.Vec3{})
	c.mount.SetRotation(mgl32.QuatIdent())
	c.mount.SetScale(hostUnscale(s.light.host.WorldMatrix()))
	c.cam.SetProjection(camera.Perspective{
		FovY:   2 * math32.Acos(s.light.outerCone),
		Aspect: 1,
		Near:   SpotShadowNear,
		Far:    s.light.Range(),
	})
	c.cam.Update()
}

// hostUnscale is the mount scale that cancels the host's world scale, keeping cascade cameras
// rigid so projections stay in world units.
func hostUnscale(hostWorld mgl32.Mat4) mgl32.Vec3 {
	sc := common.ScaleOf(hostWorld)
	for i := range sc {
		if sc[i] == 0 {
			sc[i] = 1
		}
		sc[i] = 1 / sc[i]
	}
	return sc
}

// mount creates a child node of the light's host for every cascade in use and anchors the
// cascade cameras to them.
func (s *Shadow) mount() {
	h := s.light.host
	if h == nil || s.mounted {
		return
	}
	for i := 0; i < s.cascadeCount; i++ {
		m := h.AddMount()
		s.cascades[i].mount = m
		s.cascades[i].cam.SetAnchor(m)
	}
	s.mounted = true
}

func (s *Shadow) unmount() {
	if !s.mounted {
		return
	}
	h := s.light.host
	for i := range s.cascades {
		if m := s.cascades[i].mount; m != nil {
			if h != nil {
				h.RemoveMount(m)
			}
			s.cascades[i].mount = nil
			s.cascades[i].cam.SetAnchor(nil)
		}
	}
	s.mounted = false
}
