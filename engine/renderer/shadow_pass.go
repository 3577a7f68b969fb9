package renderer

import (
	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/camera"
	"github.com/Carmen-Shannon/oxy-forward/engine/light"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/uniform"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// buildShadowQueues refits every shadowed light's cascade cameras and queues each mesh once per
// cascade. Meshes draw with their material's shadow map pass, or the ambient pass when the
// material has none.
func (r *renderer) buildShadowQueues(cam camera.Camera, bounds common.AABB) {
	n := 0
	for t := range r.lights {
		for _, li := range r.lights[t] {
			sh := li.light.Shadow()
			if sh == nil {
				continue
			}
			sh.Update(cam, bounds)
			if !sh.AutoCam() {
				for c := 0; c < sh.CascadeCount(); c++ {
					sh.Camera(c).Update()
				}
			}

			if n == len(r.shadows) {
				r.shadows = append(r.shadows, shadowJob{})
			}
			job := &r.shadows[n]
			n++
			job.light, job.shadow = li.light, sh
			target, err := sh.Target(r.ctx)
			if err != nil {
				common.Logger().Error("shadow atlas unavailable", zap.Error(err))
				target = nil
			}
			job.target = target

			cascades := sh.CascadeCount()
			for len(job.queues) < cascades {
				job.queues = append(job.queues, Queue{})
			}
			job.queues = job.queues[:cascades]
			for c := 0; c < cascades; c++ {
				r.fillShadowQueue(&job.queues[c], sh.Camera(c).ViewProjectionMatrix())
				r.stats.ShadowEntries += job.queues[c].Len()
			}
			r.stats.ShadowCasters++
		}
	}
	for i := n; i < len(r.shadows); i++ {
		r.shadows[i] = shadowJob{queues: r.shadows[i].queues[:0]}
	}
	r.shadows = r.shadows[:n]
}

func (r *renderer) fillShadowQueue(q *Queue, viewProj mgl32.Mat4) {
	q.reset()
	for i := range r.items {
		it := &r.items[i]
		pass := material.ShadowMapPass
		if !it.material.HasPass(pass) {
			pass = material.AmbientPass
			if !it.material.HasPass(pass) {
				continue
			}
		}
		program := r.program(it, pass)
		if program == nil {
			continue
		}
		o := r.overlay()
		o.Set("modelviewprojection", gpu.Mat4Value(viewProj.Mul4(it.world)))
		q.push(QueueEntry{
			Node:      it.node,
			Phase:     PhaseShadow,
			Pass:      pass,
			Program:   program,
			Mesh:      it.mesh,
			State:     it.material.PassStateBlock(pass),
			Overrides: o,
		}, it.block, it.material.Uniforms())
	}
}

// buildLightBlocks fills one uniform block per enabled light with its view-space parameters
// and, for shadowed lights, the atlas and the matrices that sample it.
func (r *renderer) buildLightBlocks(cam camera.Camera) {
	view := cam.ViewMatrix()
	invView := cam.InverseViewMatrix()
	for t := range r.lights {
		for i := range r.lights[t] {
			li := &r.lights[t][i]
			l := li.light
			b := r.overlay()
			li.block = b

			b.Set("light.type", gpu.IntValue(int32(l.Type())))
			b.Set("light.color", gpu.Vec3Value(l.Color()))
			b.Set("light.position", gpu.Vec3Value(common.TransformPoint(view, l.Position())))
			b.Set("light.direction", gpu.Vec3Value(common.TransformDirection(view, l.Direction()).Normalize()))
			b.Set("light.radius", gpu.FloatValue(l.Radius()))
			b.Set("light.attenCutoff", gpu.FloatValue(l.AttenCutoff()))
			b.Set("light.range", gpu.FloatValue(l.Range()))
			b.Set("light.innerAngle", gpu.FloatValue(l.InnerCone()))
			b.Set("light.outerAngle", gpu.FloatValue(l.OuterCone()))

			job := r.shadowJob(l)
			if job == nil || job.target == nil {
				b.Set("light.shadowed", gpu.BoolValue(false))
				continue
			}
			r.setShadowUniforms(b, job.shadow, job.target, invView)
		}
	}
}

func (r *renderer) setShadowUniforms(b uniform.Block, sh *light.Shadow, target gpu.RenderTarget, invView mgl32.Mat4) {
	cascades := sh.CascadeCount()
	splits := sh.Splits()
	matrices := make([]mgl32.Mat4, light.MaxCascades)
	far := make([]float32, light.MaxCascades)
	for i := range matrices {
		matrices[i] = mgl32.Ident4()
		far[i] = math32.MaxFloat32
	}
	for i := 0; i < cascades; i++ {
		matrices[i] = sh.ShadowMatrix(i, invView)
		if i+1 < len(splits) {
			far[i] = splits[i+1]
		}
	}

	b.Set("light.shadowed", gpu.BoolValue(true))
	b.Set("light.shadowMap", gpu.TextureValue(target.DepthTexture()))
	b.Set("light.shadowMatrix", gpu.Mat4ArrayValue(matrices))
	b.Set("light.shadowSplits", gpu.FloatArrayValue(far))
	b.Set("light.shadowCascades", gpu.IntValue(int32(cascades)))
	b.Set("light.shadowBias", gpu.FloatValue(sh.Bias()))
	b.Set("light.shadowNormalBias", gpu.FloatValue(sh.NormalBias()))
	b.Set("light.pcfSamples", gpu.IntValue(int32(sh.PCFSamples())))
	b.Set("light.pcfRadius", gpu.FloatValue(sh.PCFRadius()))
}

func (r *renderer) shadowJob(l light.Light) *shadowJob {
	for i := range r.shadows {
		if r.shadows[i].light == l {
			return &r.shadows[i]
		}
	}
	return nil
}

// executeShadows renders every cascade into its light's atlas tile with color writes masked.
// A light whose atlas cannot be bound is skipped; its light passes still sample the atlas.
func (r *renderer) executeShadows() {
	ctx := r.ctx
	for i := range r.shadows {
		job := &r.shadows[i]
		if job.target == nil {
			continue
		}
		if err := ctx.BindRenderTarget(job.target); err != nil {
			common.Logger().Error("shadow atlas unusable", zap.Error(err))
			continue
		}
		ctx.SetColorWrite(false)
		ctx.SetClearDepth(1)
		ctx.Clear(false, true, false)
		for c := range job.queues {
			ctx.SetViewport(job.shadow.CascadeViewport(c))
			r.stats.DrawCalls += job.queues[c].execute(ctx)
			r.stats.ShadowQueueExecutions++
		}
	}
}
