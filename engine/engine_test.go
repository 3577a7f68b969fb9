package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/camera"
	"github.com/Carmen-Shannon/oxy-forward/engine/config"
	"github.com/Carmen-Shannon/oxy-forward/engine/model"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-forward/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func headlessConfig() config.Config {
	cfg := config.Default()
	cfg.Backend = config.BackendHeadless
	cfg.Window.Width, cfg.Window.Height = 800, 600
	return cfg
}

func newHeadless(t *testing.T, cfg config.Config, options ...EngineBuilderOption) *engine {
	t.Helper()
	en, err := NewEngine(append([]EngineBuilderOption{WithConfig(cfg)}, options...)...)
	require.NoError(t, err)
	e := en.(*engine)
	t.Cleanup(e.pool.Stop)
	return e
}

func newBoxScene(t *testing.T, name string, active bool) scene.Scene {
	t.Helper()
	mat, err := renderer.NewForwardMaterial(shader.LanguageGLSL)
	require.NoError(t, err)
	cam := camera.NewCamera(
		camera.WithProjection(camera.DefaultPerspective()),
		camera.WithViewMatrix(mgl32.LookAtV(mgl32.Vec3{0, 3, 6}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})),
	)
	return scene.NewScene(name,
		scene.WithActive(active),
		scene.WithSceneCamera(cam),
		scene.WithNodes(scene.NewNode(
			scene.WithName(name+"-box"),
			scene.WithMesh(model.Box(name, mgl32.Vec3{1, 1, 1})),
			scene.WithMaterial(mat),
		)),
	)
}

func observeLogs(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	prev := common.Logger()
	common.SetLogger(zap.New(core))
	t.Cleanup(func() { common.SetLogger(prev) })
	return logs
}

func TestNewEngineHeadless(t *testing.T) {
	e := newHeadless(t, headlessConfig())

	assert.IsType(t, &gpu.Recorder{}, e.Device())
	assert.Equal(t, shader.LanguageGLSL, e.ShaderLanguage())
	assert.Nil(t, e.Window())
	assert.Nil(t, e.PostEffect())
	assert.Equal(t, gpu.Viewport{Width: 800, Height: 600}, e.Renderer().Viewport())
	assert.Equal(t, time.Second/60, e.engineTickRate)
	assert.Equal(t, config.BackendHeadless, e.Config().Backend)
}

func TestNewEngineUnknownBackend(t *testing.T) {
	cfg := headlessConfig()
	cfg.Backend = "vulkan"
	_, err := NewEngine(WithConfig(cfg))
	require.ErrorIs(t, err, config.ErrUnknownBackend)
}

func TestNewEngineSuppliedDevice(t *testing.T) {
	rec := gpu.NewRecorder()
	cfg := headlessConfig()
	cfg.Backend = config.BackendWebGPU
	e := newHeadless(t, cfg, WithDevice(rec, shader.LanguageWGSL))

	assert.Same(t, rec, e.Device())
	assert.Equal(t, shader.LanguageWGSL, e.ShaderLanguage())
	assert.Nil(t, e.Window())
}

func TestOptionsOverrideConfig(t *testing.T) {
	cfg := headlessConfig()
	cfg.Engine.TickRate = 20
	cfg.Engine.FrameLimit = 50
	e := newHeadless(t, cfg, WithTickRate(40), WithProfiling(true))

	assert.Equal(t, time.Second/40, e.engineTickRate)
	assert.Equal(t, time.Second/50, e.renderFrameLimit)
	assert.True(t, e.profilingEnabled.Load())
}

func TestRenderFrameDrawsActiveScenes(t *testing.T) {
	back := newBoxScene(t, "back", true)
	front := newBoxScene(t, "front", true)
	hidden := newBoxScene(t, "hidden", false)
	e := newHeadless(t, headlessConfig(), WithScene(2, front), WithScene(1, back), WithScene(3, hidden))
	rec := e.Device().(*gpu.Recorder)

	var got float32
	e.SetRenderCallback(func(dt float32) { got = dt })
	e.RenderFrame(0.25)

	assert.Equal(t, 1, rec.Count("BeginFrame"))
	assert.Equal(t, 1, rec.Count("EndFrame"))
	assert.Equal(t, 2, rec.Count("Draw"))
	assert.Equal(t, 1, rec.Count("Clear"), "only the first scene clears")
	assert.True(t, e.Renderer().AutoClear())
	assert.Equal(t, float32(0.25), got)
	assert.Equal(t, uint64(1), e.Frames())

	calls := rec.Calls()
	assert.Equal(t, "BeginFrame", calls[0].Name)
	assert.Equal(t, "EndFrame", calls[len(calls)-1].Name)
}

func TestRenderFrameAppliesCameraAspect(t *testing.T) {
	s := newBoxScene(t, "main", true)
	e := newHeadless(t, headlessConfig(), WithScene(0, s))

	p, ok := s.Camera().Projection().(camera.Perspective)
	require.True(t, ok)
	assert.InDelta(t, 800.0/600.0, p.Aspect, 1e-6)

	late := newBoxScene(t, "late", true)
	e.AddScene(1, late)
	p = late.Camera().Projection().(camera.Perspective)
	assert.InDelta(t, 800.0/600.0, p.Aspect, 1e-6)
}

func TestPostEffect(t *testing.T) {
	cfg := headlessConfig()
	cfg.Renderer.PostEffect = true
	cfg.Renderer.Exposure = 2
	e := newHeadless(t, cfg, WithScene(0, newBoxScene(t, "main", true)))
	rec := e.Device().(*gpu.Recorder)

	post := e.PostEffect()
	require.NotNil(t, post)
	assert.Equal(t, float32(2), post.Exposure())

	e.RenderFrame(0.016)
	assert.Equal(t, post.Target(), e.Renderer().RenderTarget())
	assert.Equal(t, 2, rec.Count("Draw"), "scene box and the full-screen quad")
}

func TestResize(t *testing.T) {
	cfg := headlessConfig()
	cfg.Renderer.PostEffect = true
	s := newBoxScene(t, "main", true)
	e := newHeadless(t, cfg, WithScene(0, s))

	e.Resize(1024, 512)
	assert.Equal(t, gpu.Viewport{Width: 1024, Height: 512}, e.Renderer().Viewport())
	w, h := e.PostEffect().Target().Size()
	assert.Equal(t, 1024, w)
	assert.Equal(t, 512, h)
	p := s.Camera().Projection().(camera.Perspective)
	assert.InDelta(t, 2.0, p.Aspect, 1e-6)

	e.Resize(0, 300)
	assert.Equal(t, gpu.Viewport{Width: 1024, Height: 512}, e.Renderer().Viewport())
}

func TestSubmitTickRunsOnWorker(t *testing.T) {
	e := newHeadless(t, headlessConfig())
	ticks := make(chan float32, 1)
	e.SetTickCallback(func(dt float32) { ticks <- dt })

	require.True(t, e.submitTick(0.5))
	select {
	case dt := <-ticks:
		assert.Equal(t, float32(0.5), dt)
	case <-time.After(2 * time.Second):
		t.Fatal("tick never ran")
	}
	assert.Eventually(t, func() bool { return e.pendingTicks.Load() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSubmitTickDropsWhenBacklogged(t *testing.T) {
	e := newHeadless(t, headlessConfig())
	assert.False(t, e.submitTick(0.1), "no callback")

	e.SetTickCallback(func(float32) {})
	e.pendingTicks.Store(maxPendingTicks)
	assert.False(t, e.submitTick(0.1))
}

func TestSetCallbacksWhileRunning(t *testing.T) {
	e := newHeadless(t, headlessConfig())
	var ran atomic.Int32
	e.SetTickCallback(func(float32) { ran.Add(1) })

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			e.SetTickCallback(func(float32) { ran.Add(1) })
			e.SetRenderCallback(func(float32) {})
		}
	}()
	for i := 0; i < 200; i++ {
		e.submitTick(0.01)
		e.RenderFrame(0.01)
	}
	<-done
	assert.Eventually(t, func() bool { return e.pendingTicks.Load() == 0 }, 2*time.Second, 5*time.Millisecond)
	assert.Positive(t, ran.Load())

	e.SetTickCallback(nil)
	assert.False(t, e.submitTick(0.01), "a cleared callback stops ticks")
}

func TestTickPanicStopsEngine(t *testing.T) {
	logs := observeLogs(t, zapcore.ErrorLevel)
	e := newHeadless(t, headlessConfig())

	err := e.runTick(func(float32) { panic("boom") }, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 1, logs.FilterMessage("tick recovered from panic").Len())

	select {
	case <-e.quitChannel:
	default:
		t.Fatal("quit was not signalled")
	}
	assert.NotPanics(t, e.Quit)
}

func TestRunHeadlessUntilQuit(t *testing.T) {
	e := newHeadless(t, headlessConfig(), WithScene(0, newBoxScene(t, "main", true)))
	e.SetRenderCallback(func(float32) {
		if e.Frames() >= 3 {
			e.Quit()
		}
	})

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		e.Quit()
		t.Fatal("Run did not return after Quit")
	}
	assert.GreaterOrEqual(t, e.Frames(), uint64(3))
	assert.False(t, e.running.Load())
}

func TestSetTickRate(t *testing.T) {
	e := newHeadless(t, headlessConfig())
	e.SetTickRate(30)
	assert.Equal(t, time.Second/30, e.engineTickRate)

	e.running.Store(true)
	e.SetTickRate(10)
	e.SetTickRate(120)
	assert.Equal(t, time.Second/120, <-e.tickRateChannel)
	assert.Equal(t, time.Second/30, e.engineTickRate)
}

func TestIntervals(t *testing.T) {
	assert.Equal(t, time.Second/60, tickInterval(0))
	assert.Equal(t, 4*time.Millisecond, tickInterval(250))
	assert.Zero(t, frameInterval(-1))
	assert.Equal(t, 10*time.Millisecond, frameInterval(100))
}
