package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/config"
	"github.com/Carmen-Shannon/oxy-forward/engine/profiler"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu/glgpu"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu/wgpugpu"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-forward/engine/scene"
	"github.com/Carmen-Shannon/oxy-forward/engine/window"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// maxPendingTicks bounds the ticks queued on the tick worker. Ticks arriving while the queue is
// full are dropped rather than blocking the ticker.
const maxPendingTicks = 4

// engine implements the Engine interface.
// Frames render on the thread that owns the window; ticks run on a single-worker pool.
type engine struct {
	cfg config.Config

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window       window.Window
	windowClosed bool

	device   gpu.Device
	language shader.Language
	release  func()
	resize   func(width, height int) error

	renderer        renderer.Renderer
	rendererOptions []renderer.RendererBuilderOption
	post            *renderer.PostEffect
	width, height   int

	pool         worker.DynamicWorkerPool
	pendingTicks atomic.Int32
	tickCount    int

	// graphMu serializes ticks against frames; neither the node graph nor the cameras are
	// safe for concurrent use.
	graphMu sync.Mutex

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate time.Duration
	// Callbacks may be replaced from any goroutine while ticks and frames run.
	tickCallback   atomic.Pointer[func(deltaTime float32)]
	renderCallback atomic.Pointer[func(deltaTime float32)]

	scenesMu sync.RWMutex
	scenes   map[int]scene.Scene

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	lastFrame        time.Time
	frames           uint64
}

// Engine is the main entry point for the engine.
// It owns the window, the device and the renderer, renders the active scenes every frame and
// runs game logic at a fixed tick rate.
type Engine interface {
	// Config returns the settings the engine was built from.
	//
	// Returns:
	//   - config.Config: the validated settings
	Config() config.Config

	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance, nil for the headless backend
	Window() window.Window

	// Device returns the device frames are drawn with.
	//
	// Returns:
	//   - gpu.Device: the device
	Device() gpu.Device

	// ShaderLanguage returns the shading language the device compiles. Materials built for the
	// engine must use it.
	//
	// Returns:
	//   - shader.Language: LanguageGLSL or LanguageWGSL
	ShaderLanguage() shader.Language

	// Renderer returns the renderer every scene is drawn with.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// PostEffect returns the tone mapping pass, or nil when post processing is disabled.
	//
	// Returns:
	//   - *renderer.PostEffect: the post effect or nil
	PostEffect() *renderer.PostEffect

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	// Ticks run on a worker goroutine while no frame is rendering, so the callback may mutate
	// the scene graphs freely.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each rendered frame on the render
	// thread.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// AddScene registers a scene at the given z-index key.
	// Scenes are rendered in ascending key order during the render loop; later scenes draw
	// over earlier ones without clearing.
	//
	// Parameters:
	//   - key: the z-index determining render order (lower renders first)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given z-index key.
	// Returns nil if no scene exists at that key.
	//
	// Parameters:
	//   - key: the z-index of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by z-index.
	//
	// Returns:
	//   - map[int]scene.Scene: a copy of the scenes map
	Scenes() map[int]scene.Scene

	// Resize resizes the surface, the renderer viewport, the post target and the camera
	// aspect of every scene. The window's resize events call it.
	//
	// Parameters:
	//   - width, height: the new framebuffer size in pixels
	Resize(width, height int)

	// RenderFrame draws every active scene once on the calling thread.
	//
	// Parameters:
	//   - deltaTime: seconds since the previous frame, passed to the render callback
	RenderFrame(deltaTime float32)

	// Frames returns the number of frames rendered so far.
	Frames() uint64

	// Run starts the main engine loop and blocks until the window closes or Quit is called.
	// It must be called on the thread that created the engine.
	Run()

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates the window, device and renderer the configuration asks for.
// Options are applied directly to the engine struct via the option-builder pattern; a window or
// device supplied through options is used instead of creating one. For the OpenGL and WebGPU
// backends NewEngine must run on the main thread, which then has to call Run.
//
// Parameters:
//   - options: functional options for engine configuration (config, profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
//   - error: the configuration is invalid or a backend resource could not be created
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		scenes:          make(map[int]scene.Scene),
		profiler:        profiler.NewProfiler(),
	}
	WithConfig(config.Default())(e)

	for _, opt := range options {
		opt(e)
	}

	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := e.initBackend(); err != nil {
		return nil, err
	}
	if err := e.initRenderer(); err != nil {
		e.releaseBackend()
		return nil, err
	}

	for _, s := range e.scenes {
		if c := s.Camera(); c != nil {
			c.SetAspect(float32(e.width) / float32(e.height))
		}
	}
	if e.window != nil {
		e.window.SetResizeCallback(e.Resize)
	}
	e.pool = worker.NewDynamicWorkerPool(1, maxPendingTicks, time.Second)

	common.Logger().Info("engine ready",
		zap.String("backend", string(e.cfg.Backend)),
		zap.Int("width", e.width),
		zap.Int("height", e.height),
		zap.Bool("post", e.post != nil))
	return e, nil
}

// initBackend creates the device for the configured backend, and the window it presents to.
func (e *engine) initBackend() error {
	if e.device != nil {
		e.width, e.height = e.cfg.Window.Width, e.cfg.Window.Height
		if e.window != nil {
			e.width, e.height = e.window.Width(), e.window.Height()
		}
		return nil
	}

	switch e.cfg.Backend {
	case config.BackendHeadless:
		e.device = gpu.NewRecorder()
		e.language = shader.LanguageGLSL
		e.width, e.height = e.cfg.Window.Width, e.cfg.Window.Height
		return nil

	case config.BackendOpenGL:
		if err := e.ensureWindow(window.ClientOpenGL); err != nil {
			return err
		}
		dev, err := glgpu.NewDevice(glgpu.WithSwapFunc(e.window.SwapBuffers))
		if err != nil {
			return fmt.Errorf("opengl device: %w", err)
		}
		e.device = dev
		e.language = shader.LanguageGLSL

	case config.BackendWebGPU:
		if err := e.ensureWindow(window.ClientNone); err != nil {
			return err
		}
		desc := e.window.SurfaceDescriptor()
		if desc == nil {
			return errors.New("webgpu backend: window has no surface descriptor")
		}
		present := wgpugpu.PresentModeUncapped
		if e.cfg.Window.VSync {
			present = wgpugpu.PresentModeVSync
		}
		dev, err := wgpugpu.NewDevice(desc, e.window.Width(), e.window.Height(),
			wgpugpu.WithPresentMode(present),
			wgpugpu.WithSampleCount(wgpugpu.MSAASampleCount(e.cfg.Renderer.MSAA)),
		)
		if err != nil {
			return fmt.Errorf("webgpu device: %w", err)
		}
		e.device = dev
		e.language = shader.LanguageWGSL
		e.resize = dev.Resize
		e.release = dev.Release

	default:
		return fmt.Errorf("%w: %q", config.ErrUnknownBackend, e.cfg.Backend)
	}

	e.width, e.height = e.window.Width(), e.window.Height()
	return nil
}

// ensureWindow creates the window if none was supplied and checks its client API otherwise.
func (e *engine) ensureWindow(api window.ClientAPI) error {
	if e.window != nil {
		if e.window.ClientAPI() != api {
			return fmt.Errorf("%s backend needs a %s window, got %s", e.cfg.Backend, api, e.window.ClientAPI())
		}
		return nil
	}
	w, err := window.NewWindow(
		window.WithTitle(e.cfg.Window.Title),
		window.WithWidth(e.cfg.Window.Width),
		window.WithHeight(e.cfg.Window.Height),
		window.WithClientAPI(api),
		window.WithVSync(e.cfg.Window.VSync),
	)
	if err != nil {
		return err
	}
	e.window = w
	return nil
}

func (e *engine) initRenderer() error {
	rc := e.cfg.Renderer
	opts := []renderer.RendererBuilderOption{
		renderer.WithSize(e.width, e.height),
		renderer.WithClearColor(mgl32.Vec4(rc.ClearColor)),
		renderer.WithAmbientColor(mgl32.Vec3(rc.Ambient)),
		renderer.WithAutoClear(rc.AutoClear),
	}
	if rc.FrustumCulling {
		opts = append(opts, renderer.WithFrustumCulling())
	}
	e.renderer = renderer.NewRenderer(e.device, append(opts, e.rendererOptions...)...)

	if rc.PostEffect {
		post, err := renderer.NewPostEffect(e.renderer.Context(), e.language, e.width, e.height, renderer.WithExposure(rc.Exposure))
		if err != nil {
			return fmt.Errorf("post effect: %w", err)
		}
		e.post = post
	}
	return nil
}

func (e *engine) releaseBackend() {
	if e.window != nil && !e.windowClosed {
		if err := e.window.Close(); err != nil {
			common.Logger().Debug("window close", zap.Error(err))
		}
		e.windowClosed = true
	}
	if e.release != nil {
		e.release()
		e.release = nil
	}
}

func (e *engine) Config() config.Config {
	return e.cfg
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Device() gpu.Device {
	return e.device
}

func (e *engine) ShaderLanguage() shader.Language {
	return e.language
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) PostEffect() *renderer.PostEffect {
	return e.post
}

func (e *engine) Frames() uint64 {
	return e.frames
}

func (e *engine) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.graphMu.Lock()
	defer e.graphMu.Unlock()

	e.width, e.height = width, height
	if e.resize != nil {
		if err := e.resize(width, height); err != nil {
			common.Logger().Error("surface resize failed", zap.Error(err))
		}
	}
	e.renderer.Resize(width, height)
	if e.post != nil {
		if err := e.post.Resize(width, height); err != nil {
			common.Logger().Error("post target resize failed", zap.Error(err))
		}
	}
	aspect := float32(width) / float32(height)
	for _, s := range e.Scenes() {
		if c := s.Camera(); c != nil {
			c.SetAspect(aspect)
		}
	}
}

func (e *engine) Run() {
	e.running.Store(true)
	e.lastFrame = time.Now()
	e.handle()

	if e.window == nil {
		e.runHeadless()
	} else {
		e.window.SetUpdateCallback(e.update)
		e.window.ProcessMessages()
	}
	e.shutdown()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quitChannel)
	})
}

// handle launches the tick loop. Rendering stays on the calling thread.
func (e *engine) handle() {
	e.wg.Add(1)
	go e.handleEngine()
}

// shutdown stops the tick loop and the worker pool, then releases the window and device.
func (e *engine) shutdown() {
	e.signalQuit()
	e.wg.Wait()
	e.pool.Stop()
	e.releaseBackend()
	common.Logger().Info("engine stopped", zap.Uint64("frames", e.frames))
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Each tick is handed to the worker pool and listens for dynamic rate changes via
// tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			e.submitTick(dt)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// submitTick queues one tick on the worker pool, dropping it if earlier ticks are still queued.
func (e *engine) submitTick(dt float32) bool {
	cb := e.tickCallback.Load()
	if cb == nil {
		return false
	}
	callback := *cb
	if e.pendingTicks.Load() >= maxPendingTicks {
		common.Logger().Debug("tick dropped", zap.Int32("pending", e.pendingTicks.Load()))
		return false
	}
	e.pendingTicks.Add(1)
	e.tickCount++
	e.pool.SubmitTask(worker.Task{
		ID:      e.tickCount,
		Payload: dt,
		Do: func() (any, error) {
			defer e.pendingTicks.Add(-1)
			return nil, e.runTick(callback, dt)
		},
	})
	return true
}

// runTick calls the tick callback with the graph locked. A panicking callback stops the engine.
func (e *engine) runTick(callback func(float32), dt float32) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick panicked: %v", r)
			common.Logger().Error("tick recovered from panic", zap.Any("panic", r))
			e.signalQuit()
		}
	}()
	e.graphMu.Lock()
	defer e.graphMu.Unlock()
	callback(dt)
	return nil
}

// update is the window's per-iteration callback: it closes the window once quit was signalled
// and otherwise renders a frame.
func (e *engine) update() {
	select {
	case <-e.quitChannel:
		if !e.windowClosed {
			if err := e.window.Close(); err != nil {
				common.Logger().Debug("window close", zap.Error(err))
			}
			e.windowClosed = true
		}
		return
	default:
	}
	e.step()
}

func (e *engine) runHeadless() {
	for {
		select {
		case <-e.quitChannel:
			return
		default:
			e.step()
		}
	}
}

// step renders one frame and sleeps off the remainder of the frame limit.
func (e *engine) step() {
	start := time.Now()
	dt := float32(start.Sub(e.lastFrame).Seconds())
	e.lastFrame = start

	e.RenderFrame(dt)

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - time.Since(start); remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

func (e *engine) RenderFrame(deltaTime float32) {
	active := e.activeScenes()

	e.graphMu.Lock()
	if err := e.device.BeginFrame(); err != nil {
		e.graphMu.Unlock()
		common.Logger().Error("begin frame failed", zap.Error(err))
		return
	}
	e.drawScenes(active)
	e.graphMu.Unlock()
	e.device.EndFrame()
	e.frames++

	if cb := e.renderCallback.Load(); cb != nil {
		(*cb)(deltaTime)
	}
	if e.profilingEnabled.Load() {
		e.profiler.Tick()
	}
}

// activeScenes returns the active scenes in ascending z-index order.
func (e *engine) activeScenes() []scene.Scene {
	e.scenesMu.RLock()
	defer e.scenesMu.RUnlock()

	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	active := make([]scene.Scene, 0, len(keys))
	for _, k := range keys {
		if s := e.scenes[k]; s.Active() {
			active = append(active, s)
		}
	}
	return active
}

// drawScenes renders the scenes into the post target when post processing is on, then resolves
// it onto the default framebuffer.
func (e *engine) drawScenes(active []scene.Scene) {
	r := e.renderer
	if e.post != nil {
		r.SetRenderTarget(e.post.Target())
	}

	autoClear := r.AutoClear()
	for i, s := range active {
		if i > 0 {
			r.SetAutoClear(false)
		}
		if b, ok := s.Bounds(); ok {
			r.SetSceneBounds(b)
		} else {
			r.SetSceneBounds(common.EmptyAABB())
		}
		r.Render(s.Root(), s.Camera(), true, true)
	}
	r.SetAutoClear(autoClear)

	if e.post != nil && len(active) > 0 {
		if err := e.post.Render(r.Context(), r.Viewport()); err != nil {
			common.Logger().Error("post effect failed", zap.Error(err))
		}
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	newRate := tickInterval(fps)

	if e.running.Load() {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback.Store(callbackRef(callback))
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback.Store(callbackRef(callback))
}

// callbackRef boxes callback for atomic storage, mapping nil to a nil pointer.
func callbackRef(callback func(deltaTime float32)) *func(deltaTime float32) {
	if callback == nil {
		return nil
	}
	return &callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameInterval(fps)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	if c := s.Camera(); c != nil && e.height > 0 {
		c.SetAspect(float32(e.width) / float32(e.height))
	}
	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.scenesMu.RLock()
	defer e.scenesMu.RUnlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.scenesMu.RLock()
	defer e.scenesMu.RUnlock()
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}

func tickInterval(fps float64) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Duration(float64(time.Second) / fps)
}

func frameInterval(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
