package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowDefaults(t *testing.T) {
	w := newEngineWindow()

	assert.Equal(t, ClientOpenGL, w.ClientAPI())
	assert.Equal(t, 1280, w.Width())
	assert.Equal(t, 720, w.Height())
	assert.Equal(t, 1, w.swapInterval)
	assert.False(t, w.IsRunning(), "no platform window was created")
}

func TestWindowOptions(t *testing.T) {
	w := newEngineWindow(
		WithTitle("demo"),
		WithClientAPI(ClientNone),
		WithVSync(false),
		WithWidth(800),
		WithHeight(600),
		WithMinWidth(400),
		WithMaxHeight(500),
	)

	assert.Equal(t, "demo", w.title)
	assert.Equal(t, ClientNone, w.ClientAPI())
	assert.Equal(t, 0, w.swapInterval)
	assert.Equal(t, 800, w.Width())
	assert.Equal(t, 500, w.Height(), "initial size is clamped to the limits")
}

func TestOpenGLWindowHasNoSurfaceDescriptor(t *testing.T) {
	w := newEngineWindow(WithClientAPI(ClientOpenGL))
	assert.Nil(t, w.SurfaceDescriptor())

	w = newEngineWindow(WithClientAPI(ClientNone))
	assert.Nil(t, w.SurfaceDescriptor(), "nil until the platform window exists")
}

func TestFramebufferResized(t *testing.T) {
	w := newEngineWindow()
	var got [][2]int
	w.SetResizeCallback(func(width, height int) {
		got = append(got, [2]int{width, height})
	})

	w.framebufferResized(1920, 1080)
	w.framebufferResized(0, 0)

	assert.Equal(t, [][2]int{{1920, 1080}}, got)
	assert.Equal(t, 1920, w.Width())
	assert.Equal(t, 1080, w.Height())
}

func TestCloseWithoutPlatformWindow(t *testing.T) {
	w := newEngineWindow()
	assert.Error(t, w.Close())
}

func TestClientAPIString(t *testing.T) {
	assert.Equal(t, "opengl", ClientOpenGL.String())
	assert.Equal(t, "none", ClientNone.String())
	assert.Equal(t, "ClientAPI(9)", ClientAPI(9).String())
}
