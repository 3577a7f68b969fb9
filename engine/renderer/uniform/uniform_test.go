package uniform

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockSetKeepsOrder(t *testing.T) {
	b := NewBlock(WithLabel("node"), WithValue("model", gpu.Mat4Value(mgl32.Ident4())))
	b.Set("view", gpu.Mat4Value(mgl32.Ident4()))
	b.Set("model", gpu.Mat4Value(mgl32.Translate3D(1, 0, 0)))

	assert.Equal(t, "node", b.Label())
	assert.Equal(t, []string{"model", "view"}, b.Names())
	v, ok := b.Get("model")
	require.True(t, ok)
	assert.Equal(t, mgl32.Translate3D(1, 0, 0), v.Mat4(0))
}

func TestBlockDelete(t *testing.T) {
	b := NewBlock()
	b.Set("a", gpu.IntValue(1))
	b.Set("b", gpu.IntValue(2))
	b.Set("c", gpu.IntValue(3))
	b.Delete("b")
	b.Delete("missing")

	assert.Equal(t, []string{"a", "c"}, b.Names())
	v, ok := b.Get("c")
	require.True(t, ok)
	assert.Equal(t, int32(3), v.Int)
	_, ok = b.Get("b")
	assert.False(t, ok)

	b.Set("b", gpu.IntValue(4))
	assert.Equal(t, []string{"a", "c", "b"}, b.Names())
}

func TestBlockReset(t *testing.T) {
	b := NewBlock(WithValue("a", gpu.FloatValue(1)))
	b.Reset()
	assert.Zero(t, b.Len())
	_, ok := b.Get("a")
	assert.False(t, ok)
}

func TestBlockApply(t *testing.T) {
	rec := gpu.NewRecorder()
	ctx := pipeline.NewContext(rec)
	p, err := rec.CreateProgram(gpu.ProgramSource{Label: "p"})
	require.NoError(t, err)
	ctx.UseProgram(p)
	rec.Reset()

	b := NewBlock(
		WithValue("ambientPass", gpu.IntValue(1)),
		WithValue("light.radius", gpu.FloatValue(2)),
	)
	b.Apply(ctx)

	calls := rec.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "ambientPass", calls[0].Args[0])
	assert.Equal(t, "light.radius", calls[1].Args[0])
}
