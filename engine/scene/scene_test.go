package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/light"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScene(t *testing.T) {
	s := NewScene("level", WithActive(true))
	assert.Equal(t, "level", s.Name())
	assert.True(t, s.Active())
	require.NotNil(t, s.Root())
	require.NotNil(t, s.Camera())
	_, ok := s.Bounds()
	assert.False(t, ok)

	s.SetBounds(common.AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}})
	b, ok := s.Bounds()
	assert.True(t, ok)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, b.Max)
}

func TestWalkOrder(t *testing.T) {
	a := NewNode(WithName("a"))
	b := NewNode(WithName("b"))
	c := NewNode(WithName("c"))
	d := NewNode(WithName("d"))
	a.Add(b)
	b.Add(c)
	a.Add(d)

	var names []string
	Walk(a, func(n Node) bool {
		names = append(names, n.Name())
		return true
	})
	assert.Equal(t, []string{"a", "b", "c", "d"}, names)

	names = nil
	Walk(a, func(n Node) bool {
		names = append(names, n.Name())
		return n.Name() != "b"
	})
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestSceneFindRemoveLights(t *testing.T) {
	sun := light.NewLight()
	off := light.NewLight(light.WithEnabled(false))
	lamp := NewNode(WithName("lamp"), WithLight(sun))
	dark := NewNode(WithName("dark"), WithLight(off))
	s := NewScene("s", WithNodes(lamp))
	lamp.Add(dark)

	assert.Same(t, dark, s.Find("dark"))
	assert.Nil(t, s.Find("missing"))
	assert.Equal(t, []light.Light{sun}, s.Lights())

	assert.True(t, s.Remove(dark))
	assert.Nil(t, s.Find("dark"))
	assert.False(t, s.Remove(dark))
}
