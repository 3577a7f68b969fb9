package common

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyStateDownAndAxis(t *testing.T) {
	k := NewKeyState()
	assert.False(t, k.Down(KeyW))
	assert.Zero(t, k.Axis(KeyW, KeyS))

	k.Press(KeyW)
	assert.True(t, k.Down(KeyW))
	assert.Equal(t, float32(1), k.Axis(KeyW, KeyS))

	k.Press(KeyS)
	assert.Zero(t, k.Axis(KeyW, KeyS))

	k.Release(KeyW)
	assert.Equal(t, float32(-1), k.Axis(KeyW, KeyS))
}

func TestKeyStateConsume(t *testing.T) {
	k := NewKeyState()
	k.Press(KeySpace)
	k.Press(KeySpace) // key repeat while held
	assert.True(t, k.Consume(KeySpace))
	assert.False(t, k.Consume(KeySpace))

	k.Release(KeySpace)
	k.Press(KeySpace)
	assert.True(t, k.Consume(KeySpace))
}

func TestKeyStateConcurrent(t *testing.T) {
	k := NewKeyState()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				k.Press(KeyA)
				k.Release(KeyA)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = k.Axis(KeyA, KeyD)
				_ = k.Consume(KeyA)
			}
		}()
	}
	wg.Wait()
	assert.False(t, k.Down(KeyA))
}
