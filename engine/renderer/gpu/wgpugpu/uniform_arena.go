package wgpugpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// uniformAlignment is the largest minUniformBufferOffsetAlignment WebGPU permits.
	uniformAlignment = 256
	arenaChunkSize   = 1 << 20
)

// arenaChunk is one uniform buffer and its CPU image for the frame being recorded.
type arenaChunk struct {
	buffer  *wgpu.Buffer
	staging []byte
	used    int
}

// uniformArena hands out per-draw slices of large uniform buffers. Every draw gets its own
// dynamic offset, so uniform changes between draws in one command buffer never overwrite
// each other. The images are uploaded in one write per chunk before the frame is submitted.
type uniformArena struct {
	chunks   []*arenaChunk
	current  int
	newChunk func() (*wgpu.Buffer, error)
}

func newUniformArena(newChunk func() (*wgpu.Buffer, error)) *uniformArena {
	return &uniformArena{newChunk: newChunk}
}

// alloc reserves size bytes aligned to uniformAlignment and returns the chunk and offset.
func (a *uniformArena) alloc(size int) (*arenaChunk, int, error) {
	size = alignUp(max(size, 1), uniformAlignment)
	if size > arenaChunkSize {
		return nil, 0, fmt.Errorf("uniform block of %d bytes exceeds the %d byte arena chunk", size, arenaChunkSize)
	}
	for ; a.current < len(a.chunks); a.current++ {
		c := a.chunks[a.current]
		if c.used+size <= arenaChunkSize {
			off := c.used
			c.used += size
			return c, off, nil
		}
	}
	buf, err := a.newChunk()
	if err != nil {
		return nil, 0, fmt.Errorf("uniform arena chunk: %w", err)
	}
	c := &arenaChunk{buffer: buf, staging: make([]byte, arenaChunkSize), used: size}
	a.chunks = append(a.chunks, c)
	a.current = len(a.chunks) - 1
	return c, 0, nil
}

// flush uploads every used chunk through write and rewinds the arena for the next frame.
func (a *uniformArena) flush(write func(buf *wgpu.Buffer, data []byte) error) error {
	var firstErr error
	for _, c := range a.chunks {
		if c.used == 0 {
			continue
		}
		if err := write(c.buffer, c.staging[:c.used]); err != nil && firstErr == nil {
			firstErr = err
		}
		c.used = 0
	}
	a.current = 0
	return firstErr
}

func (a *uniformArena) release() {
	for _, c := range a.chunks {
		if c.buffer != nil {
			c.buffer.Release()
		}
	}
	a.chunks = nil
	a.current = 0
}
