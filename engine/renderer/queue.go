package renderer

import (
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/uniform"
	"github.com/Carmen-Shannon/oxy-forward/engine/scene"
)

// Phase identifies the part of a frame a queue entry was generated for.
type Phase uint8

const (
	// PhaseShadow entries draw depth into one shadow cascade.
	PhaseShadow Phase = iota

	// PhaseOpaqueAmbient entries draw opaque geometry once with ambient light.
	PhaseOpaqueAmbient

	// PhaseOpaqueLight entries add one light's contribution to opaque geometry.
	PhaseOpaqueLight

	// PhaseTransparentAmbient entries draw blended geometry once with ambient light.
	PhaseTransparentAmbient

	// PhaseTransparentLight entries add one light's contribution to blended geometry.
	PhaseTransparentLight

	phaseCount
)

var phaseNames = [phaseCount]string{"shadow", "opaque-ambient", "opaque-light", "transparent-ambient", "transparent-light"}

func (p Phase) String() string {
	if p < phaseCount {
		return phaseNames[p]
	}
	return "unknown"
}

// QueueEntry is one draw: a node's mesh with one material pass. Blocks are applied in order and
// Overrides last, so a value set in Overrides wins.
type QueueEntry struct {
	Node      scene.Node
	Phase     Phase
	Pass      int
	Program   gpu.Program
	Mesh      gpu.Mesh
	State     pipeline.StateBlock
	Blocks    []uniform.Block
	Overrides uniform.Block
}

// Queue is an ordered list of draws. Its storage is kept between frames.
type Queue struct {
	entries []QueueEntry
}

// Entries returns the queued draws in execution order. The slice is only valid until the queue
// is regenerated.
func (q *Queue) Entries() []QueueEntry {
	return q.entries
}

// Len returns the number of queued draws.
func (q *Queue) Len() int {
	return len(q.entries)
}

// Count returns the number of queued draws generated for phase.
func (q *Queue) Count(phase Phase) int {
	n := 0
	for i := range q.entries {
		if q.entries[i].Phase == phase {
			n++
		}
	}
	return n
}

func (q *Queue) reset() {
	q.entries = q.entries[:0]
}

// push appends e, reusing the block slice left behind by the previous frame.
func (q *Queue) push(e QueueEntry, blocks ...uniform.Block) {
	n := len(q.entries)
	if n < cap(q.entries) {
		q.entries = q.entries[:n+1]
		e.Blocks = append(q.entries[n].Blocks[:0], blocks...)
		q.entries[n] = e
		return
	}
	e.Blocks = append([]uniform.Block(nil), blocks...)
	q.entries = append(q.entries, e)
}

// execute draws every entry and returns the number of draw calls.
func (q *Queue) execute(ctx *pipeline.Context) int {
	for i := range q.entries {
		e := &q.entries[i]
		ctx.ResetTextureUnits()
		e.State.Apply(ctx)
		ctx.UseProgram(e.Program)
		for _, b := range e.Blocks {
			b.Apply(ctx)
		}
		if e.Overrides != nil {
			e.Overrides.Apply(ctx)
		}
		ctx.Draw(e.Mesh)
	}
	return len(q.entries)
}
