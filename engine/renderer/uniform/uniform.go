package uniform

import (
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/pipeline"
)

// block is the unexported implementation of Block.
type block struct {
	// label is a debug label added for convenience.
	label string

	// names keeps insertion order; values is indexed in parallel and index maps a name to its slot.
	names  []string
	values []gpu.Value
	index  map[string]int
}

// Block is a named, ordered bundle of shader-visible values applied before a draw call.
// Nodes, materials and lights describe their uniforms as Blocks; the renderer applies them in
// order through a pipeline.Context, so a later block or override wins over an earlier one.
//
// A Block is not safe for concurrent use.
type Block interface {
	// Label returns the debug label for this block.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Set stores v under name, replacing any previous value while keeping its position.
	//
	// Parameters:
	//   - name: the uniform name as declared in the shader
	//   - v: the value
	Set(name string, v gpu.Value)

	// Get returns the value stored under name.
	//
	// Parameters:
	//   - name: the uniform name
	//
	// Returns:
	//   - gpu.Value: the value, zero if absent
	//   - bool: true if the name is present
	Get(name string) (gpu.Value, bool)

	// Delete removes name from the block. Missing names are ignored.
	//
	// Parameters:
	//   - name: the uniform name
	Delete(name string)

	// Names returns the uniform names in application order.
	//
	// Returns:
	//   - []string: a copy of the names
	Names() []string

	// Len returns the number of values in the block.
	Len() int

	// Reset removes every value, keeping allocated capacity.
	Reset()

	// Apply sends every value to the program bound on ctx, in insertion order.
	//
	// Parameters:
	//   - ctx: the render context to apply through
	Apply(ctx *pipeline.Context)
}

var _ Block = &block{}

// NewBlock creates an empty Block configured by options.
//
// Parameters:
//   - options: variadic list of BlockBuilderOption functions to configure the block
//
// Returns:
//   - Block: the new block
func NewBlock(options ...BlockBuilderOption) Block {
	b := &block{
		index: make(map[string]int),
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

func (b *block) Label() string {
	return b.label
}

func (b *block) Set(name string, v gpu.Value) {
	if i, ok := b.index[name]; ok {
		b.values[i] = v
		return
	}
	b.index[name] = len(b.names)
	b.names = append(b.names, name)
	b.values = append(b.values, v)
}

func (b *block) Get(name string) (gpu.Value, bool) {
	i, ok := b.index[name]
	if !ok {
		return gpu.Value{}, false
	}
	return b.values[i], true
}

func (b *block) Delete(name string) {
	i, ok := b.index[name]
	if !ok {
		return
	}
	b.names = append(b.names[:i], b.names[i+1:]...)
	b.values = append(b.values[:i], b.values[i+1:]...)
	delete(b.index, name)
	for j := i; j < len(b.names); j++ {
		b.index[b.names[j]] = j
	}
}

func (b *block) Names() []string {
	return append([]string(nil), b.names...)
}

func (b *block) Len() int {
	return len(b.names)
}

func (b *block) Reset() {
	b.names = b.names[:0]
	b.values = b.values[:0]
	clear(b.index)
}

func (b *block) Apply(ctx *pipeline.Context) {
	for i, name := range b.names {
		ctx.SetUniform(name, b.values[i])
	}
}
