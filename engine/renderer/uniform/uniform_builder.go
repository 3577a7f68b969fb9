package uniform

import "github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"

// BlockBuilderOption is a functional option used to configure a Block during construction.
type BlockBuilderOption func(*block)

// WithLabel sets the debug label for the block.
//
// Parameters:
//   - label: the debug label
//
// Returns:
//   - BlockBuilderOption: a function that sets the label on the block
func WithLabel(label string) BlockBuilderOption {
	return func(b *block) {
		b.label = label
	}
}

// WithValue stores an initial value in the block.
//
// Parameters:
//   - name: the uniform name
//   - v: the value
//
// Returns:
//   - BlockBuilderOption: a function that stores the value on the block
func WithValue(name string, v gpu.Value) BlockBuilderOption {
	return func(b *block) {
		b.Set(name, v)
	}
}
