package common

import "sync"

// Key codes as delivered by window key callbacks. They match GLFW key codes, which use the
// ASCII value for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeySpace = 32
	KeyW     = 87
	KeyA     = 65
	KeyS     = 83
	KeyD     = 68
	KeyQ     = 81
	KeyE     = 69
	KeyF     = 70
	KeyP     = 80
	KeyR     = 82

	Key0 = 48
	Key1 = 49
	Key2 = 50
	Key3 = 51

	KeyEsc      = 256
	KeyRight    = 262
	KeyLeft     = 263
	KeyDown     = 264
	KeyUp       = 265
	KeyPageUp   = 266
	KeyPageDown = 267

	KeyLeftShift  = 340
	KeyRightShift = 344
)

// KeyState tracks which keys are held. Window callbacks write it on the event thread while
// tick callbacks read it from the worker, so every method is safe for concurrent use.
type KeyState struct {
	mu      sync.RWMutex
	down    map[uint32]bool
	pressed map[uint32]bool
}

// NewKeyState returns a KeyState with no keys held.
func NewKeyState() *KeyState {
	return &KeyState{
		down:    make(map[uint32]bool),
		pressed: make(map[uint32]bool),
	}
}

// Press records a key down event.
//
// Parameters:
//   - key: the key code
func (k *KeyState) Press(key uint32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.down[key] {
		k.pressed[key] = true
	}
	k.down[key] = true
}

// Release records a key up event.
//
// Parameters:
//   - key: the key code
func (k *KeyState) Release(key uint32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.down, key)
}

// Down reports whether key is held.
//
// Parameters:
//   - key: the key code
//
// Returns:
//   - bool: true while the key is held
func (k *KeyState) Down(key uint32) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.down[key]
}

// Axis returns +1 when only positive is held, -1 when only negative is held and 0 otherwise.
func (k *KeyState) Axis(positive, negative uint32) float32 {
	k.mu.RLock()
	defer k.mu.RUnlock()
	var v float32
	if k.down[positive] {
		v++
	}
	if k.down[negative] {
		v--
	}
	return v
}

// Consume reports whether key went down since the last Consume for it. Holding a key counts
// as a single press.
//
// Parameters:
//   - key: the key code
//
// Returns:
//   - bool: true once per press
func (k *KeyState) Consume(key uint32) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	p := k.pressed[key]
	delete(k.pressed, key)
	return p
}
