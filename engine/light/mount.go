package light

import (
	"github.com/Carmen-Shannon/oxy-forward/engine/camera"
	"github.com/go-gl/mathgl/mgl32"
)

// Mount is a scene node a cascade camera is anchored to. The shadow positions it every update.
type Mount interface {
	camera.Anchor

	// SetPosition moves the mount in its parent's space.
	SetPosition(p mgl32.Vec3)

	// SetRotation orients the mount in its parent's space.
	SetRotation(q mgl32.Quat)

	// SetScale scales the mount in its parent's space.
	SetScale(s mgl32.Vec3)
}

// Host is the scene node a light is attached to. Its world matrix gives the light's position and
// orientation, and it parents the mounts of the light's cascade cameras.
type Host interface {
	camera.Anchor

	// AddMount creates a child node for a cascade camera.
	AddMount() Mount

	// RemoveMount detaches a mount created by AddMount.
	RemoveMount(m Mount)
}
