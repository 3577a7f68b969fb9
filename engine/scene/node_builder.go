package scene

import (
	"github.com/Carmen-Shannon/oxy-forward/engine/camera"
	"github.com/Carmen-Shannon/oxy-forward/engine/light"
	"github.com/Carmen-Shannon/oxy-forward/engine/model"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// NodeBuilderOption is a functional option for configuring a Node during construction.
type NodeBuilderOption func(*node)

// WithName sets the node's name.
//
// Parameters:
//   - name: the node name
//
// Returns:
//   - NodeBuilderOption: functional option to set the name
func WithName(name string) NodeBuilderOption {
	return func(n *node) {
		n.name = name
	}
}

// WithEnabled sets whether the node is rendered.
//
// Parameters:
//   - enabled: false to skip the node and its subtree
//
// Returns:
//   - NodeBuilderOption: functional option to set the enabled state
func WithEnabled(enabled bool) NodeBuilderOption {
	return func(n *node) {
		n.enabled = enabled
	}
}

// WithPosition sets the local translation.
//
// Parameters:
//   - p: the translation
//
// Returns:
//   - NodeBuilderOption: functional option to set the position
func WithPosition(p mgl32.Vec3) NodeBuilderOption {
	return func(n *node) {
		n.SetPosition(p)
	}
}

// WithRotation sets the local rotation.
//
// Parameters:
//   - q: the rotation
//
// Returns:
//   - NodeBuilderOption: functional option to set the rotation
func WithRotation(q mgl32.Quat) NodeBuilderOption {
	return func(n *node) {
		n.SetRotation(q)
	}
}

// WithScale sets the local scale.
//
// Parameters:
//   - s: the scale
//
// Returns:
//   - NodeBuilderOption: functional option to set the scale
func WithScale(s mgl32.Vec3) NodeBuilderOption {
	return func(n *node) {
		n.SetScale(s)
	}
}

// WithMesh sets the node's mesh.
//
// Parameters:
//   - m: the mesh
//
// Returns:
//   - NodeBuilderOption: functional option to set the mesh
func WithMesh(m model.Model) NodeBuilderOption {
	return func(n *node) {
		n.mesh = m
	}
}

// WithMaterial sets the node's material.
//
// Parameters:
//   - m: the material
//
// Returns:
//   - NodeBuilderOption: functional option to set the material
func WithMaterial(m material.Material) NodeBuilderOption {
	return func(n *node) {
		n.material = m
	}
}

// WithLight attaches a light to the node.
//
// Parameters:
//   - l: the light
//
// Returns:
//   - NodeBuilderOption: functional option to attach the light
func WithLight(l light.Light) NodeBuilderOption {
	return func(n *node) {
		n.SetLight(l)
	}
}

// WithCamera anchors a camera to the node.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - NodeBuilderOption: functional option to anchor the camera
func WithCamera(c camera.Camera) NodeBuilderOption {
	return func(n *node) {
		n.SetCamera(c)
	}
}

// WithChildren adds children to the node in order.
//
// Parameters:
//   - children: the nodes to attach
//
// Returns:
//   - NodeBuilderOption: functional option to attach the children
func WithChildren(children ...Node) NodeBuilderOption {
	return func(n *node) {
		for _, c := range children {
			n.Add(c)
		}
	}
}
