package scene

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/camera"
	"github.com/Carmen-Shannon/oxy-forward/engine/light"
	"github.com/Carmen-Shannon/oxy-forward/engine/model"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// NodeID identifies a node for the lifetime of the process.
type NodeID uint64

// ErrIDInUse is returned by SetID when another live node holds the requested id.
var ErrIDInUse = errors.New("node id in use")

var (
	nextID   atomic.Uint64
	registry = struct {
		sync.RWMutex
		nodes map[NodeID]weak.Pointer[node]
	}{nodes: make(map[NodeID]weak.Pointer[node])}
)

type node struct {
	id      *atomic.Uint64
	name    string
	enabled bool

	parent   *node
	children []*node

	position mgl32.Vec3
	rotation mgl32.Quat
	scale    mgl32.Vec3

	local      mgl32.Mat4
	localDirty bool

	mesh     model.Model
	material material.Material
	light    light.Light
	camera   camera.Camera
}

// Node is an element of the scene graph. It has a local transform relative to its parent and
// may carry a mesh, a material, a light and a camera.
//
// The local matrix is cached and rebuilt after a transform setter runs. The world matrix is
// composed with the parent chain on every call. Nodes are not safe for concurrent mutation.
type Node interface {
	// ID returns the node's process-wide identifier.
	//
	// Returns:
	//   - NodeID: the node id
	ID() NodeID

	// SetID re-keys the node in the id registry.
	//
	// Parameters:
	//   - id: the new id
	//
	// Returns:
	//   - error: ErrIDInUse if another live node holds id
	SetID(id NodeID) error

	// Name returns the node's name.
	Name() string

	// SetName sets the node's name.
	SetName(name string)

	// Enabled returns whether the node and its subtree are rendered.
	Enabled() bool

	// SetEnabled sets whether the node and its subtree are rendered.
	SetEnabled(enabled bool)

	// Parent returns the parent node, or nil for a root.
	Parent() Node

	// Children returns a copy of the child list in insertion order.
	Children() []Node

	// ChildCount returns the number of children.
	ChildCount() int

	// Child returns the i-th child.
	Child(i int) Node

	// Add appends child to this node's children. A child that already has a parent is detached
	// from it first. Adding a node to itself or to one of its descendants panics.
	//
	// Parameters:
	//   - child: the node to attach
	Add(child Node)

	// Remove detaches child. The child keeps its subtree and can be added elsewhere.
	//
	// Parameters:
	//   - child: the node to detach
	//
	// Returns:
	//   - bool: false if child was not a child of this node
	Remove(child Node) bool

	// Position returns the local translation.
	Position() mgl32.Vec3

	// SetPosition sets the local translation.
	SetPosition(p mgl32.Vec3)

	// Rotation returns the local rotation.
	Rotation() mgl32.Quat

	// SetRotation sets the local rotation.
	SetRotation(q mgl32.Quat)

	// Scale returns the local scale.
	Scale() mgl32.Vec3

	// SetScale sets the local scale.
	SetScale(s mgl32.Vec3)

	// SetTransform sets translation, rotation and scale at once.
	SetTransform(p mgl32.Vec3, q mgl32.Quat, s mgl32.Vec3)

	// SetMatrix decomposes an affine matrix into translation, rotation and scale. Shear is lost.
	//
	// Parameters:
	//   - m: the local matrix
	SetMatrix(m mgl32.Mat4)

	// Rotate rotates the node about an axis in its own local space.
	//
	// Parameters:
	//   - angle: radians
	//   - axis: the axis in local space
	Rotate(angle float32, axis mgl32.Vec3)

	// RotateWorld rotates the node about a world-space axis through its origin.
	//
	// Parameters:
	//   - angle: radians
	//   - axis: the axis in world space
	RotateWorld(angle float32, axis mgl32.Vec3)

	// LookAt orients the node so its forward axis (-Z) points at a world-space target.
	//
	// Parameters:
	//   - target: the world-space point to face
	//   - up: the world-space up hint
	LookAt(target, up mgl32.Vec3)

	// Forward returns the world-space -Z axis of the node.
	Forward() mgl32.Vec3

	// Right returns the world-space +X axis of the node.
	Right() mgl32.Vec3

	// Up returns the world-space +Y axis of the node.
	Up() mgl32.Vec3

	// LocalMatrix returns T·R·S.
	LocalMatrix() mgl32.Mat4

	// WorldMatrix returns the parent's world matrix times LocalMatrix.
	WorldMatrix() mgl32.Mat4

	// WorldPosition returns the node's origin in world space.
	WorldPosition() mgl32.Vec3

	// Mesh returns the node's mesh, or nil.
	Mesh() model.Model

	// SetMesh sets the node's mesh.
	SetMesh(m model.Model)

	// WorldBounds returns the mesh bounds transformed into world space.
	//
	// Returns:
	//   - common.AABB: the world-space box
	//   - bool: false if the node has no mesh
	WorldBounds() (common.AABB, bool)

	// Material returns the node's material, or the nearest ancestor's when unset.
	Material() material.Material

	// OwnMaterial returns the material set on this node, ignoring ancestors.
	OwnMaterial() material.Material

	// SetMaterial sets the node's material. Nil restores inheritance.
	SetMaterial(m material.Material)

	// Light returns the attached light, or nil.
	Light() light.Light

	// SetLight attaches a light. A light can only be attached to one node, so it is taken away
	// from its previous node. Nil detaches the current light.
	//
	// Parameters:
	//   - l: the light, or nil
	SetLight(l light.Light)

	// Camera returns the attached camera, or nil.
	Camera() camera.Camera

	// SetCamera anchors a camera to this node. Nil detaches the current camera.
	//
	// Parameters:
	//   - c: the camera, or nil
	SetCamera(c camera.Camera)

	// AddMount creates a child node for a light's cascade camera.
	AddMount() light.Mount

	// RemoveMount detaches a mount created by AddMount.
	RemoveMount(m light.Mount)
}

var (
	_ Node         = &node{}
	_ light.Host   = &node{}
	_ light.Mount  = &node{}
	_ camera.Mover = &node{}
)

// NewNode creates a node with an identity transform and registers it under a fresh id.
//
// Parameters:
//   - options: variadic list of NodeBuilderOption functions to configure the node
//
// Returns:
//   - Node: the new node
func NewNode(options ...NodeBuilderOption) Node {
	n := &node{
		id:         new(atomic.Uint64),
		enabled:    true,
		rotation:   mgl32.QuatIdent(),
		scale:      mgl32.Vec3{1, 1, 1},
		local:      mgl32.Ident4(),
	}
	n.id.Store(nextID.Add(1))

	registry.Lock()
	registry.nodes[n.ID()] = weak.Make(n)
	registry.Unlock()
	runtime.AddCleanup(n, unregister, n.id)

	for _, opt := range options {
		opt(n)
	}
	return n
}

// unregister drops a collected node's registry entry unless the id was reused.
func unregister(id *atomic.Uint64) {
	key := NodeID(id.Load())
	registry.Lock()
	defer registry.Unlock()
	if wp, ok := registry.nodes[key]; ok && wp.Value() == nil {
		delete(registry.nodes, key)
	}
}

// ByID returns the live node registered under id, or nil.
//
// Parameters:
//   - id: the node id
//
// Returns:
//   - Node: the node, or nil
func ByID(id NodeID) Node {
	registry.RLock()
	wp, ok := registry.nodes[id]
	registry.RUnlock()
	if !ok {
		return nil
	}
	if n := wp.Value(); n != nil {
		return n
	}
	return nil
}

func asNode(n Node) *node {
	if n == nil {
		return nil
	}
	impl, ok := n.(*node)
	if !ok {
		panic(fmt.Sprintf("scene: foreign Node implementation %T", n))
	}
	return impl
}

func (n *node) ID() NodeID {
	return NodeID(n.id.Load())
}

func (n *node) SetID(id NodeID) error {
	registry.Lock()
	defer registry.Unlock()
	old := n.ID()
	if old == id {
		return nil
	}
	if wp, ok := registry.nodes[id]; ok && wp.Value() != nil {
		return fmt.Errorf("set id %d: %w", id, ErrIDInUse)
	}
	delete(registry.nodes, old)
	registry.nodes[id] = weak.Make(n)
	n.id.Store(uint64(id))
	return nil
}

func (n *node) Name() string            { return n.name }
func (n *node) SetName(name string)     { n.name = name }
func (n *node) Enabled() bool           { return n.enabled }
func (n *node) SetEnabled(enabled bool) { n.enabled = enabled }

func (n *node) Parent() Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *node) Children() []Node {
	out := make([]Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *node) ChildCount() int {
	return len(n.children)
}

func (n *node) Child(i int) Node {
	return n.children[i]
}

func (n *node) Add(child Node) {
	c := asNode(child)
	if c == nil {
		return
	}
	for p := n; p != nil; p = p.parent {
		if p == c {
			panic("scene: node added to its own subtree")
		}
	}
	if c.parent != nil {
		c.parent.removeChild(c)
	}
	c.parent = n
	n.children = append(n.children, c)
}

func (n *node) Remove(child Node) bool {
	c := asNode(child)
	if c == nil || c.parent != n {
		return false
	}
	return n.removeChild(c)
}

func (n *node) removeChild(c *node) bool {
	i := slices.Index(n.children, c)
	if i < 0 {
		return false
	}
	n.children = slices.Delete(n.children, i, i+1)
	c.parent = nil
	return true
}

func (n *node) Position() mgl32.Vec3 { return n.position }
func (n *node) Rotation() mgl32.Quat { return n.rotation }
func (n *node) Scale() mgl32.Vec3    { return n.scale }

func (n *node) SetPosition(p mgl32.Vec3) {
	n.position = p
	n.localDirty = true
}

func (n *node) SetRotation(q mgl32.Quat) {
	n.rotation = q.Normalize()
	n.localDirty = true
}

func (n *node) SetScale(s mgl32.Vec3) {
	n.scale = s
	n.localDirty = true
}

func (n *node) SetTransform(p mgl32.Vec3, q mgl32.Quat, s mgl32.Vec3) {
	n.position = p
	n.rotation = q.Normalize()
	n.scale = s
	n.localDirty = true
}

func (n *node) SetMatrix(m mgl32.Mat4) {
	p := m.Col(3).Vec3()
	s := mgl32.Vec3{m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()}
	if m.Mat3().Det() < 0 {
		s[0] = -s[0]
	}
	var r mgl32.Mat4
	for c := 0; c < 3; c++ {
		col := m.Col(c).Vec3()
		if s[c] != 0 {
			col = col.Mul(1 / s[c])
		}
		r.SetCol(c, col.Vec4(0))
	}
	r.SetCol(3, mgl32.Vec4{0, 0, 0, 1})
	n.SetTransform(p, mgl32.Mat4ToQuat(r), s)
}

func (n *node) Rotate(angle float32, axis mgl32.Vec3) {
	n.SetRotation(n.rotation.Mul(mgl32.QuatRotate(angle, axis.Normalize())))
}

func (n *node) RotateWorld(angle float32, axis mgl32.Vec3) {
	if n.parent != nil {
		axis = common.TransformDirection(common.RotationOnly(n.parent.WorldMatrix()).Transpose(), axis)
	}
	n.SetRotation(mgl32.QuatRotate(angle, axis.Normalize()).Mul(n.rotation))
}

func (n *node) LookAt(target, up mgl32.Vec3) {
	eye := n.WorldPosition()
	if target.Sub(eye).Len() == 0 {
		return
	}
	world := mgl32.LookAtV(eye, target, up).Inv()
	world.SetCol(3, mgl32.Vec4{0, 0, 0, 1})
	if n.parent != nil {
		world = common.RotationOnly(n.parent.WorldMatrix()).Transpose().Mul4(world)
	}
	n.SetRotation(mgl32.Mat4ToQuat(world))
}

func (n *node) Forward() mgl32.Vec3 {
	return common.TransformDirection(n.WorldMatrix(), mgl32.Vec3{0, 0, -1}).Normalize()
}

func (n *node) Right() mgl32.Vec3 {
	return common.TransformDirection(n.WorldMatrix(), mgl32.Vec3{1, 0, 0}).Normalize()
}

func (n *node) Up() mgl32.Vec3 {
	return common.TransformDirection(n.WorldMatrix(), mgl32.Vec3{0, 1, 0}).Normalize()
}

func (n *node) LocalMatrix() mgl32.Mat4 {
	if n.localDirty {
		n.local = mgl32.Translate3D(n.position[0], n.position[1], n.position[2]).
			Mul4(n.rotation.Mat4()).
			Mul4(mgl32.Scale3D(n.scale[0], n.scale[1], n.scale[2]))
		n.localDirty = false
	}
	return n.local
}

func (n *node) WorldMatrix() mgl32.Mat4 {
	if n.parent == nil {
		return n.LocalMatrix()
	}
	return n.parent.WorldMatrix().Mul4(n.LocalMatrix())
}

func (n *node) WorldPosition() mgl32.Vec3 {
	return n.WorldMatrix().Col(3).Vec3()
}

func (n *node) Mesh() model.Model     { return n.mesh }
func (n *node) SetMesh(m model.Model) { n.mesh = m }

func (n *node) WorldBounds() (common.AABB, bool) {
	if n.mesh == nil {
		return common.AABB{}, false
	}
	return n.mesh.Bounds().Transform(n.WorldMatrix()), true
}

func (n *node) Material() material.Material {
	for p := n; p != nil; p = p.parent {
		if p.material != nil {
			return p.material
		}
	}
	return nil
}

func (n *node) OwnMaterial() material.Material  { return n.material }
func (n *node) SetMaterial(m material.Material) { n.material = m }

func (n *node) Light() light.Light {
	return n.light
}

func (n *node) SetLight(l light.Light) {
	if n.light == l {
		return
	}
	if n.light != nil {
		n.light.Attach(nil)
	}
	n.light = l
	if l == nil {
		return
	}
	if prev, ok := l.Host().(*node); ok && prev != n {
		prev.light = nil
	}
	l.Attach(n)
}

func (n *node) Camera() camera.Camera {
	return n.camera
}

func (n *node) SetCamera(c camera.Camera) {
	if n.camera == c {
		return
	}
	if n.camera != nil {
		n.camera.SetAnchor(nil)
	}
	n.camera = c
	if c != nil {
		c.SetAnchor(n)
	}
}

func (n *node) AddMount() light.Mount {
	m := NewNode(WithName(n.name + "/shadow")).(*node)
	n.Add(m)
	return m
}

func (n *node) RemoveMount(m light.Mount) {
	if c, ok := m.(*node); ok {
		n.Remove(c)
	}
}
