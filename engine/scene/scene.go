package scene

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/camera"
	"github.com/Carmen-Shannon/oxy-forward/engine/light"
)

// Scene bundles a root node with the camera it is viewed through. Scenes can be hot-swapped via
// the Active flag to switch between different views or levels.
// Scene fields are safe for concurrent access; the node graph under Root is not.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Root returns the root node of the scene graph.
	Root() Node

	// Camera returns the camera the scene is viewed through.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Bounds returns the bounding volume set with SetBounds.
	//
	// Returns:
	//   - common.AABB: the bounds
	//   - bool: false if the bounds should be derived from the meshes
	Bounds() (common.AABB, bool)

	// SetBounds overrides the volume shadow cascades are fitted to. An empty box restores
	// derivation from the mesh bounds.
	//
	// Parameters:
	//   - b: the world-space bounds
	SetBounds(b common.AABB)

	// Add attaches nodes to the root.
	//
	// Parameters:
	//   - nodes: the nodes to attach
	Add(nodes ...Node)

	// Remove detaches a node from its parent, wherever it is in the graph.
	//
	// Parameters:
	//   - n: the node to detach
	//
	// Returns:
	//   - bool: false if n has no parent
	Remove(n Node) bool

	// Find returns the first node named name in depth-first order, or nil.
	//
	// Parameters:
	//   - name: the node name
	//
	// Returns:
	//   - Node: the node, or nil
	Find(name string) Node

	// Lights returns the enabled lights in the graph.
	//
	// Returns:
	//   - []light.Light: the lights in depth-first order
	Lights() []light.Light
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	root   Node
	cam    camera.Camera
	bounds common.AABB
}

var _ Scene = &scene{}

// NewScene creates a Scene with an empty root node and a default perspective camera.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:     &sync.RWMutex{},
		name:   name,
		root:   NewNode(WithName(name)),
		bounds: common.EmptyAABB(),
	}
	for _, option := range options {
		option(s)
	}
	if s.cam == nil {
		s.cam = camera.NewCamera()
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Root() Node {
	return s.root
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Bounds() (common.AABB, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds, !s.bounds.IsEmpty()
}

func (s *scene) SetBounds(b common.AABB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bounds = b
}

func (s *scene) Add(nodes ...Node) {
	for _, n := range nodes {
		s.root.Add(n)
	}
}

func (s *scene) Remove(n Node) bool {
	p := n.Parent()
	if p == nil {
		return false
	}
	return p.Remove(n)
}

func (s *scene) Find(name string) Node {
	var found Node
	Walk(s.root, func(n Node) bool {
		if n.Name() == name {
			found = n
			return false
		}
		return true
	})
	return found
}

func (s *scene) Lights() []light.Light {
	var out []light.Light
	Walk(s.root, func(n Node) bool {
		if l := n.Light(); l != nil && l.Enabled() {
			out = append(out, l)
		}
		return true
	})
	return out
}

// Walk visits root and its descendants depth-first, children in order. Returning false from
// fn stops the walk.
//
// Parameters:
//   - root: the first node visited
//   - fn: called for every node
func Walk(root Node, fn func(Node) bool) {
	if root == nil {
		return
	}
	stack := []Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			return
		}
		for i := n.ChildCount() - 1; i >= 0; i-- {
			stack = append(stack, n.Child(i))
		}
	}
}
