package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/model"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-forward/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// Asset is an imported static model: its geometry, its materials and the node hierarchy that
// places them. Models and materials are shared by every instance.
type Asset struct {
	Name      string
	Models    []model.Model
	Materials []material.Material

	nodes  []assetNode
	roots  []int
	bounds common.AABB
}

type assetNode struct {
	name     string
	local    mgl32.Mat4
	parts    []assetPart
	children []int
}

type assetPart struct {
	model    model.Model
	material material.Material
}

// Bounds returns the asset's bounding box in the space of the node Instantiate returns.
func (a *Asset) Bounds() common.AABB {
	return a.bounds
}

// Instantiate builds a new node tree for the asset. The returned root is named after the
// asset and carries an identity transform. A node whose mesh has several primitives gets one
// child per primitive.
//
// Returns:
//   - scene.Node: the root of the new tree
func (a *Asset) Instantiate() scene.Node {
	root := scene.NewNode(scene.WithName(a.Name))
	for _, r := range a.roots {
		root.Add(a.instantiate(r))
	}
	return root
}

func (a *Asset) instantiate(index int) scene.Node {
	src := &a.nodes[index]
	n := scene.NewNode(scene.WithName(src.name))
	n.SetMatrix(src.local)

	switch len(src.parts) {
	case 0:
	case 1:
		n.SetMesh(src.parts[0].model)
		n.SetMaterial(src.parts[0].material)
	default:
		for _, p := range src.parts {
			n.Add(scene.NewNode(
				scene.WithName(p.model.Name()),
				scene.WithMesh(p.model),
				scene.WithMaterial(p.material),
			))
		}
	}

	for _, c := range src.children {
		n.Add(a.instantiate(c))
	}
	return n
}

// computeBounds walks the hierarchy from the roots, rejecting child indices that are out of
// range or that make a node reachable twice.
func (a *Asset) computeBounds() error {
	a.bounds = common.EmptyAABB()
	visited := make([]bool, len(a.nodes))

	var walk func(index int, parent mgl32.Mat4) error
	walk = func(index int, parent mgl32.Mat4) error {
		if index < 0 || index >= len(a.nodes) {
			return fmt.Errorf("node %d out of range", index)
		}
		if visited[index] {
			return fmt.Errorf("node %q is reachable more than once", a.nodes[index].name)
		}
		visited[index] = true

		n := &a.nodes[index]
		world := parent.Mul4(n.local)
		for _, p := range n.parts {
			a.bounds = a.bounds.Union(p.model.Bounds().Transform(world))
		}
		for _, c := range n.children {
			if err := walk(c, world); err != nil {
				return err
			}
		}
		return nil
	}

	for _, r := range a.roots {
		if err := walk(r, mgl32.Ident4()); err != nil {
			return err
		}
	}
	if a.bounds.IsEmpty() {
		a.bounds = common.AABB{}
	}
	return nil
}
