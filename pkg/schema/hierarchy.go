package schema

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/samcharles93/tmckit/pkg/container"
)

var ErrHierarchyCycle = errors.New("hierarchy cycle")

// Node is the part of a hierarchy record needed to compose transforms.
type Node struct {
	Local  mgl32.Mat4
	Parent int32 // -1 for a root
}

// WorldTransform multiplies the local transforms along the parent chain of
// node i. A chain longer than the node count can only be a cycle.
func WorldTransform(nodes []Node, i int) (mgl32.Mat4, error) {
	if i < 0 || i >= len(nodes) {
		return mgl32.Mat4{}, &container.OutOfBoundsError{Start: i, End: i + 1, Len: len(nodes)}
	}
	world := nodes[i].Local
	cur := i
	for steps := 0; ; steps++ {
		p := nodes[cur].Parent
		if p < 0 {
			return world, nil
		}
		if int(p) >= len(nodes) {
			return mgl32.Mat4{}, fmt.Errorf("node %d parent %d: %w", cur, p, container.ErrOutOfBounds)
		}
		if steps >= len(nodes) {
			return mgl32.Mat4{}, fmt.Errorf("node %d: %w", i, ErrHierarchyCycle)
		}
		world = nodes[p].Local.Mul4(world)
		cur = int(p)
	}
}

// Roots returns the indices of nodes without a parent.
func Roots(parents []int32) []int {
	var out []int
	for i, p := range parents {
		if p < 0 {
			out = append(out, i)
		}
	}
	return out
}

// ChildrenOf rebuilds child lists for dialects that only store parents.
func ChildrenOf(parents []int32) ([][]int, error) {
	out := make([][]int, len(parents))
	for i, p := range parents {
		if p < 0 {
			continue
		}
		if int(p) >= len(parents) {
			return nil, fmt.Errorf("node %d parent %d: %w", i, p, container.ErrOutOfBounds)
		}
		out[p] = append(out[p], i)
	}
	return out, nil
}
