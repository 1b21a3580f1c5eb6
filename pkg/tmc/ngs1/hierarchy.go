package ngs1

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/schema"
	"github.com/samcharles93/tmckit/pkg/tmc/section"
)

// HieLay is the skeleton. Nodes reference each other by index.
type HieLay struct {
	Container *container.Container `json:"-"`
	Nodes     []*HieLayNode        `json:"nodes"`
}

type HieLayNode struct {
	Matrix   mgl32.Mat4 `json:"matrix"`
	Parent   int32      `json:"parent"`
	Children []int32    `json:"children"`
}

func parseHieLay(data container.Span) (*HieLay, error) {
	c, err := container.Parse("HieLay", data, container.Span{})
	if err != nil {
		return nil, err
	}
	nodes, err := section.Records(c, func(s container.Span) (*HieLayNode, error) {
		r := schema.NewReader(s)
		n := &HieLayNode{Matrix: r.Mat4(0x0), Parent: r.I32(0x40)}
		n.Children = r.I32s(0x50, int(r.U32(0x44)))
		return n, r.Err()
	})
	if err != nil {
		return nil, err
	}
	return &HieLay{Container: c, Nodes: nodes}, nil
}

// Transforms returns the nodes in the form schema.WorldTransform takes.
// Empty chunks become identity roots.
func (h *HieLay) Transforms() []schema.Node {
	out := make([]schema.Node, len(h.Nodes))
	for i, n := range h.Nodes {
		if n == nil {
			out[i] = schema.Node{Local: mgl32.Ident4(), Parent: -1}
			continue
		}
		out[i] = schema.Node{Local: n.Matrix, Parent: n.Parent}
	}
	return out
}
