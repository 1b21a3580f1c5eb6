package ngs2

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/schema"
	"github.com/samcharles93/tmckit/pkg/tmc/section"
)

type HieLay struct {
	Container *container.Container `json:"-"`
	Nodes     []*HieLayNode        `json:"nodes"`
}

type HieLayNode struct {
	Matrix   mgl32.Mat4 `json:"matrix"`
	Parent   int32      `json:"parent"`
	Level    uint32     `json:"level"`
	Children []int32    `json:"children"`
}

func parseHieLay(data container.Span) (*HieLay, error) {
	c, err := container.Parse("HieLay", data, container.Span{})
	if err != nil {
		return nil, err
	}
	nodes, err := section.Records(c, func(s container.Span) (*HieLayNode, error) {
		r := schema.NewReader(s)
		n := &HieLayNode{Matrix: r.Mat4(0x0), Parent: r.I32(0x40), Level: r.U32(0x48)}
		n.Children = r.I32s(0x50, int(r.U32(0x44)))
		return n, r.Err()
	})
	if err != nil {
		return nil, err
	}
	return &HieLay{Container: c, Nodes: nodes}, nil
}

// Transforms returns the nodes in the form schema.WorldTransform takes.
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

// NodeLay lists the named nodes.
type NodeLay struct {
	Container *container.Container `json:"-"`
	Nodes     []*NodeObj           `json:"nodes"`
}

func parseNodeLay(data container.Span) (*NodeLay, error) {
	c, err := container.Parse("NodeLay", data, container.Span{})
	if err != nil {
		return nil, err
	}
	nodes, err := section.Records(c, parseNodeObj)
	if err != nil {
		return nil, err
	}
	return &NodeLay{Container: c, Nodes: nodes}, nil
}

type NodeObj struct {
	Container *container.Container `json:"-"`
	Unknown00 uint32               `json:"unknown_00"`
	Master    int32                `json:"master"`
	NodeIndex int32                `json:"node_index"`
	Name      string               `json:"name"`
	// Chunk is nil when the node carries no transform.
	Chunk *NodeObjChunk `json:"chunk,omitempty"`
}

type NodeObjChunk struct {
	ObjIndex  int32      `json:"obj_index"`
	NodeIndex int32      `json:"node_index"`
	Matrix    mgl32.Mat4 `json:"matrix"`
	NodeGroup []int32    `json:"node_group"`
}

func parseNodeObj(data container.Span) (*NodeObj, error) {
	c, err := container.Parse("NodeObj", data, container.Span{})
	if err != nil {
		return nil, err
	}
	f := container.FieldsOf(c.Metadata)
	n := &NodeObj{
		Container: c,
		Unknown00: f.U32(0x0),
		Master:    f.I32(0x4),
		NodeIndex: f.I32(0x8),
		Name:      f.CStringRest(0x10),
	}
	if err := f.Err(); err != nil {
		return nil, fmt.Errorf("NodeObj metadata: %w", err)
	}
	if ch := c.Chunk(0); !ch.Empty() {
		r := schema.NewReader(ch)
		n.Chunk = &NodeObjChunk{
			ObjIndex:  r.I32(0x0),
			NodeIndex: r.I32(0x8),
			Matrix:    r.Mat4(0x10),
		}
		n.Chunk.NodeGroup = r.I32s(0x50, int(r.U32(0x4)))
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("NodeObj chunk: %w", err)
		}
	}
	return n, nil
}

// Matrices is a container of bare 4x4 matrices (GlblMtx, BnOfsMtx).
type Matrices struct {
	Container *container.Container `json:"-"`
	Matrices  []*mgl32.Mat4        `json:"matrices"`
}

func parseMatrices(magic string, data container.Span) (*Matrices, error) {
	c, err := container.Parse(magic, data, container.Span{})
	if err != nil {
		return nil, err
	}
	ms, err := section.Records(c, func(s container.Span) (*mgl32.Mat4, error) {
		m, err := schema.ReadMat4(s, 0)
		if err != nil {
			return nil, err
		}
		return &m, nil
	})
	if err != nil {
		return nil, err
	}
	return &Matrices{Container: c, Matrices: ms}, nil
}
