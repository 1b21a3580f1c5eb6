package schema

import (
	"fmt"

	"github.com/samcharles93/tmckit/pkg/container"
)

// XRef records that an object uses a material block. It is informational and
// never resolved.
type XRef struct {
	ObjectIndex int32  `json:"object_index"`
	UseCount    uint32 `json:"use_count"`
}

const xrefSize = 8

// ParseXRefs reads the count word at countOff and that many XRef pairs at tableOff.
func ParseXRefs(s container.Span, countOff, tableOff int) ([]XRef, error) {
	count, err := s.U32(countOff)
	if err != nil {
		return nil, fmt.Errorf("xref count: %w", err)
	}
	if _, err := s.Window(tableOff, int(count)*xrefSize); err != nil {
		return nil, fmt.Errorf("xref table of %d entries: %w", count, err)
	}
	out := make([]XRef, count)
	for i := range out {
		off := tableOff + i*xrefSize
		idx, _ := s.I32(off)
		n, _ := s.U32(off + 4)
		out[i] = XRef{ObjectIndex: idx, UseCount: n}
	}
	return out, nil
}
