package schema

import (
	"fmt"

	"github.com/samcharles93/tmckit/pkg/container"
)

// ObjType categorises an object in the object-type table. The value set has
// gaps; 2 and 6 are reserved and rejected.
type ObjType uint32

const (
	ObjNML ObjType = 0
	ObjMOT ObjType = 1
	ObjWGT ObjType = 3
	ObjSUP ObjType = 4
	ObjOPT ObjType = 5
	ObjWPB ObjType = 7
)

var objTypeNames = map[ObjType]string{
	ObjNML: "NML",
	ObjMOT: "MOT",
	ObjWGT: "WGT",
	ObjSUP: "SUP",
	ObjOPT: "OPT",
	ObjWPB: "WPB",
}

func (t ObjType) String() string {
	if name, ok := objTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ObjType(%d)", uint32(t))
}

func (t ObjType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// ParseObjType validates a raw object type word.
func ParseObjType(v uint32) (ObjType, error) {
	t := ObjType(v)
	if _, ok := objTypeNames[t]; !ok {
		return 0, &container.UnsupportedEnumError{Enum: "OBJ_TYPE", Value: v}
	}
	return t, nil
}

// ReadObjTypes decodes count object type words at off.
func ReadObjTypes(s container.Span, off, count int) ([]ObjType, error) {
	words, err := s.U32s(off, count)
	if err != nil {
		return nil, err
	}
	out := make([]ObjType, len(words))
	for i, w := range words {
		if out[i], err = ParseObjType(w); err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
	}
	return out, nil
}
