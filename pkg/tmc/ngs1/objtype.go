package ngs1

import (
	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/schema"
)

// ObjTypeInfo is the raw object-type table. Only the second table, one type
// per object, is decoded.
type ObjTypeInfo struct {
	Table1Offset uint32           `json:"table1_offset"`
	Table1Count  uint32           `json:"table1_count"`
	Table2Offset uint32           `json:"table2_offset"`
	Table2Count  uint32           `json:"table2_count"`
	Table3Offset uint32           `json:"table3_offset"`
	Types        []schema.ObjType `json:"types"`
}

func parseObjTypeInfo(data container.Span) (*ObjTypeInfo, error) {
	f := container.FieldsOf(data)
	o := &ObjTypeInfo{
		Table1Offset: f.U32(0x20),
		Table1Count:  f.U32(0x24),
		Table2Offset: f.U32(0x28),
		Table2Count:  f.U32(0x2c),
		Table3Offset: f.U32(0x30),
	}
	if err := f.Err(); err != nil {
		return nil, err
	}
	types, err := schema.ReadObjTypes(data, int(o.Table2Offset), int(o.Table2Count))
	if err != nil {
		return nil, err
	}
	o.Types = types
	return o, nil
}
