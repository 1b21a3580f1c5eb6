package ngs2

import (
	"fmt"
	"sort"

	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/schema"
)

const objTypeGroups = 8

// ObjTypeGroup is one (first, count) run of the object-type table.
type ObjTypeGroup struct {
	Ordinal int    `json:"ordinal"`
	First   uint16 `json:"first"`
	Count   uint16 `json:"count"`
}

type ObjTypeEntry struct {
	// Group is the ordinal of the run the entry was listed in.
	Group     int            `json:"group"`
	Type      schema.ObjType `json:"type"`
	Unknown04 uint32         `json:"unknown_04"`
	Unknown08 uint32         `json:"unknown_08"`
}

// ObjTypeInfo is assembled from two outer chunks: a head of eight runs and
// a table of entry offsets followed by the entries themselves.
type ObjTypeInfo struct {
	Groups  []ObjTypeGroup  `json:"groups"`
	Entries []*ObjTypeEntry `json:"entries"`
}

func parseObjTypeInfo(head, table container.Span) (*ObjTypeInfo, error) {
	f := container.FieldsOf(head)
	groups := make([]ObjTypeGroup, objTypeGroups)
	total := 0
	for i := range groups {
		groups[i] = ObjTypeGroup{Ordinal: i, First: f.U16(4 * i), Count: f.U16(4*i + 2)}
		total += int(groups[i].Count)
	}
	if err := f.Err(); err != nil {
		return nil, fmt.Errorf("OBJ_TYPE_INFO head: %w", err)
	}
	sort.SliceStable(groups, func(a, b int) bool { return groups[a].First < groups[b].First })

	offsets, err := table.U32s(0, total)
	if err != nil {
		return nil, fmt.Errorf("OBJ_TYPE_INFO offsets: %w", err)
	}
	o := &ObjTypeInfo{Groups: groups, Entries: make([]*ObjTypeEntry, 0, total)}
	for _, g := range groups {
		first, end := int(g.First), int(g.First)+int(g.Count)
		if end > len(offsets) {
			return nil, fmt.Errorf("OBJ_TYPE_INFO group %d: %w", g.Ordinal,
				&container.OutOfBoundsError{Start: first, End: end, Len: len(offsets)})
		}
		for _, off := range offsets[first:end] {
			e, err := parseObjTypeEntry(table, int(off))
			if err != nil {
				return nil, fmt.Errorf("OBJ_TYPE_INFO group %d: %w", g.Ordinal, err)
			}
			e.Group = g.Ordinal
			o.Entries = append(o.Entries, e)
		}
	}
	return o, nil
}

func parseObjTypeEntry(table container.Span, off int) (*ObjTypeEntry, error) {
	f := container.FieldsOf(table)
	raw := f.U32(off)
	e := &ObjTypeEntry{Unknown04: f.U32(off + 4), Unknown08: f.U32(off + 8)}
	if err := f.Err(); err != nil {
		return nil, err
	}
	t, err := schema.ParseObjType(raw)
	if err != nil {
		return nil, err
	}
	e.Type = t
	return e, nil
}
