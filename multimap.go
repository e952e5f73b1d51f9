package parena

import "unsafe"

// MultiMap is a map from key to a set of values, realized by nesting a
// payload-less Index (a set of value strings) inside the payload slot
// of an outer Index whose payload width is sizeof(Offset) — the handle
// of the nested Index's header. Both outer and inner rehashes leave
// the nested header handle untouched, since it is an arena handle, not
// a pointer.
type MultiMap struct {
	outer *Index
}

// CreateMultiMap allocates the outer index of a new multi-map.
func CreateMultiMap(a *Arena) (*MultiMap, error) {
	outer, err := CreateIndex(a, 8)
	if err != nil {
		return nil, err
	}
	return &MultiMap{outer: outer}, nil
}

// Outer returns the multi-map's outer Index, e.g. to Enumerate its keys.
func (m *MultiMap) Outer() *Index { return m.outer }

// Insert adds value to the set stored under key, creating that set's
// nested Index on the key's first insertion.
func (m *MultiMap) Insert(a *Arena, key, value []byte) error {
	pos, ok := m.outer.Lookup(a, key)
	if !ok {
		var err error
		pos, err = m.outer.Insert(a, key)
		if err != nil {
			return err
		}
		nested, err := CreateIndex(a, 0)
		if err != nil {
			return err
		}
		putOffset(m.outer.ValueRef(a, pos), nested.Header())
	}

	nested := OpenIndex(getOffset(m.outer.ValueRef(a, pos)))
	_, err := nested.Insert(a, value)
	return err
}

// Child returns the nested Index stored under key, and whether key has
// any values at all. This mirrors the original source's multimap_get:
// given an outer slot's payload, it hands back the nested set directly
// without requiring a fresh insert.
func (m *MultiMap) Child(a *Arena, key []byte) (*Index, bool) {
	pos, ok := m.outer.Lookup(a, key)
	if !ok {
		return nil, false
	}
	return OpenIndex(getOffset(m.outer.ValueRef(a, pos))), true
}

// ChildAt returns the nested Index stored in the outer bucket at pos,
// for use alongside Outer().Enumerate(a).
func (m *MultiMap) ChildAt(a *Arena, pos uint64) *Index {
	return OpenIndex(getOffset(m.outer.ValueRef(a, pos)))
}

func putOffset(dst []byte, off Offset) {
	*(*Offset)(unsafe.Pointer(&dst[0])) = off
}

func getOffset(src []byte) Offset {
	return *(*Offset)(unsafe.Pointer(&src[0]))
}
