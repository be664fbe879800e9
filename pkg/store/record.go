package store

import (
	"maps"
	"slices"
)

// Record is an immutable snapshot of every decodable value in the store.
type Record struct {
	values map[string]Value
}

// NewRecord builds a record from values. The map is copied.
func NewRecord(values map[string]Value) Record {
	return Record{values: maps.Clone(values)}
}

// decodeRecord decodes raw stored bytes, dropping undecodable entries.
func decodeRecord(raw map[string][]byte) Record {
	values := make(map[string]Value, len(raw))
	for name, data := range raw {
		if v, ok := decodeLegacyOrCurrent(data); ok {
			values[name] = v
		}
	}
	return Record{values: values}
}

// Value returns the value stored under name.
func (r Record) Value(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Has reports whether name is present.
func (r Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Collection reads k as an ordered list, accepting both the
// pipe-delimited string and the legacy string set.
func (r Record) Collection(k Named) []string {
	v, ok := r.values[k.Name()]
	if !ok {
		return []string{}
	}
	return v.AsCollection()
}

// Len returns the number of values.
func (r Record) Len() int {
	return len(r.values)
}

// Keys returns the value names in sorted order.
func (r Record) Keys() []string {
	return slices.Sorted(maps.Keys(r.values))
}

// Equal reports whether both records hold the same values.
func (r Record) Equal(o Record) bool {
	return len(diffKeys(r, o)) == 0
}

// diffKeys returns the sorted names whose value differs between a and b.
func diffKeys(a, b Record) []string {
	var changed []string
	for name, av := range a.values {
		bv, ok := b.values[name]
		if !ok || !av.Equal(bv) {
			changed = append(changed, name)
		}
	}
	for name := range b.values {
		if _, ok := a.values[name]; !ok {
			changed = append(changed, name)
		}
	}
	slices.Sort(changed)
	return changed
}
