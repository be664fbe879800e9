package store

import "maps"

// Editor stages changes inside one Store.Edit call. It is only valid for
// the duration of the callback.
type Editor struct {
	values  map[string]Value
	puts    map[string]Value
	removes map[string]struct{}
	err     error
}

func newEditor(current Record) *Editor {
	values := maps.Clone(current.values)
	if values == nil {
		values = make(map[string]Value)
	}
	return &Editor{
		values:  values,
		puts:    make(map[string]Value),
		removes: make(map[string]struct{}),
	}
}

// Record returns the record as it looks with the staged changes applied.
func (e *Editor) Record() Record {
	return NewRecord(e.values)
}

// Remove stages the removal of a value.
func (e *Editor) Remove(k Named) {
	name := k.Name()
	if name == "" {
		e.fail(ErrEmptyKey)
		return
	}
	delete(e.values, name)
	delete(e.puts, name)
	e.removes[name] = struct{}{}
}

// RemoveAll stages the removal of several values.
func (e *Editor) RemoveAll(keys ...Named) {
	for _, k := range keys {
		e.Remove(k)
	}
}

func (e *Editor) put(name string, v Value) {
	if name == "" {
		e.fail(ErrEmptyKey)
		return
	}
	e.values[name] = v
	e.puts[name] = v
	delete(e.removes, name)
}

func (e *Editor) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}
