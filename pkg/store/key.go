package store

import (
	"context"
	"math"
)

// Scalar is the set of Go types a Key can hold.
type Scalar interface {
	string | int | int64 | bool
}

// Named is anything that names a stored value.
type Named interface {
	Name() string
}

// Key is a typed handle to one stored value.
type Key[T Scalar] struct {
	name string
}

// NewKey returns a key for name.
func NewKey[T Scalar](name string) Key[T] {
	return Key[T]{name: name}
}

// StringKey returns a string key.
func StringKey(name string) Key[string] { return NewKey[string](name) }

// IntKey returns an int key.
func IntKey(name string) Key[int] { return NewKey[int](name) }

// LongKey returns an int64 key.
func LongKey(name string) Key[int64] { return NewKey[int64](name) }

// BoolKey returns a bool key.
func BoolKey(name string) Key[bool] { return NewKey[bool](name) }

// Name implements Named.
func (k Key[T]) Name() string { return k.name }

// From reads the key from r. It reports false when the value is absent or
// cannot be converted to T.
func (k Key[T]) From(r Record) (T, bool) {
	v, ok := r.Value(k.name)
	if !ok {
		var zero T
		return zero, false
	}
	return fromValue[T](v)
}

// Or reads the key from r, returning def when it is absent or invalid.
func (k Key[T]) Or(r Record, def T) T {
	if v, ok := k.From(r); ok {
		return v
	}
	return def
}

func fromValue[T Scalar](v Value) (T, bool) {
	var zero T
	var out any

	switch any(zero).(type) {
	case string:
		s, ok := v.AsString()
		if !ok {
			return zero, false
		}
		out = s
	case int:
		n, ok := v.AsInt64()
		if !ok || n < math.MinInt || n > math.MaxInt {
			return zero, false
		}
		out = int(n)
	case int64:
		n, ok := v.AsInt64()
		if !ok {
			return zero, false
		}
		out = n
	case bool:
		b, ok := v.AsBool()
		if !ok {
			return zero, false
		}
		out = b
	}

	return out.(T), true
}

func toValue[T Scalar](v T) Value {
	switch x := any(v).(type) {
	case string:
		return StringValue(x)
	case int:
		return IntValue(x)
	case int64:
		return LongValue(x)
	case bool:
		return BoolValue(x)
	}
	return Value{}
}

// Put stages v under k in the edit.
func Put[T Scalar](e *Editor, k Key[T], v T) {
	e.put(k.name, toValue(v))
}

// Get returns the current value of k, or def when it is absent.
func Get[T Scalar](ctx context.Context, s *Store, k Key[T], def T) (T, error) {
	r, err := s.Data(ctx)
	if err != nil {
		return def, err
	}
	return k.Or(r, def), nil
}

// Set replaces the value of k.
func Set[T Scalar](ctx context.Context, s *Store, k Key[T], v T) error {
	return s.Edit(ctx, func(e *Editor) error {
		Put(e, k, v)
		return nil
	})
}

// Watch streams the value of k: first the current value, then every
// distinct change. Slow receivers only see the latest value. The channel
// is closed when ctx is done or the store is closed.
func Watch[T Scalar](ctx context.Context, s *Store, k Key[T], def T) <-chan T {
	return WatchFunc(ctx, s, func(r Record) T {
		return k.Or(r, def)
	}, func(a, b T) bool {
		return a == b
	})
}

// WatchFunc streams a value derived from the record with get, suppressing
// consecutive values that equal reports as the same.
func WatchFunc[T any](ctx context.Context, s *Store, get func(Record) T, equal func(a, b T) bool) <-chan T {
	records := s.Subscribe(ctx)
	out := make(chan T, 1)

	go func() {
		defer close(out)

		var last T
		first := true
		for r := range records {
			v := get(r)
			if !first && equal(v, last) {
				continue
			}
			first = false
			last = v
			offer(out, v)
		}
	}()

	return out
}

// offer delivers v on a single-slot channel, replacing a value the receiver
// has not consumed yet. Only one goroutine may send on ch.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
