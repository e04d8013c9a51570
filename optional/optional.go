// Package optional holds a value that may be absent. Soft enrichments
// (what3words, routes, traffic, weather) are returned as optional values so
// callers handle the missing case explicitly.
package optional

import (
	"bytes"
	"encoding/json"
)

// Value is either Some(v) or None. The zero value is None.
type Value[T any] struct {
	value T
	ok    bool
}

// Some returns a present value.
func Some[T any](v T) Value[T] {
	return Value[T]{value: v, ok: true}
}

// None returns an absent value.
func None[T any]() Value[T] {
	return Value[T]{}
}

// FromPointer returns Some(*p), or None when p is nil.
func FromPointer[T any](p *T) Value[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

// Get returns the value and whether it is present.
func (v Value[T]) Get() (T, bool) {
	return v.value, v.ok
}

// IsPresent reports whether the value is set.
func (v Value[T]) IsPresent() bool {
	return v.ok
}

// OrElse returns the value, or fallback when absent.
func (v Value[T]) OrElse(fallback T) T {
	if v.ok {
		return v.value
	}
	return fallback
}

// Ptr returns a pointer to a copy of the value, or nil when absent.
func (v Value[T]) Ptr() *T {
	if !v.ok {
		return nil
	}
	out := v.value
	return &out
}

// MarshalJSON encodes the value, or null when absent.
func (v Value[T]) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.value)
}

// UnmarshalJSON decodes null as None and anything else as Some.
func (v *Value[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = None[T]()
		return nil
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*v = Some(out)
	return nil
}
