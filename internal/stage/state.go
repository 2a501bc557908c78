package stage

import (
	"fmt"
	"maps"
)

// Well-known seed keys.
const (
	KeyJobID      = "jobId"
	KeyScriptText = "scriptText"
	KeyScriptID   = "scriptId"
	KeySessionID  = "sessionId"
)

// State accumulates initial inputs and stage outputs during one run.
// It only ever grows: outputs are merged under each stage's OutputKey.
type State map[string]any

// Clone returns a shallow copy so stages cannot alter the caller's map.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	return maps.Clone(s)
}

// Has reports whether key is present, regardless of its value.
func (s State) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Lookup returns the value under key as T.
func Lookup[T any](s State, key string) (T, error) {
	var zero T
	raw, ok := s[key]
	if !ok {
		return zero, fmt.Errorf("input %q is missing", key)
	}
	value, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("input %q has type %T, want %T", key, raw, zero)
	}
	return value, nil
}

// LookupOr returns the value under key as T, or fallback when absent or of another type.
func LookupOr[T any](s State, key string, fallback T) T {
	value, err := Lookup[T](s, key)
	if err != nil {
		return fallback
	}
	return value
}
