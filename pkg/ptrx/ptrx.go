// Package ptrx holds the tiny pointer helpers the SDK wrappers need.
// Several AWS and AI SDKs take optional scalars as pointers; these helpers
// keep call sites free of throwaway variables.
package ptrx

// To returns a pointer to v.
func To[T any](v T) *T {
	return &v
}

// From dereferences p, returning the zero value when p is nil.
func From[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// FromOr dereferences p, returning def when p is nil.
func FromOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// Typed wrappers for the SDK fields used across the providers.

func Bool(v bool) *bool          { return &v }
func String(v string) *string    { return &v }
func Int32(v int32) *int32       { return &v }
func Int64(v int64) *int64       { return &v }
func Float32(v float32) *float32 { return &v }
func Float64(v float64) *float64 { return &v }
