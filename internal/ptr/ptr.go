// Package ptr helps filling the optional pointer fields of profiles.
package ptr

// Ref returns a pointer to a copy of v.
func Ref[T any](v T) *T {
	return &v
}
