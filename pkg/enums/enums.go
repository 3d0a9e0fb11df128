// Package enums holds the closed string sets persisted in the database and
// accepted over the API.
package enums

import "fmt"

func isOneOf[T ~string](v T, set []T) bool {
	for _, candidate := range set {
		if candidate == v {
			return true
		}
	}
	return false
}

func parseOneOf[T ~string](kind, raw string, set []T) (T, error) {
	if v := T(raw); isOneOf(v, set) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, raw)
}
