package enums

import "fmt"

func contains[T ~string](valid []T, value T) bool {
	for _, candidate := range valid {
		if candidate == value {
			return true
		}
	}
	return false
}

func parse[T ~string](valid []T, value, label string) (T, error) {
	for _, candidate := range valid {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", label, value)
}

func values[T ~string](valid []T) []string {
	out := make([]string, len(valid))
	for i, v := range valid {
		out[i] = string(v)
	}
	return out
}
