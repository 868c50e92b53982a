package changes

import "slices"

// Added returns items of current which are not present in previous, preserving their order in current.
func Added[T comparable](previous, current []T) []T {
	known := make(map[T]struct{}, len(previous))
	for _, item := range previous {
		known[item] = struct{}{}
	}

	var added []T
	for _, item := range current {
		if _, ok := known[item]; !ok {
			added = append(added, item)
		}
	}

	return added
}

// AddedFunc works like Added, using eq to test membership instead of the == operator.
func AddedFunc[T any](previous, current []T, eq func(a, b T) bool) []T {
	var added []T
	for _, item := range current {
		known := slices.ContainsFunc(previous, func(candidate T) bool {
			return eq(candidate, item)
		})
		if !known {
			added = append(added, item)
		}
	}

	return added
}
