// Package match evaluates test-case match rules against a serialized
// conversation session.
package match

import (
	"strconv"
	"strings"
)

// Resolve walks a JSON-shaped structure (maps, slices, scalars) along a
// dot-separated path and returns the value found. The second return is false
// when the path does not resolve.
//
// Rules, in order:
//   - an empty path returns root itself;
//   - a numeric segment (optionally signed) indexes into a slice, counting
//     from the end when negative; out-of-range is absent, never an error;
//   - against a map the segment is always a literal key, even when it looks
//     numeric;
//   - any other combination (indexing a map, keying a scalar) is absent;
//   - absent propagates through the remaining segments.
func Resolve(root any, path string) (any, bool) {
	if path == "" {
		return root, true
	}

	current := root
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil {
				return nil, false
			}
			if idx < 0 {
				idx += len(node)
			}
			if idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		case map[string]any:
			value, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = value
		default:
			return nil, false
		}
	}

	return current, true
}
