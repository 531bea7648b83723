package gold

import (
	"encoding/json"
	"reflect"
)

// RecursiveReplace returns a copy of actual in which every position whose
// counterpart in expected equals search is replaced by replace.
func RecursiveReplace(expected, actual, search, replace any) any {
	return Visit(expected, actual, func(e, _ any) (any, bool) {
		if reflect.DeepEqual(e, search) {
			return replace, true
		}
		return nil, false
	}, nil)
}

// MaskWildcards forces every position that is a Wildcard in expected to
// Wildcard in a copy of actual, so wildcarded positions never contribute to a
// difference.
func MaskWildcards(expected, actual any) any {
	return RecursiveReplace(expected, actual, Wildcard, Wildcard)
}

// InsertWildcards compares two captures of the same test and returns fresh
// with a Wildcard at every scalar leaf of previous whose value changed.
// Wildcards already present in previous are kept. Both trees must be
// normalized.
func InsertWildcards(previous, fresh any) any {
	return Visit(previous, fresh, func(p, f any) (any, bool) {
		if IsWildcard(p) {
			return Wildcard, true
		}
		if isScalar(p) && !reflect.DeepEqual(p, f) {
			return Wildcard, true
		}
		return nil, false
	}, nil)
}

// isScalar reports whether v is a leaf eligible for automatic wildcarding.
// null is deliberately excluded.
func isScalar(v any) bool {
	switch v.(type) {
	case string, json.Number, bool:
		return true
	}
	return false
}
