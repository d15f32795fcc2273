package drift

import (
	"encoding/json"

	"github.com/google/go-cmp/cmp"
)

// StateDoc is a resource configuration document: an arbitrary JSON
// object keyed by top-level attribute name. Values are whatever
// encoding/json decodes them to (strings, numbers, booleans, nested
// maps and slices).
type StateDoc map[string]any

// Equal reports whether two state documents are deeply structurally
// equal. Documents decoded from JSON contain only maps, slices and
// scalars, so go-cmp needs no options here.
func (s StateDoc) Equal(other StateDoc) bool {
	return cmp.Equal(map[string]any(s), map[string]any(other))
}

// Diff computes the difference between an expected and an actual state
// document: the set of top-level keys whose canonical JSON serialization
// differs, each entry carrying both sides. Keys present on only one side
// count as differing, with the missing side rendered as nil.
func Diff(expected, actual StateDoc) map[string]FieldDiff {
	diff := make(map[string]FieldDiff)
	for key, exp := range expected {
		act, ok := actual[key]
		if !ok {
			diff[key] = FieldDiff{Expected: exp, Actual: nil}
			continue
		}
		if canonical(exp) != canonical(act) {
			diff[key] = FieldDiff{Expected: exp, Actual: act}
		}
	}
	for key, act := range actual {
		if _, ok := expected[key]; !ok {
			diff[key] = FieldDiff{Expected: nil, Actual: act}
		}
	}
	return diff
}

// canonical serializes a value for comparison. Go marshals map keys in
// sorted order, so equal documents serialize identically.
func canonical(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
