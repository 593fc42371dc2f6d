package match

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// StructuralEqual compares two values by exact structural JSON equivalence:
// object comparison is key-set based (member order irrelevant), array
// comparison is order-sensitive, numbers compare as their JSON forms. Both
// values are normalized through JSON before comparison, so a Go struct and
// the map it marshals to compare equal.
func StructuralEqual(a, b any) (bool, error) {
	na, err := normalize(a)
	if err != nil {
		return false, fmt.Errorf("cannot normalize first value: %w", err)
	}
	nb, err := normalize(b)
	if err != nil {
		return false, fmt.Errorf("cannot normalize second value: %w", err)
	}
	return reflect.DeepEqual(na, nb), nil
}

// normalize round-trips a value through JSON so that equivalent structures
// share one representation (map[string]any, []any, float64, string, bool,
// nil).
func normalize(v any) (any, error) {
	if raw, ok := v.([]byte); ok {
		var out any
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// renderJSON pretty-prints a value for diagnostic payloads.
func renderJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
