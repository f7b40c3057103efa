package writer

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// ignoredFields never count as a change on their own.
var ignoredFields = map[string]bool{"updated_at": true}

// snapshot normalizes v into its JSON object form. Nil yields nil.
func snapshot(v any) (json.RawMessage, map[string]any, error) {
	if v == nil {
		return nil, nil, nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("encode snapshot: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, nil, fmt.Errorf("snapshot must encode to a JSON object: %w", err)
	}
	return raw, fields, nil
}

// changedFields lists the keys whose values differ between before and after,
// sorted.
func changedFields(before, after map[string]any) []string {
	keys := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}

	var changed []string
	for k := range keys {
		if ignoredFields[k] {
			continue
		}
		b, inBefore := before[k]
		a, inAfter := after[k]
		if inBefore != inAfter || !reflect.DeepEqual(b, a) {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}
