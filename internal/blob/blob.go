// Package blob handles the serialized persistence payload: one JSON object
// per storage key mapping signal names to untyped values. Decoding is
// deliberately forgiving; malformed stored text means "no prior data", never
// an error surfaced to the page.
package blob

import (
	"encoding/json"
	"fmt"
)

// Decode parses stored text into a signal value map. ok is false when text
// is empty, not valid JSON, or not a JSON object; callers treat all three as
// absent data.
func Decode(text string) (map[string]any, bool) {
	if text == "" {
		return nil, false
	}
	var values map[string]any
	if err := json.Unmarshal([]byte(text), &values); err != nil {
		return nil, false
	}
	if values == nil {
		return nil, false
	}
	return values, true
}

// Encode serialises a signal value map for storage.
func Encode(values map[string]any) (string, error) {
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("blob: encode: %w", err)
	}
	return string(data), nil
}

// Merge overlays src onto dst one key at a time, returning dst. New values
// win per key; keys only present in dst survive untouched, which is what
// keeps co-tenants of a shared storage key from erasing each other.
func Merge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for key, value := range src {
		dst[key] = value
	}
	return dst
}

// Subset returns the entries of values whose keys appear in names. Keys in
// names that are absent from values are omitted, not defaulted.
func Subset(values map[string]any, names []string) map[string]any {
	out := make(map[string]any, len(names))
	for _, name := range names {
		if value, ok := values[name]; ok {
			out[name] = value
		}
	}
	return out
}
