// Package clone deep-copies JSON-shaped values so store snapshots and layer
// payloads stay detached from caller-held references.
package clone

// Value returns a deep copy of a JSON-shaped value. Maps and slices are
// copied recursively; every other type is returned as-is, matching the
// immutability guarantees JSON scalars already provide.
func Value(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return Map(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = Value(item)
		}
		return out
	default:
		return value
	}
}

// Map returns a deep copy of a JSON object. Nil input yields nil.
func Map(values map[string]any) map[string]any {
	if values == nil {
		return nil
	}
	out := make(map[string]any, len(values))
	for key, value := range values {
		out[key] = Value(value)
	}
	return out
}
