package pattern

import (
	"encoding/json"
	"fmt"
)

// decodeOneOf decodes data as a single-key JSON object and dispatches to
// the matching case in cases. Every pattern AST type in this package is an
// untagged union serialized this way (e.g. {"word": "casino"},
// {"any": [...]}, {"not": {...}}) — exactly one key must be present.
func decodeOneOf(data []byte, cases map[string]func(json.RawMessage) error) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("pattern: expected an object: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("pattern: expected exactly one key, got %d", len(raw))
	}
	for key, value := range raw {
		fn, ok := cases[key]
		if !ok {
			return fmt.Errorf("pattern: unknown pattern kind %q", key)
		}
		return fn(value)
	}
	return nil
}
