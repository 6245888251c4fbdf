package safety

import (
	"encoding/json"
	"fmt"
)

// DefaultMaxPayloadBytes is the default byte cap for a serialized payload.
const DefaultMaxPayloadBytes = 65536

var prototypePollutionKeys = map[string]bool{
	"__proto__":   true,
	"constructor": true,
	"prototype":   true,
}

// SanitizePayload serializes input to JSON, enforces maxBytes (0 uses
// DefaultMaxPayloadBytes), then re-parses it dropping any key named
// __proto__, constructor, or prototype at any depth. A nil input yields an
// empty mapping.
func SanitizePayload(input any, maxBytes int) (map[string]any, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPayloadBytes
	}

	if input == nil {
		return map[string]any{}, nil
	}

	raw, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("PayloadInvalid: %w", err)
	}
	if len(raw) > maxBytes {
		return nil, fmt.Errorf("PayloadTooLarge: serialized payload is %d bytes, max %d", len(raw), maxBytes)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("PayloadInvalid: %w", err)
	}

	cleaned := stripDangerousKeys(parsed)
	m, ok := cleaned.(map[string]any)
	if !ok {
		// Top-level non-object input (array, scalar): wrap isn't meaningful
		// here since the data model requires a mapping. Treat as invalid.
		return nil, fmt.Errorf("PayloadInvalid: payload must be a JSON object")
	}
	return m, nil
}

// stripDangerousKeys recursively removes __proto__/constructor/prototype
// keys from maps, and recurses into slices.
func stripDangerousKeys(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			if prototypePollutionKeys[k] {
				continue
			}
			out[k] = stripDangerousKeys(vv)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			out[i] = stripDangerousKeys(vv)
		}
		return out
	default:
		return v
	}
}
