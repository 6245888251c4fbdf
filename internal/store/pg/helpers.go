package pg

import (
	"encoding/json"
	"strings"
	"time"
)

// --- Nullable helpers ---

func nilStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nilTime(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	return t
}

// --- JSON helpers ---

// marshalJSONB encodes v as a jsonb column value, defaulting nil maps to an
// empty object so NULL never has to be special-cased on read.
func marshalJSONB(v any) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(data) == "null" {
		return []byte("{}"), nil
	}
	return data, nil
}

func unmarshalJSONMap(data []byte, dest *map[string]any) error {
	if len(data) == 0 {
		*dest = map[string]any{}
		return nil
	}
	return json.Unmarshal(data, dest)
}

func unmarshalJSONStrMap(data []byte, dest *map[string]string) error {
	if len(data) == 0 {
		*dest = map[string]string{}
		return nil
	}
	return json.Unmarshal(data, dest)
}

// --- PostgreSQL array helpers ---

// pqStringArray converts a Go string slice to a Postgres text[] literal.
func pqStringArray(arr []string) any {
	if arr == nil {
		return nil
	}
	return "{" + strings.Join(arr, ",") + "}"
}

// scanStringArray parses a Postgres text[] column (scanned as []byte) into a
// Go string slice.
func scanStringArray(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	s := strings.TrimSuffix(strings.TrimPrefix(string(data), "{"), "}")
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
