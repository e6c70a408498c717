package projection

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// Record is a decoded provider JSON object.
type Record = map[string]any

// JSON numbers decode as float64; every numeric accessor goes through
// asFloat so both decoded payloads and test literals work.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func getString(m Record, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	s, ok := m[key].(string)
	return s, ok && s != ""
}

func getFloat(m Record, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	return asFloat(m[key])
}

func getInt(m Record, key string) (int, bool) {
	f, ok := getFloat(m, key)
	return int(f), ok
}

func getInt64(m Record, key string) (int64, bool) {
	f, ok := getFloat(m, key)
	return int64(f), ok
}

func getMap(m Record, key string) (Record, bool) {
	if m == nil {
		return nil, false
	}
	child, ok := m[key].(map[string]any)
	return child, ok
}

func getSlice(m Record, key string) ([]any, bool) {
	if m == nil {
		return nil, false
	}
	s, ok := m[key].([]any)
	return s, ok && len(s) > 0
}

func toJSON(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

func strPtr(s string) *string     { return &s }
func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }
