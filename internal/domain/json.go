package domain

import (
	"encoding/json"
	"math"
)

// MarshalJSON encodes NaN and infinite numbers as null so that a value that
// failed to parse does not break the whole document.
func (m Metafields) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	out := make(map[string]map[string]any, len(m))
	for namespace, bucket := range m {
		converted := make(map[string]any, len(bucket))
		for key, v := range bucket {
			converted[key] = jsonSafe(v)
		}
		out[namespace] = converted
	}
	return json.Marshal(out)
}

// AttributeValues holds casted cart attributes keyed by attribute key.
type AttributeValues map[string]any

func (a AttributeValues) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}
	out := make(map[string]any, len(a))
	for key, v := range a {
		out[key] = jsonSafe(v)
	}
	return json.Marshal(out)
}

// MarshalJSON writes an amount that failed to parse as null.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount       any    `json:"amount"`
		CurrencyCode string `json:"currencyCode"`
	}{jsonSafe(m.Amount), m.CurrencyCode})
}

func jsonSafe(v any) any {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = jsonSafe(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = jsonSafe(item)
		}
		return out
	}
	return v
}
