// Package metafield turns the flat, string-typed metafield lists returned by
// the storefront into typed, namespaced values.
package metafield

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"storefront-kit/internal/domain"
)

// CastValue converts raw according to t. A raw value holding a JSON array is
// cast element by element: string elements go through the scalar rules, any
// other element is kept as decoded. CastValue never fails; unparseable input
// degrades to NaN, the invalid date, or the original string.
func CastValue(raw string, t domain.FieldType) any {
	if items, ok := parseArray(raw); ok {
		out := make([]any, len(items))
		for i, item := range items {
			if s, isString := item.(string); isString {
				out[i] = castSingle(s, t)
				continue
			}
			out[i] = item
		}
		return out
	}
	return castSingle(raw, t)
}

func castSingle(value string, t domain.FieldType) any {
	switch t {
	case domain.FieldInteger, domain.FieldDecimal, domain.FieldMoney, domain.FieldRating,
		domain.FieldWeight, domain.FieldVolume, domain.FieldDimension:
		return ParseNumber(value)
	case domain.FieldBoolean:
		return value == "true"
	case domain.FieldJSON:
		return ParseJSON(value)
	case domain.FieldDate, domain.FieldDateTime:
		return ParseDate(value)
	default:
		return value
	}
}

func parseArray(raw string) ([]any, bool) {
	if !strings.HasPrefix(strings.TrimSpace(raw), "[") {
		return nil, false
	}
	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, false
	}
	return items, true
}

// ParseNumber reads s as a float64. Blank input is 0 and anything
// unparseable is NaN.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return f
}

// ParseJSON decodes s, returning s itself when it is not valid JSON.
func ParseJSON(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate reads an ISO-8601 date or timestamp. Values without an offset
// are taken as UTC. Unparseable input yields domain.InvalidDate.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return domain.InvalidDate
}
