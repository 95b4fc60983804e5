package cart

import (
	"context"
	"math"

	"storefront-kit/internal/domain"
	"storefront-kit/internal/metafield"
)

// AttributeTransformFunc receives the raw attributes, the default casted map
// and one info per definition. Its result replaces the default output.
type AttributeTransformFunc func(ctx context.Context, raw []domain.Attribute, casted map[string]any, infos []domain.ResolvedAttributeInfo) (map[string]any, error)

// CastAttributes casts the declared cart attributes. Every declared key is
// present in the result; keys without a raw attribute map to nil.
func CastAttributes(ctx context.Context, raw []domain.Attribute, defs []domain.CartAttributeDefinition, hook AttributeTransformFunc) (map[string]any, error) {
	values := make(map[string]string, len(raw))
	for _, attr := range raw {
		values[attr.Key] = attr.Value
	}

	out := make(map[string]any, len(defs))
	infos := make([]domain.ResolvedAttributeInfo, 0, len(defs))
	for _, def := range defs {
		value, ok := values[def.Key]
		infos = append(infos, domain.ResolvedAttributeInfo{Key: def.Key, Type: def.Type, Value: value})
		if !ok {
			out[def.Key] = nil
			continue
		}
		out[def.Key] = castAttribute(value, def.Type)
	}

	if hook != nil {
		return hook(ctx, raw, out, infos)
	}
	return out, nil
}

func castAttribute(value string, t domain.AttributeType) any {
	switch t {
	case domain.AttributeInteger:
		return math.Trunc(metafield.ParseNumber(value))
	case domain.AttributeDecimal:
		return metafield.ParseNumber(value)
	case domain.AttributeBoolean:
		return value == "true"
	case domain.AttributeJSON:
		return metafield.ParseJSON(value)
	case domain.AttributeDate:
		return metafield.ParseDate(value)
	default:
		return value
	}
}
