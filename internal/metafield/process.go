package metafield

import (
	"context"

	"github.com/ettle/strcase"

	"storefront-kit/internal/domain"
)

// Camelize returns a copy of m with every map key, at any depth, converted to
// lowerCamelCase. Values are not altered.
func Camelize(m domain.Metafields) domain.Metafields {
	if m == nil {
		return nil
	}
	out := make(domain.Metafields, len(m))
	for namespace, bucket := range m {
		converted := make(map[string]any, len(bucket))
		for key, v := range bucket {
			converted[strcase.ToCamel(key)] = camelizeValue(v)
		}
		out[strcase.ToCamel(namespace)] = converted
	}
	return out
}

func camelizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[strcase.ToCamel(k)] = camelizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = camelizeValue(item)
		}
		return out
	}
	return v
}

// Process runs normalize, cast and the optional camelCase pass for one
// entity. Only defined keys are kept unless a transform hook says otherwise.
func Process(ctx context.Context, fields []*domain.RawMetafield, defs []domain.FieldDefinition, opts CastOptions, camelize bool) (domain.Metafields, error) {
	normalized := Normalize(fields, defs)
	casted, err := CastAll(ctx, normalized, defs, opts)
	if err != nil {
		return nil, err
	}
	if camelize {
		return Camelize(casted), nil
	}
	return casted, nil
}
