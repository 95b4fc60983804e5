package metafield

import (
	"strings"

	"storefront-kit/internal/domain"
)

// Normalize buckets fields by namespace. The namespace of a bare key is
// recovered from defs; keys that match no definition land under
// domain.FallbackNamespace. Nil entries and entries without a key are skipped.
func Normalize(fields []*domain.RawMetafield, defs []domain.FieldDefinition) domain.NormalizedMetafields {
	namespaces := make(map[string]string, len(defs))
	for _, def := range defs {
		namespace, key := def.Split()
		namespaces[key] = namespace
	}

	out := make(domain.NormalizedMetafields)
	for _, field := range fields {
		if field == nil || field.Key == "" {
			continue
		}
		key := field.Key
		if i := strings.LastIndex(key, "."); i >= 0 {
			key = key[i+1:]
		}
		namespace, ok := namespaces[key]
		if !ok || namespace == "" {
			namespace = domain.FallbackNamespace
		}
		bucket, ok := out[namespace]
		if !ok {
			bucket = make(map[string]string)
			out[namespace] = bucket
		}
		bucket[key] = field.Value
	}
	return out
}
