package metafield

import (
	"context"

	"storefront-kit/internal/domain"
	"storefront-kit/internal/richtext"
)

// FileResolver batch-resolves file GIDs. Only resolvable GIDs appear in the
// returned map.
type FileResolver interface {
	Resolve(ctx context.Context, gids []string, opts *domain.FetchOptions) map[string]domain.FileRecord
}

// TransformFunc receives the normalized input, the default casted output and
// one info per definition. Its result replaces the default output.
type TransformFunc func(ctx context.Context, normalized domain.NormalizedMetafields, casted domain.Metafields, infos []domain.ResolvedMetafieldInfo) (domain.Metafields, error)

type CastOptions struct {
	RenderRichTextAsHTML bool
	RichText             richtext.Options
	ResolveFiles         bool
	Resolver             FileResolver
	Fetch                *domain.FetchOptions
	Transform            TransformFunc
}

// CastAll casts every defined metafield present in normalized. Definitions
// without a raw value are left out of the output but still reported to the
// transform hook. File references are resolved with a single resolver call.
func CastAll(ctx context.Context, normalized domain.NormalizedMetafields, defs []domain.FieldDefinition, opts CastOptions) (domain.Metafields, error) {
	out := make(domain.Metafields)
	infos := make([]domain.ResolvedMetafieldInfo, 0, len(defs))
	var gids []string

	for _, def := range defs {
		namespace, key := def.Split()
		infos = append(infos, domain.ResolvedMetafieldInfo{
			Namespace: namespace,
			Key:       key,
			FullKey:   def.Field,
			Type:      def.Type,
		})
		raw, ok := normalized.Get(namespace, key)
		if !ok {
			continue
		}
		switch {
		case def.Type == domain.FieldRichText && opts.RenderRichTextAsHTML:
			out.Set(namespace, key, richtext.Render(raw, opts.RichText))
		case def.Type == domain.FieldFileRef && opts.ResolveFiles:
			casted := CastValue(raw, def.Type)
			gids = appendGIDs(gids, casted)
			out.Set(namespace, key, casted)
		default:
			out.Set(namespace, key, CastValue(raw, def.Type))
		}
	}

	if opts.ResolveFiles && opts.Resolver != nil && len(gids) > 0 {
		files := opts.Resolver.Resolve(ctx, dedupe(gids), opts.Fetch)
		for _, def := range defs {
			if def.Type != domain.FieldFileRef {
				continue
			}
			namespace, key := def.Split()
			if v, ok := out.Lookup(namespace, key); ok {
				out.Set(namespace, key, replaceFiles(v, files))
			}
		}
	}

	if opts.Transform != nil {
		return opts.Transform(ctx, normalized, out, infos)
	}
	return out, nil
}

func appendGIDs(gids []string, casted any) []string {
	switch v := casted.(type) {
	case string:
		return append(gids, v)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				gids = append(gids, s)
			}
		}
	}
	return gids
}

func replaceFiles(v any, files map[string]domain.FileRecord) any {
	switch val := v.(type) {
	case string:
		if rec, ok := files[val]; ok {
			return rec
		}
		return val
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = replaceFiles(item, files)
		}
		return out
	}
	return v
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
