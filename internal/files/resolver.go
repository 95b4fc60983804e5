// Package files resolves file and media GIDs referenced by metafields.
package files

import (
	"context"

	"go.uber.org/zap"

	"storefront-kit/internal/domain"
	"storefront-kit/internal/graphql"
	"storefront-kit/internal/storefront"
)

type Resolver struct {
	fetcher storefront.Fetcher
	logger  *zap.Logger
}

func NewResolver(fetcher storefront.Fetcher, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{fetcher: fetcher, logger: logger}
}

type fileNode struct {
	Typename         string                `json:"__typename"`
	ID               string                `json:"id"`
	URL              string                `json:"url"`
	MimeType         string                `json:"mimeType"`
	Alt              *string               `json:"alt"`
	OriginalFileSize int64                 `json:"originalFileSize"`
	PreviewImage     *domain.PreviewImage  `json:"previewImage"`
	Image            *struct {
		URL     string  `json:"url"`
		AltText *string `json:"altText"`
	} `json:"image"`
	Sources  []domain.VideoSource `json:"sources"`
	EmbedURL string               `json:"embedUrl"`
	Host     string               `json:"host"`
}

// Resolve looks up gids in one request. Failures are logged and produce a
// partial (possibly empty) map; callers fall back to the GID.
func (r *Resolver) Resolve(ctx context.Context, gids []string, opts *domain.FetchOptions) map[string]domain.FileRecord {
	out := make(map[string]domain.FileRecord)
	if len(gids) == 0 {
		return out
	}
	resp, err := r.fetcher.Fetch(ctx, graphql.Files, map[string]any{"ids": gids}, opts)
	if err != nil {
		r.logger.Error("resolve files failed", zap.Strings("ids", gids), zap.Error(err))
		return out
	}
	if resp.HasErrors() {
		r.logger.Warn("resolve files returned errors", zap.Strings("ids", gids), zap.String("error", resp.FirstError()))
	}
	var data struct {
		Nodes []*fileNode `json:"nodes"`
	}
	if err := resp.Decode(&data); err != nil {
		r.logger.Error("resolve files decode failed", zap.Error(err))
		return out
	}
	for _, node := range data.Nodes {
		if node == nil || node.ID == "" {
			continue
		}
		if rec, ok := toRecord(node); ok {
			out[node.ID] = rec
		}
	}
	return out
}

func toRecord(n *fileNode) (domain.FileRecord, bool) {
	switch n.Typename {
	case domain.FileKindGeneric:
		return domain.FileRecord{
			Kind:             n.Typename,
			ID:               n.ID,
			URL:              n.URL,
			MimeType:         n.MimeType,
			Alt:              n.Alt,
			OriginalFileSize: n.OriginalFileSize,
			PreviewImage:     n.PreviewImage,
		}, true
	case domain.FileKindMediaImage:
		rec := domain.FileRecord{Kind: n.Typename, ID: n.ID}
		if n.Image != nil {
			rec.URL = n.Image.URL
			rec.Alt = n.Image.AltText
		}
		return rec, true
	case domain.FileKindMediaVideo:
		return domain.FileRecord{Kind: n.Typename, ID: n.ID, VideoSources: n.Sources}, true
	case domain.FileKindExternalVideo:
		return domain.FileRecord{Kind: n.Typename, ID: n.ID, EmbedURL: n.EmbedURL, Host: n.Host}, true
	}
	return domain.FileRecord{}, false
}
