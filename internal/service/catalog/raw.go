package catalog

import (
	"time"

	"storefront-kit/internal/domain"
	"storefront-kit/internal/service/cart"
)

type rawProduct struct {
	ID              string               `json:"id"`
	Title           string               `json:"title"`
	Handle          string               `json:"handle"`
	DescriptionHTML string               `json:"descriptionHtml"`
	FeaturedImage   *domain.ProductImage `json:"featuredImage"`
	Images          struct {
		Edges []struct {
			Node *domain.ProductImage `json:"node"`
		} `json:"edges"`
	} `json:"images"`
	Variants struct {
		Edges []struct {
			Node *rawVariant `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
	Metafields []*domain.RawMetafield `json:"metafields"`
}

type rawVariant struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	PriceV2          *cart.RawMoney `json:"priceV2"`
	CompareAtPriceV2 *cart.RawMoney `json:"compareAtPriceV2"`
	Product          *struct {
		Title  string `json:"title"`
		Handle string `json:"handle"`
	} `json:"product"`
	Metafields []*domain.RawMetafield `json:"metafields"`
}

type rawFilterGroup struct {
	ID     string               `json:"id"`
	Label  string               `json:"label"`
	Values []domain.FilterValue `json:"values"`
}

type rawCollection struct {
	ID              string                  `json:"id"`
	Title           string                  `json:"title"`
	Handle          string                  `json:"handle"`
	Description     *string                 `json:"description"`
	DescriptionHTML *string                 `json:"descriptionHtml"`
	UpdatedAt       *time.Time              `json:"updatedAt"`
	Image           *domain.CollectionImage `json:"image"`
	SEO             *domain.SEO             `json:"seo"`
	Metafields      []*domain.RawMetafield  `json:"metafields"`
	Products        *struct {
		PageInfo *domain.PageInfo `json:"pageInfo"`
		Filters  []rawFilterGroup `json:"filters"`
		Edges    []struct {
			Node *rawProduct `json:"node"`
		} `json:"edges"`
	} `json:"products"`
}

type rawSearch struct {
	TotalCount     int              `json:"totalCount"`
	PageInfo       *domain.PageInfo `json:"pageInfo"`
	ProductFilters []rawFilterGroup `json:"productFilters"`
	Nodes          []*rawProduct    `json:"nodes"`
}

func formatFilters(raw []rawFilterGroup) []domain.FilterGroup {
	out := make([]domain.FilterGroup, 0, len(raw))
	for _, group := range raw {
		values := group.Values
		if values == nil {
			values = []domain.FilterValue{}
		}
		out = append(out, domain.FilterGroup{ID: group.ID, Label: group.Label, Values: values})
	}
	return out
}

func (c *rawCollection) toDomain() *domain.Collection {
	return &domain.Collection{
		ID:              c.ID,
		Title:           c.Title,
		Handle:          c.Handle,
		Description:     deref(c.Description),
		DescriptionHTML: deref(c.DescriptionHTML),
		UpdatedAt:       c.UpdatedAt,
		Image:           c.Image,
		SEO:             c.SEO,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
