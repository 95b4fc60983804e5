package domain

import "time"

// ProductImage is an image attached to a product.
type ProductImage struct {
	URL         string  `json:"url,omitempty"`
	OriginalSrc string  `json:"originalSrc,omitempty"`
	AltText     *string `json:"altText"`
}

type Variant struct {
	ID             string     `json:"id"`
	ProductTitle   string     `json:"productTitle"`
	VariantTitle   string     `json:"variantTitle"`
	Price          Money      `json:"price"`
	CompareAtPrice *Money     `json:"compareAtPrice"`
	Metafields     Metafields `json:"metafields"`
}

type Product struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Handle          string         `json:"handle"`
	DescriptionHTML string         `json:"descriptionHtml"`
	FeaturedImage   *ProductImage  `json:"featuredImage"`
	Images          []ProductImage `json:"images"`
	Variants        []Variant      `json:"variants"`
	Price           Money          `json:"price"`
	CompareAtPrice  *Money         `json:"compareAtPrice"`
	Metafields      Metafields     `json:"metafields"`
}

// DefaultCurrency is reported for products that carry no variants.
const DefaultCurrency = "EUR"

type CollectionImage struct {
	ID      string  `json:"id,omitempty"`
	URL     string  `json:"url"`
	Width   int     `json:"width,omitempty"`
	Height  int     `json:"height,omitempty"`
	AltText *string `json:"altText"`
}

type SEO struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type Collection struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Handle          string           `json:"handle"`
	Description     string           `json:"description"`
	DescriptionHTML string           `json:"descriptionHtml"`
	UpdatedAt       *time.Time       `json:"updatedAt"`
	Image           *CollectionImage `json:"image"`
	SEO             *SEO             `json:"seo"`
}

// PageInfo is the cursor state of a paginated connection.
type PageInfo struct {
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	StartCursor     *string `json:"startCursor"`
	EndCursor       *string `json:"endCursor"`
}

type FilterValue struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// FilterGroup is one facet available for narrowing a product listing.
type FilterGroup struct {
	ID     string        `json:"id"`
	Label  string        `json:"label"`
	Values []FilterValue `json:"values"`
}
