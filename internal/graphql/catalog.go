package graphql

import (
	"fmt"
	"strings"

	"storefront-kit/internal/domain"
)

// ProductByID returns the getProductById query. Variables: id.
func ProductByID(productDefs, variantDefs []domain.FieldDefinition) string {
	return fmt.Sprintf(`
  query getProductById($id: ID!) {
    node(id: $id) {
      ... on Product {
      %s
      }
    }
  }
`, productFields(MetafieldIdentifiers(productDefs), MetafieldIdentifiers(variantDefs)))
}

// ProductByHandle returns the getProductByHandle query. Variables: handle.
func ProductByHandle(productDefs, variantDefs []domain.FieldDefinition) string {
	return fmt.Sprintf(`
  query getProductByHandle($handle: String!) {
    product(handle: $handle) {
      %s
    }
  }
`, productFields(MetafieldIdentifiers(productDefs), MetafieldIdentifiers(variantDefs)))
}

// CollectionQuery describes the shape of a collection read.
type CollectionQuery struct {
	ByID            bool
	IncludeProducts bool
	HasFilters      bool
	Limit           int
	ProductDefs     []domain.FieldDefinition
	VariantDefs     []domain.FieldDefinition
	CollectionDefs  []domain.FieldDefinition
}

// Document returns the getCollectionProducts query. Variables: id or handle,
// plus cursor, sortKey, reverse and filters when products are included.
func (q CollectionQuery) Document() string {
	var params []string
	selector := "collection(handle: $handle)"
	if q.ByID {
		params = append(params, "$id: ID!")
		selector = "collection(id: $id)"
	} else {
		params = append(params, "$handle: String!")
	}
	products := ""
	if q.IncludeProducts {
		params = append(params, "$cursor: String")
		if q.HasFilters {
			params = append(params, "$filters: [ProductFilter!]")
		}
		params = append(params, "$sortKey: ProductCollectionSortKeys", "$reverse: Boolean")
		filterArg := ""
		if q.HasFilters {
			filterArg = "\n          filters: $filters"
		}
		products = fmt.Sprintf(`
        products(
          first: %d
          after: $cursor
          sortKey: $sortKey
          reverse: $reverse%s
        ) {
          pageInfo {
            hasNextPage
            hasPreviousPage
            startCursor
            endCursor
          }
          filters {
            id
            label
            values {
              id
              label
              count
            }
          }
          edges {
            node {
            %s
            }
          }
        }`, limitOrDefault(q.Limit), filterArg, productFields(MetafieldIdentifiers(q.ProductDefs), MetafieldIdentifiers(q.VariantDefs)))
	}

	return fmt.Sprintf(`
  query getCollectionProducts(%s) {
    %s {
      id
      title
      handle
      description
      descriptionHtml
      updatedAt
      image {
        id
        url
        width
        height
        altText
      }
      seo {
        title
        description
      }
      metafields(identifiers: [%s]) {
        namespace
        key
        value
        type
      }%s
    }
  }
`, strings.Join(params, ", "), selector, MetafieldIdentifiers(q.CollectionDefs), products)
}

// SearchQuery describes the shape of a storefront search.
type SearchQuery struct {
	Limit       int
	HasFilters  bool
	HasTypes    bool
	ProductDefs []domain.FieldDefinition
	VariantDefs []domain.FieldDefinition
}

// Document returns the getSearchResults query. Variables: query, cursor,
// sortKey, reverse, prefix, unavailableProducts, plus productFilters and
// types when present.
func (q SearchQuery) Document() string {
	params := []string{"$query: String!", "$cursor: String"}
	if q.HasFilters {
		params = append(params, "$productFilters: [ProductFilter!]")
	}
	params = append(params,
		"$sortKey: SearchSortKeys",
		"$reverse: Boolean",
		"$prefix: SearchPrefixQueryType",
		"$unavailableProducts: SearchUnavailableProductsType",
	)
	if q.HasTypes {
		params = append(params, "$types: [SearchType!]")
	}
	args := []string{
		"query: $query",
		fmt.Sprintf("first: %d", limitOrDefault(q.Limit)),
		"after: $cursor",
		"sortKey: $sortKey",
		"reverse: $reverse",
		"prefix: $prefix",
		"unavailableProducts: $unavailableProducts",
	}
	if q.HasFilters {
		args = append(args, "productFilters: $productFilters")
	}
	if q.HasTypes {
		args = append(args, "types: $types")
	}

	return fmt.Sprintf(`
  query getSearchResults(%s) {
    search(%s) {
      totalCount
      pageInfo {
        hasNextPage
        hasPreviousPage
        startCursor
        endCursor
      }
      productFilters {
        id
        label
        values {
          id
          label
          count
        }
      }
      nodes {
        ... on Product {
        %s
        }
      }
    }
  }
`, strings.Join(params, ", "), strings.Join(args, ", "), productFields(MetafieldIdentifiers(q.ProductDefs), MetafieldIdentifiers(q.VariantDefs)))
}

// DefaultPageSize is used when a listing does not ask for a limit.
const DefaultPageSize = 12

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	return limit
}

// Files is the getFiles query resolving file and media GIDs. Variables: ids.
const Files = `
  query getFiles($ids: [ID!]!) {
    nodes(ids: $ids) {
      __typename
      ... on GenericFile {
        id
        url
        mimeType
        alt
        originalFileSize
        previewImage {
          id
          url
        }
      }
      ... on MediaImage {
        id
        image {
          url
          altText
        }
      }
      ... on MediaVideo {
        id
        sources {
          mimeType
          url
        }
      }
      ... on ExternalVideo {
        id
        embedUrl
        host
      }
    }
  }
`
