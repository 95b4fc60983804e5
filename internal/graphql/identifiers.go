// Package graphql builds the storefront GraphQL documents. Metafield
// selections are generated from the caller's definitions.
package graphql

import (
	"encoding/json"
	"fmt"
	"strings"

	"storefront-kit/internal/domain"
)

// MetafieldIdentifiers renders defs as the body of a metafields(identifiers: [...]) argument.
func MetafieldIdentifiers(defs []domain.FieldDefinition) string {
	parts := make([]string, 0, len(defs))
	for _, def := range defs {
		namespace, key := def.Split()
		parts = append(parts, fmt.Sprintf("{ namespace: %s, key: %s }", quote(namespace), quote(key)))
	}
	return strings.Join(parts, ",\n")
}

// quote produces a GraphQL string literal; JSON string escaping is a subset of it.
func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

const moneyFields = `{ amount currencyCode }`

const userErrorFields = `userErrors {
      field
      message
      code
    }`

// productFields is the product selection shared by product, collection and search reads.
func productFields(productIdents, variantIdents string) string {
	return fmt.Sprintf(`id
      title
      handle
      descriptionHtml
      featuredImage {
        url
        originalSrc
        altText
      }
      images(first: 10) {
        edges {
          node {
            url
            originalSrc
            altText
          }
        }
      }
      variants(first: 10) {
        edges {
          node {
            id
            title
            priceV2 %[3]s
            compareAtPriceV2 %[3]s
            product { title handle }
            metafields(identifiers: [%[2]s]) {
              key
              value
            }
          }
        }
      }
      metafields(identifiers: [%[1]s]) {
        key
        value
      }`, productIdents, variantIdents, moneyFields)
}
