package graphql

import (
	"fmt"

	"storefront-kit/internal/domain"
)

// DefaultLineLimit is the number of cart lines requested per cart read.
const DefaultLineLimit = 250

// CartQueries holds every cart document for one set of metafield definitions.
type CartQueries struct {
	selection string
}

func NewCartQueries(lineLimit int, productDefs, variantDefs []domain.FieldDefinition) *CartQueries {
	if lineLimit <= 0 {
		lineLimit = DefaultLineLimit
	}
	return &CartQueries{
		selection: cartSelection(lineLimit, MetafieldIdentifiers(productDefs), MetafieldIdentifiers(variantDefs)),
	}
}

func cartSelection(lineLimit int, productIdents, variantIdents string) string {
	return fmt.Sprintf(`cart {
      id
      checkoutUrl
      note
      totalQuantity
      createdAt
      updatedAt
      cost {
        subtotalAmount %[4]s
        totalAmount %[4]s
        totalTaxAmount %[4]s
        totalDutyAmount %[4]s
      }
      attributes { key value }
      buyerIdentity {
        email
        phone
        countryCode
      }
      discountCodes {
        code
        applicable
      }
      lines(first: %[1]d) {
        edges {
          node {
            id
            quantity
            attributes { key value }
            cost {
              totalAmount %[4]s
            }
            merchandise {
              ... on ProductVariant {
                id
                title
                image { url altText }
                price %[4]s
                metafields(identifiers: [%[3]s]) {
                  key
                  value
                }
                product {
                  id
                  title
                  handle
                  metafields(identifiers: [%[2]s]) {
                    key
                    value
                  }
                }
              }
            }
          }
        }
      }
    }`, lineLimit, productIdents, variantIdents, moneyFields)
}

func (q *CartQueries) mutation(header, field string) string {
	return fmt.Sprintf(`
  mutation %s {
    %s {
    %s
    %s
    }
  }
`, header, field, q.selection, userErrorFields)
}

// Create returns the cartCreate mutation. Variables: input (optional).
func (q *CartQueries) Create() string {
	return q.mutation("createCart($input: CartInput)", "cartCreate(input: $input)")
}

// Get returns the getCart query. Variables: cartId.
func (q *CartQueries) Get() string {
	return fmt.Sprintf(`
  query getCart($cartId: ID!) {
    %s
  }
`, q.selection)
}

// LinesAdd returns the cartLinesAdd mutation. Variables: cartId, lines.
func (q *CartQueries) LinesAdd() string {
	return q.mutation("addToCart($cartId: ID!, $lines: [CartLineInput!]!)", "cartLinesAdd(cartId: $cartId, lines: $lines)")
}

// LinesRemove returns the cartLinesRemove mutation. Variables: cartId, lineIds.
func (q *CartQueries) LinesRemove() string {
	return q.mutation("removeFromCart($cartId: ID!, $lineIds: [ID!]!)", "cartLinesRemove(cartId: $cartId, lineIds: $lineIds)")
}

// LinesUpdate returns the cartLinesUpdate mutation. Variables: cartId, lines.
func (q *CartQueries) LinesUpdate() string {
	return q.mutation("updateCartItem($cartId: ID!, $lines: [CartLineUpdateInput!]!)", "cartLinesUpdate(cartId: $cartId, lines: $lines)")
}

// DiscountCodesUpdate returns the cartDiscountCodesUpdate mutation. Variables: cartId, discountCodes.
func (q *CartQueries) DiscountCodesUpdate() string {
	return q.mutation("applyDiscount($cartId: ID!, $discountCodes: [String!]!)", "cartDiscountCodesUpdate(cartId: $cartId, discountCodes: $discountCodes)")
}

// AttributesUpdate returns the cartAttributesUpdate mutation. Variables: cartId, attributes.
func (q *CartQueries) AttributesUpdate() string {
	return q.mutation("updateCartAttributes($cartId: ID!, $attributes: [AttributeInput!]!)", "cartAttributesUpdate(cartId: $cartId, attributes: $attributes)")
}

// BuyerIdentityUpdate returns the cartBuyerIdentityUpdate mutation. Variables: cartId, buyerIdentity.
func (q *CartQueries) BuyerIdentityUpdate() string {
	return q.mutation("updateBuyerIdentity($cartId: ID!, $buyerIdentity: CartBuyerIdentityInput!)", "cartBuyerIdentityUpdate(cartId: $cartId, buyerIdentity: $buyerIdentity)")
}

// Merge returns the cartMerge mutation. Variables: sourceCartId, destinationCartId.
func (q *CartQueries) Merge() string {
	return q.mutation("mergeCarts($sourceCartId: ID!, $destinationCartId: ID!)", "cartMerge(sourceCartId: $sourceCartId, destinationCartId: $destinationCartId)")
}
