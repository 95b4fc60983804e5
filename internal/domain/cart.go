package domain

import "time"

// AttributeType enumerates the cart attribute cast targets.
type AttributeType string

const (
	AttributeString  AttributeType = "string"
	AttributeBoolean AttributeType = "boolean"
	AttributeInteger AttributeType = "integer"
	AttributeDecimal AttributeType = "decimal"
	AttributeJSON    AttributeType = "json"
	AttributeDate    AttributeType = "date"
)

// Known reports whether t is one of the attribute types above.
func (t AttributeType) Known() bool {
	switch t {
	case AttributeString, AttributeBoolean, AttributeInteger, AttributeDecimal, AttributeJSON, AttributeDate:
		return true
	}
	return false
}

// CartAttributeDefinition declares one flat cart attribute.
type CartAttributeDefinition struct {
	Key  string        `json:"key" yaml:"key"`
	Type AttributeType `json:"type" yaml:"type"`
}

// ResolvedAttributeInfo is produced for every declared attribute, present or not.
type ResolvedAttributeInfo struct {
	Key   string        `json:"key"`
	Type  AttributeType `json:"type"`
	Value string        `json:"value"`
}

// Attribute is a cart-level key/value pair.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Money is a monetary amount with its amount coerced to a number.
type Money struct {
	Amount       float64 `json:"amount"`
	CurrencyCode string  `json:"currencyCode"`
}

// CartCost groups the cart-level cost breakdown; absent parts stay nil.
type CartCost struct {
	SubtotalAmount  *Money `json:"subtotalAmount,omitempty"`
	TotalAmount     *Money `json:"totalAmount,omitempty"`
	TotalTaxAmount  *Money `json:"totalTaxAmount,omitempty"`
	TotalDutyAmount *Money `json:"totalDutyAmount,omitempty"`
}

// BuyerIdentity identifies the buyer a cart is associated with.
type BuyerIdentity struct {
	Email               string `json:"email,omitempty"`
	Phone               string `json:"phone,omitempty"`
	CountryCode         string `json:"countryCode,omitempty"`
	CustomerAccessToken string `json:"customerAccessToken,omitempty"`
}

// DiscountCode is a code applied to the cart.
type DiscountCode struct {
	Code       string `json:"code"`
	Applicable bool   `json:"applicable"`
}

// UserError is a domain-level rejection returned next to a mutation payload.
type UserError struct {
	Field   []string `json:"field,omitempty"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

// Image is a storefront image reference.
type Image struct {
	URL     string `json:"url"`
	AltText string `json:"altText,omitempty"`
}

// CartProduct is the parent product of a line's merchandise.
type CartProduct struct {
	ID         string     `json:"id,omitempty"`
	Title      string     `json:"title"`
	Handle     string     `json:"handle"`
	Metafields Metafields `json:"metafields"`
}

// Merchandise is the purchasable variant of a cart line.
type Merchandise struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Image      *Image      `json:"image,omitempty"`
	Price      *Money      `json:"price,omitempty"`
	Product    CartProduct `json:"product"`
	Metafields Metafields  `json:"metafields"`
}

// CartLine pairs a variant with a quantity.
type CartLine struct {
	ID          string      `json:"id"`
	Quantity    int         `json:"quantity"`
	Merchandise Merchandise `json:"merchandise"`
	Attributes  []Attribute `json:"attributes,omitempty"`
	Cost        *LineCost   `json:"cost,omitempty"`
}

// LineCost is the per-line cost breakdown.
type LineCost struct {
	TotalAmount *Money `json:"totalAmount,omitempty"`
}

// Cart is the normalized server view of a checkout session. It is replaced
// wholesale after every mutation.
type Cart struct {
	ID               string          `json:"id"`
	CheckoutURL      string          `json:"checkoutUrl"`
	Note             string          `json:"note,omitempty"`
	TotalQuantity    int             `json:"totalQuantity,omitempty"`
	CreatedAt        *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt        *time.Time      `json:"updatedAt,omitempty"`
	Cost             CartCost        `json:"cost"`
	Lines            []CartLine      `json:"lines"`
	Attributes       []Attribute     `json:"attributes,omitempty"`
	CustomAttributes AttributeValues `json:"customAttributes,omitempty"`
	BuyerIdentity    *BuyerIdentity  `json:"buyerIdentity,omitempty"`
	DiscountCodes    []DiscountCode  `json:"discountCodes,omitempty"`
	UserErrors       []UserError     `json:"userErrors,omitempty"`
}

// LineIDs returns the ids of every line in order.
func (c *Cart) LineIDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, 0, len(c.Lines))
	for _, line := range c.Lines {
		if line.ID != "" {
			ids = append(ids, line.ID)
		}
	}
	return ids
}

// TotalLineQuantity sums the quantity of every line.
func (c *Cart) TotalLineQuantity() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, line := range c.Lines {
		total += line.Quantity
	}
	return total
}

// CartLineInput adds merchandise to a cart.
type CartLineInput struct {
	MerchandiseID string      `json:"merchandiseId"`
	Quantity      int         `json:"quantity"`
	Attributes    []Attribute `json:"attributes,omitempty"`
}

// CartLineUpdateInput changes the quantity of an existing line.
type CartLineUpdateInput struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// BuyerIdentityInput is the payload for buyer identity updates.
type BuyerIdentityInput struct {
	Email               string `json:"email,omitempty"`
	Phone               string `json:"phone,omitempty"`
	CountryCode         string `json:"countryCode,omitempty"`
	CustomerAccessToken string `json:"customerAccessToken,omitempty"`
}
