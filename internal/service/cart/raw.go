package cart

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"storefront-kit/internal/domain"
)

// RawCart is a cart as the storefront returns it: lines may be a connection
// and money amounts are strings.
type RawCart struct {
	ID            string                `json:"id"`
	CheckoutURL   string                `json:"checkoutUrl"`
	Note          string                `json:"note"`
	TotalQuantity int                   `json:"totalQuantity"`
	CreatedAt     *time.Time            `json:"createdAt"`
	UpdatedAt     *time.Time            `json:"updatedAt"`
	Cost          *RawCost              `json:"cost"`
	Lines         RawLines              `json:"lines"`
	Attributes    []domain.Attribute    `json:"attributes"`
	BuyerIdentity *domain.BuyerIdentity `json:"buyerIdentity"`
	DiscountCodes []domain.DiscountCode `json:"discountCodes"`
}

type RawCost struct {
	SubtotalAmount  *RawMoney `json:"subtotalAmount"`
	TotalAmount     *RawMoney `json:"totalAmount"`
	TotalTaxAmount  *RawMoney `json:"totalTaxAmount"`
	TotalDutyAmount *RawMoney `json:"totalDutyAmount"`
}

type RawMoney struct {
	Amount       Amount `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// Amount accepts a decimal string or a number.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(parseAmount(s))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}

func parseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func (m *RawMoney) Money() *domain.Money {
	if m == nil {
		return nil
	}
	return &domain.Money{Amount: float64(m.Amount), CurrencyCode: m.CurrencyCode}
}

// RawLines decodes either a flat line array or an {edges:[{node}]} connection
// into a flat list.
type RawLines []RawLine

func (l *RawLines) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}
	if trimmed[0] == '[' {
		var flat []RawLine
		if err := json.Unmarshal(trimmed, &flat); err != nil {
			return err
		}
		*l = flat
		return nil
	}
	var conn struct {
		Edges []struct {
			Node *RawLine `json:"node"`
		} `json:"edges"`
	}
	if err := json.Unmarshal(trimmed, &conn); err != nil {
		return err
	}
	out := make(RawLines, 0, len(conn.Edges))
	for _, edge := range conn.Edges {
		if edge.Node != nil {
			out = append(out, *edge.Node)
		}
	}
	*l = out
	return nil
}

// IDs returns the id of every line.
func (l RawLines) IDs() []string {
	ids := make([]string, 0, len(l))
	for _, line := range l {
		if line.ID != "" {
			ids = append(ids, line.ID)
		}
	}
	return ids
}

type RawLine struct {
	ID          string             `json:"id"`
	Quantity    int                `json:"quantity"`
	Attributes  []domain.Attribute `json:"attributes"`
	Cost        *RawLineCost       `json:"cost"`
	Merchandise *RawMerchandise    `json:"merchandise"`
}

type RawLineCost struct {
	TotalAmount *RawMoney `json:"totalAmount"`
}

type RawMerchandise struct {
	ID         string                 `json:"id"`
	Title      string                 `json:"title"`
	Image      *domain.Image          `json:"image"`
	Price      *RawMoney              `json:"price"`
	Metafields []*domain.RawMetafield `json:"metafields"`
	Product    *RawProduct            `json:"product"`
}

type RawProduct struct {
	ID         string                 `json:"id"`
	Title      string                 `json:"title"`
	Handle     string                 `json:"handle"`
	Metafields []*domain.RawMetafield `json:"metafields"`
}
