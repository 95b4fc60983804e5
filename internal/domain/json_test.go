package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetafieldsJSON_UnparseableNumbersBecomeNull(t *testing.T) {
	m := Metafields{}
	m.Set("custom", "weight", math.NaN())
	m.Set("custom", "sizes", []any{1.0, math.Inf(1)})
	m.Set("custom", "dims", map[string]any{"depth": math.NaN(), "name": "box"})
	m.Set("custom", "file", FileRecord{Kind: FileKindGeneric, ID: "gid://shopify/GenericFile/1", URL: "https://cdn/f.pdf"})

	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"custom":{
		"weight": null,
		"sizes": [1, null],
		"dims": {"depth": null, "name": "box"},
		"file": {"id": "gid://shopify/GenericFile/1", "url": "https://cdn/f.pdf"}
	}}`, string(b))
}

func TestAttributeValuesJSON(t *testing.T) {
	b, err := json.Marshal(Cart{ID: "c", CustomAttributes: AttributeValues{"count": math.NaN(), "gift": true}})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"customAttributes":{"count":null,"gift":true}`)
}

func TestMoneyJSON_UnparseableAmountBecomesNull(t *testing.T) {
	cart := Cart{ID: "c", Cost: CartCost{
		TotalAmount:    &Money{Amount: math.NaN(), CurrencyCode: "EUR"},
		SubtotalAmount: &Money{Amount: 12.5, CurrencyCode: "EUR"},
	}}
	b, err := json.Marshal(cart)
	require.NoError(t, err)

	var decoded struct {
		Cost map[string]json.RawMessage `json:"cost"`
	}
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.JSONEq(t, `{"amount":null,"currencyCode":"EUR"}`, string(decoded.Cost["totalAmount"]))
	assert.JSONEq(t, `{"amount":12.5,"currencyCode":"EUR"}`, string(decoded.Cost["subtotalAmount"]))
}

func TestFieldDefinition(t *testing.T) {
	ns, key := FieldDefinition{Field: "custom.material"}.Split()
	assert.Equal(t, "custom", ns)
	assert.Equal(t, "material", key)

	assert.NoError(t, FieldDefinition{Field: "a.b", Type: FieldFileRef}.Validate())
	assert.ErrorIs(t, FieldDefinition{Field: "ab", Type: FieldJSON}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, FieldDefinition{Field: "a.b", Type: "blob"}.Validate(), ErrInvalidInput)
	assert.True(t, FieldProductVariantRef.IsReference())
	assert.False(t, FieldJSON.IsReference())
}
