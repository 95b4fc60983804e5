package cart

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"storefront-kit/internal/domain"
	"storefront-kit/internal/storefront"
)

type fetchCall struct {
	operation string
	variables map[string]any
	opts      *domain.FetchOptions
}

type stubFetcher struct {
	responses []*storefront.Response
	err       error
	calls     []fetchCall
}

func (s *stubFetcher) Fetch(_ context.Context, query string, variables map[string]any, opts *domain.FetchOptions) (*storefront.Response, error) {
	op, _ := storefront.ParseOperation(query)
	s.calls = append(s.calls, fetchCall{operation: op.Name, variables: variables, opts: opts})
	if s.err != nil {
		return nil, s.err
	}
	idx := len(s.calls) - 1
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return s.responses[idx], nil
}

func data(s string) *storefront.Response {
	return &storefront.Response{Data: json.RawMessage(s)}
}

const edgesCart = `{
  "id": "gid://shopify/Cart/1",
  "checkoutUrl": "https://shop/checkout/1",
  "cost": {
    "subtotalAmount": {"amount": "30.00", "currencyCode": "EUR"},
    "totalAmount": {"amount": "36.30", "currencyCode": "EUR"}
  },
  "attributes": [{"key": "gift", "value": "true"}],
  "lines": {"edges": [
    {"node": {"id": "line-1", "quantity": 2, "merchandise": {
      "id": "gid://shopify/ProductVariant/11", "title": "S",
      "price": {"amount": "10.00", "currencyCode": "EUR"},
      "metafields": [{"key": "shoe_size", "value": "42"}, null],
      "product": {"title": "Runner", "handle": "runner", "metafields": [{"key": "custom.material_type", "value": "mesh"}]}
    }}},
    {"node": {"id": "line-2", "quantity": 1, "merchandise": {
      "id": "gid://shopify/ProductVariant/12", "title": "M",
      "price": {"amount": "10.00", "currencyCode": "EUR"},
      "metafields": [],
      "product": {"title": "Runner", "handle": "runner", "metafields": []}
    }}}
  ]}
}`

const flatCart = `{
  "id": "gid://shopify/Cart/1",
  "checkoutUrl": "https://shop/checkout/1",
  "cost": {
    "subtotalAmount": {"amount": 30, "currencyCode": "EUR"},
    "totalAmount": {"amount": "36.30", "currencyCode": "EUR"}
  },
  "attributes": [{"key": "gift", "value": "true"}],
  "lines": [
    {"id": "line-1", "quantity": 2, "merchandise": {
      "id": "gid://shopify/ProductVariant/11", "title": "S",
      "price": {"amount": "10.00", "currencyCode": "EUR"},
      "metafields": [{"key": "shoe_size", "value": "42"}, null],
      "product": {"title": "Runner", "handle": "runner", "metafields": [{"key": "custom.material_type", "value": "mesh"}]}
    }},
    {"id": "line-2", "quantity": 1, "merchandise": {
      "id": "gid://shopify/ProductVariant/12", "title": "M",
      "price": {"amount": "10.00", "currencyCode": "EUR"},
      "metafields": [],
      "product": {"title": "Runner", "handle": "runner", "metafields": []}
    }}
  ]
}`

const emptyCartJSON = `{"id": "gid://shopify/Cart/1", "checkoutUrl": "https://shop/checkout/1", "cost": {"totalAmount": {"amount": "0.0", "currencyCode": "EUR"}}, "lines": {"edges": []}}`

func testConfig() Config {
	return Config{
		ProductMetafields: []domain.FieldDefinition{{Field: "custom.material_type", Type: domain.FieldSingleLineText}},
		VariantMetafields: []domain.FieldDefinition{{Field: "sizing.shoe_size", Type: domain.FieldInteger}},
		Attributes:        []domain.CartAttributeDefinition{{Key: "gift", Type: domain.AttributeBoolean}, {Key: "delivery_date", Type: domain.AttributeDate}},
		Options:           DefaultOptions(),
	}
}

func decodeRaw(t *testing.T, s string) *RawCart {
	t.Helper()
	var raw RawCart
	require.NoError(t, json.Unmarshal([]byte(s), &raw))
	return &raw
}

func TestNormalize_EdgesAndFlatAreEquivalent(t *testing.T) {
	ctx := context.Background()
	fromEdges, err := Normalize(ctx, decodeRaw(t, edgesCart), testConfig(), nil)
	require.NoError(t, err)
	fromFlat, err := Normalize(ctx, decodeRaw(t, flatCart), testConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, fromEdges, fromFlat)
	require.Len(t, fromEdges.Lines, 2)
	assert.Equal(t, "line-1", fromEdges.Lines[0].ID)
	assert.Equal(t, "line-2", fromEdges.Lines[1].ID)
}

func TestNormalize_CastsLinesAndAmounts(t *testing.T) {
	cart, err := Normalize(context.Background(), decodeRaw(t, edgesCart), testConfig(), nil)
	require.NoError(t, err)

	require.NotNil(t, cart.Cost.TotalAmount)
	assert.Equal(t, 36.30, cart.Cost.TotalAmount.Amount)
	assert.Equal(t, 30.0, cart.Cost.SubtotalAmount.Amount)
	assert.Nil(t, cart.Cost.TotalTaxAmount)
	assert.Nil(t, cart.Cost.TotalDutyAmount)

	line := cart.Lines[0]
	assert.Equal(t, 10.0, line.Merchandise.Price.Amount)
	assert.Equal(t, domain.Metafields{"sizing": {"shoeSize": 42.0}}, line.Merchandise.Metafields)
	assert.Equal(t, domain.Metafields{"custom": {"materialType": "mesh"}}, line.Merchandise.Product.Metafields)
	assert.Equal(t, "runner", line.Merchandise.Product.Handle)

	assert.Equal(t, domain.AttributeValues{"gift": true, "delivery_date": nil}, cart.CustomAttributes)
}

func TestNormalize_CamelizeOff(t *testing.T) {
	cfg := testConfig()
	cfg.Options.CamelizeKeys = false
	cart, err := Normalize(context.Background(), decodeRaw(t, edgesCart), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.Metafields{"sizing": {"shoe_size": 42.0}}, cart.Lines[0].Merchandise.Metafields)
	assert.Equal(t, domain.Metafields{"custom": {"material_type": "mesh"}}, cart.Lines[0].Merchandise.Product.Metafields)
}

func TestNormalize_TolerantOfMissingParts(t *testing.T) {
	cart, err := Normalize(context.Background(), decodeRaw(t, `{"id":"c","lines":[{"id":"l"}]}`), testConfig(), nil)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Nil(t, cart.Cost.TotalAmount)

	cart, err = Normalize(context.Background(), decodeRaw(t, `{"id":"c"}`), Config{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, cart.Lines)
	assert.Empty(t, cart.Lines)

	cart, err = Normalize(context.Background(), nil, Config{}, nil)
	require.NoError(t, err)
	assert.Nil(t, cart)
}

func TestNormalize_TransformHookPerEntity(t *testing.T) {
	cfg := testConfig()
	cfg.Options.TransformProductMetafields = func(context.Context, domain.NormalizedMetafields, domain.Metafields, []domain.ResolvedMetafieldInfo) (domain.Metafields, error) {
		return domain.Metafields{"product_hook": {"ok": true}}, nil
	}
	cart, err := Normalize(context.Background(), decodeRaw(t, edgesCart), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.Metafields{"productHook": {"ok": true}}, cart.Lines[0].Merchandise.Product.Metafields)
	assert.Equal(t, domain.Metafields{"sizing": {"shoeSize": 42.0}}, cart.Lines[0].Merchandise.Metafields)
}

func TestService_Create(t *testing.T) {
	fetcher := &stubFetcher{responses: []*storefront.Response{data(`{"cartCreate":{"cart":` + emptyCartJSON + `,"userErrors":[]}}`)}}
	svc := New(fetcher, nil, testConfig(), nil)

	cart, err := svc.Create(context.Background(), []domain.Attribute{{Key: "gift", Value: "true"}})
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/Cart/1", cart.ID)
	require.Len(t, fetcher.calls, 1)
	assert.Equal(t, "createCart", fetcher.calls[0].operation)
	assert.Equal(t, map[string]any{"attributes": []domain.Attribute{{Key: "gift", Value: "true"}}}, fetcher.calls[0].variables["input"])
}

func TestService_AddLines(t *testing.T) {
	fetcher := &stubFetcher{responses: []*storefront.Response{data(`{"cartLinesAdd":{"cart":` + edgesCart + `}}`)}}
	svc := New(fetcher, nil, testConfig(), nil)
	lines := []domain.CartLineInput{{MerchandiseID: "gid://shopify/ProductVariant/11", Quantity: 2}}

	cart, err := svc.AddLines(context.Background(), "gid://shopify/Cart/1", lines)
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 2)
	require.Len(t, fetcher.calls, 1)
	assert.Equal(t, "addToCart", fetcher.calls[0].operation)
	assert.Equal(t, "gid://shopify/Cart/1", fetcher.calls[0].variables["cartId"])
	assert.Equal(t, lines, fetcher.calls[0].variables["lines"])
}

func TestService_ValidationHappensBeforeFetch(t *testing.T) {
	fetcher := &stubFetcher{}
	svc := New(fetcher, nil, testConfig(), nil)
	ctx := context.Background()

	_, err := svc.AddLines(ctx, "c", []domain.CartLineInput{{MerchandiseID: "v", Quantity: 0}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.AddLines(ctx, "c", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.UpdateLine(ctx, "c", "l", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.UpdateLine(ctx, "c", "", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.Get(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.ApplyDiscount(ctx, "c")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.Merge(ctx, "a", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.RemoveLines(ctx, "c", []string{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, fetcher.calls)
}

func TestService_UpdateLineAndRemoveLine(t *testing.T) {
	fetcher := &stubFetcher{responses: []*storefront.Response{
		data(`{"cartLinesUpdate":{"cart":` + edgesCart + `}}`),
		data(`{"cartLinesRemove":{"cart":` + emptyCartJSON + `}}`),
	}}
	svc := New(fetcher, nil, testConfig(), nil)
	ctx := context.Background()

	_, err := svc.UpdateLine(ctx, "c", "line-1", 3)
	require.NoError(t, err)
	assert.Equal(t, "updateCartItem", fetcher.calls[0].operation)
	assert.Equal(t, []domain.CartLineUpdateInput{{ID: "line-1", Quantity: 3}}, fetcher.calls[0].variables["lines"])

	_, err = svc.RemoveLine(ctx, "c", "line-1")
	require.NoError(t, err)
	assert.Equal(t, "removeFromCart", fetcher.calls[1].operation)
	assert.Equal(t, []string{"line-1"}, fetcher.calls[1].variables["lineIds"])
}

func TestService_EmptyWithoutLinesSkipsRemove(t *testing.T) {
	fetcher := &stubFetcher{responses: []*storefront.Response{data(`{"cart":` + emptyCartJSON + `}`)}}
	svc := New(fetcher, nil, testConfig(), nil)

	cart, err := svc.Empty(context.Background(), "gid://shopify/Cart/1")
	require.NoError(t, err)
	require.Len(t, fetcher.calls, 1)
	assert.Equal(t, "getCart", fetcher.calls[0].operation)
	opts := fetcher.calls[0].opts
	require.NotNil(t, opts)
	assert.False(t, *opts.UseMemoryCache)
	assert.False(t, *opts.UseEdgeCache)

	expected, err := Normalize(context.Background(), decodeRaw(t, emptyCartJSON), testConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, expected, cart)
}

func TestService_EmptyRemovesAllLinesInOneCall(t *testing.T) {
	fetcher := &stubFetcher{responses: []*storefront.Response{
		data(`{"cart":` + edgesCart + `}`),
		data(`{"cartLinesRemove":{"cart":` + emptyCartJSON + `}}`),
	}}
	svc := New(fetcher, nil, testConfig(), nil)

	cart, err := svc.Empty(context.Background(), "gid://shopify/Cart/1")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	require.Len(t, fetcher.calls, 2)
	assert.Equal(t, "removeFromCart", fetcher.calls[1].operation)
	assert.Equal(t, []string{"line-1", "line-2"}, fetcher.calls[1].variables["lineIds"])
}

func TestService_DiscountUserErrorsKeepCart(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	fetcher := &stubFetcher{responses: []*storefront.Response{data(`{"cartDiscountCodesUpdate":{
      "cart":` + edgesCart + `,
      "userErrors":[{"field":["discountCodes"],"message":"Discount code is invalid","code":"INVALID"}]}}`)}}
	svc := New(fetcher, nil, testConfig(), zap.New(core))

	cart, err := svc.ApplyDiscount(context.Background(), "gid://shopify/Cart/1", "BOGUS")
	require.NoError(t, err)
	require.NotNil(t, cart)
	assert.Len(t, cart.Lines, 2)
	require.Len(t, cart.UserErrors, 1)
	assert.Equal(t, "Discount code is invalid", cart.UserErrors[0].Message)
	assert.Equal(t, []string{"BOGUS"}, fetcher.calls[0].variables["discountCodes"])

	warnings := logs.FilterMessage("cart user errors").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, zapcore.WarnLevel, warnings[0].Level)
}

func TestService_RemoveDiscountSendsEmptyList(t *testing.T) {
	fetcher := &stubFetcher{responses: []*storefront.Response{data(`{"cartDiscountCodesUpdate":{"cart":` + emptyCartJSON + `}}`)}}
	svc := New(fetcher, nil, testConfig(), nil)

	_, err := svc.RemoveDiscount(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, []string{}, fetcher.calls[0].variables["discountCodes"])
}

func TestService_MissingCartIsHardFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	fetcher := &stubFetcher{responses: []*storefront.Response{{
		Data:   json.RawMessage(`{"cartLinesAdd":{"cart":null,"userErrors":[]}}`),
		Errors: []storefront.GraphQLError{{Message: "Variable $cartId is invalid"}},
	}}}
	svc := New(fetcher, nil, testConfig(), zap.New(core))

	cart, err := svc.AddLines(context.Background(), "bad", []domain.CartLineInput{{MerchandiseID: "v", Quantity: 1}})
	assert.Nil(t, cart)
	assert.ErrorIs(t, err, domain.ErrCartMissing)
	assert.True(t, IsMissing(err))
	assert.Contains(t, err.Error(), "addToCart")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Variable $cartId is invalid", entries[0].ContextMap()["graphqlError"])
}

func TestService_TransportErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	svc := New(&stubFetcher{err: boom}, nil, testConfig(), nil)

	_, err := svc.Get(context.Background(), "c")
	assert.ErrorIs(t, err, boom)
}

func TestService_OtherMutationsUseTheirRoots(t *testing.T) {
	cases := []struct {
		name string
		root string
		call func(*Service) (*domain.Cart, error)
	}{
		{"updateCartAttributes", "cartAttributesUpdate", func(s *Service) (*domain.Cart, error) {
			return s.UpdateAttributes(context.Background(), "c", []domain.Attribute{{Key: "k", Value: "v"}})
		}},
		{"updateBuyerIdentity", "cartBuyerIdentityUpdate", func(s *Service) (*domain.Cart, error) {
			return s.UpdateBuyerIdentity(context.Background(), "c", domain.BuyerIdentityInput{Email: "a@b.c"})
		}},
		{"mergeCarts", "cartMerge", func(s *Service) (*domain.Cart, error) {
			return s.Merge(context.Background(), "src", "dst")
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fetcher := &stubFetcher{responses: []*storefront.Response{data(`{"` + tc.root + `":{"cart":` + emptyCartJSON + `}}`)}}
			cart, err := tc.call(New(fetcher, nil, testConfig(), nil))
			require.NoError(t, err)
			assert.Equal(t, "gid://shopify/Cart/1", cart.ID)
			assert.Equal(t, tc.name, fetcher.calls[0].operation)
		})
	}
}

func TestCastAttributes(t *testing.T) {
	defs := []domain.CartAttributeDefinition{
		{Key: "count", Type: domain.AttributeInteger},
		{Key: "ratio", Type: domain.AttributeDecimal},
		{Key: "wrap", Type: domain.AttributeBoolean},
		{Key: "meta", Type: domain.AttributeJSON},
		{Key: "note", Type: domain.AttributeString},
		{Key: "absent", Type: domain.AttributeString},
	}
	raw := []domain.Attribute{
		{Key: "count", Value: "3.9"},
		{Key: "ratio", Value: "0.25"},
		{Key: "wrap", Value: "yes"},
		{Key: "meta", Value: `["a"]`},
		{Key: "note", Value: "hi"},
		{Key: "ignored", Value: "x"},
	}

	got, err := CastAttributes(context.Background(), raw, defs, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"count":  3.0,
		"ratio":  0.25,
		"wrap":   false,
		"meta":   []any{"a"},
		"note":   "hi",
		"absent": nil,
	}, got)
}

func TestCastAttributes_HookSupersedes(t *testing.T) {
	defs := []domain.CartAttributeDefinition{{Key: "a", Type: domain.AttributeString}}
	var infos []domain.ResolvedAttributeInfo
	got, err := CastAttributes(context.Background(), nil, defs, func(_ context.Context, _ []domain.Attribute, casted map[string]any, in []domain.ResolvedAttributeInfo) (map[string]any, error) {
		infos = in
		assert.Equal(t, map[string]any{"a": nil}, casted)
		return map[string]any{"b": 1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"b": 1}, got)
	assert.Equal(t, []domain.ResolvedAttributeInfo{{Key: "a", Type: domain.AttributeString, Value: ""}}, infos)
}
