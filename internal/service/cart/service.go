package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"storefront-kit/internal/domain"
	"storefront-kit/internal/graphql"
	"storefront-kit/internal/metafield"
	"storefront-kit/internal/storefront"
)

// Service runs cart operations against the storefront. Every operation
// issues its GraphQL call, extracts the cart and returns it normalized.
type Service struct {
	fetcher  storefront.Fetcher
	resolver metafield.FileResolver
	queries  *graphql.CartQueries
	cfg      Config
	logger   *zap.Logger
}

func New(fetcher storefront.Fetcher, resolver metafield.FileResolver, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		fetcher:  fetcher,
		resolver: resolver,
		queries:  graphql.NewCartQueries(cfg.LineLimit, cfg.ProductMetafields, cfg.VariantMetafields),
		cfg:      cfg,
		logger:   logger,
	}
}

type payload struct {
	Cart       *RawCart           `json:"cart"`
	UserErrors []domain.UserError `json:"userErrors"`
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, msg)
}

func (s *Service) Create(ctx context.Context, attrs []domain.Attribute) (*domain.Cart, error) {
	vars := map[string]any{}
	if len(attrs) > 0 {
		vars["input"] = map[string]any{"attributes": attrs}
	}
	return s.mutate(ctx, "createCart", s.queries.Create(), "cartCreate", vars)
}

func (s *Service) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, invalid("cart id required")
	}
	raw, err := s.fetchRaw(ctx, "getCart", cartID)
	if err != nil {
		return nil, err
	}
	return s.normalize(ctx, "getCart", raw, nil)
}

func (s *Service) AddLines(ctx context.Context, cartID string, lines []domain.CartLineInput) (*domain.Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, invalid("cart id required")
	}
	if len(lines) == 0 {
		return nil, invalid("lines required")
	}
	for _, line := range lines {
		if strings.TrimSpace(line.MerchandiseID) == "" {
			return nil, invalid("merchandise id required")
		}
		if line.Quantity <= 0 {
			return nil, invalid("quantity must be positive")
		}
	}
	return s.mutate(ctx, "addToCart", s.queries.LinesAdd(), "cartLinesAdd", map[string]any{
		"cartId": cartID,
		"lines":  lines,
	})
}

func (s *Service) RemoveLine(ctx context.Context, cartID, lineID string) (*domain.Cart, error) {
	return s.RemoveLines(ctx, cartID, []string{lineID})
}

func (s *Service) RemoveLines(ctx context.Context, cartID string, lineIDs []string) (*domain.Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, invalid("cart id required")
	}
	if len(lineIDs) == 0 {
		return nil, invalid("line ids required")
	}
	for _, id := range lineIDs {
		if strings.TrimSpace(id) == "" {
			return nil, invalid("line id required")
		}
	}
	return s.mutate(ctx, "removeFromCart", s.queries.LinesRemove(), "cartLinesRemove", map[string]any{
		"cartId":  cartID,
		"lineIds": lineIDs,
	})
}

func (s *Service) UpdateLine(ctx context.Context, cartID, lineID string, quantity int) (*domain.Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, invalid("cart id required")
	}
	if strings.TrimSpace(lineID) == "" {
		return nil, invalid("line id required")
	}
	if quantity <= 0 {
		return nil, invalid("quantity must be positive")
	}
	return s.mutate(ctx, "updateCartItem", s.queries.LinesUpdate(), "cartLinesUpdate", map[string]any{
		"cartId": cartID,
		"lines":  []domain.CartLineUpdateInput{{ID: lineID, Quantity: quantity}},
	})
}

// ApplyDiscount replaces the cart's discount codes. Rejected codes come back
// as UserErrors on a still valid cart.
func (s *Service) ApplyDiscount(ctx context.Context, cartID string, codes ...string) (*domain.Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, invalid("cart id required")
	}
	if len(codes) == 0 {
		return nil, invalid("discount code required")
	}
	for _, code := range codes {
		if strings.TrimSpace(code) == "" {
			return nil, invalid("discount code required")
		}
	}
	return s.mutate(ctx, "applyDiscount", s.queries.DiscountCodesUpdate(), "cartDiscountCodesUpdate", map[string]any{
		"cartId":        cartID,
		"discountCodes": codes,
	})
}

func (s *Service) RemoveDiscount(ctx context.Context, cartID string) (*domain.Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, invalid("cart id required")
	}
	return s.mutate(ctx, "removeDiscount", s.queries.DiscountCodesUpdate(), "cartDiscountCodesUpdate", map[string]any{
		"cartId":        cartID,
		"discountCodes": []string{},
	})
}

func (s *Service) UpdateAttributes(ctx context.Context, cartID string, attrs []domain.Attribute) (*domain.Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, invalid("cart id required")
	}
	for _, attr := range attrs {
		if strings.TrimSpace(attr.Key) == "" {
			return nil, invalid("attribute key required")
		}
	}
	if attrs == nil {
		attrs = []domain.Attribute{}
	}
	return s.mutate(ctx, "updateCartAttributes", s.queries.AttributesUpdate(), "cartAttributesUpdate", map[string]any{
		"cartId":     cartID,
		"attributes": attrs,
	})
}

func (s *Service) UpdateBuyerIdentity(ctx context.Context, cartID string, identity domain.BuyerIdentityInput) (*domain.Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, invalid("cart id required")
	}
	return s.mutate(ctx, "updateBuyerIdentity", s.queries.BuyerIdentityUpdate(), "cartBuyerIdentityUpdate", map[string]any{
		"cartId":        cartID,
		"buyerIdentity": identity,
	})
}

func (s *Service) Merge(ctx context.Context, sourceCartID, destinationCartID string) (*domain.Cart, error) {
	if strings.TrimSpace(sourceCartID) == "" || strings.TrimSpace(destinationCartID) == "" {
		return nil, invalid("source and destination cart ids required")
	}
	return s.mutate(ctx, "mergeCarts", s.queries.Merge(), "cartMerge", map[string]any{
		"sourceCartId":      sourceCartID,
		"destinationCartId": destinationCartID,
	})
}

// Empty reads the cart and removes all of its lines in one call. An already
// empty cart is returned as read, without a remove call.
func (s *Service) Empty(ctx context.Context, cartID string) (*domain.Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, invalid("cart id required")
	}
	raw, err := s.fetchRaw(ctx, "emptyCart (fetch)", cartID)
	if err != nil {
		return nil, err
	}
	lineIDs := raw.Lines.IDs()
	if len(lineIDs) == 0 {
		s.debug("emptyCart", "cart already empty")
		return s.normalize(ctx, "emptyCart (fetch)", raw, nil)
	}
	return s.mutate(ctx, "emptyCart (remove)", s.queries.LinesRemove(), "cartLinesRemove", map[string]any{
		"cartId":  cartID,
		"lineIds": lineIDs,
	})
}

// uncached keeps cart reads off the response caches; a cart read must see
// the result of the mutation before it.
func uncached() *domain.FetchOptions {
	off := false
	return &domain.FetchOptions{UseMemoryCache: &off, UseEdgeCache: &off}
}

func (s *Service) fetchRaw(ctx context.Context, label, cartID string) (*RawCart, error) {
	vars := map[string]any{"cartId": cartID}
	resp, err := s.fetcher.Fetch(ctx, s.queries.Get(), vars, uncached())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	var data struct {
		Cart *RawCart `json:"cart"`
	}
	if err := resp.Decode(&data); err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	if data.Cart == nil {
		return nil, s.missing(label, vars, resp)
	}
	return data.Cart, nil
}

func (s *Service) mutate(ctx context.Context, label, query, root string, vars map[string]any) (*domain.Cart, error) {
	resp, err := s.fetcher.Fetch(ctx, query, vars, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	var data map[string]*payload
	if err := resp.Decode(&data); err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	p := data[root]
	if p == nil || p.Cart == nil {
		return nil, s.missing(label, vars, resp)
	}
	if len(p.UserErrors) > 0 {
		s.logger.Warn("cart user errors",
			zap.String("operation", label),
			zap.Any("variables", vars),
			zap.Any("userErrors", p.UserErrors))
	}
	return s.normalize(ctx, label, p.Cart, p.UserErrors)
}

func (s *Service) normalize(ctx context.Context, label string, raw *RawCart, userErrors []domain.UserError) (*domain.Cart, error) {
	cart, err := Normalize(ctx, raw, s.cfg, s.resolver)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	cart.UserErrors = userErrors
	s.debug(label, "success", zap.String("cartId", cart.ID), zap.Int("lines", len(cart.Lines)))
	return cart, nil
}

func (s *Service) missing(label string, vars map[string]any, resp *storefront.Response) error {
	fields := []zap.Field{
		zap.String("operation", label),
		zap.Any("variables", vars),
		zap.ByteString("response", rawData(resp)),
	}
	if resp.HasErrors() {
		fields = append(fields, zap.String("graphqlError", resp.FirstError()))
	}
	s.logger.Error("cart response missing or invalid", fields...)
	return fmt.Errorf("%s: %w", label, domain.ErrCartMissing)
}

func (s *Service) debug(label, msg string, fields ...zap.Field) {
	if !s.cfg.Development {
		return
	}
	s.logger.Debug(msg, append([]zap.Field{zap.String("operation", label)}, fields...)...)
}

func rawData(resp *storefront.Response) json.RawMessage {
	if resp == nil {
		return nil
	}
	return resp.Data
}

// IsMissing reports whether err is a cart hard failure.
func IsMissing(err error) bool {
	return errors.Is(err, domain.ErrCartMissing)
}
