// Package catalog reads products, collections and search results from the
// storefront. Failures are reported in the result's Error field rather than
// as Go errors.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront-kit/internal/domain"
	"storefront-kit/internal/graphql"
	"storefront-kit/internal/metafield"
	"storefront-kit/internal/richtext"
	"storefront-kit/internal/storefront"
)

const (
	defaultSortKey            = "RELEVANCE"
	defaultSearchPrefix       = "LAST"
	defaultUnavailableProduct = "LAST"
	defaultVariantTitle       = "Default Title"
	searchTypeProduct         = "PRODUCT"
)

// Options tune metafield processing for a catalog read.
type Options struct {
	RenderRichTextAsHTML          bool
	RichText                      richtext.Options
	ResolveFiles                  bool
	CamelizeKeys                  bool
	TransformProductMetafields    metafield.TransformFunc
	TransformVariantMetafields    metafield.TransformFunc
	TransformCollectionMetafields metafield.TransformFunc
}

// DefaultOptions resolves file references and camelizes keys.
func DefaultOptions() Options {
	return Options{ResolveFiles: true, CamelizeKeys: true}
}

type Service struct {
	fetcher  storefront.Fetcher
	resolver metafield.FileResolver
	logger   *zap.Logger
}

func New(fetcher storefront.Fetcher, resolver metafield.FileResolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{fetcher: fetcher, resolver: resolver, logger: logger}
}

// FormatGID builds a storefront global id such as gid://shopify/Collection/42.
func FormatGID(id, resource string) (string, error) {
	if id == "" || resource == "" {
		return "", errors.New("both id and resource are required")
	}
	return fmt.Sprintf("gid://shopify/%s/%s", resource, id), nil
}

func toGID(id, resource string) (string, error) {
	if strings.HasPrefix(id, "gid://") {
		return id, nil
	}
	return FormatGID(id, resource)
}

type ProductArgs struct {
	Handle            string
	ID                string
	ProductMetafields []domain.FieldDefinition
	VariantMetafields []domain.FieldDefinition
	Options           Options
	Fetch             *domain.FetchOptions
}

type ProductResult struct {
	Data  *domain.Product `json:"data"`
	Error string          `json:"error,omitempty"`
}

// GetProduct reads one product by id or handle. The id takes precedence.
func (s *Service) GetProduct(ctx context.Context, args ProductArgs) ProductResult {
	if args.Handle == "" && args.ID == "" {
		return ProductResult{Error: "Either handle or id must be provided"}
	}
	query := graphql.ProductByHandle(args.ProductMetafields, args.VariantMetafields)
	vars := map[string]any{"handle": args.Handle}
	root := "product"
	if args.ID != "" {
		query = graphql.ProductByID(args.ProductMetafields, args.VariantMetafields)
		vars = map[string]any{"id": args.ID}
		root = "node"
	}

	resp, err := s.fetcher.Fetch(ctx, query, vars, args.Fetch)
	if err != nil {
		s.logger.Error("get product failed", zap.Any("variables", vars), zap.Error(err))
		return ProductResult{Error: err.Error()}
	}
	if resp.HasErrors() {
		return ProductResult{Error: resp.FirstError()}
	}
	var data map[string]*rawProduct
	if err := resp.Decode(&data); err != nil {
		return ProductResult{Error: err.Error()}
	}
	node := data[root]
	if node == nil || node.ID == "" {
		return ProductResult{Error: "Product not found"}
	}

	p := processor{service: s, opts: args.Options, fetch: args.Fetch,
		productDefs: args.ProductMetafields, variantDefs: args.VariantMetafields}
	product, err := p.product(ctx, node)
	if err != nil {
		return ProductResult{Error: err.Error()}
	}
	return ProductResult{Data: product}
}

type CollectionArgs struct {
	Handle               string
	ID                   string
	IncludeProducts      bool
	Limit                int
	Cursor               string
	Reverse              bool
	SortKey              string
	Filters              []map[string]any
	ProductMetafields    []domain.FieldDefinition
	VariantMetafields    []domain.FieldDefinition
	CollectionMetafields []domain.FieldDefinition
	Options              Options
	Fetch                *domain.FetchOptions
}

type CollectionResult struct {
	Data                 []domain.Product     `json:"data"`
	PageInfo             *domain.PageInfo     `json:"pageInfo"`
	AvailableFilters     []domain.FilterGroup `json:"availableFilters"`
	CollectionMetafields domain.Metafields    `json:"collectionMetafields"`
	Collection           *domain.Collection   `json:"collection,omitempty"`
	Error                string               `json:"error,omitempty"`
}

func collectionFailure(msg string) CollectionResult {
	return CollectionResult{
		Data:                 []domain.Product{},
		AvailableFilters:     []domain.FilterGroup{},
		CollectionMetafields: domain.Metafields{},
		Error:                msg,
	}
}

// GetCollection reads a collection by handle or numeric id, optionally with
// one page of its products.
func (s *Service) GetCollection(ctx context.Context, args CollectionArgs) CollectionResult {
	if args.Handle != "" && args.ID != "" {
		s.logger.Warn("both collection handle and id provided; using id")
	}
	if args.Handle == "" && args.ID == "" {
		return collectionFailure("You must provide either collectionHandle or collectionId")
	}

	q := graphql.CollectionQuery{
		ByID:            args.ID != "",
		IncludeProducts: args.IncludeProducts,
		HasFilters:      len(args.Filters) > 0,
		Limit:           args.Limit,
		ProductDefs:     args.ProductMetafields,
		VariantDefs:     args.VariantMetafields,
		CollectionDefs:  args.CollectionMetafields,
	}
	vars := map[string]any{}
	if q.ByID {
		gid, err := toGID(args.ID, "Collection")
		if err != nil {
			return collectionFailure(err.Error())
		}
		vars["id"] = gid
	} else {
		vars["handle"] = args.Handle
	}
	if args.IncludeProducts {
		vars["cursor"] = nilIfEmpty(args.Cursor)
		vars["reverse"] = args.Reverse
		vars["sortKey"] = orDefault(args.SortKey, defaultSortKey)
		if q.HasFilters {
			vars["filters"] = args.Filters
		}
	}

	resp, err := s.fetcher.Fetch(ctx, q.Document(), vars, args.Fetch)
	if err != nil {
		s.logger.Error("get collection failed", zap.Any("variables", vars), zap.Error(err))
		return collectionFailure(err.Error())
	}
	if resp.HasErrors() {
		return collectionFailure(resp.FirstError())
	}
	var data struct {
		Collection *rawCollection `json:"collection"`
	}
	if err := resp.Decode(&data); err != nil {
		return collectionFailure(err.Error())
	}
	if data.Collection == nil {
		return collectionFailure("Collection not found")
	}
	collection := data.Collection

	p := processor{service: s, opts: args.Options, fetch: args.Fetch,
		productDefs: args.ProductMetafields, variantDefs: args.VariantMetafields}
	collectionFields, err := metafield.Process(ctx, collection.Metafields, args.CollectionMetafields,
		p.castOptions(args.Options.TransformCollectionMetafields), args.Options.CamelizeKeys)
	if err != nil {
		return collectionFailure(err.Error())
	}

	out := CollectionResult{
		Data:                 []domain.Product{},
		AvailableFilters:     []domain.FilterGroup{},
		CollectionMetafields: collectionFields,
		Collection:           collection.toDomain(),
	}
	if !args.IncludeProducts || collection.Products == nil {
		return out
	}
	for _, edge := range collection.Products.Edges {
		if edge.Node == nil {
			continue
		}
		product, err := p.product(ctx, edge.Node)
		if err != nil {
			return collectionFailure(err.Error())
		}
		out.Data = append(out.Data, *product)
	}
	out.PageInfo = collection.Products.PageInfo
	out.AvailableFilters = formatFilters(collection.Products.Filters)
	return out
}

type SearchArgs struct {
	Query               string
	Limit               int
	Cursor              string
	Reverse             bool
	SortKey             string
	Types               []string
	ProductFilters      []map[string]any
	Prefix              string
	UnavailableProducts string
	ProductMetafields   []domain.FieldDefinition
	VariantMetafields   []domain.FieldDefinition
	Options             Options
	Fetch               *domain.FetchOptions
}

type SearchResult struct {
	Products         []domain.Product     `json:"products"`
	PageInfo         *domain.PageInfo     `json:"pageInfo"`
	AvailableFilters []domain.FilterGroup `json:"availableFilters"`
	TotalCount       int                  `json:"totalCount"`
	SearchTerm       string               `json:"searchTerm"`
	Error            string               `json:"error,omitempty"`
}

func searchFailure(term, msg string) SearchResult {
	return SearchResult{
		Products:         []domain.Product{},
		AvailableFilters: []domain.FilterGroup{},
		SearchTerm:       term,
		Error:            msg,
	}
}

// Search runs a storefront search. Only products are returned; other node
// types in the result are skipped.
func (s *Service) Search(ctx context.Context, args SearchArgs) SearchResult {
	term := strings.TrimSpace(args.Query)
	if term == "" {
		return searchFailure(args.Query, "Search query cannot be empty")
	}
	types := args.Types
	if len(types) == 0 {
		types = []string{searchTypeProduct}
	}
	sendTypes := len(types) > 1 || types[0] != searchTypeProduct

	q := graphql.SearchQuery{
		Limit:       args.Limit,
		HasFilters:  len(args.ProductFilters) > 0,
		HasTypes:    sendTypes,
		ProductDefs: args.ProductMetafields,
		VariantDefs: args.VariantMetafields,
	}
	vars := map[string]any{
		"query":               term,
		"cursor":              nilIfEmpty(args.Cursor),
		"reverse":             args.Reverse,
		"sortKey":             orDefault(args.SortKey, defaultSortKey),
		"prefix":              orDefault(args.Prefix, defaultSearchPrefix),
		"unavailableProducts": orDefault(args.UnavailableProducts, defaultUnavailableProduct),
	}
	if q.HasFilters {
		vars["productFilters"] = args.ProductFilters
	}
	if sendTypes {
		vars["types"] = types
	}

	resp, err := s.fetcher.Fetch(ctx, q.Document(), vars, args.Fetch)
	if err != nil {
		s.logger.Error("search failed", zap.String("query", term), zap.Error(err))
		return searchFailure(args.Query, err.Error())
	}
	var data struct {
		Search *rawSearch `json:"search"`
	}
	if err := resp.Decode(&data); err != nil {
		return searchFailure(args.Query, err.Error())
	}
	if data.Search == nil {
		if resp.HasErrors() {
			s.logger.Warn("search graphql errors", zap.String("query", term), zap.String("error", resp.FirstError()))
		}
		return searchFailure(args.Query, "Search failed")
	}

	p := processor{service: s, opts: args.Options, fetch: args.Fetch,
		productDefs: args.ProductMetafields, variantDefs: args.VariantMetafields}
	out := SearchResult{
		Products:         []domain.Product{},
		PageInfo:         data.Search.PageInfo,
		AvailableFilters: formatFilters(data.Search.ProductFilters),
		TotalCount:       data.Search.TotalCount,
		SearchTerm:       args.Query,
	}
	for _, node := range data.Search.Nodes {
		if node == nil || node.ID == "" || node.Title == "" {
			continue
		}
		product, err := p.product(ctx, node)
		if err != nil {
			return searchFailure(args.Query, err.Error())
		}
		out.Products = append(out.Products, *product)
	}
	return out
}

// processor turns raw product nodes into domain products for one read.
type processor struct {
	service     *Service
	opts        Options
	fetch       *domain.FetchOptions
	productDefs []domain.FieldDefinition
	variantDefs []domain.FieldDefinition
}

func (p processor) castOptions(transform metafield.TransformFunc) metafield.CastOptions {
	return metafield.CastOptions{
		RenderRichTextAsHTML: p.opts.RenderRichTextAsHTML,
		RichText:             p.opts.RichText,
		ResolveFiles:         p.opts.ResolveFiles,
		Resolver:             p.service.resolver,
		Fetch:                p.fetch,
		Transform:            transform,
	}
}

func (p processor) product(ctx context.Context, node *rawProduct) (*domain.Product, error) {
	fields, err := metafield.Process(ctx, node.Metafields, p.productDefs,
		p.castOptions(p.opts.TransformProductMetafields), p.opts.CamelizeKeys)
	if err != nil {
		return nil, err
	}

	images := make([]domain.ProductImage, 0, len(node.Images.Edges))
	for _, edge := range node.Images.Edges {
		if edge.Node != nil {
			images = append(images, *edge.Node)
		}
	}

	var raws []*rawVariant
	for _, edge := range node.Variants.Edges {
		if edge.Node != nil {
			raws = append(raws, edge.Node)
		}
	}
	variants := make([]domain.Variant, len(raws))
	variantOpts := p.castOptions(p.opts.TransformVariantMetafields)
	g, gctx := errgroup.WithContext(ctx)
	for i, raw := range raws {
		g.Go(func() error {
			v, err := p.variant(gctx, node, raw, variantOpts)
			if err != nil {
				return err
			}
			variants[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	product := &domain.Product{
		ID:              node.ID,
		Title:           node.Title,
		Handle:          node.Handle,
		DescriptionHTML: node.DescriptionHTML,
		FeaturedImage:   node.FeaturedImage,
		Images:          images,
		Variants:        variants,
		Price:           domain.Money{Amount: 0, CurrencyCode: domain.DefaultCurrency},
		Metafields:      fields,
	}
	if len(variants) > 0 {
		product.Price = variants[0].Price
		product.CompareAtPrice = variants[0].CompareAtPrice
	}
	return product, nil
}

func (p processor) variant(ctx context.Context, product *rawProduct, raw *rawVariant, opts metafield.CastOptions) (domain.Variant, error) {
	fields, err := metafield.Process(ctx, raw.Metafields, p.variantDefs, opts, p.opts.CamelizeKeys)
	if err != nil {
		return domain.Variant{}, err
	}
	v := domain.Variant{
		ID:             raw.ID,
		ProductTitle:   product.Title,
		VariantTitle:   raw.Title,
		CompareAtPrice: raw.CompareAtPriceV2.Money(),
		Metafields:     fields,
	}
	if raw.Product != nil && raw.Product.Title != "" {
		v.ProductTitle = raw.Product.Title
	}
	if raw.Title == defaultVariantTitle {
		v.VariantTitle = product.Title
	}
	if price := raw.PriceV2.Money(); price != nil {
		v.Price = *price
	}
	return v, nil
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
