package cart

import (
	"context"

	"golang.org/x/sync/errgroup"

	"storefront-kit/internal/domain"
	"storefront-kit/internal/metafield"
	"storefront-kit/internal/richtext"
)

// Config carries the definitions and options cart reads are normalized with.
type Config struct {
	ProductMetafields []domain.FieldDefinition
	VariantMetafields []domain.FieldDefinition
	Attributes        []domain.CartAttributeDefinition
	LineLimit         int
	Options           Options
	// Development adds debug logging of successful operations.
	Development bool
}

type Options struct {
	CamelizeKeys               bool
	RenderRichTextAsHTML       bool
	RichText                   richtext.Options
	ResolveFiles               bool
	TransformProductMetafields metafield.TransformFunc
	TransformVariantMetafields metafield.TransformFunc
	TransformAttributes        AttributeTransformFunc
}

// DefaultOptions camelizes keys and leaves file references unresolved.
func DefaultOptions() Options {
	return Options{CamelizeKeys: true}
}

// Normalize flattens lines, casts product and variant metafields per line and
// converts money amounts. A nil raw cart yields a nil cart.
func Normalize(ctx context.Context, raw *RawCart, cfg Config, resolver metafield.FileResolver) (*domain.Cart, error) {
	if raw == nil {
		return nil, nil
	}
	out := &domain.Cart{
		ID:            raw.ID,
		CheckoutURL:   raw.CheckoutURL,
		Note:          raw.Note,
		TotalQuantity: raw.TotalQuantity,
		CreatedAt:     raw.CreatedAt,
		UpdatedAt:     raw.UpdatedAt,
		Attributes:    raw.Attributes,
		BuyerIdentity: raw.BuyerIdentity,
		DiscountCodes: raw.DiscountCodes,
		Lines:         make([]domain.CartLine, len(raw.Lines)),
	}
	if raw.Cost != nil {
		out.Cost = domain.CartCost{
			SubtotalAmount:  raw.Cost.SubtotalAmount.Money(),
			TotalAmount:     raw.Cost.TotalAmount.Money(),
			TotalTaxAmount:  raw.Cost.TotalTaxAmount.Money(),
			TotalDutyAmount: raw.Cost.TotalDutyAmount.Money(),
		}
	}

	productOpts := castOptions(cfg.Options, cfg.Options.TransformProductMetafields, resolver)
	variantOpts := castOptions(cfg.Options, cfg.Options.TransformVariantMetafields, resolver)

	g, gctx := errgroup.WithContext(ctx)
	for i := range raw.Lines {
		g.Go(func() error {
			line, err := normalizeLine(gctx, raw.Lines[i], cfg, productOpts, variantOpts)
			if err != nil {
				return err
			}
			out.Lines[i] = line
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(cfg.Attributes) > 0 {
		custom, err := CastAttributes(ctx, raw.Attributes, cfg.Attributes, cfg.Options.TransformAttributes)
		if err != nil {
			return nil, err
		}
		out.CustomAttributes = custom
	}
	return out, nil
}

func castOptions(opts Options, transform metafield.TransformFunc, resolver metafield.FileResolver) metafield.CastOptions {
	return metafield.CastOptions{
		RenderRichTextAsHTML: opts.RenderRichTextAsHTML,
		RichText:             opts.RichText,
		ResolveFiles:         opts.ResolveFiles,
		Resolver:             resolver,
		Transform:            transform,
	}
}

func normalizeLine(ctx context.Context, raw RawLine, cfg Config, productOpts, variantOpts metafield.CastOptions) (domain.CartLine, error) {
	line := domain.CartLine{
		ID:         raw.ID,
		Quantity:   raw.Quantity,
		Attributes: raw.Attributes,
	}
	if raw.Cost != nil {
		line.Cost = &domain.LineCost{TotalAmount: raw.Cost.TotalAmount.Money()}
	}
	merch := raw.Merchandise
	if merch == nil {
		merch = &RawMerchandise{}
	}
	product := merch.Product
	if product == nil {
		product = &RawProduct{}
	}

	variantFields, err := metafield.Process(ctx, merch.Metafields, cfg.VariantMetafields, variantOpts, cfg.Options.CamelizeKeys)
	if err != nil {
		return domain.CartLine{}, err
	}
	productFields, err := metafield.Process(ctx, product.Metafields, cfg.ProductMetafields, productOpts, cfg.Options.CamelizeKeys)
	if err != nil {
		return domain.CartLine{}, err
	}

	line.Merchandise = domain.Merchandise{
		ID:         merch.ID,
		Title:      merch.Title,
		Image:      merch.Image,
		Price:      merch.Price.Money(),
		Metafields: variantFields,
		Product: domain.CartProduct{
			ID:         product.ID,
			Title:      product.Title,
			Handle:     product.Handle,
			Metafields: productFields,
		},
	}
	return line, nil
}
