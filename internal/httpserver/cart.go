package httpserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-kit/internal/cartstate"
	"storefront-kit/internal/domain"
)

type addLinesRequest struct {
	Lines []domain.CartLineInput `json:"lines"`
}

type updateLineRequest struct {
	Quantity *int `json:"quantity"`
}

type discountRequest struct {
	Code string `json:"code"`
}

type attributesRequest struct {
	Attributes []domain.Attribute `json:"attributes"`
}

type mergeRequest struct {
	SourceCartID string `json:"sourceCartId"`
}

func (h *handlers) synchronizer(c *gin.Context) (*cartstate.Synchronizer, bool) {
	syncer, err := h.deps.Carts.For(c.Request.Context(), sessionIDFrom(c))
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return syncer, true
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// withCart runs a synchronizer mutation and responds with the resulting state.
func (h *handlers) withCart(c *gin.Context, run func(ctx context.Context, s *cartstate.Synchronizer) error) {
	syncer, ok := h.synchronizer(c)
	if !ok {
		return
	}
	if err := run(c.Request.Context(), syncer); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, syncer.State())
}

func (h *handlers) getCart(c *gin.Context) {
	h.withCart(c, func(context.Context, *cartstate.Synchronizer) error { return nil })
}

func (h *handlers) addLines(c *gin.Context) {
	var req addLinesRequest
	if err := bindJSON(c, &req); err != nil {
		h.writeError(c, err)
		return
	}
	h.withCart(c, func(ctx context.Context, s *cartstate.Synchronizer) error {
		_, err := s.AddProducts(ctx, req.Lines)
		return err
	})
}

func (h *handlers) updateLine(c *gin.Context) {
	var req updateLineRequest
	if err := bindJSON(c, &req); err != nil {
		h.writeError(c, err)
		return
	}
	if req.Quantity == nil {
		h.writeError(c, fmt.Errorf("%w: quantity is required", domain.ErrInvalidInput))
		return
	}
	h.withCart(c, func(ctx context.Context, s *cartstate.Synchronizer) error {
		_, err := s.UpdateQuantity(ctx, c.Param("lineId"), *req.Quantity)
		return err
	})
}

func (h *handlers) removeLine(c *gin.Context) {
	h.withCart(c, func(ctx context.Context, s *cartstate.Synchronizer) error {
		_, err := s.RemoveProduct(ctx, c.Param("lineId"))
		return err
	})
}

func (h *handlers) emptyCart(c *gin.Context) {
	h.withCart(c, func(ctx context.Context, s *cartstate.Synchronizer) error {
		_, err := s.EmptyCart(ctx)
		return err
	})
}

func (h *handlers) applyDiscount(c *gin.Context) {
	var req discountRequest
	if err := bindJSON(c, &req); err != nil {
		h.writeError(c, err)
		return
	}
	h.withCart(c, func(ctx context.Context, s *cartstate.Synchronizer) error {
		_, err := s.ApplyDiscountCode(ctx, req.Code)
		return err
	})
}

func (h *handlers) removeDiscount(c *gin.Context) {
	h.withCart(c, func(ctx context.Context, s *cartstate.Synchronizer) error {
		_, err := s.RemoveDiscountCode(ctx)
		return err
	})
}

func (h *handlers) updateAttributes(c *gin.Context) {
	var req attributesRequest
	if err := bindJSON(c, &req); err != nil {
		h.writeError(c, err)
		return
	}
	h.withCart(c, func(ctx context.Context, s *cartstate.Synchronizer) error {
		_, err := s.UpdateCartAttributes(ctx, req.Attributes)
		return err
	})
}

func (h *handlers) updateBuyerIdentity(c *gin.Context) {
	var req domain.BuyerIdentityInput
	if err := bindJSON(c, &req); err != nil {
		h.writeError(c, err)
		return
	}
	h.withCart(c, func(ctx context.Context, s *cartstate.Synchronizer) error {
		_, err := s.UpdateBuyerIdentity(ctx, req)
		return err
	})
}

func (h *handlers) mergeCarts(c *gin.Context) {
	var req mergeRequest
	if err := bindJSON(c, &req); err != nil {
		h.writeError(c, err)
		return
	}
	if req.SourceCartID == "" {
		h.writeError(c, fmt.Errorf("%w: sourceCartId is required", domain.ErrInvalidInput))
		return
	}
	h.withCart(c, func(ctx context.Context, s *cartstate.Synchronizer) error {
		_, err := s.MergeCarts(ctx, req.SourceCartID)
		return err
	})
}

func (h *handlers) resetCart(c *gin.Context) {
	h.withCart(c, func(ctx context.Context, s *cartstate.Synchronizer) error {
		_, err := s.Reset(ctx)
		return err
	})
}
