package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"storefront-kit/internal/cartstate"
	"storefront-kit/internal/domain"
	"storefront-kit/internal/service/session"
)

func errorBody(msg string) gin.H {
	return gin.H{"error": msg}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, cartstate.ErrNoCart):
		return http.StatusConflict
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrCartMissing):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("route", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, errorBody(err.Error()))
}

// catalogStatus maps a catalog result error message to a status code.
func catalogStatus(msg string) int {
	switch msg {
	case "Product not found", "Collection not found":
		return http.StatusNotFound
	case "Either handle or id must be provided",
		"You must provide either collectionHandle or collectionId",
		"Search query cannot be empty":
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
