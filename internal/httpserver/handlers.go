package httpserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront-kit/internal/domain"
	"storefront-kit/internal/service/catalog"
)

type handlers struct {
	deps   Deps
	logger *zap.Logger
}

func (h *handlers) createSession(c *gin.Context) {
	sess, err := h.deps.Sessions.Issue(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"sessionId":  sess.ID,
		"token":      sess.Token,
		"expiresAt":  sess.ExpiresAt,
		"ttlSeconds": h.deps.Sessions.TTLSeconds(),
	})
}

// deleteSession revokes the token and drops the in-memory cart state. The
// persisted cart id stays with the session id.
func (h *handlers) deleteSession(c *gin.Context) {
	if err := h.deps.Sessions.Revoke(c.Request.Context(), c.GetHeader(sessionHeader)); err != nil {
		h.writeError(c, err)
		return
	}
	h.deps.Carts.Forget(sessionIDFrom(c))
	c.Status(http.StatusNoContent)
}

func (h *handlers) getProduct(c *gin.Context) {
	res := h.deps.Catalog.GetProduct(c.Request.Context(), catalog.ProductArgs{
		Handle:            c.Param("handle"),
		ID:                c.Query("id"),
		ProductMetafields: h.deps.Definitions.ProductMetafields,
		VariantMetafields: h.deps.Definitions.VariantMetafields,
		Options:           h.deps.CatalogOptions,
	})
	if res.Error != "" {
		c.JSON(catalogStatus(res.Error), errorBody(res.Error))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) getCollection(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		h.writeError(c, err)
		return
	}
	res := h.deps.Catalog.GetCollection(c.Request.Context(), catalog.CollectionArgs{
		Handle:               c.Param("handle"),
		ID:                   c.Query("id"),
		IncludeProducts:      c.Query("products") != "false",
		Limit:                limit,
		Cursor:               c.Query("cursor"),
		Reverse:              c.Query("reverse") == "true",
		SortKey:              c.Query("sortKey"),
		ProductMetafields:    h.deps.Definitions.ProductMetafields,
		VariantMetafields:    h.deps.Definitions.VariantMetafields,
		CollectionMetafields: h.deps.Definitions.CollectionMetafields,
		Options:              h.deps.CatalogOptions,
	})
	if res.Error != "" {
		c.JSON(catalogStatus(res.Error), errorBody(res.Error))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) search(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		h.writeError(c, err)
		return
	}
	res := h.deps.Catalog.Search(c.Request.Context(), catalog.SearchArgs{
		Query:             c.Query("q"),
		Limit:             limit,
		Cursor:            c.Query("cursor"),
		Reverse:           c.Query("reverse") == "true",
		SortKey:           c.Query("sortKey"),
		Types:             c.QueryArray("type"),
		Prefix:            c.Query("prefix"),
		ProductMetafields: h.deps.Definitions.ProductMetafields,
		VariantMetafields: h.deps.Definitions.VariantMetafields,
		Options:           h.deps.CatalogOptions,
	})
	if res.Error != "" {
		c.JSON(catalogStatus(res.Error), errorBody(res.Error))
		return
	}
	c.JSON(http.StatusOK, res)
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
	}
	return n, nil
}
