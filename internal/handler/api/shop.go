package api

import (
	"errors"
	"net/http"

	"flashsale-service/internal/domain/shop"
	reqdto "flashsale-service/internal/handler/dto/request"
	resdto "flashsale-service/internal/handler/dto/response"
	"flashsale-service/internal/handler/httperr"
	"flashsale-service/internal/usecase/commands"
	"flashsale-service/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type ShopHandler struct {
	shopCommands commands.ShopCommands
	shopQueries  queries.ShopQueries
}

func NewShopHandler(shopCommands commands.ShopCommands, shopQueries queries.ShopQueries) *ShopHandler {
	return &ShopHandler{
		shopCommands: shopCommands,
		shopQueries:  shopQueries,
	}
}

func (h *ShopHandler) GetShop(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid shop ID")
		return
	}

	s, err := h.shopQueries.GetShop(c.Request.Context(), id)
	if err != nil {
		h.respondShopError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromShop(s))
}

func (h *ShopHandler) GetHotShop(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid shop ID")
		return
	}

	s, err := h.shopQueries.GetHotShop(c.Request.Context(), id)
	if err != nil {
		h.respondShopError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromShop(s))
}

func (h *ShopHandler) UpdateShop(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid shop ID")
		return
	}

	var req reqdto.UpdateShopRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format")
		return
	}

	err = h.shopCommands.UpdateShop(c.Request.Context(), &shop.Shop{
		ID:       id,
		Name:     req.Name,
		Address:  req.Address,
		AvgPrice: req.AvgPrice,
		Score:    req.Score,
	})
	if err != nil {
		if errors.Is(err, commands.ErrShopNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "Shop not found")
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	c.Status(http.StatusNoContent)
}

// WarmHotShop seeds the logical-expiration cache entry for a shop so the
// hot read path can serve it.
func (h *ShopHandler) WarmHotShop(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid shop ID")
		return
	}

	if err := h.shopCommands.WarmHotShop(c.Request.Context(), id); err != nil {
		if errors.Is(err, commands.ErrShopNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "Shop not found")
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ShopHandler) respondShopError(c *gin.Context, err error) {
	if errors.Is(err, queries.ErrShopNotFound) {
		httperr.AbortWithError(c, http.StatusNotFound, err, "Shop not found")
		return
	}
	httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
}
