package api

import (
	"errors"
	"net/http"

	resdto "flashsale-service/internal/handler/dto/response"
	"flashsale-service/internal/handler/httperr"
	"flashsale-service/internal/handler/middleware"
	"flashsale-service/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderQueries queries.OrderQueries
}

func NewOrderHandler(orderQueries queries.OrderQueries) *OrderHandler {
	return &OrderHandler{orderQueries: orderQueries}
}

// GetOrder serves the durable row. A 404 shortly after a successful
// admission is expected while the materializer catches up.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, nil, "Internal server error")
		return
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid order ID")
		return
	}

	o, err := h.orderQueries.GetOrder(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, queries.ErrOrderNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "Order not found")
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	// Orders are visible only to their owner.
	if o.UserID != userID {
		httperr.AbortWithError(c, http.StatusNotFound, queries.ErrOrderNotFound, "Order not found")
		return
	}

	c.JSON(http.StatusOK, resdto.FromOrder(o))
}
