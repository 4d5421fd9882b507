package api

import (
	"errors"
	"net/http"
	"strconv"

	reqdto "flashsale-service/internal/handler/dto/request"
	resdto "flashsale-service/internal/handler/dto/response"
	"flashsale-service/internal/handler/httperr"
	"flashsale-service/internal/handler/middleware"
	"flashsale-service/internal/usecase/commands"
	"flashsale-service/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type VoucherHandler struct {
	voucherCommands commands.VoucherCommands
	seckillCommands commands.SeckillCommands
	voucherQueries  queries.VoucherQueries
}

func NewVoucherHandler(
	voucherCommands commands.VoucherCommands,
	seckillCommands commands.SeckillCommands,
	voucherQueries queries.VoucherQueries,
) *VoucherHandler {
	return &VoucherHandler{
		voucherCommands: voucherCommands,
		seckillCommands: seckillCommands,
		voucherQueries:  voucherQueries,
	}
}

func (h *VoucherHandler) AddVoucher(c *gin.Context) {
	var req reqdto.AddVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format")
		return
	}

	id, err := h.voucherCommands.AddSeckillVoucher(c.Request.Context(), commands.AddVoucherParams{
		Title:     req.Title,
		Stock:     req.Stock,
		BeginTime: req.BeginTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrVoucherValidation):
			httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Voucher validation failed")
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		}
		return
	}

	c.JSON(http.StatusCreated, resdto.VoucherCreatedResponse{ID: id})
}

func (h *VoucherHandler) GetVoucher(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid voucher ID")
		return
	}

	view, err := h.voucherQueries.GetVoucher(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, queries.ErrVoucherNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "Voucher not found")
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, resdto.FromVoucherView(view))
}

func (h *VoucherHandler) Seckill(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, nil, "Internal server error")
		return
	}

	voucherID, err := parseID(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid voucher ID")
		return
	}

	orderID, err := h.seckillCommands.Seckill(c.Request.Context(), voucherID, userID)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrSaleNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Voucher not found")
		case errors.Is(err, commands.ErrSaleNotStarted):
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Sale has not started")
		case errors.Is(err, commands.ErrSaleEnded):
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Sale has ended")
		case errors.Is(err, commands.ErrSoldOut):
			httperr.AbortWithError(c, http.StatusConflict, err, "Sold out")
		case errors.Is(err, commands.ErrDuplicateOrder):
			httperr.AbortWithError(c, http.StatusConflict, err, "Order already placed for this voucher")
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		}
		return
	}

	c.JSON(http.StatusCreated, resdto.SeckillResponse{OrderID: orderID})
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}
