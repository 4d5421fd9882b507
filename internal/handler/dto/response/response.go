package response

import (
	"time"

	"flashsale-service/internal/domain/order"
	"flashsale-service/internal/domain/shop"
	"flashsale-service/internal/usecase/queries"
)

// Sequence ids exceed the float64-exact integer range, so every id in a
// response body is serialized as a string.

type SeckillResponse struct {
	OrderID int64 `json:"orderId,string"`
}

type VoucherCreatedResponse struct {
	ID int64 `json:"id,string"`
}

type VoucherResponse struct {
	ID        int64     `json:"id,string"`
	Title     string    `json:"title"`
	Stock     int32     `json:"stock"`
	BeginTime time.Time `json:"beginTime"`
	EndTime   time.Time `json:"endTime"`
}

func FromVoucherView(v *queries.VoucherView) *VoucherResponse {
	return &VoucherResponse{
		ID:        v.ID,
		Title:     v.Title,
		Stock:     v.Stock,
		BeginTime: v.BeginTime,
		EndTime:   v.EndTime,
	}
}

type ShopResponse struct {
	ID        int64     `json:"id,string"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	AvgPrice  int64     `json:"avgPrice"`
	Score     int32     `json:"score"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func FromShop(s *shop.Shop) *ShopResponse {
	return &ShopResponse{
		ID:        s.ID,
		Name:      s.Name,
		Address:   s.Address,
		AvgPrice:  s.AvgPrice,
		Score:     s.Score,
		UpdatedAt: s.UpdatedAt,
	}
}

type OrderResponse struct {
	ID        int64     `json:"id,string"`
	VoucherID int64     `json:"voucherId,string"`
	UserID    int64     `json:"userId,string"`
	CreatedAt time.Time `json:"createdAt"`
}

func FromOrder(o *order.VoucherOrder) *OrderResponse {
	return &OrderResponse{
		ID:        o.ID,
		VoucherID: o.VoucherID,
		UserID:    o.UserID,
		CreatedAt: o.CreatedAt,
	}
}
