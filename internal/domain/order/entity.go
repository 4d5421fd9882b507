package order

import (
	"errors"
	"time"
)

var (
	ErrMissingID        = errors.New("order id is required")
	ErrMissingVoucherID = errors.New("order voucher id is required")
	ErrMissingUserID    = errors.New("order user id is required")
)

// VoucherOrder is the admission result handed to the asynchronous pipeline.
// Exported fields: the value crosses the queue/broker boundary as JSON.
// For a given (VoucherID, UserID) pair at most one order ever exists.
type VoucherOrder struct {
	ID        int64     `json:"id"`
	VoucherID int64     `json:"voucherId"`
	UserID    int64     `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewVoucherOrder(id, voucherID, userID int64, createdAt time.Time) (VoucherOrder, error) {
	if id == 0 {
		return VoucherOrder{}, ErrMissingID
	}
	if voucherID == 0 {
		return VoucherOrder{}, ErrMissingVoucherID
	}
	if userID == 0 {
		return VoucherOrder{}, ErrMissingUserID
	}

	return VoucherOrder{
		ID:        id,
		VoucherID: voucherID,
		UserID:    userID,
		CreatedAt: createdAt,
	}, nil
}
