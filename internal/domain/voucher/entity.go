package voucher

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyTitle    = errors.New("voucher title cannot be empty")
	ErrNegativeStock = errors.New("voucher stock cannot be negative")
	ErrInvalidWindow = errors.New("sale window end must be after begin")
)

// SeckillVoucher is a flash-sale voucher with limited stock and a sale window.
// Stock only ever decreases after creation; the decrement itself happens in
// the shared store, not on this entity.
type SeckillVoucher struct {
	id        int64
	title     string
	stock     int32
	beginTime time.Time
	endTime   time.Time
	createdAt time.Time
}

func NewSeckillVoucher(id int64, title string, stock int32, beginTime, endTime, now time.Time) (*SeckillVoucher, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if stock < 0 {
		return nil, ErrNegativeStock
	}
	if !endTime.After(beginTime) {
		return nil, ErrInvalidWindow
	}

	return &SeckillVoucher{
		id:        id,
		title:     title,
		stock:     stock,
		beginTime: beginTime,
		endTime:   endTime,
		createdAt: now,
	}, nil
}

// IsActiveAt reports whether the sale window includes t.
func (v *SeckillVoucher) IsActiveAt(t time.Time) bool {
	return !t.Before(v.beginTime) && !t.After(v.endTime)
}

func (v *SeckillVoucher) ID() int64            { return v.id }
func (v *SeckillVoucher) Title() string        { return v.title }
func (v *SeckillVoucher) Stock() int32         { return v.stock }
func (v *SeckillVoucher) BeginTime() time.Time { return v.beginTime }
func (v *SeckillVoucher) EndTime() time.Time   { return v.endTime }
func (v *SeckillVoucher) CreatedAt() time.Time { return v.createdAt }
