package queries

import (
	"context"
	"time"

	"flashsale-service/internal/domain/voucher"
	"flashsale-service/internal/infra"
	"flashsale-service/internal/infra/cache"
	"flashsale-service/internal/pkg/config"
	"flashsale-service/internal/pkg/errs"
	"flashsale-service/internal/usecase/shared"
)

var ErrVoucherNotFound = errs.New("voucher not found")

// VoucherView is the read model for voucher lookups. The durable stock
// column lags the admission counters during a sale, so callers must treat
// Stock as approximate while the sale window is open.
type VoucherView struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Stock     int32     `json:"stock"`
	BeginTime time.Time `json:"begin_time"`
	EndTime   time.Time `json:"end_time"`
}

type VoucherQueries interface {
	// GetVoucher reads through the mutex-guarded cache: on a miss only one
	// caller rebuilds, the rest wait and re-read.
	GetVoucher(ctx context.Context, id int64) (*VoucherView, error)
}

type VoucherReadStore interface {
	FindByID(ctx context.Context, id int64) (*voucher.SeckillVoucher, error)
}

type voucherQueriesImpl struct {
	store VoucherReadStore
	cache *cache.Reader
	cfg   config.CacheConfig
}

func NewVoucherQueries(store VoucherReadStore, reader *cache.Reader, cfg config.CacheConfig) VoucherQueries {
	return &voucherQueriesImpl{
		store: store,
		cache: reader,
		cfg:   cfg,
	}
}

func (q *voucherQueriesImpl) GetVoucher(ctx context.Context, id int64) (*VoucherView, error) {
	src := func(ctx context.Context) (*VoucherView, error) {
		v, err := q.store.FindByID(ctx, id)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return &VoucherView{
			ID:        v.ID(),
			Title:     v.Title(),
			Stock:     v.Stock(),
			BeginTime: v.BeginTime(),
			EndTime:   v.EndTime(),
		}, nil
	}

	view, err := cache.GetWithMutex(ctx, q.cache, shared.VoucherCacheKey(id), q.cfg.ShopTTL, src)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, ErrVoucherNotFound
	}
	return view, nil
}
