package queries

import (
	"context"

	"flashsale-service/internal/domain/shop"
	"flashsale-service/internal/infra"
	"flashsale-service/internal/infra/cache"
	"flashsale-service/internal/pkg/config"
	"flashsale-service/internal/pkg/errs"
	"flashsale-service/internal/usecase/shared"
)

var ErrShopNotFound = errs.New("shop not found")

type ShopQueries interface {
	// GetShop reads through the null-guarded cache; a miss on an absent id
	// leaves a short-lived empty marker behind.
	GetShop(ctx context.Context, id int64) (*shop.Shop, error)
	// GetHotShop serves the logical-expiration path; the key must have been
	// warmed first or the lookup reports not found.
	GetHotShop(ctx context.Context, id int64) (*shop.Shop, error)
}

type ShopReadStore interface {
	FindByID(ctx context.Context, id int64) (*shop.Shop, error)
}

type shopQueriesImpl struct {
	store ShopReadStore
	cache *cache.Reader
	cfg   config.CacheConfig
}

func NewShopQueries(store ShopReadStore, reader *cache.Reader, cfg config.CacheConfig) ShopQueries {
	return &shopQueriesImpl{
		store: store,
		cache: reader,
		cfg:   cfg,
	}
}

func (q *shopQueriesImpl) GetShop(ctx context.Context, id int64) (*shop.Shop, error) {
	s, err := cache.GetWithNullGuard(ctx, q.cache, shared.ShopCacheKey(id), q.cfg.ShopTTL, q.sourceFor(id))
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrShopNotFound
	}
	return s, nil
}

func (q *shopQueriesImpl) GetHotShop(ctx context.Context, id int64) (*shop.Shop, error) {
	s, err := cache.GetWithLogicalExpire(ctx, q.cache, shared.HotShopCacheKey(id), q.cfg.LogicalHorizon, q.sourceFor(id))
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrShopNotFound
	}
	return s, nil
}

// sourceFor adapts the store to the cache contract: a missing row becomes
// (nil, nil) so the policy can record absence instead of erroring.
func (q *shopQueriesImpl) sourceFor(id int64) cache.Source[shop.Shop] {
	return func(ctx context.Context) (*shop.Shop, error) {
		s, err := q.store.FindByID(ctx, id)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return s, nil
	}
}
