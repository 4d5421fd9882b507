package commands

import (
	"context"

	"flashsale-service/internal/domain/shop"
	"flashsale-service/internal/infra"
	"flashsale-service/internal/infra/cache"
	"flashsale-service/internal/pkg/config"
	"flashsale-service/internal/pkg/errs"
	"flashsale-service/internal/usecase/shared"
)

var (
	ErrShopNotFound     = errs.New("shop not found")
	ErrShopUpdateFailed = errs.New("shop update failed")
)

type ShopWriteRepository interface {
	FindByID(ctx context.Context, id int64) (*shop.Shop, error)
	Update(ctx context.Context, s *shop.Shop) error
}

type ShopCommands interface {
	// UpdateShop writes the source of truth first, then invalidates the
	// cache entry so the next read rebuilds.
	UpdateShop(ctx context.Context, s *shop.Shop) error
	// WarmHotShop populates the logically-expired entry out-of-band before
	// the key is first read under that policy.
	WarmHotShop(ctx context.Context, id int64) error
}

type shopCommandsImpl struct {
	shops ShopWriteRepository
	cache *cache.Reader
	cfg   config.CacheConfig
}

func NewShopCommands(shops ShopWriteRepository, reader *cache.Reader, cfg config.CacheConfig) ShopCommands {
	return &shopCommandsImpl{
		shops: shops,
		cache: reader,
		cfg:   cfg,
	}
}

func (c *shopCommandsImpl) UpdateShop(ctx context.Context, s *shop.Shop) error {
	if err := c.shops.Update(ctx, s); err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return ErrShopNotFound
		}
		return errs.Mark(err, ErrShopUpdateFailed)
	}
	if err := c.cache.Delete(ctx, shared.ShopCacheKey(s.ID)); err != nil {
		return errs.Mark(err, ErrShopUpdateFailed)
	}
	return nil
}

func (c *shopCommandsImpl) WarmHotShop(ctx context.Context, id int64) error {
	s, err := c.shops.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return ErrShopNotFound
		}
		return errs.Mark(err, ErrShopUpdateFailed)
	}
	return cache.WarmLogical(ctx, c.cache, shared.HotShopCacheKey(id), s, c.cfg.LogicalHorizon)
}
