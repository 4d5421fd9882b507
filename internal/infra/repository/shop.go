package repository

import (
	"context"
	"errors"

	"flashsale-service/internal/domain/shop"
	"flashsale-service/internal/infra"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ShopRepository struct {
	pool *pgxpool.Pool
}

func NewShopRepository(pool *pgxpool.Pool) *ShopRepository {
	return &ShopRepository{pool: pool}
}

func (r *ShopRepository) FindByID(ctx context.Context, id int64) (*shop.Shop, error) {
	var s shop.Shop
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, address, avg_price, score, updated_at
		FROM shops
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.Address, &s.AvgPrice, &s.Score, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("shop not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find shop by ID", err)
	}
	return &s, nil
}

func (r *ShopRepository) Update(ctx context.Context, s *shop.Shop) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE shops
		SET name = $2, address = $3, avg_price = $4, score = $5, updated_at = $6
		WHERE id = $1
	`, s.ID, s.Name, s.Address, s.AvgPrice, s.Score, s.UpdatedAt)
	if err != nil {
		return infra.WrapRepoErr("failed to update shop", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("shop not found", nil, infra.KindNotFound)
	}
	return nil
}
