package repository

import (
	"context"
	"errors"
	"time"

	"flashsale-service/internal/domain/voucher"
	"flashsale-service/internal/infra"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VoucherRepository struct {
	pool *pgxpool.Pool
}

func NewVoucherRepository(pool *pgxpool.Pool) *VoucherRepository {
	return &VoucherRepository{pool: pool}
}

func (r *VoucherRepository) Create(ctx context.Context, v *voucher.SeckillVoucher) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO seckill_vouchers (id, title, stock, begin_time, end_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, v.ID(), v.Title(), v.Stock(), v.BeginTime(), v.EndTime(), v.CreatedAt())
	if err != nil {
		return infra.WrapRepoErr("failed to create voucher", err)
	}
	return nil
}

func (r *VoucherRepository) FindByID(ctx context.Context, id int64) (*voucher.SeckillVoucher, error) {
	var (
		title           string
		stock           int32
		begin, end, cre time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT title, stock, begin_time, end_time, created_at
		FROM seckill_vouchers
		WHERE id = $1
	`, id).Scan(&title, &stock, &begin, &end, &cre)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("voucher not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find voucher by ID", err)
	}

	v, err := voucher.NewSeckillVoucher(id, title, stock, begin, end, cre)
	if err != nil {
		return nil, infra.WrapRepoErr("stored voucher failed validation", err)
	}
	return v, nil
}
