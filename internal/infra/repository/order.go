package repository

import (
	"context"
	"errors"

	"flashsale-service/internal/domain/order"
	"flashsale-service/internal/infra"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgErrCodeUniqueViolation = "23505"

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Create(ctx context.Context, o order.VoucherOrder) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO voucher_orders (id, voucher_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, o.ID, o.VoucherID, o.UserID, o.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrCodeUniqueViolation {
			return infra.WrapRepoErr("order already exists", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to create order", err)
	}
	return nil
}

// Materialize persists the order and decrements durable stock in one
// transaction, so a retry after a partial failure can never decrement
// twice. Reports KindNoStock when the stock row is already at zero and
// KindDuplicateKey when the order row is already present.
func (r *OrderRepository) Materialize(ctx context.Context, o order.VoucherOrder) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return infra.WrapRepoErr("failed to begin order transaction", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE seckill_vouchers
		SET stock = stock - 1
		WHERE id = $1 AND stock > 0
	`, o.VoucherID)
	if err != nil {
		return infra.WrapRepoErr("failed to decrement stock", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("no durable stock remaining", pgx.ErrNoRows, infra.KindNoStock)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO voucher_orders (id, voucher_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, o.ID, o.VoucherID, o.UserID, o.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrCodeUniqueViolation {
			return infra.WrapRepoErr("order already exists", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to create order", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return infra.WrapRepoErr("failed to commit order transaction", err)
	}
	return nil
}

// ExistsByUserAndVoucher backs the materializer's duplicate re-check.
func (r *OrderRepository) ExistsByUserAndVoucher(ctx context.Context, userID, voucherID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM voucher_orders WHERE user_id = $1 AND voucher_id = $2
		)
	`, userID, voucherID).Scan(&exists)
	if err != nil {
		return false, infra.WrapRepoErr("failed to check order existence", err)
	}
	return exists, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*order.VoucherOrder, error) {
	var o order.VoucherOrder
	err := r.pool.QueryRow(ctx, `
		SELECT id, voucher_id, user_id, created_at
		FROM voucher_orders
		WHERE id = $1
	`, id).Scan(&o.ID, &o.VoucherID, &o.UserID, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("order not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find order by ID", err)
	}
	return &o, nil
}
