package commands

import (
	"context"
	"log/slog"
	"time"

	"flashsale-service/internal/domain/order"
	"flashsale-service/internal/infra/redis/admission"
	"flashsale-service/internal/pkg/clock"
	"flashsale-service/internal/pkg/errs"
)

var (
	ErrSaleNotFound        = errs.New("seckill voucher not found")
	ErrSaleNotStarted      = errs.New("sale has not started")
	ErrSaleEnded           = errs.New("sale has ended")
	ErrSoldOut             = errs.New("sold out")
	ErrDuplicateOrder      = errs.New("duplicate order")
	ErrOrderCreationFailed = errs.New("order creation failed")
)

type Admitter interface {
	Window(ctx context.Context, voucherID int64) (begin, end time.Time, err error)
	Admit(ctx context.Context, voucherID, userID int64) (admission.Result, error)
	Seed(ctx context.Context, voucherID int64, state admission.SaleState) error
}

type IDGenerator interface {
	NextID(ctx context.Context, prefix string) (int64, error)
}

type OrderPublisher interface {
	Publish(ctx context.Context, o order.VoucherOrder) error
}

type SeckillCommands interface {
	// Seckill is the synchronous admission path: window pre-check, atomic
	// admission, id allocation, enqueue. It never waits for durable
	// persistence.
	Seckill(ctx context.Context, voucherID, userID int64) (int64, error)
}

type seckillCommandsImpl struct {
	admitter  Admitter
	idgen     IDGenerator
	publisher OrderPublisher
	clock     clock.Clock
	logger    *slog.Logger
}

func NewSeckillCommands(
	admitter Admitter,
	idgen IDGenerator,
	publisher OrderPublisher,
	clk clock.Clock,
	logger *slog.Logger,
) SeckillCommands {
	return &seckillCommandsImpl{
		admitter:  admitter,
		idgen:     idgen,
		publisher: publisher,
		clock:     clk,
		logger:    logger,
	}
}

func (s *seckillCommandsImpl) Seckill(ctx context.Context, voucherID, userID int64) (int64, error) {
	begin, end, err := s.admitter.Window(ctx, voucherID)
	if err != nil {
		if err == admission.ErrSaleStateMissing {
			return 0, ErrSaleNotFound
		}
		return 0, errs.Mark(err, ErrOrderCreationFailed)
	}

	now := s.clock.Now()
	if now.Before(begin) {
		return 0, ErrSaleNotStarted
	}
	if now.After(end) {
		return 0, ErrSaleEnded
	}

	result, err := s.admitter.Admit(ctx, voucherID, userID)
	if err != nil {
		return 0, errs.Mark(err, ErrOrderCreationFailed)
	}
	switch result {
	case admission.SoldOut:
		return 0, ErrSoldOut
	case admission.Duplicate:
		return 0, ErrDuplicateOrder
	}

	orderID, err := s.idgen.NextID(ctx, "order")
	if err != nil {
		return 0, errs.Mark(err, ErrOrderCreationFailed)
	}

	o, err := order.NewVoucherOrder(orderID, voucherID, userID, now)
	if err != nil {
		return 0, errs.Mark(err, ErrOrderCreationFailed)
	}

	// The admission decision is final once the script returned 0: a failed
	// publish is not rolled back. It is logged as a lost-order risk for
	// monitoring; the user keeps the id the materializer would have
	// persisted.
	if err := s.publisher.Publish(ctx, o); err != nil {
		s.logger.Error("failed to publish admitted order",
			"order_id", orderID, "voucher_id", voucherID, "user_id", userID, "error", err)
	}

	return orderID, nil
}
