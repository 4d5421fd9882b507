package commands

import (
	"context"
	"time"

	"flashsale-service/internal/domain/voucher"
	"flashsale-service/internal/infra/redis/admission"
	"flashsale-service/internal/pkg/clock"
	"flashsale-service/internal/pkg/errs"
)

var (
	ErrVoucherValidation     = errs.New("voucher validation error")
	ErrVoucherCreationFailed = errs.New("voucher creation failed")
)

type VoucherRepository interface {
	Create(ctx context.Context, v *voucher.SeckillVoucher) error
}

type AddVoucherParams struct {
	Title     string
	Stock     int32
	BeginTime time.Time
	EndTime   time.Time
}

type VoucherCommands interface {
	// AddSeckillVoucher persists the voucher durably and seeds the sale
	// state in the store so the admission script can serve it.
	AddSeckillVoucher(ctx context.Context, p AddVoucherParams) (int64, error)
}

type voucherCommandsImpl struct {
	vouchers VoucherRepository
	admitter Admitter
	idgen    IDGenerator
	clock    clock.Clock
}

func NewVoucherCommands(
	vouchers VoucherRepository,
	admitter Admitter,
	idgen IDGenerator,
	clk clock.Clock,
) VoucherCommands {
	return &voucherCommandsImpl{
		vouchers: vouchers,
		admitter: admitter,
		idgen:    idgen,
		clock:    clk,
	}
}

func (c *voucherCommandsImpl) AddSeckillVoucher(ctx context.Context, p AddVoucherParams) (int64, error) {
	id, err := c.idgen.NextID(ctx, "voucher")
	if err != nil {
		return 0, errs.Mark(err, ErrVoucherCreationFailed)
	}

	v, err := voucher.NewSeckillVoucher(id, p.Title, p.Stock, p.BeginTime, p.EndTime, c.clock.Now())
	if err != nil {
		return 0, errs.Mark(err, ErrVoucherValidation)
	}

	if err := c.vouchers.Create(ctx, v); err != nil {
		return 0, errs.Mark(err, ErrVoucherCreationFailed)
	}

	state := admission.SaleState{
		Stock:     v.Stock(),
		BeginTime: v.BeginTime(),
		EndTime:   v.EndTime(),
	}
	if err := c.admitter.Seed(ctx, v.ID(), state); err != nil {
		return 0, errs.Mark(err, ErrVoucherCreationFailed)
	}

	return v.ID(), nil
}
