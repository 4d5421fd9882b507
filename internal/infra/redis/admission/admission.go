// Package admission holds the atomic flash-sale admission check. The whole
// decision — remaining stock, per-user duplicate marker, decrement, marker
// insert — runs as one script inside the store so that two requests racing
// on the last unit of stock can never both be admitted.
package admission

import (
	"context"
	"errors"
	"strconv"
	"time"

	"flashsale-service/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

const (
	saleKeyPrefix  = "seckill:voucher:"
	orderKeyPrefix = "seckill:order:"
)

var ErrSaleStateMissing = errors.New("sale state not found in store")

// Result is the tri-state outcome of the admission script.
type Result int

const (
	Admitted  Result = 0
	SoldOut   Result = 1
	Duplicate Result = 2
)

// KEYS[1] = sale state hash, KEYS[2] = ordered-users set, ARGV[1] = user id.
var admitScript = redis.NewScript(`
local stock = tonumber(redis.call('hget', KEYS[1], 'stock'))
if (stock == nil or stock <= 0) then
    return 1
end
if (redis.call('sismember', KEYS[2], ARGV[1]) == 1) then
    return 2
end
redis.call('hincrby', KEYS[1], 'stock', -1)
redis.call('sadd', KEYS[2], ARGV[1])
return 0
`)

// SaleState is the per-voucher admission state kept in the store.
type SaleState struct {
	Stock     int32
	BeginTime time.Time
	EndTime   time.Time
}

type Admitter struct {
	client redis.UniversalClient
}

func NewAdmitter(client redis.UniversalClient) *Admitter {
	return &Admitter{client: client}
}

// Seed populates the sale state when a flash sale is configured. It is the
// only writer of the hash besides the admission script's decrement.
func (a *Admitter) Seed(ctx context.Context, voucherID int64, state SaleState) error {
	err := a.client.HSet(ctx, saleKey(voucherID),
		"stock", strconv.FormatInt(int64(state.Stock), 10),
		"beginTime", state.BeginTime.UTC().Format(time.RFC3339),
		"endTime", state.EndTime.UTC().Format(time.RFC3339),
	).Err()
	if err != nil {
		return errs.Wrap(err, "failed to seed sale state")
	}
	return nil
}

// Window reads the sale window for the caller's pre-check. The window is
// deliberately read outside the script: rejections before/after the sale
// need no atomicity.
func (a *Admitter) Window(ctx context.Context, voucherID int64) (begin, end time.Time, err error) {
	vals, err := a.client.HMGet(ctx, saleKey(voucherID), "beginTime", "endTime").Result()
	if err != nil {
		return time.Time{}, time.Time{}, errs.Wrap(err, "failed to read sale window")
	}
	if vals[0] == nil || vals[1] == nil {
		return time.Time{}, time.Time{}, ErrSaleStateMissing
	}

	begin, err = parseWindowField(vals[0])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = parseWindowField(vals[1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return begin, end, nil
}

// Admit runs the atomic admission check for one (voucher, user) pair.
func (a *Admitter) Admit(ctx context.Context, voucherID, userID int64) (Result, error) {
	res, err := admitScript.Run(ctx, a.client,
		[]string{saleKey(voucherID), orderKey(voucherID)},
		strconv.FormatInt(userID, 10),
	).Int64()
	if err != nil {
		return SoldOut, errs.Wrap(err, "admission script failed")
	}
	return Result(res), nil
}

// Stock reads the remaining stock; used by tests and operational checks.
func (a *Admitter) Stock(ctx context.Context, voucherID int64) (int32, error) {
	val, err := a.client.HGet(ctx, saleKey(voucherID), "stock").Result()
	if err == redis.Nil {
		return 0, ErrSaleStateMissing
	}
	if err != nil {
		return 0, errs.Wrap(err, "failed to read stock")
	}
	n, err := strconv.ParseInt(val, 10, 32)
	if err != nil {
		return 0, errs.Wrap(err, "malformed stock value")
	}
	return int32(n), nil
}

func saleKey(voucherID int64) string {
	return saleKeyPrefix + strconv.FormatInt(voucherID, 10)
}

func orderKey(voucherID int64) string {
	return orderKeyPrefix + strconv.FormatInt(voucherID, 10)
}

func parseWindowField(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, errs.New("malformed sale window field")
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errs.Wrap(err, "malformed sale window timestamp")
	}
	return t, nil
}
