package queries

import (
	"context"

	"flashsale-service/internal/domain/order"
	"flashsale-service/internal/infra"
	"flashsale-service/internal/pkg/errs"
)

var ErrOrderNotFound = errs.New("order not found")

type OrderQueries interface {
	// GetOrder reads the durable order row. Admitted orders are materialized
	// asynchronously, so a lookup right after admission can still miss.
	GetOrder(ctx context.Context, id int64) (*order.VoucherOrder, error)
}

type OrderReadStore interface {
	FindByID(ctx context.Context, id int64) (*order.VoucherOrder, error)
}

type orderQueriesImpl struct {
	store OrderReadStore
}

func NewOrderQueries(store OrderReadStore) OrderQueries {
	return &orderQueriesImpl{store: store}
}

func (q *orderQueriesImpl) GetOrder(ctx context.Context, id int64) (*order.VoucherOrder, error) {
	o, err := q.store.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, errs.Wrap(err, "order lookup failed")
	}
	return o, nil
}
