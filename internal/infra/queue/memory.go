package queue

import (
	"context"

	"flashsale-service/internal/domain/order"
)

// MemoryTransport is the in-process binding: a bounded FIFO channel drained
// by the single materializer in the same process.
type MemoryTransport struct {
	ch chan order.VoucherOrder
}

func NewMemoryTransport(size int) *MemoryTransport {
	return &MemoryTransport{
		ch: make(chan order.VoucherOrder, size),
	}
}

// Publish never blocks the request path: a full queue is an error the
// caller logs, not a wait.
func (t *MemoryTransport) Publish(_ context.Context, o order.VoucherOrder) error {
	select {
	case t.ch <- o:
		return nil
	default:
		return ErrQueueFull
	}
}

func (t *MemoryTransport) Receive(ctx context.Context) (Delivery, error) {
	// Drain buffered orders even after cancellation so shutdown does not
	// abandon admitted orders.
	select {
	case o := <-t.ch:
		return Delivery{Order: o, Ack: ackNoop}, nil
	default:
	}

	select {
	case o := <-t.ch:
		return Delivery{Order: o, Ack: ackNoop}, nil
	case <-ctx.Done():
		return Delivery{}, ctx.Err()
	}
}

// Len reports the backlog; used by tests and shutdown logging.
func (t *MemoryTransport) Len() int {
	return len(t.ch)
}

func ackNoop(context.Context) error { return nil }
