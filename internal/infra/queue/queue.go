// Package queue carries admitted orders from the synchronous intake path to
// the materializer. Two transports implement the same contract: an
// in-process bounded queue and a kafka topic. Delivery is at-least-once in
// the kafka binding; the materializer absorbs redelivery.
package queue

import (
	"context"
	"errors"

	"flashsale-service/internal/domain/order"
)

var ErrQueueFull = errors.New("order queue is full")

// Delivery is one received order plus its acknowledgement. Ack commits the
// broker offset in the kafka binding and is a no-op in the memory binding.
type Delivery struct {
	Order order.VoucherOrder
	Ack   func(ctx context.Context) error
}

// Transport is the asynchronous channel between intake and materializer.
type Transport interface {
	// Publish enqueues an admitted order without waiting for persistence.
	Publish(ctx context.Context, o order.VoucherOrder) error
	// Receive blocks for the next order. After ctx is cancelled it keeps
	// returning already-buffered orders until the backlog is drained, then
	// returns ctx.Err().
	Receive(ctx context.Context) (Delivery, error)
}

// DeadLetter is the sink for orders whose persistence retries are
// exhausted. They are parked for operator inspection, never dropped.
type DeadLetter interface {
	Park(ctx context.Context, o order.VoucherOrder, cause error) error
}
