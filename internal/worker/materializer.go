// Package worker hosts the order materializer: the single consumer that
// turns admitted orders into durable rows.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"flashsale-service/internal/domain/order"
	"flashsale-service/internal/infra"
	"flashsale-service/internal/infra/queue"
	"flashsale-service/internal/infra/redis/lock"
	"flashsale-service/internal/pkg/clock"
	"flashsale-service/internal/pkg/config"
	"flashsale-service/internal/pkg/errs"
)

type OrderStore interface {
	// Materialize decrements durable stock and inserts the order row in one
	// transaction.
	Materialize(ctx context.Context, o order.VoucherOrder) error
	ExistsByUserAndVoucher(ctx context.Context, userID, voucherID int64) (bool, error)
}

// Materializer drains the order transport and persists each order exactly
// once. It tolerates redelivery: every hazard on the durable path resolves
// to either a row or a dead-letter entry, never a crash loop.
type Materializer struct {
	transport queue.Transport
	locks     *lock.Factory
	orders    OrderStore
	dead      queue.DeadLetter
	clock     clock.Clock
	logger    *slog.Logger
	cfg       config.SeckillConfig

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func NewMaterializer(
	transport queue.Transport,
	locks *lock.Factory,
	orders OrderStore,
	dead queue.DeadLetter,
	clk clock.Clock,
	logger *slog.Logger,
	cfg config.SeckillConfig,
) *Materializer {
	return &Materializer{
		transport: transport,
		locks:     locks,
		orders:    orders,
		dead:      dead,
		clock:     clk,
		logger:    logger,
		cfg:       cfg,
		done:      make(chan struct{}),
	}
}

// Start launches the consume loop. Stop cancels it; the loop then drains
// the transport backlog before exiting.
func (m *Materializer) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go func() {
		defer close(m.done)
		m.Run(ctx)
	}()
}

func (m *Materializer) Stop() {
	m.once.Do(func() {
		if m.cancel != nil {
			m.cancel()
		}
		<-m.done
	})
}

// Run consumes until ctx is cancelled and the backlog is drained.
func (m *Materializer) Run(ctx context.Context) {
	m.logger.Info("order materializer started", "transport", m.cfg.Transport)
	for {
		d, err := m.transport.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				m.logger.Info("order materializer stopped")
				return
			}
			m.logger.Error("order receive failed", "error", err)
			m.clock.Sleep(m.cfg.RetryBackoff)
			continue
		}

		// A received delivery must settle even when the loop is draining a
		// shutdown backlog, so only the Receive wait observes cancellation.
		itemCtx := context.WithoutCancel(ctx)
		m.process(itemCtx, d.Order)

		// Persistence is settled (row, duplicate, or dead letter) before the
		// offset commits, so a crash replays at most unsettled orders.
		if err := d.Ack(itemCtx); err != nil {
			m.logger.Error("order ack failed", "order_id", d.Order.ID, "error", err)
		}
	}
}

// process retries transient failures with doubling backoff and parks the
// order once the attempts run out.
func (m *Materializer) process(ctx context.Context, o order.VoucherOrder) {
	backoff := m.cfg.RetryBackoff
	var lastErr error
	for attempt := 0; attempt <= m.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			m.clock.Sleep(backoff)
			backoff *= 2
		}
		lastErr = m.materialize(ctx, o)
		if lastErr == nil {
			return
		}
		m.logger.Warn("order persistence attempt failed",
			"order_id", o.ID, "user_id", o.UserID, "attempt", attempt+1, "error", lastErr)
	}

	m.logger.Error("order persistence retries exhausted, parking",
		"order_id", o.ID, "user_id", o.UserID, "error", lastErr)
	if err := m.dead.Park(ctx, o, lastErr); err != nil {
		m.logger.Error("dead letter park failed", "order_id", o.ID, "error", err)
	}
}

// materialize persists one order under the per-user safety-net lock.
// Redelivered or replayed orders resolve to nil without a second row or a
// second stock decrement.
func (m *Materializer) materialize(ctx context.Context, o order.VoucherOrder) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.New(fmt.Sprintf("order materialization panicked: %v", r))
		}
	}()

	l := m.locks.NewLock(fmt.Sprintf("order:%d", o.UserID))
	ok, err := l.TryLock(ctx, m.cfg.OrderLockTTL)
	if err != nil {
		return errs.Wrap(err, "order lock attempt failed")
	}
	if !ok {
		// Another worker holds this user's lock; redelivery will settle it.
		m.logger.Warn("order lock contended, dropping delivery",
			"order_id", o.ID, "user_id", o.UserID)
		return nil
	}
	defer func() {
		if uerr := l.Unlock(ctx); uerr != nil {
			m.logger.Error("order unlock failed", "order_id", o.ID, "error", uerr)
		}
	}()

	exists, err := m.orders.ExistsByUserAndVoucher(ctx, o.UserID, o.VoucherID)
	if err != nil {
		return errs.Wrap(err, "duplicate re-check failed")
	}
	if exists {
		m.logger.Info("order already materialized, skipping",
			"order_id", o.ID, "user_id", o.UserID, "voucher_id", o.VoucherID)
		return nil
	}

	if err := m.orders.Materialize(ctx, o); err != nil {
		switch {
		case infra.IsKind(err, infra.KindNoStock):
			// Admission counters said yes but the durable stock is gone;
			// the admission ledger already recorded this user, so the
			// delivery is settled without a row.
			m.logger.Warn("durable stock exhausted, order not materialized",
				"order_id", o.ID, "voucher_id", o.VoucherID)
			return nil
		case infra.IsKind(err, infra.KindDuplicateKey):
			m.logger.Info("order row already present, skipping", "order_id", o.ID)
			return nil
		}
		return errs.Wrap(err, "order persistence failed")
	}
	return nil
}
