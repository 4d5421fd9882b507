package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"flashsale-service/internal/domain/order"
	"flashsale-service/internal/pkg/config"
	"flashsale-service/internal/pkg/errs"

	"github.com/segmentio/kafka-go"
)

// KafkaTransport is the broker binding. The writer publishes admitted
// orders keyed by user id; the reader fetches with manual commits so an
// order is only committed after the materializer has handled it
// (at-least-once).
type KafkaTransport struct {
	writer *kafka.Writer
	reader *kafka.Reader
	logger *slog.Logger
}

func NewKafkaTransport(cfg config.KafkaConfig, logger *slog.Logger) *KafkaTransport {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commits only
	})
	return &KafkaTransport{writer: writer, reader: reader, logger: logger}
}

func (t *KafkaTransport) Publish(ctx context.Context, o order.VoucherOrder) error {
	value, err := json.Marshal(o)
	if err != nil {
		return errs.Wrap(err, "failed to marshal order")
	}
	msg := kafka.Message{
		// Keyed by user so redeliveries of one user's order stay on one
		// partition and hit the same consumer.
		Key:   []byte(strconv.FormatInt(o.UserID, 10)),
		Value: value,
	}
	if err := t.writer.WriteMessages(ctx, msg); err != nil {
		return errs.Wrap(err, "failed to publish order")
	}
	return nil
}

func (t *KafkaTransport) Receive(ctx context.Context) (Delivery, error) {
	for {
		msg, err := t.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return Delivery{}, ctx.Err()
			}
			t.logger.Error("fetch message failed", "error", err)
			time.Sleep(time.Second)
			continue
		}

		var o order.VoucherOrder
		if err := json.Unmarshal(msg.Value, &o); err != nil {
			// Malformed payloads are committed and skipped, otherwise they
			// would be refetched forever.
			t.logger.Error("invalid order payload, skipping message", "error", err)
			if cerr := t.reader.CommitMessages(ctx, msg); cerr != nil {
				t.logger.Error("failed to commit invalid message", "error", cerr)
			}
			continue
		}

		return Delivery{
			Order: o,
			Ack: func(ctx context.Context) error {
				return t.reader.CommitMessages(ctx, msg)
			},
		}, nil
	}
}

func (t *KafkaTransport) Close() error {
	werr := t.writer.Close()
	rerr := t.reader.Close()
	if werr != nil {
		return werr
	}
	return rerr
}
