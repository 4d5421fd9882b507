package queue

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"flashsale-service/internal/domain/order"
	"flashsale-service/internal/pkg/config"
	"flashsale-service/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

type deadEntry struct {
	Order    order.VoucherOrder `json:"order"`
	Cause    string             `json:"cause"`
	ParkedAt time.Time          `json:"parkedAt"`
}

// RedisDeadLetter parks exhausted orders on a redis list; pairs with the
// in-process transport, which has no broker to carry a DLQ topic.
type RedisDeadLetter struct {
	client redis.UniversalClient
	key    string
}

func NewRedisDeadLetter(client redis.UniversalClient, key string) *RedisDeadLetter {
	return &RedisDeadLetter{client: client, key: key}
}

func (d *RedisDeadLetter) Park(ctx context.Context, o order.VoucherOrder, cause error) error {
	entry, err := json.Marshal(deadEntry{Order: o, Cause: cause.Error(), ParkedAt: time.Now().UTC()})
	if err != nil {
		return errs.Wrap(err, "failed to marshal dead letter")
	}
	if err := d.client.LPush(ctx, d.key, entry).Err(); err != nil {
		return errs.Wrap(err, "failed to park dead letter")
	}
	return nil
}

// KafkaDeadLetter parks exhausted orders on a dedicated DLQ topic.
type KafkaDeadLetter struct {
	writer *kafka.Writer
}

func NewKafkaDeadLetter(cfg config.KafkaConfig) *KafkaDeadLetter {
	return &KafkaDeadLetter{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.DLQTopic,
			RequiredAcks: kafka.RequireAll,
		},
	}
}

func (d *KafkaDeadLetter) Park(ctx context.Context, o order.VoucherOrder, cause error) error {
	entry, err := json.Marshal(deadEntry{Order: o, Cause: cause.Error(), ParkedAt: time.Now().UTC()})
	if err != nil {
		return errs.Wrap(err, "failed to marshal dead letter")
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(o.UserID, 10)),
		Value: entry,
	}
	if err := d.writer.WriteMessages(ctx, msg); err != nil {
		return errs.Wrap(err, "failed to park dead letter")
	}
	return nil
}

func (d *KafkaDeadLetter) Close() error {
	return d.writer.Close()
}
