package components

import (
	"context"
	"fmt"
	"log/slog"

	"flashsale-service/internal/infra/cache"
	"flashsale-service/internal/infra/queue"
	"flashsale-service/internal/infra/redis/admission"
	"flashsale-service/internal/infra/redis/idgen"
	"flashsale-service/internal/infra/redis/lock"
	"flashsale-service/internal/infra/repository"
	"flashsale-service/internal/pkg/config"
	"flashsale-service/internal/usecase/commands"
	"flashsale-service/internal/usecase/queries"
	"flashsale-service/internal/worker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var InfraModule = fx.Module("infra",
	fx.Provide(
		lock.NewFactory,
		cache.NewReader,
		fx.Annotate(
			admission.NewAdmitter,
			fx.As(new(commands.Admitter)),
		),
		fx.Annotate(
			idgen.NewGenerator,
			fx.As(new(commands.IDGenerator)),
		),
		NewTransport,
		fx.Annotate(
			func(t queue.Transport) queue.Transport { return t },
			fx.As(new(commands.OrderPublisher)),
		),
		NewDeadLetter,
		fx.Annotate(
			repository.NewOrderRepository,
			fx.As(new(worker.OrderStore)),
			fx.As(new(queries.OrderReadStore)),
		),
		fx.Annotate(
			repository.NewVoucherRepository,
			fx.As(new(commands.VoucherRepository)),
			fx.As(new(queries.VoucherReadStore)),
		),
		fx.Annotate(
			repository.NewShopRepository,
			fx.As(new(commands.ShopWriteRepository)),
			fx.As(new(queries.ShopReadStore)),
		),
	),
)

// NewTransport selects the order transport from configuration. The memory
// binding keeps everything in-process; the kafka binding survives restarts
// and fans the topic across a consumer group.
func NewTransport(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (queue.Transport, error) {
	switch cfg.Seckill.Transport {
	case "memory":
		return queue.NewMemoryTransport(cfg.Seckill.QueueSize), nil
	case "kafka":
		t := queue.NewKafkaTransport(cfg.Kafka, logger)
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				return t.Close()
			},
		})
		return t, nil
	default:
		return nil, fmt.Errorf("unknown seckill transport %q", cfg.Seckill.Transport)
	}
}

func NewDeadLetter(lc fx.Lifecycle, cfg config.Config, client redis.UniversalClient) queue.DeadLetter {
	if cfg.Seckill.Transport == "kafka" {
		d := queue.NewKafkaDeadLetter(cfg.Kafka)
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				return d.Close()
			},
		})
		return d
	}
	return queue.NewRedisDeadLetter(client, cfg.Seckill.DeadLetterKey)
}
