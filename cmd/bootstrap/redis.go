package bootstrap

import (
	"context"

	redisinfra "flashsale-service/internal/infra/redis"
	"flashsale-service/internal/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var RedisModule = fx.Module("redis",
	fx.Provide(
		NewRedis,
		func(c *redis.Client) redis.UniversalClient { return c },
	),
)

func NewRedis(lc fx.Lifecycle, cfg config.Config) (*redis.Client, error) {
	client, cleanup, err := redisinfra.Connect(cfg.Redis)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			if cleanup != nil {
				cleanup()
			}
			return nil
		},
	})

	return client, nil
}
