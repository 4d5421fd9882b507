package bootstrap

import (
	"flashsale-service/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	DBModule,
	RedisModule,
	JWTModule,
	components.InfraModule,
	components.UseCaseModule,
	components.HandlerModule,
	components.WorkerModule,
)
