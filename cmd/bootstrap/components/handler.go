package components

import (
	"flashsale-service/internal/handler"
	"flashsale-service/internal/handler/api"
	"flashsale-service/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewVoucherHandler,
		api.NewShopHandler,
		api.NewOrderHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
