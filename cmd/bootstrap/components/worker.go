package components

import (
	"context"

	"flashsale-service/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		worker.NewMaterializer,
	),
	fx.Invoke(registerMaterializer),
)

// registerMaterializer ties the consume loop to the app lifecycle. Stop
// cancels the loop and waits for the queue backlog to drain.
func registerMaterializer(lc fx.Lifecycle, m *worker.Materializer) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			m.Start()
			return nil
		},
		OnStop: func(_ context.Context) error {
			m.Stop()
			return nil
		},
	})
}
