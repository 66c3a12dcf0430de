package pipeline_fx

import (
	"context"

	"go.uber.org/fx"

	"placesmap/internal/config"
	"placesmap/internal/queue"
	"placesmap/internal/services"
)

var Module = fx.Options(
	fx.Provide(
		services.NewMapboxStaticRenderer,
		services.NewMediaUploader,
		services.NewAnnouncementPublisher,
		services.NewWebhookNotifier,
		services.NewPipelineService,
		provideQueue,
		func(q *queue.Queue) services.PipelineDispatcher { return q },
	),
	// Registered ahead of the HTTP server so the consumer runs before the first publish.
	fx.Invoke(startQueue),
)

func provideQueue(cfg config.PipelineConfig, pipeline services.PipelineServiceInterface) (*queue.Queue, error) {
	return queue.New(cfg, pipeline)
}

func startQueue(lc fx.Lifecycle, q *queue.Queue) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return q.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return q.Stop(ctx)
		},
	})
}
