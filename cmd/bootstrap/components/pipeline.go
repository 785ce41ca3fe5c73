package components

import (
	"context"
	"errors"
	"log/slog"

	"classcribe/internal/pipeline"
	"classcribe/internal/pipeline/dispatch"
	"classcribe/internal/pipeline/events"
	"classcribe/internal/pipeline/queue"
	"classcribe/internal/pkg/config"
	"classcribe/internal/usecase/commands"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var PipelineModule = fx.Module("pipeline",
	fx.Provide(
		NewQueueManager,
		events.NewHub,
		NewEventBus,
		events.NewPublisher,
		fx.Annotate(
			func(p *events.Publisher) *events.Publisher { return p },
			fx.As(new(commands.EventPublisher)),
		),
		fx.Annotate(
			func(p *events.Publisher) *events.Publisher { return p },
			fx.As(new(pipeline.EventSink)),
		),
		dispatch.NewDispatcher,
		fx.Annotate(
			func(d *dispatch.Dispatcher) *dispatch.Dispatcher { return d },
			fx.As(new(commands.NotificationDispatcher)),
		),
		fx.Annotate(
			func(d *dispatch.Dispatcher) *dispatch.Dispatcher { return d },
			fx.As(new(pipeline.Notifier)),
		),
		pipeline.NewOrchestrator,
		fx.Annotate(
			func(o *pipeline.Orchestrator) *pipeline.Orchestrator { return o },
			fx.As(new(commands.PipelineEnqueuer)),
		),
	),
	fx.Invoke(StartPipeline),
)

func NewQueueManager(cfg config.Config) *queue.Manager {
	return queue.NewManager(queue.Config{
		MaxAttempts: cfg.Pipeline.MaxAttempts,
		BackoffBase: cfg.Pipeline.BackoffBase,
		Depth:       cfg.Pipeline.QueueDepth,
	})
}

// NewEventBus wires the Redis leg of event broadcasting. An empty address
// keeps publishing in-process only.
func NewEventBus(lc fx.Lifecycle, cfg config.Config, hub *events.Hub) events.Broadcaster {
	if cfg.Redis.Addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	bus := events.NewRedisBus(client, cfg.Redis.Channel, hub)

	runCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := bus.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
					slog.Error("event bus subscriber stopped", "error", err.Error())
				}
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			return client.Close()
		},
	})

	return bus
}

// StartPipeline starts queue workers after the orchestrator has registered
// its queues and handlers.
func StartPipeline(lc fx.Lifecycle, manager *queue.Manager, _ *pipeline.Orchestrator) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return manager.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			return manager.Stop()
		},
	})
}
