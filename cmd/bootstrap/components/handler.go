package components

import (
	"classcribe/internal/handler"
	"classcribe/internal/handler/api"
	"classcribe/internal/handler/middleware"
	"classcribe/internal/pkg/config"
	"classcribe/internal/usecase/commands"
	"classcribe/internal/usecase/queries"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		NewAuthHandler,
		api.NewLessonHandler,
		api.NewCreditHandler,
		api.NewNotificationHandler,
		api.NewWebhookHandler,
		api.NewEventsHandler,
		NewHandlers,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)

func NewAuthHandler(authCommands commands.AuthCommands, userQueries queries.UserQueries, cfg config.Config) *api.AuthHandler {
	return api.NewAuthHandler(authCommands, userQueries, cfg.Cookie, cfg.JWT.Duration)
}

func NewHandlers(
	auth *api.AuthHandler,
	lessons *api.LessonHandler,
	credits *api.CreditHandler,
	notifications *api.NotificationHandler,
	webhooks *api.WebhookHandler,
	events *api.EventsHandler,
) handler.Handlers {
	return handler.Handlers{
		Auth:          auth,
		Lessons:       lessons,
		Credits:       credits,
		Notifications: notifications,
		Webhooks:      webhooks,
		Events:        events,
	}
}
