package components

import (
	"classcribe/internal/infra/db"
	"classcribe/internal/infra/readstore"
	"classcribe/internal/infra/uow"
	"classcribe/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewDBTX,
		// UnitOfWork owns write transactions; readstores run on the pool.
		uow.NewPostgresUoW,
		fx.Annotate(
			readstore.NewLessonReadStore,
			fx.As(new(queries.LessonViewRepo)),
		),
		fx.Annotate(
			readstore.NewLedgerReadStore,
			fx.As(new(queries.LedgerViewRepo)),
		),
		fx.Annotate(
			readstore.NewNotificationReadStore,
			fx.As(new(queries.NotificationViewRepo)),
		),
		fx.Annotate(
			readstore.NewUserReadStore,
			fx.As(new(queries.UserViewRepo)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
