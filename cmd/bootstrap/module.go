package bootstrap

import (
	"classcribe/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	DBModule,
	JWTModule,
	components.PersistenceModule,
	components.ClientsModule,
	components.PipelineModule,
	components.UseCaseModule,
	components.HandlerModule,
)
