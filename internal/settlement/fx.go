package settlement

import (
	"github.com/smallbiznis/settlement/internal/settlement/repository"
	"github.com/smallbiznis/settlement/internal/settlement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settlement.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
	fx.Provide(service.AsGenerator),
	fx.Provide(service.AsQuery),
	fx.Provide(service.AsLifecycle),
)
