package demandplan

import (
	"github.com/smallbiznis/settlement/internal/demandplan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("demandplan.service",
	fx.Provide(service.NewService),
)
