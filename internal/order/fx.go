package order

import (
	"github.com/smallbiznis/settlement/internal/order/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("order.repository",
	fx.Provide(repository.NewRepository),
)
