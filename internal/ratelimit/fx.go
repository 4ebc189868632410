package ratelimit

import "go.uber.org/fx"

var Module = fx.Module("ratelimit.generation",
	fx.Provide(NewGenerationLimiter),
)
