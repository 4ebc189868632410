package lock

import (
	redis "github.com/redis/go-redis/v9"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("lock",
	fx.Provide(NewRedisClient),
	fx.Provide(provideGenerationLocker),
)

func provideGenerationLocker(client *redis.Client) settlementdomain.Locker {
	if client == nil {
		return nil
	}
	return NewLocker(client)
}
