package broadcast

import (
	"github.com/clubhive/clubhive/internal/clock"
	"github.com/clubhive/clubhive/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg   config.Config
	Log   *zap.Logger
	Clock clock.Clock
}

// NewPublisher wires the Redis publisher when REDIS_ADDR is set and falls
// back to a no-op otherwise, so single-node deployments need no Redis.
func NewPublisher(p Params) Publisher {
	if p.Cfg.RedisAddr == "" {
		p.Log.Info("live seat updates disabled, no redis address configured")
		return nopPublisher{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     p.Cfg.RedisAddr,
		Password: p.Cfg.RedisPassword,
		DB:       p.Cfg.RedisDB,
	})
	return newRedisPublisher(client, p.Log, p.Clock)
}

var Module = fx.Module("broadcast",
	fx.Provide(NewPublisher),
)
