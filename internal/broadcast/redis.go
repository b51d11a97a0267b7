package broadcast

import (
	"context"

	"github.com/clubhive/clubhive/internal/clock"
	ticketdomain "github.com/clubhive/clubhive/internal/ticket/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type redisPublisher struct {
	client *redis.Client
	log    *zap.Logger
	clock  clock.Clock
}

func newRedisPublisher(client *redis.Client, log *zap.Logger, clk clock.Clock) Publisher {
	return &redisPublisher{
		client: client,
		log:    log.Named("broadcast.redis"),
		clock:  clk,
	}
}

func (p *redisPublisher) PublishSeatsUpdate(ctx context.Context, summary *ticketdomain.AvailabilitySummary) error {
	payload, err := marshalUpdate(summary, p.clock.Now())
	if err != nil {
		return err
	}
	channel := channelFor(summary.EventID)
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		p.log.Warn("seats update publish failed",
			zap.String("channel", channel),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// Nop returns a publisher that drops every update.
func Nop() Publisher {
	return nopPublisher{}
}

type nopPublisher struct{}

func (nopPublisher) PublishSeatsUpdate(context.Context, *ticketdomain.AvailabilitySummary) error {
	return nil
}
