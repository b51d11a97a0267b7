package service

import (
	"context"
	"time"

	"github.com/clubhive/clubhive/internal/booking/domain"
	"github.com/clubhive/clubhive/internal/config"
	"go.uber.org/zap"
)

// Sweeper periodically expires stale holds so the durable state catches up
// with what availability reads already exclude.
type Sweeper struct {
	svc      domain.Service
	log      *zap.Logger
	interval time.Duration
}

func NewSweeper(svc domain.Service, log *zap.Logger, cfg config.Config) *Sweeper {
	interval := time.Duration(cfg.SweepIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		svc:      svc,
		log:      log.Named("booking.sweeper"),
		interval: interval,
	}
}

func (s *Sweeper) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if _, err := s.svc.ExpireStaleHolds(ctx); err != nil {
			s.log.Warn("hold sweep failed", zap.Error(err))
		}
	}
}
