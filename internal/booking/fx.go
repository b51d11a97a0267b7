package booking

import (
	"context"

	"github.com/clubhive/clubhive/internal/booking/repository"
	"github.com/clubhive/clubhive/internal/booking/service"
	"go.uber.org/fx"
)

var Module = fx.Module("booking.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
		service.NewSweeper,
	),
	fx.Invoke(runSweeper),
)

func runSweeper(lc fx.Lifecycle, sweeper *service.Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go sweeper.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
