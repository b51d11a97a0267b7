package payment

import (
	"github.com/clubhive/clubhive/internal/config"
	"github.com/clubhive/clubhive/internal/payment/domain"
	"github.com/clubhive/clubhive/internal/payment/provider/cashfree"
	"github.com/clubhive/clubhive/internal/payment/repository"
	"github.com/clubhive/clubhive/internal/payment/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func provideProvider(cfg config.Config, log *zap.Logger) domain.Provider {
	return cashfree.New(cfg, log)
}

var Module = fx.Module("payment.service",
	fx.Provide(
		repository.Provide,
		provideProvider,
		service.NewService,
	),
)
