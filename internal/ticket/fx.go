package ticket

import (
	"github.com/clubhive/clubhive/internal/ticket/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ticket.service",
	fx.Provide(service.NewService),
)
