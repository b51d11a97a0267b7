package artifact

import (
	"github.com/clubhive/clubhive/internal/config"
	"go.uber.org/fx"
)

func newStore(cfg config.Config) Store {
	return NewLocalStore(cfg.ArtifactDir, cfg.ArtifactBaseURL)
}

var Module = fx.Module("artifact",
	fx.Provide(
		NewQRGenerator,
		newStore,
	),
)
