package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/clubhive/clubhive/internal/clock"
	"github.com/clubhive/clubhive/internal/config"
	"github.com/clubhive/clubhive/internal/logger"
	"github.com/clubhive/clubhive/internal/migration"
	"github.com/clubhive/clubhive/internal/server"
	"github.com/clubhive/clubhive/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
