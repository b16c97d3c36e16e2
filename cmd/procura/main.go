// @title           Procura API
// @version         1.0
// @description     Tiered allocation and cost calculation for procured data products

// @host      localhost:8080
// @BasePath  /api
// @Schemes 	http https

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/procura/internal/catalog"
	"github.com/smallbiznis/procura/internal/clock"
	"github.com/smallbiznis/procura/internal/config"
	"github.com/smallbiznis/procura/internal/contract"
	"github.com/smallbiznis/procura/internal/costing"
	"github.com/smallbiznis/procura/internal/events"
	"github.com/smallbiznis/procura/internal/migration"
	"github.com/smallbiznis/procura/internal/observability"
	"github.com/smallbiznis/procura/internal/offer"
	"github.com/smallbiznis/procura/internal/seed"
	"github.com/smallbiznis/procura/internal/server"
	"github.com/smallbiznis/procura/internal/volume"
	"github.com/smallbiznis/procura/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		fx.Provide(events.NewOutbox),

		fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			if cfg.Bootstrap.EnsureDefaultKey {
				if err := seed.EnsureDefaultKey(conn, log); err != nil {
					return err
				}
			}
			if !cfg.IsProduction() && cfg.Bootstrap.SeedDemoCatalog {
				return seed.EnsureDemoCatalog(conn, log)
			}
			return nil
		}),

		catalog.Module,
		contract.Module,
		offer.Module,
		volume.Module,
		costing.Module,

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
