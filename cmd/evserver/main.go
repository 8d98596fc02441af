package main

import (
	"context"
	"errors"
	"flag"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	accountsync "github.com/berhanpolat/ev-server/internal/account/sync"
	"github.com/berhanpolat/ev-server/internal/clock"
	"github.com/berhanpolat/ev-server/internal/config"
	"github.com/berhanpolat/ev-server/internal/eligibility"
	"github.com/berhanpolat/ev-server/internal/events"
	"github.com/berhanpolat/ev-server/internal/metrics"
	"github.com/berhanpolat/ev-server/internal/migration"
	"github.com/berhanpolat/ev-server/internal/notification"
	"github.com/berhanpolat/ev-server/internal/observability/logger"
	"github.com/berhanpolat/ev-server/internal/observability/tracing"
	"github.com/berhanpolat/ev-server/internal/provider"
	"github.com/berhanpolat/ev-server/internal/purge"
	"github.com/berhanpolat/ev-server/internal/settlement"
	"github.com/berhanpolat/ev-server/internal/store"
	"github.com/berhanpolat/ev-server/pkg/db"
)

var version = "dev"

func main() {
	purgeTestData := flag.Bool("purge-test-data", false, "delete test-mode billing data and exit")
	flag.Parse()

	options := []fx.Option{
		config.Module,
		fx.Provide(func(cfg config.Config) logger.Config {
			return logger.Config{Level: cfg.Log.Level, Development: !cfg.IsProduction() && cfg.Log.Development}
		}),
		logger.Module,
		fx.Provide(func(cfg config.Config) tracing.Config {
			return tracing.Config{
				Enabled:          cfg.Tracing.Enabled,
				ServiceName:      "ev-server",
				Environment:      cfg.Environment,
				ExporterEndpoint: cfg.Tracing.ExporterEndpoint,
				ExporterProtocol: cfg.Tracing.ExporterProtocol,
				SamplingRatio:    cfg.Tracing.SamplingRatio,
			}
		}),
		tracing.Module,
		fx.Provide(func() (*snowflake.Node, error) {
			return snowflake.NewNode(1)
		}),
		fx.Provide(func(cfg config.Config) *metrics.BillingMetrics {
			return metrics.BillingWithConfig(metrics.Config{
				ServiceName: "ev-server",
				Environment: cfg.Environment,
			})
		}),
		db.Module,
		clock.Module,
		store.Module,
		fx.Provide(events.NewOutbox),
		provider.Module,
		accountsync.Module,
		eligibility.Module,
		settlement.Module,
		notification.Module,
		purge.Module,
		fx.Invoke(func(conn *gorm.DB, log *zap.Logger) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			log.Info("schema migrations applied", zap.String("version", version))
			return nil
		}),
	}

	if *purgeTestData {
		options = append(options, fx.Invoke(runPurge))
	}

	fx.New(options...).Run()
}

// runPurge sweeps test data once and shuts the process down. Refused in
// production so a misconfigured flag can never delete live records.
func runPurge(lc fx.Lifecycle, cfg config.Config, purger *purge.Purger, shutdowner fx.Shutdowner, log *zap.Logger) error {
	if cfg.IsProduction() {
		return errors.New("refusing to purge test data in production")
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := purger.PurgeAll(context.Background()); err != nil {
					log.Error("test data purge failed", zap.Error(err))
				}
				if err := shutdowner.Shutdown(); err != nil {
					log.Error("shutdown failed", zap.Error(err))
				}
			}()
			return nil
		},
	})
	return nil
}
