package settlement

import (
	"go.uber.org/fx"

	"github.com/berhanpolat/ev-server/internal/config"
)

var Module = fx.Module("settlement",
	fx.Provide(func(cfg config.Config) Config {
		return Config{
			BatchSize:  cfg.Billing.BatchSize,
			BillDrafts: cfg.Billing.BillDrafts,
			Schedule:   cfg.Billing.Schedule,
		}
	}),
	fx.Provide(NewRunner),
	fx.Provide(NewWorker),
	fx.Invoke(func(*Worker) {}),
)
