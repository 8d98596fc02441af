package eligibility

import (
	"go.uber.org/fx"

	"github.com/berhanpolat/ev-server/internal/config"
)

var Module = fx.Module("eligibility",
	fx.Provide(func(cfg config.Config) Config {
		return Config{
			BillingEnabled:   cfg.Billing.Enabled,
			OrgAccessControl: cfg.Billing.OrgAccessControl,
			MinDuration:      cfg.Billing.MinSessionDuration.Std(),
			MinEnergyKWh:     cfg.Billing.MinSessionEnergyKWh,
			SkipThresholds:   cfg.Billing.SkipThresholds,
		}
	}),
	fx.Provide(NewGuard),
)
