// Package provider wires the billing vendor adapter selected by config.
package provider

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/berhanpolat/ev-server/internal/config"
	"github.com/berhanpolat/ev-server/internal/provider/adapters"
	providerdomain "github.com/berhanpolat/ev-server/internal/provider/domain"
	"github.com/berhanpolat/ev-server/internal/provider/sandbox"
)

var Module = fx.Module("provider",
	fx.Provide(NewRegistry),
	fx.Provide(NewProvider),
)

// NewRegistry builds the adapter registry with all known vendors.
func NewRegistry() (*adapters.Registry, error) {
	registry := adapters.NewRegistry()
	if err := registry.Register(sandbox.Factory{}); err != nil {
		return nil, err
	}
	return registry, nil
}

// NewProvider builds the adapter named by the provider config section.
func NewProvider(registry *adapters.Registry, cfg config.Config, log *zap.Logger) (providerdomain.Provider, error) {
	adapter, err := registry.NewAdapter(cfg.Provider.Name, providerdomain.AdapterConfig{
		LiveMode: cfg.Provider.LiveMode,
		Settings: cfg.Provider.Settings,
	})
	if err != nil {
		return nil, err
	}
	log.Info("billing provider configured",
		zap.String("provider", cfg.Provider.Name),
		zap.Bool("live_mode", cfg.Provider.LiveMode),
	)
	return adapter, nil
}
