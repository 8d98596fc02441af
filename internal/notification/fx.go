package notification

import (
	"context"

	"go.uber.org/fx"

	"github.com/berhanpolat/ev-server/internal/settlement"
)

var Module = fx.Module("notification",
	fx.Provide(NewBridge),
	fx.Provide(func(b *Bridge) settlement.InvoiceNotifier { return b }),
	fx.Invoke(func(lc fx.Lifecycle, b *Bridge) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				b.Wait()
				return nil
			},
		})
	}),
)
