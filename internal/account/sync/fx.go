package sync

import "go.uber.org/fx"

var Module = fx.Module("account.sync",
	fx.Provide(NewSynchronizer),
)
