package purge

import "go.uber.org/fx"

var Module = fx.Module("purge",
	fx.Provide(NewPurger),
)
