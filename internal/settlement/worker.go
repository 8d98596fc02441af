package settlement

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Worker schedules the periodic settlement run.
type Worker struct {
	log    *zap.Logger
	runner *Runner
	cron   *cron.Cron
}

type WorkerParams struct {
	fx.In

	LC     fx.Lifecycle
	Log    *zap.Logger
	Runner *Runner
	Cfg    Config
}

func NewWorker(p WorkerParams) (*Worker, error) {
	w := &Worker{
		log:    p.Log.Named("settlement.worker"),
		runner: p.Runner,
		cron:   cron.New(),
	}

	schedule := p.Cfg.withDefaults().Schedule
	if _, err := w.cron.AddFunc(schedule, w.run); err != nil {
		return nil, err
	}

	p.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			w.log.Info("settlement schedule armed", zap.String("schedule", schedule))
			w.cron.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopped := w.cron.Stop()
			select {
			case <-stopped.Done():
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		},
	})
	return w, nil
}

func (w *Worker) run() {
	result, err := w.runner.RunPeriodicSettlement(context.Background(), false)
	if err != nil {
		w.log.Error("scheduled settlement run aborted", zap.Error(err))
		return
	}
	w.log.Info("scheduled settlement run completed",
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
}
