package settlement

// Config controls the periodic settlement runner.
type Config struct {
	// BatchSize is the page size used for normal (non-forced) runs.
	BatchSize int

	// BillDrafts includes DRAFT invoices in the periodic scope.
	BillDrafts bool

	// Schedule is the cron expression for the periodic run.
	Schedule string
}

func DefaultConfig() Config {
	return Config{
		BatchSize: 100,
		Schedule:  "0 3 1 * *",
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.Schedule == "" {
		c.Schedule = defaults.Schedule
	}
	return c
}
