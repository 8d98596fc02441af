package domain

// AdapterConfig carries vendor-specific settings resolved from configuration.
type AdapterConfig struct {
	Provider string
	LiveMode bool
	Settings map[string]any
}

// AdapterFactory builds a Provider for one vendor. New vendors register a
// factory; the orchestration services never change.
type AdapterFactory interface {
	Provider() string
	NewAdapter(config AdapterConfig) (Provider, error)
}
