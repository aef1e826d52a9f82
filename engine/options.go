package engine

// ============================================================================
// ENGINE OPTIONS — Functional options for Execute()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*execConfig)

type execConfig struct {
	DefaultMeasure string // default measure key if ViewSpec.Measure is empty
}

// WithDefaultMeasure sets the measure to aggregate when ViewSpec.Measure is empty.
func WithDefaultMeasure(measure string) Option {
	return func(c *execConfig) {
		c.DefaultMeasure = measure
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *execConfig {
	cfg := &execConfig{
		DefaultMeasure: "amount",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
