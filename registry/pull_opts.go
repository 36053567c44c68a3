package registry

// PullOption configures a Pull operation.
type PullOption func(*pullConfig)

type pullConfig struct {
	maxSize   int64
	overwrite bool
}

// WithMaxSize refuses archives larger than maxBytes. Zero means no limit.
func WithMaxSize(maxBytes int64) PullOption {
	return func(cfg *pullConfig) {
		cfg.maxSize = maxBytes
	}
}

// WithOverwrite replaces an existing file at the destination.
func WithOverwrite(enabled bool) PullOption {
	return func(cfg *pullConfig) {
		cfg.overwrite = enabled
	}
}
