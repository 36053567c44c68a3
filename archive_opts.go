package asar

import "log/slog"

// Option configures an Archive.
type Option func(*Archive)

// WithMaxHeaderSize limits the header block size accepted when opening an
// archive. The header is held in memory, so the limit bounds allocation for
// untrusted input.
func WithMaxHeaderSize(limit uint32) Option {
	return func(a *Archive) {
		a.maxHeaderSize = limit
	}
}

// WithLogger sets the logger for header parsing and extraction.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}
