package asar

import (
	"log/slog"

	"github.com/meigma/asar/internal/integrity"
)

// DefaultBlockSize is the integrity block size used when no
// CreateWithBlockSize option is set.
const DefaultBlockSize = integrity.DefaultBlockSize

// MaxBlockSize is the largest accepted integrity block size.
const MaxBlockSize = integrity.MaxBlockSize

// CreateOption configures archive creation.
type CreateOption func(*createConfig)

type createConfig struct {
	blockSize     uint32
	excludeHidden bool
	tempDir       string
	progress      ProgressFunc
	logger        *slog.Logger
	overwrite     bool

	// skip holds walk paths that must not be packed, such as the archive
	// being written when it lies inside the source directory.
	skip map[string]struct{}
}

func newCreateConfig(opts []CreateOption) createConfig {
	cfg := createConfig{blockSize: DefaultBlockSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c *createConfig) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.New(slog.DiscardHandler)
}

// CreateWithBlockSize sets the integrity block size, which must be in
// (0, MaxBlockSize].
func CreateWithBlockSize(n uint32) CreateOption {
	return func(c *createConfig) {
		c.blockSize = n
	}
}

// CreateWithExcludeHidden skips files and directories whose names begin
// with a dot.
func CreateWithExcludeHidden(enabled bool) CreateOption {
	return func(c *createConfig) {
		c.excludeHidden = enabled
	}
}

// CreateWithTempDir sets where the payload is staged while the index is
// built. The default is os.TempDir.
func CreateWithTempDir(dir string) CreateOption {
	return func(c *createConfig) {
		c.tempDir = dir
	}
}

// CreateWithProgress sets a callback for each packed entry.
func CreateWithProgress(fn ProgressFunc) CreateOption {
	return func(c *createConfig) {
		c.progress = fn
	}
}

// CreateWithLogger sets the logger for archive creation.
// If not set, logging is disabled.
func CreateWithLogger(logger *slog.Logger) CreateOption {
	return func(c *createConfig) {
		c.logger = logger
	}
}

// CreateWithOverwrite allows CreateFile to replace an existing archive.
func CreateWithOverwrite(enabled bool) CreateOption {
	return func(c *createConfig) {
		c.overwrite = enabled
	}
}
