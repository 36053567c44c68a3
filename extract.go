package asar

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/meigma/asar/internal/platform"
)

// ExtractOption configures extraction.
type ExtractOption func(*extractConfig)

type extractConfig struct {
	progress ProgressFunc
	logger   *slog.Logger
}

// ExtractWithProgress sets a callback for each extracted entry.
func ExtractWithProgress(fn ProgressFunc) ExtractOption {
	return func(c *extractConfig) {
		c.progress = fn
	}
}

// ExtractWithLogger sets the logger for extraction.
// If not set, logging is disabled.
func ExtractWithLogger(logger *slog.Logger) ExtractOption {
	return func(c *extractConfig) {
		c.logger = logger
	}
}

// ExtractAll restores every entry of a below dest, creating dest if needed.
//
// Entries are written in archive order. Folders that already exist are
// reused; an existing file or symlink returns ErrAlreadyExists. Symlink
// targets are restored verbatim. All writes go through an os.Root opened at
// dest, so neither an entry nor a previously restored symlink can direct a
// write outside dest.
//
// A file that fails verification is removed. Entries restored before the
// failure are left in place.
func ExtractAll(ctx context.Context, a *Archive, dest string, opts ...ExtractOption) (Stats, error) {
	var cfg extractConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	log := cfg.logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return Stats{}, fmt.Errorf("create destination: %w", err)
	}
	root, err := os.OpenRoot(dest)
	if err != nil {
		return Stats{}, err
	}
	defer root.Close()

	x := &extractor{root: root, cfg: &cfg, log: log}
	for node, err := range a.All() {
		if err != nil {
			return x.stats, err
		}
		if err := ctx.Err(); err != nil {
			return x.stats, err
		}
		if err := node.Accept(x); err != nil {
			return x.stats, err
		}
	}
	return x.stats, nil
}

// extractor writes visited nodes below root.
type extractor struct {
	root  *os.Root
	cfg   *extractConfig
	log   *slog.Logger
	stats Stats
}

func (x *extractor) VisitFolder(d *Folder) error {
	name := filepath.FromSlash(d.Path())
	if err := x.root.Mkdir(name, 0o755); err != nil {
		if !errors.Is(err, fs.ErrExist) {
			return err
		}
		info, statErr := x.root.Lstat(name)
		if statErr != nil {
			return statErr
		}
		if !info.IsDir() {
			return fmt.Errorf("%s: %w", d.Path(), ErrAlreadyExists)
		}
	}
	x.stats.Folders++
	x.progress(d.Path(), KindFolder, "")
	return nil
}

func (x *extractor) VisitSymlink(l *Symlink) error {
	if err := x.root.Symlink(l.Link, filepath.FromSlash(l.Path())); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", l.Path(), ErrAlreadyExists)
		}
		return err
	}
	x.stats.Symlinks++
	x.progress(l.Path(), KindSymlink, l.Link)
	return nil
}

func (x *extractor) VisitFile(f *File) error {
	name := filepath.FromSlash(f.Path())
	out, err := x.root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, platform.FileMode(f.Executable))
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", f.Path(), ErrAlreadyExists)
		}
		return err
	}

	w := bufio.NewWriterSize(out, 64<<10)
	err = f.Extract(w)
	if err == nil {
		err = w.Flush()
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		if removeErr := x.root.Remove(name); removeErr != nil {
			x.log.Warn("failed to remove partial file", "path", f.Path(), "error", removeErr)
		}
		return err
	}

	x.stats.Files++
	x.stats.Bytes += f.Size
	x.progress(f.Path(), KindFile, "")
	return nil
}

func (x *extractor) progress(p string, kind Kind, link string) {
	emit(x.cfg.progress, ProgressEvent{
		Stage:       StageExtracting,
		Path:        p,
		Kind:        kind.String(),
		Link:        link,
		BytesDone:   x.stats.Bytes,
		EntriesDone: x.stats.Entries(),
	})
}

// ExtractFile writes the content of the file named name to w.
//
// name is a slash-separated path relative to the archive root. Folders and
// symlinks never match. A name with no matching file returns an error
// matching ErrNotFound.
func ExtractFile(a *Archive, name string, w io.Writer) error {
	want := strings.TrimPrefix(path.Clean(filepath.ToSlash(name)), "/")
	for node, err := range a.All() {
		if err != nil {
			return err
		}
		if f, ok := node.(*File); ok && f.Path() == want {
			return f.Extract(w)
		}
	}
	return fmt.Errorf("%s: %w", name, ErrNotFound)
}
