// Package walk enumerates a source directory in the order archives are
// built from it.
package walk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/meigma/asar/internal/platform"
)

// Kind classifies a walked entry.
type Kind int

const (
	KindFile Kind = iota
	KindDir
	KindSymlink
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Entry is one item of a walk.
type Entry struct {
	// Path is slash-separated and relative to the walked directory.
	Path       string
	Kind       Kind
	Size       uint64
	Executable bool
	// Link is the raw symlink target.
	Link string
	// Content is open only while the entry is being yielded.
	Content io.Reader
}

// Options configures Dir.
type Options struct {
	// ExcludeHidden skips names starting with "." along with everything
	// beneath hidden directories.
	ExcludeHidden bool
	Logger        *slog.Logger
}

func (o Options) log() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Dir walks dir without following symlinks.
//
// Within each directory, non-directory names are yielded first in sorted
// order, then directory names in sorted order, and only then are the real
// subdirectories descended into, so a directory is always yielded before
// its contents. A symlink is bucketed by what it points at but is yielded
// as a symlink and never descended into. Sockets, devices and pipes are
// skipped.
func Dir(ctx context.Context, dir string, opts Options) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		root, err := os.OpenRoot(dir)
		if err != nil {
			yield(Entry{}, err)
			return
		}
		defer root.Close()

		w := &walker{ctx: ctx, dir: dir, root: root, opts: opts, log: opts.log(), yield: yield}
		w.walk(".")
	}
}

type walker struct {
	ctx   context.Context
	dir   string
	root  *os.Root
	opts  Options
	log   *slog.Logger
	yield func(Entry, error) bool
}

// walk returns false once the consumer stops or an error was yielded.
func (w *walker) walk(rel string) bool {
	var files, dirs []fs.DirEntry
	entries, err := w.readDir(rel)
	if err != nil {
		return w.fail(err)
	}
	for _, d := range entries {
		if w.opts.ExcludeHidden && strings.HasPrefix(d.Name(), ".") {
			continue
		}
		if w.isDir(rel, d) {
			dirs = append(dirs, d)
		} else {
			files = append(files, d)
		}
	}

	for _, d := range files {
		if !w.emit(rel, d) {
			return false
		}
	}
	for _, d := range dirs {
		if !w.emit(rel, d) {
			return false
		}
	}
	for _, d := range dirs {
		if d.IsDir() && !w.walk(path.Join(rel, d.Name())) {
			return false
		}
	}
	return true
}

func (w *walker) readDir(rel string) ([]fs.DirEntry, error) {
	f, err := w.root.Open(filepath.FromSlash(rel))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	entries, err := f.ReadDir(-1)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(entries, func(a, b fs.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return entries, nil
}

// isDir reports whether d is a directory or a symlink that resolves to one.
func (w *walker) isDir(rel string, d fs.DirEntry) bool {
	if d.IsDir() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	// The target may lie outside the walked tree, so it is resolved by path
	// rather than through the root. It is only classified, never opened.
	info, err := os.Stat(filepath.Join(w.dir, filepath.FromSlash(rel), d.Name()))
	return err == nil && info.IsDir()
}

func (w *walker) fail(err error) bool {
	w.yield(Entry{}, err)
	return false
}

func (w *walker) emit(rel string, d fs.DirEntry) bool {
	if err := w.ctx.Err(); err != nil {
		return w.fail(err)
	}
	name := path.Join(rel, d.Name())
	fsName := filepath.FromSlash(name)

	switch {
	case d.Type()&fs.ModeSymlink != 0:
		link, err := w.root.Readlink(fsName)
		if err != nil {
			return w.fail(err)
		}
		return w.yield(Entry{Path: name, Kind: KindSymlink, Link: link}, nil)
	case d.IsDir():
		return w.yield(Entry{Path: name, Kind: KindDir}, nil)
	case d.Type().IsRegular():
		return w.emitFile(name, fsName)
	default:
		w.log.Debug("skipping non-regular file", "path", name, "type", d.Type().String())
		return true
	}
}

func (w *walker) emitFile(name, fsName string) bool {
	f, info, err := platform.OpenSource(w.root, fsName)
	switch {
	case errors.Is(err, platform.ErrNotRegular):
		w.log.Debug("skipping non-regular file", "path", name)
		return true
	case errors.Is(err, platform.ErrSymlink):
		return w.fail(fmt.Errorf("%s changed to a symlink during walk: %w", name, err))
	case err != nil:
		return w.fail(err)
	}
	defer f.Close()

	return w.yield(Entry{
		Path:       name,
		Kind:       KindFile,
		Size:       uint64(info.Size()), //nolint:gosec // regular file sizes are non-negative
		Executable: platform.IsExecutable(info.Mode()),
		Content:    f,
	}, nil)
}
