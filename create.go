package asar

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/meigma/asar/internal/integrity"
	"github.com/meigma/asar/internal/pickle"
	"github.com/meigma/asar/internal/sizing"
	"github.com/meigma/asar/internal/walk"
)

// PackEntry is one input to CreateFromEntries.
type PackEntry struct {
	Node Node

	// Content supplies exactly Size bytes for a *File node and is ignored
	// otherwise. It is read before the next entry is requested.
	Content io.Reader
}

// Stats summarizes a create or extract operation.
type Stats struct {
	Files    int
	Folders  int
	Symlinks int

	// Bytes is the total file content size.
	Bytes uint64
}

// Entries returns the number of nodes processed.
func (s Stats) Entries() int {
	return s.Files + s.Folders + s.Symlinks
}

// CreateFromEntries writes an archive holding entries to dst.
//
// Entries must arrive parents first, and the archive is only extractable
// when they arrive in the order Walk visits them: depth-first pre-order,
// with non-folders before folders and names sorted at each level. Payload
// is laid out in entry order and readers consume it forward-only, so any
// other order can make ExtractAll fail with ErrRewind. Create and
// CreateFile produce that order. File content is streamed into a
// staging file while it is hashed, so memory use does not depend on file
// sizes; the staging file is removed before CreateFromEntries returns.
// Nothing is written to dst until every entry has been consumed.
//
// Entries are stored in the order given. A name already present in its
// folder returns ErrAlreadyExists, a name that could escape the root
// returns ErrPathSafety, and an entry whose parent folder was never added
// returns an error matching fs.ErrNotExist.
func CreateFromEntries(ctx context.Context, entries iter.Seq2[PackEntry, error], dst io.Writer, opts ...CreateOption) (Stats, error) {
	cfg := newCreateConfig(opts)
	return createFromEntries(ctx, entries, dst, &cfg)
}

func createFromEntries(ctx context.Context, entries iter.Seq2[PackEntry, error], dst io.Writer, cfg *createConfig) (Stats, error) {
	if err := integrity.ValidateBlockSize(cfg.blockSize); err != nil {
		return Stats{}, err
	}

	tmp, err := os.CreateTemp(cfg.tempDir, "asar-payload-*")
	if err != nil {
		return Stats{}, fmt.Errorf("create payload staging file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	b := &builder{
		cfg:     cfg,
		root:    newDirRecord(),
		payload: bufio.NewWriterSize(tmp, 64<<10),
	}
	for entry, err := range entries {
		if err != nil {
			return b.stats, err
		}
		if err := ctx.Err(); err != nil {
			return b.stats, err
		}
		if entry.Node == nil {
			return b.stats, fmt.Errorf("%w: pack entry without node", ErrFormat)
		}
		b.content = entry.Content
		err := entry.Node.Accept(b)
		b.content = nil
		if err != nil {
			return b.stats, err
		}
	}
	if err := b.payload.Flush(); err != nil {
		return b.stats, fmt.Errorf("write payload staging file: %w", err)
	}

	emit(cfg.progress, ProgressEvent{Stage: StageFinalizing, BytesDone: b.stats.Bytes, EntriesDone: b.stats.Entries()})
	if err := b.finish(dst, tmp); err != nil {
		return b.stats, err
	}
	cfg.log().Debug("created archive", "entries", b.stats.Entries(), "bytes", b.stats.Bytes)
	return b.stats, nil
}

// builder accumulates the index while staging file content. It visits
// each packed node.
type builder struct {
	cfg     *createConfig
	root    *dirRecord
	payload *bufio.Writer
	offset  uint64
	content io.Reader
	stats   Stats
}

// parent resolves the folder that will hold p and returns the leaf name.
func (b *builder) parent(p string) (*dirRecord, string, error) {
	if !utf8.ValidString(p) {
		return nil, "", fmt.Errorf("%w: %q is not valid UTF-8", ErrFormat, p)
	}
	segments := strings.Split(p, "/")
	dir := b.root
	for i, seg := range segments[:len(segments)-1] {
		if err := checkName(seg); err != nil {
			return nil, "", fmt.Errorf("%s: %w", p, err)
		}
		child, ok := dir.children[seg]
		if !ok {
			return nil, "", &fs.PathError{Op: "pack", Path: strings.Join(segments[:i+1], "/"), Err: fs.ErrNotExist}
		}
		sub, ok := child.(*dirRecord)
		if !ok {
			return nil, "", fmt.Errorf("%w: %s: parent %q is not a folder", ErrFormat, p, strings.Join(segments[:i+1], "/"))
		}
		dir = sub
	}
	leaf := segments[len(segments)-1]
	if err := checkName(leaf); err != nil {
		return nil, "", fmt.Errorf("%s: %w", p, err)
	}
	if _, dup := dir.children[leaf]; dup {
		return nil, "", fmt.Errorf("%s: %w", p, ErrAlreadyExists)
	}
	return dir, leaf, nil
}

func (b *builder) VisitFolder(d *Folder) error {
	dir, leaf, err := b.parent(d.Path())
	if err != nil {
		return err
	}
	if err := dir.add(leaf, newDirRecord()); err != nil {
		return err
	}
	b.stats.Folders++
	b.progress(d.Path(), KindFolder, "")
	return nil
}

func (b *builder) VisitSymlink(l *Symlink) error {
	dir, leaf, err := b.parent(l.Path())
	if err != nil {
		return err
	}
	if !utf8.ValidString(l.Link) {
		return fmt.Errorf("%w: %s: link target %q is not valid UTF-8", ErrFormat, l.Path(), l.Link)
	}
	if err := dir.add(leaf, &linkRecord{Link: l.Link}); err != nil {
		return err
	}
	b.stats.Symlinks++
	b.progress(l.Path(), KindSymlink, l.Link)
	return nil
}

func (b *builder) VisitFile(f *File) error {
	dir, leaf, err := b.parent(f.Path())
	if err != nil {
		return err
	}
	end, ok := sizing.AddUint64(b.offset, f.Size)
	if !ok {
		return fmt.Errorf("%w: %s: payload exceeds 2^64 bytes", ErrSizeOverflow, f.Path())
	}

	rec, err := integrity.Copy(b.payload, b.content, f.Size, b.cfg.blockSize)
	if err != nil {
		return fmt.Errorf("pack %s: %w", f.Path(), err)
	}
	f.Offset = b.offset
	f.Integrity = rec
	if err := dir.add(leaf, &fileRecord{
		Size:       f.Size,
		Offset:     sizing.FormatOffset(f.Offset),
		Executable: f.Executable,
		Integrity:  rec,
	}); err != nil {
		return err
	}
	b.offset = end
	b.stats.Files++
	b.stats.Bytes = end
	b.progress(f.Path(), KindFile, "")
	return nil
}

func (b *builder) progress(p string, kind Kind, link string) {
	emit(b.cfg.progress, ProgressEvent{
		Stage:       StagePacking,
		Path:        p,
		Kind:        kind.String(),
		Link:        link,
		BytesDone:   b.stats.Bytes,
		EntriesDone: b.stats.Entries(),
	})
}

// finish writes the framed index followed by the staged payload.
func (b *builder) finish(dst io.Writer, staged *os.File) error {
	index, err := encodeIndex(b.root)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	header := pickle.New()
	if err := header.WriteString(index); err != nil {
		return err
	}
	headerBytes := header.Bytes()
	sizePrefix := pickle.New()
	if err := sizePrefix.WriteUint32(uint32(len(headerBytes))); err != nil { //nolint:gosec // pickle payloads fit in uint32
		return err
	}

	if _, err := dst.Write(sizePrefix.Bytes()); err != nil {
		return err
	}
	if _, err := dst.Write(headerBytes); err != nil {
		return err
	}
	if _, err := staged.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind payload staging file: %w", err)
	}
	n, err := io.Copy(dst, staged)
	if err != nil {
		return err
	}
	if uint64(n) != b.offset { //nolint:gosec // n is non-negative
		return fmt.Errorf("%w: staged %d payload bytes, expected %d", ErrTruncated, n, b.offset)
	}
	return nil
}

// Create packs the contents of dir into an archive written to dst.
//
// Each directory contributes its files and symlinks in name order, then
// its subdirectories in name order, before any subdirectory is descended
// into. Symlinks are stored, never followed. Sockets, devices and pipes
// are skipped.
func Create(ctx context.Context, dir string, dst io.Writer, opts ...CreateOption) (Stats, error) {
	cfg := newCreateConfig(opts)
	return createFromEntries(ctx, dirEntries(ctx, dir, &cfg), dst, &cfg)
}

func dirEntries(ctx context.Context, dir string, cfg *createConfig) iter.Seq2[PackEntry, error] {
	return func(yield func(PackEntry, error) bool) {
		walkOpts := walk.Options{ExcludeHidden: cfg.excludeHidden, Logger: cfg.logger}
		for e, err := range walk.Dir(ctx, dir, walkOpts) {
			if err != nil {
				yield(PackEntry{}, err)
				return
			}
			if _, skip := cfg.skip[e.Path]; skip {
				cfg.log().Debug("skipping output archive inside source", "path", e.Path)
				continue
			}
			var node Node
			switch e.Kind {
			case walk.KindDir:
				node = NewFolder(e.Path)
			case walk.KindSymlink:
				node = NewSymlink(e.Path, e.Link)
			default:
				node = NewFile(e.Path, e.Size, e.Executable)
			}
			if !yield(PackEntry{Node: node, Content: e.Content}, nil) {
				return
			}
		}
	}
}

// CreateFile packs dir into the archive at archivePath.
//
// The archive is written to a temporary file next to archivePath and
// renamed into place, so a failed run never leaves a partial archive. An
// existing archivePath returns ErrAlreadyExists unless CreateWithOverwrite
// is set. When archivePath lies inside dir, it is not packed into itself.
func CreateFile(ctx context.Context, dir, archivePath string, opts ...CreateOption) (Stats, error) {
	cfg := newCreateConfig(opts)
	if !cfg.overwrite {
		if _, err := os.Lstat(archivePath); err == nil {
			return Stats{}, fmt.Errorf("%s: %w", archivePath, ErrAlreadyExists)
		}
	}

	outDir := filepath.Dir(archivePath)
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return Stats{}, fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(outDir, ".asar-*")
	if err != nil {
		return Stats{}, err
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	cfg.skip = make(map[string]struct{}, 2)
	for _, p := range []string{tmpPath, archivePath} {
		if rel, ok := relativeTo(dir, p); ok {
			cfg.skip[rel] = struct{}{}
		}
	}

	w := bufio.NewWriterSize(tmp, 64<<10)
	stats, err := createFromEntries(ctx, dirEntries(ctx, dir, &cfg), w, &cfg)
	if err != nil {
		return stats, err
	}
	if err := w.Flush(); err != nil {
		return stats, err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return stats, err
	}
	if err := tmp.Close(); err != nil {
		return stats, err
	}
	if err := os.Rename(tmpPath, archivePath); err != nil {
		return stats, err
	}
	committed = true
	return stats, nil
}

// relativeTo returns p as a slash-separated path below dir.
func relativeTo(dir, p string) (string, bool) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	absP, err := filepath.Abs(p)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(absDir, absP)
	if err != nil || !filepath.IsLocal(rel) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
