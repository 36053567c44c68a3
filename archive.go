package asar

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"

	"github.com/meigma/asar/internal/pickle"
	"github.com/meigma/asar/internal/sizing"
)

const (
	// sizePrefixLen is the length of the pickle that holds the header size.
	sizePrefixLen = 8

	// readChunkSize bounds every chunk yielded by Read.
	readChunkSize = 4096

	// DefaultMaxHeaderSize is the header size limit used when no
	// WithMaxHeaderSize option is set.
	DefaultMaxHeaderSize = 64 << 20
)

// Archive reads an archive front to back.
//
// The header is parsed when the Archive is created. Content is then read
// with a single forward-only cursor shared by every node the Archive
// yields, so an Archive must not be used from multiple goroutines and must
// outlive the nodes derived from it.
type Archive struct {
	r      io.Reader
	seeker io.Seeker
	closer io.Closer

	headerSize uint32
	headerJSON string
	root       *jsonObject

	// position is the absolute stream offset of the next unread byte.
	position uint64
	buf      []byte

	maxHeaderSize uint32
	logger        *slog.Logger
}

// Open opens the named archive file. Close releases the file.
func Open(name string, opts ...Option) (*Archive, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	a, err := NewReader(f, opts...)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	a.closer = f
	return a, nil
}

// NewReader parses the archive header from r.
//
// If r implements io.Seeker, skipped content is seeked over relative to the
// current offset; otherwise, or when seeking fails as it does on pipes, the
// bytes are read and discarded. Closing the Archive does not close r.
func NewReader(r io.Reader, opts ...Option) (*Archive, error) {
	a := &Archive{
		r:             r,
		maxHeaderSize: DefaultMaxHeaderSize,
		buf:           make([]byte, readChunkSize),
	}
	for _, opt := range opts {
		opt(a)
	}
	if s, ok := r.(io.Seeker); ok {
		a.seeker = s
	}
	if err := a.readHeader(); err != nil {
		return nil, err
	}
	a.log().Debug("parsed archive header",
		"header_size", a.headerSize,
		"payload_origin", a.PayloadOrigin(),
		"seekable", a.seeker != nil,
	)
	return a, nil
}

func (a *Archive) log() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.New(slog.DiscardHandler)
}

func (a *Archive) readHeader() error {
	prefix := make([]byte, sizePrefixLen)
	if err := a.readFull(prefix); err != nil {
		return fmt.Errorf("read size prefix: %w", err)
	}
	sizePickle := pickle.FromBytes(prefix)
	if !sizePickle.Valid() {
		return fmt.Errorf("%w: malformed size prefix", ErrFormat)
	}
	headerSize, err := sizePickle.Iterator().ReadUint32()
	if err != nil {
		return fmt.Errorf("%w: malformed size prefix: %v", ErrFormat, err) //nolint:errorlint // reported as a format error
	}
	if headerSize > a.maxHeaderSize {
		return fmt.Errorf("%w: header of %d bytes exceeds limit of %d", ErrFormat, headerSize, a.maxHeaderSize)
	}

	raw := make([]byte, headerSize)
	if err := a.readFull(raw); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	headerPickle := pickle.FromBytes(raw)
	if !headerPickle.Valid() {
		return fmt.Errorf("%w: malformed header block", ErrFormat)
	}
	headerJSON, err := headerPickle.Iterator().ReadString()
	if err != nil {
		return fmt.Errorf("read header string: %w", err)
	}
	root, err := decodeIndex(headerJSON)
	if err != nil {
		return err
	}

	a.headerSize = headerSize
	a.headerJSON = headerJSON
	a.root = root
	return nil
}

// readFull fills p from the stream and advances the cursor.
func (a *Archive) readFull(p []byte) error {
	n, err := io.ReadFull(a.r, p)
	a.position += uint64(n) //nolint:gosec // n is non-negative
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: stream ended after %d of %d bytes", ErrTruncated, n, len(p))
		}
		return err
	}
	return nil
}

// Close closes the file opened by Open. It is a no-op for archives
// created with NewReader.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// HeaderSize returns the size of the pickled header block.
func (a *Archive) HeaderSize() uint32 { return a.headerSize }

// PayloadOrigin returns the absolute offset that file offsets are relative to.
func (a *Archive) PayloadOrigin() uint64 { return sizePrefixLen + uint64(a.headerSize) }

// HeaderJSON returns the index exactly as stored.
func (a *Archive) HeaderJSON() string { return a.headerJSON }

// Position returns the absolute offset of the next unread byte.
func (a *Archive) Position() uint64 { return a.position }

// Seek moves the cursor to rel bytes past the payload origin.
//
// The cursor only moves forward. A target behind the cursor returns
// ErrRewind and leaves the cursor where it was.
func (a *Archive) Seek(rel uint64) error {
	target, ok := sizing.AddUint64(a.PayloadOrigin(), rel)
	if !ok {
		return fmt.Errorf("%w: offset %d", ErrSizeOverflow, rel)
	}
	if target < a.position {
		return fmt.Errorf("%w: offset %d is behind position %d", ErrRewind, target, a.position)
	}
	delta := target - a.position
	if delta == 0 {
		return nil
	}

	if a.seeker != nil {
		d, err := sizing.ToInt64(delta, ErrSizeOverflow)
		if err != nil {
			return err
		}
		if _, err := a.seeker.Seek(d, io.SeekCurrent); err == nil {
			a.position = target
			return nil
		}
		a.log().Debug("stream is not seekable, discarding instead")
		a.seeker = nil
	}

	for _, err := range a.Read(delta) {
		if err != nil {
			return err
		}
	}
	return nil
}

// Read yields exactly size bytes from the cursor in chunks of at most
// 4096 bytes. A chunk is only valid until the next iteration. A stream
// that ends early yields ErrTruncated.
func (a *Archive) Read(size uint64) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for size > 0 {
			chunk := a.buf[:min(size, readChunkSize)]
			if err := a.readFull(chunk); err != nil {
				yield(nil, err)
				return
			}
			size -= uint64(len(chunk))
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// Walk returns a cursor over the index in depth-first pre-order.
func (a *Archive) Walk() *Walker {
	files, _ := a.root.get("files")
	return newWalker(a, files.(*jsonObject)) //nolint:forcetypeassert // checked by decodeIndex
}

// All yields every node in depth-first pre-order. Iteration stops after
// the first error.
func (a *Archive) All() iter.Seq2[Node, error] {
	return func(yield func(Node, error) bool) {
		w := a.Walk()
		for w.Next() {
			if !yield(w.Node(), nil) {
				return
			}
		}
		if err := w.Err(); err != nil {
			yield(nil, err)
		}
	}
}
