package integrity

import (
	"errors"
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/asar/internal/asartype"
)

// copyBufferSize is the chunk size used when streaming content into a payload.
const copyBufferSize = 32 * 1024

// Hasher accumulates block and whole-file digests over written bytes.
//
// The block digester is reset every blockSize bytes, so writes may straddle
// block boundaries freely.
type Hasher struct {
	blockSize uint32
	inBlock   uint32
	written   uint64
	block     digest.Digester
	whole     digest.Digester
	blocks    []string
}

// NewHasher returns a Hasher that records one digest per blockSize bytes.
func NewHasher(blockSize uint32) (*Hasher, error) {
	if err := ValidateBlockSize(blockSize); err != nil {
		return nil, err
	}
	return &Hasher{
		blockSize: blockSize,
		block:     digest.SHA256.Digester(),
		whole:     digest.SHA256.Digester(),
	}, nil
}

// Write implements io.Writer.
func (h *Hasher) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		take := len(p)
		if room := h.blockSize - h.inBlock; uint64(take) > uint64(room) {
			take = int(room)
		}
		_, _ = h.block.Hash().Write(p[:take]) //nolint:errcheck // hash writes never fail
		_, _ = h.whole.Hash().Write(p[:take]) //nolint:errcheck // hash writes never fail
		h.inBlock += uint32(take)             //nolint:gosec // take <= room
		h.written += uint64(take)
		p = p[take:]
		if h.inBlock == h.blockSize {
			h.finishBlock()
		}
	}
	return n, nil
}

func (h *Hasher) finishBlock() {
	h.blocks = append(h.blocks, h.block.Digest().Encoded())
	h.block = digest.SHA256.Digester()
	h.inBlock = 0
}

// Sum closes any partial block and returns the record for the bytes written.
// A Hasher that saw no bytes returns the empty-file sentinel.
func (h *Hasher) Sum() Integrity {
	if h.written == 0 {
		return Empty(h.blockSize)
	}
	if h.inBlock > 0 {
		h.finishBlock()
	}
	return Integrity{
		Algorithm: Algorithm,
		Hash:      h.whole.Digest().Encoded(),
		BlockSize: h.blockSize,
		Blocks:    h.blocks,
	}
}

// Copy streams exactly size bytes from src to dst and returns their record.
//
// Memory use is bounded by the copy buffer regardless of size. A source that
// ends early yields ErrTruncated. When size is zero, src is not read.
func Copy(dst io.Writer, src io.Reader, size uint64, blockSize uint32) (Integrity, error) {
	h, err := NewHasher(blockSize)
	if err != nil {
		return Integrity{}, err
	}
	if size == 0 {
		return h.Sum(), nil
	}
	if src == nil {
		return Integrity{}, fmt.Errorf("%w: no content for %d-byte file", asartype.ErrTruncated, size)
	}

	buf := make([]byte, copyBufferSize)
	var copied uint64
	for copied < size {
		want := min(uint64(len(buf)), size-copied)
		n, readErr := io.ReadFull(src, buf[:want])
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return Integrity{}, err
			}
			_, _ = h.Write(buf[:n]) //nolint:errcheck // Hasher never fails
			copied += uint64(n)
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
				return Integrity{}, fmt.Errorf("%w: premature end of file after %d of %d bytes", asartype.ErrTruncated, copied, size)
			}
			return Integrity{}, readErr
		}
	}
	return h.Sum(), nil
}
