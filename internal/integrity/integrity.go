// Package integrity computes and verifies the block and whole-file digests
// recorded for archive files.
package integrity

import (
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/asar/internal/asartype"
)

// Integrity is the digest record stored for each file.
type Integrity = asartype.Integrity

const (
	// Algorithm is the only digest algorithm name the format defines.
	Algorithm = "SHA256"

	// DefaultBlockSize is the block size used when packing without an override.
	DefaultBlockSize = 4 << 20

	// MaxBlockSize bounds the block size, and with it the memory held per block.
	MaxBlockSize = 1 << 25
)

// EmptyDigest is the hex digest of zero bytes of content.
var EmptyDigest = digest.SHA256.FromBytes(nil).Encoded()

// Error describes a digest mismatch.
type Error struct {
	// Block is the zero-based block index, or -1 for the whole-file digest.
	Block    int
	Expected string
	Actual   string
}

func (e *Error) Error() string {
	if e.Block < 0 {
		return fmt.Sprintf("%v: file digest mismatch (expected %s, actual %s)", asartype.ErrIntegrity, e.Expected, e.Actual)
	}
	return fmt.Sprintf("%v: block #%d digest mismatch (expected %s, actual %s)", asartype.ErrIntegrity, e.Block, e.Expected, e.Actual)
}

// Unwrap returns ErrIntegrity.
func (e *Error) Unwrap() error {
	return asartype.ErrIntegrity
}

// Empty returns the record for a zero-length file.
func Empty(blockSize uint32) Integrity {
	return Integrity{
		Algorithm: Algorithm,
		Hash:      EmptyDigest,
		BlockSize: blockSize,
		Blocks:    []string{EmptyDigest},
	}
}

// ValidateBlockSize reports whether n is a usable block size.
func ValidateBlockSize(n uint32) error {
	if n == 0 || n > MaxBlockSize {
		return fmt.Errorf("%w: block size %d outside (0, %d]", asartype.ErrFormat, n, MaxBlockSize)
	}
	return nil
}

// Validate checks that a record read from an index is well formed.
func Validate(in *Integrity) error {
	if in.Algorithm != Algorithm {
		return fmt.Errorf("%w: unsupported integrity algorithm %q", asartype.ErrFormat, in.Algorithm)
	}
	if !isHexDigest(in.Hash) {
		return fmt.Errorf("%w: malformed hash %q", asartype.ErrFormat, in.Hash)
	}
	if err := ValidateBlockSize(in.BlockSize); err != nil {
		return err
	}
	for i, b := range in.Blocks {
		if !isHexDigest(b) {
			return fmt.Errorf("%w: malformed digest for block #%d", asartype.ErrFormat, i)
		}
	}
	return nil
}

// BlockCount returns the number of blocks a file of size bytes is split into.
func BlockCount(size uint64, blockSize uint32) uint64 {
	if size == 0 {
		return 1
	}
	bs := uint64(blockSize)
	return size/bs + min(size%bs, 1)
}

// equal compares hex digests without regard to letter case, so records from
// producers that emit uppercase hex still verify.
func equal(expected, actual string) bool {
	return strings.EqualFold(expected, actual)
}

func isHexDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	for i := range len(s) {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// ChunkSource streams file content as a finite sequence of chunks.
type ChunkSource interface {
	// Read yields exactly size bytes in one or more chunks, or an error.
	Read(size uint64) iter.Seq2[[]byte, error]
}

// Verify streams size bytes from src into dst while checking them against in.
//
// Each block is compared as soon as it completes, so a corrupt block stops
// the copy before later blocks are read. A zero-length file is checked
// against the empty sentinel without touching src.
func Verify(dst io.Writer, src ChunkSource, size uint64, in *Integrity) error {
	if size == 0 {
		if !equal(in.Hash, EmptyDigest) || len(in.Blocks) != 1 || !equal(in.Blocks[0], EmptyDigest) {
			return &Error{Block: -1, Expected: in.Hash, Actual: EmptyDigest}
		}
		return nil
	}
	if err := ValidateBlockSize(in.BlockSize); err != nil {
		return err
	}
	if want := BlockCount(size, in.BlockSize); uint64(len(in.Blocks)) != want {
		return fmt.Errorf("%w: %d block digests recorded for %d blocks", asartype.ErrIntegrity, len(in.Blocks), want)
	}

	whole := digest.SHA256.Digester()
	remaining := size
	for block := 0; remaining > 0; block++ {
		n := min(uint64(in.BlockSize), remaining)

		blockDigester := digest.SHA256.Digester()
		w := io.MultiWriter(dst, blockDigester.Hash(), whole.Hash())
		for chunk, err := range src.Read(n) {
			if err != nil {
				return err
			}
			if _, err := w.Write(chunk); err != nil {
				return err
			}
		}

		actual := blockDigester.Digest().Encoded()
		if !equal(in.Blocks[block], actual) {
			return &Error{Block: block, Expected: in.Blocks[block], Actual: actual}
		}
		remaining -= n
	}

	actual := whole.Digest().Encoded()
	if !equal(in.Hash, actual) {
		return &Error{Block: -1, Expected: in.Hash, Actual: actual}
	}
	return nil
}
