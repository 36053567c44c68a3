package asartype

import (
	"errors"
	"io/fs"
)

// Sentinel errors for archive operations.
var (
	// ErrFormat is returned when archive bytes do not follow the archive layout.
	ErrFormat = errors.New("asar: invalid format")

	// ErrTruncated is returned when data ends before a declared length is satisfied.
	ErrTruncated = errors.New("asar: truncated data")

	// ErrPathSafety is returned when an entry name could escape the archive root.
	ErrPathSafety = errors.New("asar: unsafe path")

	// ErrIntegrity is returned when content does not match its recorded digest.
	ErrIntegrity = errors.New("asar: integrity check failed")

	// ErrRewind is returned when a seek targets a position behind the stream cursor.
	ErrRewind = errors.New("asar: cannot rewind stream")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("asar: size overflow")
)

// ErrAlreadyExists is returned when an entry name is already taken.
// It matches fs.ErrExist.
var ErrAlreadyExists error = &kindError{msg: "asar: already exists", target: fs.ErrExist}

// ErrNotFound is returned when a named entry is not in the archive.
// It matches fs.ErrNotExist.
var ErrNotFound error = &kindError{msg: "asar: not found", target: fs.ErrNotExist}

type kindError struct {
	msg    string
	target error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool { return target == e.target }
