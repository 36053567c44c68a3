package asar

import (
	"github.com/meigma/asar/internal/asartype"
	"github.com/meigma/asar/internal/integrity"
)

// Errors re-exported from asartype.
var (
	// ErrFormat is returned when archive bytes do not follow the archive layout
	// or an index record is malformed.
	ErrFormat = asartype.ErrFormat

	// ErrTruncated is returned when the stream ends before a declared length.
	ErrTruncated = asartype.ErrTruncated

	// ErrPathSafety is returned when an entry name could escape the archive root.
	ErrPathSafety = asartype.ErrPathSafety

	// ErrIntegrity is returned when file content does not match its digests.
	// Mismatches are reported as *IntegrityError.
	ErrIntegrity = asartype.ErrIntegrity

	// ErrRewind is returned when a seek targets a position already consumed.
	ErrRewind = asartype.ErrRewind

	// ErrSizeOverflow is returned when offsets or sizes exceed supported limits.
	ErrSizeOverflow = asartype.ErrSizeOverflow

	// ErrAlreadyExists is returned when an entry or output path is already taken.
	// It matches fs.ErrExist.
	ErrAlreadyExists = asartype.ErrAlreadyExists

	// ErrNotFound is returned when a named file is not in the archive.
	// It matches fs.ErrNotExist.
	ErrNotFound = asartype.ErrNotFound
)

// IntegrityError describes which digest failed to match.
type IntegrityError = integrity.Error
