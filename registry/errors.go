package registry

import "errors"

// Sentinel errors for client operations.
var (
	// ErrNotFound is returned when no archive exists at the reference.
	ErrNotFound = errors.New("registry: not found")

	// ErrInvalidReference is returned when a reference string is malformed
	// or lacks a required tag.
	ErrInvalidReference = errors.New("registry: invalid reference")

	// ErrInvalidManifest is returned when a manifest does not describe an
	// archive artifact.
	ErrInvalidManifest = errors.New("registry: invalid archive manifest")

	// ErrDigestMismatch is returned when downloaded content does not match
	// its descriptor.
	ErrDigestMismatch = errors.New("registry: digest mismatch")

	// ErrTooLarge is returned when a layer exceeds the configured limit.
	ErrTooLarge = errors.New("registry: layer too large")
)
