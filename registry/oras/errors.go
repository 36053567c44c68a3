package oras

import (
	"errors"
	"fmt"
	"net/http"

	"oras.land/oras-go/v2/errdef"
	"oras.land/oras-go/v2/registry/remote/errcode"
)

// Errors returned by Client. Failures reported by the registry wrap one of
// these in a *StatusError.
var (
	// ErrNotFound means the repository, tag, manifest or blob is absent.
	ErrNotFound = errors.New("oras: not found")

	// ErrUnauthorized means the registry rejected or asked for credentials.
	ErrUnauthorized = errors.New("oras: unauthorized")

	// ErrForbidden means the credentials lack access to the repository.
	ErrForbidden = errors.New("oras: forbidden")

	ErrInvalidReference  = errors.New("oras: invalid reference")
	ErrInvalidDescriptor = errors.New("oras: invalid descriptor")

	// ErrManifestInvalid covers manifests of the wrong media type, over the
	// size limit, or whose bytes do not match the requested digest.
	ErrManifestInvalid = errors.New("oras: invalid manifest")
)

var statusErrors = map[int]error{
	http.StatusNotFound:     ErrNotFound,
	http.StatusUnauthorized: ErrUnauthorized,
	http.StatusForbidden:    ErrForbidden,
}

// StatusError is a registry response mapped to one of the sentinels.
type StatusError struct {
	// StatusCode is the HTTP status, or 0 when ORAS reported the failure
	// without a response.
	StatusCode int
	kind       error
	err        error
}

func (e *StatusError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%v: %v", e.kind, e.err)
	}
	return fmt.Sprintf("%v (HTTP %d): %v", e.kind, e.StatusCode, e.err)
}

// Unwrap exposes both the sentinel and the underlying ORAS error.
func (e *StatusError) Unwrap() []error { return []error{e.kind, e.err} }

// mapError wraps ORAS failures with a known meaning in a *StatusError and
// returns anything else unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var resp *errcode.ErrorResponse
	if errors.As(err, &resp) {
		if kind, ok := statusErrors[resp.StatusCode]; ok {
			return &StatusError{StatusCode: resp.StatusCode, kind: kind, err: err}
		}
	}
	if errors.Is(err, errdef.ErrNotFound) {
		return &StatusError{kind: ErrNotFound, err: err}
	}
	return err
}
