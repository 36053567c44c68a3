package registry

import (
	"fmt"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/meigma/asar/registry/oras"
)

type clientRef struct {
	registry   string
	repository string
	reference  string // tag or digest
}

func parseClientRef(ref string) (clientRef, error) {
	r, err := oras.ParseReference(ref)
	if err != nil {
		return clientRef{}, fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}
	return clientRef{
		registry:   r.Registry,
		repository: r.Repository,
		reference:  r.Reference,
	}, nil
}

// requireTag parses ref and returns its tag, rejecting digest references.
func requireTag(ref string) (string, error) {
	parsed, err := parseClientRef(ref)
	if err != nil {
		return "", err
	}
	if parsed.reference == "" || isDigest(parsed.reference) {
		return "", fmt.Errorf("%w: %q must include a tag", ErrInvalidReference, ref)
	}
	return parsed.reference, nil
}

// isDigest reports whether a reference is a digest rather than a tag.
// Tags cannot contain a colon.
func isDigest(reference string) bool {
	_, err := digest.Parse(reference)
	return err == nil
}

// descriptorFromDigest returns a manifest descriptor of unknown size.
func descriptorFromDigest(dgst string) (ocispec.Descriptor, error) {
	d, err := digest.Parse(dgst)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("%w: invalid digest %q", ErrInvalidReference, dgst)
	}
	return ocispec.Descriptor{Digest: d}, nil
}
