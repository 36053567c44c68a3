package registry

import (
	"context"
	"fmt"
)

// Fetch retrieves and validates the manifest at ref without downloading
// the archive.
func (c *Client) Fetch(ctx context.Context, ref string) (*ArchiveManifest, error) {
	parsed, err := parseClientRef(ref)
	if err != nil {
		return nil, err
	}
	if parsed.reference == "" {
		return nil, fmt.Errorf("%w: %q must include a tag or digest", ErrInvalidReference, ref)
	}

	dgst, err := c.resolveDigest(ctx, ref, parsed.reference)
	if err != nil {
		return nil, err
	}

	desc, err := descriptorFromDigest(dgst)
	if err != nil {
		return nil, err
	}
	raw, _, err := c.oci.FetchManifest(ctx, ref, &desc)
	if err != nil {
		return nil, mapOCIError(err)
	}
	return parseArchiveManifest(&raw, dgst)
}

func (c *Client) resolveDigest(ctx context.Context, ref, reference string) (string, error) {
	if isDigest(reference) {
		c.log().Debug("resolving reference", "ref", ref, "type", "digest")
		return reference, nil
	}
	c.log().Debug("resolving reference", "ref", ref, "type", "tag")

	desc, err := c.oci.Resolve(ctx, ref, reference)
	if err != nil {
		return "", mapOCIError(err)
	}
	return desc.Digest.String(), nil
}
