package registry

import "context"

// Tag points the tag in ref at the existing manifest dgst.
func (c *Client) Tag(ctx context.Context, ref, dgst string) error {
	tag, err := requireTag(ref)
	if err != nil {
		return err
	}
	if _, err := descriptorFromDigest(dgst); err != nil {
		return err
	}

	// Resolving fills in the media type ORAS needs to re-tag.
	desc, err := c.oci.Resolve(ctx, ref, dgst)
	if err != nil {
		return mapOCIError(err)
	}
	return mapOCIError(c.oci.Tag(ctx, ref, &desc, tag))
}
