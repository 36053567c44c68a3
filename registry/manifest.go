package registry

import (
	"fmt"
	"time"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// ArchiveManifest is an OCI manifest known to describe an archive artifact.
type ArchiveManifest struct {
	raw     ocispec.Manifest
	digest  string
	layer   ocispec.Descriptor
	created time.Time
}

// Layer returns the descriptor of the archive layer.
func (m *ArchiveManifest) Layer() ocispec.Descriptor {
	return m.layer
}

// Digest returns the manifest digest.
func (m *ArchiveManifest) Digest() string {
	return m.digest
}

// Size returns the archive size in bytes.
func (m *ArchiveManifest) Size() int64 {
	return m.layer.Size
}

// Title returns the archive file name recorded at push time, if any.
func (m *ArchiveManifest) Title() string {
	return m.layer.Annotations[ocispec.AnnotationTitle]
}

// Annotations returns the manifest annotations.
func (m *ArchiveManifest) Annotations() map[string]string {
	return m.raw.Annotations
}

// Created returns the creation time, or the zero time when the annotation
// is absent or unparsable.
func (m *ArchiveManifest) Created() time.Time {
	return m.created
}

// Raw returns the underlying OCI manifest.
func (m *ArchiveManifest) Raw() ocispec.Manifest {
	return m.raw
}

func parseArchiveManifest(manifest *ocispec.Manifest, digest string) (*ArchiveManifest, error) {
	if manifest.MediaType != ocispec.MediaTypeImageManifest {
		return nil, fmt.Errorf("%w: unexpected manifest media type %q", ErrInvalidManifest, manifest.MediaType)
	}
	if manifest.ArtifactType != ArtifactType {
		return nil, fmt.Errorf("%w: unexpected artifact type %q", ErrInvalidManifest, manifest.ArtifactType)
	}
	if len(manifest.Layers) != 1 {
		return nil, fmt.Errorf("%w: expected 1 layer, got %d", ErrInvalidManifest, len(manifest.Layers))
	}
	layer := manifest.Layers[0]
	if layer.MediaType != MediaTypeArchive {
		return nil, fmt.Errorf("%w: unexpected layer media type %q", ErrInvalidManifest, layer.MediaType)
	}
	if err := layer.Digest.Validate(); err != nil {
		return nil, fmt.Errorf("%w: layer digest %q: %v", ErrInvalidManifest, layer.Digest, err)
	}
	if layer.Size < 0 {
		return nil, fmt.Errorf("%w: negative layer size %d", ErrInvalidManifest, layer.Size)
	}

	var created time.Time
	if ts, ok := manifest.Annotations[ocispec.AnnotationCreated]; ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			created = t
		}
	}

	return &ArchiveManifest{
		raw:     *manifest,
		digest:  digest,
		layer:   layer,
		created: created,
	}, nil
}
