package registry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/opencontainers/image-spec/specs-go"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"golang.org/x/sync/errgroup"
)

// emptyConfig is the config blob every archive manifest points at.
var emptyConfig = []byte("{}")

// Push uploads the archive file at archivePath to ref, which must carry a
// tag (for example "registry.example.com/app:v1"), and returns the
// manifest descriptor.
//
// The archive is parsed before anything is sent. The config and layer blobs
// are uploaded concurrently, then the manifest is pushed under the ref's
// tag and any WithTags tags.
func (c *Client) Push(ctx context.Context, ref, archivePath string, opts ...PushOption) (ocispec.Descriptor, error) {
	cfg := pushConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	tag, err := requireTag(ref)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	info, err := inspectArchive(archivePath, c.log())
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("push: %w", err)
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("push: %w", err)
	}
	defer f.Close()

	layerDigest, err := digest.SHA256.FromReader(io.NewSectionReader(f, 0, info.size))
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("push: digest %s: %w", archivePath, err)
	}
	layerDesc := ocispec.Descriptor{
		MediaType: MediaTypeArchive,
		Digest:    layerDigest,
		Size:      info.size,
		Annotations: map[string]string{
			ocispec.AnnotationTitle: filepath.Base(archivePath),
		},
	}
	configDesc := ocispec.Descriptor{
		MediaType: ocispec.MediaTypeEmptyJSON,
		Digest:    digest.FromBytes(emptyConfig),
		Size:      int64(len(emptyConfig)),
	}

	c.log().Info("pushing archive",
		"ref", ref,
		"digest", layerDigest.String(),
		"size", info.size,
		"entries", info.entries,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := c.oci.PushBlob(gctx, ref, &configDesc, bytes.NewReader(emptyConfig)); err != nil {
			return fmt.Errorf("push config: %w", mapOCIError(err))
		}
		return nil
	})
	g.Go(func() error {
		if err := c.oci.PushBlob(gctx, ref, &layerDesc, io.NewSectionReader(f, 0, info.size)); err != nil {
			return fmt.Errorf("push archive layer: %w", mapOCIError(err))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return ocispec.Descriptor{}, err
	}

	manifest := buildManifest(&configDesc, &layerDesc, cfg.annotations)
	manifestDesc, err := c.oci.PushManifest(ctx, ref, tag, &manifest)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("push manifest: %w", mapOCIError(err))
	}

	for _, extra := range cfg.tags {
		if err := c.oci.Tag(ctx, ref, &manifestDesc, extra); err != nil {
			return ocispec.Descriptor{}, fmt.Errorf("tag %q: %w", extra, mapOCIError(err))
		}
	}

	c.log().Debug("pushed manifest", "digest", manifestDesc.Digest.String(), "tags", len(cfg.tags)+1)
	return manifestDesc, nil
}

func buildManifest(configDesc, layerDesc *ocispec.Descriptor, custom map[string]string) ocispec.Manifest {
	annotations := maps.Clone(custom)
	if annotations == nil {
		annotations = make(map[string]string, 1)
	}
	if _, ok := annotations[ocispec.AnnotationCreated]; !ok {
		annotations[ocispec.AnnotationCreated] = time.Now().UTC().Format(time.RFC3339)
	}

	return ocispec.Manifest{
		Versioned:    specs.Versioned{SchemaVersion: 2},
		MediaType:    ocispec.MediaTypeImageManifest,
		ArtifactType: ArtifactType,
		Config:       *configDesc,
		Layers:       []ocispec.Descriptor{*layerDesc},
		Annotations:  annotations,
	}
}
