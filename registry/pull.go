package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/meigma/asar"
)

// Pull downloads the archive at ref into destPath and returns its manifest.
//
// The layer is streamed to a temporary file beside destPath while its digest
// is checked, the archive header is parsed, and only then is the file
// renamed into place. Nothing is left behind on failure.
func (c *Client) Pull(ctx context.Context, ref, destPath string, opts ...PullOption) (*ArchiveManifest, error) {
	cfg := pullConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if !cfg.overwrite {
		if _, err := os.Lstat(destPath); err == nil {
			return nil, &fs.PathError{Op: "pull", Path: destPath, Err: asar.ErrAlreadyExists}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	c.log().Info("pulling archive", "ref", ref)
	manifest, err := c.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	layer := manifest.Layer()
	if cfg.maxSize > 0 && layer.Size > cfg.maxSize {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, layer.Size, cfg.maxSize)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".asar-pull-*")
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()
	keep := false
	defer func() {
		if !keep {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := c.download(ctx, ref, manifest, tmp); err != nil {
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	info, err := inspectArchive(tmpPath, c.log())
	if err != nil {
		return nil, fmt.Errorf("pull %s: %w", ref, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return nil, err
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return nil, err
	}
	keep = true

	c.log().Info("pulled archive",
		"ref", ref,
		"digest", manifest.Digest(),
		"size", info.size,
		"entries", info.entries,
		"path", destPath,
	)
	return manifest, nil
}

// download copies the archive layer into w, checking its size and digest.
func (c *Client) download(ctx context.Context, ref string, manifest *ArchiveManifest, w io.Writer) error {
	layer := manifest.Layer()
	rc, err := c.oci.FetchBlob(ctx, ref, &layer)
	if err != nil {
		return fmt.Errorf("fetch archive layer: %w", mapOCIError(err))
	}
	defer rc.Close()

	verifier := layer.Digest.Verifier()
	n, err := io.Copy(io.MultiWriter(w, verifier), io.LimitReader(rc, layer.Size+1))
	if err != nil {
		return fmt.Errorf("fetch archive layer: %w", mapOCIError(err))
	}
	if n != layer.Size {
		return fmt.Errorf("%w: layer is %d bytes, manifest says %d", ErrDigestMismatch, n, layer.Size)
	}
	if !verifier.Verified() {
		c.log().Warn("layer digest verification failed", "ref", ref, "expected", layer.Digest.String())
		return fmt.Errorf("%w: layer does not match %s", ErrDigestMismatch, layer.Digest)
	}
	return nil
}
