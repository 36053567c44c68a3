package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/require"

	"github.com/meigma/asar"
	"github.com/meigma/asar/registry/oras"
)

const testRef = "registry.example.com/app:v1"

// memOCI is an in-memory OCIClient. Tags are global rather than per
// repository, which is enough for a single-repository test.
type memOCI struct {
	mu        sync.Mutex
	blobs     map[digest.Digest][]byte
	manifests map[digest.Digest][]byte
	tags      map[string]digest.Digest

	pushBlobErr func(desc *ocispec.Descriptor) error
	fetchBlob   func(data []byte) []byte
	pushed      []string
}

func newMemOCI() *memOCI {
	return &memOCI{
		blobs:     make(map[digest.Digest][]byte),
		manifests: make(map[digest.Digest][]byte),
		tags:      make(map[string]digest.Digest),
	}
}

func (m *memOCI) PushBlob(_ context.Context, _ string, desc *ocispec.Descriptor, r io.Reader) error {
	if m.pushBlobErr != nil {
		if err := m.pushBlobErr(desc); err != nil {
			return err
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(data)) != desc.Size || digest.FromBytes(data) != desc.Digest {
		return fmt.Errorf("blob does not match descriptor %s", desc.Digest)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[desc.Digest] = data
	m.pushed = append(m.pushed, desc.MediaType)
	return nil
}

func (m *memOCI) FetchBlob(_ context.Context, _ string, desc *ocispec.Descriptor) (io.ReadCloser, error) {
	m.mu.Lock()
	data, ok := m.blobs[desc.Digest]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", desc.Digest, oras.ErrNotFound)
	}
	if m.fetchBlob != nil {
		data = m.fetchBlob(bytes.Clone(data))
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memOCI) PushManifest(_ context.Context, _, tag string, manifest *ocispec.Manifest) (ocispec.Descriptor, error) {
	raw, err := json.Marshal(manifest)
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	desc := ocispec.Descriptor{
		MediaType: ocispec.MediaTypeImageManifest,
		Digest:    digest.FromBytes(raw),
		Size:      int64(len(raw)),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manifests[desc.Digest] = raw
	m.tags[tag] = desc.Digest
	return desc, nil
}

func (m *memOCI) FetchManifest(_ context.Context, _ string, expected *ocispec.Descriptor) (ocispec.Manifest, []byte, error) {
	m.mu.Lock()
	raw, ok := m.manifests[expected.Digest]
	m.mu.Unlock()
	if !ok {
		return ocispec.Manifest{}, nil, fmt.Errorf("manifest %s: %w", expected.Digest, oras.ErrNotFound)
	}
	var manifest ocispec.Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return ocispec.Manifest{}, nil, err
	}
	return manifest, raw, nil
}

func (m *memOCI) Resolve(_ context.Context, _, ref string) (ocispec.Descriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, err := digest.Parse(ref)
	if err != nil {
		var ok bool
		if d, ok = m.tags[ref]; !ok {
			return ocispec.Descriptor{}, fmt.Errorf("tag %s: %w", ref, oras.ErrNotFound)
		}
	}
	raw, ok := m.manifests[d]
	if !ok {
		return ocispec.Descriptor{}, fmt.Errorf("manifest %s: %w", d, oras.ErrNotFound)
	}
	return ocispec.Descriptor{MediaType: ocispec.MediaTypeImageManifest, Digest: d, Size: int64(len(raw))}, nil
}

func (m *memOCI) Tag(_ context.Context, _ string, desc *ocispec.Descriptor, tag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.manifests[desc.Digest]; !ok {
		return fmt.Errorf("manifest %s: %w", desc.Digest, oras.ErrNotFound)
	}
	m.tags[tag] = desc.Digest
	return nil
}

// putManifest stores an arbitrary manifest under tag.
func (m *memOCI) putManifest(t *testing.T, tag string, manifest *ocispec.Manifest) digest.Digest {
	t.Helper()
	desc, err := m.PushManifest(context.Background(), testRef, tag, manifest)
	require.NoError(t, err)
	return desc.Digest
}

// putBlob stores data and returns its layer descriptor.
func (m *memOCI) putBlob(data []byte) ocispec.Descriptor {
	desc := ocispec.Descriptor{MediaType: MediaTypeArchive, Digest: digest.FromBytes(data), Size: int64(len(data))}
	m.mu.Lock()
	m.blobs[desc.Digest] = data
	m.mu.Unlock()
	return desc
}

// writeArchive packs a small tree and returns the archive path.
func writeArchive(t *testing.T) string {
	t.Helper()
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "index.js"), []byte("console.log('hi')\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "lib", "util.js"), bytes.Repeat([]byte("x"), 5000), 0o644))

	path := filepath.Join(t.TempDir(), "app.asar")
	_, err := asar.CreateFile(context.Background(), src, path, asar.CreateWithTempDir(t.TempDir()))
	require.NoError(t, err)
	return path
}

// archiveManifest returns a well-formed manifest around layer.
func archiveManifest(layer ocispec.Descriptor) ocispec.Manifest {
	config := ocispec.Descriptor{
		MediaType: ocispec.MediaTypeEmptyJSON,
		Digest:    digest.FromBytes(emptyConfig),
		Size:      int64(len(emptyConfig)),
	}
	return buildManifest(&config, &layer, nil)
}

// dirNames lists the entries of dir.
func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
