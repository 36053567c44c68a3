// Package testutil holds helpers shared by tests across packages.
package testutil

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/meigma/asar/internal/pickle"
)

// OneByteReader hides any Seek method on r and returns one byte per Read,
// exercising the slowest stream path.
type OneByteReader struct {
	R     io.Reader
	Reads int
}

// Read implements io.Reader.
func (o *OneByteReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	o.Reads++
	return o.R.Read(p[:1])
}

// WriteTree creates files under dir. Keys ending in "/" create directories;
// the value of a file key is its content.
func WriteTree(t testing.TB, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if name[len(name)-1] == '/' {
			if err := os.MkdirAll(p, 0o755); err != nil {
				t.Fatalf("mkdir %s: %v", name, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir parent of %s: %v", name, err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

// Symlink creates a symlink at dir/name pointing to target, skipping the
// test where symlinks are unavailable.
func Symlink(t testing.TB, dir, name, target string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	if err := os.Symlink(target, filepath.Join(dir, filepath.FromSlash(name))); err != nil {
		t.Fatalf("symlink %s: %v", name, err)
	}
}

// Chmod sets the permission bits of dir/name.
func Chmod(t testing.TB, dir, name string, mode os.FileMode) {
	t.Helper()
	if err := os.Chmod(filepath.Join(dir, filepath.FromSlash(name)), mode); err != nil {
		t.Fatalf("chmod %s: %v", name, err)
	}
}

// BuildArchive frames headerJSON the way archives store it and appends
// payload, without validating the JSON.
func BuildArchive(t testing.TB, headerJSON string, payload []byte) []byte {
	t.Helper()
	header := pickle.New()
	if err := header.WriteString(headerJSON); err != nil {
		t.Fatalf("write header: %v", err)
	}
	headerBytes := header.Bytes()
	size := pickle.New()
	if err := size.WriteUint32(uint32(len(headerBytes))); err != nil { //nolint:gosec // test input
		t.Fatalf("write size: %v", err)
	}
	out := append([]byte(nil), size.Bytes()...)
	out = append(out, headerBytes...)
	return append(out, payload...)
}
