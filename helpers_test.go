package asar

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"iter"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func sha(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func fileEntry(p, content string) PackEntry {
	return PackEntry{Node: NewFile(p, uint64(len(content)), false), Content: strings.NewReader(content)}
}

func execEntry(p, content string) PackEntry {
	return PackEntry{Node: NewFile(p, uint64(len(content)), true), Content: strings.NewReader(content)}
}

func folderEntry(p string) PackEntry { return PackEntry{Node: NewFolder(p)} }

func linkEntry(p, target string) PackEntry { return PackEntry{Node: NewSymlink(p, target)} }

func seq(entries ...PackEntry) iter.Seq2[PackEntry, error] {
	return func(yield func(PackEntry, error) bool) {
		for _, e := range entries {
			if !yield(e, nil) {
				return
			}
		}
	}
}

// pack builds an archive in memory.
func pack(t *testing.T, opts []CreateOption, entries ...PackEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	_, err := CreateFromEntries(context.Background(), seq(entries...), &buf, append([]CreateOption{CreateWithTempDir(t.TempDir())}, opts...)...)
	require.NoError(t, err)
	return buf.Bytes()
}

func openBytes(t *testing.T, data []byte, opts ...Option) *Archive {
	t.Helper()
	a, err := NewReader(bytes.NewReader(data), opts...)
	require.NoError(t, err)
	return a
}

// walkPaths returns every node path and the error that ended the walk.
func walkPaths(a *Archive) ([]string, error) {
	var out []string
	w := a.Walk()
	for w.Next() {
		out = append(out, w.Node().Path())
	}
	return out, w.Err()
}

func writeFile(p string, data []byte) error {
	return os.WriteFile(p, data, 0o644)
}
