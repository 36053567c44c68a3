package asar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/asar/internal/testutil"
)

func TestExtractAllCreatesDest(t *testing.T) {
	t.Parallel()

	a := openBytes(t, pack(t, nil, folderEntry("d"), fileEntry("d/f", "hi")))
	dest := filepath.Join(t.TempDir(), "a", "b")

	var events []ProgressEvent
	stats, err := ExtractAll(context.Background(), a, dest, ExtractWithProgress(func(e ProgressEvent) {
		events = append(events, e)
	}))
	require.NoError(t, err)
	assert.Equal(t, Stats{Files: 1, Folders: 1, Bytes: 2}, stats)

	got, err := os.ReadFile(filepath.Join(dest, "d", "f"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(got))

	require.Len(t, events, 2)
	assert.Equal(t, StageExtracting, events[0].Stage)
	assert.Equal(t, "d", events[0].Path)
	assert.Equal(t, "d/f", events[1].Path)
	assert.Equal(t, uint64(2), events[1].BytesDone)
}

func TestExtractAllReusesFolders(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	testutil.WriteTree(t, dest, map[string]string{"d/": ""})

	_, err := ExtractAll(context.Background(), openBytes(t, pack(t, nil, folderEntry("d"), fileEntry("d/f", "x"))), dest)
	require.NoError(t, err)
}

func TestExtractAllRefusesExisting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries []PackEntry
		tree    map[string]string
	}{
		{"file", []PackEntry{fileEntry("f", "new")}, map[string]string{"f": "old"}},
		{"symlink", []PackEntry{linkEntry("f", "target")}, map[string]string{"f": "old"}},
		{"folder over file", []PackEntry{folderEntry("f")}, map[string]string{"f": "old"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dest := t.TempDir()
			testutil.WriteTree(t, dest, tt.tree)

			_, err := ExtractAll(context.Background(), openBytes(t, pack(t, nil, tt.entries...)), dest)
			require.ErrorIs(t, err, ErrAlreadyExists)

			got, err := os.ReadFile(filepath.Join(dest, "f"))
			require.NoError(t, err)
			assert.Equal(t, "old", string(got))
		})
	}
}

func TestExtractAllRemovesCorruptFile(t *testing.T) {
	t.Parallel()

	data := pack(t, []CreateOption{CreateWithBlockSize(4)}, fileEntry("ok", "fine"), fileEntry("bad", "abcdefgh"))
	origin := openBytes(t, data).PayloadOrigin()
	data[origin+4+5] ^= 0xff

	dest := t.TempDir()
	stats, err := ExtractAll(context.Background(), openBytes(t, data), dest)
	require.ErrorIs(t, err, ErrIntegrity)
	assert.Equal(t, 1, stats.Files)

	_, err = os.Stat(filepath.Join(dest, "bad"))
	require.ErrorIs(t, err, fs.ErrNotExist)
	got, err := os.ReadFile(filepath.Join(dest, "ok"))
	require.NoError(t, err)
	assert.Equal(t, "fine", string(got))
}

func TestExtractAllCannotWriteThroughSymlink(t *testing.T) {
	t.Parallel()

	outside := t.TempDir()
	dest := t.TempDir()

	first := openBytes(t, pack(t, nil, linkEntry("escape", outside)))
	_, err := ExtractAll(context.Background(), first, dest)
	require.NoError(t, err)
	target, err := os.Readlink(filepath.Join(dest, "escape"))
	require.NoError(t, err)
	assert.Equal(t, outside, target)

	// A second archive that treats the link as a folder must not reach
	// the link's target.
	index := fmt.Sprintf(`{"files":{"escape":{"files":{"pwned":{"size":1,"offset":"0",`+
		`"integrity":{"algorithm":"SHA256","hash":"%[1]s","blockSize":4,"blocks":["%[1]s"]}}}}}}`, sha("x"))
	second := openBytes(t, testutil.BuildArchive(t, index, []byte("x")))
	_, err = ExtractAll(context.Background(), second, dest)
	require.Error(t, err)

	left, err := os.ReadDir(outside)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestExtractAllStopsOnUnsafeName(t *testing.T) {
	t.Parallel()

	index := fmt.Sprintf(`{"files":{"a":{"size":1,"offset":"0","integrity":{"algorithm":"SHA256","hash":"%[1]s","blockSize":4,"blocks":["%[1]s"]}},"..b":{"link":"x"}}}`, sha("x"))
	dest := t.TempDir()
	stats, err := ExtractAll(context.Background(), openBytes(t, testutil.BuildArchive(t, index, []byte("x"))), dest)
	require.ErrorIs(t, err, ErrPathSafety)
	assert.Equal(t, 1, stats.Files)
}

func TestExtractAllCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ExtractAll(ctx, openBytes(t, pack(t, nil, fileEntry("f", "x"))), t.TempDir())
	require.ErrorIs(t, err, context.Canceled)
}

func TestExtractFile(t *testing.T) {
	t.Parallel()

	data := pack(t, nil,
		folderEntry("dir"),
		fileEntry("dir/a.txt", "A"),
		linkEntry("link", "dir/a.txt"),
		fileEntry("b.txt", "B"),
	)

	tests := []struct {
		name    string
		want    string
		wantErr error
	}{
		{"dir/a.txt", "A", nil},
		{"./dir/a.txt", "A", nil},
		{"/b.txt", "B", nil},
		{"b.txt", "B", nil},
		{"dir", "", ErrNotFound},
		{"link", "", ErrNotFound},
		{"missing", "", fs.ErrNotExist},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			err := ExtractFile(openBytes(t, data), tt.name, &out)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestExtractFileCannotRewind(t *testing.T) {
	t.Parallel()

	a := openBytes(t, pack(t, nil, fileEntry("first", "1"), fileEntry("second", "2")))
	require.NoError(t, ExtractFile(a, "second", io.Discard))

	err := ExtractFile(a, "first", io.Discard)
	require.ErrorIs(t, err, ErrRewind)
}

func TestExtractFileBlockCountMismatch(t *testing.T) {
	t.Parallel()

	index := fmt.Sprintf(`{"files":{"f":{"size":2,"offset":"0",`+
		`"integrity":{"algorithm":"SHA256","hash":"%[1]s","blockSize":4,"blocks":["%[1]s","%[1]s","%[1]s"]}}}}`, sha("hi"))
	var out bytes.Buffer
	err := ExtractFile(openBytes(t, testutil.BuildArchive(t, index, []byte("hi"))), "f", &out)
	require.ErrorIs(t, err, ErrIntegrity)
	assert.Zero(t, out.Len())
}

func TestFileExtractDetached(t *testing.T) {
	t.Parallel()

	err := NewFile("x", 1, false).Extract(io.Discard)
	require.ErrorIs(t, err, errDetached)
}
