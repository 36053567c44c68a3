package asar

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "file", KindFile.String())
	assert.Equal(t, "folder", KindFolder.String())
	assert.Equal(t, "symlink", KindSymlink.String())
	assert.Equal(t, "Kind(7)", Kind(7).String())
}

func TestNodeAccessors(t *testing.T) {
	t.Parallel()

	f := NewFile("a/b", 3, true)
	assert.Equal(t, "a/b", f.Path())
	assert.Equal(t, KindFile, f.Kind())
	assert.Equal(t, uint64(3), f.Size)
	assert.True(t, f.Executable)

	d := NewFolder("a")
	assert.Equal(t, KindFolder, d.Kind())

	l := NewSymlink("a/l", "../x")
	assert.Equal(t, KindSymlink, l.Kind())
	assert.Equal(t, "../x", l.Link)
}

func TestVisitorDispatch(t *testing.T) {
	t.Parallel()

	var visited []string
	v := VisitorFuncs{
		File:    func(f *File) error { visited = append(visited, "file:"+f.Path()); return nil },
		Folder:  func(d *Folder) error { visited = append(visited, "folder:"+d.Path()); return nil },
		Symlink: func(l *Symlink) error { visited = append(visited, "symlink:"+l.Path()); return nil },
	}
	for _, n := range []Node{NewFolder("d"), NewFile("d/f", 0, false), NewSymlink("l", "d")} {
		require.NoError(t, n.Accept(v))
	}
	assert.Equal(t, []string{"folder:d", "file:d/f", "symlink:l"}, visited)
}

func TestVisitorFuncsSkipsNil(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	v := VisitorFuncs{File: func(*File) error { return boom }}
	require.NoError(t, NewFolder("d").Accept(v))
	require.NoError(t, NewSymlink("l", "x").Accept(v))
	require.ErrorIs(t, NewFile("f", 0, false).Accept(v), boom)
}
