// Package platform isolates filesystem behavior that differs between
// operating systems.
package platform

import (
	"errors"
	"io/fs"
	"os"
)

var (
	// ErrSymlink is returned by OpenSource when name is a symbolic link.
	ErrSymlink = errors.New("is a symbolic link")
	// ErrNotRegular is returned by OpenSource when name is not a regular file.
	ErrNotRegular = errors.New("not a regular file")
)

// ownerExec is the owner execute permission bit.
const ownerExec = 0o100

// IsExecutable reports whether the owner execute bit is set.
func IsExecutable(mode fs.FileMode) bool {
	return mode.Perm()&ownerExec != 0
}

// FileMode returns the permissions used when restoring a file.
func FileMode(executable bool) fs.FileMode {
	if executable {
		return 0o755
	}
	return 0o644
}

// OpenSource opens a regular file under root for packing without following
// a final symlink, and returns it with its metadata.
//
// os.Root resolves symlinks that stay inside the root, so name is checked
// with Lstat first and the opened file must be the same file Lstat saw.
// An entry replaced by a symlink between the two returns ErrSymlink.
func OpenSource(root *os.Root, name string) (*os.File, fs.FileInfo, error) {
	linfo, err := root.Lstat(name)
	if err != nil {
		return nil, nil, err
	}
	if linfo.Mode()&fs.ModeSymlink != 0 {
		return nil, nil, ErrSymlink
	}
	if !linfo.Mode().IsRegular() {
		return nil, nil, ErrNotRegular
	}

	f, err := root.OpenFile(name, openFlags, 0)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if !os.SameFile(linfo, info) {
		f.Close()
		return nil, nil, ErrSymlink
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, ErrNotRegular
	}
	return f, info, nil
}
