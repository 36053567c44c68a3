package asar

import (
	"errors"
	"fmt"
	"io"

	"github.com/meigma/asar/internal/asartype"
	"github.com/meigma/asar/internal/integrity"
)

// Integrity is the digest record stored with every file.
type Integrity = asartype.Integrity

// Kind discriminates the three entry types an archive can hold.
type Kind uint8

const (
	KindFile Kind = iota
	KindFolder
	KindSymlink
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindFolder:
		return "folder"
	case KindSymlink:
		return "symlink"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Node is one entry of an archive index.
//
// The set of implementations is closed: *File, *Folder and *Symlink. Code
// that needs to act per kind implements [Visitor] and calls Accept.
type Node interface {
	// Path returns the slash-separated path relative to the archive root.
	Path() string
	Kind() Kind
	Accept(v Visitor) error

	node()
}

// Visitor receives a node of each kind.
type Visitor interface {
	VisitFile(f *File) error
	VisitFolder(d *Folder) error
	VisitSymlink(l *Symlink) error
}

// File is a regular file entry.
type File struct {
	path string

	// Size is the content length in bytes.
	Size uint64
	// Offset is the content position relative to the payload origin.
	Offset     uint64
	Executable bool
	Integrity  Integrity

	// archive is borrowed from the traversal that produced the node.
	archive *Archive
}

// NewFile returns a file node for packing. Offset and Integrity are
// filled in when the content is written.
func NewFile(path string, size uint64, executable bool) *File {
	return &File{path: path, Size: size, Executable: executable}
}

func (f *File) Path() string { return f.path }
func (f *File) Kind() Kind   { return KindFile }
func (*File) node()          {}

// Accept calls v.VisitFile.
func (f *File) Accept(v Visitor) error { return v.VisitFile(f) }

// Extract streams the file's content into w, verifying every block as it
// completes.
//
// The archive stream must not have moved past Offset. Content written to w
// before a digest mismatch is not retracted; callers that need all or
// nothing should write to a temporary destination.
func (f *File) Extract(w io.Writer) error {
	if f.archive == nil {
		return fmt.Errorf("extract %s: %w", f.path, errDetached)
	}
	if f.Size > 0 {
		if err := f.archive.Seek(f.Offset); err != nil {
			return fmt.Errorf("extract %s: %w", f.path, err)
		}
	}
	if err := integrity.Verify(w, f.archive, f.Size, &f.Integrity); err != nil {
		return fmt.Errorf("extract %s: %w", f.path, err)
	}
	f.archive.log().Debug("extracted file", "path", f.path, "size", f.Size)
	return nil
}

var errDetached = errors.New("file is not attached to an archive")

// Folder is a directory entry.
type Folder struct {
	path string
}

// NewFolder returns a folder node for packing.
func NewFolder(path string) *Folder {
	return &Folder{path: path}
}

func (d *Folder) Path() string { return d.path }
func (d *Folder) Kind() Kind   { return KindFolder }
func (*Folder) node()          {}

// Accept calls v.VisitFolder.
func (d *Folder) Accept(v Visitor) error { return v.VisitFolder(d) }

// Symlink is a symbolic link entry. Link is stored and restored verbatim.
type Symlink struct {
	path string
	Link string
}

// NewSymlink returns a symlink node for packing.
func NewSymlink(path, link string) *Symlink {
	return &Symlink{path: path, Link: link}
}

func (l *Symlink) Path() string { return l.path }
func (l *Symlink) Kind() Kind   { return KindSymlink }
func (*Symlink) node()          {}

// Accept calls v.VisitSymlink.
func (l *Symlink) Accept(v Visitor) error { return v.VisitSymlink(l) }

// VisitorFuncs adapts plain functions to a Visitor. A nil field skips
// nodes of that kind.
type VisitorFuncs struct {
	File    func(*File) error
	Folder  func(*Folder) error
	Symlink func(*Symlink) error
}

func (v VisitorFuncs) VisitFile(f *File) error {
	if v.File == nil {
		return nil
	}
	return v.File(f)
}

func (v VisitorFuncs) VisitFolder(d *Folder) error {
	if v.Folder == nil {
		return nil
	}
	return v.Folder(d)
}

func (v VisitorFuncs) VisitSymlink(l *Symlink) error {
	if v.Symlink == nil {
		return nil
	}
	return v.Symlink(l)
}
