// Package asar reads and writes asar archives, the single-file application
// bundle format used by Electron.
//
// An archive is a small binary frame holding a JSON index, followed by the
// concatenated contents of every file. The index is a tree of folders, files
// and symlinks; each file records its size, its offset into the payload and
// SHA-256 digests of its content, both whole and per block.
//
// Archives are read strictly front to back, so any io.Reader works as a
// source, including pipes:
//
//	a, err := asar.Open("app.asar")
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	for node, err := range a.All() {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(node.Path())
//	}
//
// Traversal yields entries in stored order, parents before their children.
// Entry names are checked as they are reached; a name that could escape the
// archive root stops the walk with [ErrPathSafety].
//
// File content is verified while it streams. Each block is compared as soon
// as it completes, so [File.Extract] fails on the first corrupt block:
//
//	err := asar.ExtractFile(a, "package.json", os.Stdout)
//
// # Creating archives
//
// [CreateFile] packs a directory into an archive path atomically:
//
//	stats, err := asar.CreateFile(ctx, "./app", "app.asar",
//	    asar.CreateWithExcludeHidden(true),
//	)
//
// [CreateFromEntries] builds an archive from any sequence of [PackEntry]
// values when the content does not come from a directory.
//
// # Extracting archives
//
// [ExtractAll] restores an archive below a destination directory. Writes go
// through an [os.Root], so no entry and no restored symlink can place
// content outside the destination.
//
// Archives are forward-only: after a file has been extracted, files stored
// before it can no longer be read from the same [Archive]. Open the archive
// again to revisit earlier content.
package asar
