package registry

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/meigma/asar"
)

// archiveInfo summarises an archive file that parsed cleanly.
type archiveInfo struct {
	size    int64
	entries int
}

// inspectArchive parses the header and index of the archive at path and
// checks that the file is long enough to hold every file's content.
// Content digests are not checked; that happens on extraction.
func inspectArchive(path string, logger *slog.Logger) (archiveInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return archiveInfo{}, err
	}
	a, err := asar.Open(path, asar.WithLogger(logger))
	if err != nil {
		return archiveInfo{}, err
	}
	defer a.Close()

	origin := a.PayloadOrigin()
	fileSize := uint64(st.Size()) //nolint:gosec // Stat sizes are non-negative
	if origin > fileSize {
		return archiveInfo{}, fmt.Errorf("%s: %w: header extends past end of file", path, asar.ErrTruncated)
	}
	payload := fileSize - origin

	var info archiveInfo
	info.size = st.Size()
	for node, err := range a.All() {
		if err != nil {
			return archiveInfo{}, fmt.Errorf("%s: %w", path, err)
		}
		info.entries++
		f, ok := node.(*asar.File)
		if !ok {
			continue
		}
		// Offset+Size cannot overflow; the index decoder rejects it.
		if f.Offset+f.Size > payload {
			return archiveInfo{}, fmt.Errorf("%s: %w: %s ends at %d, payload holds %d bytes",
				path, asar.ErrTruncated, f.Path(), f.Offset+f.Size, payload)
		}
	}
	return info, nil
}
