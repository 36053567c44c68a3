package asartype

// ProgressEvent represents a progress update during packing or extraction.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Path is the entry currently being processed, relative to the archive root.
	Path string

	// Kind names the entry type ("file", "folder" or "symlink").
	Kind string

	// Link is the symlink target when Kind is "symlink".
	Link string

	// BytesDone is the number of content bytes processed so far.
	BytesDone uint64

	// EntriesDone is the number of entries processed so far.
	EntriesDone int
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

// Progress stages for packing and extraction.
const (
	// StagePacking indicates an entry was added to the index.
	StagePacking ProgressStage = iota

	// StageFinalizing indicates the header and payload are being written.
	StageFinalizing

	// StageExtracting indicates an entry was written to the destination.
	StageExtracting
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StagePacking:
		return "packing"
	case StageFinalizing:
		return "finalizing"
	case StageExtracting:
		return "extracting"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during operations.
type ProgressFunc func(ProgressEvent)
