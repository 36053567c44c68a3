package asar

import "github.com/meigma/asar/internal/asartype"

// Re-export progress types from asartype.
type (
	// ProgressEvent represents a progress update during packing or extraction.
	ProgressEvent = asartype.ProgressEvent

	// ProgressStage identifies the current phase of an operation.
	ProgressStage = asartype.ProgressStage

	// ProgressFunc receives progress updates. Calls are made from the
	// goroutine running the operation.
	ProgressFunc = asartype.ProgressFunc
)

// Re-export progress stage constants.
const (
	// StagePacking indicates an entry was added to the index.
	StagePacking = asartype.StagePacking

	// StageFinalizing indicates the header and payload are being written.
	StageFinalizing = asartype.StageFinalizing

	// StageExtracting indicates an entry was written to the destination.
	StageExtracting = asartype.StageExtracting
)

func emit(fn ProgressFunc, event ProgressEvent) {
	if fn != nil {
		fn(event)
	}
}
