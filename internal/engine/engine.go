// Package engine defines the boundary to the external OCR engine. The
// pipeline consumes it as a black box: one call per pass, returning
// recognized text plus per-word confidences on a 0-100 scale.
package engine

import "context"

// SegmentationMode tells the engine what text layout to assume. It is a
// parameter of the OCR call, not a property of the image.
type SegmentationMode int

const (
	// SegSingleBlock assumes one uniform block of text (receipts usually
	// are). Most reliable mode for thermal paper.
	SegSingleBlock SegmentationMode = iota
	// SegSingleColumn assumes a single column of variably sized text.
	SegSingleColumn
	// SegAuto lets the engine segment the page itself.
	SegAuto
)

func (m SegmentationMode) String() string {
	switch m {
	case SegSingleBlock:
		return "single_block"
	case SegSingleColumn:
		return "single_column"
	case SegAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// Word is one recognized word with its confidence (0-100).
type Word struct {
	Text       string
	Confidence float64
}

// Result is the raw output of one OCR invocation.
type Result struct {
	Text       string
	Confidence float64
	Words      []Word
}

// Engine is the external OCR collaborator. Implementations must support
// concurrent independent invocations; the orchestrator may fan passes out
// to a worker pool.
type Engine interface {
	Recognize(ctx context.Context, imagePath string, mode SegmentationMode) (Result, error)
}
