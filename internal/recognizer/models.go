package recognizer

import (
	"github.com/shopspring/decimal"

	"go-receipt-recognizer/internal/engine"
	"go-receipt-recognizer/internal/preprocess"
)

// PassResult is the raw output of one (variant, segmentation mode) OCR pass.
// It lives only long enough to be fed to the candidate extractor.
type PassResult struct {
	Variant    preprocess.Variant
	Mode       engine.SegmentationMode
	Text       string
	Confidence float64
	Words      []engine.Word
}

// Provenance records how an amount candidate was found.
type Provenance string

const (
	// ProvenanceKeyword marks amounts anchored by a total-like keyword line.
	ProvenanceKeyword Provenance = "keyword-match"
	// ProvenanceCurrencyPattern marks amounts matched by the generic
	// currency pattern anywhere in the text.
	ProvenanceCurrencyPattern Provenance = "generic-currency-pattern"
	// ProvenanceFallbackLargest marks the single largest currency match,
	// used only when no keyword line matched in the pass.
	ProvenanceFallbackLargest Provenance = "fallback-largest"
)

// AmountCandidate is a provisional monetary total extracted from one pass.
// Value is always > 0; zero or negative matches are never constructed.
type AmountCandidate struct {
	Value      decimal.Decimal
	Confidence float64
	Priority   int
	Provenance Provenance
}

// DateCandidate is a provisional transaction date extracted from one pass.
// ISODate is always a calendar-valid YYYY-MM-DD inside the plausible
// receipt-date window; out-of-window dates are never constructed.
type DateCandidate struct {
	ISODate    string
	Confidence float64
	RawText    string
}

// Verdict is the pipeline's self-assessment of its own output quality.
type Verdict string

const (
	VerdictAccept   Verdict = "ACCEPT"
	VerdictRetry    Verdict = "RETRY"
	VerdictEscalate Verdict = "ESCALATE"
)

// Confidence carries the per-field confidences of the selected values.
type Confidence struct {
	Amount float64 `json:"amount"`
	Date   float64 `json:"date"`
}

// RecognitionResult is the only entity that crosses the pipeline boundary.
// Date is empty when no qualifying date was found.
type RecognitionResult struct {
	Amount       decimal.Decimal
	Date         string
	Confidence   Confidence
	RawText      string
	Verdict      Verdict
	QualityScore int
}
