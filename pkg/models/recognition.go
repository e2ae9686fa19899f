// Package models holds the wire-level request and response shapes shared by
// the transport layer and its callers. The field names amount, date,
// confidence.{amount,date}, rawText and success are contractual: the calling
// UI pre-fills its edit form from them.
package models

import "github.com/shopspring/decimal"

// The amount field is a JSON number on the wire, not a quoted string.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// ConfidenceScores carries the per-field confidences (0-100).
type ConfidenceScores struct {
	Amount float64 `json:"amount"`
	Date   float64 `json:"date"`
}

// AnalyzeResponse is the response of a receipt analysis request. Date is
// null when no qualifying date was found. Success is true only for an
// ACCEPT verdict; RETRY and ESCALATE both surface as a low-confidence
// result carrying the best-effort values.
type AnalyzeResponse struct {
	Success      bool             `json:"success"`
	Amount       decimal.Decimal  `json:"amount"`
	Date         *string          `json:"date"`
	Confidence   ConfidenceScores `json:"confidence"`
	RawText      string           `json:"rawText"`
	Verdict      string           `json:"verdict"`
	QualityScore int              `json:"qualityScore"`
	Warning      string           `json:"warning,omitempty"`
}

// AnalyzeRequest is the JSON body for analyzing an already-addressable
// image (HTTP or blob URL) instead of a multipart upload.
type AnalyzeRequest struct {
	URL  string `json:"url" binding:"required"`
	Mode string `json:"mode,omitempty"`
}
