package recognizer

import (
	"sort"

	"github.com/arbovm/levenshtein"
	"github.com/shopspring/decimal"
)

// Thresholds are the empirically tuned gates of selection and quality
// scoring. They are configuration, not law: tests and calibration runs
// inject their own.
type Thresholds struct {
	// Candidate gates. Amounts tolerate lower-confidence disagreement than
	// dates: a wrong amount is more consequential downstream, so it is
	// gated per-candidate here and again by tier ordering, while a date is
	// simply dropped unless recognition agreed strongly.
	MinAmountConfidence float64
	MinDateConfidence   float64

	// Confidence contribution to the quality score.
	HighConfidence       float64
	MidConfidence        float64
	LowConfidence        float64
	HighConfidencePoints int
	MidConfidencePoints  int
	LowConfidencePoints  int

	// Field-presence contribution.
	BothFieldsPoints int
	OneFieldPoints   int

	// Verdict gates on the summed score.
	AcceptScore int
	RetryScore  int
}

// DefaultThresholds returns the tuned production values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinAmountConfidence:  30,
		MinDateConfidence:    40,
		HighConfidence:       70,
		MidConfidence:        50,
		LowConfidence:        30,
		HighConfidencePoints: 50,
		MidConfidencePoints:  30,
		LowConfidencePoints:  15,
		BothFieldsPoints:     50,
		OneFieldPoints:       25,
		AcceptScore:          70,
		RetryScore:           40,
	}
}

// Selector merges candidates across all passes and picks the best amount and
// date independently, then scores the result.
type Selector struct {
	thresholds Thresholds
}

// NewSelector creates a selector with the given thresholds.
func NewSelector(t Thresholds) *Selector {
	return &Selector{thresholds: t}
}

// SelectAmount picks the best amount: candidates above the confidence gate
// and with a positive value, ordered by tier then confidence. Tier ordering
// is total: a tier-3 candidate at confidence 31 beats a tier-0 candidate at
// confidence 99. Returns zero with confidence 0 when nothing qualifies.
func (s *Selector) SelectAmount(candidates []AmountCandidate) (decimal.Decimal, float64) {
	qualified := make([]AmountCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Confidence > s.thresholds.MinAmountConfidence && c.Value.IsPositive() {
			qualified = append(qualified, c)
		}
	}
	if len(qualified) == 0 {
		return decimal.Zero, 0
	}
	sort.SliceStable(qualified, func(i, j int) bool {
		if qualified[i].Priority != qualified[j].Priority {
			return qualified[i].Priority > qualified[j].Priority
		}
		return qualified[i].Confidence > qualified[j].Confidence
	})
	best := qualified[0]
	return best.Value, best.Confidence
}

// SelectDate picks the single highest-confidence date above the gate.
// Returns empty with confidence 0 when nothing qualifies.
func (s *Selector) SelectDate(candidates []DateCandidate) (string, float64) {
	var best *DateCandidate
	for i := range candidates {
		c := &candidates[i]
		if c.Confidence <= s.thresholds.MinDateConfidence {
			continue
		}
		if best == nil || c.Confidence > best.Confidence {
			best = c
		}
	}
	if best == nil {
		return "", 0
	}
	return best.ISODate, best.Confidence
}

// Evaluate computes the 0-100 quality score and verdict from the selected
// field confidences and presence.
func (s *Selector) Evaluate(amountConf, dateConf float64, hasAmount, hasDate bool) (int, Verdict) {
	avg := (amountConf + dateConf) / 2

	score := 0
	switch {
	case avg > s.thresholds.HighConfidence:
		score += s.thresholds.HighConfidencePoints
	case avg > s.thresholds.MidConfidence:
		score += s.thresholds.MidConfidencePoints
	case avg > s.thresholds.LowConfidence:
		score += s.thresholds.LowConfidencePoints
	}

	switch {
	case hasAmount && hasDate:
		score += s.thresholds.BothFieldsPoints
	case hasAmount || hasDate:
		score += s.thresholds.OneFieldPoints
	}

	switch {
	case score > s.thresholds.AcceptScore:
		return score, VerdictAccept
	case score > s.thresholds.RetryScore:
		return score, VerdictRetry
	default:
		return score, VerdictEscalate
	}
}

// textAgreement is a diagnostic-only measure of how much two pass texts
// agree, as 1 minus the normalized edit distance. Logged for offline
// threshold tuning; never part of selection.
func textAgreement(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	dist := levenshtein.Distance(a, b)
	return 1 - float64(dist)/float64(longest)
}
