package recognizer

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/arbovm/levenshtein"
	"github.com/shopspring/decimal"

	"go-receipt-recognizer/internal/engine"
)

var (
	// A keyword anchor immediately followed by a numeric value.
	keywordLineRe = regexp.MustCompile(`(?i)(total|amount|balance|net|payable|due)[\s:]*\$?\s*([\d,]+\.?\d{0,2})`)
	// Generic currency pattern: optional $, thousands separators, exactly
	// two decimal digits.
	currencyRe = regexp.MustCompile(`\$?\s*([\d,]+\.\d{2})\b`)
	// Trailing numeric value used by the fuzzy keyword anchor.
	amountTailRe = regexp.MustCompile(`\$?\s*([\d,]+\.?\d{0,2})`)

	totalPrefixRe = regexp.MustCompile(`(?i)^total`)
	balanceNetRe  = regexp.MustCompile(`(?i)balance|net`)

	dayMonthYearRe  = regexp.MustCompile(`\b(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{2,4})\b`)
	yearMonthDayRe  = regexp.MustCompile(`\b(\d{4})[/\-.](\d{1,2})[/\-.](\d{1,2})\b`)
	dayMonthNameRe  = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+(\d{2,4})\b`)
)

// monthAbbrevs maps lowercase three-letter month names to month numbers.
var monthAbbrevs = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// fuzzyAnchors are the keyword anchors eligible for edit-distance rescue.
// Short anchors ("net", "due") stay exact-only: a one-edit match on three
// letters is as likely to be a different word.
var fuzzyAnchors = []string{"total", "amount", "balance", "payable"}

const (
	// Confidence assigned when the pass carried no word list at all.
	noWordListConfidence = 50
	// Confidence assigned when no OCR word overlaps the matched text.
	noOverlapConfidence = 40

	// Receipt dates older than this epoch floor are treated as misread
	// numerics, not dates.
	minReceiptYear = 2000
	// Dates may run slightly ahead of the server clock (timezones,
	// post-dated bookings), but no further.
	maxFutureDays = 7
)

// Extractor turns one PassResult into zero or more amount and date
// candidates. It holds a clock so the date window is testable.
type Extractor struct {
	now func() time.Time
}

// NewExtractor creates an extractor using the system clock.
func NewExtractor() *Extractor {
	return &Extractor{now: time.Now}
}

// NewExtractorAt creates an extractor with a fixed clock for tests.
func NewExtractorAt(now func() time.Time) *Extractor {
	return &Extractor{now: now}
}

// Amounts proposes amount candidates from a pass, in priority order:
// keyword-anchored lines first (tier 1-3), then - only when no keyword line
// matched anywhere in the pass - the single largest currency match (tier 0).
func (e *Extractor) Amounts(pass PassResult) []AmountCandidate {
	lines := splitLines(pass.Text)
	var candidates []AmountCandidate

	for _, line := range lines {
		raw, priority, ok := matchKeywordLine(line)
		if !ok {
			continue
		}
		value, ok := parseAmount(raw)
		if !ok {
			continue
		}
		candidates = append(candidates, AmountCandidate{
			Value:      value,
			Confidence: lineConfidence(pass.Words, line),
			Priority:   priority,
			Provenance: ProvenanceKeyword,
		})
	}

	if len(candidates) > 0 {
		return candidates
	}

	// Fallback: largest currency-formatted number anywhere in the text.
	var largest *AmountCandidate
	for _, line := range lines {
		for _, m := range currencyRe.FindAllStringSubmatch(line, -1) {
			value, ok := parseAmount(m[1])
			if !ok {
				continue
			}
			c := AmountCandidate{
				Value:      value,
				Confidence: lineConfidence(pass.Words, line),
				Provenance: ProvenanceCurrencyPattern,
			}
			if largest == nil || c.Value.GreaterThan(largest.Value) {
				largest = &c
			}
		}
	}
	if largest == nil {
		return nil
	}
	largest.Priority = 0
	largest.Provenance = ProvenanceFallbackLargest
	return []AmountCandidate{*largest}
}

// Dates proposes date candidates from a pass. Three independent textual
// patterns are tried; every match is normalized to ISO YYYY-MM-DD and must
// be calendar-valid and inside the plausible receipt window, or it is
// discarded before ever becoming a candidate.
func (e *Extractor) Dates(pass PassResult) []DateCandidate {
	var candidates []DateCandidate

	appendCandidate := func(year, month, day int, raw string) {
		iso, ok := e.normalizeDate(year, month, day)
		if !ok {
			return
		}
		candidates = append(candidates, DateCandidate{
			ISODate:    iso,
			Confidence: textConfidence(pass.Words, raw),
			RawText:    raw,
		})
	}

	for _, m := range dayMonthYearRe.FindAllStringSubmatch(pass.Text, -1) {
		appendCandidate(expandYear(m[3]), atoi(m[2]), atoi(m[1]), m[0])
	}
	for _, m := range yearMonthDayRe.FindAllStringSubmatch(pass.Text, -1) {
		appendCandidate(atoi(m[1]), atoi(m[2]), atoi(m[3]), m[0])
	}
	for _, m := range dayMonthNameRe.FindAllStringSubmatch(pass.Text, -1) {
		month := monthAbbrevs[strings.ToLower(m[2])]
		appendCandidate(expandYear(m[3]), month, atoi(m[1]), m[0])
	}

	return candidates
}

// normalizeDate renders the components as ISO and enforces calendar validity
// plus the [2000-01-01, now+7d] window.
func (e *Extractor) normalizeDate(year, month, day int) (string, bool) {
	iso := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return "", false
	}
	floor := time.Date(minReceiptYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	ceiling := e.now().UTC().AddDate(0, 0, maxFutureDays)
	if t.Before(floor) || t.After(ceiling) {
		return "", false
	}
	return iso, true
}

// matchKeywordLine matches a keyword-anchored amount on one line. The exact
// pattern is tried first; failing that, the line's leading token is compared
// against the anchor table at edit distance one, rescuing thermally faded
// keywords like "T0TAL".
func matchKeywordLine(line string) (raw string, priority int, ok bool) {
	if m := keywordLineRe.FindStringSubmatch(line); m != nil {
		return m[2], keywordPriority(line), true
	}
	return fuzzyKeywordLine(line)
}

// keywordPriority ranks keyword lines: a line starting with "total" wins
// over balance/net, which win over the remaining anchors.
func keywordPriority(line string) int {
	if totalPrefixRe.MatchString(line) {
		return 3
	}
	if balanceNetRe.MatchString(line) {
		return 2
	}
	return 1
}

func fuzzyKeywordLine(line string) (raw string, priority int, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", 0, false
	}
	token := strings.TrimFunc(strings.ToLower(fields[0]), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(token) < 4 {
		return "", 0, false
	}
	for _, anchor := range fuzzyAnchors {
		if levenshtein.Distance(token, anchor) != 1 {
			continue
		}
		rest := strings.TrimPrefix(line, fields[0])
		m := amountTailRe.FindStringSubmatch(rest)
		if m == nil || strings.TrimSpace(m[1]) == "" {
			continue
		}
		switch anchor {
		case "total":
			priority = 3
		case "balance":
			priority = 2
		default:
			priority = 1
		}
		return m[1], priority, true
	}
	return "", 0, false
}

// parseAmount strips thousands separators and parses the value. Zero and
// negative values never become candidates.
func parseAmount(raw string) (decimal.Decimal, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return decimal.Decimal{}, false
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil || !value.IsPositive() {
		return decimal.Decimal{}, false
	}
	return value, true
}

// lineConfidence averages the confidence of OCR words whose text appears
// within the line.
func lineConfidence(words []engine.Word, line string) float64 {
	return textConfidence(words, line)
}

func textConfidence(words []engine.Word, text string) float64 {
	if len(words) == 0 {
		return noWordListConfidence
	}
	var sum float64
	var count int
	for _, w := range words {
		if w.Text != "" && strings.Contains(text, w.Text) {
			sum += w.Confidence
			count++
		}
	}
	if count == 0 {
		return noOverlapConfidence
	}
	return sum / float64(count)
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, strings.TrimSpace(l))
	}
	return lines
}

func expandYear(y string) int {
	if len(y) == 2 {
		return 2000 + atoi(y)
	}
	return atoi(y)
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
