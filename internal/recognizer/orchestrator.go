package recognizer

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go-receipt-recognizer/internal/diag"
	"go-receipt-recognizer/internal/engine"
	apperrors "go-receipt-recognizer/internal/errors"
	"go-receipt-recognizer/internal/logger"
	"go-receipt-recognizer/internal/preprocess"
)

// PipelineOptions configures a Pipeline. Zero values select sensible
// defaults: system temp dir, sequential passes, production thresholds.
type PipelineOptions struct {
	TempDir    string
	MaxWorkers int
	Thresholds Thresholds
	Publisher  diag.Subject
	Now        func() time.Time
}

// Pipeline drives the cross-product of preprocessing variants and
// segmentation modes against the external OCR engine, extracts candidates
// per pass and reconciles them into one RecognitionResult.
type Pipeline struct {
	engine    engine.Engine
	extractor *Extractor
	selector  *Selector
	publisher diag.Subject

	tempDir    string
	maxWorkers int
	now        func() time.Time

	// transform is a seam for tests; production uses preprocess.Transform.
	transform func(image.Image, preprocess.Variant) (image.Image, error)
}

// NewPipeline creates a recognition pipeline around the given OCR engine.
func NewPipeline(eng engine.Engine, opts PipelineOptions) *Pipeline {
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Publisher == nil {
		opts.Publisher = diag.NewPublisher()
	}
	if (opts.Thresholds == Thresholds{}) {
		opts.Thresholds = DefaultThresholds()
	}
	_ = os.MkdirAll(opts.TempDir, 0o755)

	return &Pipeline{
		engine:     eng,
		extractor:  NewExtractorAt(opts.Now),
		selector:   NewSelector(opts.Thresholds),
		publisher:  opts.Publisher,
		tempDir:    opts.TempDir,
		maxWorkers: opts.MaxWorkers,
		now:        opts.Now,
		transform:  preprocess.Transform,
	}
}

// Run executes the full batch for one receipt image. Individual pass
// failures are absorbed; the only fatal condition is zero successful passes,
// reported as an all-passes-failed error. A cancelled or expired context
// stops scheduling further passes but the passes already collected still
// feed selection.
func (p *Pipeline) Run(ctx context.Context, img image.Image, mode Mode) (*RecognitionResult, error) {
	cfg := mode.Config()
	plan := buildPlan(cfg)

	logger.WithFields(logrus.Fields{
		"mode":     mode,
		"variants": len(plan),
		"ceiling":  cfg.MaxPasses,
	}).Info("Starting multi-pass recognition")

	passes := p.runPasses(ctx, img, plan)
	if len(passes) == 0 {
		return nil, apperrors.NewAllPassesFailedError("all recognition passes failed", ctx.Err())
	}
	return p.selectResult(passes), nil
}

// variantPlan is the per-variant slice of the batch: one transform, one OCR
// call per segmentation mode against that one transformed image.
type variantPlan struct {
	variant  preprocess.Variant
	segModes []engine.SegmentationMode
}

// buildPlan expands the mode recipe into per-variant work, truncated to the
// advisory pass ceiling.
func buildPlan(cfg ModeConfig) []variantPlan {
	budget := cfg.MaxPasses
	if budget <= 0 {
		budget = len(cfg.Variants) * len(cfg.SegModes)
	}
	plan := make([]variantPlan, 0, len(cfg.Variants))
	for _, v := range cfg.Variants {
		if budget <= 0 {
			break
		}
		n := len(cfg.SegModes)
		if n > budget {
			n = budget
		}
		plan = append(plan, variantPlan{variant: v, segModes: cfg.SegModes[:n]})
		budget -= n
	}
	return plan
}

// runPasses executes the plan, sequentially or fanned out to a bounded
// worker pool. Results are flattened in plan order so selection is
// deterministic regardless of completion order.
func (p *Pipeline) runPasses(ctx context.Context, img image.Image, plan []variantPlan) []PassResult {
	perVariant := make([][]PassResult, len(plan))

	if p.maxWorkers > 1 && len(plan) > 1 {
		pool := NewWorkerPool(p.maxWorkers)
		pool.Start()
		defer pool.Close()
		for i, vp := range plan {
			i, vp := i, vp
			pool.Submit(func() {
				perVariant[i] = p.runVariantPasses(ctx, img, vp)
			})
		}
		pool.Wait()
	} else {
		for i, vp := range plan {
			select {
			case <-ctx.Done():
				logger.WithField("variant", vp.variant).Warn("Context done, skipping remaining variants")
			default:
				perVariant[i] = p.runVariantPasses(ctx, img, vp)
			}
		}
	}

	var passes []PassResult
	for _, results := range perVariant {
		passes = append(passes, results...)
	}
	return passes
}

// runVariantPasses transforms the image once for the variant, writes the
// temporary artifact, and runs one OCR pass per segmentation mode against
// it. The artifact is removed whatever happens. A failed transform skips
// every pass that would have used it; there is no fallback to the original
// image.
func (p *Pipeline) runVariantPasses(ctx context.Context, img image.Image, vp variantPlan) []PassResult {
	transformed, err := p.transform(img, vp.variant)
	if err != nil {
		perr := apperrors.NewPreprocessingError(fmt.Sprintf("variant %s failed", vp.variant), err)
		logger.WithError(perr).WithField("variant", vp.variant).Warn("Skipping variant")
		p.publisher.Publish(diag.EventVariantFailed, map[string]interface{}{
			"variant": string(vp.variant),
			"error":   err.Error(),
		})
		return nil
	}

	tempPath := filepath.Join(p.tempDir,
		fmt.Sprintf("temp_%s_%d_%s.png", vp.variant, p.now().UnixNano(), uuid.NewString()))
	if err := imaging.Save(transformed, tempPath); err != nil {
		perr := apperrors.NewPreprocessingError(fmt.Sprintf("writing artifact for variant %s failed", vp.variant), err)
		logger.WithError(perr).WithField("variant", vp.variant).Warn("Skipping variant")
		p.publisher.Publish(diag.EventVariantFailed, map[string]interface{}{
			"variant": string(vp.variant),
			"error":   err.Error(),
		})
		return nil
	}
	defer func() {
		_ = os.Remove(tempPath)
	}()

	var results []PassResult
	for _, segMode := range vp.segModes {
		select {
		case <-ctx.Done():
			return results
		default:
		}

		p.publisher.Publish(diag.EventPassStarted, map[string]interface{}{
			"variant":           string(vp.variant),
			"segmentation_mode": segMode.String(),
		})

		res, err := p.engine.Recognize(ctx, tempPath, segMode)
		if err != nil {
			rerr := apperrors.NewRecognitionEngineError(
				fmt.Sprintf("pass %s/%s failed", vp.variant, segMode), err)
			logger.WithError(rerr).WithFields(logrus.Fields{
				"variant":           vp.variant,
				"segmentation_mode": segMode.String(),
			}).Warn("Skipping pass")
			p.publisher.Publish(diag.EventPassFailed, map[string]interface{}{
				"variant":           string(vp.variant),
				"segmentation_mode": segMode.String(),
				"error":             err.Error(),
			})
			continue
		}

		results = append(results, PassResult{
			Variant:    vp.variant,
			Mode:       segMode,
			Text:       res.Text,
			Confidence: res.Confidence,
			Words:      res.Words,
		})
		p.publisher.Publish(diag.EventPassCompleted, map[string]interface{}{
			"variant":           string(vp.variant),
			"segmentation_mode": segMode.String(),
			"confidence":        res.Confidence,
		})
	}
	return results
}

// selectResult merges candidates across all passes, picks amount and date
// independently and scores the outcome.
func (p *Pipeline) selectResult(passes []PassResult) *RecognitionResult {
	var amountCandidates []AmountCandidate
	var dateCandidates []DateCandidate
	for _, pass := range passes {
		amountCandidates = append(amountCandidates, p.extractor.Amounts(pass)...)
		dateCandidates = append(dateCandidates, p.extractor.Dates(pass)...)
	}

	amount, amountConf := p.selector.SelectAmount(amountCandidates)
	date, dateConf := p.selector.SelectDate(dateCandidates)
	score, verdict := p.selector.Evaluate(amountConf, dateConf, amount.IsPositive(), date != "")

	fields := map[string]interface{}{
		"passes":            len(passes),
		"amount_candidates": len(amountCandidates),
		"date_candidates":   len(dateCandidates),
		"amount":            amount.String(),
		"date":              date,
		"quality_score":     score,
		"verdict":           string(verdict),
	}
	if agreement, ok := passAgreement(passes); ok {
		fields["pass_agreement"] = agreement
	}
	p.publisher.Publish(diag.EventSelection, fields)

	logger.WithFields(logrus.Fields{
		"amount":        amount.String(),
		"date":          date,
		"quality_score": score,
		"verdict":       verdict,
	}).Info("Recognition complete")

	return &RecognitionResult{
		Amount:       amount,
		Date:         date,
		Confidence:   Confidence{Amount: amountConf, Date: dateConf},
		RawText:      bestRawText(passes),
		Verdict:      verdict,
		QualityScore: score,
	}
}

// bestRawText surfaces the text of the pass the engine was most confident
// about, for the caller's edit form.
func bestRawText(passes []PassResult) string {
	best := passes[0]
	for _, pass := range passes[1:] {
		if pass.Confidence > best.Confidence {
			best = pass
		}
	}
	return best.Text
}

// passAgreement computes the diagnostic text agreement between the two
// highest-confidence passes.
func passAgreement(passes []PassResult) (float64, bool) {
	if len(passes) < 2 {
		return 0, false
	}
	first, second := 0, 1
	if passes[second].Confidence > passes[first].Confidence {
		first, second = second, first
	}
	for i := 2; i < len(passes); i++ {
		if passes[i].Confidence > passes[first].Confidence {
			second = first
			first = i
		} else if passes[i].Confidence > passes[second].Confidence {
			second = i
		}
	}
	return textAgreement(passes[first].Text, passes[second].Text), true
}
