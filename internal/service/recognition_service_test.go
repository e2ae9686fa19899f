package service

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"go-receipt-recognizer/internal/diag"
	"go-receipt-recognizer/internal/engine"
	apperrors "go-receipt-recognizer/internal/errors"
	"go-receipt-recognizer/internal/preflight"
	"go-receipt-recognizer/internal/recognizer"
)

type stubRepo struct {
	img         image.Image
	validateErr error
	resolveErr  error
}

func (r *stubRepo) Resolve(context.Context, string) (image.Image, error) {
	if r.resolveErr != nil {
		return nil, r.resolveErr
	}
	return r.img, nil
}

func (r *stubRepo) Validate(string) error { return r.validateErr }

type stubEngine struct {
	result engine.Result
	err    error
}

func (e *stubEngine) Recognize(context.Context, string, engine.SegmentationMode) (engine.Result, error) {
	return e.result, e.err
}

func receiptImage() image.Image {
	img := image.NewGray(image.Rect(0, 0, 60, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 60; x++ {
			v := uint8(230)
			if (x/5+y/5)%2 == 0 {
				v = 30
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func newTestService(t *testing.T, repo *stubRepo, eng engine.Engine) ReceiptRecognitionService {
	t.Helper()
	pipeline := recognizer.NewPipeline(eng, recognizer.PipelineOptions{TempDir: t.TempDir()})
	return NewReceiptRecognitionService(repo, pipeline, preflight.NewChecker(), diag.NewPublisher())
}

func TestAnalyzeReference_Accepted(t *testing.T) {
	eng := &stubEngine{result: engine.Result{
		Text:       "TOTAL $23.50\n26/10/2020",
		Confidence: 90,
		Words: []engine.Word{
			{Text: "TOTAL", Confidence: 95},
			{Text: "$23.50", Confidence: 92},
			{Text: "26/10/2020", Confidence: 88},
		},
	}}
	svc := newTestService(t, &stubRepo{img: receiptImage()}, eng)

	resp, err := svc.AnalyzeReference(context.Background(), "uploads/r1.png", recognizer.ModeLow)
	if err != nil {
		t.Fatalf("AnalyzeReference failed: %v", err)
	}

	if !resp.Success {
		t.Error("Expected success for an ACCEPT verdict")
	}
	if resp.Amount.String() != "23.5" {
		t.Errorf("Expected amount 23.5, got %s", resp.Amount)
	}
	if resp.Date == nil || *resp.Date != "2020-10-26" {
		t.Errorf("Expected date 2020-10-26, got %v", resp.Date)
	}
	if resp.Warning != "" {
		t.Errorf("Expected no warning, got %q", resp.Warning)
	}
	if resp.Verdict != string(recognizer.VerdictAccept) {
		t.Errorf("Expected ACCEPT, got %s", resp.Verdict)
	}
}

func TestAnalyzeReference_LowConfidenceCarriesWarning(t *testing.T) {
	// No word list: every candidate sits at the 50-point fallback, no date
	// at all, so the verdict cannot reach ACCEPT.
	eng := &stubEngine{result: engine.Result{Text: "AMOUNT 5.00", Confidence: 50}}
	svc := newTestService(t, &stubRepo{img: receiptImage()}, eng)

	resp, err := svc.AnalyzeReference(context.Background(), "uploads/r1.png", recognizer.ModeLow)
	if err != nil {
		t.Fatalf("AnalyzeReference failed: %v", err)
	}

	if resp.Success {
		t.Error("Expected success false below ACCEPT")
	}
	if resp.Warning != LowConfidenceWarning {
		t.Errorf("Expected the low-confidence warning, got %q", resp.Warning)
	}
	if resp.Date != nil {
		t.Errorf("Expected null date, got %v", *resp.Date)
	}
	if resp.Amount.String() != "5" {
		t.Errorf("Expected best-effort amount 5, got %s", resp.Amount)
	}
}

func TestAnalyzeReference_InvalidReference(t *testing.T) {
	repo := &stubRepo{validateErr: errors.New("empty image reference")}
	svc := newTestService(t, repo, &stubEngine{})

	_, err := svc.AnalyzeReference(context.Background(), "", recognizer.ModeLow)
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Expected a validation error, got %v", err)
	}
}

func TestAnalyzeReference_ResolveFailure(t *testing.T) {
	repo := &stubRepo{resolveErr: errors.New("connection refused")}
	svc := newTestService(t, repo, &stubEngine{})

	_, err := svc.AnalyzeReference(context.Background(), "https://example.com/r.jpg", recognizer.ModeLow)
	if !apperrors.IsType(err, apperrors.ErrorTypeNetwork) {
		t.Errorf("Expected a network error, got %v", err)
	}
}

func TestAnalyzeReference_AllPassesFailedPropagates(t *testing.T) {
	eng := &stubEngine{err: errors.New("tesseract crashed")}
	svc := newTestService(t, &stubRepo{img: receiptImage()}, eng)

	_, err := svc.AnalyzeReference(context.Background(), "uploads/r1.png", recognizer.ModeLow)
	if !apperrors.IsAllPassesFailed(err) {
		t.Errorf("Expected all-passes-failed, got %v", err)
	}
}
