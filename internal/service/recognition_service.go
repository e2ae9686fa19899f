package service

import (
	"context"
	"image"

	"github.com/sirupsen/logrus"

	"go-receipt-recognizer/internal/diag"
	apperrors "go-receipt-recognizer/internal/errors"
	"go-receipt-recognizer/internal/logger"
	"go-receipt-recognizer/internal/preflight"
	"go-receipt-recognizer/internal/recognizer"
	"go-receipt-recognizer/internal/repository"
	"go-receipt-recognizer/pkg/models"
)

// LowConfidenceWarning is attached to responses whose verdict was not
// ACCEPT so the caller presents "please verify" instead of an error.
const LowConfidenceWarning = "OCR confidence is low - please verify manually"

// ReceiptRecognitionService runs the recognition pipeline for one persisted
// receipt image and maps the result to the wire response.
type ReceiptRecognitionService interface {
	AnalyzeReference(ctx context.Context, ref string, mode recognizer.Mode) (*models.AnalyzeResponse, error)
}

type receiptRecognitionService struct {
	repo      repository.ReceiptImageRepository
	pipeline  *recognizer.Pipeline
	checker   *preflight.Checker
	publisher diag.Subject
}

// NewReceiptRecognitionService wires the pipeline behind the image
// repository.
func NewReceiptRecognitionService(
	repo repository.ReceiptImageRepository,
	pipeline *recognizer.Pipeline,
	checker *preflight.Checker,
	publisher diag.Subject,
) ReceiptRecognitionService {
	return &receiptRecognitionService{
		repo:      repo,
		pipeline:  pipeline,
		checker:   checker,
		publisher: publisher,
	}
}

// AnalyzeReference resolves the image reference and runs the pipeline.
func (s *receiptRecognitionService) AnalyzeReference(ctx context.Context, ref string, mode recognizer.Mode) (*models.AnalyzeResponse, error) {
	if err := s.repo.Validate(ref); err != nil {
		return nil, apperrors.NewValidationError("invalid image reference", err)
	}

	img, err := s.repo.Resolve(ctx, ref)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to load receipt image", err)
	}

	return s.analyze(ctx, img, mode)
}

func (s *receiptRecognitionService) analyze(ctx context.Context, img image.Image, mode recognizer.Mode) (*models.AnalyzeResponse, error) {
	report := s.checker.Inspect(img)
	if len(report.Issues) > 0 {
		logger.WithFields(logrus.Fields{
			"issues":             report.Issues,
			"laplacian_variance": report.LaplacianVariance,
			"brightness":         report.Brightness,
		}).Warn("Receipt image quality issues detected")
	}
	s.publisher.Publish(diag.EventPreflight, map[string]interface{}{
		"width":              report.Width,
		"height":             report.Height,
		"laplacian_variance": report.LaplacianVariance,
		"brightness":         report.Brightness,
		"issues":             report.Issues,
	})

	result, err := s.pipeline.Run(ctx, img, mode)
	if err != nil {
		return nil, err
	}
	return toResponse(result), nil
}

// toResponse maps the pipeline result onto the wire contract. Only ACCEPT
// is a success; RETRY and ESCALATE are both reported as low confidence with
// the best-effort values kept.
func toResponse(result *recognizer.RecognitionResult) *models.AnalyzeResponse {
	resp := &models.AnalyzeResponse{
		Success: result.Verdict == recognizer.VerdictAccept,
		Amount:  result.Amount,
		Confidence: models.ConfidenceScores{
			Amount: result.Confidence.Amount,
			Date:   result.Confidence.Date,
		},
		RawText:      result.RawText,
		Verdict:      string(result.Verdict),
		QualityScore: result.QualityScore,
	}
	if result.Date != "" {
		date := result.Date
		resp.Date = &date
	}
	if !resp.Success {
		resp.Warning = LowConfidenceWarning
	}
	return resp
}
