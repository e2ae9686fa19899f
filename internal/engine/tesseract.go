package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine implements Engine using the gosseract client. A fresh
// client is created per invocation: gosseract clients are not safe to share,
// and per-call clients make concurrent passes independent.
type TesseractEngine struct {
	language      string
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed OCR engine.
func NewTesseractEngine(language string) *TesseractEngine {
	if language == "" {
		language = "eng"
	}
	return &TesseractEngine{
		language:      language,
		clientFactory: gosseract.NewClient,
	}
}

// Recognize runs one OCR pass against the image at imagePath using the
// requested segmentation mode. The engine mode is fixed to LSTM, Tesseract's
// most accurate.
func (e *TesseractEngine) Recognize(ctx context.Context, imagePath string, mode SegmentationMode) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(e.language); err != nil {
		return Result{}, fmt.Errorf("set language: %w", err)
	}
	if err := c.SetPageSegMode(pageSegMode(mode)); err != nil {
		return Result{}, fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := c.SetVariable(gosseract.SettableVariable("tessedit_ocr_engine_mode"), "1"); err != nil {
		return Result{}, fmt.Errorf("set engine mode: %w", err)
	}
	if err := c.SetImage(imagePath); err != nil {
		return Result{}, fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return Result{}, fmt.Errorf("recognize text: %w", err)
	}

	words, avgConf := extractWords(c)
	return Result{
		Text:       strings.TrimSpace(text),
		Confidence: avgConf,
		Words:      words,
	}, nil
}

// pageSegMode maps the engine-neutral segmentation mode to Tesseract's PSM.
func pageSegMode(mode SegmentationMode) gosseract.PageSegMode {
	switch mode {
	case SegSingleColumn:
		return gosseract.PSM_SINGLE_COLUMN
	case SegAuto:
		return gosseract.PSM_AUTO
	default:
		return gosseract.PSM_SINGLE_BLOCK
	}
}

// extractWords pulls per-word confidences from the client's word-level
// bounding boxes. Confidence stays on Tesseract's 0-100 scale.
func extractWords(c *gosseract.Client) ([]Word, float64) {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil, 0
	}
	words := make([]Word, 0, len(boxes))
	var sum float64
	for _, b := range boxes {
		word := strings.TrimSpace(b.Word)
		if word == "" {
			continue
		}
		sum += b.Confidence
		words = append(words, Word{Text: word, Confidence: b.Confidence})
	}
	if len(words) == 0 {
		return nil, 0
	}
	return words, sum / float64(len(words))
}
