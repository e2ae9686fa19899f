package preflight

import (
	"image"
	"image/color"
	"testing"
)

func uniformImage(width, height int, value uint8) image.Image {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: value})
		}
	}
	return img
}

func checkerboard(width, height int) image.Image {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(0)
			if (x+y)%2 == 0 {
				v = 255
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func hasIssue(report Report, issue string) bool {
	for _, i := range report.Issues {
		if i == issue {
			return true
		}
	}
	return false
}

func TestInspect_UniformImageIsBlurry(t *testing.T) {
	report := NewChecker().Inspect(uniformImage(500, 50, 128))

	if report.Width != 500 || report.Height != 50 {
		t.Errorf("Expected 500x50, got %dx%d", report.Width, report.Height)
	}
	if report.LaplacianVariance != 0 {
		t.Errorf("Expected zero variance on a flat image, got %f", report.LaplacianVariance)
	}
	if !hasIssue(report, "image appears blurry") {
		t.Errorf("Expected blur issue, got %v", report.Issues)
	}
	if hasIssue(report, "image too dark") || hasIssue(report, "image too bright") {
		t.Errorf("Unexpected exposure issue at brightness %f", report.Brightness)
	}
}

func TestInspect_SharpImageHasNoBlurIssue(t *testing.T) {
	report := NewChecker().Inspect(checkerboard(500, 50))

	if hasIssue(report, "image appears blurry") {
		t.Errorf("Expected no blur issue at variance %f", report.LaplacianVariance)
	}
}

func TestInspect_ExposureIssues(t *testing.T) {
	tests := []struct {
		name  string
		value uint8
		issue string
	}{
		{"too dark", 30, "image too dark"},
		{"too bright", 245, "image too bright"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := NewChecker().Inspect(uniformImage(500, 50, tt.value))
			if !hasIssue(report, tt.issue) {
				t.Errorf("Expected %q at brightness %f, got %v", tt.issue, report.Brightness, report.Issues)
			}
		})
	}
}

func TestInspect_NarrowImageFlagged(t *testing.T) {
	report := NewChecker().Inspect(uniformImage(200, 50, 128))
	if !hasIssue(report, "image width below recommended minimum") {
		t.Errorf("Expected width issue, got %v", report.Issues)
	}
}

func TestInspect_CustomThresholds(t *testing.T) {
	lenient := DefaultThresholds()
	lenient.MinLaplacianVariance = 0
	lenient.MinBrightness = 0

	report := NewCheckerWithThresholds(lenient).Inspect(uniformImage(500, 50, 30))
	if len(report.Issues) != 0 {
		t.Errorf("Expected no issues under lenient thresholds, got %v", report.Issues)
	}
}
