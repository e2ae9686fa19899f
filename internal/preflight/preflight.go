// Package preflight inspects a receipt photo before recognition and reports
// quality issues (blur, exposure, resolution). The report is advisory: it is
// logged for diagnostics and never blocks the pipeline.
package preflight

import (
	"image"
	"image/draw"
)

// Thresholds gate the preflight checks.
type Thresholds struct {
	MinLaplacianVariance float64
	MinBrightness        float64
	MaxBrightness        float64
	MinWidth             int
}

// DefaultThresholds returns values tuned for photographed thermal receipts.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinLaplacianVariance: 100.0,
		MinBrightness:        60.0,
		MaxBrightness:        230.0,
		MinWidth:             400,
	}
}

// Report summarizes the pre-recognition quality of an image.
type Report struct {
	Width             int      `json:"width"`
	Height            int      `json:"height"`
	LaplacianVariance float64  `json:"laplacian_variance"`
	Brightness        float64  `json:"brightness"`
	Issues            []string `json:"issues,omitempty"`
}

// Checker runs preflight inspection with configurable thresholds.
type Checker struct {
	thresholds Thresholds
}

// NewChecker creates a checker with default thresholds.
func NewChecker() *Checker {
	return &Checker{thresholds: DefaultThresholds()}
}

// NewCheckerWithThresholds creates a checker with custom thresholds.
func NewCheckerWithThresholds(t Thresholds) *Checker {
	return &Checker{thresholds: t}
}

// Inspect computes blur and brightness metrics for the image and lists any
// threshold violations.
func (c *Checker) Inspect(img image.Image) Report {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)

	report := Report{
		Width:             bounds.Dx(),
		Height:            bounds.Dy(),
		LaplacianVariance: laplacianVariance(gray),
		Brightness:        meanBrightness(gray),
	}

	if report.Width < c.thresholds.MinWidth {
		report.Issues = append(report.Issues, "image width below recommended minimum")
	}
	if report.LaplacianVariance < c.thresholds.MinLaplacianVariance {
		report.Issues = append(report.Issues, "image appears blurry")
	}
	if report.Brightness < c.thresholds.MinBrightness {
		report.Issues = append(report.Issues, "image too dark")
	}
	if report.Brightness > c.thresholds.MaxBrightness {
		report.Issues = append(report.Issues, "image too bright")
	}
	return report
}

// laplacianVariance measures sharpness: the variance of the Laplacian over
// the grayscale image. Low variance means few edges, i.e. blur.
func laplacianVariance(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	var sum, sumSq float64
	kernel := [3][3]int{{0, 1, 0}, {1, -4, 1}, {0, 1, 0}}

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			var val int
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					pixel := int(gray.GrayAt(bounds.Min.X+x+kx, bounds.Min.Y+y+ky).Y)
					val += pixel * kernel[ky+1][kx+1]
				}
			}
			fVal := float64(val)
			sum += fVal
			sumSq += fVal * fVal
		}
	}

	n := float64((width - 2) * (height - 2))
	if n <= 0 {
		return 0
	}
	mean := sum / n
	return (sumSq / n) - (mean * mean)
}

// meanBrightness averages gray values over the image (0-255).
func meanBrightness(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	var total float64
	var count int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			total += float64(gray.GrayAt(x, y).Y)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}
