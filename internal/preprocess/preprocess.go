// Package preprocess is the image transform library for receipt recognition.
// Every transform is a pure function of (source image, variant): the source
// is never mutated and each call returns a freshly allocated raster.
package preprocess

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Variant names a preprocessing profile applied before recognition.
type Variant string

const (
	// VariantDefault applies a mild contrast boost. Safest profile,
	// preserves all strokes.
	VariantDefault Variant = "default"
	// VariantHighContrast applies an aggressive contrast boost for
	// severely faded thermal paper.
	VariantHighContrast Variant = "high_contrast"
	// VariantThreshold binarizes against 65% of the image's own mean
	// luminance. Thermal paper brightness varies receipt-to-receipt, so
	// the threshold must be image-relative, not fixed.
	VariantThreshold Variant = "threshold"
	// VariantSharpen boosts contrast and runs a 3x3 sharpen kernel to
	// recover edges in blurry photographs.
	VariantSharpen Variant = "sharpen"
	// VariantDenoise lightly blurs before boosting contrast to suppress
	// photographic grain.
	VariantDenoise Variant = "denoise"
)

const (
	// Recognition accuracy degrades sharply below this width on long,
	// narrow thermal receipts.
	minWidth = 1200
	// Upper bound keeps memory and CPU cost predictable per pass.
	maxWidth = 2400

	// Fraction of mean luminance below which a pixel is considered ink.
	adaptiveThresholdRatio = 0.65
)

// Variants lists every known variant name.
func Variants() []Variant {
	return []Variant{VariantDefault, VariantHighContrast, VariantThreshold, VariantSharpen, VariantDenoise}
}

// Transform produces a recognition-friendly raster from a photographed
// receipt. The fixed pipeline is: luminance conversion, width normalization,
// dynamic-range stretch, then exactly one variant-specific enhancement.
func Transform(src image.Image, variant Variant) (image.Image, error) {
	if src == nil {
		return nil, fmt.Errorf("preprocess: nil source image")
	}
	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("preprocess: empty source image %dx%d", bounds.Dx(), bounds.Dy())
	}

	img := imaging.Grayscale(src)
	img = normalizeWidth(img)
	img = stretchDynamicRange(img)

	switch variant {
	case VariantDefault:
		img = imaging.AdjustContrast(img, 30)
	case VariantHighContrast:
		img = imaging.AdjustContrast(img, 45)
	case VariantThreshold:
		threshold := meanLuminance(img) * adaptiveThresholdRatio
		img = binarize(img, threshold)
	case VariantSharpen:
		img = imaging.AdjustContrast(img, 35)
		// Center 5, four-neighbor -1: classic unsharp kernel.
		img = imaging.Convolve3x3(img, [9]float64{
			0, -1, 0,
			-1, 5, -1,
			0, -1, 0,
		}, nil)
	case VariantDenoise:
		img = imaging.Blur(img, 0.6)
		img = imaging.AdjustContrast(img, 40)
	default:
		return nil, fmt.Errorf("preprocess: unknown variant %q", variant)
	}

	return img, nil
}

// normalizeWidth integer-upscales narrow receipts to at least minWidth and
// proportionally downscales anything wider than maxWidth.
func normalizeWidth(img *image.NRGBA) *image.NRGBA {
	width := img.Bounds().Dx()
	if width < minWidth {
		scale := int(math.Ceil(float64(minWidth) / float64(width)))
		return imaging.Resize(img, width*scale, 0, imaging.Lanczos)
	}
	if width > maxWidth {
		return imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}
	return img
}

// stretchDynamicRange remaps luminance so the darkest pixel becomes 0 and the
// brightest 255, countering faded thermal ink. The image is already
// grayscale, so the red channel stands in for luminance.
func stretchDynamicRange(img *image.NRGBA) *image.NRGBA {
	lo, hi := uint8(255), uint8(0)
	for i := 0; i < len(img.Pix); i += 4 {
		v := img.Pix[i]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi <= lo {
		return img
	}

	out := imaging.Clone(img)
	span := float64(hi - lo)
	for i := 0; i < len(out.Pix); i += 4 {
		v := uint8(math.Round(float64(out.Pix[i]-lo) / span * 255))
		out.Pix[i] = v
		out.Pix[i+1] = v
		out.Pix[i+2] = v
	}
	return out
}

// meanLuminance returns the average gray value over the whole image (0-255).
func meanLuminance(img *image.NRGBA) float64 {
	var total float64
	var count int
	for i := 0; i < len(img.Pix); i += 4 {
		total += float64(img.Pix[i])
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// binarize maps pixels darker than threshold to black and the rest to white.
// Thermal ink is darker than its background.
func binarize(img *image.NRGBA, threshold float64) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 0; i < len(out.Pix); i += 4 {
		v := uint8(255)
		if float64(out.Pix[i]) < threshold {
			v = 0
		}
		out.Pix[i] = v
		out.Pix[i+1] = v
		out.Pix[i+2] = v
	}
	return out
}
