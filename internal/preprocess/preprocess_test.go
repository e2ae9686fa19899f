package preprocess

import (
	"image"
	"image/color"
	"testing"
)

func grayImage(width, height int, value uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{value, value, value, 255})
		}
	}
	return img
}

func halfAndHalf(width, height int, left, right uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := left
			if x >= width/2 {
				v = right
			}
			img.Set(x, y, color.NRGBA{v, v, v, 255})
		}
	}
	return img
}

func TestTransform_UnknownVariant(t *testing.T) {
	if _, err := Transform(grayImage(100, 100, 128), Variant("solarize")); err == nil {
		t.Error("Expected an error for an unknown variant")
	}
}

func TestTransform_NilAndEmptySource(t *testing.T) {
	if _, err := Transform(nil, VariantDefault); err == nil {
		t.Error("Expected an error for a nil source")
	}
	if _, err := Transform(image.NewNRGBA(image.Rect(0, 0, 0, 0)), VariantDefault); err == nil {
		t.Error("Expected an error for an empty source")
	}
}

func TestTransform_UpscalesNarrowReceipts(t *testing.T) {
	out, err := Transform(halfAndHalf(100, 20, 60, 200), VariantDefault)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if w := out.Bounds().Dx(); w < 1200 {
		t.Errorf("Expected width >= 1200 after upscale, got %d", w)
	}
}

func TestTransform_DownscalesOversizedImages(t *testing.T) {
	out, err := Transform(halfAndHalf(3000, 20, 60, 200), VariantDefault)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if w := out.Bounds().Dx(); w != 2400 {
		t.Errorf("Expected width capped at 2400, got %d", w)
	}
}

func TestTransform_InBandWidthUnchanged(t *testing.T) {
	out, err := Transform(halfAndHalf(1500, 20, 60, 200), VariantDefault)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if w := out.Bounds().Dx(); w != 1500 {
		t.Errorf("Expected width preserved at 1500, got %d", w)
	}
}

func TestTransform_ThresholdBinarizes(t *testing.T) {
	// Width 1200 avoids resampling, so halves stay crisp. After the range
	// stretch the dark half sits at 0 and the bright half at 255; the
	// adaptive threshold lands in between.
	out, err := Transform(halfAndHalf(1200, 10, 50, 200), VariantThreshold)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	nrgba, ok := out.(*image.NRGBA)
	if !ok {
		t.Fatalf("Expected *image.NRGBA output, got %T", out)
	}
	if v := nrgba.NRGBAAt(10, 5).R; v != 0 {
		t.Errorf("Expected dark half to binarize to black, got %d", v)
	}
	if v := nrgba.NRGBAAt(1190, 5).R; v != 255 {
		t.Errorf("Expected bright half to binarize to white, got %d", v)
	}
}

func TestTransform_StretchesDynamicRange(t *testing.T) {
	// Faded receipt: ink at 100, paper at 160. The stretch should push the
	// extremes to (near) full range before the variant enhancement runs.
	out, err := Transform(halfAndHalf(1200, 10, 100, 160), VariantThreshold)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	nrgba := out.(*image.NRGBA)
	if v := nrgba.NRGBAAt(10, 5).R; v != 0 {
		t.Errorf("Expected faded ink to reach black, got %d", v)
	}
	if v := nrgba.NRGBAAt(1190, 5).R; v != 255 {
		t.Errorf("Expected faded paper to reach white, got %d", v)
	}
}

func TestTransform_SourceNotMutated(t *testing.T) {
	src := halfAndHalf(1200, 10, 50, 200)
	before := src.NRGBAAt(10, 5)

	for _, v := range Variants() {
		if _, err := Transform(src, v); err != nil {
			t.Fatalf("Transform(%s) failed: %v", v, err)
		}
		if after := src.NRGBAAt(10, 5); after != before {
			t.Errorf("Variant %s mutated the source image", v)
		}
	}
}

func TestTransform_AllVariantsProduceOutput(t *testing.T) {
	src := halfAndHalf(1200, 10, 50, 200)
	for _, v := range Variants() {
		out, err := Transform(src, v)
		if err != nil {
			t.Errorf("Variant %s failed: %v", v, err)
			continue
		}
		if out == nil || out.Bounds().Dx() == 0 {
			t.Errorf("Variant %s produced no output", v)
		}
	}
}

func TestTransform_UniformImageSurvivesStretch(t *testing.T) {
	// A flat image has no range to stretch; the transform must not divide
	// by zero or error out.
	out, err := Transform(grayImage(1200, 10, 128), VariantDefault)
	if err != nil {
		t.Fatalf("Transform failed on a uniform image: %v", err)
	}
	if out.Bounds().Dx() != 1200 {
		t.Errorf("Unexpected output width %d", out.Bounds().Dx())
	}
}
