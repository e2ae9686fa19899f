package recognizer

import (
	"go-receipt-recognizer/internal/engine"
	"go-receipt-recognizer/internal/preprocess"
)

// Mode selects the CPU vs accuracy tradeoff for one pipeline invocation.
type Mode string

const (
	ModeLow    Mode = "low"
	ModeMedium Mode = "medium"
	ModeHigh   Mode = "high"
)

// ModeConfig is the immutable per-mode recipe: which preprocessing variants
// to run, which segmentation modes to try per variant, and an advisory
// ceiling on total passes.
type ModeConfig struct {
	Variants  []preprocess.Variant
	SegModes  []engine.SegmentationMode
	MaxPasses int
}

// Adding a mode is a data change here, not a code change anywhere else.
var modeConfigs = map[Mode]ModeConfig{
	ModeLow: {
		Variants:  []preprocess.Variant{preprocess.VariantDefault, preprocess.VariantHighContrast},
		SegModes:  []engine.SegmentationMode{engine.SegSingleBlock},
		MaxPasses: 2,
	},
	ModeMedium: {
		Variants:  []preprocess.Variant{preprocess.VariantDefault, preprocess.VariantHighContrast, preprocess.VariantThreshold},
		SegModes:  []engine.SegmentationMode{engine.SegSingleBlock, engine.SegSingleColumn},
		MaxPasses: 6,
	},
	ModeHigh: {
		Variants: []preprocess.Variant{
			preprocess.VariantDefault,
			preprocess.VariantHighContrast,
			preprocess.VariantThreshold,
			preprocess.VariantSharpen,
			preprocess.VariantDenoise,
		},
		SegModes:  []engine.SegmentationMode{engine.SegSingleBlock, engine.SegSingleColumn, engine.SegAuto},
		MaxPasses: 15,
	},
}

// Config returns the recipe for the mode. Callers must not mutate the
// returned slices.
func (m Mode) Config() ModeConfig {
	cfg, ok := modeConfigs[m]
	if !ok {
		return modeConfigs[ModeMedium]
	}
	return cfg
}

// ModeFromString parses a mode name, defaulting to medium.
func ModeFromString(s string) Mode {
	switch Mode(s) {
	case ModeLow, ModeMedium, ModeHigh:
		return Mode(s)
	default:
		return ModeMedium
	}
}
