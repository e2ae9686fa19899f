package recognizer

import (
	"testing"

	"go-receipt-recognizer/internal/engine"
	"go-receipt-recognizer/internal/preprocess"
)

func TestModeConfigs(t *testing.T) {
	tests := []struct {
		mode      Mode
		variants  int
		segModes  int
		maxPasses int
	}{
		{ModeLow, 2, 1, 2},
		{ModeMedium, 3, 2, 6},
		{ModeHigh, 5, 3, 15},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			cfg := tt.mode.Config()
			if len(cfg.Variants) != tt.variants {
				t.Errorf("Expected %d variants, got %d", tt.variants, len(cfg.Variants))
			}
			if len(cfg.SegModes) != tt.segModes {
				t.Errorf("Expected %d segmentation modes, got %d", tt.segModes, len(cfg.SegModes))
			}
			if cfg.MaxPasses != tt.maxPasses {
				t.Errorf("Expected ceiling %d, got %d", tt.maxPasses, cfg.MaxPasses)
			}
		})
	}
}

func TestModeConfig_EveryModeStartsWithDefaultSingleBlock(t *testing.T) {
	for _, mode := range []Mode{ModeLow, ModeMedium, ModeHigh} {
		cfg := mode.Config()
		if cfg.Variants[0] != preprocess.VariantDefault {
			t.Errorf("Mode %s: expected default variant first, got %s", mode, cfg.Variants[0])
		}
		if cfg.SegModes[0] != engine.SegSingleBlock {
			t.Errorf("Mode %s: expected single block first, got %s", mode, cfg.SegModes[0])
		}
	}
}

func TestModeConfig_UnknownFallsBackToMedium(t *testing.T) {
	cfg := Mode("turbo").Config()
	if cfg.MaxPasses != ModeMedium.Config().MaxPasses {
		t.Errorf("Expected medium recipe for unknown mode, got ceiling %d", cfg.MaxPasses)
	}
}

func TestModeFromString(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"low", ModeLow},
		{"medium", ModeMedium},
		{"high", ModeHigh},
		{"", ModeMedium},
		{"bogus", ModeMedium},
	}

	for _, tt := range tests {
		if got := ModeFromString(tt.in); got != tt.want {
			t.Errorf("ModeFromString(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
