package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config failed validation: %v", err)
	}

	if cfg.Risk.SingleStockPct != 15 {
		t.Errorf("Expected single stock threshold 15, got %f", cfg.Risk.SingleStockPct)
	}
	if cfg.Drag.ReplaceCutoff != 80 {
		t.Errorf("Expected replace cutoff 80, got %f", cfg.Drag.ReplaceCutoff)
	}
	if cfg.Decision.MaxActions != 3 {
		t.Errorf("Expected max actions 3, got %d", cfg.Decision.MaxActions)
	}
	if len(cfg.Sectors.Captains) == 0 {
		t.Error("Expected default sector captains to be populated")
	}
}

func TestValidateRejectsBadDataSource(t *testing.T) {
	cfg := Default()
	cfg.DataSource = "STREAMING"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for unknown data_source")
	}
}

func TestValidateRejectsBadDragWeights(t *testing.T) {
	cfg := Default()
	cfg.Drag.WeightThesis = 0.9
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error when drag weights do not sum to 1")
	}
}

func TestValidateRejectsInvertedValuationTiers(t *testing.T) {
	cfg := Default()
	cfg.Valuation.OvervaluedRatio = 3.0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for non-increasing valuation tiers")
	}
}

func TestLoadConfigOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := []byte("data_source: LIVE\nrisk:\n  single_stock_pct: 20\n")
	if err := os.WriteFile(path, yaml, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.DataSource != "LIVE" {
		t.Errorf("Expected overlaid data_source LIVE, got %s", cfg.DataSource)
	}
	if cfg.Risk.SingleStockPct != 20 {
		t.Errorf("Expected overlaid threshold 20, got %f", cfg.Risk.SingleStockPct)
	}
	// Untouched knobs keep their defaults.
	if cfg.Risk.Top3Pct != 45 {
		t.Errorf("Expected default top3 threshold 45, got %f", cfg.Risk.Top3Pct)
	}
	if len(cfg.Sectors.Map) == 0 {
		t.Error("Expected sector map to survive the overlay")
	}
}

func TestSectorOfFallbacks(t *testing.T) {
	cfg := Default()

	if got := cfg.SectorOf("HDFCBANK", ""); got != "Financials" {
		t.Errorf("Expected static map hit Financials, got %s", got)
	}
	if got := cfg.SectorOf("UNMAPPED", "Specialty Pharmaceuticals"); got != "Healthcare" {
		t.Errorf("Expected keyword classifier Healthcare, got %s", got)
	}
	if got := cfg.SectorOf("UNMAPPED", ""); got != "Unknown" {
		t.Errorf("Expected Unknown for unmapped symbol, got %s", got)
	}
}
