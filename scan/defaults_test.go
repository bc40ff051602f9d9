package scan

import "testing"

func TestWithDefaultsFillsUnsetFields(t *testing.T) {
	cfg := Config{URL: "https://example.com/"}.WithDefaults()

	if cfg.MaxConcurrent <= 0 {
		t.Error("MaxConcurrent should default to a positive value")
	}
	if cfg.MaxPages <= 0 {
		t.Error("MaxPages should default to a positive value")
	}
	if cfg.TimeoutMs <= 0 {
		t.Error("TimeoutMs should default to a positive value")
	}
	if len(cfg.ExcludeProtocols) == 0 {
		t.Error("ExcludeProtocols should default to a non-empty list")
	}
}

func TestWithDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := Config{URL: "https://example.com/", MaxConcurrent: 3, MaxPages: 5}.WithDefaults()
	if cfg.MaxConcurrent != 3 {
		t.Errorf("MaxConcurrent = %d, want 3", cfg.MaxConcurrent)
	}
	if cfg.MaxPages != 5 {
		t.Errorf("MaxPages = %d, want 5", cfg.MaxPages)
	}
}
