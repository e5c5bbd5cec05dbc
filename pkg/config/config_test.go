package config

import (
	"testing"

	"stackc/pkg/compiler"
)

func TestLoadDefaults(t *testing.T) {
	for _, name := range []string{"STACKC_TARGET", "STACKC_MAX_SCOPES", "STACKC_MAX_SYMBOLS", "STACKC_MAX_NAME", "STACKC_STEP_LIMIT", "STACKC_VERBOSE"} {
		t.Setenv(name, "")
	}
	t.Setenv("STACKC_HISTORY", "/tmp/hist")

	cfg := Load()
	if cfg.Target != "nasm" {
		t.Errorf("Target: expected nasm, got %q", cfg.Target)
	}
	if cfg.Limits != compiler.DefaultLimits {
		t.Errorf("Limits: expected %+v, got %+v", compiler.DefaultLimits, cfg.Limits)
	}
	if cfg.StepLimit != 10_000_000 {
		t.Errorf("StepLimit: got %d", cfg.StepLimit)
	}
	if cfg.Verbose {
		t.Errorf("Verbose: expected false")
	}
	if cfg.History != "/tmp/hist" {
		t.Errorf("History: got %q", cfg.History)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STACKC_TARGET", "stack")
	t.Setenv("STACKC_MAX_SCOPES", "0")
	t.Setenv("STACKC_MAX_SYMBOLS", "4")
	t.Setenv("STACKC_MAX_NAME", "8")
	t.Setenv("STACKC_STEP_LIMIT", "500")
	t.Setenv("STACKC_VERBOSE", "true")

	cfg := Load()
	if cfg.Target != "stack" {
		t.Errorf("Target: got %q", cfg.Target)
	}
	want := compiler.Limits{MaxScopes: 0, MaxSymbols: 4, MaxNameLength: 8}
	if cfg.Limits != want {
		t.Errorf("Limits: expected %+v, got %+v", want, cfg.Limits)
	}
	if cfg.StepLimit != 500 {
		t.Errorf("StepLimit: got %d", cfg.StepLimit)
	}
	if !cfg.Verbose {
		t.Errorf("Verbose: expected true")
	}
}

func TestLoadSeesLaterChanges(t *testing.T) {
	t.Setenv("STACKC_TARGET", "nasm")
	t.Setenv("STACKC_MAX_SYMBOLS", "")
	if cfg := Load(); cfg.Target != "nasm" || cfg.Limits.MaxSymbols != compiler.DefaultLimits.MaxSymbols {
		t.Fatalf("first Load: %+v", cfg)
	}

	t.Setenv("STACKC_TARGET", "stack")
	t.Setenv("STACKC_MAX_SYMBOLS", "4")
	cfg := Load()
	if cfg.Target != "stack" {
		t.Errorf("Target: expected stack after the change, got %q", cfg.Target)
	}
	if cfg.Limits.MaxSymbols != 4 {
		t.Errorf("MaxSymbols: expected 4 after the change, got %d", cfg.Limits.MaxSymbols)
	}
}
