package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]string{"img.png"})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.Background != 0x000F {
		t.Errorf("Background = %#04x, want 0x000f", cfg.Background)
	}
	if cfg.Layer != 1 {
		t.Errorf("Layer = %d, want 1", cfg.Layer)
	}
	if cfg.XOffsetSet || cfg.YOffsetSet {
		t.Error("offsets should default to unset (centered)")
	}
	if !cfg.Interactive {
		t.Error("Interactive = false, want true")
	}
	if cfg.Monitor {
		t.Error("Monitor = true, want false")
	}
	if cfg.ImagePath != "img.png" {
		t.Errorf("ImagePath = %q, want img.png", cfg.ImagePath)
	}
}

func TestParseAllFlags(t *testing.T) {
	cfg, err := Parse([]string{
		"-b", "F00F", "-d", "1", "-l", "3", "-x", "-20", "-y", "40",
		"-t", "5000", "-n", "-m", "-r", "127.0.0.1:7500", "img.png",
	})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.Background != 0xF00F {
		t.Errorf("Background = %#04x, want 0xf00f", cfg.Background)
	}
	if cfg.Display != 1 || cfg.Layer != 3 {
		t.Errorf("Display, Layer = %d, %d; want 1, 3", cfg.Display, cfg.Layer)
	}
	if cfg.XOffset != -20 || !cfg.XOffsetSet {
		t.Errorf("XOffset = %d (set=%v), want -20 (set)", cfg.XOffset, cfg.XOffsetSet)
	}
	if cfg.YOffset != 40 || !cfg.YOffsetSet {
		t.Errorf("YOffset = %d (set=%v), want 40 (set)", cfg.YOffset, cfg.YOffsetSet)
	}
	if cfg.TimeoutMs != 5000 {
		t.Errorf("TimeoutMs = %d, want 5000", cfg.TimeoutMs)
	}
	if cfg.Interactive {
		t.Error("Interactive = true with -n, want false")
	}
	if !cfg.Monitor {
		t.Error("Monitor = false with -m, want true")
	}
	if cfg.ControlAddr != "127.0.0.1:7500" {
		t.Errorf("ControlAddr = %q", cfg.ControlAddr)
	}
}

func TestParseStdinDisablesMonitoring(t *testing.T) {
	cfg, err := Parse([]string{"-m", "-"})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.ImagePath != "-" {
		t.Errorf("ImagePath = %q, want -", cfg.ImagePath)
	}
	if cfg.Monitor {
		t.Error("Monitor = true for stdin input, want false")
	}
}

func TestParseMissingImagePath(t *testing.T) {
	if _, err := Parse([]string{"-m"}); err == nil {
		t.Fatal("Parse() without an image path should return an error")
	}
}

func TestParseBadBackground(t *testing.T) {
	for _, bad := range []string{"zzzz", "12345", ""} {
		if _, err := Parse([]string{"-b", bad, "img.png"}); err == nil {
			t.Errorf("Parse(-b %q) should return an error", bad)
		}
	}
}

func TestParseBackground(t *testing.T) {
	tests := []struct {
		in   string
		want uint16
	}{
		{"000F", 0x000F},
		{"0x000F", 0x000F},
		{"0", 0},
		{"FFFF", 0xFFFF},
	}
	for _, tt := range tests {
		got, err := ParseBackground(tt.in)
		if err != nil {
			t.Errorf("ParseBackground(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBackground(%q) = %#04x, want %#04x", tt.in, got, tt.want)
		}
	}
}

func TestYAMLDefaultsApplied(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "defaults.yaml")
	yaml := `
background: "F000"
display: 2
layer: 5
timeout_ms: 30000
control_addr: "127.0.0.1:7500"
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Parse([]string{"-c", path, "img.png"})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.Background != 0xF000 {
		t.Errorf("Background = %#04x, want 0xf000", cfg.Background)
	}
	if cfg.Display != 2 || cfg.Layer != 5 {
		t.Errorf("Display, Layer = %d, %d; want 2, 5", cfg.Display, cfg.Layer)
	}
	if cfg.TimeoutMs != 30000 {
		t.Errorf("TimeoutMs = %d, want 30000", cfg.TimeoutMs)
	}
	if cfg.ControlAddr != "127.0.0.1:7500" {
		t.Errorf("ControlAddr = %q", cfg.ControlAddr)
	}
}

func TestFlagsOverrideYAMLDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "defaults.yaml")
	if err := os.WriteFile(path, []byte("layer: 5\ntimeout_ms: 30000\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Parse([]string{"-c", path, "-l", "9", "img.png"})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.Layer != 9 {
		t.Errorf("Layer = %d, want 9 (explicit flag wins)", cfg.Layer)
	}
	if cfg.TimeoutMs != 30000 {
		t.Errorf("TimeoutMs = %d, want 30000 (from defaults file)", cfg.TimeoutMs)
	}
}

func TestYAMLDefaultsMissingFile(t *testing.T) {
	if _, err := Parse([]string{"-c", "/nonexistent/defaults.yaml", "img.png"}); err == nil {
		t.Fatal("Parse() with a missing defaults file should return an error")
	}
}

func TestYAMLDefaultsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte(":::not yaml"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Parse([]string{"-c", path, "img.png"}); err == nil {
		t.Fatal("Parse() with invalid defaults YAML should return an error")
	}
}
