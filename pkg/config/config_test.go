package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.LLM.Model == "" {
		t.Error("default LLM model is empty")
	}
	if cfg.Physics.SpringLength != 80 {
		t.Errorf("SpringLength = %v, want 80", cfg.Physics.SpringLength)
	}
	if cfg.Physics.Repulsion != 2000 {
		t.Errorf("Repulsion = %v, want 2000", cfg.Physics.Repulsion)
	}
	if cfg.Viewer.MinScale <= 0 || cfg.Viewer.MaxScale <= cfg.Viewer.MinScale {
		t.Errorf("scale bounds invalid: min=%v max=%v", cfg.Viewer.MinScale, cfg.Viewer.MaxScale)
	}
	if cfg.Cache.Backend != "file" {
		t.Errorf("Cache.Backend = %q, want file", cfg.Cache.Backend)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Error("Load of missing file != Default()")
	}
}

func TestLoadPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[llm]
model = "local-model"

[physics]
repulsion = 900.0
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Model != "local-model" {
		t.Errorf("LLM.Model = %q, want local-model", cfg.LLM.Model)
	}
	if cfg.Physics.Repulsion != 900 {
		t.Errorf("Repulsion = %v, want 900", cfg.Physics.Repulsion)
	}
	// Untouched fields keep their defaults.
	if cfg.Physics.SpringLength != 80 {
		t.Errorf("SpringLength = %v, want default 80", cfg.Physics.SpringLength)
	}
	if cfg.LLM.BaseURL != Default().LLM.BaseURL {
		t.Errorf("BaseURL = %q, want default", cfg.LLM.BaseURL)
	}
}

func TestLoadRejectsBadBaseURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[llm]
base_url = "ftp://example.com/v1"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load with a non-http base_url: want error, got nil")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not [valid toml"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load of malformed file: want error, got nil")
	}
}

func TestPathUsesXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	path, err := Path()
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	want := filepath.Join("/tmp/xdg-test", "knowdes", "config.toml")
	if path != want {
		t.Errorf("Path = %q, want %q", path, want)
	}
}

func TestAPIKey(t *testing.T) {
	t.Setenv("KNOWDES_TEST_KEY", "secret")

	l := LLM{APIKeyEnv: "KNOWDES_TEST_KEY"}
	if got := l.APIKey(); got != "secret" {
		t.Errorf("APIKey = %q, want secret", got)
	}

	l.APIKeyEnv = ""
	if got := l.APIKey(); got != "" {
		t.Errorf("APIKey with empty env name = %q, want empty", got)
	}
}
