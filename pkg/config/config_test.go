package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config for a missing file, got %+v", cfg)
	}
}

func TestLoadFullConfig(t *testing.T) {
	dir := t.TempDir()
	content := `include_paths:
  - include
  - /usr/local/include
defines:
  DEBUG: "1"
  VERSION: "3"
max_include_depth: 16
pragma_passthrough: true
keep_comments: true
strict: true
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected a config")
	}

	want := &Config{
		IncludePaths:      []string{"include", "/usr/local/include"},
		Defines:           map[string]string{"DEBUG": "1", "VERSION": "3"},
		MaxIncludeDepth:   16,
		PragmaPassthrough: true,
		KeepComments:      true,
		Strict:            true,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(":\tnot yaml"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); err == nil {
		t.Error("expected an error for malformed YAML")
	}
}

func TestEngineResolvesRelativePaths(t *testing.T) {
	cfg := &Config{
		IncludePaths:    []string{"include", "/abs/include"},
		MaxIncludeDepth: 8,
	}

	engineCfg := cfg.Engine("/project/src")

	want := []string{
		filepath.Join("/project/src", "include"),
		"/abs/include",
	}
	if diff := cmp.Diff(want, engineCfg.SearchPaths); diff != "" {
		t.Errorf("search paths mismatch (-want +got):\n%s", diff)
	}
	if engineCfg.MaxIncludeDepth != 8 {
		t.Errorf("MaxIncludeDepth = %d, want 8", engineCfg.MaxIncludeDepth)
	}
}
