package preprocessor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTree materializes a map of relative path -> content under dir
func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func preprocessFile(t *testing.T, cfg Config, path string) (*Engine, string) {
	t.Helper()
	engine := NewEngine(cfg)
	tokens, err := engine.Preprocess(path)
	if err != nil {
		t.Fatalf("Preprocess(%s): %v", path, err)
	}
	return engine, joined(tokens)
}

func TestIncludeQuoted(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"defs.h": "#define GREETING hello\n",
		"main.c": "#include \"defs.h\"\nGREETING\n",
	})

	engine, got := preprocessFile(t, Config{}, filepath.Join(dir, "main.c"))

	if got != "hello" {
		t.Errorf("got %q, want hello", got)
	}
	if len(engine.Diagnostics()) != 0 {
		t.Errorf("unexpected diagnostics: %v", engine.Diagnostics())
	}
}

func TestIncludeQuotedPrefersIncludingDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"src/h.h": "#define WHERE local\n",
		"inc/h.h": "#define WHERE searchpath\n",
		"src/a.c": "#include \"h.h\"\nWHERE\n",
	})

	cfg := Config{SearchPaths: []string{filepath.Join(dir, "inc")}}
	_, got := preprocessFile(t, cfg, filepath.Join(dir, "src", "a.c"))

	if got != "local" {
		t.Errorf("got %q, want local", got)
	}
}

func TestIncludeAngledSkipsIncludingDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"src/h.h": "#define WHERE local\n",
		"inc/h.h": "#define WHERE searchpath\n",
		"src/a.c": "#include <h.h>\nWHERE\n",
	})

	cfg := Config{SearchPaths: []string{filepath.Join(dir, "inc")}}
	_, got := preprocessFile(t, cfg, filepath.Join(dir, "src", "a.c"))

	if got != "searchpath" {
		t.Errorf("got %q, want searchpath", got)
	}
}

func TestIncludeSearchPathOrder(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"first/h.h":  "#define N 1\n",
		"second/h.h": "#define N 2\n",
		"a.c":        "#include <h.h>\nN\n",
	})

	cfg := Config{SearchPaths: []string{
		filepath.Join(dir, "first"),
		filepath.Join(dir, "second"),
	}}
	_, got := preprocessFile(t, cfg, filepath.Join(dir, "a.c"))

	if got != "1" {
		t.Errorf("got %q, want 1", got)
	}
}

func TestIncludeNotFound(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a.c": "#include \"missing.h\"\nafter\n",
	})

	engine, got := preprocessFile(t, Config{}, filepath.Join(dir, "a.c"))

	if !engine.HasErrors() {
		t.Fatal("expected an error diagnostic")
	}
	diag := engine.Diagnostics()[0]
	if !strings.Contains(diag.Message, `"missing.h"`) {
		t.Errorf("diagnostic does not name the include: %v", diag)
	}
	// The including file continues after the failed include
	if got != "after" {
		t.Errorf("got %q, want after", got)
	}
}

func TestIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a.h": "#include \"b.h\"\ntoken_a\n",
		"b.h": "#include \"a.h\"\ntoken_b\n",
	})

	engine, got := preprocessFile(t, Config{}, filepath.Join(dir, "a.h"))

	found := false
	for _, d := range engine.Diagnostics() {
		if d.Severity == SeverityError && strings.Contains(d.Message, "cycle") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a cycle diagnostic, got %v", engine.Diagnostics())
	}
	// The cyclic edge is skipped; both files still contribute tokens
	if got != "token_b token_a" {
		t.Errorf("got %q, want %q", got, "token_b token_a")
	}
}

func TestIncludeDepthLimit(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a.h": "#include \"b.h\"\n",
		"b.h": "#include \"c.h\"\n",
		"c.h": "deep\n",
	})

	engine, got := preprocessFile(t, Config{MaxIncludeDepth: 2}, filepath.Join(dir, "a.h"))

	found := false
	for _, d := range engine.Diagnostics() {
		if d.Severity == SeverityError && strings.Contains(d.Message, "nested too deeply") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a depth diagnostic, got %v", engine.Diagnostics())
	}
	if got != "" {
		t.Errorf("got %q, want empty output", got)
	}
}

func TestIncludePragmaOnce(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"once.h": "#pragma once\nmarker\n",
		"a.c":    "#include \"once.h\"\n#include \"once.h\"\n",
	})

	engine, got := preprocessFile(t, Config{}, filepath.Join(dir, "a.c"))

	if got != "marker" {
		t.Errorf("got %q, want a single marker", got)
	}
	if len(engine.Diagnostics()) != 0 {
		t.Errorf("unexpected diagnostics: %v", engine.Diagnostics())
	}
}

func TestIncludeGuardPattern(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"guard.h": "#ifndef GUARD_H\n#define GUARD_H\nmarker\n#endif\n",
		"a.c":     "#include \"guard.h\"\n#include \"guard.h\"\n",
	})

	_, got := preprocessFile(t, Config{}, filepath.Join(dir, "a.c"))

	if got != "marker" {
		t.Errorf("got %q, want a single marker", got)
	}
}

func TestIncludeMacroExpandedTarget(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"defs.h": "#define X 9\n",
		"a.c":    "#define HDR \"defs.h\"\n#include HDR\nX\n",
	})

	_, got := preprocessFile(t, Config{}, filepath.Join(dir, "a.c"))

	if got != "9" {
		t.Errorf("got %q, want 9", got)
	}
}

func TestIncludeMacrosPersistAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"config.h": "#define FEATURE 1\n",
		"a.c":      "#include \"config.h\"\n#if FEATURE\nenabled\n#endif\n",
	})

	_, got := preprocessFile(t, Config{}, filepath.Join(dir, "a.c"))

	if got != "enabled" {
		t.Errorf("got %q, want enabled", got)
	}
}

func TestIncludeNestedQuotedResolution(t *testing.T) {
	// A quoted include inside an included file resolves relative to
	// that file, not the top-level unit.
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"sub/outer.h": "#include \"inner.h\"\n",
		"sub/inner.h": "nested\n",
		"a.c":         "#include \"sub/outer.h\"\n",
	})

	_, got := preprocessFile(t, Config{}, filepath.Join(dir, "a.c"))

	if got != "nested" {
		t.Errorf("got %q, want nested", got)
	}
}

func TestIncludeMalformedDirective(t *testing.T) {
	for _, source := range []string{"#include\n", "#include <unclosed\n", "#include 42\n"} {
		engine, _ := runPP(t, Config{}, source)
		if !engine.HasErrors() {
			t.Errorf("source %q: expected an error diagnostic", source)
		}
	}
}

func TestResolverPushPop(t *testing.T) {
	r := NewIncludeResolver(nil, 3)

	if err := r.Push("/tmp/a.h"); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if r.Depth() != 1 {
		t.Errorf("Depth = %d, want 1", r.Depth())
	}
	if err := r.Push("/tmp/a.h"); err == nil {
		t.Error("expected a cycle error for re-pushing an active file")
	}
	r.Pop()
	if r.Depth() != 0 {
		t.Errorf("Depth after Pop = %d, want 0", r.Depth())
	}
	// Popping an empty stack is a no-op
	r.Pop()
}

func TestResolverDepthLimit(t *testing.T) {
	r := NewIncludeResolver(nil, 2)

	if err := r.Push("/tmp/a.h"); err != nil {
		t.Fatal(err)
	}
	if err := r.Push("/tmp/b.h"); err != nil {
		t.Fatal(err)
	}
	if err := r.Push("/tmp/c.h"); err == nil {
		t.Error("expected a depth-limit error")
	}
}

func TestResolverOnceMarks(t *testing.T) {
	r := NewIncludeResolver(nil, 8)

	if r.SeenOnce("/tmp/x.h") {
		t.Error("unmarked file reported as seen")
	}
	r.MarkOnce("/tmp/x.h")
	if !r.SeenOnce("/tmp/x.h") {
		t.Error("marked file not reported as seen")
	}
}
