package cmd

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

// execute runs the CLI with the given arguments, discarding its output
func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		preprocessCmd.Flags().Set("strict", "false")
	})
	return rootCmd.Execute()
}

func TestPreprocessStrictFailsOnErrorDiagnostics(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.c")
	if err := os.WriteFile(path, []byte("#error broken build\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := execute(t, "preprocess", "--strict", path); err == nil {
		t.Error("expected strict mode to fail when an error diagnostic exists")
	}
}

func TestPreprocessNonStrictSucceedsOnErrorDiagnostics(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.c")
	if err := os.WriteFile(path, []byte("#error broken build\nint x;\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := execute(t, "preprocess", path); err != nil {
		t.Errorf("non-strict run failed: %v", err)
	}
}

func TestParseDefineFlag(t *testing.T) {
	tests := []struct {
		arg   string
		name  string
		value string
	}{
		{"DEBUG", "DEBUG", ""},
		{"VERSION=3", "VERSION", "3"},
		{"MSG=a=b", "MSG", "a=b"},
		{"EMPTY=", "EMPTY", ""},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			name, value := parseDefineFlag(tt.arg)
			if name != tt.name || value != tt.value {
				t.Errorf("parseDefineFlag(%q) = (%q, %q), want (%q, %q)",
					tt.arg, name, value, tt.name, tt.value)
			}
		})
	}
}
