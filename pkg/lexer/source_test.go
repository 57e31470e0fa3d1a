package lexer

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeLineEndings(t *testing.T) {
	got, err := NormalizeSource("a\r\nb\rc\n")
	if err != nil {
		t.Fatalf("NormalizeSource: %v", err)
	}
	if diff := cmp.Diff("a\nb\nc\n", got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeStripsBOM(t *testing.T) {
	got, err := NormalizeSource("\ufeffint x;")
	if err != nil {
		t.Fatalf("NormalizeSource: %v", err)
	}
	if got != "int x;" {
		t.Errorf("BOM not stripped: %q", got)
	}
}

func TestNormalizeRejectsInvalidUTF8(t *testing.T) {
	if _, err := NormalizeSource("int \xff x;"); err == nil {
		t.Error("expected an error for invalid UTF-8 input")
	}
}

func TestNormalizeTrigraphs(t *testing.T) {
	got, err := NormalizeSource("??=define A ??< ??> ??!")
	if err != nil {
		t.Fatalf("NormalizeSource: %v", err)
	}
	if got != "#define A { } |" {
		t.Errorf("trigraphs not replaced: %q", got)
	}
}

func TestNormalizeLineSplicing(t *testing.T) {
	input := "#define LONG \\\n  1 + \\\n  2\nnext\n"

	got, err := NormalizeSource(input)
	if err != nil {
		t.Fatalf("NormalizeSource: %v", err)
	}

	// The definition becomes one logical line
	firstLine := got[:strings.IndexByte(got, '\n')]
	if firstLine != "#define LONG   1 +   2" {
		t.Errorf("continuation not spliced: %q", firstLine)
	}

	// Spliced newlines are re-emitted so the line count is unchanged
	if strings.Count(got, "\n") != strings.Count(input, "\n") {
		t.Errorf("line count changed: %d -> %d",
			strings.Count(input, "\n"), strings.Count(got, "\n"))
	}

	// "next" still starts on its original physical line
	wantLine := 1 + strings.Count(input[:strings.Index(input, "next")], "\n")
	tokens := NewTokenizer("s.c", got).Tokenize()
	for _, tok := range tokens {
		if tok.Value == "next" && tok.Line != wantLine {
			t.Errorf("token 'next' on line %d, want %d", tok.Line, wantLine)
		}
	}
}

func TestNormalizeSpliceAtEOF(t *testing.T) {
	got, err := NormalizeSource("a \\\n")
	if err != nil {
		t.Fatalf("NormalizeSource: %v", err)
	}
	if got != "a \n" {
		t.Errorf("trailing continuation mishandled: %q", got)
	}
}
