package preprocessor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cxxpp/pkg/lexer"

	"github.com/google/go-cmp/cmp"
)

// runPP preprocesses in-memory source under the given configuration and
// fails the test on a fatal engine error.
func runPP(t *testing.T, cfg Config, source string) (*Engine, []lexer.Token) {
	t.Helper()
	engine := NewEngine(cfg)
	tokens, err := engine.PreprocessSource("test.cpp", source)
	if err != nil {
		t.Fatalf("PreprocessSource: %v", err)
	}
	return engine, tokens
}

// lexemes projects a token stream to its lexeme strings
func lexemes(tokens []lexer.Token) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, tok.Value)
	}
	return out
}

// joined renders a token stream as space-separated lexemes
func joined(tokens []lexer.Token) string {
	return strings.Join(lexemes(tokens), " ")
}

func TestPreprocessMacroFreePassthrough(t *testing.T) {
	source := "int main() {\n    return 0;\n}\n"

	_, got := runPP(t, Config{}, source)

	var want []string
	for _, tok := range lexer.NewTokenizer("test.cpp", source).Tokenize() {
		if tok.IsTrivia() || tok.Type == lexer.TokenEOF {
			continue
		}
		want = append(want, tok.Value)
	}

	if diff := cmp.Diff(want, lexemes(got)); diff != "" {
		t.Errorf("passthrough mismatch (-want +got):\n%s", diff)
	}
}

func TestPreprocessCoordinatesSurvive(t *testing.T) {
	source := "int x;\nint y;\n"

	_, tokens := runPP(t, Config{}, source)

	for _, tok := range tokens {
		if tok.File != "test.cpp" {
			t.Errorf("token %q carries file %q, want test.cpp", tok.Value, tok.File)
		}
	}
	if tokens[0].Line != 1 || tokens[3].Line != 2 {
		t.Errorf("line numbers lost: %v", tokens)
	}
}

func TestPreprocessMultiLineInvocation(t *testing.T) {
	source := "#define ADD(a, b) a + b\nADD(1,\n    2)\n"

	engine, tokens := runPP(t, Config{}, source)

	if got := joined(tokens); got != "1 + 2" {
		t.Errorf("got %q, want %q", got, "1 + 2")
	}
	if len(engine.Diagnostics()) != 0 {
		t.Errorf("unexpected diagnostics: %v", engine.Diagnostics())
	}
}

func TestPreprocessBuiltinMacros(t *testing.T) {
	source := "a = __LINE__;\nb = __LINE__;\nf = __FILE__;\n"

	_, tokens := runPP(t, Config{}, source)

	got := joined(tokens)
	want := `a = 1 ; b = 2 ; f = "test.cpp" ;`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPreprocessCounterIncrements(t *testing.T) {
	source := "__COUNTER__ __COUNTER__ __COUNTER__\n"

	_, tokens := runPP(t, Config{}, source)

	if got := joined(tokens); got != "0 1 2" {
		t.Errorf("got %q, want %q", got, "0 1 2")
	}
}

func TestPreprocessLineDirective(t *testing.T) {
	source := "#line 100\nint x;\n#line 7 \"other.c\"\nint y;\n"

	_, tokens := runPP(t, Config{}, source)

	byValue := make(map[string]lexer.Token)
	for _, tok := range tokens {
		byValue[tok.Value] = tok
	}

	if tok := byValue["x"]; tok.Line != 100 || tok.File != "test.cpp" {
		t.Errorf("x at %s:%d, want test.cpp:100", tok.File, tok.Line)
	}
	if tok := byValue["y"]; tok.Line != 7 || tok.File != "other.c" {
		t.Errorf("y at %s:%d, want other.c:7", tok.File, tok.Line)
	}
}

func TestPreprocessLineDirectiveAffectsLineMacro(t *testing.T) {
	source := "#line 50\n__LINE__\n"

	_, tokens := runPP(t, Config{}, source)

	if got := joined(tokens); got != "50" {
		t.Errorf("__LINE__ after #line = %q, want 50", got)
	}
}

func TestPreprocessCommentsDroppedByDefault(t *testing.T) {
	source := "x // trailing\n/* leading */ y\n"

	_, tokens := runPP(t, Config{}, source)

	if got := joined(tokens); got != "x y" {
		t.Errorf("got %q, want %q", got, "x y")
	}
}

func TestPreprocessKeepComments(t *testing.T) {
	source := "x // trailing\n"

	_, tokens := runPP(t, Config{KeepComments: true}, source)

	want := []string{"x", "// trailing"}
	if diff := cmp.Diff(want, lexemes(tokens)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestPreprocessPredefines(t *testing.T) {
	cfg := Config{Defines: map[string]string{"N": "3", "FLAG": ""}}
	source := "#if FLAG\nN\n#endif\n"

	_, tokens := runPP(t, cfg, source)

	if got := joined(tokens); got != "3" {
		t.Errorf("got %q, want %q", got, "3")
	}
}

func TestPreprocessPragmaDroppedByDefault(t *testing.T) {
	source := "#pragma pack(1)\nx\n"

	engine, tokens := runPP(t, Config{}, source)

	if got := joined(tokens); got != "x" {
		t.Errorf("got %q, want %q", got, "x")
	}
	if len(engine.Diagnostics()) != 0 {
		t.Errorf("unexpected diagnostics: %v", engine.Diagnostics())
	}
}

func TestPreprocessPragmaPassthrough(t *testing.T) {
	source := "#pragma pack(1)\n"

	_, tokens := runPP(t, Config{PragmaPassthrough: true}, source)

	if got := joined(tokens); got != "# pragma pack ( 1 )" {
		t.Errorf("got %q, want %q", got, "# pragma pack ( 1 )")
	}
}

func TestPreprocessTokenizerErrorsBecomeDiagnostics(t *testing.T) {
	source := "int x;\n\"unterminated\n"

	engine, _ := runPP(t, Config{}, source)

	if !engine.HasErrors() {
		t.Error("expected an error diagnostic for the unterminated string")
	}
}

func TestPreprocessDiagnosticFormat(t *testing.T) {
	diag := Diagnostic{
		Severity: SeverityError,
		Message:  "something broke",
		File:     "a.h",
		Line:     12,
	}
	if got := diag.String(); got != "a.h:12: error: something broke" {
		t.Errorf("String() = %q", got)
	}
}

func TestPreprocessSplicedDirective(t *testing.T) {
	source := "#define VAL \\\n    42\nVAL\n"

	_, tokens := runPP(t, Config{}, source)

	if got := joined(tokens); got != "42" {
		t.Errorf("got %q, want %q", got, "42")
	}
}

func TestPreprocessFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.c")
	if err := os.WriteFile(path, []byte("#define A 1\nA\n"), 0644); err != nil {
		t.Fatal(err)
	}

	engine := NewEngine(Config{})
	tokens, err := engine.Preprocess(path)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if got := joined(tokens); got != "1" {
		t.Errorf("got %q, want %q", got, "1")
	}
}

func TestPreprocessMissingFileIsFatal(t *testing.T) {
	engine := NewEngine(Config{})
	if _, err := engine.Preprocess(filepath.Join(t.TempDir(), "nope.c")); err == nil {
		t.Error("expected an error for a missing top-level file")
	}
}

// Separate engines share nothing, so translation units can run on
// separate goroutines.
func TestPreprocessEnginesAreIndependent(t *testing.T) {
	sources := []string{
		"#define ID 1\nID\n",
		"#define ID 2\nID\n",
		"#define ID 3\nID\n",
	}
	results := make([]string, len(sources))

	done := make(chan int)
	for i, src := range sources {
		go func(i int, src string) {
			engine := NewEngine(Config{})
			tokens, err := engine.PreprocessSource("unit.c", src)
			if err == nil {
				results[i] = joined(tokens)
			}
			done <- i
		}(i, src)
	}
	for range sources {
		<-done
	}

	if diff := cmp.Diff([]string{"1", "2", "3"}, results); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
