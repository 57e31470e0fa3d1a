package preprocessor

import (
	"fmt"
	"os"
	"strings"

	"cxxpp/pkg/lexer"
)

// DefaultMaxIncludeDepth bounds include nesting when the configuration
// does not say otherwise.
const DefaultMaxIncludeDepth = 64

// Config is the external configuration bundle for one engine
type Config struct {
	// SearchPaths is the ordered include search-path list
	SearchPaths []string
	// Defines are initial macro predefinitions (-D equivalents);
	// an empty value defines the macro as 1
	Defines map[string]string
	// MaxIncludeDepth limits include nesting; 0 means the default
	MaxIncludeDepth int
	// PragmaPassthrough emits unrecognized #pragma directives into the
	// output stream instead of dropping them
	PragmaPassthrough bool
	// KeepComments retains comment tokens in the output stream
	KeepComments bool
}

// Engine preprocesses one translation unit: the top-level file plus
// everything it transitively includes. It owns the macro table, the
// conditional stack and the diagnostics list; nothing is shared
// between engines, so separate units may run on separate goroutines.
// Within a unit processing is strictly sequential.
type Engine struct {
	cfg      Config
	macros   *MacroTable
	expander *Expander
	resolver *IncludeResolver
	frames   []conditionalFrame
	diags    []Diagnostic
	out      []lexer.Token
	pending  []lexer.Token
	files    []*fileState
}

// fileState is per-file presentation state, mutated by #line
type fileState struct {
	physicalPath string
	displayFile  string
	lineDelta    int
}

// NewEngine creates an engine for a single translation unit
func NewEngine(cfg Config) *Engine {
	if cfg.MaxIncludeDepth <= 0 {
		cfg.MaxIncludeDepth = DefaultMaxIncludeDepth
	}

	e := &Engine{
		cfg:      cfg,
		macros:   NewMacroTable(),
		resolver: NewIncludeResolver(cfg.SearchPaths, cfg.MaxIncludeDepth),
	}
	e.expander = NewExpander(e.macros, e.report)

	for name, value := range cfg.Defines {
		e.macros.Predefine(name, value)
	}
	return e
}

// Macros exposes the unit's macro table for inspection
func (e *Engine) Macros() *MacroTable {
	return e.macros
}

// Diagnostics returns the diagnostics collected so far, in order
func (e *Engine) Diagnostics() []Diagnostic {
	return e.diags
}

// HasErrors reports whether any error-severity diagnostic was produced
func (e *Engine) HasErrors() bool {
	for _, d := range e.diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Preprocess runs the engine over the translation unit rooted at path
// and returns the macro-expanded, conditionally-pruned token stream.
// An unreadable or undecodable top-level file is the one fatal case;
// everything else surfaces through Diagnostics.
func (e *Engine) Preprocess(path string) ([]lexer.Token, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return e.PreprocessSource(path, string(content))
}

// PreprocessSource runs the engine over in-memory source text. The
// filename is used for token coordinates and quoted-include lookup.
func (e *Engine) PreprocessSource(filename, content string) ([]lexer.Token, error) {
	normalized, err := lexer.NormalizeSource(content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}

	if err := e.resolver.Push(filename); err != nil {
		return nil, fmt.Errorf("cannot process %s: %w", filename, err)
	}
	e.processFile(filename, normalized)
	e.resolver.Pop()

	e.flushPending()

	// One diagnostic per conditional frame still open at end of unit
	for i := len(e.frames) - 1; i >= 0; i-- {
		frame := e.frames[i]
		e.diags = append(e.diags, Diagnostic{
			Severity: SeverityError,
			Message:  "unterminated conditional directive",
			File:     frame.file,
			Line:     frame.line,
		})
	}
	e.frames = nil

	return e.out, nil
}

// processFile tokenizes one file and walks it line by line. It is
// re-entered for every resolved #include; macro and conditional state
// lives on the engine and persists across the boundary.
func (e *Engine) processFile(path, content string) {
	state := &fileState{physicalPath: path, displayFile: path}
	e.files = append(e.files, state)
	defer func() { e.files = e.files[:len(e.files)-1] }()

	tokenizer := lexer.NewTokenizer(path, content)
	tokens := tokenizer.Tokenize()
	for _, errTok := range tokenizer.GetErrors() {
		e.report(SeverityError, e.remap(errTok), "%s", errTok.Value)
	}

	var line []lexer.Token
	for _, tok := range tokens {
		if tok.Type == lexer.TokenError {
			continue
		}
		if tok.Type == lexer.TokenEOF {
			break
		}
		line = append(line, tok)
		if tok.Type == lexer.TokenNewline {
			e.processLine(line)
			line = nil
		}
	}
	if len(line) > 0 {
		e.processLine(line)
	}
}

// processLine handles one logical line: directives drive the engine
// state, live text lines accumulate for expansion, skipped lines drop.
func (e *Engine) processLine(line []lexer.Token) {
	remapped := make([]lexer.Token, len(line))
	for i, tok := range line {
		remapped[i] = e.remap(tok)
	}

	if d, ok := parseDirective(remapped); ok {
		// Expand what came before so output order is preserved
		// across includes.
		e.flushPending()
		e.handleDirective(d)
		return
	}

	if !e.isLive() {
		return
	}
	e.pending = append(e.pending, remapped...)
}

// flushPending macro-expands the accumulated live tokens and moves the
// significant results to the output stream. Buffering until a directive
// boundary lets function-like invocations span physical lines.
func (e *Engine) flushPending() {
	if len(e.pending) == 0 {
		return
	}
	expanded := e.expander.ExpandTokens(e.pending)
	e.pending = nil

	for _, tok := range expanded {
		switch tok.Type {
		case lexer.TokenWhitespace, lexer.TokenNewline, lexer.TokenError, lexer.TokenEOF:
			continue
		case lexer.TokenLineComment, lexer.TokenBlockComment:
			if !e.cfg.KeepComments {
				continue
			}
		}
		e.out = append(e.out, tok)
	}
}

// remap applies the current #line file/line overrides to a token
func (e *Engine) remap(tok lexer.Token) lexer.Token {
	if len(e.files) == 0 {
		return tok
	}
	state := e.files[len(e.files)-1]
	tok.File = state.displayFile
	tok.Line += state.lineDelta
	return tok
}

// report records one diagnostic at the token's (remapped) location
func (e *Engine) report(sev Severity, tok lexer.Token, format string, args ...interface{}) {
	e.diags = append(e.diags, Diagnostic{
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
		File:     tok.File,
		Line:     tok.Line,
	})
}

// handleInclude resolves and processes an #include directive. Failures
// are diagnostics: an unresolved or cyclic include is skipped and the
// including file continues.
func (e *Engine) handleInclude(d *directive) {
	name, angled, ok := e.includeTarget(d)
	if !ok {
		return
	}

	includingFile := ""
	if len(e.files) > 0 {
		includingFile = e.files[len(e.files)-1].physicalPath
	}

	resolved, found := e.resolver.Resolve(name, angled, includingFile)
	if !found {
		e.report(SeverityError, d.hash, "include file not found: %s", includeSpelling(name, angled))
		return
	}

	if e.resolver.SeenOnce(resolved) {
		return
	}

	if err := e.resolver.Push(resolved); err != nil {
		e.report(SeverityError, d.hash, "%v", err)
		return
	}
	defer e.resolver.Pop()

	content, err := os.ReadFile(resolved)
	if err != nil {
		e.report(SeverityError, d.hash, "failed to read include %s: %v", resolved, err)
		return
	}
	normalized, err := lexer.NormalizeSource(string(content))
	if err != nil {
		e.report(SeverityError, d.hash, "failed to decode include %s: %v", resolved, err)
		return
	}

	e.processFile(resolved, normalized)
	e.flushPending()
}

// includeTarget extracts the include path and kind from the directive,
// macro-expanding the operand when it is not a plain header name.
func (e *Engine) includeTarget(d *directive) (name string, angled bool, ok bool) {
	tokens := significantTokens(d.rest)
	if len(tokens) == 0 {
		e.report(SeverityError, d.hash, "#include expects a file name")
		return "", false, false
	}

	// A macro may produce the header name ("#include HEADER")
	if tokens[0].Type != lexer.TokenString && tokens[0].Type != lexer.TokenLess {
		tokens = significantTokens(e.expander.ExpandTokens(tokens))
		if len(tokens) == 0 {
			e.report(SeverityError, d.hash, "#include expects a file name")
			return "", false, false
		}
	}

	if tokens[0].Type == lexer.TokenString {
		text := tokens[0].Value
		if len(text) < 2 {
			e.report(SeverityError, d.hash, "malformed include file name %s", text)
			return "", false, false
		}
		return text[1 : len(text)-1], false, true
	}

	if tokens[0].Type == lexer.TokenLess {
		var sb strings.Builder
		closed := false
		for _, tok := range tokens[1:] {
			if tok.Type == lexer.TokenGreater {
				closed = true
				break
			}
			sb.WriteString(tok.Value)
		}
		if !closed || sb.Len() == 0 {
			e.report(SeverityError, d.hash, "malformed #include directive")
			return "", false, false
		}
		return sb.String(), true, true
	}

	e.report(SeverityError, d.hash, "#include expects \"file\" or <file>")
	return "", false, false
}

func includeSpelling(name string, angled bool) string {
	if angled {
		return "<" + name + ">"
	}
	return `"` + name + `"`
}

// handlePragma applies #pragma once and otherwise drops or passes the
// directive through per configuration.
func (e *Engine) handlePragma(d *directive) {
	tokens := significantTokens(d.rest)

	if len(tokens) > 0 && tokens[0].Type == lexer.TokenIdentifier && tokens[0].Value == "once" {
		if len(e.files) > 0 {
			e.resolver.MarkOnce(e.files[len(e.files)-1].physicalPath)
		}
		return
	}

	if e.cfg.PragmaPassthrough {
		// Re-emit the directive as opaque tokens for the consumer
		e.out = append(e.out, d.hash)
		e.out = append(e.out, lexer.Token{
			Type:   lexer.TokenIdentifier,
			Value:  "pragma",
			File:   d.hash.File,
			Line:   d.hash.Line,
			Column: d.hash.Column + 1,
		})
		e.out = append(e.out, tokens...)
	}
}

// handleLine applies a #line directive: subsequent tokens in this file
// report the overridden line number and, optionally, file name.
func (e *Engine) handleLine(d *directive) {
	tokens := significantTokens(e.expander.ExpandTokens(d.rest))
	if len(tokens) == 0 || tokens[0].Type != lexer.TokenNumber {
		e.report(SeverityError, d.hash, "#line expects a line number")
		return
	}

	target, err := parseIntegerLiteral(tokens[0].Value)
	if err != nil {
		e.report(SeverityError, d.hash, "invalid line number '%s' in #line", tokens[0].Value)
		return
	}

	if len(e.files) == 0 {
		return
	}
	state := e.files[len(e.files)-1]

	// The directive names the line number of the NEXT physical line.
	// d.hash.Line is already remapped; undo that to find the physical
	// line the delta must be computed from.
	physicalLine := d.hash.Line - state.lineDelta
	state.lineDelta = int(target) - (physicalLine + 1)

	if len(tokens) > 1 {
		if tokens[1].Type != lexer.TokenString || len(tokens[1].Value) < 2 {
			e.report(SeverityError, d.hash, "#line expects a file name string")
			return
		}
		state.displayFile = tokens[1].Value[1 : len(tokens[1].Value)-1]
	}
}
