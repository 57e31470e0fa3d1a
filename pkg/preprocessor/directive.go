package preprocessor

import (
	"strings"

	"cxxpp/pkg/lexer"
)

// directiveKind is the closed set of recognized directives
type directiveKind int

const (
	directiveUnknown directiveKind = iota
	directiveNull                  // a lone '#'
	directiveDefine
	directiveUndef
	directiveInclude
	directiveIf
	directiveIfdef
	directiveIfndef
	directiveElif
	directiveElse
	directiveEndif
	directiveError
	directiveWarning
	directivePragma
	directiveLine
)

var directiveNames = map[string]directiveKind{
	"define":  directiveDefine,
	"undef":   directiveUndef,
	"include": directiveInclude,
	"if":      directiveIf,
	"ifdef":   directiveIfdef,
	"ifndef":  directiveIfndef,
	"elif":    directiveElif,
	"else":    directiveElse,
	"endif":   directiveEndif,
	"error":   directiveError,
	"warning": directiveWarning,
	"pragma":  directivePragma,
	"line":    directiveLine,
}

// directive is one parsed directive line
type directive struct {
	kind directiveKind
	name string        // directive name as written (for unknown kinds)
	hash lexer.Token   // the introducing '#', for source coordinates
	rest []lexer.Token // tokens after the directive name, newline excluded
}

// parseDirective decides whether a logical line is a directive and
// splits it into its parts. Leading horizontal whitespace before the
// '#' is allowed, as is whitespace between '#' and the name; only a
// preceding non-whitespace token disqualifies the line.
func parseDirective(line []lexer.Token) (*directive, bool) {
	cursor := lexer.NewTokenCursor(line)
	cursor.SkipWhitespace()

	if cursor.Peek().Type != lexer.TokenHash {
		return nil, false
	}
	hash := cursor.Advance()
	cursor.SkipWhitespace()

	nameTok := cursor.Peek()
	if nameTok.Type == lexer.TokenNewline || nameTok.Type == lexer.TokenEOF {
		return &directive{kind: directiveNull, hash: hash}, true
	}
	if nameTok.Type != lexer.TokenIdentifier && !nameTok.IsKeyword() {
		// Malformed: '#' followed by a non-name token
		return &directive{kind: directiveUnknown, name: nameTok.Value, hash: hash}, true
	}
	cursor.Advance()

	kind, known := directiveNames[nameTok.Value]
	if !known {
		kind = directiveUnknown
	}

	var rest []lexer.Token
	for _, tok := range cursor.Rest() {
		if tok.Type == lexer.TokenNewline || tok.Type == lexer.TokenEOF {
			break
		}
		rest = append(rest, tok)
	}

	return &directive{kind: kind, name: nameTok.Value, hash: hash, rest: rest}, true
}

// conditionalFrame is the state of one #if-family nesting level
type conditionalFrame struct {
	live       bool // tokens in the current branch are live
	taken      bool // some branch of this chain has already been taken
	parentLive bool // the enclosing region was live when the frame opened
	sawElse    bool
	file       string
	line       int
}

// isLive reports whether the current region of the unit is live
func (e *Engine) isLive() bool {
	for _, frame := range e.frames {
		if !frame.live {
			return false
		}
	}
	return true
}

// handleDirective dispatches one parsed directive. Conditional
// directives are always processed so that the frame stack stays
// balanced; everything else is ignored inside skipped regions.
func (e *Engine) handleDirective(d *directive) {
	switch d.kind {
	case directiveIf:
		e.handleIf(d)
		return
	case directiveIfdef, directiveIfndef:
		e.handleIfdef(d)
		return
	case directiveElif:
		e.handleElif(d)
		return
	case directiveElse:
		e.handleElse(d)
		return
	case directiveEndif:
		e.handleEndif(d)
		return
	}

	if !e.isLive() {
		return
	}

	switch d.kind {
	case directiveNull:
		// A '#' with nothing after it has no effect
	case directiveDefine:
		e.handleDefine(d)
	case directiveUndef:
		e.handleUndef(d)
	case directiveInclude:
		e.handleInclude(d)
	case directiveError:
		e.report(SeverityError, d.hash, "#error %s", directiveText(d.rest))
	case directiveWarning:
		e.report(SeverityWarning, d.hash, "#warning %s", directiveText(d.rest))
	case directivePragma:
		e.handlePragma(d)
	case directiveLine:
		e.handleLine(d)
	default:
		e.report(SeverityWarning, d.hash, "unknown preprocessor directive '#%s'", d.name)
	}
}

// handleDefine parses and installs a macro definition
func (e *Engine) handleDefine(d *directive) {
	cursor := lexer.NewTokenCursor(d.rest)
	cursor.SkipWhitespace()

	nameTok := cursor.Peek()
	if !isMacroName(nameTok) {
		e.report(SeverityError, d.hash, "expected macro name after #define")
		return
	}
	cursor.Advance()

	def := &MacroDefinition{
		Name: nameTok.Value,
		Kind: MacroObject,
		File: nameTok.File,
		Line: nameTok.Line,
	}

	// Function-like only when '(' is glued to the name; a spaced
	// paren starts the replacement list of an object-like macro.
	next := cursor.Peek()
	if next.Type == lexer.TokenLeftParen && next.Offset == nameTok.Offset+len(nameTok.Value) {
		cursor.Advance()
		def.Kind = MacroFunction
		if !e.parseMacroParams(cursor, def, d) {
			return
		}
	}

	def.Replacement = trimTrivia(cursor.Rest())

	if mismatch := e.macros.Define(def); mismatch {
		e.report(SeverityWarning, nameTok, "macro '%s' redefined with a different replacement list", def.Name)
	}
}

// parseMacroParams parses a function-like parameter list up to the
// closing parenthesis. Returns false when the list is malformed.
func (e *Engine) parseMacroParams(cursor *lexer.TokenCursor, def *MacroDefinition, d *directive) bool {
	expectName := true

	for {
		cursor.SkipWhitespace()
		tok := cursor.Peek()

		switch {
		case tok.Type == lexer.TokenRightParen:
			cursor.Advance()
			return true

		case tok.Type == lexer.TokenEOF || tok.Type == lexer.TokenNewline:
			e.report(SeverityError, d.hash, "unterminated parameter list in definition of macro '%s'", def.Name)
			return false

		case tok.Type == lexer.TokenEllipsis:
			cursor.Advance()
			def.Variadic = true
			cursor.SkipWhitespace()
			if cursor.Peek().Type != lexer.TokenRightParen {
				e.report(SeverityError, d.hash, "'...' must be the last parameter of macro '%s'", def.Name)
				return false
			}

		case isMacroName(tok) && expectName:
			cursor.Advance()
			def.Params = append(def.Params, tok.Value)
			expectName = false

		case tok.Type == lexer.TokenComma && !expectName:
			cursor.Advance()
			expectName = true

		default:
			e.report(SeverityError, d.hash, "malformed parameter list in definition of macro '%s'", def.Name)
			return false
		}
	}
}

// handleUndef removes a macro; undefining an unknown name is fine
func (e *Engine) handleUndef(d *directive) {
	cursor := lexer.NewTokenCursor(d.rest)
	cursor.SkipWhitespace()

	nameTok := cursor.Peek()
	if !isMacroName(nameTok) {
		e.report(SeverityError, d.hash, "expected macro name after #undef")
		return
	}
	e.macros.Undefine(nameTok.Value)
}

// handleIf pushes a conditional frame for #if
func (e *Engine) handleIf(d *directive) {
	parentLive := e.isLive()
	frame := conditionalFrame{
		parentLive: parentLive,
		file:       d.hash.File,
		line:       d.hash.Line,
	}

	// Conditions inside a dead branch are never evaluated: their
	// macros may not exist and evaluation must not have side effects.
	if parentLive {
		frame.live = e.evalDirectiveCondition(d)
		frame.taken = frame.live
	}

	e.frames = append(e.frames, frame)
}

// handleIfdef pushes a conditional frame for #ifdef / #ifndef
func (e *Engine) handleIfdef(d *directive) {
	parentLive := e.isLive()
	frame := conditionalFrame{
		parentLive: parentLive,
		file:       d.hash.File,
		line:       d.hash.Line,
	}

	if parentLive {
		cursor := lexer.NewTokenCursor(d.rest)
		cursor.SkipWhitespace()
		nameTok := cursor.Peek()
		if !isMacroName(nameTok) {
			e.report(SeverityError, d.hash, "expected macro name after #%s", d.name)
		} else {
			defined := e.macros.IsDefined(nameTok.Value)
			if d.kind == directiveIfndef {
				defined = !defined
			}
			frame.live = defined
			frame.taken = defined
		}
	}

	e.frames = append(e.frames, frame)
}

// handleElif re-evaluates the top frame for an #elif branch
func (e *Engine) handleElif(d *directive) {
	if len(e.frames) == 0 {
		e.report(SeverityWarning, d.hash, "#elif without matching #if")
		return
	}
	frame := &e.frames[len(e.frames)-1]

	if frame.sawElse {
		e.report(SeverityWarning, d.hash, "#elif after #else")
		frame.live = false
		return
	}
	if !frame.parentLive || frame.taken {
		frame.live = false
		return
	}

	frame.live = e.evalDirectiveCondition(d)
	frame.taken = frame.live
}

// handleElse flips the top frame for the #else branch
func (e *Engine) handleElse(d *directive) {
	if len(e.frames) == 0 {
		e.report(SeverityWarning, d.hash, "#else without matching #if")
		return
	}
	frame := &e.frames[len(e.frames)-1]

	if frame.sawElse {
		e.report(SeverityWarning, d.hash, "duplicate #else")
		frame.live = false
		return
	}
	frame.sawElse = true
	frame.live = frame.parentLive && !frame.taken
	frame.taken = true
}

// handleEndif pops the top conditional frame. A mismatched #endif is a
// reportable diagnostic, not fatal; processing continues as a no-op.
func (e *Engine) handleEndif(d *directive) {
	if len(e.frames) == 0 {
		e.report(SeverityWarning, d.hash, "#endif without matching #if")
		return
	}
	e.frames = e.frames[:len(e.frames)-1]
}

// evalDirectiveCondition evaluates a #if/#elif controlling expression:
// defined-operator references are resolved first, the remainder is
// macro-expanded, then the result is evaluated as an integer constant
// expression. Malformed expressions report a diagnostic and are false.
func (e *Engine) evalDirectiveCondition(d *directive) bool {
	resolved := e.resolveDefined(d.rest, d.hash)
	expanded := e.expander.ExpandTokens(resolved)

	result, err := evalCondition(expanded)
	if err != nil {
		e.report(SeverityError, d.hash, "%v", err)
		return false
	}
	return result
}

// resolveDefined replaces 'defined NAME' and 'defined(NAME)' with the
// numeric tokens 1 or 0 before macro expansion runs.
func (e *Engine) resolveDefined(tokens []lexer.Token, at lexer.Token) []lexer.Token {
	var out []lexer.Token
	i := 0

	for i < len(tokens) {
		tok := tokens[i]
		if tok.Type != lexer.TokenIdentifier || tok.Value != "defined" {
			out = append(out, tok)
			i++
			continue
		}

		j := i + 1
		for j < len(tokens) && tokens[j].IsTrivia() {
			j++
		}

		parenthesized := j < len(tokens) && tokens[j].Type == lexer.TokenLeftParen
		if parenthesized {
			j++
			for j < len(tokens) && tokens[j].IsTrivia() {
				j++
			}
		}

		if j >= len(tokens) || !isMacroName(tokens[j]) {
			e.report(SeverityError, at, "expected macro name after 'defined'")
			out = append(out, tok)
			i++
			continue
		}
		nameTok := tokens[j]

		if parenthesized {
			j++
			for j < len(tokens) && tokens[j].IsTrivia() {
				j++
			}
			if j >= len(tokens) || tokens[j].Type != lexer.TokenRightParen {
				e.report(SeverityError, at, "missing ')' after 'defined(%s'", nameTok.Value)
				out = append(out, tok)
				i++
				continue
			}
		}

		value := "0"
		if e.macros.IsDefined(nameTok.Value) {
			value = "1"
		}
		out = append(out, lexer.Token{
			Type:   lexer.TokenNumber,
			Value:  value,
			File:   tok.File,
			Line:   tok.Line,
			Column: tok.Column,
		})
		i = j + 1
	}

	return out
}

// directiveText renders the remainder of a directive line as plain
// text with whitespace runs collapsed, for #error/#warning messages.
func directiveText(tokens []lexer.Token) string {
	var sb strings.Builder
	lastWasSpace := true

	for _, tok := range tokens {
		if tok.IsTrivia() {
			if !lastWasSpace {
				sb.WriteByte(' ')
				lastWasSpace = true
			}
			continue
		}
		sb.WriteString(tok.Value)
		lastWasSpace = false
	}
	return strings.TrimSpace(sb.String())
}
