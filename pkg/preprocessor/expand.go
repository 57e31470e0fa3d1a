package preprocessor

import (
	"strconv"
	"strings"
	"time"

	"cxxpp/pkg/lexer"
)

// tokenPlaceholder marks an empty argument substitution next to a ##
// operator. Placeholders never leave the expander.
const tokenPlaceholder lexer.TokenType = -1

// Expander rewrites live tokens by macro expansion. It owns the set of
// macro names currently being expanded (the "blue paint" that stops
// self-referential macros from looping forever).
type Expander struct {
	macros  *MacroTable
	hideset map[string]bool
	counter int
	report  func(sev Severity, tok lexer.Token, format string, args ...interface{})
}

// NewExpander creates an expander over the given macro table. The
// report callback receives every diagnostic the expander produces.
func NewExpander(macros *MacroTable, report func(sev Severity, tok lexer.Token, format string, args ...interface{})) *Expander {
	return &Expander{
		macros:  macros,
		hideset: make(map[string]bool),
		report:  report,
	}
}

// isMacroName reports whether a token can reference a macro. Keywords
// qualify: C headers routinely define macros whose names collide with
// C++ keywords.
func isMacroName(tok lexer.Token) bool {
	return tok.Type == lexer.TokenIdentifier || tok.IsKeyword()
}

// ExpandTokens expands all macro references in the token sequence and
// returns the rewritten sequence. Tokens produced by expansion carry an
// Origin chain back to the reference token.
func (e *Expander) ExpandTokens(tokens []lexer.Token) []lexer.Token {
	return e.expand(tokens, nil)
}

func (e *Expander) expand(tokens []lexer.Token, parentHideset map[string]bool) []lexer.Token {
	var result []lexer.Token
	i := 0

	for i < len(tokens) {
		tok := tokens[i]

		if !isMacroName(tok) {
			result = append(result, tok)
			i++
			continue
		}

		if expanded, ok := e.expandBuiltin(tok); ok {
			result = append(result, expanded...)
			i++
			continue
		}

		macro := e.macros.Lookup(tok.Value)
		if macro == nil {
			result = append(result, tok)
			i++
			continue
		}

		// Blue paint: a name already being expanded is emitted
		// literally, never re-expanded.
		if e.hideset[tok.Value] || (parentHideset != nil && parentHideset[tok.Value]) {
			result = append(result, tok)
			i++
			continue
		}

		if macro.Kind == MacroFunction {
			parenIdx := i + 1
			for parenIdx < len(tokens) && tokens[parenIdx].IsTrivia() {
				parenIdx++
			}
			if parenIdx >= len(tokens) || tokens[parenIdx].Type != lexer.TokenLeftParen {
				// No '(' follows - not a macro invocation
				result = append(result, tok)
				i++
				continue
			}

			args, endIdx, ok := e.collectArguments(tokens, parenIdx)
			if !ok {
				e.report(SeverityError, tok, "unterminated argument list invoking macro '%s'", tok.Value)
				result = append(result, tok)
				i++
				continue
			}
			e.checkArgCount(macro, args, tok)

			result = append(result, e.expandFunction(macro, args, tok)...)
			i = endIdx + 1
			continue
		}

		result = append(result, e.expandObject(macro, tok)...)
		i++
	}

	return result
}

// expandBuiltin handles the dynamic predefined macros
func (e *Expander) expandBuiltin(tok lexer.Token) ([]lexer.Token, bool) {
	origin := tok
	mk := func(tokenType lexer.TokenType, value string) []lexer.Token {
		return []lexer.Token{{
			Type:   tokenType,
			Value:  value,
			File:   tok.File,
			Line:   tok.Line,
			Column: tok.Column,
			Offset: tok.Offset,
			Origin: &origin,
		}}
	}

	switch tok.Value {
	case "__FILE__":
		return mk(lexer.TokenString, `"`+tok.File+`"`), true
	case "__LINE__":
		return mk(lexer.TokenNumber, strconv.Itoa(tok.Line)), true
	case "__DATE__":
		return mk(lexer.TokenString, `"`+time.Now().Format("Jan _2 2006")+`"`), true
	case "__TIME__":
		return mk(lexer.TokenString, `"`+time.Now().Format("15:04:05")+`"`), true
	case "__COUNTER__":
		n := e.counter
		e.counter++
		return mk(lexer.TokenNumber, strconv.Itoa(n)), true
	}
	return nil, false
}

// expandObject expands an object-like macro reference
func (e *Expander) expandObject(macro *MacroDefinition, ref lexer.Token) []lexer.Token {
	e.hideset[macro.Name] = true
	defer delete(e.hideset, macro.Name)

	origin := ref
	replacement := make([]lexer.Token, 0, len(macro.Replacement))
	for _, tok := range macro.Replacement {
		tok.Origin = &origin
		replacement = append(replacement, tok)
	}

	replacement = e.paste(replacement, ref)
	return e.expand(replacement, e.hideset)
}

// expandFunction expands a function-like macro invocation
func (e *Expander) expandFunction(macro *MacroDefinition, args [][]lexer.Token, ref lexer.Token) []lexer.Token {
	origin := ref

	paramMap := make(map[string][]lexer.Token)
	for i, param := range macro.Params {
		if i < len(args) {
			paramMap[param] = args[i]
		} else {
			paramMap[param] = nil
		}
	}
	if macro.Variadic {
		paramMap["__VA_ARGS__"] = joinVariadic(args, len(macro.Params), ref)
	}

	// Arguments used outside #/## positions are expanded once, before
	// the macro's own name is painted, so a nested invocation of the
	// same macro inside an argument still expands.
	preExpanded := make(map[string][]lexer.Token)
	for i, tok := range macro.Replacement {
		if !isMacroName(tok) {
			continue
		}
		argTokens, isParam := paramMap[tok.Value]
		if !isParam {
			continue
		}
		if _, done := preExpanded[tok.Value]; done {
			continue
		}
		before := precedingType(macro.Replacement, i)
		if before == lexer.TokenHash || before == lexer.TokenHashHash || pasteAfter(macro.Replacement, i) {
			continue
		}
		preExpanded[tok.Value] = e.expand(argTokens, e.hideset)
	}

	e.hideset[macro.Name] = true
	defer delete(e.hideset, macro.Name)

	replacement := macro.Replacement
	var result []lexer.Token
	i := 0

	for i < len(replacement) {
		tok := replacement[i]

		// Stringize: # followed by a parameter name
		if tok.Type == lexer.TokenHash {
			nextIdx := i + 1
			for nextIdx < len(replacement) && replacement[nextIdx].IsTrivia() {
				nextIdx++
			}
			if nextIdx < len(replacement) && isMacroName(replacement[nextIdx]) {
				if argTokens, ok := paramMap[replacement[nextIdx].Value]; ok {
					result = append(result, stringize(argTokens, ref))
					i = nextIdx + 1
					continue
				}
			}
		}

		// Parameter substitution
		if isMacroName(tok) {
			if argTokens, ok := paramMap[tok.Value]; ok {
				adjacentToPaste := pasteBefore(result) || pasteAfter(replacement, i)

				var sub []lexer.Token
				if adjacentToPaste {
					// Operands of ## are substituted unexpanded
					sub = argTokens
					if len(significantTokens(sub)) == 0 {
						sub = []lexer.Token{{Type: tokenPlaceholder, File: ref.File, Line: ref.Line}}
					}
				} else {
					sub = preExpanded[tok.Value]
				}
				for _, st := range sub {
					st.Origin = &origin
					result = append(result, st)
				}
				i++
				continue
			}
		}

		tok.Origin = &origin
		result = append(result, tok)
		i++
	}

	result = e.paste(result, ref)
	return e.expand(result, e.hideset)
}

// collectArguments gathers the argument token sequences of a
// function-like invocation. startIdx points at '('. Top-level commas
// separate arguments; commas inside nested parentheses do not.
func (e *Expander) collectArguments(tokens []lexer.Token, startIdx int) (args [][]lexer.Token, endIdx int, ok bool) {
	i := startIdx + 1
	var current []lexer.Token
	depth := 1

	for i < len(tokens) {
		tok := tokens[i]

		switch tok.Type {
		case lexer.TokenLeftParen:
			depth++
			current = append(current, tok)
		case lexer.TokenRightParen:
			depth--
			if depth == 0 {
				if len(current) > 0 || len(args) > 0 {
					args = append(args, trimTrivia(current))
				}
				return args, i, true
			}
			current = append(current, tok)
		case lexer.TokenComma:
			if depth == 1 {
				args = append(args, trimTrivia(current))
				current = nil
			} else {
				current = append(current, tok)
			}
		default:
			current = append(current, tok)
		}
		i++
	}

	return nil, 0, false
}

// checkArgCount reports invocations whose argument count cannot bind
// to the macro's parameter list.
func (e *Expander) checkArgCount(macro *MacroDefinition, args [][]lexer.Token, ref lexer.Token) {
	expected := len(macro.Params)
	if macro.Variadic {
		if len(args) < expected {
			e.report(SeverityError, ref, "macro '%s' requires at least %d arguments, got %d",
				macro.Name, expected, len(args))
		}
		return
	}
	// A single empty argument satisfies a zero-parameter macro
	if expected == 0 && len(args) == 1 && len(args[0]) == 0 {
		return
	}
	if len(args) != expected {
		e.report(SeverityError, ref, "macro '%s' requires %d arguments, got %d",
			macro.Name, expected, len(args))
	}
}

// joinVariadic binds all trailing actual arguments to __VA_ARGS__,
// comma-joined. Zero variadic arguments yield an empty substitution.
// Synthesized joiner tokens carry the invoking reference's coordinates.
func joinVariadic(args [][]lexer.Token, numParams int, ref lexer.Token) []lexer.Token {
	if len(args) <= numParams {
		return nil
	}
	origin := ref
	var result []lexer.Token
	for i, arg := range args[numParams:] {
		if i > 0 {
			result = append(result, lexer.Token{
				Type:   lexer.TokenComma,
				Value:  ",",
				File:   ref.File,
				Line:   ref.Line,
				Column: ref.Column,
				Origin: &origin,
			})
			result = append(result, lexer.Token{
				Type:   lexer.TokenWhitespace,
				Value:  " ",
				File:   ref.File,
				Line:   ref.Line,
				Column: ref.Column,
				Origin: &origin,
			})
		}
		result = append(result, arg...)
	}
	return result
}

// precedingType returns the kind of the significant token immediately
// before index i in the replacement list.
func precedingType(tokens []lexer.Token, i int) lexer.TokenType {
	for j := i - 1; j >= 0; j-- {
		if tokens[j].IsTrivia() {
			continue
		}
		return tokens[j].Type
	}
	return lexer.TokenEOF
}

// stringize converts an unexpanded argument token sequence into a
// single string-literal token: internal whitespace collapses to single
// spaces, quotes and backslashes are escaped.
func stringize(tokens []lexer.Token, ref lexer.Token) lexer.Token {
	origin := ref
	var sb strings.Builder
	sb.WriteByte('"')

	lastWasSpace := true // skip leading space
	for _, tok := range tokens {
		if tok.IsTrivia() {
			if !lastWasSpace {
				sb.WriteByte(' ')
				lastWasSpace = true
			}
			continue
		}
		lastWasSpace = false

		if tok.Type == lexer.TokenString || tok.Type == lexer.TokenCharLiteral {
			for _, c := range tok.Value {
				if c == '"' || c == '\\' {
					sb.WriteByte('\\')
				}
				sb.WriteRune(c)
			}
		} else {
			sb.WriteString(tok.Value)
		}
	}

	text := strings.TrimSuffix(sb.String(), " ") + `"`
	return lexer.Token{
		Type:   lexer.TokenString,
		Value:  text,
		File:   ref.File,
		Line:   ref.Line,
		Column: ref.Column,
		Origin: &origin,
	}
}

// paste applies the ## operator: adjacent operand lexemes are joined
// and the joined text is re-tokenized. A join that does not form a
// single valid token is a reportable diagnostic; its pieces are emitted
// as they re-tokenize, best effort.
func (e *Expander) paste(tokens []lexer.Token, ref lexer.Token) []lexer.Token {
	hasPaste := false
	for _, tok := range tokens {
		if tok.Type == lexer.TokenHashHash {
			hasPaste = true
			break
		}
	}
	if !hasPaste {
		return dropPlaceholders(tokens)
	}

	origin := ref
	var result []lexer.Token
	i := 0

	for i < len(tokens) {
		tok := tokens[i]

		if tok.Type != lexer.TokenHashHash {
			result = append(result, tok)
			i++
			continue
		}

		// Strip trivia between the left operand and ##
		for len(result) > 0 && result[len(result)-1].IsTrivia() {
			result = result[:len(result)-1]
		}
		if len(result) == 0 {
			e.report(SeverityError, ref, "'##' cannot appear at start of macro replacement list")
			i++
			continue
		}

		nextIdx := i + 1
		for nextIdx < len(tokens) && tokens[nextIdx].IsTrivia() {
			nextIdx++
		}
		if nextIdx >= len(tokens) {
			e.report(SeverityError, ref, "'##' cannot appear at end of macro replacement list")
			break
		}

		left := result[len(result)-1]
		right := tokens[nextIdx]
		result = result[:len(result)-1]

		switch {
		case left.Type == tokenPlaceholder:
			result = append(result, right)
		case right.Type == tokenPlaceholder:
			result = append(result, left)
		default:
			joined := left.Value + right.Value
			pasted := tokenizeFragment(ref.File, joined)
			if len(pasted) != 1 {
				e.report(SeverityError, ref, "pasting '%s' and '%s' does not give a valid preprocessing token",
					left.Value, right.Value)
			}
			for _, pt := range pasted {
				pt.File = ref.File
				pt.Line = ref.Line
				pt.Column = ref.Column
				pt.Origin = &origin
				result = append(result, pt)
			}
		}

		i = nextIdx + 1
	}

	return dropPlaceholders(result)
}

// dropPlaceholders removes internal placeholder tokens
func dropPlaceholders(tokens []lexer.Token) []lexer.Token {
	var out []lexer.Token
	for _, tok := range tokens {
		if tok.Type != tokenPlaceholder {
			out = append(out, tok)
		}
	}
	return out
}

// pasteBefore reports whether the last significant token already in
// the result is the ## operator.
func pasteBefore(result []lexer.Token) bool {
	for i := len(result) - 1; i >= 0; i-- {
		if result[i].IsTrivia() {
			continue
		}
		return result[i].Type == lexer.TokenHashHash
	}
	return false
}

// pasteAfter reports whether the next significant token in the
// replacement list after index i is the ## operator.
func pasteAfter(replacement []lexer.Token, i int) bool {
	for j := i + 1; j < len(replacement); j++ {
		if replacement[j].IsTrivia() {
			continue
		}
		return replacement[j].Type == lexer.TokenHashHash
	}
	return false
}

// trimTrivia removes leading and trailing trivia from a token slice
func trimTrivia(tokens []lexer.Token) []lexer.Token {
	start := 0
	for start < len(tokens) && tokens[start].IsTrivia() {
		start++
	}
	end := len(tokens)
	for end > start && tokens[end-1].IsTrivia() {
		end--
	}
	if start >= end {
		return nil
	}
	return tokens[start:end]
}
