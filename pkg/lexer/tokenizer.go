// Package lexer - tokenizer implementation for C/C++ source text
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// literalPrefixes are the encoding prefixes that may precede a string
// or character literal. A trailing R marks a raw string.
var literalPrefixes = map[string]bool{
	"L": true, "u": true, "U": true, "u8": true,
	"R": true, "LR": true, "uR": true, "UR": true, "u8R": true,
}

// Tokenizer represents the tokenizer state
type Tokenizer struct {
	input       string
	file        string
	pos         int // current position in input
	line        int // current line number
	column      int // current column number
	width       int // width of last rune read
	start       int // start position of current token
	startLine   int // line where the current token starts
	startColumn int // column where the current token starts
	tokens      []Token
	maxTokens   int // Maximum number of tokens to prevent OOM
}

// NewTokenizer creates a new tokenizer for normalized source text.
// The file name is attached to every produced token.
func NewTokenizer(file, input string) *Tokenizer {
	const maxTokensLimit = 1000000 // Prevent OOM from too many tokens
	return &Tokenizer{
		input:     input,
		file:      file,
		line:      1,
		column:    1,
		tokens:    make([]Token, 0, 1024),
		maxTokens: maxTokensLimit,
	}
}

// next reads the next rune and advances position
func (t *Tokenizer) next() rune {
	if t.pos >= len(t.input) {
		t.width = 0
		return 0
	}

	r, w := utf8.DecodeRuneInString(t.input[t.pos:])
	t.width = w
	t.pos += w

	if r == '\n' {
		t.line++
		t.column = 1
	} else {
		t.column++
	}

	return r
}

// backup steps back one rune
func (t *Tokenizer) backup() {
	t.pos -= t.width
	if t.pos < len(t.input) && t.input[t.pos] == '\n' {
		t.line--
		// Recalculate column by scanning back to start of line
		col := 1
		for i := t.pos - 1; i >= 0 && t.input[i] != '\n'; i-- {
			col++
		}
		t.column = col
	} else {
		t.column--
	}
}

// peek returns the next rune without advancing position
func (t *Tokenizer) peek() rune {
	r := t.next()
	if r != 0 {
		t.backup()
	}
	return r
}

// peekN returns the nth rune ahead without advancing position
func (t *Tokenizer) peekN(n int) rune {
	pos := t.pos
	line := t.line
	column := t.column
	width := t.width

	var r rune
	for i := 0; i < n; i++ {
		r = t.next()
		if r == 0 {
			break
		}
	}

	t.pos = pos
	t.line = line
	t.column = column
	t.width = width

	return r
}

// emit creates a token and adds it to the tokens slice
func (t *Tokenizer) emit(tokenType TokenType) {
	if len(t.tokens) >= t.maxTokens {
		if tokenType != TokenError {
			t.tokens = append(t.tokens, Token{
				Type:   TokenError,
				Value:  "too many tokens - possible infinite loop or memory exhaustion",
				File:   t.file,
				Line:   t.line,
				Column: t.column,
				Offset: t.start,
			})
		}
		return
	}

	t.tokens = append(t.tokens, Token{
		Type:   tokenType,
		Value:  t.input[t.start:t.pos],
		File:   t.file,
		Line:   t.startLine,
		Column: t.startColumn,
		Offset: t.start,
	})
	t.start = t.pos
}

// emitError creates an error token
func (t *Tokenizer) emitError(message string) {
	t.tokens = append(t.tokens, Token{
		Type:   TokenError,
		Value:  message,
		File:   t.file,
		Line:   t.startLine,
		Column: t.startColumn,
		Offset: t.start,
	})
	t.start = t.pos
}

// Tokenize processes the input and returns all tokens. Tokenizing the
// same input twice yields the same token sequence.
func (t *Tokenizer) Tokenize() []Token {
	iterations := 0
	const maxIterations = 10000000 // Prevent infinite loops

	for t.pos < len(t.input) {
		iterations++
		if iterations > maxIterations {
			t.emitError("tokenizer exceeded maximum iterations - possible infinite loop")
			break
		}

		oldPos := t.pos
		t.startLine = t.line
		t.startColumn = t.column

		r := t.next()

		switch {
		case r == 0:
			return t.appendEOF()

		case r == '\n':
			t.emit(TokenNewline)

		case unicode.IsSpace(r):
			t.scanWhitespace()

		case r == '/':
			if !t.scanComment() {
				t.scanSlashOperator()
			}

		case r == '#':
			t.scanHash()

		case r == '"':
			t.scanString()

		case r == '\'':
			t.scanChar()

		case unicode.IsLetter(r) || r == '_':
			t.scanIdentifier()

		case unicode.IsDigit(r):
			t.scanNumber(r)

		case r == '.' && unicode.IsDigit(t.peek()):
			t.scanNumber(r)

		default:
			t.scanOperator()
		}

		// Safeguard: Ensure position advanced
		if t.pos == oldPos {
			t.emitError(fmt.Sprintf("tokenizer stuck at position %d", t.pos))
			t.pos++
		}

		if len(t.tokens) >= t.maxTokens {
			break
		}
	}

	if len(t.tokens) < t.maxTokens {
		return t.appendEOF()
	}
	return t.tokens
}

func (t *Tokenizer) appendEOF() []Token {
	return append(t.tokens, Token{
		Type:   TokenEOF,
		File:   t.file,
		Line:   t.line,
		Column: t.column,
		Offset: t.pos,
	})
}

// HasErrors returns true if the tokenizer encountered any errors
func (t *Tokenizer) HasErrors() bool {
	for _, token := range t.tokens {
		if token.Type == TokenError {
			return true
		}
	}
	return false
}

// GetErrors returns all error tokens
func (t *Tokenizer) GetErrors() []Token {
	var errors []Token
	for _, token := range t.tokens {
		if token.Type == TokenError {
			errors = append(errors, token)
		}
	}
	return errors
}

// scanWhitespace scans a run of horizontal whitespace
func (t *Tokenizer) scanWhitespace() {
	for {
		r := t.peek()
		if !unicode.IsSpace(r) || r == '\n' || r == 0 {
			break
		}
		t.next()
	}
	t.emit(TokenWhitespace)
}

// scanSlashOperator handles the / character that wasn't part of a comment
func (t *Tokenizer) scanSlashOperator() {
	if t.peek() == '=' {
		t.next()
		t.emit(TokenSlashEquals)
	} else {
		t.emit(TokenSlash)
	}
}

// scanComment scans comments and returns true if a comment was found
func (t *Tokenizer) scanComment() bool {
	// We've already consumed one '/'
	switch t.peek() {
	case '/':
		t.next()
		for {
			r := t.next()
			if r == 0 {
				break
			}
			if r == '\n' {
				t.backup()
				break
			}
		}
		t.emit(TokenLineComment)
		return true

	case '*':
		t.next()
		for {
			r := t.next()
			if r == 0 {
				t.emitError("unterminated block comment")
				return true
			}
			if r == '*' && t.peek() == '/' {
				t.next()
				break
			}
		}
		t.emit(TokenBlockComment)
		return true
	}
	return false
}

// scanHash scans the # and ## punctuators. No whitespace is required
// between the punctuator and whatever follows it: "#define" lexes as
// HASH IDENTIFIER and "##a" as HASH_HASH IDENTIFIER.
func (t *Tokenizer) scanHash() {
	if t.peek() == '#' {
		t.next()
		t.emit(TokenHashHash)
	} else {
		t.emit(TokenHash)
	}
}

// scanString scans a string literal (the opening quote is consumed)
func (t *Tokenizer) scanString() {
	for {
		r := t.next()
		if r == 0 || r == '\n' {
			t.emitError("unterminated string literal")
			return
		}
		if r == '"' {
			break
		}
		if r == '\\' {
			if t.next() == 0 {
				t.emitError("unterminated string literal - EOF after escape")
				return
			}
		}
	}
	t.emit(TokenString)
}

// scanRawString scans a raw string literal R"delim( ... )delim".
// The opening quote is already consumed.
func (t *Tokenizer) scanRawString() {
	var delim strings.Builder
	for {
		r := t.next()
		if r == 0 || r == '\n' {
			t.emitError("malformed raw string delimiter")
			return
		}
		if r == '(' {
			break
		}
		delim.WriteRune(r)
	}

	terminator := ")" + delim.String() + `"`
	end := strings.Index(t.input[t.pos:], terminator)
	if end < 0 {
		t.pos = len(t.input)
		t.emitError("unterminated raw string literal")
		return
	}
	target := t.pos + end + len(terminator)
	for t.pos < target {
		t.next()
	}
	t.emit(TokenString)
}

// scanChar scans a character literal (the opening quote is consumed)
func (t *Tokenizer) scanChar() {
	for {
		r := t.next()
		if r == 0 || r == '\n' {
			t.emitError("unterminated character literal")
			return
		}
		if r == '\'' {
			break
		}
		if r == '\\' {
			if t.next() == 0 {
				t.emitError("unterminated character literal - EOF after escape")
				return
			}
		}
	}
	t.emit(TokenCharLiteral)
}

// scanIdentifier scans an identifier, keyword or prefixed literal
func (t *Tokenizer) scanIdentifier() {
	for {
		r := t.peek()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		t.next()
	}

	value := t.input[t.start:t.pos]

	// Encoding prefix glued to a string or character literal: the
	// prefix belongs to the literal token (L"...", u8"...", R"(...)").
	if literalPrefixes[value] {
		switch t.peek() {
		case '"':
			t.next()
			if strings.HasSuffix(value, "R") {
				t.scanRawString()
			} else {
				t.scanString()
			}
			return
		case '\'':
			if !strings.HasSuffix(value, "R") {
				t.next()
				t.scanChar()
				return
			}
		}
	}

	t.emit(LookupKeyword(value))
}

// scanNumber scans a numeric literal. The first character (a digit, or
// a dot followed by a digit) is already consumed. Hex, octal and binary
// prefixes, digit separators, exponents and literal suffixes are all
// part of the token.
func (t *Tokenizer) scanNumber(first rune) {
	if first == '0' && (t.peek() == 'x' || t.peek() == 'X') {
		t.next()
		t.scanDigits(isHexDigit)
		if t.peek() == '.' {
			t.next()
			t.scanDigits(isHexDigit)
		}
		// Hex floats use a p/P exponent
		if r := t.peek(); r == 'p' || r == 'P' {
			t.scanExponent()
		}
	} else if first == '0' && (t.peek() == 'b' || t.peek() == 'B') {
		t.next()
		t.scanDigits(isBinaryDigit)
	} else {
		t.scanDigits(isDecimalDigit)
		if first != '.' && t.peek() == '.' {
			t.next()
			t.scanDigits(isDecimalDigit)
		}
		if r := t.peek(); r == 'e' || r == 'E' {
			t.scanExponent()
		}
	}

	// Integer/float suffixes (u, l, ll, f and combinations)
	for {
		r := t.peek()
		if r != 'u' && r != 'U' && r != 'l' && r != 'L' && r != 'f' && r != 'F' {
			break
		}
		t.next()
	}

	t.emit(TokenNumber)
}

// scanDigits consumes a run of digits, allowing ' separators between them
func (t *Tokenizer) scanDigits(isDigit func(rune) bool) {
	for {
		r := t.peek()
		if isDigit(r) {
			t.next()
			continue
		}
		if r == '\'' && isDigit(t.peekN(2)) {
			t.next()
			t.next()
			continue
		}
		break
	}
}

// scanExponent consumes an e/E/p/P exponent with its optional sign
func (t *Tokenizer) scanExponent() {
	t.next()
	if r := t.peek(); r == '+' || r == '-' {
		t.next()
	}
	t.scanDigits(isDecimalDigit)
}

func isDecimalDigit(r rune) bool { return r >= '0' && r <= '9' }
func isBinaryDigit(r rune) bool  { return r == '0' || r == '1' }
func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// scanOperator scans operators and punctuation, always preferring the
// longest match (<<= over << over <).
func (t *Tokenizer) scanOperator() {
	r := t.input[t.pos-1] // Current character (already consumed)

	switch r {
	case '(':
		t.emit(TokenLeftParen)
	case ')':
		t.emit(TokenRightParen)
	case '{':
		t.emit(TokenLeftBrace)
	case '}':
		t.emit(TokenRightBrace)
	case '[':
		t.emit(TokenLeftBracket)
	case ']':
		t.emit(TokenRightBracket)
	case ';':
		t.emit(TokenSemicolon)
	case ',':
		t.emit(TokenComma)
	case '\\':
		t.emit(TokenBackslash)
	case '?':
		t.emit(TokenQuestion)
	case '~':
		t.emit(TokenTilde)

	case ':':
		if t.peek() == ':' {
			t.next()
			t.emit(TokenDoubleColon)
		} else {
			t.emit(TokenColon)
		}

	case '.':
		if t.peek() == '*' {
			t.next()
			t.emit(TokenDotStar)
		} else if t.peek() == '.' && t.peekN(2) == '.' {
			t.next()
			t.next()
			t.emit(TokenEllipsis)
		} else {
			t.emit(TokenDot)
		}

	case '=':
		if t.peek() == '=' {
			t.next()
			t.emit(TokenDoubleEquals)
		} else {
			t.emit(TokenEquals)
		}

	case '!':
		if t.peek() == '=' {
			t.next()
			t.emit(TokenNotEquals)
		} else {
			t.emit(TokenExclamation)
		}

	case '<':
		switch t.peek() {
		case '=':
			t.next()
			t.emit(TokenLessEqual)
		case '<':
			t.next()
			if t.peek() == '=' {
				t.next()
				t.emit(TokenLeftShiftEquals)
			} else {
				t.emit(TokenLeftShift)
			}
		default:
			t.emit(TokenLess)
		}

	case '>':
		switch t.peek() {
		case '=':
			t.next()
			t.emit(TokenGreaterEqual)
		case '>':
			t.next()
			if t.peek() == '=' {
				t.next()
				t.emit(TokenRightShiftEquals)
			} else {
				t.emit(TokenRightShift)
			}
		default:
			t.emit(TokenGreater)
		}

	case '&':
		switch t.peek() {
		case '&':
			t.next()
			t.emit(TokenDoubleAmp)
		case '=':
			t.next()
			t.emit(TokenAmpEquals)
		default:
			t.emit(TokenAmpersand)
		}

	case '|':
		switch t.peek() {
		case '|':
			t.next()
			t.emit(TokenDoublePipe)
		case '=':
			t.next()
			t.emit(TokenPipeEquals)
		default:
			t.emit(TokenPipe)
		}

	case '^':
		if t.peek() == '=' {
			t.next()
			t.emit(TokenCaretEquals)
		} else {
			t.emit(TokenCaret)
		}

	case '%':
		if t.peek() == '=' {
			t.next()
			t.emit(TokenPercentEquals)
		} else {
			t.emit(TokenPercent)
		}

	case '+':
		switch t.peek() {
		case '+':
			t.next()
			t.emit(TokenPlusPlus)
		case '=':
			t.next()
			t.emit(TokenPlusEquals)
		default:
			t.emit(TokenPlus)
		}

	case '-':
		switch t.peek() {
		case '-':
			t.next()
			t.emit(TokenMinusMinus)
		case '=':
			t.next()
			t.emit(TokenMinusEquals)
		case '>':
			t.next()
			if t.peek() == '*' {
				t.next()
				t.emit(TokenArrowStar)
			} else {
				t.emit(TokenArrow)
			}
		default:
			t.emit(TokenMinus)
		}

	case '*':
		if t.peek() == '=' {
			t.next()
			t.emit(TokenStarEquals)
		} else {
			t.emit(TokenStar)
		}

	default:
		t.emitError(fmt.Sprintf("unexpected character: %c", r))
	}
}
