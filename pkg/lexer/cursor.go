package lexer

// TokenCursor provides an abstraction layer for navigating a token
// slice. It encapsulates token array access and position management for
// consumers that walk tokens one logical line at a time.
type TokenCursor struct {
	tokens  []Token
	current int
}

// NewTokenCursor creates a cursor over the given tokens
func NewTokenCursor(tokens []Token) *TokenCursor {
	return &TokenCursor{tokens: tokens}
}

// Advance returns the current token and moves to the next
func (tc *TokenCursor) Advance() Token {
	if !tc.IsAtEnd() {
		tc.current++
	}
	return tc.Previous()
}

// IsAtEnd checks if we're at the end of tokens
func (tc *TokenCursor) IsAtEnd() bool {
	return tc.current >= len(tc.tokens) || tc.Peek().Type == TokenEOF
}

// Peek returns the current token without advancing
func (tc *TokenCursor) Peek() Token {
	if tc.current >= len(tc.tokens) {
		return Token{Type: TokenEOF}
	}
	return tc.tokens[tc.current]
}

// Previous returns the previous token
func (tc *TokenCursor) Previous() Token {
	if tc.current <= 0 {
		return Token{Type: TokenEOF}
	}
	return tc.tokens[tc.current-1]
}

// SkipWhitespace skips whitespace and comment tokens
func (tc *TokenCursor) SkipWhitespace() {
	for !tc.IsAtEnd() {
		switch tc.Peek().Type {
		case TokenWhitespace, TokenLineComment, TokenBlockComment:
			tc.Advance()
		default:
			return
		}
	}
}

// Rest returns the remaining tokens from the current position
func (tc *TokenCursor) Rest() []Token {
	if tc.current >= len(tc.tokens) {
		return nil
	}
	return tc.tokens[tc.current:]
}
