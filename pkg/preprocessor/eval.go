package preprocessor

import (
	"fmt"
	"strconv"
	"strings"

	"cxxpp/pkg/lexer"
)

// evaluator computes the integer value of a #if/#elif controlling
// expression. The input tokens must already have had defined-operator
// references resolved and macros expanded; any identifier still left
// evaluates to 0, per standard preprocessor arithmetic.
type evaluator struct {
	tokens []lexer.Token
	pos    int
}

// evalCondition evaluates a controlling expression to its truth value.
func evalCondition(tokens []lexer.Token) (bool, error) {
	ev := &evaluator{tokens: significantTokens(tokens)}
	if len(ev.tokens) == 0 {
		return false, fmt.Errorf("#if with no expression")
	}
	value, err := ev.conditional()
	if err != nil {
		return false, err
	}
	if ev.pos < len(ev.tokens) {
		return false, fmt.Errorf("unexpected token '%s' in #if expression", ev.tokens[ev.pos].Value)
	}
	return value != 0, nil
}

func (ev *evaluator) peek() lexer.Token {
	if ev.pos >= len(ev.tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return ev.tokens[ev.pos]
}

func (ev *evaluator) advance() lexer.Token {
	tok := ev.peek()
	if ev.pos < len(ev.tokens) {
		ev.pos++
	}
	return tok
}

// conditional parses a ternary ?: expression
func (ev *evaluator) conditional() (int64, error) {
	cond, err := ev.binary(0)
	if err != nil {
		return 0, err
	}
	if ev.peek().Type != lexer.TokenQuestion {
		return cond, nil
	}
	ev.advance()

	thenVal, err := ev.conditional()
	if err != nil {
		return 0, err
	}
	if ev.advance().Type != lexer.TokenColon {
		return 0, fmt.Errorf("expected ':' in conditional expression")
	}
	elseVal, err := ev.conditional()
	if err != nil {
		return 0, err
	}
	if cond != 0 {
		return thenVal, nil
	}
	return elseVal, nil
}

// binaryPrecedence returns the precedence of a binary operator token,
// or 0 if the token is not a binary operator.
func binaryPrecedence(tokenType lexer.TokenType) int {
	switch tokenType {
	case lexer.TokenDoublePipe:
		return 1
	case lexer.TokenDoubleAmp:
		return 2
	case lexer.TokenPipe:
		return 3
	case lexer.TokenCaret:
		return 4
	case lexer.TokenAmpersand:
		return 5
	case lexer.TokenDoubleEquals, lexer.TokenNotEquals:
		return 6
	case lexer.TokenLess, lexer.TokenLessEqual, lexer.TokenGreater, lexer.TokenGreaterEqual:
		return 7
	case lexer.TokenLeftShift, lexer.TokenRightShift:
		return 8
	case lexer.TokenPlus, lexer.TokenMinus:
		return 9
	case lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent:
		return 10
	}
	return 0
}

// binary parses binary operator chains by precedence climbing
func (ev *evaluator) binary(minPrec int) (int64, error) {
	left, err := ev.unary()
	if err != nil {
		return 0, err
	}

	for {
		op := ev.peek()
		prec := binaryPrecedence(op.Type)
		if prec == 0 || prec < minPrec {
			return left, nil
		}
		ev.advance()

		right, err := ev.binary(prec + 1)
		if err != nil {
			return 0, err
		}

		left, err = applyBinary(op, left, right)
		if err != nil {
			return 0, err
		}
	}
}

func applyBinary(op lexer.Token, left, right int64) (int64, error) {
	switch op.Type {
	case lexer.TokenDoublePipe:
		return boolVal(left != 0 || right != 0), nil
	case lexer.TokenDoubleAmp:
		return boolVal(left != 0 && right != 0), nil
	case lexer.TokenPipe:
		return left | right, nil
	case lexer.TokenCaret:
		return left ^ right, nil
	case lexer.TokenAmpersand:
		return left & right, nil
	case lexer.TokenDoubleEquals:
		return boolVal(left == right), nil
	case lexer.TokenNotEquals:
		return boolVal(left != right), nil
	case lexer.TokenLess:
		return boolVal(left < right), nil
	case lexer.TokenLessEqual:
		return boolVal(left <= right), nil
	case lexer.TokenGreater:
		return boolVal(left > right), nil
	case lexer.TokenGreaterEqual:
		return boolVal(left >= right), nil
	case lexer.TokenLeftShift:
		return left << uint64(right&63), nil
	case lexer.TokenRightShift:
		return left >> uint64(right&63), nil
	case lexer.TokenPlus:
		return left + right, nil
	case lexer.TokenMinus:
		return left - right, nil
	case lexer.TokenStar:
		return left * right, nil
	case lexer.TokenSlash:
		if right == 0 {
			return 0, fmt.Errorf("division by zero in #if expression")
		}
		return left / right, nil
	case lexer.TokenPercent:
		if right == 0 {
			return 0, fmt.Errorf("division by zero in #if expression")
		}
		return left % right, nil
	}
	return 0, fmt.Errorf("unsupported operator '%s' in #if expression", op.Value)
}

// unary parses prefix operators
func (ev *evaluator) unary() (int64, error) {
	switch ev.peek().Type {
	case lexer.TokenExclamation:
		ev.advance()
		v, err := ev.unary()
		if err != nil {
			return 0, err
		}
		return boolVal(v == 0), nil
	case lexer.TokenTilde:
		ev.advance()
		v, err := ev.unary()
		if err != nil {
			return 0, err
		}
		return ^v, nil
	case lexer.TokenMinus:
		ev.advance()
		v, err := ev.unary()
		if err != nil {
			return 0, err
		}
		return -v, nil
	case lexer.TokenPlus:
		ev.advance()
		return ev.unary()
	}
	return ev.primary()
}

// primary parses literals, leftover identifiers and parentheses
func (ev *evaluator) primary() (int64, error) {
	tok := ev.advance()

	switch tok.Type {
	case lexer.TokenNumber:
		return parseIntegerLiteral(tok.Value)

	case lexer.TokenCharLiteral:
		return charValue(tok.Value)

	case lexer.TokenTrue:
		return 1, nil

	case lexer.TokenFalse:
		return 0, nil

	case lexer.TokenLeftParen:
		v, err := ev.conditional()
		if err != nil {
			return 0, err
		}
		if ev.advance().Type != lexer.TokenRightParen {
			return 0, fmt.Errorf("missing ')' in #if expression")
		}
		return v, nil

	case lexer.TokenEOF:
		return 0, fmt.Errorf("unexpected end of #if expression")
	}

	// Identifiers (and keywords) surviving macro expansion are
	// undefined names: they evaluate to 0.
	if isMacroName(tok) {
		return 0, nil
	}

	return 0, fmt.Errorf("unexpected token '%s' in #if expression", tok.Value)
}

// parseIntegerLiteral converts a C integer literal to its value,
// tolerating digit separators and integer suffixes.
func parseIntegerLiteral(text string) (int64, error) {
	cleaned := strings.ReplaceAll(text, "'", "")
	cleaned = strings.TrimRight(cleaned, "uUlL")
	if cleaned == "" {
		return 0, fmt.Errorf("invalid integer literal '%s'", text)
	}

	value, err := strconv.ParseUint(cleaned, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer literal '%s'", text)
	}
	return int64(value), nil
}

// charValue returns the numeric value of a character literal
func charValue(text string) (int64, error) {
	// Strip any encoding prefix and the quotes
	start := strings.IndexByte(text, '\'')
	if start < 0 || len(text) < start+3 || !strings.HasSuffix(text, "'") {
		return 0, fmt.Errorf("invalid character literal %s", text)
	}
	body := text[start+1 : len(text)-1]

	r, _, _, err := strconv.UnquoteChar(body, '\'')
	if err != nil {
		return 0, fmt.Errorf("invalid character literal %s", text)
	}
	return int64(r), nil
}

func boolVal(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
