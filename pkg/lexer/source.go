// Package lexer - source text normalization ahead of tokenization
package lexer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// trigraphs maps the third character of a "??x" sequence to its
// replacement.
var trigraphs = map[byte]byte{
	'=':  '#',
	'/':  '\\',
	'\'': '^',
	'(':  '[',
	')':  ']',
	'!':  '|',
	'<':  '{',
	'>':  '}',
	'-':  '~',
}

// NormalizeSource prepares raw source text for the tokenizer. It strips
// a UTF-8 byte order mark, normalizes line endings to LF, replaces
// trigraph sequences and splices backslash-newline continuations.
//
// Spliced newlines are re-inserted after the next hard line break so
// that physical line numbers stay valid for every token that follows a
// continuation. Input that is not valid UTF-8 is rejected; this is the
// only fatal condition in the lexing path.
func NormalizeSource(input string) (string, error) {
	input = strings.TrimPrefix(input, "\ufeff")

	if !utf8.ValidString(input) {
		return "", fmt.Errorf("source text is not valid UTF-8")
	}

	input = strings.ReplaceAll(input, "\r\n", "\n")
	input = strings.ReplaceAll(input, "\r", "\n")
	input = replaceTrigraphs(input)

	return spliceLines(input), nil
}

// replaceTrigraphs rewrites all "??x" trigraph sequences in place.
func replaceTrigraphs(input string) string {
	if !strings.Contains(input, "??") {
		return input
	}

	var sb strings.Builder
	sb.Grow(len(input))

	for i := 0; i < len(input); i++ {
		if input[i] == '?' && i+2 < len(input) && input[i+1] == '?' {
			if repl, ok := trigraphs[input[i+2]]; ok {
				sb.WriteByte(repl)
				i += 2
				continue
			}
		}
		sb.WriteByte(input[i])
	}
	return sb.String()
}

// spliceLines removes backslash-newline continuations. Each removed
// newline is held back and emitted after the next unescaped newline,
// keeping the total line count of the text unchanged.
func spliceLines(input string) string {
	if !strings.Contains(input, "\\\n") {
		return input
	}

	var sb strings.Builder
	sb.Grow(len(input))
	pending := 0

	for i := 0; i < len(input); i++ {
		c := input[i]

		if c == '\\' && i+1 < len(input) && input[i+1] == '\n' {
			pending++
			i++
			continue
		}

		sb.WriteByte(c)
		if c == '\n' {
			for ; pending > 0; pending-- {
				sb.WriteByte('\n')
			}
		}
	}

	// A continuation on the very last line has no following hard break.
	for ; pending > 0; pending-- {
		sb.WriteByte('\n')
	}

	return sb.String()
}
