package preprocessor

import (
	"cxxpp/pkg/lexer"
)

// MacroKind distinguishes object-like from function-like macros
type MacroKind int

const (
	MacroObject MacroKind = iota
	MacroFunction
)

// MacroDefinition holds one entry of the macro table
type MacroDefinition struct {
	Name        string
	Kind        MacroKind
	Params      []string
	Variadic    bool
	Replacement []lexer.Token
	File        string
	Line        int
}

// equalReplacement compares two definitions for the purpose of the
// redefinition check: same kind, same parameter list, and replacement
// lists whose token texts match with whitespace runs treated as equal.
func (m *MacroDefinition) equalReplacement(other *MacroDefinition) bool {
	if m.Kind != other.Kind || m.Variadic != other.Variadic {
		return false
	}
	if len(m.Params) != len(other.Params) {
		return false
	}
	for i, p := range m.Params {
		if p != other.Params[i] {
			return false
		}
	}
	a := significantTokens(m.Replacement)
	b := significantTokens(other.Replacement)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Value != b[i].Value {
			return false
		}
	}
	return true
}

// significantTokens drops trivia from a replacement list
func significantTokens(tokens []lexer.Token) []lexer.Token {
	var out []lexer.Token
	for _, tok := range tokens {
		if !tok.IsTrivia() {
			out = append(out, tok)
		}
	}
	return out
}

// MacroTable maps macro names to their definitions. One table is owned
// by one engine instance; macros defined in included files persist in
// the including translation unit until undefined.
type MacroTable struct {
	defs map[string]*MacroDefinition
}

// NewMacroTable creates an empty macro table
func NewMacroTable() *MacroTable {
	return &MacroTable{defs: make(map[string]*MacroDefinition)}
}

// Define inserts or replaces a macro definition. It reports whether an
// existing definition with a different replacement list was overwritten;
// identical redefinition is silently accepted.
func (t *MacroTable) Define(def *MacroDefinition) (mismatch bool) {
	if existing, ok := t.defs[def.Name]; ok {
		mismatch = !existing.equalReplacement(def)
	}
	t.defs[def.Name] = def
	return mismatch
}

// Undefine removes a macro. Undefining an unknown name is a no-op.
func (t *MacroTable) Undefine(name string) {
	delete(t.defs, name)
}

// Lookup returns the definition for a name, or nil
func (t *MacroTable) Lookup(name string) *MacroDefinition {
	return t.defs[name]
}

// IsDefined reports whether a name is currently defined
func (t *MacroTable) IsDefined(name string) bool {
	_, ok := t.defs[name]
	return ok
}

// Len returns the number of defined macros
func (t *MacroTable) Len() int {
	return len(t.defs)
}

// Predefine installs an object-like macro from an external name/value
// pair (the build's -D equivalents). An empty value defines the macro
// as 1, matching compiler command-line behavior.
func (t *MacroTable) Predefine(name, value string) {
	if value == "" {
		value = "1"
	}
	tokens := tokenizeFragment("<predefined>", value)
	t.defs[name] = &MacroDefinition{
		Name:        name,
		Kind:        MacroObject,
		Replacement: tokens,
		File:        "<predefined>",
		Line:        1,
	}
}

// tokenizeFragment lexes a small piece of text and returns its tokens
// without the trailing EOF.
func tokenizeFragment(file, text string) []lexer.Token {
	tokens := lexer.NewTokenizer(file, text).Tokenize()
	var out []lexer.Token
	for _, tok := range tokens {
		if tok.Type == lexer.TokenEOF || tok.Type == lexer.TokenError {
			continue
		}
		out = append(out, tok)
	}
	return out
}
