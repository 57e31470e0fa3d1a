// Package lexer - token model for C/C++ source text
package lexer

import "fmt"

// TokenType represents the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenError
	TokenWhitespace
	TokenNewline
	TokenLineComment  // //
	TokenBlockComment // /* */

	// Literals
	TokenIdentifier
	TokenNumber
	TokenString
	TokenCharLiteral

	// Operators and punctuation
	TokenLeftParen         // (
	TokenRightParen        // )
	TokenLeftBrace         // {
	TokenRightBrace        // }
	TokenLeftBracket       // [
	TokenRightBracket      // ]
	TokenSemicolon         // ;
	TokenColon             // :
	TokenDoubleColon       // ::
	TokenComma             // ,
	TokenDot               // .
	TokenDotStar           // .*
	TokenEllipsis          // ...
	TokenArrow             // ->
	TokenArrowStar         // ->*
	TokenEquals            // =
	TokenDoubleEquals      // ==
	TokenNotEquals         // !=
	TokenLess              // <
	TokenGreater           // >
	TokenLessEqual         // <=
	TokenGreaterEqual      // >=
	TokenAmpersand         // &
	TokenDoubleAmp         // &&
	TokenAmpEquals         // &=
	TokenPipe              // |
	TokenDoublePipe        // ||
	TokenPipeEquals        // |=
	TokenCaret             // ^
	TokenCaretEquals       // ^=
	TokenTilde             // ~
	TokenExclamation       // !
	TokenQuestion          // ?
	TokenPlus              // +
	TokenMinus             // -
	TokenStar              // *
	TokenSlash             // /
	TokenPercent           // %
	TokenPercentEquals     // %=
	TokenPlusPlus          // ++
	TokenMinusMinus        // --
	TokenPlusEquals        // +=
	TokenMinusEquals       // -=
	TokenStarEquals        // *=
	TokenSlashEquals       // /=
	TokenLeftShift         // <<
	TokenRightShift        // >>
	TokenLeftShiftEquals   // <<=
	TokenRightShiftEquals  // >>=

	// Preprocessor
	TokenHash      // #
	TokenHashHash  // ##
	TokenBackslash // \

	// Keywords
	TokenKeywordStart // Marker for start of keywords
	TokenNamespace
	TokenClass
	TokenStruct
	TokenEnum
	TokenUnion
	TokenTypedef
	TokenUsing
	TokenTemplate
	TokenTypename
	TokenPublic
	TokenPrivate
	TokenProtected
	TokenStatic
	TokenVirtual
	TokenInline
	TokenConst
	TokenConstexpr
	TokenMutable
	TokenExtern
	TokenVolatile
	TokenFriend
	TokenOperator
	TokenExplicit
	TokenNoexcept
	TokenThrow
	TokenTry
	TokenCatch
	TokenIf
	TokenElse
	TokenSwitch
	TokenCase
	TokenDefault
	TokenFor
	TokenWhile
	TokenDo
	TokenBreak
	TokenContinue
	TokenReturn
	TokenGoto
	TokenSizeof
	TokenAlignof
	TokenAlignas
	TokenDecltype
	TokenStaticAssert
	TokenThreadLocal
	TokenRegister
	TokenAsm
	TokenAuto
	TokenVoid
	TokenBool
	TokenChar
	TokenWcharT
	TokenChar16T
	TokenChar32T
	TokenShort
	TokenInt
	TokenLong
	TokenFloat
	TokenDouble
	TokenSigned
	TokenUnsigned
	TokenTrue
	TokenFalse
	TokenNullptr
	TokenThis
	TokenNew
	TokenDelete
	TokenKeywordEnd // Marker for end of keywords
)

// Token represents a single lexical token with its source coordinates.
// Origin is non-nil for tokens produced by macro expansion and points
// at the macro-reference token that triggered the expansion, forming a
// provenance chain for diagnostics.
type Token struct {
	Type   TokenType
	Value  string
	File   string
	Line   int
	Column int
	Offset int
	Origin *Token
}

// String returns a string representation of the token
func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return fmt.Sprintf("ERROR:%s", t.Value)
	case TokenWhitespace:
		return "WHITESPACE"
	case TokenNewline:
		return "NEWLINE"
	case TokenLineComment:
		return fmt.Sprintf("LINE_COMMENT:%s", t.Value)
	case TokenBlockComment:
		return fmt.Sprintf("BLOCK_COMMENT:%s", t.Value)
	case TokenIdentifier:
		return fmt.Sprintf("IDENTIFIER:%s", t.Value)
	case TokenNumber:
		return fmt.Sprintf("NUMBER:%s", t.Value)
	case TokenString:
		return fmt.Sprintf("STRING:%s", t.Value)
	case TokenCharLiteral:
		return fmt.Sprintf("CHAR:%s", t.Value)
	default:
		if t.Type > TokenKeywordStart && t.Type < TokenKeywordEnd {
			return fmt.Sprintf("KEYWORD:%s", t.Value)
		}
		return fmt.Sprintf("%s:%s", tokenTypeNames[t.Type], t.Value)
	}
}

// IsKeyword reports whether the token is a reserved keyword.
func (t Token) IsKeyword() bool {
	return t.Type > TokenKeywordStart && t.Type < TokenKeywordEnd
}

// IsTrivia reports whether the token carries no grammar content
// (whitespace, newlines and comments).
func (t Token) IsTrivia() bool {
	switch t.Type {
	case TokenWhitespace, TokenNewline, TokenLineComment, TokenBlockComment:
		return true
	}
	return false
}

// ExpandedFrom returns the root of the provenance chain: the original
// file token whose expansion ultimately produced this token. For tokens
// read directly from a file it returns the token itself.
func (t Token) ExpandedFrom() Token {
	cur := t
	for cur.Origin != nil {
		cur = *cur.Origin
	}
	return cur
}

// tokenTypeNames maps token types to their names for debugging
var tokenTypeNames = map[TokenType]string{
	TokenLeftParen:        "LEFT_PAREN",
	TokenRightParen:       "RIGHT_PAREN",
	TokenLeftBrace:        "LEFT_BRACE",
	TokenRightBrace:       "RIGHT_BRACE",
	TokenLeftBracket:      "LEFT_BRACKET",
	TokenRightBracket:     "RIGHT_BRACKET",
	TokenSemicolon:        "SEMICOLON",
	TokenColon:            "COLON",
	TokenDoubleColon:      "DOUBLE_COLON",
	TokenComma:            "COMMA",
	TokenDot:              "DOT",
	TokenDotStar:          "DOT_STAR",
	TokenEllipsis:         "ELLIPSIS",
	TokenArrow:            "ARROW",
	TokenArrowStar:        "ARROW_STAR",
	TokenEquals:           "EQUALS",
	TokenDoubleEquals:     "DOUBLE_EQUALS",
	TokenNotEquals:        "NOT_EQUALS",
	TokenLess:             "LESS",
	TokenGreater:          "GREATER",
	TokenLessEqual:        "LESS_EQUAL",
	TokenGreaterEqual:     "GREATER_EQUAL",
	TokenAmpersand:        "AMPERSAND",
	TokenDoubleAmp:        "DOUBLE_AMP",
	TokenAmpEquals:        "AMP_EQUALS",
	TokenPipe:             "PIPE",
	TokenDoublePipe:       "DOUBLE_PIPE",
	TokenPipeEquals:       "PIPE_EQUALS",
	TokenCaret:            "CARET",
	TokenCaretEquals:      "CARET_EQUALS",
	TokenTilde:            "TILDE",
	TokenExclamation:      "EXCLAMATION",
	TokenQuestion:         "QUESTION",
	TokenPlus:             "PLUS",
	TokenMinus:            "MINUS",
	TokenStar:             "STAR",
	TokenSlash:            "SLASH",
	TokenPercent:          "PERCENT",
	TokenPercentEquals:    "PERCENT_EQUALS",
	TokenPlusPlus:         "PLUS_PLUS",
	TokenMinusMinus:       "MINUS_MINUS",
	TokenPlusEquals:       "PLUS_EQUALS",
	TokenMinusEquals:      "MINUS_EQUALS",
	TokenStarEquals:       "STAR_EQUALS",
	TokenSlashEquals:      "SLASH_EQUALS",
	TokenLeftShift:        "LEFT_SHIFT",
	TokenRightShift:       "RIGHT_SHIFT",
	TokenLeftShiftEquals:  "LEFT_SHIFT_EQUALS",
	TokenRightShiftEquals: "RIGHT_SHIFT_EQUALS",
	TokenHash:             "HASH",
	TokenHashHash:         "HASH_HASH",
	TokenBackslash:        "BACKSLASH",
}

// Keywords map for quick lookup
var keywords = map[string]TokenType{
	"namespace":     TokenNamespace,
	"class":         TokenClass,
	"struct":        TokenStruct,
	"enum":          TokenEnum,
	"union":         TokenUnion,
	"typedef":       TokenTypedef,
	"using":         TokenUsing,
	"template":      TokenTemplate,
	"typename":      TokenTypename,
	"public":        TokenPublic,
	"private":       TokenPrivate,
	"protected":     TokenProtected,
	"static":        TokenStatic,
	"virtual":       TokenVirtual,
	"inline":        TokenInline,
	"const":         TokenConst,
	"constexpr":     TokenConstexpr,
	"mutable":       TokenMutable,
	"extern":        TokenExtern,
	"volatile":      TokenVolatile,
	"friend":        TokenFriend,
	"operator":      TokenOperator,
	"explicit":      TokenExplicit,
	"noexcept":      TokenNoexcept,
	"throw":         TokenThrow,
	"try":           TokenTry,
	"catch":         TokenCatch,
	"if":            TokenIf,
	"else":          TokenElse,
	"switch":        TokenSwitch,
	"case":          TokenCase,
	"default":       TokenDefault,
	"for":           TokenFor,
	"while":         TokenWhile,
	"do":            TokenDo,
	"break":         TokenBreak,
	"continue":      TokenContinue,
	"return":        TokenReturn,
	"goto":          TokenGoto,
	"sizeof":        TokenSizeof,
	"alignof":       TokenAlignof,
	"alignas":       TokenAlignas,
	"decltype":      TokenDecltype,
	"static_assert": TokenStaticAssert,
	"thread_local":  TokenThreadLocal,
	"register":      TokenRegister,
	"asm":           TokenAsm,
	"auto":          TokenAuto,
	"void":          TokenVoid,
	"bool":          TokenBool,
	"char":          TokenChar,
	"wchar_t":       TokenWcharT,
	"char16_t":      TokenChar16T,
	"char32_t":      TokenChar32T,
	"short":         TokenShort,
	"int":           TokenInt,
	"long":          TokenLong,
	"float":         TokenFloat,
	"double":        TokenDouble,
	"signed":        TokenSigned,
	"unsigned":      TokenUnsigned,
	"true":          TokenTrue,
	"false":         TokenFalse,
	"nullptr":       TokenNullptr,
	"this":          TokenThis,
	"new":           TokenNew,
	"delete":        TokenDelete,
}

// LookupKeyword reclassifies identifier-shaped text: it returns the
// keyword token type for reserved words and TokenIdentifier otherwise.
// Matching is case-sensitive.
func LookupKeyword(text string) TokenType {
	if tokenType, isKeyword := keywords[text]; isKeyword {
		return tokenType
	}
	return TokenIdentifier
}
