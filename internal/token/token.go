package token

// Type identifies the lexical class of a token.
type Type string

// Token is a single lexical unit with its source position.
// Line and Column are 1-based.
type Token struct {
	Type   Type
	Lexeme string
	Line   int
	Column int
}

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Layout
	NEWLINE = "NEWLINE"
	INDENT  = "INDENT"
	DEDENT  = "DEDENT"

	// Identifiers and literals
	IDENT  = "IDENT"
	INT    = "INT"
	FLOAT  = "FLOAT"
	STRING = "STRING"

	// Operators
	ASSIGN   = "="
	PLUS     = "+"
	MINUS    = "-"
	ASTERISK = "*"
	SLASH    = "/"
	DSLASH   = "//"
	PERCENT  = "%"
	POW      = "**"

	EQ    = "=="
	NOTEQ = "!="
	LT    = "<"
	GT    = ">"
	LTEQ  = "<="
	GTEQ  = ">="

	AMP   = "&"
	PIPE  = "|"
	CARET = "^"
	TILDE = "~"
	SHL   = "<<"
	SHR   = ">>"

	PLUSASSIGN     = "+="
	MINUSASSIGN    = "-="
	ASTERISKASSIGN = "*="
	SLASHASSIGN    = "/="
	DSLASHASSIGN   = "//="
	PERCENTASSIGN  = "%="
	POWASSIGN      = "**="
	AMPASSIGN      = "&="
	PIPEASSIGN     = "|="
	CARETASSIGN    = "^="
	SHLASSIGN      = "<<="
	SHRASSIGN      = ">>="

	ARROW = "->"

	// Delimiters
	COMMA    = ","
	COLON    = ":"
	DOT      = "."
	LPAREN   = "("
	RPAREN   = ")"
	LBRACKET = "["
	RBRACKET = "]"
	LBRACE   = "{"
	RBRACE   = "}"

	// Keywords
	DEF      = "DEF"
	RETURN   = "RETURN"
	IF       = "IF"
	ELIF     = "ELIF"
	ELSE     = "ELSE"
	WHILE    = "WHILE"
	FOR      = "FOR"
	IN       = "IN"
	NOT      = "NOT"
	AND      = "AND"
	OR       = "OR"
	IS       = "IS"
	BREAK    = "BREAK"
	CONTINUE = "CONTINUE"
	PASS     = "PASS"
	RAISE    = "RAISE"
	TRY      = "TRY"
	EXCEPT   = "EXCEPT"
	FINALLY  = "FINALLY"
	AS       = "AS"
	FROM     = "FROM"
	IMPORT   = "IMPORT"
	ASSERT   = "ASSERT"
	GLOBAL   = "GLOBAL"
	CLASS    = "CLASS"
	LAMBDA   = "LAMBDA"
	TRUE     = "TRUE"
	FALSE    = "FALSE"
	NONE     = "NONE"
)

var keywords = map[string]Type{
	"def":      DEF,
	"return":   RETURN,
	"if":       IF,
	"elif":     ELIF,
	"else":     ELSE,
	"while":    WHILE,
	"for":      FOR,
	"in":       IN,
	"not":      NOT,
	"and":      AND,
	"or":       OR,
	"is":       IS,
	"break":    BREAK,
	"continue": CONTINUE,
	"pass":     PASS,
	"raise":    RAISE,
	"try":      TRY,
	"except":   EXCEPT,
	"finally":  FINALLY,
	"as":       AS,
	"from":     FROM,
	"import":   IMPORT,
	"assert":   ASSERT,
	"global":   GLOBAL,
	"class":    CLASS,
	"lambda":   LAMBDA,
	"True":     TRUE,
	"False":    FALSE,
	"None":     NONE,
}

// LookupIdent returns the keyword type for an identifier lexeme, or IDENT.
func LookupIdent(ident string) Type {
	if tt, ok := keywords[ident]; ok {
		return tt
	}
	return IDENT
}
