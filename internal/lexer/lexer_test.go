package lexer

import (
	"testing"

	"github.com/pylift/pylift/internal/token"
)

func collect(t *testing.T, input string) []token.Token {
	t.Helper()
	l := New(input)
	var toks []token.Token
	for i := 0; i < 10000; i++ {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
	t.Fatalf("lexer did not terminate for input: %q", input)
	return nil
}

func types(toks []token.Token) []token.Type {
	out := make([]token.Type, len(toks))
	for i, tok := range toks {
		out[i] = tok.Type
	}
	return out
}

func expectTypes(t *testing.T, input string, want []token.Type) {
	t.Helper()
	got := types(collect(t, input))
	if len(got) != len(want) {
		t.Fatalf("token count = %d, want %d\ngot:  %v\nwant: %v", len(got), len(want), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %s, want %s\ngot: %v", i, got[i], want[i], got)
		}
	}
}

func TestOperators(t *testing.T) {
	expectTypes(t, "a = b // c ** 2 != d <= e",
		[]token.Type{token.IDENT, token.ASSIGN, token.IDENT, token.DSLASH, token.IDENT,
			token.POW, token.INT, token.NOTEQ, token.IDENT, token.LTEQ, token.IDENT, token.EOF})
}

func TestAugAssignOperators(t *testing.T) {
	expectTypes(t, "x += 1\nx //= 2\nx **= 3",
		[]token.Type{token.IDENT, token.PLUSASSIGN, token.INT, token.NEWLINE,
			token.IDENT, token.DSLASHASSIGN, token.INT, token.NEWLINE,
			token.IDENT, token.POWASSIGN, token.INT, token.EOF})
}

func TestIndentDedent(t *testing.T) {
	input := "if x:\n    y = 1\n    z = 2\nw = 3\n"
	expectTypes(t, input, []token.Type{
		token.IF, token.IDENT, token.COLON, token.NEWLINE,
		token.INDENT, token.IDENT, token.ASSIGN, token.INT, token.NEWLINE,
		token.IDENT, token.ASSIGN, token.INT, token.NEWLINE,
		token.DEDENT, token.IDENT, token.ASSIGN, token.INT, token.NEWLINE,
		token.EOF,
	})
}

func TestNestedDedentAtEOF(t *testing.T) {
	input := "def f():\n    if x:\n        return 1"
	expectTypes(t, input, []token.Type{
		token.DEF, token.IDENT, token.LPAREN, token.RPAREN, token.COLON, token.NEWLINE,
		token.INDENT, token.IF, token.IDENT, token.COLON, token.NEWLINE,
		token.INDENT, token.RETURN, token.INT,
		token.DEDENT, token.DEDENT, token.EOF,
	})
}

func TestBlankAndCommentLines(t *testing.T) {
	input := "x = 1\n\n# comment\n   # indented comment\ny = 2\n"
	expectTypes(t, input, []token.Type{
		token.IDENT, token.ASSIGN, token.INT, token.NEWLINE,
		token.IDENT, token.ASSIGN, token.INT, token.NEWLINE,
		token.EOF,
	})
}

func TestNewlineSuppressedInBrackets(t *testing.T) {
	input := "x = [1,\n     2,\n     3]\n"
	expectTypes(t, input, []token.Type{
		token.IDENT, token.ASSIGN, token.LBRACKET, token.INT, token.COMMA,
		token.INT, token.COMMA, token.INT, token.RBRACKET, token.NEWLINE,
		token.EOF,
	})
}

func TestNumbers(t *testing.T) {
	toks := collect(t, "42 3.14 1_000 2e3")
	if toks[0].Type != token.INT || toks[0].Lexeme != "42" {
		t.Errorf("int literal = %v", toks[0])
	}
	if toks[1].Type != token.FLOAT || toks[1].Lexeme != "3.14" {
		t.Errorf("float literal = %v", toks[1])
	}
	if toks[2].Type != token.INT || toks[2].Lexeme != "1000" {
		t.Errorf("underscored int = %v", toks[2])
	}
	if toks[3].Type != token.FLOAT || toks[3].Lexeme != "2e3" {
		t.Errorf("exponent float = %v", toks[3])
	}
}

func TestStrings(t *testing.T) {
	toks := collect(t, `x = "hello\nworld"`)
	if toks[2].Type != token.STRING || toks[2].Lexeme != "hello\nworld" {
		t.Errorf("string literal = %q", toks[2].Lexeme)
	}
	toks = collect(t, `y = 'it\'s'`)
	if toks[2].Type != token.STRING || toks[2].Lexeme != "it's" {
		t.Errorf("single-quoted literal = %q", toks[2].Lexeme)
	}
}

func TestKeywords(t *testing.T) {
	toks := collect(t, "def try except finally raise from None True False is not in")
	want := []token.Type{token.DEF, token.TRY, token.EXCEPT, token.FINALLY, token.RAISE,
		token.FROM, token.NONE, token.TRUE, token.FALSE, token.IS, token.NOT, token.IN, token.EOF}
	got := types(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keyword %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestPositions(t *testing.T) {
	toks := collect(t, "x = 1\ny = 2\n")
	if toks[0].Line != 1 || toks[0].Column != 1 {
		t.Errorf("x position = %d:%d, want 1:1", toks[0].Line, toks[0].Column)
	}
	// toks: x = 1 NEWLINE y ...
	if toks[4].Line != 2 || toks[4].Column != 1 {
		t.Errorf("y position = %d:%d, want 2:1", toks[4].Line, toks[4].Column)
	}
}
