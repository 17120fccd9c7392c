// Package lexer tokenizes the Python-subset source language.
//
// Layout is significant: the lexer tracks an indentation stack and emits
// synthetic INDENT/DEDENT tokens around nested blocks, and NEWLINE tokens at
// the end of each logical line. Newlines inside brackets are suppressed.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pylift/pylift/internal/token"
)

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position (after current char)
	ch           rune // current char under examination
	line         int
	column       int

	indents     []int // indentation stack, always starts with 0
	pending     []token.Token
	parenDepth  int
	atLineStart bool
}

func New(input string) *Lexer {
	l := &Lexer{
		input:       input,
		line:        1,
		column:      0,
		indents:     []int{0},
		atLineStart: true,
	}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		l.readPosition++
		l.column++
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// NextToken returns the next token in the stream.
func (l *Lexer) NextToken() token.Token {
	if len(l.pending) > 0 {
		tok := l.pending[0]
		l.pending = l.pending[1:]
		return tok
	}

	if l.atLineStart && l.parenDepth == 0 {
		if tok, ok := l.handleLineStart(); ok {
			return tok
		}
	}

	l.skipSpaces()
	if l.ch == '#' {
		l.skipComment()
	}

	var tok token.Token

	switch l.ch {
	case 0:
		// Close any open blocks before EOF.
		if len(l.indents) > 1 {
			for len(l.indents) > 1 {
				l.indents = l.indents[:len(l.indents)-1]
				l.pending = append(l.pending, token.Token{Type: token.DEDENT, Lexeme: "", Line: l.line, Column: l.column})
			}
			l.pending = append(l.pending, token.Token{Type: token.EOF, Lexeme: "", Line: l.line, Column: l.column})
			tok = l.pending[0]
			l.pending = l.pending[1:]
			return tok
		}
		return token.Token{Type: token.EOF, Lexeme: "", Line: l.line, Column: l.column}
	case '\n':
		if l.parenDepth > 0 {
			l.readChar()
			return l.NextToken()
		}
		tok = token.Token{Type: token.NEWLINE, Lexeme: "\\n", Line: l.line, Column: l.column}
		l.readChar()
		l.atLineStart = true
		return tok
	case '=':
		tok = l.twoCharOp('=', token.EQ, token.ASSIGN)
	case '+':
		tok = l.twoCharOp('=', token.PLUSASSIGN, token.PLUS)
	case '-':
		if l.peekChar() == '>' {
			tok = l.makeTwo(token.ARROW)
		} else {
			tok = l.twoCharOp('=', token.MINUSASSIGN, token.MINUS)
		}
	case '*':
		if l.peekChar() == '*' {
			start := l.column
			l.readChar()
			if l.peekChar() == '=' {
				l.readChar()
				tok = token.Token{Type: token.POWASSIGN, Lexeme: "**=", Line: l.line, Column: start}
			} else {
				tok = token.Token{Type: token.POW, Lexeme: "**", Line: l.line, Column: start}
			}
		} else {
			tok = l.twoCharOp('=', token.ASTERISKASSIGN, token.ASTERISK)
		}
	case '/':
		if l.peekChar() == '/' {
			start := l.column
			l.readChar()
			if l.peekChar() == '=' {
				l.readChar()
				tok = token.Token{Type: token.DSLASHASSIGN, Lexeme: "//=", Line: l.line, Column: start}
			} else {
				tok = token.Token{Type: token.DSLASH, Lexeme: "//", Line: l.line, Column: start}
			}
		} else {
			tok = l.twoCharOp('=', token.SLASHASSIGN, token.SLASH)
		}
	case '%':
		tok = l.twoCharOp('=', token.PERCENTASSIGN, token.PERCENT)
	case '<':
		if l.peekChar() == '<' {
			start := l.column
			l.readChar()
			if l.peekChar() == '=' {
				l.readChar()
				tok = token.Token{Type: token.SHLASSIGN, Lexeme: "<<=", Line: l.line, Column: start}
			} else {
				tok = token.Token{Type: token.SHL, Lexeme: "<<", Line: l.line, Column: start}
			}
		} else {
			tok = l.twoCharOp('=', token.LTEQ, token.LT)
		}
	case '>':
		if l.peekChar() == '>' {
			start := l.column
			l.readChar()
			if l.peekChar() == '=' {
				l.readChar()
				tok = token.Token{Type: token.SHRASSIGN, Lexeme: ">>=", Line: l.line, Column: start}
			} else {
				tok = token.Token{Type: token.SHR, Lexeme: ">>", Line: l.line, Column: start}
			}
		} else {
			tok = l.twoCharOp('=', token.GTEQ, token.GT)
		}
	case '!':
		if l.peekChar() == '=' {
			tok = l.makeTwo(token.NOTEQ)
		} else {
			tok = token.Token{Type: token.ILLEGAL, Lexeme: string(l.ch), Line: l.line, Column: l.column}
		}
	case '&':
		tok = l.twoCharOp('=', token.AMPASSIGN, token.AMP)
	case '|':
		tok = l.twoCharOp('=', token.PIPEASSIGN, token.PIPE)
	case '^':
		tok = l.twoCharOp('=', token.CARETASSIGN, token.CARET)
	case '~':
		tok = l.single(token.TILDE)
	case ',':
		tok = l.single(token.COMMA)
	case ':':
		tok = l.single(token.COLON)
	case '.':
		tok = l.single(token.DOT)
	case '(':
		l.parenDepth++
		tok = l.single(token.LPAREN)
	case ')':
		if l.parenDepth > 0 {
			l.parenDepth--
		}
		tok = l.single(token.RPAREN)
	case '[':
		l.parenDepth++
		tok = l.single(token.LBRACKET)
	case ']':
		if l.parenDepth > 0 {
			l.parenDepth--
		}
		tok = l.single(token.RBRACKET)
	case '{':
		l.parenDepth++
		tok = l.single(token.LBRACE)
	case '}':
		if l.parenDepth > 0 {
			l.parenDepth--
		}
		tok = l.single(token.RBRACE)
	case '"', '\'':
		return l.readString(l.ch)
	default:
		if isIdentStart(l.ch) {
			return l.readIdentifier()
		}
		if unicode.IsDigit(l.ch) {
			return l.readNumber()
		}
		tok = token.Token{Type: token.ILLEGAL, Lexeme: string(l.ch), Line: l.line, Column: l.column}
	}

	l.readChar()
	return tok
}

// handleLineStart measures indentation and queues INDENT/DEDENT tokens.
// Blank and comment-only lines produce no tokens at all.
func (l *Lexer) handleLineStart() (token.Token, bool) {
	l.atLineStart = false
	width := 0
	for l.ch == ' ' || l.ch == '\t' {
		if l.ch == '\t' {
			width += 8 - width%8
		} else {
			width++
		}
		l.readChar()
	}
	if l.ch == '#' {
		l.skipComment()
	}
	if l.ch == '\n' {
		// Blank line: consume and restart.
		l.readChar()
		l.atLineStart = true
		return l.NextToken(), true
	}
	if l.ch == 0 {
		return token.Token{}, false
	}

	current := l.indents[len(l.indents)-1]
	if width > current {
		l.indents = append(l.indents, width)
		return token.Token{Type: token.INDENT, Lexeme: "", Line: l.line, Column: l.column}, true
	}
	if width < current {
		for len(l.indents) > 1 && l.indents[len(l.indents)-1] > width {
			l.indents = l.indents[:len(l.indents)-1]
			l.pending = append(l.pending, token.Token{Type: token.DEDENT, Lexeme: "", Line: l.line, Column: l.column})
		}
		if l.indents[len(l.indents)-1] != width {
			// Dedent to a level that was never opened.
			l.pending = append(l.pending, token.Token{Type: token.ILLEGAL, Lexeme: "<indent>", Line: l.line, Column: l.column})
		}
		tok := l.pending[0]
		l.pending = l.pending[1:]
		return tok, true
	}
	return token.Token{}, false
}

func (l *Lexer) skipSpaces() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
	// Line continuation.
	if l.ch == '\\' && l.peekChar() == '\n' {
		l.readChar()
		l.readChar()
		l.skipSpaces()
	}
}

func (l *Lexer) skipComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

func (l *Lexer) single(tt token.Type) token.Token {
	return token.Token{Type: tt, Lexeme: string(l.ch), Line: l.line, Column: l.column}
}

// twoCharOp returns the two-char token when the next char matches follow,
// otherwise the one-char token.
func (l *Lexer) twoCharOp(follow rune, twoType, oneType token.Type) token.Token {
	if l.peekChar() == follow {
		return l.makeTwo(twoType)
	}
	return l.single(oneType)
}

func (l *Lexer) makeTwo(tt token.Type) token.Token {
	start := l.column
	first := l.ch
	l.readChar()
	return token.Token{Type: tt, Lexeme: string(first) + string(l.ch), Line: l.line, Column: start}
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

func (l *Lexer) readIdentifier() token.Token {
	startCol := l.column
	startLine := l.line
	start := l.position
	for isIdentPart(l.ch) {
		l.readChar()
	}
	lexeme := l.input[start:l.position]
	return token.Token{Type: token.LookupIdent(lexeme), Lexeme: lexeme, Line: startLine, Column: startCol}
}

func (l *Lexer) readNumber() token.Token {
	startCol := l.column
	startLine := l.line
	start := l.position
	isFloat := false
	for unicode.IsDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	if l.ch == '.' && unicode.IsDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for unicode.IsDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if unicode.IsDigit(next) || next == '+' || next == '-' {
			isFloat = true
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for unicode.IsDigit(l.ch) {
				l.readChar()
			}
		}
	}
	lexeme := strings.ReplaceAll(l.input[start:l.position], "_", "")
	tt := token.Type(token.INT)
	if isFloat {
		tt = token.FLOAT
	}
	return token.Token{Type: tt, Lexeme: lexeme, Line: startLine, Column: startCol}
}

func (l *Lexer) readString(quote rune) token.Token {
	startCol := l.column
	startLine := l.line
	var b strings.Builder
	l.readChar() // consume opening quote
	for l.ch != quote {
		if l.ch == 0 || l.ch == '\n' {
			return token.Token{Type: token.ILLEGAL, Lexeme: b.String(), Line: startLine, Column: startCol}
		}
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\':
				b.WriteByte('\\')
			case '\'':
				b.WriteByte('\'')
			case '"':
				b.WriteByte('"')
			case '0':
				b.WriteByte(0)
			default:
				b.WriteRune(l.ch)
			}
			l.readChar()
			continue
		}
		b.WriteRune(l.ch)
		l.readChar()
	}
	l.readChar() // consume closing quote
	return token.Token{Type: token.STRING, Lexeme: b.String(), Line: startLine, Column: startCol}
}
