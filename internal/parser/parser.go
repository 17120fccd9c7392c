// Package parser builds the source syntax tree from the token stream.
//
// It is a Pratt parser over logical lines: statements are terminated by
// NEWLINE tokens and blocks are bracketed by INDENT/DEDENT. Parse problems
// become diagnostics; the parser recovers at the next statement boundary and
// keeps going so one run reports as much as possible.
package parser

import (
	"github.com/pylift/pylift/internal/ast"
	"github.com/pylift/pylift/internal/diagnostics"
	"github.com/pylift/pylift/internal/lexer"
	"github.com/pylift/pylift/internal/token"
)

// Operator precedence levels, lowest first.
const (
	_ int = iota
	precLowest
	precTernary // a if c else b
	precOr
	precAnd
	precNot
	precCompare // == != < > <= >= in, not in, is, is not
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precSum
	precProduct
	precUnary
	precPower
	precCall // call, index, attribute
)

var precedences = map[token.Type]int{
	token.OR:       precOr,
	token.AND:      precAnd,
	token.EQ:       precCompare,
	token.NOTEQ:    precCompare,
	token.LT:       precCompare,
	token.GT:       precCompare,
	token.LTEQ:     precCompare,
	token.GTEQ:     precCompare,
	token.IN:       precCompare,
	token.NOT:      precCompare, // `not in` in infix position
	token.IS:       precCompare,
	token.PIPE:     precBitOr,
	token.CARET:    precBitXor,
	token.AMP:      precBitAnd,
	token.SHL:      precShift,
	token.SHR:      precShift,
	token.PLUS:     precSum,
	token.MINUS:    precSum,
	token.ASTERISK: precProduct,
	token.SLASH:    precProduct,
	token.DSLASH:   precProduct,
	token.PERCENT:  precProduct,
	token.POW:      precPower,
	token.LPAREN:   precCall,
	token.LBRACKET: precCall,
	token.DOT:      precCall,
	token.IF:       precTernary,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	l     *lexer.Lexer
	diags *diagnostics.Collection

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn
}

// New creates a parser reporting into diags.
func New(l *lexer.Lexer, diags *diagnostics.Collection) *Parser {
	p := &Parser{l: l, diags: diags}

	p.prefixParseFns = map[token.Type]prefixParseFn{
		token.IDENT:    p.parseIdentifier,
		token.INT:      p.parseIntLiteral,
		token.FLOAT:    p.parseFloatLiteral,
		token.STRING:   p.parseStringLiteral,
		token.TRUE:     p.parseBoolLiteral,
		token.FALSE:    p.parseBoolLiteral,
		token.NONE:     p.parseNoneLiteral,
		token.MINUS:    p.parseUnary,
		token.PLUS:     p.parseUnary,
		token.TILDE:    p.parseUnary,
		token.NOT:      p.parseUnary,
		token.LPAREN:   p.parseParenExpr,
		token.LBRACKET: p.parseListLiteral,
		token.LBRACE:   p.parseBraceLiteral,
	}
	p.infixParseFns = map[token.Type]infixParseFn{
		token.PLUS:     p.parseBinary,
		token.MINUS:    p.parseBinary,
		token.ASTERISK: p.parseBinary,
		token.SLASH:    p.parseBinary,
		token.DSLASH:   p.parseBinary,
		token.PERCENT:  p.parseBinary,
		token.POW:      p.parseBinary,
		token.EQ:       p.parseBinary,
		token.NOTEQ:    p.parseBinary,
		token.LT:       p.parseBinary,
		token.GT:       p.parseBinary,
		token.LTEQ:     p.parseBinary,
		token.GTEQ:     p.parseBinary,
		token.AND:      p.parseBinary,
		token.OR:       p.parseBinary,
		token.AMP:      p.parseBinary,
		token.PIPE:     p.parseBinary,
		token.CARET:    p.parseBinary,
		token.SHL:      p.parseBinary,
		token.SHR:      p.parseBinary,
		token.IN:       p.parseBinary,
		token.IS:       p.parseIsExpr,
		token.NOT:      p.parseNotInExpr,
		token.LPAREN:   p.parseCall,
		token.LBRACKET: p.parseIndexOrSlice,
		token.DOT:      p.parseAttribute,
		token.IF:       p.parseIfExp,
	}

	// Prime curToken and peekToken.
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t token.Type) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.Type) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errorf(p.peekToken, "expected %s, got %s", t, p.peekToken.Type)
	return false
}

func (p *Parser) errorf(tok token.Token, format string, args ...interface{}) {
	p.diags.Add(diagnostics.NewError(diagnostics.ErrP001, diagnostics.PhaseParse, tok, format, args...))
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return precLowest
}

// ParseProgram consumes the whole token stream.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}
	for !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.NEWLINE) {
			p.nextToken()
			continue
		}
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		} else {
			p.recover()
		}
		p.nextToken()
	}
	return program
}

// recover skips to the next statement boundary after a parse error.
func (p *Parser) recover() {
	for !p.curTokenIs(token.NEWLINE) && !p.curTokenIs(token.EOF) && !p.curTokenIs(token.DEDENT) {
		p.nextToken()
	}
}
