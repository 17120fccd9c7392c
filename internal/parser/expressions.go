package parser

import (
	"strconv"

	"github.com/pylift/pylift/internal/ast"
	"github.com/pylift/pylift/internal/diagnostics"
	"github.com/pylift/pylift/internal/token"
)

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.errorf(p.curToken, "unexpected token %s in expression", p.curToken.Type)
		return nil
	}
	left := prefix()

	for left != nil && !p.peekTokenIs(token.NEWLINE) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
}

func (p *Parser) parseIntLiteral() ast.Expression {
	v, err := strconv.ParseInt(p.curToken.Lexeme, 10, 64)
	if err != nil {
		p.diags.Add(diagnostics.NewError(diagnostics.ErrP003, diagnostics.PhaseParse, p.curToken,
			"malformed integer literal %q", p.curToken.Lexeme))
		return nil
	}
	return &ast.IntLiteral{Token: p.curToken, Value: v}
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	v, err := strconv.ParseFloat(p.curToken.Lexeme, 64)
	if err != nil {
		p.diags.Add(diagnostics.NewError(diagnostics.ErrP003, diagnostics.PhaseParse, p.curToken,
			"malformed float literal %q", p.curToken.Lexeme))
		return nil
	}
	return &ast.FloatLiteral{Token: p.curToken, Value: v}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Lexeme}
}

func (p *Parser) parseBoolLiteral() ast.Expression {
	return &ast.BoolLiteral{Token: p.curToken, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNoneLiteral() ast.Expression {
	return &ast.NoneLiteral{Token: p.curToken}
}

func (p *Parser) parseUnary() ast.Expression {
	tok := p.curToken
	op := tok.Lexeme
	prec := precUnary
	if tok.Type == token.NOT {
		prec = precNot
	}
	p.nextToken()
	operand := p.parseExpression(prec)
	if operand == nil {
		return nil
	}
	return &ast.UnaryOp{Token: tok, Op: op, Operand: operand}
}

func (p *Parser) parseBinary(left ast.Expression) ast.Expression {
	tok := p.curToken
	op := tok.Lexeme
	prec := precedences[tok.Type]
	if tok.Type == token.POW {
		// Exponentiation is right-associative.
		prec--
	}
	p.nextToken()
	right := p.parseExpression(prec)
	if right == nil {
		return nil
	}
	return &ast.BinaryOp{Token: tok, Left: left, Op: op, Right: right}
}

// parseIsExpr handles `is` and `is not`.
func (p *Parser) parseIsExpr(left ast.Expression) ast.Expression {
	tok := p.curToken
	op := "is"
	if p.peekTokenIs(token.NOT) {
		p.nextToken()
		op = "is not"
	}
	p.nextToken()
	right := p.parseExpression(precCompare)
	if right == nil {
		return nil
	}
	return &ast.BinaryOp{Token: tok, Left: left, Op: op, Right: right}
}

// parseNotInExpr handles the infix `not in`.
func (p *Parser) parseNotInExpr(left ast.Expression) ast.Expression {
	tok := p.curToken
	if !p.expectPeek(token.IN) {
		return nil
	}
	p.nextToken()
	right := p.parseExpression(precCompare)
	if right == nil {
		return nil
	}
	return &ast.BinaryOp{Token: tok, Left: left, Op: "not in", Right: right}
}

// parseIfExp handles the conditional expression `a if cond else b`.
func (p *Parser) parseIfExp(then ast.Expression) ast.Expression {
	tok := p.curToken
	p.nextToken()
	cond := p.parseExpression(precTernary)
	if cond == nil {
		return nil
	}
	if !p.expectPeek(token.ELSE) {
		return nil
	}
	p.nextToken()
	els := p.parseExpression(precTernary)
	if els == nil {
		return nil
	}
	return &ast.IfExp{Token: tok, Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseParenExpr() ast.Expression {
	tok := p.curToken
	if p.peekTokenIs(token.RPAREN) {
		// Empty tuple.
		p.nextToken()
		return &ast.TupleLiteral{Token: tok}
	}
	p.nextToken()
	first := p.parseExpression(precLowest)
	if first == nil {
		return nil
	}
	if p.peekTokenIs(token.COMMA) {
		elems := []ast.Expression{first}
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			if p.peekTokenIs(token.RPAREN) {
				break
			}
			p.nextToken()
			e := p.parseExpression(precLowest)
			if e == nil {
				return nil
			}
			elems = append(elems, e)
		}
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		return &ast.TupleLiteral{Token: tok, Elements: elems}
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return first
}

func (p *Parser) parseListLiteral() ast.Expression {
	tok := p.curToken
	elems := p.parseExpressionList(token.RBRACKET)
	return &ast.ListLiteral{Token: tok, Elements: elems}
}

// parseBraceLiteral parses {..}: a dict when the first element is followed by
// a colon, a set otherwise, and an empty dict for {}.
func (p *Parser) parseBraceLiteral() ast.Expression {
	tok := p.curToken
	if p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		return &ast.DictLiteral{Token: tok}
	}
	p.nextToken()
	first := p.parseExpression(precLowest)
	if first == nil {
		return nil
	}
	if p.peekTokenIs(token.COLON) {
		dict := &ast.DictLiteral{Token: tok}
		p.nextToken() // colon
		p.nextToken()
		val := p.parseExpression(precLowest)
		if val == nil {
			return nil
		}
		dict.Keys = append(dict.Keys, first)
		dict.Values = append(dict.Values, val)
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			if p.peekTokenIs(token.RBRACE) {
				break
			}
			p.nextToken()
			k := p.parseExpression(precLowest)
			if k == nil || !p.expectPeek(token.COLON) {
				return nil
			}
			p.nextToken()
			v := p.parseExpression(precLowest)
			if v == nil {
				return nil
			}
			dict.Keys = append(dict.Keys, k)
			dict.Values = append(dict.Values, v)
		}
		if !p.expectPeek(token.RBRACE) {
			return nil
		}
		return dict
	}
	set := &ast.SetLiteral{Token: tok, Elements: []ast.Expression{first}}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if p.peekTokenIs(token.RBRACE) {
			break
		}
		p.nextToken()
		e := p.parseExpression(precLowest)
		if e == nil {
			return nil
		}
		set.Elements = append(set.Elements, e)
	}
	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return set
}

// parseExpressionList parses a comma-separated list up to end, consuming end.
func (p *Parser) parseExpressionList(end token.Type) []ast.Expression {
	var list []ast.Expression
	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}
	p.nextToken()
	e := p.parseExpression(precLowest)
	if e == nil {
		return nil
	}
	list = append(list, e)
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if p.peekTokenIs(end) {
			break
		}
		p.nextToken()
		e = p.parseExpression(precLowest)
		if e == nil {
			return nil
		}
		list = append(list, e)
	}
	if !p.expectPeek(end) {
		return nil
	}
	return list
}

func (p *Parser) parseCall(fn ast.Expression) ast.Expression {
	call := &ast.Call{Token: p.curToken, Func: fn}
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return call
	}
	for {
		p.nextToken()
		// Keyword argument: IDENT = expr.
		if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.ASSIGN) {
			name := p.curToken.Lexeme
			p.nextToken() // '='
			p.nextToken()
			val := p.parseExpression(precLowest)
			if val == nil {
				return nil
			}
			call.Keywords = append(call.Keywords, ast.Keyword{Name: name, Value: val})
		} else {
			arg := p.parseExpression(precLowest)
			if arg == nil {
				return nil
			}
			if len(call.Keywords) > 0 {
				p.errorf(p.curToken, "positional argument follows keyword argument")
				return nil
			}
			call.Args = append(call.Args, arg)
		}
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			if p.peekTokenIs(token.RPAREN) {
				break
			}
			continue
		}
		break
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return call
}

// parseIndexOrSlice parses target[idx], target[low:high] and
// target[low:high:step]. Absent slice bounds stay nil.
func (p *Parser) parseIndexOrSlice(target ast.Expression) ast.Expression {
	tok := p.curToken

	var low, high, step ast.Expression
	sawColon := false

	if !p.peekTokenIs(token.COLON) {
		p.nextToken()
		low = p.parseExpression(precLowest)
		if low == nil {
			return nil
		}
	}
	if p.peekTokenIs(token.COLON) {
		sawColon = true
		p.nextToken()
		if !p.peekTokenIs(token.COLON) && !p.peekTokenIs(token.RBRACKET) {
			p.nextToken()
			high = p.parseExpression(precLowest)
			if high == nil {
				return nil
			}
		}
		if p.peekTokenIs(token.COLON) {
			p.nextToken()
			if !p.peekTokenIs(token.RBRACKET) {
				p.nextToken()
				step = p.parseExpression(precLowest)
				if step == nil {
					return nil
				}
			}
		}
	}
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	if sawColon {
		return &ast.Slice{Token: tok, Target: target, Low: low, High: high, Step: step}
	}
	return &ast.Index{Token: tok, Target: target, Idx: low}
}

func (p *Parser) parseAttribute(value ast.Expression) ast.Expression {
	tok := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	return &ast.Attribute{Token: tok, Value: value, Attr: p.curToken.Lexeme}
}
