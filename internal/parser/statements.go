package parser

import (
	"github.com/pylift/pylift/internal/ast"
	"github.com/pylift/pylift/internal/token"
)

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.DEF:
		return p.parseFuncDef()
	case token.CLASS:
		return p.parseClassDef()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.FOR:
		return p.parseFor()
	case token.RETURN:
		return p.parseReturn()
	case token.BREAK:
		return &ast.Break{Token: p.curToken}
	case token.CONTINUE:
		return &ast.Continue{Token: p.curToken}
	case token.PASS:
		return &ast.Pass{Token: p.curToken}
	case token.RAISE:
		return p.parseRaise()
	case token.TRY:
		return p.parseTry()
	case token.ASSERT:
		return p.parseAssert()
	case token.IMPORT:
		return p.parseImport()
	case token.FROM:
		return p.parseFromImport()
	case token.GLOBAL, token.LAMBDA:
		stmt := &ast.Unsupported{Token: p.curToken, What: p.curToken.Lexeme + " statement"}
		p.recover()
		return stmt
	default:
		return p.parseSimpleStatement()
	}
}

// parseSimpleStatement parses assignments, augmented assignments and
// expression statements.
func (p *Parser) parseSimpleStatement() ast.Statement {
	tok := p.curToken
	expr := p.parseExpressionOrTargetList()
	if expr == nil {
		return nil
	}

	switch p.peekToken.Type {
	case token.COLON:
		// Annotated assignment: `target: hint = value`, or a bare annotated
		// declaration `field: hint` (record bodies).
		p.nextToken()
		hint := p.parseTypeHint()
		if hint == nil {
			return nil
		}
		var value ast.Expression
		if p.peekTokenIs(token.ASSIGN) {
			p.nextToken()
			p.nextToken()
			value = p.parseExpressionOrTargetList()
			if value == nil {
				return nil
			}
		}
		return &ast.Assign{Token: tok, Target: expr, Hint: hint, Value: value}
	case token.ASSIGN:
		p.nextToken()
		p.nextToken()
		value := p.parseExpressionOrTargetList()
		if value == nil {
			return nil
		}
		return &ast.Assign{Token: tok, Target: expr, Value: value}
	case token.PLUSASSIGN, token.MINUSASSIGN, token.ASTERISKASSIGN, token.SLASHASSIGN,
		token.DSLASHASSIGN, token.PERCENTASSIGN, token.POWASSIGN,
		token.AMPASSIGN, token.PIPEASSIGN, token.CARETASSIGN, token.SHLASSIGN, token.SHRASSIGN:
		p.nextToken()
		op := p.curToken.Lexeme
		op = op[:len(op)-1] // strip the trailing '='
		p.nextToken()
		value := p.parseExpression(precLowest)
		if value == nil {
			return nil
		}
		return &ast.AugAssign{Token: tok, Target: expr, Op: op, Value: value}
	}
	return &ast.ExpressionStatement{Token: tok, Expr: expr}
}

// parseExpressionOrTargetList parses an expression, folding a bare comma
// sequence (a, b = ... / return a, b) into a tuple.
func (p *Parser) parseExpressionOrTargetList() ast.Expression {
	first := p.parseExpression(precLowest)
	if first == nil {
		return nil
	}
	if !p.peekTokenIs(token.COMMA) {
		return first
	}
	tup := &ast.TupleLiteral{Token: first.GetToken(), Elements: []ast.Expression{first}}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		e := p.parseExpression(precLowest)
		if e == nil {
			return nil
		}
		tup.Elements = append(tup.Elements, e)
	}
	return tup
}

// parseBlock parses `: NEWLINE INDENT stmts DEDENT` or an inline simple
// statement after the colon.
func (p *Parser) parseBlock() []ast.Statement {
	if !p.expectPeek(token.COLON) {
		return nil
	}
	if !p.peekTokenIs(token.NEWLINE) {
		// Inline suite: a single simple statement on the same line.
		p.nextToken()
		stmt := p.parseStatement()
		if stmt == nil {
			return nil
		}
		return []ast.Statement{stmt}
	}
	p.nextToken() // NEWLINE
	if !p.expectPeek(token.INDENT) {
		return nil
	}
	var stmts []ast.Statement
	p.nextToken()
	for !p.curTokenIs(token.DEDENT) && !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.NEWLINE) {
			p.nextToken()
			continue
		}
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		} else {
			p.recover()
		}
		p.nextToken()
	}
	return stmts
}

// parseTypeHint parses a type annotation: NAME, NAME[T], NAME[K, V],
// dotted names, or None.
func (p *Parser) parseTypeHint() *ast.TypeHint {
	if !p.peekTokenIs(token.IDENT) && !p.peekTokenIs(token.NONE) {
		p.errorf(p.peekToken, "expected type annotation, got %s", p.peekToken.Type)
		return nil
	}
	p.nextToken()
	hint := &ast.TypeHint{Token: p.curToken, Name: p.curToken.Lexeme}
	for p.peekTokenIs(token.DOT) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		hint.Name += "." + p.curToken.Lexeme
	}
	if p.peekTokenIs(token.LBRACKET) {
		p.nextToken()
		for {
			sub := p.parseTypeHint()
			if sub == nil {
				return nil
			}
			hint.Params = append(hint.Params, sub)
			if p.peekTokenIs(token.COMMA) {
				p.nextToken()
				continue
			}
			break
		}
		if !p.expectPeek(token.RBRACKET) {
			return nil
		}
	}
	return hint
}

func (p *Parser) parseFuncDef() ast.Statement {
	tok := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	fn := &ast.FuncDef{Token: tok, Name: p.curToken.Lexeme}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	for !p.peekTokenIs(token.RPAREN) {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		param := ast.Param{Token: p.curToken, Name: p.curToken.Lexeme}
		if p.peekTokenIs(token.COLON) {
			p.nextToken()
			param.Hint = p.parseTypeHint()
			if param.Hint == nil {
				return nil
			}
		}
		if p.peekTokenIs(token.ASSIGN) {
			p.nextToken()
			p.nextToken()
			param.Default = p.parseExpression(precLowest)
			if param.Default == nil {
				return nil
			}
		}
		fn.Params = append(fn.Params, param)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		}
	}
	p.nextToken() // RPAREN
	if p.peekTokenIs(token.ARROW) {
		p.nextToken()
		fn.RetHint = p.parseTypeHint()
		if fn.RetHint == nil {
			return nil
		}
	}
	fn.Body = p.parseBlock()
	if fn.Body == nil {
		return nil
	}
	return fn
}

// parseClassDef accepts record-style class bodies: annotated field
// declarations only. Anything richer (methods, inheritance) is surfaced as
// an unsupported construct for the analyzer to report.
func (p *Parser) parseClassDef() ast.Statement {
	tok := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	if p.peekTokenIs(token.LPAREN) {
		p.recover()
		return &ast.Unsupported{Token: tok, What: "class inheritance"}
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return &ast.ClassDef{Token: tok, Name: name, Body: body}
}

func (p *Parser) parseIf() ast.Statement {
	stmt := &ast.If{Token: p.curToken}
	p.nextToken()
	stmt.Cond = p.parseExpression(precLowest)
	if stmt.Cond == nil {
		return nil
	}
	stmt.Then = p.parseBlock()
	if stmt.Then == nil {
		return nil
	}
	for p.peekTokenIs(token.ELIF) {
		p.nextToken()
		clause := ast.ElifClause{Token: p.curToken}
		p.nextToken()
		clause.Cond = p.parseExpression(precLowest)
		if clause.Cond == nil {
			return nil
		}
		clause.Body = p.parseBlock()
		if clause.Body == nil {
			return nil
		}
		stmt.Elifs = append(stmt.Elifs, clause)
	}
	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		stmt.Else = p.parseBlock()
		if stmt.Else == nil {
			return nil
		}
	}
	return stmt
}

func (p *Parser) parseWhile() ast.Statement {
	stmt := &ast.While{Token: p.curToken}
	p.nextToken()
	stmt.Cond = p.parseExpression(precLowest)
	if stmt.Cond == nil {
		return nil
	}
	stmt.Body = p.parseBlock()
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseFor() ast.Statement {
	stmt := &ast.For{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	target := ast.Expression(&ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme})
	if p.peekTokenIs(token.COMMA) {
		tup := &ast.TupleLiteral{Token: p.curToken, Elements: []ast.Expression{target}}
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			tup.Elements = append(tup.Elements, &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme})
		}
		target = tup
	}
	stmt.Target = target
	if !p.expectPeek(token.IN) {
		return nil
	}
	p.nextToken()
	stmt.Iter = p.parseExpression(precLowest)
	if stmt.Iter == nil {
		return nil
	}
	stmt.Body = p.parseBlock()
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseReturn() ast.Statement {
	stmt := &ast.Return{Token: p.curToken}
	if p.peekTokenIs(token.NEWLINE) || p.peekTokenIs(token.EOF) || p.peekTokenIs(token.DEDENT) {
		return stmt
	}
	p.nextToken()
	stmt.Value = p.parseExpressionOrTargetList()
	if stmt.Value == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseRaise() ast.Statement {
	stmt := &ast.Raise{Token: p.curToken}
	if p.peekTokenIs(token.NEWLINE) || p.peekTokenIs(token.EOF) || p.peekTokenIs(token.DEDENT) {
		return stmt // bare re-raise
	}
	p.nextToken()
	stmt.Exc = p.parseExpression(precLowest)
	if stmt.Exc == nil {
		return nil
	}
	if p.peekTokenIs(token.FROM) {
		p.nextToken()
		p.nextToken()
		stmt.Cause = p.parseExpression(precLowest)
		if stmt.Cause == nil {
			return nil
		}
	}
	return stmt
}

func (p *Parser) parseTry() ast.Statement {
	stmt := &ast.Try{Token: p.curToken}
	stmt.Body = p.parseBlock()
	if stmt.Body == nil {
		return nil
	}
	for p.peekTokenIs(token.EXCEPT) {
		p.nextToken()
		clause := ast.ExceptClause{Token: p.curToken}
		if p.peekTokenIs(token.IDENT) {
			p.nextToken()
			clause.Kinds = append(clause.Kinds, p.curToken.Lexeme)
		} else if p.peekTokenIs(token.LPAREN) {
			p.nextToken()
			for {
				if !p.expectPeek(token.IDENT) {
					return nil
				}
				clause.Kinds = append(clause.Kinds, p.curToken.Lexeme)
				if p.peekTokenIs(token.COMMA) {
					p.nextToken()
					continue
				}
				break
			}
			if !p.expectPeek(token.RPAREN) {
				return nil
			}
		}
		if p.peekTokenIs(token.AS) {
			p.nextToken()
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			clause.Name = p.curToken.Lexeme
		}
		clause.Body = p.parseBlock()
		if clause.Body == nil {
			return nil
		}
		stmt.Handlers = append(stmt.Handlers, clause)
	}
	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		stmt.Else = p.parseBlock()
		if stmt.Else == nil {
			return nil
		}
	}
	if p.peekTokenIs(token.FINALLY) {
		p.nextToken()
		stmt.Finally = p.parseBlock()
		if stmt.Finally == nil {
			return nil
		}
	}
	if len(stmt.Handlers) == 0 && stmt.Finally == nil {
		p.errorf(stmt.Token, "try block needs at least one except or finally clause")
		return nil
	}
	return stmt
}

func (p *Parser) parseAssert() ast.Statement {
	stmt := &ast.Assert{Token: p.curToken}
	p.nextToken()
	stmt.Test = p.parseExpression(precLowest)
	if stmt.Test == nil {
		return nil
	}
	if p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		stmt.Msg = p.parseExpression(precLowest)
		if stmt.Msg == nil {
			return nil
		}
	}
	return stmt
}

func (p *Parser) parseImport() ast.Statement {
	stmt := &ast.Import{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Module = p.curToken.Lexeme
	for p.peekTokenIs(token.DOT) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		stmt.Module += "." + p.curToken.Lexeme
	}
	if p.peekTokenIs(token.AS) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		stmt.Alias = p.curToken.Lexeme
	}
	return stmt
}

func (p *Parser) parseFromImport() ast.Statement {
	stmt := &ast.FromImport{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Module = p.curToken.Lexeme
	for p.peekTokenIs(token.DOT) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		stmt.Module += "." + p.curToken.Lexeme
	}
	if !p.expectPeek(token.IMPORT) {
		return nil
	}
	for {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		name := ast.ImportedName{Name: p.curToken.Lexeme}
		if p.peekTokenIs(token.AS) {
			p.nextToken()
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			name.Alias = p.curToken.Lexeme
		}
		stmt.Names = append(stmt.Names, name)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	return stmt
}
