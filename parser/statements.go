package parser

import (
	"github.com/skx/cc/ast"
	"github.com/skx/cc/internal/types"
	"github.com/skx/cc/token"
)

// parseBlock parses "{ stmt* }".
func (p *Parser) parseBlock() (*ast.Block, error) {
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for p.cur.Type != token.RBRACE && p.cur.Type != token.EOF {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return &ast.Block{Stmts: stmts}, nil
}

// parseStatement dispatches on the current token to one of the
// statement productions listed in the data model.
func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch p.cur.Type {
	case token.LBRACE:
		return p.parseBlock()

	case token.SEMICOLON:
		return &ast.Block{}, p.advance()

	case token.IF:
		return p.parseIf()

	case token.WHILE:
		return p.parseWhile()

	case token.DO:
		return p.parseDoWhile()

	case token.FOR:
		return p.parseFor()

	case token.BREAK:
		if err := p.advance(); err != nil {
			return nil, err
		}
		_, err := p.expect(token.SEMICOLON)
		return &ast.Break{}, err

	case token.CONTINUE:
		if err := p.advance(); err != nil {
			return nil, err
		}
		_, err := p.expect(token.SEMICOLON)
		return &ast.Continue{}, err

	case token.RETURN:
		return p.parseReturn()

	case token.GOTO:
		return p.parseGoto()

	case token.INT, token.CHAR:
		return p.parseLocalDecl()

	case token.STRUCT:
		// A struct-typed local declaration; parsed and discarded
		// the same way a top-level struct member is.
		if _, err := p.parseBaseType(); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.IDENT); err != nil {
			return nil, err
		}
		_, err := p.expect(token.SEMICOLON)
		return &ast.Block{}, err

	case token.IDENT:
		if p.peek.Type == token.COLON {
			return p.parseLabeled()
		}
		return p.parseExprStatement()

	default:
		return p.parseExprStatement()
	}
}

func (p *Parser) parseExprStatement() (ast.Stmt, error) {
	x, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{X: x}, nil
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	if err := p.advance(); err != nil { // 'if'
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	var els ast.Stmt
	if p.cur.Type == token.ELSE {
		if err := p.advance(); err != nil {
			return nil, err
		}
		els, err = p.parseStatement()
		if err != nil {
			return nil, err
		}
	}
	return &ast.If{Cond: cond, Then: then, Else: els}, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.While{Cond: cond, Body: body}, nil
}

func (p *Parser) parseDoWhile() (ast.Stmt, error) {
	if err := p.advance(); err != nil { // 'do'
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.WHILE); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.DoWhile{Body: body, Cond: cond}, nil
}

func (p *Parser) parseFor() (ast.Stmt, error) {
	if err := p.advance(); err != nil { // 'for'
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	var init ast.Stmt
	if p.cur.Type == token.SEMICOLON {
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else if p.cur.Type == token.INT || p.cur.Type == token.CHAR {
		var err error
		init, err = p.parseLocalDecl() // consumes the trailing ';'
		if err != nil {
			return nil, err
		}
	} else {
		x, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		init = &ast.ExprStmt{X: x}
	}

	var cond ast.Expr
	if p.cur.Type != token.SEMICOLON {
		var err error
		cond, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}

	var step ast.Expr
	if p.cur.Type != token.RPAREN {
		var err error
		step, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.For{Init: init, Cond: cond, Step: step, Body: body}, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.Type == token.SEMICOLON {
		return &ast.Return{}, p.advance()
	}
	x, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.Return{X: x}, nil
}

func (p *Parser) parseGoto() (ast.Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	p.pendingGotos = append(p.pendingGotos, nameTok.Literal)
	return &ast.Goto{Label: nameTok.Literal}, nil
}

func (p *Parser) parseLabeled() (ast.Stmt, error) {
	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	if p.fn != nil {
		p.fn.DeclareLabel(nameTok.Literal)
	}
	inner, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.Labeled{Label: nameTok.Literal, Stmt: inner}, nil
}

// parseLocalDecl parses "type [*]* name ([dims])? (= init)? (, ...)* ;"
// inside a function body. Every name declared shares the function's one
// flat scope; a local declaration may appear anywhere a statement can.
func (p *Parser) parseLocalDecl() (ast.Stmt, error) {
	base, err := p.parseBaseType()
	if err != nil {
		return nil, err
	}

	var decls []ast.Stmt
	for {
		ptrCount := 0
		for p.cur.Type == token.ASTERISK {
			ptrCount++
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		nameTok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		declType := applyPointers(base, ptrCount)
		declType, err = p.parseArrayDims(declType)
		if err != nil {
			return nil, err
		}

		sym := p.fn.Declare(nameTok.Literal, declType)
		ref := &ast.VarRef{
			Name:         nameTok.Literal,
			IsLocal:      true,
			RBPOffset:    sym.RBPOffset,
			DeclaredType: declType,
		}
		ref.Type = types.Decay(declType)

		var initExpr ast.Expr
		if p.cur.Type == token.ASSIGN {
			if err := p.advance(); err != nil {
				return nil, err
			}
			initExpr, err = p.parseAssign()
			if err != nil {
				return nil, err
			}
		}

		decls = append(decls, &ast.LocalDecl{Name: nameTok.Literal, Type: declType, Init: initExpr, Ref: ref})

		if p.cur.Type == token.COMMA {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}

	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	if len(decls) == 1 {
		return decls[0], nil
	}
	return &ast.Block{Stmts: decls}, nil
}
