package parser

import (
	"github.com/skx/cc/ast"
	"github.com/skx/cc/internal/symbols"
	"github.com/skx/cc/internal/types"
	"github.com/skx/cc/token"
)

// parseExpression is the top-level expression entry point, including the
// comma (sequencing) operator: "a, b" evaluates a for effect and yields
// b's value and type.
func (p *Parser) parseExpression() (ast.Expr, error) {
	left, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.COMMA {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		left = setType(&ast.Comma{Left: left, Right: right}, right.ResolvedType())
	}
	return left, nil
}

// compoundOps maps a compound-assignment token to the binary operator it
// implies: "x += e" is "x = x + e" with x evaluated once.
var compoundOps = map[token.Type]string{
	token.PLUSEQ:    token.PLUS,
	token.MINUSEQ:   token.MINUS,
	token.STAREQ:    token.ASTERISK,
	token.SLASHEQ:   token.SLASH,
	token.PERCENTEQ: token.PERCENT,
	token.PIPEEQ:    token.PIPE,
	token.AMPEQ:     token.AMPERSAND,
	token.CARETEQ:   token.CARET,
	token.SHLASSIGN: token.SHL,
	token.SHRASSIGN: token.SHR,
}

// parseAssign is precedence level 1: assignment and compound assignment,
// right-associative.
func (p *Parser) parseAssign() (ast.Expr, error) {
	left, err := p.parseTernary()
	if err != nil {
		return nil, err
	}

	if p.cur.Type == token.ASSIGN {
		offset := p.cur.Offset
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		if !isLvalue(left) {
			return nil, p.errorf(offset, "left-hand side of assignment is not an lvalue")
		}
		return setType(&ast.Assign{Target: left, Value: right}, left.ResolvedType()), nil
	}

	if op, ok := compoundOps[p.cur.Type]; ok {
		offset := p.cur.Offset
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		if !isLvalue(left) {
			return nil, p.errorf(offset, "left-hand side of %q is not an lvalue", op)
		}
		scale := 0
		if (op == token.PLUS || op == token.MINUS) && types.IsPointerLike(left.ResolvedType()) {
			scale = types.SizeOf(types.PointerInner(left.ResolvedType()))
		}
		return setType(&ast.CompoundAssign{Op: op, Target: left, Value: right, Scale: scale}, left.ResolvedType()), nil
	}

	return left, nil
}

// parseTernary is precedence level 2: the conditional operator,
// right-associative.
func (p *Parser) parseTernary() (ast.Expr, error) {
	cond, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != token.QUESTION {
		return cond, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	then, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	// In this subset both arms share a type, per spec; we take the
	// "then" arm's type as the expression's type.
	return setType(&ast.Conditional{Cond: cond, Then: then, Else: els}, then.ResolvedType()), nil
}

func (p *Parser) parseLogicalOr() (ast.Expr, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.OROR {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		left = setType(&ast.LogicalOp{Op: token.OROR, Left: left, Right: right}, types.Int)
	}
	return left, nil
}

func (p *Parser) parseLogicalAnd() (ast.Expr, error) {
	left, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.ANDAND {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		left = setType(&ast.LogicalOp{Op: token.ANDAND, Left: left, Right: right}, types.Int)
	}
	return left, nil
}

// binaryLevel is shared by every precedence level (5 through 12 except
// the pointer-aware additive level) whose operators always yield Int and
// never need pointer scaling.
func (p *Parser) binaryLevel(ops map[token.Type]bool, next func() (ast.Expr, error)) (ast.Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for ops[p.cur.Type] {
		op := p.cur.Type
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = setType(&ast.BinaryOp{Op: string(op), Left: left, Right: right}, types.Int)
	}
	return left, nil
}

func (p *Parser) parseBitOr() (ast.Expr, error) {
	return p.binaryLevel(map[token.Type]bool{token.PIPE: true}, p.parseBitXor)
}

func (p *Parser) parseBitXor() (ast.Expr, error) {
	return p.binaryLevel(map[token.Type]bool{token.CARET: true}, p.parseBitAnd)
}

func (p *Parser) parseBitAnd() (ast.Expr, error) {
	return p.binaryLevel(map[token.Type]bool{token.AMPERSAND: true}, p.parseEquality)
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	return p.binaryLevel(map[token.Type]bool{token.EQ: true, token.NOTEQ: true}, p.parseRelational)
}

func (p *Parser) parseRelational() (ast.Expr, error) {
	ops := map[token.Type]bool{token.LT: true, token.LTEQ: true, token.GT: true, token.GTEQ: true}
	return p.binaryLevel(ops, p.parseShift)
}

func (p *Parser) parseShift() (ast.Expr, error) {
	return p.binaryLevel(map[token.Type]bool{token.SHL: true, token.SHR: true}, p.parseAdditive)
}

// parseAdditive is precedence level 11: + and -, the one binary level
// that needs pointer-arithmetic scaling.
func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.PLUS || p.cur.Type == token.MINUS {
		op := p.cur.Type
		offset := p.cur.Offset
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left, err = combineAdditive(p, offset, string(op), left, right)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func combineAdditive(p *Parser, offset int, op string, left, right ast.Expr) (ast.Expr, error) {
	lt, rt := left.ResolvedType(), right.ResolvedType()
	lp, rp := types.IsPointerLike(lt), types.IsPointerLike(rt)

	switch {
	case lp && rp && op == token.MINUS:
		scale := types.SizeOf(types.PointerInner(lt))
		return setType(&ast.BinaryOp{Op: op, Left: left, Right: right, Scale: scale, PointerDiff: true}, types.Int), nil

	case lp && !rp:
		scale := types.SizeOf(types.PointerInner(lt))
		return setType(&ast.BinaryOp{Op: op, Left: left, Right: right, Scale: scale}, types.Decay(lt)), nil

	case !lp && rp && op == token.PLUS:
		scale := types.SizeOf(types.PointerInner(rt))
		// Normalize so the pointer operand is always Left; codegen
		// only has to know how to scale one side.
		return setType(&ast.BinaryOp{Op: op, Left: right, Right: left, Scale: scale}, types.Decay(rt)), nil

	case !lp && rp && op == token.MINUS:
		return nil, p.errorf(offset, "cannot subtract a pointer from an integer")

	default:
		return setType(&ast.BinaryOp{Op: op, Left: left, Right: right}, types.Int), nil
	}
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	ops := map[token.Type]bool{token.ASTERISK: true, token.SLASH: true, token.PERCENT: true}
	return p.binaryLevel(ops, p.parseUnary)
}

// parseUnary is precedence level 13: prefix unary operators, right-associative.
func (p *Parser) parseUnary() (ast.Expr, error) {
	switch p.cur.Type {
	case token.PLUS, token.MINUS, token.TILDE, token.BANG:
		op := p.cur.Type
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return setType(&ast.UnaryOp{Op: string(op), Operand: operand}, types.Int), nil

	case token.AMPERSAND:
		offset := p.cur.Offset
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if !isLvalue(operand) {
			return nil, p.errorf(offset, "cannot take the address of a non-lvalue")
		}
		return setType(&ast.UnaryOp{Op: token.AMPERSAND, Operand: operand}, addressType(operand)), nil

	case token.ASTERISK:
		offset := p.cur.Offset
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if !types.IsPointerLike(operand.ResolvedType()) {
			return nil, p.errorf(offset, "cannot dereference a non-pointer of type %s", operand.ResolvedType())
		}
		inner := types.PointerInner(operand.ResolvedType())
		return setType(&ast.UnaryOp{Op: token.ASTERISK, Operand: operand}, inner), nil

	case token.INC, token.DEC:
		op := p.cur.Type
		offset := p.cur.Offset
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if !isLvalue(operand) {
			return nil, p.errorf(offset, "operand of %q must be an lvalue", op)
		}
		return setType(&ast.UnaryOp{Op: string(op), Operand: operand, Step: stepFor(operand.ResolvedType())}, operand.ResolvedType()), nil

	case token.SIZEOF:
		return p.parseSizeof()

	default:
		return p.parsePostfix()
	}
}

// parseSizeof handles both "sizeof(type-name)" and "sizeof unary-expr";
// the computed size is baked into the AST node as a constant, so the
// code generator never visits the operand.
func (p *Parser) parseSizeof() (ast.Expr, error) {
	if err := p.advance(); err != nil { // 'sizeof'
		return nil, err
	}

	if p.cur.Type == token.LPAREN && isTypeKeyword(p.peek.Type) {
		if err := p.advance(); err != nil { // '('
			return nil, err
		}
		base, err := p.parseBaseType()
		if err != nil {
			return nil, err
		}
		ptrCount := 0
		for p.cur.Type == token.ASTERISK {
			ptrCount++
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		t := applyPointers(base, ptrCount)
		t, err = p.parseArrayDims(t)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		size := int64(types.SizeOf(t))
		return setType(&ast.SizeofType{Of: t, Value: size}, types.Int), nil
	}

	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	// sizeof inspects the operand's declared (pre-decay) storage type,
	// same as '&': `sizeof(array)` is the whole array's size, not a
	// pointer's.
	size := int64(types.SizeOf(sizeofType(operand)))
	return setType(&ast.SizeofExpr{Of: operand, Value: size}, types.Int), nil
}

// sizeofType returns the type sizeof should measure for operand,
// preferring the symbol's declared type over its decayed rvalue type.
func sizeofType(operand ast.Expr) *types.Type {
	if ref, ok := operand.(*ast.VarRef); ok {
		return ref.DeclaredType
	}
	return operand.ResolvedType()
}

func isTypeKeyword(t token.Type) bool {
	return t == token.INT || t == token.CHAR || t == token.VOID || t == token.STRUCT
}

// parsePostfix is precedence level 14: call, subscript, and postfix
// increment/decrement. An identifier immediately followed by '(' is a
// call; this is the only place a callee is recognized, since this
// subset has no function pointers.
func (p *Parser) parsePostfix() (ast.Expr, error) {
	var expr ast.Expr

	if p.cur.Type == token.IDENT && p.peek.Type == token.LPAREN {
		call, err := p.parseCall()
		if err != nil {
			return nil, err
		}
		expr = call
	} else if p.cur.Type == token.IDENT {
		ref, err := p.resolveIdent()
		if err != nil {
			return nil, err
		}
		expr = ref
	} else {
		var err error
		expr, err = p.parsePrimary()
		if err != nil {
			return nil, err
		}
	}

	for {
		switch p.cur.Type {
		case token.LBRACKET:
			if err := p.advance(); err != nil {
				return nil, err
			}
			idx, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBRACKET); err != nil {
				return nil, err
			}
			arrType := types.Decay(expr.ResolvedType())
			elemType := types.PointerInner(arrType)
			scale := types.SizeOf(elemType)
			expr = setType(&ast.Index{Array: expr, Idx: idx, Scale: scale}, elemType)

		case token.INC, token.DEC:
			offset := p.cur.Offset
			op := p.cur.Type
			if !isLvalue(expr) {
				return nil, p.errorf(offset, "operand of postfix %q must be an lvalue", op)
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
			expr = setType(&ast.PostfixOp{Op: string(op), Operand: expr, Step: stepFor(expr.ResolvedType())}, expr.ResolvedType())

		default:
			return expr, nil
		}
	}
}

// resolveIdent looks up a bare identifier as a variable reference. An
// identifier that resolves to nothing is a semantic error: undeclared
// *functions* are tolerated (see parseCall), but undeclared variables
// are not, since there's no storage to generate code against.
func (p *Parser) resolveIdent() (ast.Expr, error) {
	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	sym, ok := p.lookup(nameTok.Literal)
	if !ok {
		return nil, p.errorf(nameTok.Offset, "use of undeclared identifier %q", nameTok.Literal)
	}
	if sym.Kind == symbols.KindFunction {
		return nil, p.errorf(nameTok.Offset, "function %q used without a call", nameTok.Literal)
	}
	ref := &ast.VarRef{
		Name:         nameTok.Literal,
		IsLocal:      sym.Kind == symbols.KindLocal,
		IsGlobal:     sym.Kind == symbols.KindGlobal,
		RBPOffset:    sym.RBPOffset,
		DeclaredType: sym.Type,
	}
	return setType(ref, types.Decay(sym.Type)), nil
}

func (p *Parser) lookup(name string) (*symbols.Symbol, bool) {
	if p.fn != nil {
		return p.fn.Lookup(name)
	}
	return p.global.Lookup(name)
}

// parseCall parses "name(args)". A callee never declared at all is
// tolerated - this subset assumes it is an externally linked C function
// returning int and accepting any arguments, per the spec's linkage
// tolerance for functions like printf/alloc4.
func (p *Parser) parseCall() (ast.Expr, error) {
	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	var args []ast.Expr
	if p.cur.Type != token.RPAREN {
		for {
			arg, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.cur.Type == token.COMMA {
				if err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	retType := types.Int
	if sym, ok := p.global.Lookup(nameTok.Literal); ok && sym.Kind == symbols.KindFunction {
		retType = sym.Type
	} else {
		p.global.DeclareFunction(nameTok.Literal, types.Int, nil, false)
	}

	return setType(&ast.Call{Callee: nameTok.Literal, Args: args}, retType), nil
}

// parsePrimary is precedence level 15: literals and parenthesized
// expressions. Identifiers are handled one level up, in parsePostfix,
// so that a call can be recognized before a VarRef is built for it.
func (p *Parser) parsePrimary() (ast.Expr, error) {
	switch p.cur.Type {
	case token.NUMBER:
		tok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		return setType(&ast.IntLiteral{Value: tok.IntValue}, types.Int), nil

	case token.STRING:
		tok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		sym := p.global.Intern(tok.Str)
		return setType(&ast.StringLiteral{Label: sym.Label, Bytes: sym.Bytes}, types.Ptr(types.Char)), nil

	case token.LPAREN:
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return x, nil

	default:
		return nil, p.errorf(p.cur.Offset, "unexpected token %q in expression", p.cur.Type)
	}
}

// stepFor returns the amount a ++/-- changes t by: one element for a
// pointer, one unit otherwise.
func stepFor(t *types.Type) int {
	if types.IsPointerLike(t) {
		return types.SizeOf(types.PointerInner(t))
	}
	return 1
}

// addressType computes the type of "&e". For a plain variable it uses
// the symbol's declared (pre-decay) type, so "&array" is a pointer to
// the whole array rather than to its decayed element type; every other
// lvalue kind just wraps its resolved type in a pointer.
func addressType(e ast.Expr) *types.Type {
	if ref, ok := e.(*ast.VarRef); ok {
		return types.Ptr(ref.DeclaredType)
	}
	return types.Ptr(e.ResolvedType())
}

// isLvalue reports whether e denotes a storage location, as required for
// the operand of '&', the target of an assignment, and the operand of
// ++/--.
func isLvalue(e ast.Expr) bool {
	switch v := e.(type) {
	case *ast.VarRef:
		return v.IsLocal || v.IsGlobal
	case *ast.UnaryOp:
		return v.Op == token.ASTERISK
	case *ast.Index:
		return true
	default:
		return false
	}
}

// setType stamps t as the resolved type of an expression node literal
// and returns it, letting every construction site read as a single
// expression instead of two statements.
func setType(e ast.Expr, t *types.Type) ast.Expr {
	switch v := e.(type) {
	case *ast.IntLiteral:
		v.Type = t
	case *ast.StringLiteral:
		v.Type = t
	case *ast.VarRef:
		v.Type = t
	case *ast.UnaryOp:
		v.Type = t
	case *ast.PostfixOp:
		v.Type = t
	case *ast.BinaryOp:
		v.Type = t
	case *ast.LogicalOp:
		v.Type = t
	case *ast.Assign:
		v.Type = t
	case *ast.CompoundAssign:
		v.Type = t
	case *ast.Comma:
		v.Type = t
	case *ast.Conditional:
		v.Type = t
	case *ast.Call:
		v.Type = t
	case *ast.SizeofType:
		v.Type = t
	case *ast.SizeofExpr:
		v.Type = t
	case *ast.Index:
		v.Type = t
	}
	return e
}
