// Package parser implements the recursive-descent parser and semantic
// binder: it builds the typed AST, resolving every identifier to a
// storage location and computing every expression's type as it goes.
package parser

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/skx/cc/ast"
	"github.com/skx/cc/internal/source"
	"github.com/skx/cc/internal/symbols"
	"github.com/skx/cc/internal/types"
	"github.com/skx/cc/lexer"
	"github.com/skx/cc/token"
)

// Error is a parse-time or semantic error, tagged with the source offset
// it was raised at and the buffer it came from, so it can render a
// line:column message instead of a bare offset.
type Error struct {
	Offset int
	Reason string
	Buf    *source.Buffer
}

func (e *Error) Error() string {
	if e.Buf == nil {
		return fmt.Sprintf("offset %d: %s", e.Offset, e.Reason)
	}
	line, col := e.Buf.Position(e.Offset)
	return fmt.Sprintf("%s:%d:%d: %s\n\t%s", e.Buf.Name, line, col, e.Reason, e.Buf.Snippet(e.Offset))
}

// Parser holds the parser's mutable state: the token stream, the scope
// currently in effect, and bookkeeping for forward-referenced goto
// targets.
type Parser struct {
	src  *source.Buffer
	lex  *lexer.Lexer
	cur  token.Token
	peek token.Token

	global *symbols.Global

	// fn is the scope of the function body currently being parsed,
	// nil at top level.
	fn *symbols.Function

	// pendingGotos collects the labels referenced by `goto` in the
	// function currently being parsed; checked against fn's label
	// table once the whole body has been seen, so a goto may name a
	// label declared later in the same function.
	pendingGotos []string
}

// New creates a Parser over src, primed with the first two tokens.
func New(src *source.Buffer) (*Parser, error) {
	p := &Parser{
		src:    src,
		lex:    lexer.New(src),
		global: symbols.NewGlobal(),
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

// Global exposes the global scope, which the code generator needs to
// emit .data/.rodata for globals and interned string literals.
func (p *Parser) Global() *symbols.Global {
	return p.global
}

// advance shifts cur := peek and reads a new peek token from the lexer.
func (p *Parser) advance() error {
	p.cur = p.peek
	tok, err := p.lex.NextToken()
	if err != nil {
		var lexErr *lexer.Error
		if errors.As(err, &lexErr) {
			return &Error{Offset: lexErr.Offset, Reason: lexErr.Reason, Buf: p.src}
		}
		return err
	}
	p.peek = tok
	return nil
}

func (p *Parser) errorf(offset int, format string, args ...interface{}) error {
	return &Error{Offset: offset, Reason: fmt.Sprintf(format, args...), Buf: p.src}
}

// expect consumes the current token if it has type tt, else fails.
func (p *Parser) expect(tt token.Type) (token.Token, error) {
	if p.cur.Type != tt {
		return token.Token{}, p.errorf(p.cur.Offset, "expected %q but found %q (%q)", tt, p.cur.Type, p.cur.Literal)
	}
	tok := p.cur
	if err := p.advance(); err != nil {
		return token.Token{}, err
	}
	return tok, nil
}

// Parse consumes the whole token stream and returns the translation unit.
func (p *Parser) Parse() (*ast.TranslationUnit, error) {
	tu := &ast.TranslationUnit{}

	if p.cur.Type == token.EOF {
		return nil, p.errorf(p.cur.Offset, "empty program")
	}

	for p.cur.Type != token.EOF {
		if p.cur.Type == token.STRUCT && p.peek.Type != token.LPAREN {
			// Heuristic: "struct Foo { ... };" is a bare struct
			// declaration; "struct Foo bar;" is a struct-typed
			// variable. Both are accepted and both carry no
			// layout, so we only need to tell them apart from
			// "struct Foo f(...)" which never happens in this
			// subset's grammar for struct-returning functions.
			if err := p.parseStructDeclOrVariable(tu); err != nil {
				return nil, err
			}
			continue
		}

		if err := p.parseTopLevelItem(tu); err != nil {
			return nil, err
		}
	}

	return tu, nil
}

// parseStructDeclOrVariable handles every top-level form starting with
// the `struct` keyword: a bare declaration `struct Foo { ... };`, or a
// variable/function declared with a struct type. Struct layout is never
// computed in this subset (spec non-goal); member declarations are
// parsed and discarded.
func (p *Parser) parseStructDeclOrVariable(tu *ast.TranslationUnit) error {
	baseType, err := p.parseBaseType()
	if err != nil {
		return err
	}

	if p.cur.Type == token.SEMICOLON {
		// "struct Foo;" forward declaration, or the trailing ';'
		// of a "struct Foo { ... };" we've already consumed the
		// body of inside parseBaseType.
		return p.advance()
	}

	return p.parseDeclaratorsAfterBaseType(tu, baseType)
}

// parseTopLevelItem parses one function definition, function prototype,
// or global-variable declaration.
func (p *Parser) parseTopLevelItem(tu *ast.TranslationUnit) error {
	baseType, err := p.parseBaseType()
	if err != nil {
		return err
	}
	return p.parseDeclaratorsAfterBaseType(tu, baseType)
}

func (p *Parser) parseDeclaratorsAfterBaseType(tu *ast.TranslationUnit, baseType *types.Type) error {
	ptrCount := 0
	for p.cur.Type == token.ASTERISK {
		ptrCount++
		if err := p.advance(); err != nil {
			return err
		}
	}

	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return err
	}
	name := nameTok.Literal
	declType := applyPointers(baseType, ptrCount)

	if p.cur.Type == token.LPAREN {
		return p.parseFunction(tu, name, declType)
	}

	finalType, err := p.parseArrayDims(declType)
	if err != nil {
		return err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return err
	}
	p.global.DeclareVariable(name, finalType)
	tu.Globals = append(tu.Globals, &ast.GlobalVar{Name: name, Type: finalType})
	return nil
}

// parseArrayDims consumes zero or more "[N]" suffixes, nesting them so
// that "int a[2][3]" becomes Array(Array(Int,3),2): the outermost
// bracket is the slowest-varying dimension.
func (p *Parser) parseArrayDims(base *types.Type) (*types.Type, error) {
	var dims []int
	for p.cur.Type == token.LBRACKET {
		if err := p.advance(); err != nil {
			return nil, err
		}
		lenTok, err := p.expect(token.NUMBER)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RBRACKET); err != nil {
			return nil, err
		}
		dims = append(dims, int(lenTok.IntValue))
	}
	t := base
	for i := len(dims) - 1; i >= 0; i-- {
		t = types.Array(t, dims[i])
	}
	return t, nil
}

func (p *Parser) parseFunction(tu *ast.TranslationUnit, name string, ret *types.Type) error {
	paramTypes, paramNames, err := p.parseParamList()
	if err != nil {
		return err
	}

	if p.cur.Type != token.LBRACE {
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return err
		}
		p.global.DeclareFunction(name, ret, paramTypes, false)
		tu.FunctionDecls = append(tu.FunctionDecls, &ast.FunctionDecl{Name: name, Return: ret, Params: paramTypes})
		return nil
	}

	p.global.DeclareFunction(name, ret, paramTypes, true)

	fn := symbols.NewFunction(p.global)
	p.fn = fn
	p.pendingGotos = nil

	paramSlots := make([]*ast.VarRef, len(paramNames))
	for i, pn := range paramNames {
		sym := fn.Declare(pn, paramTypes[i])
		paramSlots[i] = &ast.VarRef{
			Name:         pn,
			IsLocal:      true,
			RBPOffset:    sym.RBPOffset,
			DeclaredType: paramTypes[i],
		}
		paramSlots[i].Type = types.Decay(paramTypes[i])
	}

	body, err := p.parseBlock()
	if err != nil {
		return err
	}

	for _, label := range p.pendingGotos {
		if !fn.HasLabel(label) {
			return p.errorf(p.cur.Offset, "goto references undeclared label %q", label)
		}
	}

	tu.Functions = append(tu.Functions, &ast.Function{
		Name:       name,
		Return:     ret,
		Params:     paramTypes,
		ParamNames: paramNames,
		ParamSlots: paramSlots,
		Body:       body,
		FrameSize:  fn.FrameSize(),
	})

	p.fn = nil
	return nil
}

// parseParamList parses "(void)", "()", or a comma-separated list of
// "type [*]* name" parameters. An array-typed parameter decays to a
// pointer parameter, as in C.
func (p *Parser) parseParamList() ([]*types.Type, []string, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, nil, err
	}
	if p.cur.Type == token.RPAREN {
		return nil, nil, p.advance()
	}
	if p.cur.Type == token.VOID && p.peek.Type == token.RPAREN {
		if err := p.advance(); err != nil {
			return nil, nil, err
		}
		return nil, nil, p.advance()
	}

	var paramTypes []*types.Type
	var paramNames []string

	for {
		base, err := p.parseBaseType()
		if err != nil {
			return nil, nil, err
		}
		ptrCount := 0
		for p.cur.Type == token.ASTERISK {
			ptrCount++
			if err := p.advance(); err != nil {
				return nil, nil, err
			}
		}
		nameTok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, nil, err
		}
		pt := applyPointers(base, ptrCount)
		if p.cur.Type == token.LBRACKET {
			// "int a[]" and "int a[N]" both decay to a pointer
			// parameter; any bracketed length is accepted and
			// discarded.
			if err := p.advance(); err != nil {
				return nil, nil, err
			}
			if p.cur.Type == token.NUMBER {
				if err := p.advance(); err != nil {
					return nil, nil, err
				}
			}
			if _, err := p.expect(token.RBRACKET); err != nil {
				return nil, nil, err
			}
			pt = types.Ptr(pt)
		}

		paramTypes = append(paramTypes, pt)
		paramNames = append(paramNames, nameTok.Literal)

		if p.cur.Type == token.COMMA {
			if err := p.advance(); err != nil {
				return nil, nil, err
			}
			continue
		}
		break
	}

	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, nil, err
	}
	return paramTypes, paramNames, nil
}

// parseBaseType consumes a leading type-specifier keyword. "struct Foo"
// consumes an optional "{ members }" body too, since member declarations
// never carry layout in this subset.
func (p *Parser) parseBaseType() (*types.Type, error) {
	switch p.cur.Type {
	case token.INT, token.VOID:
		return types.Int, p.advance()
	case token.CHAR:
		return types.Char, p.advance()
	case token.STRUCT:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Type == token.IDENT {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if p.cur.Type == token.LBRACE {
			if err := p.skipStructBody(); err != nil {
				return nil, err
			}
		}
		return types.Int, nil
	default:
		return nil, p.errorf(p.cur.Offset, "expected a type but found %q", p.cur.Type)
	}
}

// skipStructBody parses and discards "{ member-decl* }".
func (p *Parser) skipStructBody() error {
	if _, err := p.expect(token.LBRACE); err != nil {
		return err
	}
	for p.cur.Type != token.RBRACE {
		if _, err := p.parseBaseType(); err != nil {
			return err
		}
		for p.cur.Type == token.ASTERISK {
			if err := p.advance(); err != nil {
				return err
			}
		}
		if _, err := p.expect(token.IDENT); err != nil {
			return err
		}
		for p.cur.Type == token.LBRACKET {
			if err := p.advance(); err != nil {
				return err
			}
			if p.cur.Type == token.NUMBER {
				if err := p.advance(); err != nil {
					return err
				}
			}
			if _, err := p.expect(token.RBRACKET); err != nil {
				return err
			}
		}
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return err
		}
	}
	return p.advance() // consume '}'
}

func applyPointers(base *types.Type, count int) *types.Type {
	t := base
	for i := 0; i < count; i++ {
		t = types.Ptr(t)
	}
	return t
}
