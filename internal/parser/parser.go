// Package parser implements a recursive-descent front end for PQL,
// producing the ast.ModuleDef / ast.Stmt / ast.Expr shapes the resolver
// consumes. It is deliberately narrow: PQL's full grammar (macros, doc
// comments, dialect-specific literal extensions) is out of scope here,
// which treats the parser as an external collaborator feeding the
// resolver/lowerer/emitter core.
package parser

import (
	"fmt"

	"github.com/pqlc-dev/pqlc/internal/ast"
	"github.com/pqlc-dev/pqlc/internal/lexer"
	"github.com/pqlc-dev/pqlc/internal/token"
)

// Parser turns a token stream into an ast.ModuleDef.
type Parser struct {
	l *lexer.Lexer

	cur  token.Token
	peek token.Token

	nextStmtID int
}

// Parse parses a complete PQL source file into a ModuleDef.
func Parse(src string, sourceID uint16) (*ast.ModuleDef, error) {
	p := &Parser{l: lexer.New(src, sourceID)}
	p.advance()
	p.advance()
	return p.parseModuleDef()
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) expect(t token.Type) (token.Token, error) {
	if p.cur.Type != t {
		return p.cur, &SyntaxError{Pos: p.cur.Pos, Message: fmt.Sprintf("expected %s, got %q", t, p.cur.Literal)}
	}
	tok := p.cur
	p.advance()
	return tok, nil
}

func (p *Parser) nextID() int {
	id := p.nextStmtID
	p.nextStmtID++
	return id
}

func (p *Parser) parseModuleDef() (*ast.ModuleDef, error) {
	m := &ast.ModuleDef{}
	for p.cur.Type != token.EOF {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			m.Stmts = append(m.Stmts, stmt)
		}
	}
	return m, nil
}

func (p *Parser) parseStmt() (*ast.Stmt, error) {
	start := p.cur.Pos
	switch p.cur.Type {
	case token.KW_PRQL:
		return p.parseQueryDef(start)
	case token.KW_LET:
		return p.parseVarDef(start)
	case token.KW_TYPE:
		return p.parseTypeDef(start)
	case token.KW_MODULE:
		return p.parseModuleBlock(start)
	default:
		expr, err := p.parsePipeline()
		if err != nil {
			return nil, err
		}
		return &ast.Stmt{Id: p.nextID(), Kind: ast.MainS{Value: expr}, Span: span(start, p.cur.Pos)}, nil
	}
}

func (p *Parser) parseQueryDef(start token.Position) (*ast.Stmt, error) {
	p.advance() // 'prql'
	def := ast.QueryDefS{}
	for p.cur.Type == token.IDENT {
		key := p.cur.Literal
		p.advance()
		if _, err := p.expect(token.COLON); err != nil {
			return nil, err
		}
		switch key {
		case "target":
			tok, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			def.Target = tok.Literal
		case "version":
			tok, err := p.expect(token.STRING)
			if err != nil {
				return nil, err
			}
			def.Version = tok.Literal
		default:
			return nil, &SyntaxError{Pos: p.cur.Pos, Message: fmt.Sprintf("unknown prql option %q", key)}
		}
	}
	return &ast.Stmt{Id: p.nextID(), Kind: def, Span: span(start, p.cur.Pos)}, nil
}

func (p *Parser) parseVarDef(start token.Position) (*ast.Stmt, error) {
	p.advance() // 'let'
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	var ty *ast.Ty
	if p.cur.Type == token.LT {
		// `let name <ty>` parameter declaration; angle brackets are only
		// meaningful in this position, never as comparison operators here.
		p.advance()
		tyName, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		ty = primitiveTyByName(tyName.Literal)
		if _, err := p.expect(token.GT); err != nil {
			return nil, err
		}
	}
	var value *ast.Expr
	if p.cur.Type == token.ASSIGN {
		p.advance()
		value, err = p.parsePipeline()
		if err != nil {
			return nil, err
		}
	}
	return &ast.Stmt{Id: p.nextID(), Kind: ast.VarDefS{Name: name.Literal, Value: value, Ty: ty}, Span: span(start, p.cur.Pos)}, nil
}

func (p *Parser) parseTypeDef(start token.Position) (*ast.Stmt, error) {
	p.advance() // 'type'
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	tyName, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	return &ast.Stmt{Id: p.nextID(), Kind: ast.TypeDefS{Name: name.Literal, Value: primitiveTyByName(tyName.Literal)}, Span: span(start, p.cur.Pos)}, nil
}

func (p *Parser) parseModuleBlock(start token.Position) (*ast.Stmt, error) {
	p.advance() // 'module'
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	var stmts []*ast.Stmt
	for p.cur.Type != token.RBRACE && p.cur.Type != token.EOF {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return &ast.Stmt{Id: p.nextID(), Kind: ast.ModuleDefS{Name: name.Literal, Stmts: stmts}, Span: span(start, p.cur.Pos)}, nil
}

func primitiveTyByName(name string) *ast.Ty {
	switch name {
	case "int":
		return &ast.Ty{Kind: ast.Primitive{Kind: ast.TyInt}}
	case "float":
		return &ast.Ty{Kind: ast.Primitive{Kind: ast.TyFloat}}
	case "bool":
		return &ast.Ty{Kind: ast.Primitive{Kind: ast.TyBool}}
	case "text":
		return &ast.Ty{Kind: ast.Primitive{Kind: ast.TyText}}
	case "date":
		return &ast.Ty{Kind: ast.Primitive{Kind: ast.TyDate}}
	case "relation":
		return ast.Relation(ast.TyTupleField{IsWild: true})
	default:
		return &ast.Ty{Kind: ast.AnyTy{}, DisplayName: name}
	}
}

func span(start, end token.Position) token.Span {
	return token.Span{Start: uint32(start.Offset), End: uint32(end.Offset)}
}
