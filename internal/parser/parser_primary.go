package parser

import (
	"strconv"
	"strings"

	"github.com/pqlc-dev/pqlc/internal/ast"
	"github.com/pqlc-dev/pqlc/internal/token"
)

// parsePrimary parses one atom: literal, identifier, tuple, array, range
// bound, parenthesized group/nested pipeline, or case expression.
func (p *Parser) parsePrimary() (*ast.Expr, error) {
	start := p.cur.Pos

	switch {
	case p.cur.Type == token.IDENT || isCallNameToken(p.cur.Type):
		lit := p.cur.Literal
		p.advance()
		return &ast.Expr{Kind: ast.IdentExpr{Ident: splitIdent(lit)}, Span: span(start, p.cur.Pos)}, nil
	case p.cur.Type == token.NUMBER:
		lit := p.cur.Literal
		p.advance()
		return numberLiteral(lit, span(start, p.cur.Pos)), nil
	case p.cur.Type == token.STRING:
		lit := p.cur.Literal
		p.advance()
		return &ast.Expr{Kind: ast.Literal{Kind: ast.LitString, Text: lit}, Span: span(start, p.cur.Pos)}, nil
	case p.cur.Type == token.PARAM:
		name := p.cur.Literal
		p.advance()
		return &ast.Expr{Kind: ast.ParamRef{Name: name}, Span: span(start, p.cur.Pos)}, nil
	case p.cur.Type == token.KW_TRUE:
		p.advance()
		return &ast.Expr{Kind: ast.Literal{Kind: ast.LitBool, Bool: true}, Span: span(start, p.cur.Pos)}, nil
	case p.cur.Type == token.KW_FALSE:
		p.advance()
		return &ast.Expr{Kind: ast.Literal{Kind: ast.LitBool, Bool: false}, Span: span(start, p.cur.Pos)}, nil
	case p.cur.Type == token.KW_NULL:
		p.advance()
		return &ast.Expr{Kind: ast.Literal{Kind: ast.LitNull}, Span: span(start, p.cur.Pos)}, nil
	case p.cur.Type == token.LBRACE:
		return p.parseTuple(start)
	case p.cur.Type == token.BANG_LBRACE:
		return p.parseNegatedTuple(start)
	case p.cur.Type == token.LBRACKET:
		return p.parseArray(start)
	case p.cur.Type == token.LPAREN:
		return p.parseParenGroup(start)
	case p.cur.Type == token.KW_CASE:
		return p.parseCase(start)
	default:
		return nil, &SyntaxError{Pos: p.cur.Pos, Message: "expected an expression, got " + p.cur.Type.String()}
	}
}

func splitIdent(lit string) ast.Ident {
	return ast.NewIdent(lit)
}

func numberLiteral(lit string, sp token.Span) *ast.Expr {
	if strings.ContainsAny(lit, ".eE") {
		f, _ := strconv.ParseFloat(lit, 64)
		return &ast.Expr{Kind: ast.Literal{Kind: ast.LitFloat, Float: f}, Span: sp}
	}
	i, _ := strconv.ParseInt(lit, 10, 64)
	return &ast.Expr{Kind: ast.Literal{Kind: ast.LitInt, Int: i}, Span: sp}
}

// parseTuple parses `{field, name = value, ...}`.
func (p *Parser) parseTuple(start token.Position) (*ast.Expr, error) {
	p.advance() // '{'
	var fields []ast.TupleField
	for p.cur.Type != token.RBRACE && p.cur.Type != token.EOF {
		var alias string
		if p.cur.Type == token.IDENT && p.peek.Type == token.ASSIGN {
			alias = p.cur.Literal
			p.advance()
			p.advance()
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.TupleField{Alias: alias, Value: val})
		if p.cur.Type == token.COMMA {
			p.advance()
		}
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return &ast.Expr{Kind: ast.Tuple{Fields: fields}, Span: span(start, p.cur.Pos)}, nil
}

// parseNegatedTuple parses `!{a, b}`: every column except the named ones.
func (p *Parser) parseNegatedTuple(start token.Position) (*ast.Expr, error) {
	p.advance() // '!{'
	var except []string
	for p.cur.Type != token.RBRACE && p.cur.Type != token.EOF {
		tok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		except = append(except, tok.Literal)
		if p.cur.Type == token.COMMA {
			p.advance()
		}
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return &ast.Expr{Kind: ast.All{Except: except}, Span: span(start, p.cur.Pos)}, nil
}

// parseArray parses `[a, b, c]`.
func (p *Parser) parseArray(start token.Position) (*ast.Expr, error) {
	p.advance() // '['
	var items []*ast.Expr
	for p.cur.Type != token.RBRACKET && p.cur.Type != token.EOF {
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, val)
		if p.cur.Type == token.COMMA {
			p.advance()
		}
	}
	if _, err := p.expect(token.RBRACKET); err != nil {
		return nil, err
	}
	return &ast.Expr{Kind: ast.Array{Items: items}, Span: span(start, p.cur.Pos)}, nil
}

// parseParenGroup parses `(expr)`, where expr may itself be a full
// pipeline (used by join/loop/window arguments).
func (p *Parser) parseParenGroup(start token.Position) (*ast.Expr, error) {
	p.advance() // '('
	if p.cur.Type == token.RPAREN {
		p.advance()
		return &ast.Expr{Kind: ast.Tuple{}, Span: span(start, p.cur.Pos)}, nil
	}
	inner, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.PIPE {
		p.advance()
		stage, err := p.parseStage()
		if err != nil {
			return nil, err
		}
		inner = composeStage(stage, inner)
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return inner, nil
}

// parseCase parses `case [cond -> value, ...]`.
func (p *Parser) parseCase(start token.Position) (*ast.Expr, error) {
	p.advance() // 'case'
	if _, err := p.expect(token.LBRACKET); err != nil {
		return nil, err
	}
	var cases []ast.SwitchCase
	for p.cur.Type != token.RBRACKET && p.cur.Type != token.EOF {
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.ARROW); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		cases = append(cases, ast.SwitchCase{Condition: cond, Value: val})
		if p.cur.Type == token.COMMA {
			p.advance()
		}
	}
	if _, err := p.expect(token.RBRACKET); err != nil {
		return nil, err
	}
	return &ast.Expr{Kind: ast.Case{Cases: cases}, Span: span(start, p.cur.Pos)}, nil
}
