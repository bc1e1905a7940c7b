package parser

import (
	"github.com/pqlc-dev/pqlc/internal/ast"
	"github.com/pqlc-dev/pqlc/internal/token"
)

// parsePipeline parses one pipeline: a leading stage followed by zero or
// more `| stage` continuations. Composition appends the upstream result
// as the last positional argument of the next stage's call, so `a | f b`
// is built identically to `f b a`.
func (p *Parser) parsePipeline() (*ast.Expr, error) {
	expr, err := p.parseStage()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.PIPE {
		p.advance()
		stage, err := p.parseStage()
		if err != nil {
			return nil, err
		}
		expr = composeStage(stage, expr)
	}
	return expr, nil
}

// composeStage appends input as the final positional argument of stage,
// which must be a FuncCall (the only shape a stage can produce).
func composeStage(stage, input *ast.Expr) *ast.Expr {
	call, ok := stage.Kind.(ast.FuncCall)
	if !ok {
		// A bare name with no explicit args, e.g. `| distinct`.
		return &ast.Expr{Kind: ast.FuncCall{Name: stage, Args: []*ast.Expr{input}}, Span: stage.Span}
	}
	call.Args = append(call.Args, input)
	stage.Kind = call
	return stage
}

// parseStage parses one pipeline stage: a name (an identifier, possibly a
// transform keyword) applied to a sequence of positional and named args.
func (p *Parser) parseStage() (*ast.Expr, error) {
	start := p.cur.Pos
	name, err := p.parseCallName()
	if err != nil {
		return nil, err
	}
	args, namedArgs, err := p.parseCallArgs()
	if err != nil {
		return nil, err
	}
	return &ast.Expr{
		Kind: ast.FuncCall{Name: name, Args: args, NamedArgs: namedArgs},
		Span: span(start, p.cur.Pos),
	}, nil
}

func (p *Parser) parseCallName() (*ast.Expr, error) {
	start := p.cur.Pos
	if !isCallNameToken(p.cur.Type) {
		return nil, &SyntaxError{Pos: p.cur.Pos, Message: "expected a pipeline stage or function name"}
	}
	lit := p.cur.Literal
	if lit == "" {
		lit = p.cur.Type.String()
	}
	p.advance()
	return &ast.Expr{Kind: ast.IdentExpr{Ident: ast.NewIdent(lit)}, Span: span(start, p.cur.Pos)}, nil
}

func isCallNameToken(t token.Type) bool {
	switch t {
	case token.IDENT,
		token.KW_FROM, token.KW_FILTER, token.KW_DERIVE, token.KW_SELECT,
		token.KW_GROUP, token.KW_AGGREGATE, token.KW_SORT, token.KW_TAKE,
		token.KW_JOIN, token.KW_APPEND, token.KW_LOOP, token.KW_WINDOW,
		token.KW_DISTINCT:
		return true
	default:
		return false
	}
}

// parseCallArgs consumes positional and named arguments until a token
// that cannot start an argument is seen (pipe, closing bracket, EOF).
func (p *Parser) parseCallArgs() ([]*ast.Expr, []ast.NamedArg, error) {
	var args []*ast.Expr
	var named []ast.NamedArg
	for p.canStartArg() {
		if p.cur.Type == token.IDENT && p.peek.Type == token.COLON {
			name := p.cur.Literal
			p.advance()
			p.advance()
			val, err := p.parseExpr()
			if err != nil {
				return nil, nil, err
			}
			named = append(named, ast.NamedArg{Name: name, Value: val})
			continue
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, nil, err
		}
		args = append(args, val)
	}
	return args, named, nil
}

func (p *Parser) canStartArg() bool {
	switch p.cur.Type {
	case token.PIPE, token.EOF, token.RBRACE, token.RBRACKET, token.RPAREN,
		token.COMMA, token.KW_LET, token.KW_TYPE, token.KW_MODULE, token.KW_PRQL:
		return false
	default:
		return true
	}
}

// parseExpr parses a full binary expression.
func (p *Parser) parseExpr() (*ast.Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (*ast.Expr, error) {
	return p.parseBinaryLevel(token.OR, ast.OpOr, p.parseAnd)
}

func (p *Parser) parseAnd() (*ast.Expr, error) {
	return p.parseBinaryLevel(token.AND, ast.OpAnd, p.parseEquality)
}

func (p *Parser) parseEquality() (*ast.Expr, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.EQ || p.cur.Type == token.NE || p.cur.Type == token.REGEX {
		op := binOpFor(p.cur.Type)
		start := left.Span
		p.advance()
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = &ast.Expr{Kind: ast.Binary{Op: op, Left: left, Right: right}, Span: mergeSpan(start, right.Span)}
	}
	return left, nil
}

func (p *Parser) parseRelational() (*ast.Expr, error) {
	left, err := p.parseCoalesce()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.LT || p.cur.Type == token.GT || p.cur.Type == token.LE || p.cur.Type == token.GE {
		op := binOpFor(p.cur.Type)
		start := left.Span
		p.advance()
		right, err := p.parseCoalesce()
		if err != nil {
			return nil, err
		}
		left = &ast.Expr{Kind: ast.Binary{Op: op, Left: left, Right: right}, Span: mergeSpan(start, right.Span)}
	}
	return left, nil
}

func (p *Parser) parseCoalesce() (*ast.Expr, error) {
	return p.parseBinaryLevel(token.COALESCE, ast.OpCoalesce, p.parseRange)
}

func (p *Parser) parseRange() (*ast.Expr, error) {
	start := p.cur.Pos
	if p.cur.Type == token.DOTDOT {
		p.advance()
		end, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &ast.Expr{Kind: ast.Range{End: end}, Span: span(start, p.cur.Pos)}, nil
	}
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if p.cur.Type == token.DOTDOT {
		p.advance()
		if !p.canStartArg() || p.cur.Type == token.PIPE {
			return &ast.Expr{Kind: ast.Range{Start: left}, Span: span(start, p.cur.Pos)}, nil
		}
		end, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &ast.Expr{Kind: ast.Range{Start: left, End: end}, Span: span(start, p.cur.Pos)}, nil
	}
	return left, nil
}

func (p *Parser) parseAdditive() (*ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.PLUS || p.cur.Type == token.MINUS {
		op := binOpFor(p.cur.Type)
		start := left.Span
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.Expr{Kind: ast.Binary{Op: op, Left: left, Right: right}, Span: mergeSpan(start, right.Span)}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (*ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.STAR || p.cur.Type == token.SLASH || p.cur.Type == token.PERCENT {
		op := binOpFor(p.cur.Type)
		start := left.Span
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.Expr{Kind: ast.Binary{Op: op, Left: left, Right: right}, Span: mergeSpan(start, right.Span)}
	}
	return left, nil
}

func (p *Parser) parseUnary() (*ast.Expr, error) {
	start := p.cur.Pos
	switch p.cur.Type {
	case token.MINUS:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Expr{Kind: ast.Unary{Op: ast.OpNeg, Operand: operand}, Span: span(start, p.cur.Pos)}, nil
	case token.NOT:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Expr{Kind: ast.Unary{Op: ast.OpNot, Operand: operand}, Span: span(start, p.cur.Pos)}, nil
	default:
		return p.parseApplication()
	}
}

// parseApplication parses a primary expression followed by juxtaposed
// arguments, i.e. a bare function call like `average salary`.
func (p *Parser) parseApplication() (*ast.Expr, error) {
	start := p.cur.Pos
	head, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if _, ok := head.Kind.(ast.IdentExpr); !ok {
		return head, nil
	}
	var args []*ast.Expr
	var named []ast.NamedArg
	for p.canStartApplicationArg() {
		if p.cur.Type == token.IDENT && p.peek.Type == token.COLON {
			name := p.cur.Literal
			p.advance()
			p.advance()
			val, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			named = append(named, ast.NamedArg{Name: name, Value: val})
			continue
		}
		arg, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if len(args) == 0 && len(named) == 0 {
		return head, nil
	}
	return &ast.Expr{Kind: ast.FuncCall{Name: head, Args: args, NamedArgs: named}, Span: span(start, p.cur.Pos)}, nil
}

func (p *Parser) canStartApplicationArg() bool {
	switch p.cur.Type {
	case token.IDENT, token.NUMBER, token.STRING, token.PARAM,
		token.LBRACE, token.BANG_LBRACE, token.LBRACKET, token.LPAREN,
		token.KW_TRUE, token.KW_FALSE, token.KW_NULL, token.KW_CASE:
		return true
	default:
		return false
	}
}

func (p *Parser) parseBinaryLevel(tt token.Type, op ast.BinOp, next func() (*ast.Expr, error)) (*ast.Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == tt {
		start := left.Span
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &ast.Expr{Kind: ast.Binary{Op: op, Left: left, Right: right}, Span: mergeSpan(start, right.Span)}
	}
	return left, nil
}

func binOpFor(t token.Type) ast.BinOp {
	switch t {
	case token.PLUS:
		return ast.OpAdd
	case token.MINUS:
		return ast.OpSub
	case token.STAR:
		return ast.OpMul
	case token.SLASH:
		return ast.OpDiv
	case token.PERCENT:
		return ast.OpMod
	case token.EQ:
		return ast.OpEq
	case token.NE:
		return ast.OpNe
	case token.LT:
		return ast.OpLt
	case token.GT:
		return ast.OpGt
	case token.LE:
		return ast.OpLe
	case token.GE:
		return ast.OpGe
	case token.AND:
		return ast.OpAnd
	case token.OR:
		return ast.OpOr
	case token.COALESCE:
		return ast.OpCoalesce
	case token.REGEX:
		return ast.OpRegexMatch
	default:
		return ast.OpAdd
	}
}

func mergeSpan(a, b token.Span) token.Span {
	return token.Span{SourceID: a.SourceID, Start: a.Start, End: b.End}
}
