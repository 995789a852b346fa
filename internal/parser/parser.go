// Package parser turns a CSML token sequence into an [ast.Flow], failing on
// the first grammar violation with a positioned [Error].
//
// The grammar has no block delimiters at the top level: a flow header,
// step, or function definition runs until the next one starts (or EOF), so
// the parser looks one or two tokens ahead to tell a new top-level
// construct from an ordinary action inside the current body.
package parser

import (
	"strconv"

	"github.com/csml-lang/interpreter/pkg/ast"
	"github.com/csml-lang/interpreter/pkg/token"
)

// Parse builds a Flow from a token sequence produced by [lexer.Lex]; callers
// lex first.
// The returned Flow has already had Finalize called.
func Parse(toks []token.Token) (*ast.Flow, error) {
	p := &parser{toks: toks}
	flow, err := p.parseProgram()
	if err != nil {
		return nil, err
	}
	flow.Finalize()
	return flow, nil
}

type parser struct {
	toks []token.Token
	pos  int
}

func (p *parser) cur() token.Token { return p.toks[p.pos] }

func (p *parser) peek(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[i]
}

func (p *parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) interval() token.Interval { return token.IntervalFromToken(p.cur()) }

func (p *parser) expect(kind token.Kind) (token.Token, error) {
	if p.cur().Kind != kind {
		return token.Token{}, newError(p.interval(), "expected %s, got %s", kind, p.cur().Kind)
	}
	return p.advance(), nil
}

// ---- program ----

func (p *parser) parseProgram() (*ast.Flow, error) {
	flow := &ast.Flow{}
	for p.cur().Kind != token.EOF {
		switch {
		case p.cur().Kind == token.Flow:
			name, accept, err := p.parseFlowHeader()
			if err != nil {
				return nil, err
			}
			flow.Name = name
			flow.Accept = accept // last header wins, per spec
		case p.looksLikeFunctionHeader():
			fn, err := p.parseFunctionDef()
			if err != nil {
				return nil, err
			}
			flow.Functions = append(flow.Functions, fn)
		case p.cur().Kind == token.Ident && p.peek(1).Kind == token.Colon:
			step, err := p.parseStep()
			if err != nil {
				return nil, err
			}
			flow.Steps = append(flow.Steps, step)
			p.collectImports(flow, step.Body)
		default:
			return nil, newError(p.interval(), "expected flow header, function, or step, got %s", p.cur().Kind)
		}
	}
	return flow, nil
}

// looksLikeFunctionHeader reports whether the tokens at the current
// position are `IDENT '(' ... ')' ':'` — a function definition header, as
// opposed to a bare step label (`IDENT ':'`) or a call used as an action
// inside a body (`IDENT '(' ... ')'` never directly followed by `:` there).
func (p *parser) looksLikeFunctionHeader() bool {
	if p.cur().Kind != token.Ident || p.peek(1).Kind != token.LParen {
		return false
	}
	depth := 0
	for i := p.pos + 1; i < len(p.toks); i++ {
		switch p.toks[i].Kind {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
			if depth == 0 {
				return i+1 < len(p.toks) && p.toks[i+1].Kind == token.Colon
			}
		case token.EOF:
			return false
		}
	}
	return false
}

func (p *parser) parseFlowHeader() (string, []ast.Expr, error) {
	p.advance() // 'flow'
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return "", nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return "", nil, err
	}
	var args []ast.Expr
	for p.cur().Kind != token.RParen {
		if len(args) > 0 {
			if _, err := p.expect(token.Comma); err != nil {
				return "", nil, err
			}
		}
		arg, err := p.parseVarExpr()
		if err != nil {
			return "", nil, err
		}
		args = append(args, arg)
	}
	p.advance() // ')'
	return nameTok.Literal, args, nil
}

func (p *parser) parseFunctionDef() (ast.FunctionDef, error) {
	pos := p.interval()
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return ast.FunctionDef{}, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return ast.FunctionDef{}, err
	}
	var params []string
	for p.cur().Kind != token.RParen {
		if len(params) > 0 {
			if _, err := p.expect(token.Comma); err != nil {
				return ast.FunctionDef{}, err
			}
		}
		paramTok, err := p.expect(token.Ident)
		if err != nil {
			return ast.FunctionDef{}, err
		}
		params = append(params, paramTok.Literal)
	}
	p.advance() // ')'
	if _, err := p.expect(token.Colon); err != nil {
		return ast.FunctionDef{}, err
	}
	body, err := p.parseActions()
	if err != nil {
		return ast.FunctionDef{}, err
	}
	return ast.FunctionDef{Name: nameTok.Literal, Args: params, Body: body, Pos: pos}, nil
}

func (p *parser) parseStep() (ast.Step, error) {
	pos := p.interval()
	labelTok, err := p.expect(token.Ident)
	if err != nil {
		return ast.Step{}, err
	}
	if _, err := p.expect(token.Colon); err != nil {
		return ast.Step{}, err
	}
	body, err := p.parseActions()
	if err != nil {
		return ast.Step{}, err
	}
	return ast.Step{Label: labelTok.Literal, Body: body, Pos: pos}, nil
}

// collectImports scans a freshly parsed body for `import` actions and
// records them on the flow, in addition to leaving them in place as
// ordinary statements (import is lexed as an ordinary ReservedFunc and
// evaluates like any other reserved call; the Flow.Imports index exists so
// the linter and evaluator can resolve imported names without re-walking
// every step body).
func (p *parser) collectImports(flow *ast.Flow, body []ast.Expr) {
	for _, expr := range body {
		imp, ok := asImport(expr)
		if ok {
			flow.Imports = append(flow.Imports, imp)
		}
	}
}

func asImport(expr ast.Expr) (ast.Import, bool) {
	alias := ""
	if obj, ok := expr.(ast.ObjectExpr); ok && obj.Kind == ast.ObjectAs {
		alias = obj.Name
		expr = obj.Expr
	}
	reserved, ok := expr.(ast.ReservedExpr)
	if !ok || reserved.Func != "import" {
		return ast.Import{}, false
	}
	switch arg := reserved.Arg.(type) {
	case ast.IdentExpr:
		return ast.Import{Name: arg.Name, Alias: alias, Pos: reserved.Pos}, true
	case ast.VecExpr:
		if len(arg.Items) == 0 {
			return ast.Import{}, false
		}
		name, ok := arg.Items[0].(ast.IdentExpr)
		if !ok {
			return ast.Import{}, false
		}
		imp := ast.Import{Name: name.Name, Alias: alias, Pos: reserved.Pos}
		if len(arg.Items) > 1 {
			if from, ok := arg.Items[1].(ast.IdentExpr); ok {
				imp.FromFlow = from.Name
			}
		}
		return imp, true
	default:
		return ast.Import{}, false
	}
}

// ---- actions ----

// parseActions consumes actions until EOF, a new flow header, or the start
// of the next step/function header.
func (p *parser) parseActions() ([]ast.Expr, error) {
	var actions []ast.Expr
	for p.isActionStart() {
		action, err := p.parseAction()
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, nil
}

// parseBlock consumes a brace-delimited action list, used by `if`.
func (p *parser) parseBlock() ([]ast.Expr, error) {
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	var actions []ast.Expr
	for p.cur().Kind != token.RBrace {
		if p.cur().Kind == token.EOF {
			return nil, newError(p.interval(), "unterminated block, expected %s", token.RBrace)
		}
		action, err := p.parseAction()
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	p.advance() // '}'
	return actions, nil
}

func (p *parser) isActionStart() bool {
	switch p.cur().Kind {
	case token.ReservedFunc, token.Goto, token.Remember, token.If:
		return true
	case token.Ident:
		return !p.looksLikeFunctionHeader() && p.peek(1).Kind != token.Colon
	default:
		return false
	}
}

func (p *parser) parseAction() (ast.Expr, error) {
	var (
		action ast.Expr
		err    error
	)
	switch p.cur().Kind {
	case token.ReservedFunc:
		action, err = p.parseReserved()
	case token.Goto:
		action, err = p.parseGoto()
	case token.Remember:
		action, err = p.parseRemember()
	case token.If:
		action, err = p.parseIf()
	case token.Ident:
		action, err = p.parseIdentAction()
	default:
		return nil, newError(p.interval(), "unexpected token %s in action", p.cur().Kind)
	}
	if err != nil {
		return nil, err
	}
	return p.parseTrailingAs(action)
}

// parseTrailingAs wraps inner in an ObjectExpr{Kind: ObjectAs} if the
// action is immediately followed by `as IDENT`, rebinding the action's
// result into step_vars under the given name.
func (p *parser) parseTrailingAs(inner ast.Expr) (ast.Expr, error) {
	if p.cur().Kind != token.Ident || p.cur().Literal != "as" {
		return inner, nil
	}
	pos := inner.Interval()
	p.advance() // 'as'
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	return ast.ObjectExpr{Node: ast.NewNode(pos), Kind: ast.ObjectAs, Name: nameTok.Literal, Expr: inner}, nil
}

func (p *parser) parseReserved() (ast.Expr, error) {
	pos := p.interval()
	fn := p.advance().Literal

	var (
		arg ast.Expr
		err error
	)
	switch {
	case p.cur().Kind == token.LBrace:
		block, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		arg = ast.VecExpr{Node: ast.NewNode(pos), Items: block}
	case p.cur().Kind == token.LParen:
		arg, err = p.parseCallGroup()
	case p.canStartVarExpr():
		arg, err = p.parseVarExpr()
	default:
		return ast.ReservedExpr{Node: ast.NewNode(pos), Func: fn, Arg: nil}, nil
	}
	if err != nil {
		return nil, err
	}
	return ast.ReservedExpr{Node: ast.NewNode(pos), Func: fn, Arg: arg}, nil
}

func (p *parser) parseGoto() (ast.Expr, error) {
	pos := p.interval()
	p.advance() // 'goto'
	target, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	return ast.GotoExpr{Node: ast.NewNode(pos), Target: target.Literal}, nil
}

func (p *parser) parseRemember() (ast.Expr, error) {
	pos := p.interval()
	p.advance() // 'remember'
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Assign); err != nil {
		return nil, err
	}
	value, err := p.parseVarExpr()
	if err != nil {
		return nil, err
	}
	return ast.RememberExpr{Node: ast.NewNode(pos), Name: name.Literal, Value: value}, nil
}

func (p *parser) parseIf() (ast.Expr, error) {
	pos := p.interval()
	p.advance() // 'if'
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	block, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	scope := ast.Scope{Node: ast.NewNode(pos), Kind: ast.ScopeIf, Block: block}
	return ast.IfExpr{Node: ast.NewNode(pos), Cond: cond, Consequence: scope}, nil
}

// parseIdentAction handles the three action forms that start with a bare
// identifier: `name = expr` (local assignment), `name(args)` (a builtin or
// user/imported function call with a full, possibly-named argument list),
// and a bare path/value used for its side effect (e.g. `x.hold()`).
func (p *parser) parseIdentAction() (ast.Expr, error) {
	pos := p.interval()
	if p.peek(1).Kind == token.Assign {
		name := p.advance().Literal
		p.advance() // '='
		value, err := p.parseVarExpr()
		if err != nil {
			return nil, err
		}
		return ast.ObjectExpr{Node: ast.NewNode(pos), Kind: ast.ObjectAssign, Name: name, Expr: value}, nil
	}
	if p.peek(1).Kind == token.LParen {
		name := p.advance().Literal
		args, err := p.parseArgList()
		if err != nil {
			return nil, err
		}
		return ast.ActionExpr{Node: ast.NewNode(pos), Builtin: name, Args: args}, nil
	}
	return p.parseVarExpr()
}

// parseCallGroup parses a parenthesized positional expression list used as
// a reserved function's argument, e.g. `ask ("question", "hint")`.
func (p *parser) parseCallGroup() (ast.Expr, error) {
	pos := p.interval()
	items, err := p.parseParenList(token.LParen, token.RParen)
	if err != nil {
		return nil, err
	}
	return ast.VecExpr{Node: ast.NewNode(pos), Items: items}, nil
}

func (p *parser) parseParenList(open, close token.Kind) ([]ast.Expr, error) {
	if _, err := p.expect(open); err != nil {
		return nil, err
	}
	var items []ast.Expr
	for p.cur().Kind != close {
		if len(items) > 0 {
			if _, err := p.expect(token.Comma); err != nil {
				return nil, err
			}
		}
		item, err := p.parseVarExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if _, err := p.expect(close); err != nil {
		return nil, err
	}
	return items, nil
}

// ---- arg lists (named + positional) ----

func (p *parser) parseArgList() (ast.ArgList, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return ast.ArgList{}, err
	}
	list := ast.ArgList{Kind: ast.ArgsNormal}
	for p.cur().Kind != token.RParen {
		if len(list.Args) > 0 {
			if _, err := p.expect(token.Comma); err != nil {
				return ast.ArgList{}, err
			}
		}
		argPos := p.interval()
		if p.cur().Kind == token.Ident && p.peek(1).Kind == token.Assign {
			name := p.advance().Literal
			p.advance() // '='
			value, err := p.parseVarExpr()
			if err != nil {
				return ast.ArgList{}, err
			}
			list.Kind = ast.ArgsNamed
			list.Args = append(list.Args, ast.Arg{Name: name, Value: value, Pos: argPos})
			continue
		}
		if list.Kind == ast.ArgsNamed {
			return ast.ArgList{}, newError(argPos, "%s: positional argument after a named argument", "ArgBindingError")
		}
		value, err := p.parseVarExpr()
		if err != nil {
			return ast.ArgList{}, err
		}
		list.Args = append(list.Args, ast.Arg{Value: value, Pos: argPos})
	}
	if _, err := p.expect(token.RParen); err != nil {
		return ast.ArgList{}, err
	}
	return list, nil
}

// ---- conditions ----

func isCmpOp(k token.Kind) (ast.InfixOp, bool) {
	switch k {
	case token.Equal:
		return ast.OpEq, true
	case token.GreaterThan:
		return ast.OpGt, true
	case token.LessThan:
		return ast.OpLt, true
	case token.GreaterThanEqual:
		return ast.OpGtEq, true
	case token.LessThanEqual:
		return ast.OpLtEq, true
	case token.And:
		return ast.OpAnd, true
	case token.Or:
		return ast.OpOr, true
	default:
		return 0, false
	}
}

func (p *parser) parseCondition() (ast.Expr, error) {
	left, err := p.parseConditionOperand()
	if err != nil {
		return nil, err
	}
	op, ok := isCmpOp(p.cur().Kind)
	if !ok {
		return left, nil
	}
	pos := left.Interval()
	p.advance()
	right, err := p.parseConditionOperand()
	if err != nil {
		return nil, err
	}
	return ast.InfixExpr{Node: ast.NewNode(pos), Op: op, Left: left, Right: right}, nil
}

func (p *parser) parseConditionOperand() (ast.Expr, error) {
	if p.cur().Kind == token.LParen {
		p.advance()
		inner, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return p.parseVarExpr()
}

// ---- expressions ----

func isVarExprStart(k token.Kind) bool {
	switch k {
	case token.Ident, token.IntLiteral, token.BoolLiteral, token.StringLiteral, token.ComplexString, token.LParen, token.LBracket:
		return true
	default:
		return false
	}
}

// canStartVarExpr is isVarExprStart plus the lookahead needed to keep a
// bare trailing identifier from swallowing the next step or function
// header as if it were a reserved call's argument.
func (p *parser) canStartVarExpr() bool {
	if !isVarExprStart(p.cur().Kind) {
		return false
	}
	if p.cur().Kind == token.Ident && (p.peek(1).Kind == token.Colon || p.looksLikeFunctionHeader()) {
		return false
	}
	return true
}

// parseVarExpr parses `builder | ident | literal | vec` and then applies
// any trailing `.` path chain, per the grammar's var_expr/builder
// productions collapsed into one path-aware descent.
func (p *parser) parseVarExpr() (ast.Expr, error) {
	primary, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return p.parsePathTail(primary)
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	pos := p.interval()
	switch p.cur().Kind {
	case token.Ident:
		name := p.advance().Literal
		if p.cur().Kind == token.LParen {
			arg, err := p.parseSingleArgCall()
			if err != nil {
				return nil, err
			}
			return ast.FunctionExpr{Node: ast.NewNode(pos), Name: name, Arg: arg}, nil
		}
		return ast.IdentExpr{Node: ast.NewNode(pos), Name: name}, nil
	case token.IntLiteral:
		lit := p.advance()
		n, err := strconv.ParseInt(lit.Literal, 10, 64)
		if err != nil {
			return nil, newError(pos, "invalid integer literal %q: %v", lit.Literal, err)
		}
		return ast.LitExpr{Node: ast.NewNode(pos), Kind: ast.LitInt, Int: n}, nil
	case token.BoolLiteral:
		lit := p.advance()
		return ast.LitExpr{Node: ast.NewNode(pos), Kind: ast.LitBool, Bool: lit.Literal == "True"}, nil
	case token.StringLiteral, token.ComplexString:
		return p.parseStringRun()
	case token.LParen, token.LBracket:
		return p.parseVec()
	default:
		return nil, newError(pos, "unexpected token %s, expected a value", p.cur().Kind)
	}
}

// parseSingleArgCall parses the `'(' var_expr ')'` call form used in
// expression position (builder chains), which — unlike a statement-level
// ActionExpr call — always takes exactly one argument expression (which
// may itself be a VecExpr carrying several values).
func (p *parser) parseSingleArgCall() (ast.Expr, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	if p.cur().Kind == token.RParen {
		p.advance()
		return nil, nil
	}
	arg, err := p.parseVarExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return arg, nil
}

// parseStringRun consumes one or more consecutive StringLiteral/
// ComplexString tokens (always emitted back-to-back by the lexer for a
// single quoted string) and collapses them to a LitExpr when there is
// exactly one plain StringLiteral segment, or a ComplexLiteral otherwise.
func (p *parser) parseStringRun() (ast.Expr, error) {
	pos := p.interval()
	var segments []ast.Expr
	for p.cur().Kind == token.StringLiteral || p.cur().Kind == token.ComplexString {
		tok := p.advance()
		if tok.Kind == token.StringLiteral {
			segments = append(segments, ast.LitExpr{
				Node: ast.NewNode(token.IntervalFromToken(tok)), Kind: ast.LitString, String: tok.Literal,
			})
			continue
		}
		inner, err := parseSplice(tok)
		if err != nil {
			return nil, err
		}
		segments = append(segments, inner)
	}
	if len(segments) == 1 {
		if lit, ok := segments[0].(ast.LitExpr); ok && lit.Kind == ast.LitString {
			return lit, nil
		}
	}
	return ast.ComplexLiteral{Node: ast.NewNode(pos), Segments: segments}, nil
}

// parseSplice parses the token sub-sequence captured in a ComplexString
// token's Inner field as a single expression.
func parseSplice(tok token.Token) (ast.Expr, error) {
	inner := append(append([]token.Token{}, tok.Inner...), token.Token{Kind: token.EOF})
	sub := &parser{toks: inner}
	if sub.cur().Kind == token.EOF {
		return ast.EmptyExpr{Node: ast.NewNode(token.IntervalFromToken(tok))}, nil
	}
	expr, err := sub.parseVarExpr()
	if err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *parser) parseVec() (ast.Expr, error) {
	pos := p.interval()
	var close token.Kind
	switch p.cur().Kind {
	case token.LParen:
		close = token.RParen
	case token.LBracket:
		close = token.RBracket
	}
	items, err := p.parseParenList(p.cur().Kind, close)
	if err != nil {
		return nil, err
	}
	return ast.VecExpr{Node: ast.NewNode(pos), Items: items}, nil
}

// parsePathTail applies a trailing chain of `.field`, `.method(args)`, and
// `[index]` path steps to root.
func (p *parser) parsePathTail(root ast.Expr) (ast.Expr, error) {
	var steps []ast.PathStep
	for {
		switch p.cur().Kind {
		case token.Dot:
			stepPos := p.interval()
			p.advance()
			nameTok, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			if p.cur().Kind == token.LParen {
				args, err := p.parseArgList()
				if err != nil {
					return nil, err
				}
				steps = append(steps, ast.PathStep{Pos: stepPos, State: ast.MethodCall{Pos: stepPos, Name: nameTok.Literal, Args: args}})
				continue
			}
			steps = append(steps, ast.PathStep{Pos: stepPos, State: ast.FieldAccess{Pos: stepPos, Name: nameTok.Literal}})
		case token.LBracket:
			stepPos := p.interval()
			p.advance()
			idx, err := p.parseVarExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBracket); err != nil {
				return nil, err
			}
			steps = append(steps, ast.PathStep{Pos: stepPos, State: ast.IndexAccess{Pos: stepPos, Index: idx}})
		default:
			if len(steps) == 0 {
				return root, nil
			}
			return ast.PathExpr{Node: ast.NewNode(root.Interval()), Root: root, Path: steps}, nil
		}
	}
}

