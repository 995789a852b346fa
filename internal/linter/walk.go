package linter

import "github.com/csml-lang/interpreter/pkg/ast"

// walk visits e and every expression it contains, depth-first, calling
// visit on each node including e itself. It exists because the linter
// needs to inspect every GotoExpr/RememberExpr/IdentExpr in a body without
// duplicating the evaluator's execution-order tree walk.
func walk(e ast.Expr, visit func(ast.Expr)) {
	if e == nil {
		return
	}
	visit(e)
	switch n := e.(type) {
	case ast.IfExpr:
		walk(n.Cond, visit)
		walkAll(n.Consequence.Block, visit)
	case ast.RememberExpr:
		walk(n.Value, visit)
	case ast.ActionExpr:
		walkArgs(n.Args, visit)
	case ast.ObjectExpr:
		walkArgs(n.Args, visit)
		walk(n.Expr, visit)
	case ast.ReservedExpr:
		walk(n.Arg, visit)
	case ast.FunctionExpr:
		walk(n.Arg, visit)
	case ast.PathExpr:
		walk(n.Root, visit)
		for _, step := range n.Path {
			switch st := step.State.(type) {
			case ast.IndexAccess:
				walk(st.Index, visit)
			case ast.MethodCall:
				walkArgs(st.Args, visit)
			}
		}
	case ast.VecExpr:
		walkAll(n.Items, visit)
	case ast.MapExpr:
		for _, name := range n.Names {
			walk(n.Values[name], visit)
		}
	case ast.ComplexLiteral:
		walkAll(n.Segments, visit)
	case ast.InfixExpr:
		walk(n.Left, visit)
		walk(n.Right, visit)
	case ast.BuilderExpr:
		walk(n.Left, visit)
		walk(n.Right, visit)
	}
}

func walkArgs(args ast.ArgList, visit func(ast.Expr)) {
	for _, a := range args.Args {
		walk(a.Value, visit)
	}
}

func walkAll(exprs []ast.Expr, visit func(ast.Expr)) {
	for _, e := range exprs {
		walk(e, visit)
	}
}

// bodies returns every step and function body declared on flow, the unit
// the linter scans for goto targets, remembers, and identifier reads.
func bodies(flow *ast.Flow) [][]ast.Expr {
	all := make([][]ast.Expr, 0, len(flow.Steps)+len(flow.Functions))
	for _, s := range flow.Steps {
		all = append(all, s.Body)
	}
	for _, fn := range flow.Functions {
		all = append(all, fn.Body)
	}
	return all
}
