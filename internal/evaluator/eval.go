package evaluator

import (
	"fmt"

	"github.com/csml-lang/interpreter/pkg/ast"
	"github.com/csml-lang/interpreter/pkg/value"
)

// Eval is the tree-walk entry point described by spec.md §4.6
// ("expr_to_literal"). It doubles as the step executor's statement
// dispatcher: goto/hold/if/remember are ordinary Expr kinds, and a
// terminal one (goto, hold, or an error) sets f.Msg.Exit (or f.PendingGoto)
// and returns immediately, same as any other evaluation.
func Eval(f *Frame, e ast.Expr) (value.Value, error) {
	switch n := e.(type) {
	case ast.EmptyExpr:
		return value.Null, nil

	case ast.LitExpr:
		return evalLit(n), nil

	case ast.IdentExpr:
		return evalIdent(f, n), nil

	case ast.VecExpr:
		return evalVec(f, n)

	case ast.MapExpr:
		return evalMap(f, n)

	case ast.ComplexLiteral:
		return evalComplexLiteral(f, n)

	case ast.InfixExpr:
		return evalInfix(f, n)

	case ast.PathExpr:
		root, err := Eval(f, n.Root)
		if err != nil {
			return value.Value{}, err
		}
		return applyPath(f, root, n.Path)

	case ast.ObjectExpr:
		return evalObject(f, n)

	case ast.ActionExpr:
		return dispatchCall(f, n.Builtin, n.Args, n.Pos)

	case ast.FunctionExpr:
		return dispatchCall(f, n.Name, argListFromFunctionExpr(n), n.Pos)

	case ast.ReservedExpr:
		return evalReserved(f, n)

	case ast.GotoExpr:
		return evalGoto(f, n)

	case ast.RememberExpr:
		val, err := Eval(f, n.Value)
		if err != nil {
			return value.Value{}, err
		}
		f.Scope.Remember(n.Name, val)
		return val, nil

	case ast.IfExpr:
		return evalIf(f, n)

	default:
		return value.Value{}, f.fail(e.Interval(), fmt.Errorf("InternalError: unsupported expression node %T", e))
	}
}

func evalLit(n ast.LitExpr) value.Value {
	switch n.Kind {
	case ast.LitInt:
		return value.NewInt(n.Int)
	case ast.LitFloat:
		return value.NewFloat(n.Float)
	case ast.LitBool:
		return value.NewBool(n.Bool)
	case ast.LitString:
		return value.NewString(n.String)
	default:
		return value.Null
	}
}

// evalIdent resolves a bare identifier. "event" is special-cased to the
// triggering event's content, per spec.md §8 scenario 3 (`if (event ==
// "yes")`); every other name walks the three-tier Scope lookup. An
// identifier found in none of step_vars/current/metadata resolves to null,
// matching spec.md §4.4's "accessing a missing key yields null".
func evalIdent(f *Frame, n ast.IdentExpr) value.Value {
	if n.Name == "event" {
		if f.Event == nil {
			return value.Null
		}
		return f.Event.Content
	}
	val, _ := f.Scope.Resolve(n.Name)
	return val
}

func evalVec(f *Frame, n ast.VecExpr) (value.Value, error) {
	items := make([]value.Value, len(n.Items))
	for i, item := range n.Items {
		val, err := Eval(f, item)
		if err != nil {
			return value.Value{}, err
		}
		items[i] = val
	}
	return value.NewArray(items), nil
}

func evalMap(f *Frame, n ast.MapExpr) (value.Value, error) {
	bound := make(map[string]value.Value, len(n.Names))
	for _, name := range n.Names {
		val, err := Eval(f, n.Values[name])
		if err != nil {
			return value.Value{}, err
		}
		bound[name] = val
	}
	return value.NewObject("", n.Names, bound), nil
}

// evalComplexLiteral interpolates a `{{ … }}`-spliced string by joining the
// string coercion of every segment in source order, per spec.md §4.6.
func evalComplexLiteral(f *Frame, n ast.ComplexLiteral) (value.Value, error) {
	var sb []byte
	for _, seg := range n.Segments {
		val, err := Eval(f, seg)
		if err != nil {
			return value.Value{}, err
		}
		sb = append(sb, val.CoerceString()...)
	}
	return value.NewString(string(sb)), nil
}

// evalInfix evaluates a comparison or boolean combination. && and || short-
// circuit; ==, >, <, >=, <= always evaluate both sides first.
func evalInfix(f *Frame, n ast.InfixExpr) (value.Value, error) {
	if n.Op == ast.OpAnd || n.Op == ast.OpOr {
		left, err := Eval(f, n.Left)
		if err != nil {
			return value.Value{}, err
		}
		if n.Op == ast.OpAnd && !left.Truthy() {
			return value.NewBool(false), nil
		}
		if n.Op == ast.OpOr && left.Truthy() {
			return value.NewBool(true), nil
		}
		right, err := Eval(f, n.Right)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewBool(right.Truthy()), nil
	}

	left, err := Eval(f, n.Left)
	if err != nil {
		return value.Value{}, err
	}
	right, err := Eval(f, n.Right)
	if err != nil {
		return value.Value{}, err
	}
	if n.Op == ast.OpEq {
		return value.NewBool(left.Equal(right)), nil
	}
	cmp, err := value.Compare(left, right)
	if err != nil {
		return value.Value{}, f.fail(n.Pos, err)
	}
	switch n.Op {
	case ast.OpGt:
		return value.NewBool(cmp > 0), nil
	case ast.OpLt:
		return value.NewBool(cmp < 0), nil
	case ast.OpGtEq:
		return value.NewBool(cmp >= 0), nil
	case ast.OpLtEq:
		return value.NewBool(cmp <= 0), nil
	default:
		return value.Value{}, f.fail(n.Pos, fmt.Errorf("InternalError: unknown infix operator %d", n.Op))
	}
}

// evalObject handles the three ObjectExpr forms. Normal never reaches the
// parser's output (the grammar routes name(args) through ActionExpr
// instead) but is handled the same way here for spec fidelity with
// hand-built ASTs.
func evalObject(f *Frame, n ast.ObjectExpr) (value.Value, error) {
	switch n.Kind {
	case ast.ObjectAssign:
		val, err := Eval(f, n.Expr)
		if err != nil {
			return value.Value{}, err
		}
		f.Scope.Set(n.Name, val)
		return val, nil
	case ast.ObjectAs:
		val, err := Eval(f, n.Expr)
		if err != nil {
			return value.Value{}, err
		}
		f.Scope.Set(n.Name, val)
		return val, nil
	case ast.ObjectNormal:
		return dispatchCall(f, n.Name, n.Args, n.Pos)
	default:
		return value.Value{}, f.fail(n.Pos, fmt.Errorf("InternalError: unknown ObjectExpr kind %d", n.Kind))
	}
}

// evalIf evaluates Cond and, if truthy, runs the consequence block inline
// (it does not push a new instruction scope), per spec.md §4.6.
func evalIf(f *Frame, n ast.IfExpr) (value.Value, error) {
	cond, err := Eval(f, n.Cond)
	if err != nil {
		return value.Value{}, err
	}
	if !cond.Truthy() {
		return value.Null, nil
	}
	return value.Null, runBlock(f, n.Consequence.Block)
}

// runBlock executes a statement list in order, stopping as soon as one sets
// a terminal exit condition (goto, hold, or error), per spec.md §4.6.
func runBlock(f *Frame, block []ast.Expr) error {
	for _, stmt := range block {
		if _, err := Eval(f, stmt); err != nil {
			return err
		}
		if f.Msg.Exit != value.ExitNone || f.PendingGoto != "" {
			return nil
		}
	}
	return nil
}

// evalGoto resolves a goto target to a step in the current flow or a flow
// name in the bundle, per spec.md §4.6/§8 scenario 5. "end" is the one
// reserved target that names no declared step: per spec.md §8 scenario 1
// (`goto end` reaching terminal End with context.step="end"), it resolves
// unconditionally rather than through HasStep/Flow lookup. evalGoto records
// the resolution on Frame and sets exit condition Goto; the outer driver
// (internal/bot) performs the actual Context mutation, including
// recognizing "end" as terminal rather than looking up its step body.
func evalGoto(f *Frame, n ast.GotoExpr) (value.Value, error) {
	if n.Target == "end" {
		f.PendingGoto = "end"
		f.PendingGotoIsFlow = false
		f.Msg.SetExit(value.ExitGoto)
		return value.Null, nil
	}

	flow, err := f.Flows.Flow(f.FlowName)
	if err != nil {
		return value.Value{}, f.fail(n.Pos, err)
	}
	if flow.HasStep(n.Target) {
		f.PendingGoto = n.Target
		f.PendingGotoIsFlow = false
		f.Msg.SetExit(value.ExitGoto)
		return value.Null, nil
	}
	if _, err := f.Flows.Flow(n.Target); err == nil {
		f.PendingGoto = n.Target
		f.PendingGotoIsFlow = true
		f.Msg.SetExit(value.ExitGoto)
		return value.Null, nil
	}
	return value.Value{}, f.fail(n.Pos, fmt.Errorf("UnknownStep: %q", n.Target))
}
