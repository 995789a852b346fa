package evaluator

import (
	"fmt"
	"strings"
	"time"

	"github.com/csml-lang/interpreter/internal/builtin"
	"github.com/csml-lang/interpreter/internal/extension"
	"github.com/csml-lang/interpreter/pkg/ast"
	"github.com/csml-lang/interpreter/pkg/token"
	"github.com/csml-lang/interpreter/pkg/value"
)

// argListFromFunctionExpr turns a FunctionExpr's single argument into an
// ArgList, so user/imported function and builtin calls written in
// expression position (`say Text("hi")`) share the same dispatch path as
// ActionExpr. A nil Arg is a no-argument call; a VecExpr fans out into one
// positional argument per item, matching the grammar's allowance for a
// parenthesized vec to carry several values through a single var_expr slot.
func argListFromFunctionExpr(n ast.FunctionExpr) ast.ArgList {
	if n.Arg == nil {
		return ast.ArgList{Kind: ast.ArgsNormal}
	}
	if vec, ok := n.Arg.(ast.VecExpr); ok {
		args := make([]ast.Arg, len(vec.Items))
		for i, item := range vec.Items {
			args[i] = ast.Arg{Value: item, Pos: item.Interval()}
		}
		return ast.ArgList{Kind: ast.ArgsNormal, Args: args}
	}
	return ast.ArgList{Kind: ast.ArgsNormal, Args: []ast.Arg{{Value: n.Arg, Pos: n.Arg.Interval()}}}
}

// evalArgValues evaluates every argument expression in args, in order.
func evalArgValues(f *Frame, args ast.ArgList) ([]value.Value, error) {
	values := make([]value.Value, len(args.Args))
	for i, a := range args.Args {
		val, err := Eval(f, a.Value)
		if err != nil {
			return nil, err
		}
		values[i] = val
	}
	return values, nil
}

// bindFreeform maps an ArgList onto a plain name→value map with no declared
// parameter list: named arguments keep their own name, positional ones get
// a synthetic "arg<index>" key, mirroring original_source's
// resolve_fn_args. Used for native components, whose argument names come
// from a host-declared schema this package has no static view of.
func bindFreeform(args ast.ArgList, values []value.Value) map[string]value.Value {
	bound := make(map[string]value.Value, len(args.Args))
	for i, a := range args.Args {
		key := a.Name
		if key == "" {
			key = fmt.Sprintf("arg%d", i)
		}
		bound[key] = values[i]
	}
	return bound
}

// dispatchCall resolves name against the dispatch order spec.md §4.6
// fixes: (1) native component, (2) built-in, (3) local user function, (4)
// imported function, (5) error UnknownBuiltin.
func dispatchCall(f *Frame, name string, args ast.ArgList, pos token.Interval) (value.Value, error) {
	if nc, ok := f.Natives[name]; ok {
		values, err := evalArgValues(f, args)
		if err != nil {
			return value.Value{}, err
		}
		result, err := nc.Build(bindFreeform(args, values))
		if err != nil {
			return value.Value{}, f.fail(pos, err)
		}
		return result, nil
	}

	if builtin.Names[name] {
		return dispatchBuiltin(f, name, args, pos)
	}

	if flow, err := f.Flows.Flow(f.FlowName); err == nil {
		if fnArgs, ok := flow.FunctionArgs(name); ok {
			body, _ := flow.StepBody(name)
			return f.callFunction(f.FlowName, fnArgs, body, args, pos)
		}
		if target, fnArgs, body, ok := resolveImport(f, flow, name); ok {
			return f.callFunction(target, fnArgs, body, args, pos)
		}
	}

	return value.Value{}, f.fail(pos, fmt.Errorf("UnknownBuiltin: %q", name))
}

// resolveImport looks up name among flow's imports (by alias if renamed,
// else by declared name) and finds the flow that actually defines it: the
// import's FromFlow if given, otherwise every flow in the bundle.
func resolveImport(f *Frame, flow *ast.Flow, name string) (targetFlow string, fnArgs []string, body []ast.Expr, ok bool) {
	for _, imp := range flow.Imports {
		local := imp.Alias
		if local == "" {
			local = imp.Name
		}
		if local != name {
			continue
		}
		candidates := []string{imp.FromFlow}
		if imp.FromFlow == "" {
			if lister, ok := f.Flows.(interface{ Names() []string }); ok {
				candidates = lister.Names()
			}
		}
		for _, candidate := range candidates {
			if candidate == "" {
				continue
			}
			candidateFlow, err := f.Flows.Flow(candidate)
			if err != nil {
				continue
			}
			if args, fok := candidateFlow.FunctionArgs(imp.Name); fok {
				body, _ := candidateFlow.StepBody(imp.Name)
				return candidate, args, body, true
			}
		}
	}
	return "", nil, nil, false
}

// callFunction pushes a child Frame (fresh Scope over a child Context,
// inheriting everything else) and runs body to completion, per spec.md
// §4.6. The call's return value is the last statement's value, matching
// the reference interpreter's block-as-expression convention.
func (f *Frame) callFunction(targetFlow string, fnArgs []string, body []ast.Expr, args ast.ArgList, pos token.Interval) (value.Value, error) {
	values, err := evalArgValues(f, args)
	if err != nil {
		return value.Value{}, err
	}

	spec := builtin.Spec{Name: "function"}
	for _, a := range fnArgs {
		spec.Params = append(spec.Params, builtin.Param{Name: a, Required: true})
	}
	bound, err := builtin.Bind(spec, args, values)
	if err != nil {
		return value.Value{}, f.fail(pos, err)
	}

	child := f.Child(targetFlow)
	for _, a := range fnArgs {
		child.Scope.Set(a, bound[a])
	}

	var last value.Value
	for _, stmt := range body {
		val, err := Eval(child, stmt)
		if err != nil {
			return value.Value{}, err
		}
		last = val
		if f.Msg.Exit != value.ExitNone || child.PendingGoto != "" {
			break
		}
	}
	// Msg is shared with the caller already; PendingGoto is per-Frame and
	// must be carried back explicitly so the calling step loop observes it.
	f.PendingGoto = child.PendingGoto
	f.PendingGotoIsFlow = child.PendingGotoIsFlow
	return last, nil
}

// dispatchBuiltin resolves one of the fixed builtin names (excluding
// say/ask/retry/import, which are lexed as ReservedFunc and handled by
// evalReserved; goto/remember/as, which are their own Expr kinds).
func dispatchBuiltin(f *Frame, name string, args ast.ArgList, pos token.Interval) (value.Value, error) {
	switch name {
	case "hold":
		f.Msg.SetExit(value.ExitHold)
		return value.Null, nil

	case "use":
		values, err := evalArgValues(f, args)
		if err != nil {
			return value.Value{}, err
		}
		bound, err := builtin.Bind(builtin.UseSpec, args, values)
		if err != nil {
			return value.Value{}, f.fail(pos, err)
		}
		return bound["value"], nil

	case "extension":
		return callExtension(f, args, pos)

	default:
		spec, ok := builtin.ComponentSpec(name)
		if !ok {
			return value.Value{}, f.fail(pos, fmt.Errorf("UnknownBuiltin: %q", name))
		}
		values, err := evalArgValues(f, args)
		if err != nil {
			return value.Value{}, err
		}
		bound, err := builtin.Bind(spec, args, values)
		if err != nil {
			return value.Value{}, f.fail(pos, err)
		}
		return builtin.BuildComponent(name, bound), nil
	}
}

// callExtension binds the extension(name=…, …) call, per spec.md §4.5, and
// invokes it through the per-extension retry budget (breaker-guarded, with
// a small bounded retry on top) so a misbehaving host callable cannot be
// hammered turn after turn.
func callExtension(f *Frame, args ast.ArgList, pos token.Interval) (value.Value, error) {
	values, err := evalArgValues(f, args)
	if err != nil {
		return value.Value{}, err
	}
	name, forwarded, err := builtin.BindExtensionArgs(args, values)
	if err != nil {
		return value.Value{}, f.fail(pos, err)
	}

	data := &extension.Data{
		Scope: f.Scope,
		Emit: func(v value.Value) {
			contentType := strings.ToLower(v.ContentType)
			if contentType == "" {
				contentType = "text"
			}
			f.EmitMessage(contentType, v)
		},
	}

	start := time.Now()
	var result value.Value
	budget := f.Breakers.Get(name)
	execErr := budget.Execute(func() error {
		var callErr error
		result, callErr = f.Extensions.Call(f.ctx, name, forwarded, pos, data)
		return callErr
	})

	if f.Metrics != nil {
		status := "ok"
		if execErr != nil {
			status = "error"
		}
		f.Metrics.ExtensionCallDuration.Record(f.ctx, time.Since(start).Seconds())
		f.Metrics.RecordExtensionCall(f.ctx, name, status)
	}

	if execErr != nil {
		return value.Value{}, f.fail(pos, fmt.Errorf("ExtensionError: %w", execErr))
	}
	return result, nil
}
